package dto

import "github.com/pratik-mahalle/lexaudit/internal/domain/compliance"

// RuleList is the response of GET /rules
type RuleList struct {
	Rules []compliance.Summary `json:"rules"`
	Total int                  `json:"total"`
}

// FrameworkResponse describes a framework and how many rules cover it
type FrameworkResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name,omitempty"`
	Description   string   `json:"description,omitempty"`
	Jurisdictions []string `json:"jurisdictions,omitempty"`
	URI           string   `json:"uri,omitempty"`
	Rules         int      `json:"rules"`
}
