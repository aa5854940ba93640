package client

import (
	"context"
	"net/url"
)

// RuleService handles rule registry API calls
type RuleService struct {
	client *Client
}

// List retrieves registered rules, optionally for one framework
func (s *RuleService) List(ctx context.Context, framework string) ([]Rule, error) {
	path := "/api/v1/rules"
	if framework != "" {
		path += "?framework=" + url.QueryEscape(framework)
	}

	var resp struct {
		Rules []Rule `json:"rules"`
		Total int    `json:"total"`
	}
	if err := s.client.doRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rules, nil
}

// Frameworks lists frameworks with registered rules
func (s *RuleService) Frameworks(ctx context.Context) ([]Framework, error) {
	var frameworks []Framework
	if err := s.client.doRequest(ctx, "GET", "/api/v1/rules/frameworks", nil, &frameworks); err != nil {
		return nil, err
	}
	return frameworks, nil
}

// Create registers a pattern rule
func (s *RuleService) Create(ctx context.Context, def RuleDefinition) (*Rule, error) {
	var rule Rule
	if err := s.client.doRequest(ctx, "POST", "/api/v1/rules", def, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Delete unregisters a rule
func (s *RuleService) Delete(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, "DELETE", "/api/v1/rules/"+url.PathEscape(id), nil, nil)
}
