package dto

import (
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
)

// DocumentStatusTag validates a document status value
const DocumentStatusTag = "omitempty,oneof=draft review approved signed archived"

// DocumentRequest creates or replaces a document
type DocumentRequest struct {
	ID             string            `json:"id,omitempty" validate:"omitempty,max=128"`
	OrganizationID string            `json:"organization_id,omitempty"`
	Title          string            `json:"title" validate:"required,max=512"`
	Content        string            `json:"content"`
	Type           string            `json:"type" validate:"required,max=64"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Authors        []string          `json:"authors,omitempty" validate:"dive,required"`
	Status         string            `json:"status,omitempty" validate:"omitempty,oneof=draft review approved signed archived"`
}

// ToDocument converts the request into a document without an id
func (r DocumentRequest) ToDocument() *document.Document {
	return &document.Document{
		OrganizationID: r.OrganizationID,
		Title:          r.Title,
		Content:        r.Content,
		Type:           r.Type,
		Metadata:       r.Metadata,
		Authors:        r.Authors,
		Status:         r.Status,
	}
}

// DocumentListRequest holds the list filters of GET /documents
type DocumentListRequest struct {
	OrganizationID string
	Type           string
	Status         string
}

// Filter converts the request into a repository filter
func (r DocumentListRequest) Filter() document.Filter {
	return document.Filter{
		OrganizationID: r.OrganizationID,
		Type:           r.Type,
		Status:         r.Status,
	}
}
