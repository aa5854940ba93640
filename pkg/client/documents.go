package client

import (
	"context"
	"net/url"
	"strconv"
)

// DocumentService handles document API calls
type DocumentService struct {
	client *Client
}

// DocumentListOptions contains options for listing documents
type DocumentListOptions struct {
	ListOptions
	OrganizationID string
	Type           string
	Status         string
}

// List retrieves a page of documents
func (s *DocumentService) List(ctx context.Context, opts *DocumentListOptions) (*Page[Document], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.OrganizationID != "" {
			query.Set("organization_id", opts.OrganizationID)
		}
		if opts.Type != "" {
			query.Set("type", opts.Type)
		}
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
	}

	path := "/api/v1/documents"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Page[Document]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single document by ID
func (s *DocumentService) Get(ctx context.Context, id string) (*Document, error) {
	var doc Document
	if err := s.client.doRequest(ctx, "GET", "/api/v1/documents/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Create stores a new document. Saving a document triggers validation on the server.
func (s *DocumentService) Create(ctx context.Context, input DocumentInput) (*Document, error) {
	var doc Document
	if err := s.client.doRequest(ctx, "POST", "/api/v1/documents", input, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update replaces a stored document
func (s *DocumentService) Update(ctx context.Context, id string, input DocumentInput) (*Document, error) {
	var doc Document
	if err := s.client.doRequest(ctx, "PUT", "/api/v1/documents/"+url.PathEscape(id), input, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete deletes a document
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, "DELETE", "/api/v1/documents/"+url.PathEscape(id), nil, nil)
}
