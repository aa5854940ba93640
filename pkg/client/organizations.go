package client

import (
	"context"
	"net/url"
	"strconv"
)

// OrganizationService handles organization API calls
type OrganizationService struct {
	client *Client
}

// List retrieves organizations
func (s *OrganizationService) List(ctx context.Context, opts *ListOptions) ([]Organization, error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
	}

	path := "/api/v1/organizations"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var orgs []Organization
	if err := s.client.doRequest(ctx, "GET", path, nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// Get retrieves a single organization by ID
func (s *OrganizationService) Get(ctx context.Context, id string) (*Organization, error) {
	var org Organization
	if err := s.client.doRequest(ctx, "GET", "/api/v1/organizations/"+url.PathEscape(id), nil, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// Create creates an organization
func (s *OrganizationService) Create(ctx context.Context, input OrganizationInput) (*Organization, error) {
	var org Organization
	if err := s.client.doRequest(ctx, "POST", "/api/v1/organizations", input, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// Update replaces an organization. The server regenerates its report.
func (s *OrganizationService) Update(ctx context.Context, id string, input OrganizationInput) (*Organization, error) {
	var org Organization
	if err := s.client.doRequest(ctx, "PUT", "/api/v1/organizations/"+url.PathEscape(id), input, &org); err != nil {
		return nil, err
	}
	return &org, nil
}
