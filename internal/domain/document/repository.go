package document

import "context"

// Repository defines the interface for document data access
type Repository interface {
	// Create stores a new document and assigns its ID when empty
	Create(ctx context.Context, doc *Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*Document, error)

	// Update replaces a stored document and bumps its version
	Update(ctx context.Context, doc *Document) error

	// Delete deletes a document
	Delete(ctx context.Context, id string) error

	// List retrieves documents matching the filter with pagination
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Document, int64, error)

	// ListByOrganization retrieves every document of an organization
	ListByOrganization(ctx context.Context, organizationID string) ([]*Document, error)
}
