package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
)

// DocumentRepository implements document.Repository
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, organization_id, title, content, type, metadata, authors, status, version, created_at, updated_at`

// Create stores a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *document.Document) error {
	defer observe("insert", "documents", time.Now())

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Status == "" {
		doc.Status = document.StatusDraft
	}
	doc.Version = 1
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	metadata, authors, err := encodeDocumentFields(doc)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		doc.ID, nullString(doc.OrganizationID), doc.Title, doc.Content, doc.Type,
		metadata, authors, doc.Status, doc.Version, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to create document", err)
	}
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*document.Document, error) {
	defer observe("select", "documents", time.Now())

	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Document")
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get document", err)
	}
	return doc, nil
}

// Update replaces a stored document and bumps its version
func (r *DocumentRepository) Update(ctx context.Context, doc *document.Document) error {
	defer observe("update", "documents", time.Now())

	metadata, authors, err := encodeDocumentFields(doc)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	query := `
		UPDATE documents
		SET organization_id = $1, title = $2, content = $3, type = $4, metadata = $5,
		    authors = $6, status = $7, version = version + 1, updated_at = $8
		WHERE id = $9
		RETURNING version, created_at
	`
	err = r.db.QueryRowContext(ctx, query,
		nullString(doc.OrganizationID), doc.Title, doc.Content, doc.Type, metadata,
		authors, doc.Status, now, doc.ID,
	).Scan(&doc.Version, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("Document")
	}
	if err != nil {
		return errors.DatabaseError("failed to update document", err)
	}
	doc.UpdatedAt = now
	return nil
}

// Delete deletes a document
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	defer observe("delete", "documents", time.Now())

	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return errors.DatabaseError("failed to delete document", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("Document")
	}
	return nil
}

// List retrieves documents matching the filter with pagination
func (r *DocumentRepository) List(ctx context.Context, filter document.Filter, limit, offset int) ([]*document.Document, int64, error) {
	defer observe("select", "documents", time.Now())

	var (
		conds []string
		args  []interface{}
	)
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("organization_id", filter.OrganizationID)
	add("type", filter.Type)
	add("status", filter.Status)

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("failed to count documents", err)
	}

	query := `SELECT ` + documentColumns + ` FROM documents` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.DatabaseError("failed to list documents", err)
	}
	defer rows.Close()

	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// ListByOrganization retrieves every document of an organization, oldest first
func (r *DocumentRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*document.Document, error) {
	defer observe("select", "documents", time.Now())

	query := `SELECT ` + documentColumns + ` FROM documents WHERE organization_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, errors.DatabaseError("failed to list organization documents", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*document.Document, error) {
	doc := &document.Document{}
	var orgID sql.NullString
	var metadata, authors string

	err := row.Scan(
		&doc.ID, &orgID, &doc.Title, &doc.Content, &doc.Type, &metadata, &authors,
		&doc.Status, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.OrganizationID = orgID.String

	if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata of document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal([]byte(authors), &doc.Authors); err != nil {
		return nil, fmt.Errorf("failed to decode authors of document %s: %w", doc.ID, err)
	}
	return doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*document.Document, error) {
	docs := make([]*document.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, errors.DatabaseError("failed to scan document", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func encodeDocumentFields(doc *document.Document) (string, string, error) {
	metadata := doc.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	m, err := json.Marshal(metadata)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode document metadata: %w", err)
	}

	authors := doc.Authors
	if authors == nil {
		authors = []string{}
	}
	a, err := json.Marshal(authors)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode document authors: %w", err)
	}
	return string(m), string(a), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
