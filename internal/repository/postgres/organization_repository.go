package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/lexaudit/internal/domain/organization"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
)

// OrganizationRepository implements organization.Repository
type OrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

const organizationColumns = `id, name, industry, size, jurisdictions, regulatory_frameworks, contact_email, created_at, updated_at`

// Create stores a new organization
func (r *OrganizationRepository) Create(ctx context.Context, org *organization.Organization) error {
	defer observe("insert", "organizations", time.Now())

	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	org.CreatedAt = now
	org.UpdatedAt = now

	jurisdictions, frameworks, err := encodeOrganizationLists(org)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		org.ID, org.Name, org.Industry, org.Size, jurisdictions, frameworks,
		org.ContactEmail, org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to create organization", err)
	}
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*organization.Organization, error) {
	defer observe("select", "organizations", time.Now())

	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Organization")
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get organization", err)
	}
	return org, nil
}

// Update replaces a stored organization
func (r *OrganizationRepository) Update(ctx context.Context, org *organization.Organization) error {
	defer observe("update", "organizations", time.Now())

	jurisdictions, frameworks, err := encodeOrganizationLists(org)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	query := `
		UPDATE organizations
		SET name = $1, industry = $2, size = $3, jurisdictions = $4,
		    regulatory_frameworks = $5, contact_email = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		org.Name, org.Industry, org.Size, jurisdictions, frameworks, org.ContactEmail, now, org.ID,
	)
	if err != nil {
		return errors.DatabaseError("failed to update organization", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("Organization")
	}
	org.UpdatedAt = now
	return nil
}

// List retrieves organizations ordered by name
func (r *OrganizationRepository) List(ctx context.Context, limit, offset int) ([]*organization.Organization, error) {
	defer observe("select", "organizations", time.Now())

	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY name, id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.DatabaseError("failed to list organizations", err)
	}
	defer rows.Close()

	orgs := make([]*organization.Organization, 0)
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, errors.DatabaseError("failed to scan organization", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func scanOrganization(row rowScanner) (*organization.Organization, error) {
	org := &organization.Organization{}
	var industry, email sql.NullString
	var jurisdictions, frameworks string

	err := row.Scan(
		&org.ID, &org.Name, &industry, &org.Size, &jurisdictions, &frameworks,
		&email, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	org.Industry = industry.String
	org.ContactEmail = email.String

	if err := json.Unmarshal([]byte(jurisdictions), &org.Jurisdictions); err != nil {
		return nil, fmt.Errorf("failed to decode jurisdictions of organization %s: %w", org.ID, err)
	}
	if err := json.Unmarshal([]byte(frameworks), &org.RegulatoryFrameworks); err != nil {
		return nil, fmt.Errorf("failed to decode frameworks of organization %s: %w", org.ID, err)
	}
	return org, nil
}

func encodeOrganizationLists(org *organization.Organization) (string, string, error) {
	encode := func(list []string) (string, error) {
		if list == nil {
			list = []string{}
		}
		b, err := json.Marshal(list)
		return string(b), err
	}

	j, err := encode(org.Jurisdictions)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode jurisdictions: %w", err)
	}
	f, err := encode(org.RegulatoryFrameworks)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode regulatory frameworks: %w", err)
	}
	return j, f, nil
}
