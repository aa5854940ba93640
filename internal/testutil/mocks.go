package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
	"github.com/pratik-mahalle/lexaudit/internal/domain/organization"
	"github.com/pratik-mahalle/lexaudit/internal/domain/regulatory"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
)

// MockDocumentRepository is a mock implementation of document.Repository
type MockDocumentRepository struct {
	mu          sync.Mutex
	Documents   map[string]*document.Document
	order       []string
	CreateError error
	GetError    error
	ListError   error
}

func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{
		Documents: make(map[string]*document.Document),
	}
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	m.Documents[doc.ID] = doc
	m.order = append(m.order, doc.ID)
	return nil
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	doc, ok := m.Documents[id]
	if !ok {
		return nil, errors.NotFound("Document")
	}
	return doc, nil
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Documents[doc.ID]; !ok {
		return errors.NotFound("Document")
	}
	doc.Version++
	m.Documents[doc.ID] = doc
	return nil
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Documents[id]; !ok {
		return errors.NotFound("Document")
	}
	delete(m.Documents, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockDocumentRepository) List(ctx context.Context, filter document.Filter, limit, offset int) ([]*document.Document, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListError != nil {
		return nil, 0, m.ListError
	}

	var matched []*document.Document
	for _, id := range m.order {
		doc := m.Documents[id]
		if filter.OrganizationID != "" && doc.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.Type != "" && doc.Type != filter.Type {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		matched = append(matched, doc)
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*document.Document{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MockDocumentRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*document.Document, error) {
	docs, _, err := m.List(ctx, document.Filter{OrganizationID: organizationID}, 0, 0)
	return docs, err
}

// MockOrganizationRepository is a mock implementation of organization.Repository
type MockOrganizationRepository struct {
	mu            sync.Mutex
	Organizations map[string]*organization.Organization
	CreateError   error
	GetError      error
}

func NewMockOrganizationRepository() *MockOrganizationRepository {
	return &MockOrganizationRepository{
		Organizations: make(map[string]*organization.Organization),
	}
}

func (m *MockOrganizationRepository) Create(ctx context.Context, org *organization.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	m.Organizations[org.ID] = org
	return nil
}

func (m *MockOrganizationRepository) GetByID(ctx context.Context, id string) (*organization.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	org, ok := m.Organizations[id]
	if !ok {
		return nil, errors.NotFound("Organization")
	}
	return org, nil
}

func (m *MockOrganizationRepository) Update(ctx context.Context, org *organization.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Organizations[org.ID]; !ok {
		return errors.NotFound("Organization")
	}
	m.Organizations[org.ID] = org
	return nil
}

func (m *MockOrganizationRepository) List(ctx context.Context, limit, offset int) ([]*organization.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*organization.Organization, 0, len(m.Organizations))
	for _, org := range m.Organizations {
		out = append(out, org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return []*organization.Organization{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

// MockComplianceRepository is a mock implementation of compliance.Repository
type MockComplianceRepository struct {
	mu          sync.Mutex
	Results     []*compliance.ValidationResult
	Reports     map[string]*compliance.Prediction
	reportOrder []string
	SaveError   error
}

func NewMockComplianceRepository() *MockComplianceRepository {
	return &MockComplianceRepository{
		Reports: make(map[string]*compliance.Prediction),
	}
}

func (m *MockComplianceRepository) SaveResult(ctx context.Context, result *compliance.ValidationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Results = append(m.Results, result)
	return nil
}

func (m *MockComplianceRepository) ListResults(ctx context.Context, documentID string, limit int) ([]*compliance.ValidationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*compliance.ValidationResult
	for i := len(m.Results) - 1; i >= 0; i-- {
		if m.Results[i].DocumentID == documentID {
			out = append(out, m.Results[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockComplianceRepository) SaveReport(ctx context.Context, report *compliance.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Reports[report.ID] = report
	m.reportOrder = append(m.reportOrder, report.ID)
	return nil
}

func (m *MockComplianceRepository) GetReport(ctx context.Context, id string) (*compliance.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.Reports[id]
	if !ok {
		return nil, errors.NotFound("Report")
	}
	return report, nil
}

func (m *MockComplianceRepository) ListReports(ctx context.Context, organizationID string, limit int) ([]*compliance.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*compliance.Prediction
	for i := len(m.reportOrder) - 1; i >= 0; i-- {
		r := m.Reports[m.reportOrder[i]]
		if organizationID != "" && r.OrganizationID != organizationID {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ResultCount returns the number of saved validation results
func (m *MockComplianceRepository) ResultCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Results)
}

// MockTracker is a mock implementation of compliance.Tracker
type MockTracker struct {
	Changes []regulatory.Change
	Err     error
	Calls   [][]string
}

func (m *MockTracker) GetUpcomingChanges(ctx context.Context, jurisdictions []string) ([]regulatory.Change, error) {
	m.Calls = append(m.Calls, jurisdictions)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Changes, nil
}

// MockPredictor is a mock implementation of compliance.Predictor
type MockPredictor struct {
	Areas  []compliance.RiskArea
	Err    error
	Params []regulatory.ImpactParams
}

func (m *MockPredictor) PredictImpacts(ctx context.Context, params regulatory.ImpactParams) ([]compliance.RiskArea, error) {
	m.Params = append(m.Params, params)
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]compliance.RiskArea, len(m.Areas))
	copy(out, m.Areas)
	return out, nil
}

// MockArchiver is a mock implementation of compliance.Archiver
type MockArchiver struct {
	mu       sync.Mutex
	Archived []*compliance.Prediction
	Err      error
}

func (m *MockArchiver) Archive(ctx context.Context, report *compliance.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Archived = append(m.Archived, report)
	return nil
}

// Count returns the number of archived reports
func (m *MockArchiver) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Archived)
}

// ErrMock is a generic failure returned by mocks
var ErrMock = fmt.Errorf("mock failure")
