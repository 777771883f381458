// Package testutil provides in-memory repositories for service tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-docs/internal/infrastructure/repository"
)

// InMemoryDocumentStore implements repository.DocumentRepository. Documents are
// copied on the way in and out, so callers never share memory with the store.
type InMemoryDocumentStore struct {
	mu        sync.Mutex
	documents map[uuid.UUID]*entity.Document
	// CreateErr, when set, is returned by Create.
	CreateErr error
}

// NewInMemoryDocumentStore creates an empty store
func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{documents: make(map[uuid.UUID]*entity.Document)}
}

func copyDocument(doc *entity.Document) *entity.Document {
	out := *doc
	out.LineItems = doc.LineItems.Clone()
	out.CompanyInfo = doc.CompanyInfo.Clone()
	out.EmailRecipients = append(entity.StringList{}, doc.EmailRecipients...)
	return &out
}

// Put stores doc as is, bypassing uniqueness checks.
func (s *InMemoryDocumentStore) Put(doc *entity.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	s.documents[doc.ID] = copyDocument(doc)
}

// All returns every stored document regardless of tenant.
func (s *InMemoryDocumentStore) All() []*entity.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Document, 0, len(s.documents))
	for _, d := range s.documents {
		out = append(out, copyDocument(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentNumber < out[j].DocumentNumber })
	return out
}

func (s *InMemoryDocumentStore) Create(ctx context.Context, doc *entity.Document) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.documents {
		if existing.TenantID == doc.TenantID && existing.DocumentNumber == doc.DocumentNumber {
			return repository.ErrDuplicateDocumentNumber
		}
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	s.documents[doc.ID] = copyDocument(doc)
	return nil
}

func (s *InMemoryDocumentStore) visible(ctx context.Context, doc *entity.Document) bool {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	return ok && doc.TenantID == tenantID
}

func (s *InMemoryDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok || !s.visible(ctx, doc) {
		return nil, nil
	}
	return copyDocument(doc), nil
}

func (s *InMemoryDocumentStore) GetByNumber(ctx context.Context, number string) (*entity.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.documents {
		if doc.DocumentNumber == number && s.visible(ctx, doc) {
			return copyDocument(doc), nil
		}
	}
	return nil, nil
}

func (s *InMemoryDocumentStore) List(ctx context.Context, params *repository.DocumentFilterParams) ([]entity.Document, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []entity.Document
	for _, doc := range s.documents {
		if !s.visible(ctx, doc) {
			continue
		}
		if params.Kind != "" && doc.Kind != params.Kind {
			continue
		}
		if params.Status != nil && doc.Status != *params.Status {
			continue
		}
		if params.Scenario != "" && doc.Scenario != params.Scenario {
			continue
		}
		if params.SourceID != nil && doc.SourceID != *params.SourceID {
			continue
		}
		if params.Search != "" {
			q := strings.ToLower(params.Search)
			if !strings.Contains(strings.ToLower(doc.DocumentNumber), q) &&
				!strings.Contains(strings.ToLower(doc.Customer.Name), q) {
				continue
			}
		}
		matched = append(matched, *copyDocument(doc))
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].DocumentNumber < matched[j].DocumentNumber })
	total := int64(len(matched))

	if params.Pagination != nil {
		start := params.Pagination.Offset()
		if start > len(matched) {
			start = len(matched)
		}
		end := start + params.Pagination.PerPage
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

// UpdateLocked holds the store lock while fn runs, which serializes all updates.
func (s *InMemoryDocumentStore) UpdateLocked(ctx context.Context, id uuid.UUID, fn func(doc *entity.Document) error) (*entity.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.documents[id]
	if !ok || !s.visible(ctx, stored) {
		return nil, nil
	}

	working := copyDocument(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	s.documents[id] = copyDocument(working)
	return working, nil
}

func (s *InMemoryDocumentStore) AppendEmailRecipient(ctx context.Context, id uuid.UUID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok || !s.visible(ctx, doc) {
		return nil
	}
	for _, r := range doc.EmailRecipients {
		if r == email {
			return nil
		}
	}
	doc.EmailRecipients = append(doc.EmailRecipients, email)
	return nil
}

// InMemorySequenceStore implements repository.SequenceRepository
type InMemorySequenceStore struct {
	mu     sync.Mutex
	values map[string]int64
	Err    error
}

// NewInMemorySequenceStore creates an empty counter store
func NewInMemorySequenceStore() *InMemorySequenceStore {
	return &InMemorySequenceStore{values: make(map[string]int64)}
}

func (s *InMemorySequenceStore) NextValue(ctx context.Context, tenantID uuid.UUID, kind enum.DocumentKind) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tenantID.String() + "/" + kind.String()
	s.values[key]++
	return s.values[key], nil
}
