package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/pkg/pagination"
)

// ErrDuplicateDocumentNumber is returned by Create when the number is already
// used within the tenant.
var ErrDuplicateDocumentNumber = errors.New("document number already exists")

// DocumentRepository defines the interface for document data operations.
// All reads are scoped to the tenant in ctx.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByNumber(ctx context.Context, number string) (*entity.Document, error)
	List(ctx context.Context, params *DocumentFilterParams) ([]entity.Document, int64, error)
	// UpdateLocked loads the document under a row lock, applies fn and saves
	// the result in the same transaction. If fn returns an error nothing is
	// written. A missing document yields (nil, nil).
	UpdateLocked(ctx context.Context, id uuid.UUID, fn func(doc *entity.Document) error) (*entity.Document, error)
	AppendEmailRecipient(ctx context.Context, id uuid.UUID, email string) error
}

// DocumentFilterParams contains filtering parameters for document queries
type DocumentFilterParams struct {
	Pagination *pagination.PaginationParams
	Kind       enum.DocumentKind
	Search     string
	Status     *enum.DocumentStatus
	Scenario   enum.Scenario
	SourceID   *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string
	SortOrder  string
}

// SequenceRepository hands out document sequence values
type SequenceRepository interface {
	// NextValue atomically increments and returns the counter for (tenant, kind).
	NextValue(ctx context.Context, tenantID uuid.UUID, kind enum.DocumentKind) (int64, error)
}
