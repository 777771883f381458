package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) domainRepo.DocumentRepository {
	return &documentRepository{db: db}
}

var documentSortColumns = map[string]string{
	"created_at":       "created_at",
	"document_number":  "document_number",
	"total_amount":     "total_amount",
	"transaction_date": "transaction_date",
}

func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) error {
	err := r.db.WithContext(ctx).Create(doc).Error
	if isUniqueViolation(err) {
		return domainRepo.ErrDuplicateDocumentNumber
	}
	return err
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).Scopes(TenantScope(ctx)).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) GetByNumber(ctx context.Context, number string) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).Scopes(TenantScope(ctx)).First(&doc, "document_number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context, params *domainRepo.DocumentFilterParams) ([]entity.Document, int64, error) {
	var docs []entity.Document
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Document{}).Scopes(TenantScope(ctx))

	if params.Kind != "" {
		query = query.Where("kind = ?", params.Kind)
	}

	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("document_number ILIKE ? OR customer_name ILIKE ? OR customer_email ILIKE ?", like, like, like)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.Scenario != "" {
		query = query.Where("scenario = ?", params.Scenario)
	}

	if params.SourceID != nil {
		query = query.Where("source_id = ?", *params.SourceID)
	}

	if params.StartDate != nil {
		query = query.Where("transaction_date >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("transaction_date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Sorting
	sortBy := "created_at"
	if col, ok := documentSortColumns[params.SortBy]; ok {
		sortBy = col
	}
	sortOrder := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Normalize()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.Limit()).
		Order(sortBy + " " + sortOrder).
		Find(&docs).Error

	return docs, total, err
}

func (r *documentRepository) UpdateLocked(ctx context.Context, id uuid.UUID, fn func(doc *entity.Document) error) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(TenantScope(ctx)).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&doc, "id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(&doc); err != nil {
			return err
		}
		return tx.Save(&doc).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) AppendEmailRecipient(ctx context.Context, id uuid.UUID, email string) error {
	return r.db.WithContext(ctx).Model(&entity.Document{}).
		Scopes(TenantScope(ctx)).
		Where("id = ?", id).
		Where("NOT (COALESCE(email_recipients, '[]'::jsonb) @> jsonb_build_array(?::text))", email).
		Update("email_recipients", gorm.Expr("COALESCE(email_recipients, '[]'::jsonb) || jsonb_build_array(?::text)", email)).
		Error
}
