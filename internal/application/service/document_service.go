package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/sangkips/investify-docs/pkg/pagination"
)

// DocumentService handles read access to issued documents
type DocumentService struct {
	documentRepo repository.DocumentRepository
	auditRepo    repository.AuditLogRepository
}

// NewDocumentService creates a new document service
func NewDocumentService(
	documentRepo repository.DocumentRepository,
	auditRepo repository.AuditLogRepository,
) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		auditRepo:    auditRepo,
	}
}

// GetDocument retrieves a document of the given kind by ID
func (s *DocumentService) GetDocument(ctx context.Context, kind enum.DocumentKind, id uuid.UUID) (*entity.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewIntegrationError(err)
	}
	if doc == nil || doc.Kind != kind {
		return nil, apperror.NewNotFoundError(kind.Title())
	}
	return doc, nil
}

// GetDocumentByNumber retrieves a document of the given kind by its number
func (s *DocumentService) GetDocumentByNumber(ctx context.Context, kind enum.DocumentKind, number string) (*entity.Document, error) {
	doc, err := s.documentRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, apperror.NewIntegrationError(err)
	}
	if doc == nil || doc.Kind != kind {
		return nil, apperror.NewNotFoundError(kind.Title())
	}
	return doc, nil
}

// ListDocuments retrieves documents with pagination and filters
func (s *DocumentService) ListDocuments(ctx context.Context, params *repository.DocumentFilterParams) (*pagination.PaginatedResult[entity.Document], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Normalize()

	docs, total, err := s.documentRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.NewIntegrationError(err)
	}

	if docs == nil {
		docs = []entity.Document{}
	}
	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(docs, pag), nil
}

// AuditTrail returns the recorded changes of a document, oldest first
func (s *DocumentService) AuditTrail(ctx context.Context, kind enum.DocumentKind, id uuid.UUID) ([]entity.AuditLog, error) {
	if _, err := s.GetDocument(ctx, kind, id); err != nil {
		return nil, err
	}

	logs, err := s.auditRepo.ListByResource(ctx, id)
	if err != nil {
		return nil, apperror.NewIntegrationError(err)
	}
	if logs == nil {
		logs = []entity.AuditLog{}
	}
	return logs, nil
}
