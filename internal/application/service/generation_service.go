package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/domain/event"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/internal/infrastructure/metrics"
	infraRepo "github.com/sangkips/investify-docs/internal/infrastructure/repository"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/sangkips/investify-docs/pkg/logger"
	"github.com/sourcegraph/conc/pool"
)

// numberAttempts is the number of allocations tried before a collision is reported
const numberAttempts = 2

// GenerationService issues receipts and invoices from transaction sources
type GenerationService struct {
	tenantRepo      repository.TenantRepository
	documentRepo    repository.DocumentRepository
	adapter         *ScenarioAdapter
	resolver        *TemplateResolver
	allocator       *DocumentNumberAllocator
	publisher       event.Publisher
	metrics         *metrics.Metrics
	logger          *logger.Logger
	bulkConcurrency int
	bulkMaxItems    int
}

// GenerationOptions bounds bulk generation
type GenerationOptions struct {
	BulkConcurrency int
	BulkMaxItems    int
}

// NewGenerationService creates a new generation service
func NewGenerationService(
	tenantRepo repository.TenantRepository,
	documentRepo repository.DocumentRepository,
	adapter *ScenarioAdapter,
	resolver *TemplateResolver,
	allocator *DocumentNumberAllocator,
	publisher event.Publisher,
	m *metrics.Metrics,
	log *logger.Logger,
	opts GenerationOptions,
) *GenerationService {
	if opts.BulkConcurrency < 1 {
		opts.BulkConcurrency = 1
	}
	if opts.BulkMaxItems < 1 {
		opts.BulkMaxItems = 100
	}
	return &GenerationService{
		tenantRepo:      tenantRepo,
		documentRepo:    documentRepo,
		adapter:         adapter,
		resolver:        resolver,
		allocator:       allocator,
		publisher:       publisher,
		metrics:         m,
		logger:          log,
		bulkConcurrency: opts.BulkConcurrency,
		bulkMaxItems:    opts.BulkMaxItems,
	}
}

// GenerateInput describes one document to issue
type GenerateInput struct {
	Kind   enum.DocumentKind
	Source SourceRef
	// StoreID selects the store used for company details when the source has
	// none, as with subscription payments.
	StoreID  *uuid.UUID
	Template *TemplateOverride
	Notes    string
	ActorID  *uuid.UUID
}

// BulkItem is one source of a bulk request
type BulkItem struct {
	Source   SourceRef
	StoreID  *uuid.UUID
	Template *TemplateOverride
	Notes    string
}

// BulkGenerateInput describes a bulk request. All items share a kind.
type BulkGenerateInput struct {
	Kind    enum.DocumentKind
	Items   []BulkItem
	ActorID *uuid.UUID
}

// BulkItemResult is the outcome for one bulk item
type BulkItemResult struct {
	Index          int                `json:"index"`
	Scenario       enum.Scenario      `json:"scenario,omitempty"`
	SourceID       *uuid.UUID         `json:"source_id,omitempty"`
	Success        bool               `json:"success"`
	DocumentID     *uuid.UUID         `json:"document_id,omitempty"`
	DocumentNumber string             `json:"document_number,omitempty"`
	Error          *apperror.AppError `json:"error,omitempty"`

	document *entity.Document
}

// BulkResult summarises a bulk request
type BulkResult struct {
	Requested int                `json:"requested"`
	Generated int                `json:"generated"`
	Documents []*entity.Document `json:"documents"`
	Results   []BulkItemResult   `json:"results"`
}

// Generate issues a single document.
func (s *GenerationService) Generate(ctx context.Context, input *GenerateInput) (*entity.Document, error) {
	if !input.Kind.IsValid() {
		return nil, apperror.NewFieldError("kind", "must be one of [invoice receipt]")
	}

	tenant, err := s.loadTenant(ctx)
	if err != nil {
		s.metrics.GenerationFailed(input.Kind.String(), string(apperror.TypeOf(err)))
		return nil, err
	}

	return s.generate(ctx, tenant, input)
}

// GenerateBulk issues one document per item. A failing item is recorded in
// the result and does not stop the others.
func (s *GenerationService) GenerateBulk(ctx context.Context, input *BulkGenerateInput) (*BulkResult, error) {
	if !input.Kind.IsValid() {
		return nil, apperror.NewFieldError("kind", "must be one of [invoice receipt]")
	}
	if len(input.Items) == 0 {
		return nil, apperror.NewFieldError("items", "must contain at least 1 item(s)")
	}
	if len(input.Items) > s.bulkMaxItems {
		return nil, apperror.NewFieldError("items", fmt.Sprintf("must contain at most %d item(s)", s.bulkMaxItems))
	}

	tenant, err := s.loadTenant(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]BulkItemResult, len(input.Items))
	p := pool.New().WithMaxGoroutines(s.bulkConcurrency)
	for i, item := range input.Items {
		p.Go(func() {
			result := BulkItemResult{Index: i}
			if item.Source != nil {
				sourceID := item.Source.SourceID()
				result.Scenario = item.Source.Scenario()
				result.SourceID = &sourceID
			}

			doc, err := s.generate(ctx, tenant, &GenerateInput{
				Kind:     input.Kind,
				Source:   item.Source,
				StoreID:  item.StoreID,
				Template: item.Template,
				Notes:    item.Notes,
				ActorID:  input.ActorID,
			})
			if err != nil {
				appErr := apperror.GetAppError(err)
				s.logBulkFailure(tenant.ID, i, result, appErr)
				result.Error = appErr
				results[i] = result
				return
			}

			result.Success = true
			result.DocumentID = &doc.ID
			result.DocumentNumber = doc.DocumentNumber
			result.document = doc
			results[i] = result
		})
	}
	p.Wait()

	documents := lo.FilterMap(results, func(r BulkItemResult, _ int) (*entity.Document, bool) {
		return r.document, r.Success
	})

	s.logger.Infow("bulk generation finished",
		"tenant_id", tenant.ID,
		"kind", input.Kind,
		"requested", len(input.Items),
		"generated", len(documents),
	)

	return &BulkResult{
		Requested: len(input.Items),
		Generated: len(documents),
		Documents: documents,
		Results:   results,
	}, nil
}

func (s *GenerationService) logBulkFailure(tenantID uuid.UUID, index int, result BulkItemResult, appErr *apperror.AppError) {
	fields := []interface{}{
		"tenant_id", tenantID,
		"index", index,
		"scenario", result.Scenario,
		"source_id", result.SourceID,
		"error_type", appErr.Type,
		"error", appErr.Error(),
	}
	if appErr.Type == apperror.TypeIntegration {
		s.logger.Errorw("bulk item failed", fields...)
		return
	}
	s.logger.Warnw("bulk item skipped", fields...)
}

func (s *GenerationService) loadTenant(ctx context.Context) (*entity.Tenant, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, apperror.NewIntegrationError(err)
	}
	if tenant == nil {
		return nil, apperror.NewNotFoundError("Tenant")
	}
	return tenant, nil
}

func (s *GenerationService) generate(ctx context.Context, tenant *entity.Tenant, input *GenerateInput) (doc *entity.Document, err error) {
	defer func() {
		if err != nil {
			s.metrics.GenerationFailed(input.Kind.String(), string(apperror.TypeOf(err)))
		}
	}()

	draft, err := s.adapter.Adapt(ctx, tenant.ID, input.Source)
	if err != nil {
		return nil, err
	}

	storeID := draft.StoreID
	if storeID == nil {
		storeID = input.StoreID
	}
	resolved, err := s.resolver.Resolve(ctx, tenant.ID, storeID, input.Kind, input.Template)
	if err != nil {
		return nil, err
	}

	totals, err := CalculateTotals(draft.LineItems, draft.TaxAmount, draft.DiscountAmount)
	if err != nil {
		return nil, err
	}
	if !draft.TotalAmount.IsZero() && !withinTolerance(draft.TotalAmount, totals.TotalAmount) {
		s.logger.Warnw("source total differs from line items",
			"tenant_id", tenant.ID,
			"scenario", draft.Scenario,
			"source_id", draft.SourceID,
			"declared_total", draft.TotalAmount.String(),
			"computed_total", totals.TotalAmount.String(),
		)
	}

	doc = &entity.Document{
		TenantID:        tenant.ID,
		Kind:            input.Kind,
		Scenario:        draft.Scenario,
		Status:          enum.DocumentStatusActive,
		StoreID:         draft.StoreID,
		SourceID:        draft.SourceID,
		SubscriptionID:  draft.SubscriptionID,
		UserID:          draft.UserID,
		Customer:        draft.Customer,
		LineItems:       entity.LineItems(draft.LineItems).Clone(),
		Currency:        firstNonBlank(draft.Currency, tenant.Settings.CurrencyOrDefault()),
		PaymentMethod:   draft.PaymentMethod,
		TransactionID:   draft.TransactionID,
		TransactionDate: draft.TransactionDate,
		Description:     draft.Description,
		Notes:           firstNonBlank(input.Notes, draft.Notes),
		CompanyInfo:     resolved.CompanyInfo.Clone(),
		Template:        resolved.Snapshot(),
		EmailRecipients: entity.StringList{},
		CreatedBy:       input.ActorID,
		UpdatedBy:       input.ActorID,
	}
	totals.Rounded().Apply(doc)

	if resolved.CompanyInfo.IsEmpty() {
		s.logger.Infow("issuing document with blank company header",
			"tenant_id", tenant.ID,
			"kind", input.Kind,
		)
	}

	if err := s.persist(ctx, doc, resolved.NumberPrefix); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, event.NewDocumentEvent(event.DocumentCreated, doc, input.ActorID, nil)); err != nil {
		s.logger.Errorw("failed to publish document event",
			"event", event.DocumentCreated,
			"document_id", doc.ID,
			"error", err,
		)
	}

	s.metrics.DocumentGenerated(doc.Kind.String(), doc.Scenario.String())
	s.logger.Infow("document generated",
		"tenant_id", doc.TenantID,
		"document_id", doc.ID,
		"document_number", doc.DocumentNumber,
		"scenario", doc.Scenario,
	)

	return doc, nil
}

// persist allocates a number and inserts the document, allocating a fresh
// number once if the first collides.
func (s *GenerationService) persist(ctx context.Context, doc *entity.Document, prefix string) error {
	for attempt := 1; ; attempt++ {
		number, err := s.allocator.Allocate(ctx, doc.TenantID, doc.Kind, prefix)
		if err != nil {
			return err
		}
		doc.DocumentNumber = number

		err = s.documentRepo.Create(ctx, doc)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateDocumentNumber) {
			return apperror.NewIntegrationError(err)
		}

		if attempt >= numberAttempts {
			s.logger.Errorw("document number collision persisted after retry",
				"tenant_id", doc.TenantID,
				"kind", doc.Kind,
				"document_number", number,
			)
			return apperror.NewConflictError("Document number " + number + " is already in use")
		}

		s.metrics.NumberRetried(doc.Kind.String())
		s.logger.Warnw("document number collision, retrying",
			"tenant_id", doc.TenantID,
			"kind", doc.Kind,
			"document_number", number,
		)
	}
}
