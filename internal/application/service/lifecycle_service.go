package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/domain/event"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/internal/infrastructure/metrics"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/sangkips/investify-docs/pkg/lock"
	"github.com/sangkips/investify-docs/pkg/logger"
	"github.com/shopspring/decimal"
)

// LifecycleService applies status changes and line item edits to issued documents
type LifecycleService struct {
	documentRepo repository.DocumentRepository
	locker       lock.Locker
	publisher    event.Publisher
	metrics      *metrics.Metrics
	logger       *logger.Logger
	now          func() time.Time
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(
	documentRepo repository.DocumentRepository,
	locker lock.Locker,
	publisher event.Publisher,
	m *metrics.Metrics,
	log *logger.Logger,
) *LifecycleService {
	return &LifecycleService{
		documentRepo: documentRepo,
		locker:       locker,
		publisher:    publisher,
		metrics:      m,
		logger:       log,
		now:          time.Now,
	}
}

// DocumentState is the part of a document reported back on a conflict
type DocumentState struct {
	ID                 uuid.UUID        `json:"id"`
	DocumentNumber     string           `json:"document_number"`
	Status             string           `json:"status"`
	TotalAmount        decimal.Decimal  `json:"total_amount"`
	RefundAmount       *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundDate         *time.Time       `json:"refund_date,omitempty"`
	CancelledAt        *time.Time       `json:"cancelled_at,omitempty"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`
}

func stateOf(doc *entity.Document) *DocumentState {
	state := &DocumentState{
		ID:                 doc.ID,
		DocumentNumber:     doc.DocumentNumber,
		Status:             doc.Status.String(),
		TotalAmount:        doc.TotalAmount,
		RefundDate:         doc.RefundDate,
		CancelledAt:        doc.CancelledAt,
		CancellationReason: doc.CancellationReason,
	}
	if doc.RefundAmount.Valid {
		amount := doc.RefundAmount.Decimal
		state.RefundAmount = &amount
	}
	return state
}

// CancelInput holds cancellation details
type CancelInput struct {
	ActorID *uuid.UUID
	Reason  string
}

// RefundInput holds refund details. A nil Amount refunds the full total.
type RefundInput struct {
	ActorID *uuid.UUID
	Amount  *decimal.Decimal
	Reason  string
}

// UpdateLineItemsInput replaces a document's line items. Nil tax or discount
// keeps the current value.
type UpdateLineItemsInput struct {
	ActorID        *uuid.UUID
	Items          []entity.LineItem
	TaxAmount      *decimal.Decimal
	DiscountAmount *decimal.Decimal
}

// Cancel moves an active document to cancelled. Amounts are kept.
func (s *LifecycleService) Cancel(ctx context.Context, kind enum.DocumentKind, id uuid.UUID, input *CancelInput) (*entity.Document, error) {
	return s.mutate(ctx, kind, id, event.DocumentCancelled, input.ActorID, func(doc *entity.Document) error {
		if !doc.Status.CanTransitionTo(enum.DocumentStatusCancelled) {
			return apperror.NewConflictErrorWithDetails(
				"Document is already "+doc.Status.String()+" and cannot be cancelled", stateOf(doc))
		}

		now := s.now().UTC()
		doc.Status = enum.DocumentStatusCancelled
		doc.CancelledAt = &now
		doc.CancellationReason = strings.TrimSpace(input.Reason)
		doc.UpdatedBy = input.ActorID
		return nil
	})
}

// Refund moves an active document to refunded. A document is refunded at most once.
func (s *LifecycleService) Refund(ctx context.Context, kind enum.DocumentKind, id uuid.UUID, input *RefundInput) (*entity.Document, error) {
	if input.Amount != nil && !input.Amount.IsPositive() {
		return nil, apperror.NewFieldError("amount", "must be greater than 0")
	}

	return s.mutate(ctx, kind, id, event.DocumentRefunded, input.ActorID, func(doc *entity.Document) error {
		switch {
		case doc.Status == enum.DocumentStatusRefunded:
			return apperror.NewConflictErrorWithDetails("Document has already been refunded", stateOf(doc))
		case !doc.Status.CanTransitionTo(enum.DocumentStatusRefunded):
			return apperror.NewConflictErrorWithDetails(
				"Document is "+doc.Status.String()+" and cannot be refunded", stateOf(doc))
		}

		amount := doc.TotalAmount
		if input.Amount != nil {
			amount = *input.Amount
		}
		amount = amount.Round(2)
		if !amount.IsPositive() {
			return apperror.NewFieldError("amount", "must be greater than 0")
		}
		if amount.GreaterThan(doc.TotalAmount) {
			return apperror.NewFieldError("amount", "must not exceed the document total of "+doc.TotalAmount.StringFixed(2))
		}

		now := s.now().UTC()
		doc.Status = enum.DocumentStatusRefunded
		doc.RefundAmount = decimal.NewNullDecimal(amount)
		doc.RefundDate = &now
		doc.RefundReason = strings.TrimSpace(input.Reason)
		doc.UpdatedBy = input.ActorID
		return nil
	})
}

// UpdateLineItems replaces the items of an active document and recomputes its totals.
func (s *LifecycleService) UpdateLineItems(ctx context.Context, kind enum.DocumentKind, id uuid.UUID, input *UpdateLineItemsInput) (*entity.Document, error) {
	if err := ValidateLineItems(input.Items); err != nil {
		return nil, err
	}

	return s.mutate(ctx, kind, id, event.DocumentLineItemsUpdated, input.ActorID, func(doc *entity.Document) error {
		if doc.Status != enum.DocumentStatusActive {
			return apperror.NewConflictErrorWithDetails(
				"Line items can only be changed on an active document", stateOf(doc))
		}

		tax, discount := doc.TaxAmount, doc.DiscountAmount
		if input.TaxAmount != nil {
			tax = *input.TaxAmount
		}
		if input.DiscountAmount != nil {
			discount = *input.DiscountAmount
		}

		totals, err := CalculateTotals(input.Items, tax, discount)
		if err != nil {
			return err
		}

		doc.LineItems = entity.LineItems(input.Items).Clone()
		totals.Rounded().Apply(doc)
		doc.UpdatedBy = input.ActorID
		return nil
	})
}

// mutate serializes changes to one document: a keyed lock across callers,
// then a row lock inside the repository transaction.
func (s *LifecycleService) mutate(
	ctx context.Context,
	kind enum.DocumentKind,
	id uuid.UUID,
	eventName string,
	actorID *uuid.UUID,
	fn func(doc *entity.Document) error,
) (*entity.Document, error) {
	l, err := s.locker.Obtain(ctx, "document:"+id.String())
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			return nil, apperror.NewConflictError("Document is being modified, please retry")
		}
		return nil, apperror.NewIntegrationError(err)
	}
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warnw("failed to release document lock", "document_id", id, "error", err)
		}
	}()

	var before *event.DocumentSummary
	doc, err := s.documentRepo.UpdateLocked(ctx, id, func(doc *entity.Document) error {
		if doc.Kind != kind {
			return apperror.NewNotFoundError(kind.Title())
		}
		before = event.Summarize(doc)
		return fn(doc)
	})
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.NewIntegrationError(err)
	}
	if doc == nil {
		return nil, apperror.NewNotFoundError(kind.Title())
	}

	if err := s.publisher.Publish(ctx, event.NewDocumentEvent(eventName, doc, actorID, before)); err != nil {
		s.logger.Errorw("failed to publish document event",
			"event", eventName,
			"document_id", doc.ID,
			"error", err,
		)
	}

	if before.Status != doc.Status.String() {
		s.metrics.Transitioned(doc.Kind.String(), doc.Status.String())
	}
	s.logger.Infow("document updated",
		"event", eventName,
		"document_id", doc.ID,
		"document_number", doc.DocumentNumber,
		"status", doc.Status,
	)

	return doc, nil
}
