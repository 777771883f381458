package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// Topics published for document changes
const (
	DocumentCreated          = "document.created"
	DocumentCancelled        = "document.cancelled"
	DocumentRefunded         = "document.refunded"
	DocumentLineItemsUpdated = "document.line_items_updated"
)

// AllTopics lists every document topic.
var AllTopics = []string{DocumentCreated, DocumentCancelled, DocumentRefunded, DocumentLineItemsUpdated}

// DocumentEvent is emitted after a document change has been persisted
type DocumentEvent struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	TenantID       uuid.UUID         `json:"tenant_id"`
	DocumentID     uuid.UUID         `json:"document_id"`
	DocumentNumber string            `json:"document_number"`
	Kind           enum.DocumentKind `json:"kind"`
	Scenario       enum.Scenario     `json:"scenario"`
	CustomerName   string            `json:"customer_name"`
	CustomerEmail  string            `json:"customer_email,omitempty"`
	CompanyName    string            `json:"company_name,omitempty"`
	Currency       string            `json:"currency"`
	ActorID        *uuid.UUID        `json:"actor_id,omitempty"`
	Before         *DocumentSummary  `json:"before,omitempty"`
	After          *DocumentSummary  `json:"after"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// DocumentSummary is the part of a document state recorded in audit trails
type DocumentSummary struct {
	Status        string           `json:"status"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	TaxAmount     decimal.Decimal  `json:"tax_amount"`
	DiscountTotal decimal.Decimal  `json:"discount_amount"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	RefundAmount  *decimal.Decimal `json:"refund_amount,omitempty"`
	LineItems     int              `json:"line_items"`
}

// Summarize captures the audit-relevant state of doc.
func Summarize(doc *entity.Document) *DocumentSummary {
	s := &DocumentSummary{
		Status:        doc.Status.String(),
		Subtotal:      doc.Subtotal,
		TaxAmount:     doc.TaxAmount,
		DiscountTotal: doc.DiscountAmount,
		TotalAmount:   doc.TotalAmount,
		LineItems:     len(doc.LineItems),
	}
	if doc.RefundAmount.Valid {
		amount := doc.RefundAmount.Decimal
		s.RefundAmount = &amount
	}
	return s
}

// NewDocumentEvent builds an event for doc. before may be nil.
func NewDocumentEvent(name string, doc *entity.Document, actorID *uuid.UUID, before *DocumentSummary) *DocumentEvent {
	return &DocumentEvent{
		ID:             uuid.New(),
		Name:           name,
		TenantID:       doc.TenantID,
		DocumentID:     doc.ID,
		DocumentNumber: doc.DocumentNumber,
		Kind:           doc.Kind,
		Scenario:       doc.Scenario,
		CustomerName:   doc.Customer.Name,
		CustomerEmail:  doc.Customer.Email,
		CompanyName:    doc.CompanyInfo.Name,
		Currency:       doc.Currency,
		ActorID:        actorID,
		Before:         before,
		After:          Summarize(doc),
		OccurredAt:     time.Now().UTC(),
	}
}

// Publisher delivers document events to subscribers
type Publisher interface {
	Publish(ctx context.Context, evt *DocumentEvent) error
}

// Handler consumes document events
type Handler interface {
	Name() string
	Topics() []string
	Handle(ctx context.Context, evt *DocumentEvent) error
}
