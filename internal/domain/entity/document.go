package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Document is an issued receipt or invoice. Amounts are stored rounded to two
// decimal places and always satisfy total = subtotal + tax - discount.
type Document struct {
	ID             uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	TenantID       uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:idx_documents_tenant_number,priority:1" json:"tenant_id"`
	DocumentNumber string              `gorm:"size:64;not null;uniqueIndex:idx_documents_tenant_number,priority:2" json:"document_number"`
	Kind           enum.DocumentKind   `gorm:"size:20;not null;index" json:"kind"`
	Scenario       enum.Scenario       `gorm:"size:20;not null" json:"scenario"`
	Status         enum.DocumentStatus `gorm:"not null;default:0;index" json:"status"`
	StoreID        *uuid.UUID          `gorm:"type:uuid;index" json:"store_id,omitempty"`
	SourceID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"source_id"`
	SubscriptionID *uuid.UUID          `gorm:"type:uuid;index" json:"subscription_id,omitempty"`
	UserID         *uuid.UUID          `gorm:"type:uuid" json:"user_id,omitempty"`

	Customer CustomerSnapshot `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`

	LineItems      LineItems       `gorm:"type:jsonb;not null" json:"line_items"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"total_amount"`
	Currency       string          `gorm:"size:3;not null" json:"currency"`

	PaymentMethod   string    `gorm:"size:255" json:"payment_method"`
	TransactionID   string    `gorm:"size:255" json:"transaction_id,omitempty"`
	TransactionDate time.Time `json:"transaction_date"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	Notes           string    `gorm:"type:text" json:"notes,omitempty"`

	CompanyInfo CompanyInfo      `gorm:"type:jsonb;serializer:json" json:"company_info"`
	Template    TemplateSnapshot `gorm:"type:jsonb;serializer:json" json:"template"`

	RefundAmount       decimal.NullDecimal `gorm:"type:numeric(20,2)" json:"refund_amount"`
	RefundDate         *time.Time          `json:"refund_date,omitempty"`
	RefundReason       string              `gorm:"type:text" json:"refund_reason,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancellationReason string              `gorm:"type:text" json:"cancellation_reason,omitempty"`

	EmailRecipients StringList `gorm:"type:jsonb" json:"email_recipients"`

	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new document
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// MarshalJSON omits refund_amount until the document has been refunded
func (d Document) MarshalJSON() ([]byte, error) {
	type Alias Document
	out := &struct {
		Alias
		RefundAmount *decimal.Decimal `json:"refund_amount,omitempty"`
	}{
		Alias: Alias(d),
	}
	if d.RefundAmount.Valid {
		out.RefundAmount = &d.RefundAmount.Decimal
	}
	return json.Marshal(out)
}

// TableName returns the table name for the Document model
func (Document) TableName() string {
	return "documents"
}

// CustomerSnapshot is the customer identity copied from the source record
type CustomerSnapshot struct {
	ID      *uuid.UUID    `gorm:"type:uuid" json:"id,omitempty"`
	Name    string        `gorm:"size:255" json:"name"`
	Email   string        `gorm:"size:255" json:"email"`
	Phone   string        `gorm:"size:50" json:"phone,omitempty"`
	Address PostalAddress `gorm:"type:jsonb;serializer:json" json:"address"`
}

// LineItem is one billed line on a document
type LineItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// LineItems keeps the ordered list of items in a single jsonb column
type LineItems []LineItem

// Scan implements the sql.Scanner interface for LineItems
func (li *LineItems) Scan(value interface{}) error {
	if value == nil {
		*li = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	return json.Unmarshal(bytes, li)
}

// Value implements the driver.Valuer interface for LineItems
func (li LineItems) Value() (driver.Value, error) {
	if li == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(li)
}

// Clone returns a copy of the slice.
func (li LineItems) Clone() LineItems {
	out := make(LineItems, len(li))
	copy(out, li)
	return out
}

// StringList is a jsonb array of strings
type StringList []string

// Scan implements the sql.Scanner interface for StringList
func (sl *StringList) Scan(value interface{}) error {
	if value == nil {
		*sl = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan StringList: unsupported type")
	}

	return json.Unmarshal(bytes, sl)
}

// Value implements the driver.Valuer interface for StringList
func (sl StringList) Value() (driver.Value, error) {
	if sl == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(sl)
}
