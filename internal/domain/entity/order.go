package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a storefront order synchronised from the e-commerce platform.
// It is read-only input for document generation.
type Order struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	TenantID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"tenant_id"`
	StoreID            uuid.UUID        `gorm:"type:uuid;not null;index" json:"store_id"`
	CustomerID         *uuid.UUID       `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Number             string           `gorm:"size:100;index" json:"number"`
	OrderStatus        enum.OrderStatus `gorm:"default:0" json:"order_status"`
	Billing            BillingDetails   `gorm:"type:jsonb;serializer:json" json:"billing"`
	Total              decimal.Decimal  `gorm:"type:numeric(20,6);not null;default:0" json:"total"`
	TotalTax           decimal.Decimal  `gorm:"type:numeric(20,6);not null;default:0" json:"total_tax"`
	DiscountTotal      decimal.Decimal  `gorm:"type:numeric(20,6);not null;default:0" json:"discount_total"`
	Currency           string           `gorm:"size:3" json:"currency"`
	PaymentMethodTitle string           `gorm:"size:255" json:"payment_method_title"`
	TransactionID      string           `gorm:"size:255" json:"transaction_id,omitempty"`
	CustomerNote       string           `gorm:"type:text" json:"customer_note,omitempty"`
	OrderDate          time.Time        `gorm:"not null" json:"order_date"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// BillingDetails is the billing block captured at checkout
type BillingDetails struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address1  string `json:"address_1,omitempty"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"`
}

// FullName joins first and last name, falling back to the company name.
func (b BillingDetails) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(b.FirstName) + " " + strings.TrimSpace(b.LastName))
	if name == "" {
		return strings.TrimSpace(b.Company)
	}
	return name
}

// PostalAddress converts the billing block into the address stored on documents.
func (b BillingDetails) PostalAddress() PostalAddress {
	return PostalAddress{
		Line1:      b.Address1,
		Line2:      b.Address2,
		City:       b.City,
		State:      b.State,
		PostalCode: b.Postcode,
		Country:    b.Country,
	}
}

// OrderItem is a line of an order
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"unit_price"`
	Total       decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"total"`
	TaxRate     decimal.Decimal `gorm:"type:numeric(9,4);not null;default:0" json:"tax_rate"`
}

// BeforeCreate generates a UUID before creating a new order item
func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
