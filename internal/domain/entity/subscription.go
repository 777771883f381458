package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Subscription is a recurring plan a platform user pays for
type Subscription struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanName        string          `gorm:"size:255;not null" json:"plan_name"`
	PlanDescription string          `gorm:"type:text" json:"plan_description,omitempty"`
	BillingInterval string          `gorm:"size:50" json:"billing_interval"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"amount"`
	Currency        string          `gorm:"size:3" json:"currency"`
	Status          string          `gorm:"size:50" json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new subscription
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Subscription model
func (Subscription) TableName() string {
	return "subscriptions"
}

// Payment is a single settled charge against a subscription
type Payment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SubscriptionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"subscription_id"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"amount"`
	Currency       string          `gorm:"size:3" json:"currency"`
	Gateway        string          `gorm:"size:100" json:"gateway"`
	Reference      string          `gorm:"size:255" json:"reference"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "subscription_payments"
}
