package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant represents an organization issuing documents. Tenants are managed by
// the surrounding platform; this service only reads them.
type Tenant struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Slug      string         `gorm:"size:255;unique;not null" json:"slug"`
	Email     string         `gorm:"size:255" json:"email,omitempty"`
	Phone     string         `gorm:"size:50" json:"phone,omitempty"`
	Address   string         `gorm:"type:text" json:"address,omitempty"`
	Settings  TenantSettings `gorm:"type:jsonb;serializer:json" json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new tenant
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// TenantSettings holds the tenant-wide preferences document generation reads
type TenantSettings struct {
	Currency string `json:"currency,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Locale   string `json:"locale,omitempty"`

	// Notification Settings
	EmailNotifications bool   `json:"email_notifications,omitempty"`
	WebhookURL         string `json:"webhook_url,omitempty"`
}

// Scan implements the sql.Scanner interface for TenantSettings
func (ts *TenantSettings) Scan(value interface{}) error {
	if value == nil {
		*ts = TenantSettings{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan TenantSettings: unsupported type")
	}

	return json.Unmarshal(bytes, ts)
}

// Value implements the driver.Valuer interface for TenantSettings
func (ts TenantSettings) Value() (driver.Value, error) {
	return json.Marshal(ts)
}

// DefaultCurrency is used when neither the source record nor the tenant names one.
const DefaultCurrency = "USD"

// CurrencyOrDefault returns the tenant currency, falling back to DefaultCurrency.
func (ts TenantSettings) CurrencyOrDefault() string {
	if ts.Currency == "" {
		return DefaultCurrency
	}
	return ts.Currency
}
