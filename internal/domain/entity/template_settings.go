package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"gorm.io/gorm"
)

// TemplateSettings holds a tenant's per-kind document templates. One row per tenant.
type TemplateSettings struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	TenantID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"tenant_id"`
	InvoiceTemplate DocumentTemplate `gorm:"type:jsonb;serializer:json" json:"invoice_template"`
	ReceiptTemplate DocumentTemplate `gorm:"type:jsonb;serializer:json" json:"receipt_template"`
	UpdatedBy       *uuid.UUID       `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating template settings
func (s *TemplateSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the TemplateSettings model
func (TemplateSettings) TableName() string {
	return "template_settings"
}

// ForKind returns the template configured for the given document kind.
func (s *TemplateSettings) ForKind(kind enum.DocumentKind) DocumentTemplate {
	if kind == enum.DocumentKindInvoice {
		return s.InvoiceTemplate
	}
	return s.ReceiptTemplate
}

// SetForKind replaces the template for the given document kind.
func (s *TemplateSettings) SetForKind(kind enum.DocumentKind, tpl DocumentTemplate) {
	if kind == enum.DocumentKindInvoice {
		s.InvoiceTemplate = tpl
		return
	}
	s.ReceiptTemplate = tpl
}

// DocumentTemplate is the tenant configuration for one document kind
type DocumentTemplate struct {
	NumberPrefix string            `json:"number_prefix,omitempty"`
	StoreInfo    StoreInfo         `json:"store_info"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Address      string            `json:"address,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	Design       Design            `json:"design"`
	Layout       Layout            `json:"layout"`
}

// StoreInfo overrides the issuer identity for a document kind
type StoreInfo struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	Website      string `json:"website,omitempty"`
	Logo         string `json:"logo,omitempty"`
	LogoPosition string `json:"logo_position,omitempty"`
}
