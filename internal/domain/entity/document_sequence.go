package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/enum"
)

// DocumentSequence is the per-tenant, per-kind counter behind document numbers
type DocumentSequence struct {
	TenantID  uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Kind      enum.DocumentKind `gorm:"size:20;primaryKey"`
	LastValue int64             `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for the DocumentSequence model
func (DocumentSequence) TableName() string {
	return "document_sequences"
}
