package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records a change made to a tenant resource
type AuditLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Action       string         `gorm:"size:100;not null" json:"action"`
	ResourceType string         `gorm:"size:50;not null" json:"resource_type"`
	ResourceID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"resource_id"`
	ActorID      *uuid.UUID     `gorm:"type:uuid" json:"actor_id,omitempty"`
	Before       map[string]any `gorm:"type:jsonb;serializer:json" json:"before,omitempty"`
	After        map[string]any `gorm:"type:jsonb;serializer:json" json:"after,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new audit log
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
