package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
)

// TemplateSettingsRepository defines the interface for tenant template settings
type TemplateSettingsRepository interface {
	// GetByTenantID returns nil when the tenant has not saved any settings.
	GetByTenantID(ctx context.Context, tenantID uuid.UUID) (*entity.TemplateSettings, error)
	Save(ctx context.Context, settings *entity.TemplateSettings) error
}
