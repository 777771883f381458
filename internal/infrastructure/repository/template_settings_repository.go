package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type templateSettingsRepository struct {
	db *gorm.DB
}

// NewTemplateSettingsRepository creates a new template settings repository
func NewTemplateSettingsRepository(db *gorm.DB) repository.TemplateSettingsRepository {
	return &templateSettingsRepository{db: db}
}

// GetByTenantID retrieves settings by tenant ID
func (r *templateSettingsRepository) GetByTenantID(ctx context.Context, tenantID uuid.UUID) (*entity.TemplateSettings, error) {
	var settings entity.TemplateSettings
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save inserts the tenant's settings or replaces both templates if a row exists
func (r *templateSettingsRepository) Save(ctx context.Context, settings *entity.TemplateSettings) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"invoice_template", "receipt_template", "updated_by", "updated_at"}),
	}).Create(settings).Error
}
