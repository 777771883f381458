package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	infraRepo "github.com/sangkips/investify-docs/internal/infrastructure/repository"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/sangkips/investify-docs/pkg/logger"
)

// TemplateSettingsService manages a tenant's document templates. Changes
// apply only to documents generated afterwards.
type TemplateSettingsService struct {
	settingsRepo repository.TemplateSettingsRepository
	logger       *logger.Logger
}

// NewTemplateSettingsService creates a new template settings service
func NewTemplateSettingsService(settingsRepo repository.TemplateSettingsRepository, log *logger.Logger) *TemplateSettingsService {
	return &TemplateSettingsService{settingsRepo: settingsRepo, logger: log}
}

// GetSettings returns the tenant's settings, or empty settings if none were saved
func (s *TemplateSettingsService) GetSettings(ctx context.Context) (*entity.TemplateSettings, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}
	return s.load(ctx, tenantID)
}

// UpdateTemplate replaces the template for one document kind
func (s *TemplateSettingsService) UpdateTemplate(ctx context.Context, kind enum.DocumentKind, tpl entity.DocumentTemplate, actorID *uuid.UUID) (*entity.TemplateSettings, error) {
	return s.modify(ctx, kind, actorID, func(current *entity.DocumentTemplate) {
		*current = tpl
	})
}

// SetLogo stores a logo URL on the template for one document kind
func (s *TemplateSettingsService) SetLogo(ctx context.Context, kind enum.DocumentKind, logoURL string, actorID *uuid.UUID) (*entity.TemplateSettings, error) {
	return s.modify(ctx, kind, actorID, func(current *entity.DocumentTemplate) {
		current.StoreInfo.Logo = logoURL
	})
}

func (s *TemplateSettingsService) modify(ctx context.Context, kind enum.DocumentKind, actorID *uuid.UUID, fn func(tpl *entity.DocumentTemplate)) (*entity.TemplateSettings, error) {
	if !kind.IsValid() {
		return nil, apperror.NewFieldError("kind", "must be one of [invoice receipt]")
	}
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	settings, err := s.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	tpl := settings.ForKind(kind)
	fn(&tpl)
	settings.SetForKind(kind, tpl)
	settings.UpdatedBy = actorID

	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, apperror.NewIntegrationError(err)
	}

	s.logger.Infow("template settings updated", "tenant_id", tenantID, "kind", kind)
	return settings, nil
}

func (s *TemplateSettingsService) load(ctx context.Context, tenantID uuid.UUID) (*entity.TemplateSettings, error) {
	settings, err := s.settingsRepo.GetByTenantID(ctx, tenantID)
	if err != nil {
		return nil, apperror.NewIntegrationError(err)
	}
	if settings == nil {
		settings = &entity.TemplateSettings{TenantID: tenantID}
	}
	return settings, nil
}
