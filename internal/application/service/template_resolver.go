package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/sangkips/investify-docs/pkg/logger"
)

// TemplateOverride is the per-request layer of template resolution. Blank
// fields and nil layout flags are treated as unset.
type TemplateOverride struct {
	CompanyInfo entity.CompanyInfo
	Design      entity.Design
	Layout      entity.Layout
}

// ResolvedTemplate is the merged configuration applied to a new document
type ResolvedTemplate struct {
	CompanyInfo  entity.CompanyInfo
	Design       entity.Design
	Layout       entity.Layout
	NumberPrefix string
}

// Snapshot returns the design and layout to freeze onto a document.
func (r *ResolvedTemplate) Snapshot() entity.TemplateSnapshot {
	return entity.TemplateSnapshot{Design: r.Design, Layout: r.Layout}
}

// TemplateResolver merges request, tenant and store configuration
type TemplateResolver struct {
	settingsRepo repository.TemplateSettingsRepository
	storeRepo    repository.StoreRepository
	logger       *logger.Logger
}

// NewTemplateResolver creates a new template resolver
func NewTemplateResolver(
	settingsRepo repository.TemplateSettingsRepository,
	storeRepo repository.StoreRepository,
	log *logger.Logger,
) *TemplateResolver {
	return &TemplateResolver{
		settingsRepo: settingsRepo,
		storeRepo:    storeRepo,
		logger:       log,
	}
}

// Resolve builds the template for a document of the given kind. Missing
// settings or store records degrade to defaults; only repository failures
// are returned.
func (r *TemplateResolver) Resolve(
	ctx context.Context,
	tenantID uuid.UUID,
	storeID *uuid.UUID,
	kind enum.DocumentKind,
	override *TemplateOverride,
) (*ResolvedTemplate, error) {
	settings, err := r.settingsRepo.GetByTenantID(ctx, tenantID)
	if err != nil {
		return nil, apperror.NewIntegrationError(err)
	}

	var tpl entity.DocumentTemplate
	if settings != nil {
		tpl = settings.ForKind(kind)
	}

	var store *entity.Store
	if storeID != nil && *storeID != uuid.Nil {
		store, err = r.storeRepo.GetByID(ctx, tenantID, *storeID)
		if err != nil {
			return nil, apperror.NewIntegrationError(err)
		}
		if store != nil && store.TenantID != tenantID {
			r.logger.Warnw("ignoring store owned by another tenant",
				"tenant_id", tenantID,
				"store_id", store.ID,
			)
			store = nil
		}
	}

	if override == nil {
		override = &TemplateOverride{}
	}

	return &ResolvedTemplate{
		CompanyInfo:  mergeCompanyInfo(override.CompanyInfo, tpl, store),
		Design:       mergeDesign(override.Design, tpl.Design),
		Layout:       mergeLayout(override.Layout, tpl.Layout),
		NumberPrefix: numberPrefix(tpl.NumberPrefix, kind),
	}, nil
}

// mergeCompanyInfo resolves each field independently: request override, then
// the tenant template, then the store's own identity.
func mergeCompanyInfo(req entity.CompanyInfo, tpl entity.DocumentTemplate, store *entity.Store) entity.CompanyInfo {
	var storeName, storeURL, storeLogo string
	if store != nil {
		storeName, storeURL, storeLogo = store.Name, store.URL, store.LogoURL
	}
	si := tpl.StoreInfo

	info := entity.CompanyInfo{
		Name:         firstNonBlank(req.Name, si.Name, storeName),
		Email:        firstNonBlank(req.Email, si.Email, tpl.Email),
		Phone:        firstNonBlank(req.Phone, si.Phone, tpl.Phone),
		Address:      firstNonBlank(req.Address, si.Address, tpl.Address),
		Website:      firstNonBlank(req.Website, si.Website, storeURL),
		Logo:         firstNonBlank(req.Logo, si.Logo, storeLogo),
		LogoPosition: firstNonBlank(req.LogoPosition, si.LogoPosition),
	}

	custom := make(map[string]string, len(tpl.CustomFields)+len(req.CustomFields))
	for _, layer := range []map[string]string{tpl.CustomFields, req.CustomFields} {
		for k, v := range layer {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k != "" && v != "" {
				custom[k] = v
			}
		}
	}
	if len(custom) > 0 {
		info.CustomFields = custom
	}

	return info
}

func mergeDesign(req, tpl entity.Design) entity.Design {
	return entity.Design{
		Theme:          firstNonBlank(req.Theme, tpl.Theme),
		PrimaryColor:   firstNonBlank(req.PrimaryColor, tpl.PrimaryColor),
		SecondaryColor: firstNonBlank(req.SecondaryColor, tpl.SecondaryColor),
		FontFamily:     firstNonBlank(req.FontFamily, tpl.FontFamily),
	}
}

// mergeLayout returns a layout with every flag set; unset flags default to true.
func mergeLayout(req, tpl entity.Layout) entity.Layout {
	return entity.Layout{
		PaperSize:           firstNonBlank(req.PaperSize, tpl.PaperSize),
		HeaderText:          firstNonBlank(req.HeaderText, tpl.HeaderText),
		FooterText:          firstNonBlank(req.FooterText, tpl.FooterText),
		ShowLogo:            firstFlag(req.ShowLogo, tpl.ShowLogo),
		ShowCustomerAddress: firstFlag(req.ShowCustomerAddress, tpl.ShowCustomerAddress),
		ShowTaxBreakdown:    firstFlag(req.ShowTaxBreakdown, tpl.ShowTaxBreakdown),
	}
}

func numberPrefix(configured string, kind enum.DocumentKind) string {
	prefix := strings.TrimRight(strings.TrimSpace(configured), "-")
	if prefix == "" {
		return kind.DefaultPrefix()
	}
	return prefix
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstFlag(flags ...*bool) *bool {
	for _, f := range flags {
		if f != nil {
			v := *f
			return &v
		}
	}
	v := true
	return &v
}
