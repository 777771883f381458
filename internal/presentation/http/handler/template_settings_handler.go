package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-docs/internal/application/service"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-docs/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/sangkips/investify-docs/pkg/validation"
)

// TemplateSettingsHandler handles the tenant's document template settings
type TemplateSettingsHandler struct {
	templates *service.TemplateSettingsService
	logos     *service.LogoService
}

// NewTemplateSettingsHandler creates a new template settings handler
func NewTemplateSettingsHandler(templates *service.TemplateSettingsService, logos *service.LogoService) *TemplateSettingsHandler {
	return &TemplateSettingsHandler{templates: templates, logos: logos}
}

// Get returns both templates
func (h *TemplateSettingsHandler) Get(c *gin.Context) {
	settings, err := h.templates.GetSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Template settings retrieved successfully", settings)
}

// Update replaces the template of the kind in the path
func (h *TemplateSettingsHandler) Update(c *gin.Context) {
	kind, err := pathKind(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validation.BindingError(err))
		return
	}

	settings, err := h.templates.UpdateTemplate(c.Request.Context(), kind, req.ToEntity(), GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, kind.Title()+" template updated successfully", settings)
}

// UploadLogo stores a logo and sets it on the template of the kind in the path
func (h *TemplateSettingsHandler) UploadLogo(c *gin.Context) {
	kind, err := pathKind(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	upload, file, err := formLogo(c, "logo")
	if err != nil {
		response.Error(c, err)
		return
	}
	if upload == nil {
		response.Error(c, apperror.NewFieldError("logo", "is required"))
		return
	}
	defer file.Close()

	url, err := h.logos.Upload(c.Request.Context(), upload)
	if err != nil {
		response.Error(c, err)
		return
	}

	settings, err := h.templates.SetLogo(c.Request.Context(), kind, url, GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Logo uploaded successfully", settings)
}

func pathKind(c *gin.Context) (enum.DocumentKind, error) {
	kind, ok := enum.ParseDocumentKind(c.Param("kind"))
	if !ok {
		return "", apperror.NewFieldError("kind", "must be one of [invoice receipt]")
	}
	return kind, nil
}
