package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sangkips/investify-docs/internal/config"
	domainRepo "github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/internal/infrastructure/metrics"
	"github.com/sangkips/investify-docs/internal/presentation/http/handler"
	"github.com/sangkips/investify-docs/internal/presentation/http/middleware"
	"github.com/sangkips/investify-docs/pkg/logger"
	"github.com/sangkips/investify-docs/pkg/utils"
	"github.com/sangkips/investify-docs/pkg/validation"
)

// Permissions checked on document and settings routes
const (
	PermissionManageReceipts = "manage-receipts"
	PermissionManageInvoices = "manage-invoices"
	PermissionManageSettings = "manage-settings"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Receipts  *handler.DocumentHandler
	Invoices  *handler.DocumentHandler
	Templates *handler.TemplateSettingsHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	TenantRepo      domainRepo.TenantRepository
	IdempotencyRepo domainRepo.IdempotencyRepository
	Metrics         *metrics.Metrics
	MetricsHandler  http.Handler
	RateLimiter     *middleware.TenantRateLimiter
	Logger          *logger.Logger
}

// NewRateLimiter builds the per-tenant limiter from configuration.
func NewRateLimiter(cfg config.RateLimitConfig) *middleware.TenantRateLimiter {
	rlCfg := middleware.DefaultRateLimiterConfig()
	if cfg.Requests > 0 && cfg.Duration > 0 {
		rlCfg.RequestsPerSecond = float64(cfg.Requests) / float64(cfg.Duration)
		rlCfg.BurstSize = cfg.Requests
	}
	return middleware.NewTenantRateLimiter(rlCfg)
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.UseJSONNames(v)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))
	router.Use(deps.Metrics.Handler())

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		}
		if deps.RateLimiter != nil {
			body["rate_limiter"] = deps.RateLimiter.Stats()
		}
		c.JSON(http.StatusOK, body)
	})
	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.TenantMiddleware(deps.TenantRepo))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		generate := []gin.HandlerFunc{middleware.Idempotency(middleware.IdempotencyConfig{
			Repo:   deps.IdempotencyRepo,
			Logger: deps.Logger,
		})}
		bulk := generate
		if deps.RateLimiter != nil {
			bulk = append([]gin.HandlerFunc{deps.RateLimiter.Bulk()}, generate...)
		}

		registerDocumentRoutes(protected.Group("/receipts"), h.Receipts, PermissionManageReceipts, generate, bulk)
		registerDocumentRoutes(protected.Group("/invoices"), h.Invoices, PermissionManageInvoices, generate, bulk)
		registerTemplateRoutes(protected, h.Templates)
	}

	return router
}

func registerDocumentRoutes(group *gin.RouterGroup, h *handler.DocumentHandler, permission string, generate, bulk []gin.HandlerFunc) {
	group.Use(middleware.RequirePermission(permission))
	{
		group.GET("", h.List)
		group.POST("/generate", append(generate, h.Generate)...)
		group.POST("/generate/bulk", append(bulk, h.GenerateBulk)...)
		group.GET("/number/:number", h.GetByNumber)
		group.GET("/:id", h.Get)
		group.GET("/:id/audit", h.AuditTrail)
		group.PUT("/:id/items", h.UpdateLineItems)
		group.POST("/:id/cancel", h.Cancel)
		group.POST("/:id/refund", h.Refund)
	}
}

func registerTemplateRoutes(protected *gin.RouterGroup, h *handler.TemplateSettingsHandler) {
	templates := protected.Group("/settings/templates")
	templates.Use(middleware.RequirePermission(PermissionManageSettings))
	{
		templates.GET("", h.Get)
		templates.PUT("/:kind", h.Update)
		templates.POST("/:kind/logo", h.UploadLogo)
	}
}

// Shutdown releases background resources started by the routes.
func Shutdown(deps *Deps) {
	if deps.RateLimiter != nil {
		deps.RateLimiter.Stop()
	}
}

