package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/investify-docs/internal/application/service"
	"github.com/sangkips/investify-docs/internal/application/subscriber"
	"github.com/sangkips/investify-docs/internal/config"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/infrastructure/database"
	"github.com/sangkips/investify-docs/internal/infrastructure/messaging"
	"github.com/sangkips/investify-docs/internal/infrastructure/metrics"
	"github.com/sangkips/investify-docs/internal/infrastructure/repository"
	"github.com/sangkips/investify-docs/internal/infrastructure/storage"
	"github.com/sangkips/investify-docs/internal/presentation/http/handler"
	"github.com/sangkips/investify-docs/internal/presentation/http/routes"
	"github.com/sangkips/investify-docs/pkg/email"
	"github.com/sangkips/investify-docs/pkg/lock"
	"github.com/sangkips/investify-docs/pkg/logger"
	"github.com/sangkips/investify-docs/pkg/utils"
	"github.com/shopspring/decimal"
)

const idempotencySweepInterval = time.Hour

func main() {
	// Load configuration
	cfg := config.Load()

	appLogger, err := logger.New(cfg.Log.Level, cfg.App.Env != "production")
	if err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer appLogger.Sync()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Amounts go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, appLogger)
	if err != nil {
		appLogger.Fatalw("failed to connect to database", "error", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db, appLogger); err != nil {
		appLogger.Fatalw("failed to run migrations", "error", err)
	}

	// Initialize repositories
	tenantRepo := repository.NewTenantRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	templateSettingsRepo := repository.NewTemplateSettingsRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Document locks
	var locker lock.Locker
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			appLogger.Fatalw("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		}
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LockKeyspace, cfg.Redis.LockTTL, cfg.Redis.LockWait)
		appLogger.Infow("using redis document locks", "addr", cfg.Redis.Addr)
	} else {
		locker = lock.NewLocalLocker(cfg.Redis.LockWait)
		appLogger.Info("using in-process document locks")
	}

	// Logo storage
	var logos *service.LogoService
	if cfg.Storage.Enabled() {
		objectStore, err := storage.NewMinIO(ctx, cfg.Storage)
		if err != nil {
			appLogger.Fatalw("failed to connect to object storage", "endpoint", cfg.Storage.Endpoint, "error", err)
		}
		logos = service.NewLogoService(objectStore, cfg.Storage.UploadMaxSize, appLogger)
	} else {
		logos = service.NewLogoService(nil, cfg.Storage.UploadMaxSize, appLogger)
		appLogger.Info("object storage not configured, logo uploads disabled")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics, err := metrics.New(registry)
	if err != nil {
		appLogger.Fatalw("failed to register metrics", "error", err)
	}

	// Event bus
	pubSub := messaging.NewPubSub(cfg.Events.OutputBuffer, appLogger)
	eventRouter, err := messaging.NewRouter(pubSub.Subscriber(), pubSub.Publisher(), cfg.Events.WebhookRetries, appLogger)
	if err != nil {
		appLogger.Fatalw("failed to create event router", "error", err)
	}

	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
		FrontendURL:  cfg.Email.FrontendURL,
	})

	eventRouter.Register(subscriber.NewAuditSubscriber(auditLogRepo))
	eventRouter.Register(subscriber.NewNotificationSubscriber(tenantRepo, cfg.Events.WebhookTimeout, cfg.Events.WebhookRetries, appLogger))
	eventRouter.Register(subscriber.NewEmailSubscriber(tenantRepo, documentRepo, emailService, appLogger))

	routerDone := make(chan struct{})
	go func() {
		defer close(routerDone)
		if err := eventRouter.Run(context.Background()); err != nil {
			appLogger.Errorw("event router stopped", "error", err)
		}
	}()
	<-eventRouter.Running()

	// Initialize services
	generationService := service.NewGenerationService(
		tenantRepo,
		documentRepo,
		service.NewScenarioAdapter(orderRepo, subscriptionRepo),
		service.NewTemplateResolver(templateSettingsRepo, storeRepo, appLogger),
		service.NewDocumentNumberAllocator(sequenceRepo),
		pubSub,
		appMetrics,
		appLogger,
		service.GenerationOptions{
			BulkConcurrency: cfg.Generation.BulkConcurrency,
			BulkMaxItems:    cfg.Generation.BulkMaxItems,
		},
	)
	lifecycleService := service.NewLifecycleService(documentRepo, locker, pubSub, appMetrics, appLogger)
	documentService := service.NewDocumentService(documentRepo, auditLogRepo)
	templateSettingsService := service.NewTemplateSettingsService(templateSettingsRepo, appLogger)

	// Initialize handlers
	handlers := &routes.Handlers{
		Receipts:  handler.NewDocumentHandler(enum.DocumentKindReceipt, generationService, lifecycleService, documentService, logos),
		Invoices:  handler.NewDocumentHandler(enum.DocumentKindInvoice, generationService, lifecycleService, documentService, logos),
		Templates: handler.NewTemplateSettingsHandler(templateSettingsService, logos),
	}

	deps := &routes.Deps{
		JWTManager:      utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiryHours),
		Cfg:             cfg,
		TenantRepo:      tenantRepo,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         appMetrics,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		RateLimiter:     routes.NewRateLimiter(cfg.RateLimit),
		Logger:          appLogger,
	}
	router := routes.Setup(handlers, deps)

	// Expired idempotency keys
	go func() {
		ticker := time.NewTicker(idempotencySweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := idempotencyRepo.DeleteExpired(ctx); err != nil {
					appLogger.Warnw("failed to delete expired idempotency keys", "error", err)
				}
			}
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Infow("server starting", "port", cfg.App.Port, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("server shutdown failed", "error", err)
	}
	routes.Shutdown(deps)

	if err := eventRouter.Close(); err != nil {
		appLogger.Errorw("event router close failed", "error", err)
	}
	<-routerDone
	if err := pubSub.Close(); err != nil {
		appLogger.Errorw("event bus close failed", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
