package subscriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sangkips/investify-docs/internal/domain/event"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/pkg/logger"
)

// NotificationPayload is the short message delivered to tenant webhooks
type NotificationPayload struct {
	Event          string    `json:"event"`
	TenantID       uuid.UUID `json:"tenant_id"`
	DocumentID     uuid.UUID `json:"document_id"`
	DocumentNumber string    `json:"document_number"`
	Kind           string    `json:"kind"`
	CustomerName   string    `json:"customer_name"`
	Status         string    `json:"status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NotificationSubscriber posts document events to the tenant's webhook URL
type NotificationSubscriber struct {
	tenantRepo repository.TenantRepository
	client     *retryablehttp.Client
	logger     *logger.Logger
}

// NewNotificationSubscriber creates a new notification subscriber
func NewNotificationSubscriber(
	tenantRepo repository.TenantRepository,
	timeout time.Duration,
	retries int,
	log *logger.Logger,
) *NotificationSubscriber {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	return &NotificationSubscriber{
		tenantRepo: tenantRepo,
		client:     client,
		logger:     log,
	}
}

func (s *NotificationSubscriber) Name() string { return "notification" }

func (s *NotificationSubscriber) Topics() []string {
	return []string{event.DocumentCreated, event.DocumentCancelled, event.DocumentRefunded}
}

func (s *NotificationSubscriber) Handle(ctx context.Context, evt *event.DocumentEvent) error {
	tenant, err := s.tenantRepo.GetByID(ctx, evt.TenantID)
	if err != nil {
		return err
	}
	if tenant == nil || tenant.Settings.WebhookURL == "" {
		s.logger.Debugw("no webhook configured, skipping notification",
			"tenant_id", evt.TenantID,
			"event", evt.Name,
		)
		return nil
	}

	payload := NotificationPayload{
		Event:          evt.Name,
		TenantID:       evt.TenantID,
		DocumentID:     evt.DocumentID,
		DocumentNumber: evt.DocumentNumber,
		Kind:           evt.Kind.String(),
		CustomerName:   evt.CustomerName,
		OccurredAt:     evt.OccurredAt,
	}
	if evt.After != nil {
		payload.Status = evt.After.Status
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, tenant.Settings.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Name", evt.Name)
	req.Header.Set("X-Event-ID", evt.ID.String())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}

	s.logger.Infow("notification delivered",
		"tenant_id", evt.TenantID,
		"event", evt.Name,
		"document_number", evt.DocumentNumber,
	)
	return nil
}
