package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/domain/event"
	infraRepo "github.com/sangkips/investify-docs/internal/infrastructure/repository"
	"github.com/sangkips/investify-docs/internal/testutil"
	"github.com/sangkips/investify-docs/pkg/email"
	"github.com/sangkips/investify-docs/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument(tenantID uuid.UUID) *entity.Document {
	return &entity.Document{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Kind:           enum.DocumentKindReceipt,
		Scenario:       enum.ScenarioOrder,
		DocumentNumber: "REC-2026-0001",
		Status:         enum.DocumentStatusActive,
		Customer:       entity.CustomerSnapshot{Name: "Jane Wanjiru", Email: "jane@example.com"},
		CompanyInfo:    entity.CompanyInfo{Name: "Acme Online"},
		Subtotal:       decimal.NewFromInt(25),
		TaxAmount:      decimal.RequireFromString("2.5"),
		TotalAmount:    decimal.RequireFromString("27.5"),
		Currency:       "USD",
		LineItems:      entity.LineItems{{Name: "Widget", Quantity: 1, UnitPrice: decimal.NewFromInt(25), TotalPrice: decimal.NewFromInt(25)}},
	}
}

func TestAuditSubscriber(t *testing.T) {
	tenantID := uuid.New()
	ctx := infraRepo.WithTenant(context.Background(), tenantID)
	store := testutil.NewInMemoryAuditLogStore()
	sub := NewAuditSubscriber(store)
	actor := uuid.New()

	doc := sampleDocument(tenantID)
	before := event.Summarize(doc)
	doc.Status = enum.DocumentStatusRefunded
	doc.RefundAmount = decimal.NewNullDecimal(doc.TotalAmount)

	require.NoError(t, sub.Handle(ctx, event.NewDocumentEvent(event.DocumentRefunded, doc, &actor, before)))

	logs, err := store.ListByResource(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, event.DocumentRefunded, entry.Action)
	assert.Equal(t, "receipt", entry.ResourceType)
	assert.Equal(t, actor, *entry.ActorID)
	assert.Equal(t, "active", entry.Before["status"])
	assert.Equal(t, "refunded", entry.After["status"])
	assert.NotContains(t, entry.Before, "refund_amount")
	assert.Contains(t, entry.After, "refund_amount")
	assert.ElementsMatch(t, event.AllTopics, sub.Topics())
}

func TestAuditSubscriber_CreatedHasNoBefore(t *testing.T) {
	tenantID := uuid.New()
	ctx := infraRepo.WithTenant(context.Background(), tenantID)
	store := testutil.NewInMemoryAuditLogStore()
	doc := sampleDocument(tenantID)

	require.NoError(t, NewAuditSubscriber(store).Handle(ctx, event.NewDocumentEvent(event.DocumentCreated, doc, nil, nil)))

	logs, err := store.ListByResource(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].Before)
	assert.Nil(t, logs[0].ActorID)
}

func TestNotificationSubscriber_PostsPayload(t *testing.T) {
	var (
		mu       sync.Mutex
		received NotificationPayload
		header   http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		header = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tenant := entity.Tenant{ID: uuid.New(), Name: "Acme", Settings: entity.TenantSettings{WebhookURL: srv.URL}}
	sub := NewNotificationSubscriber(testutil.NewInMemoryTenantStore(tenant), time.Second, 0, logger.NewNop())
	evt := event.NewDocumentEvent(event.DocumentCreated, sampleDocument(tenant.ID), nil, nil)

	require.NoError(t, sub.Handle(context.Background(), evt))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, event.DocumentCreated, received.Event)
	assert.Equal(t, "REC-2026-0001", received.DocumentNumber)
	assert.Equal(t, "receipt", received.Kind)
	assert.Equal(t, "active", received.Status)
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, evt.ID.String(), header.Get("X-Event-ID"))
}

func TestNotificationSubscriber_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	tenant := entity.Tenant{ID: uuid.New(), Settings: entity.TenantSettings{WebhookURL: srv.URL}}
	sub := NewNotificationSubscriber(testutil.NewInMemoryTenantStore(tenant), time.Second, 0, logger.NewNop())

	err := sub.Handle(context.Background(), event.NewDocumentEvent(event.DocumentCancelled, sampleDocument(tenant.ID), nil, nil))

	assert.ErrorContains(t, err, "status 400")
}

func TestNotificationSubscriber_NoWebhook(t *testing.T) {
	tenant := entity.Tenant{ID: uuid.New()}
	sub := NewNotificationSubscriber(testutil.NewInMemoryTenantStore(tenant), time.Second, 0, logger.NewNop())

	assert.NoError(t, sub.Handle(context.Background(), event.NewDocumentEvent(event.DocumentCreated, sampleDocument(tenant.ID), nil, nil)))
}

type fakeMailer struct {
	enabled bool
	err     error
	sent    []email.DocumentEmail
	to      []string
}

func (m *fakeMailer) Enabled() bool { return m.enabled }

func (m *fakeMailer) SendDocumentEmail(to string, data email.DocumentEmail) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.sent = append(m.sent, data)
	return nil
}

func TestEmailSubscriber(t *testing.T) {
	tenant := entity.Tenant{ID: uuid.New(), Name: "Acme Ltd", Settings: entity.TenantSettings{EmailNotifications: true}}
	ctx := infraRepo.WithTenant(context.Background(), tenant.ID)
	docs := testutil.NewInMemoryDocumentStore()
	doc := sampleDocument(tenant.ID)
	docs.Put(doc)
	mailer := &fakeMailer{enabled: true}
	sub := NewEmailSubscriber(testutil.NewInMemoryTenantStore(tenant), docs, mailer, logger.NewNop())

	require.NoError(t, sub.Handle(ctx, event.NewDocumentEvent(event.DocumentCreated, doc, nil, nil)))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"jane@example.com"}, mailer.to)
	assert.Equal(t, "Receipt", mailer.sent[0].DocumentTitle)
	assert.Equal(t, "27.50", mailer.sent[0].Total)
	assert.Equal(t, "Acme Online", mailer.sent[0].CompanyName)

	stored, err := docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@example.com"}, []string(stored.EmailRecipients))
}

func TestEmailSubscriber_Skips(t *testing.T) {
	optedOut := entity.Tenant{ID: uuid.New()}
	optedIn := entity.Tenant{ID: uuid.New(), Settings: entity.TenantSettings{EmailNotifications: true}}

	tests := []struct {
		name   string
		tenant entity.Tenant
		mailer *fakeMailer
		email  string
	}{
		{"tenant opted out", optedOut, &fakeMailer{enabled: true}, "jane@example.com"},
		{"mailer disabled", optedIn, &fakeMailer{}, "jane@example.com"},
		{"no customer email", optedIn, &fakeMailer{enabled: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDocument(tt.tenant.ID)
			doc.Customer.Email = tt.email
			sub := NewEmailSubscriber(testutil.NewInMemoryTenantStore(tt.tenant), testutil.NewInMemoryDocumentStore(), tt.mailer, logger.NewNop())

			require.NoError(t, sub.Handle(context.Background(), event.NewDocumentEvent(event.DocumentCreated, doc, nil, nil)))
			assert.Empty(t, tt.mailer.sent)
		})
	}
}

func TestEmailSubscriber_SendFailureIsReturned(t *testing.T) {
	tenant := entity.Tenant{ID: uuid.New(), Settings: entity.TenantSettings{EmailNotifications: true}}
	mailer := &fakeMailer{enabled: true, err: errors.New("smtp: 421")}
	sub := NewEmailSubscriber(testutil.NewInMemoryTenantStore(tenant), testutil.NewInMemoryDocumentStore(), mailer, logger.NewNop())

	err := sub.Handle(context.Background(), event.NewDocumentEvent(event.DocumentCreated, sampleDocument(tenant.ID), nil, nil))

	assert.ErrorContains(t, err, "421")
}
