package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	infraRepo "github.com/sangkips/investify-docs/internal/infrastructure/repository"
	"github.com/sangkips/investify-docs/internal/testutil"
	"github.com/sangkips/investify-docs/pkg/lock"
	"github.com/sangkips/investify-docs/pkg/logger"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

// fixture wires every service against in-memory stores for one tenant
type fixture struct {
	ctx    context.Context
	tenant entity.Tenant
	store  entity.Store
	userID uuid.UUID

	tenants       *testutil.InMemoryTenantStore
	stores        *testutil.InMemoryStoreStore
	orders        *testutil.InMemoryOrderStore
	subscriptions *testutil.InMemorySubscriptionStore
	settings      *testutil.InMemoryTemplateSettingsStore
	documents     *testutil.InMemoryDocumentStore
	sequences     *testutil.InMemorySequenceStore
	audit         *testutil.InMemoryAuditLogStore
	publisher     *testutil.RecordingPublisher

	resolver   *TemplateResolver
	adapter    *ScenarioAdapter
	allocator  *DocumentNumberAllocator
	generation *GenerationService
	lifecycle  *LifecycleService
	query      *DocumentService
	templates  *TemplateSettingsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.NewNop()
	f := &fixture{
		tenant: entity.Tenant{
			ID:       uuid.New(),
			Name:     "Acme Ltd",
			Slug:     "acme",
			Settings: entity.TenantSettings{Currency: "KES"},
		},
		userID:        uuid.New(),
		orders:        testutil.NewInMemoryOrderStore(),
		subscriptions: testutil.NewInMemorySubscriptionStore(),
		settings:      testutil.NewInMemoryTemplateSettingsStore(),
		documents:     testutil.NewInMemoryDocumentStore(),
		sequences:     testutil.NewInMemorySequenceStore(),
		audit:         testutil.NewInMemoryAuditLogStore(),
		publisher:     &testutil.RecordingPublisher{},
	}
	f.store = entity.Store{
		ID:       uuid.New(),
		TenantID: f.tenant.ID,
		Name:     "Acme Online",
		URL:      "https://shop.acme.test",
		LogoURL:  "https://cdn.acme.test/store-logo.png",
		IsActive: true,
	}
	f.tenants = testutil.NewInMemoryTenantStore(f.tenant)
	f.stores = testutil.NewInMemoryStoreStore(f.store)
	f.ctx = infraRepo.WithTenant(context.Background(), f.tenant.ID)

	f.resolver = NewTemplateResolver(f.settings, f.stores, log)
	f.adapter = NewScenarioAdapter(f.orders, f.subscriptions)
	f.allocator = NewDocumentNumberAllocator(f.sequences)
	f.allocator.now = func() time.Time { return fixedNow }

	f.generation = NewGenerationService(
		f.tenants, f.documents, f.adapter, f.resolver, f.allocator,
		f.publisher, nil, log,
		GenerationOptions{BulkConcurrency: 3, BulkMaxItems: 10},
	)
	f.lifecycle = NewLifecycleService(f.documents, lock.NewLocalLocker(time.Second), f.publisher, nil, log)
	f.lifecycle.now = func() time.Time { return fixedNow }
	f.query = NewDocumentService(f.documents, f.audit)
	f.templates = NewTemplateSettingsService(f.settings, log)

	return f
}

// addOrder stores a two line order: 10 x 2 and 5 x 1 with 2.50 tax.
func (f *fixture) addOrder(mutate ...func(o *entity.Order)) entity.Order {
	customerID := uuid.New()
	order := entity.Order{
		ID:          uuid.New(),
		TenantID:    f.tenant.ID,
		StoreID:     f.store.ID,
		CustomerID:  &customerID,
		Number:      "1001",
		OrderStatus: enum.OrderStatusCompleted,
		Billing: entity.BillingDetails{
			FirstName: "Jane",
			LastName:  "Wanjiru",
			Email:     "jane@example.com",
			Phone:     "+254700000000",
			Address1:  "1 Kenyatta Ave",
			City:      "Nairobi",
			Country:   "KE",
		},
		Total:              decimal.RequireFromString("27.50"),
		TotalTax:           decimal.RequireFromString("2.50"),
		DiscountTotal:      decimal.Zero,
		Currency:           "usd",
		PaymentMethodTitle: "Card",
		TransactionID:      "txn_123",
		OrderDate:          fixedNow.Add(-time.Hour),
		Items: []entity.OrderItem{
			{Position: 0, Name: "Widget", Quantity: 2, UnitPrice: decimal.NewFromInt(10), Total: decimal.NewFromInt(20)},
			{Position: 1, Name: "Gadget", Quantity: 1, UnitPrice: decimal.NewFromInt(5), Total: decimal.NewFromInt(5)},
		},
	}
	for _, m := range mutate {
		m(&order)
	}
	f.orders.Put(order)
	return order
}

// addSubscriptionPayment stores a 9.99 monthly plan paid through Flutterwave.
func (f *fixture) addSubscriptionPayment() (entity.Subscription, entity.Payment) {
	sub := entity.Subscription{
		ID:              uuid.New(),
		TenantID:        f.tenant.ID,
		UserID:          f.userID,
		PlanName:        "Pro Plan",
		PlanDescription: "Unlimited documents",
		BillingInterval: "monthly",
		Amount:          decimal.RequireFromString("9.99"),
		Currency:        "USD",
		Status:          "active",
	}
	paidAt := fixedNow.Add(-24 * time.Hour)
	payment := entity.Payment{
		ID:             uuid.New(),
		TenantID:       f.tenant.ID,
		SubscriptionID: sub.ID,
		Amount:         decimal.RequireFromString("9.99"),
		Currency:       "USD",
		Gateway:        "Flutterwave",
		Reference:      "FLW-REF-42",
		PaidAt:         &paidAt,
		CreatedAt:      paidAt,
	}
	f.subscriptions.PutSubscription(sub)
	f.subscriptions.PutPayment(payment)
	return sub, payment
}

func (f *fixture) generateReceipt(t *testing.T, orderID uuid.UUID) *entity.Document {
	t.Helper()
	doc, err := f.generation.Generate(f.ctx, &GenerateInput{
		Kind:    enum.DocumentKindReceipt,
		Source:  OrderRef{OrderID: orderID},
		ActorID: &f.userID,
	})
	if err != nil {
		t.Fatalf("generate receipt: %v", err)
	}
	return doc
}

func ptr[T any](v T) *T {
	return &v
}
