package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/domain/event"
	infraRepo "github.com/sangkips/investify-docs/internal/infrastructure/repository"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type GenerationServiceSuite struct {
	suite.Suite
	f *fixture
}

func TestGenerationService(t *testing.T) {
	suite.Run(t, new(GenerationServiceSuite))
}

func (s *GenerationServiceSuite) SetupTest() {
	s.f = newFixture(s.T())
}

func (s *GenerationServiceSuite) requireType(err error, want apperror.ErrorType) *apperror.AppError {
	s.Require().Error(err)
	appErr := apperror.GetAppError(err)
	s.Require().Equal(want, appErr.Type, "error: %v", err)
	return appErr
}

func (s *GenerationServiceSuite) TestGenerate_OrderReceipt() {
	order := s.f.addOrder()

	doc := s.f.generateReceipt(s.T(), order.ID)

	s.Equal("REC-2026-0001", doc.DocumentNumber)
	s.Equal(enum.DocumentStatusActive, doc.Status)
	s.Equal(enum.ScenarioOrder, doc.Scenario)
	s.True(doc.Subtotal.Equal(decimal.NewFromInt(25)))
	s.True(doc.TaxAmount.Equal(decimal.RequireFromString("2.5")))
	s.True(doc.DiscountAmount.IsZero())
	s.True(doc.TotalAmount.Equal(decimal.RequireFromString("27.5")))
	s.True(doc.TotalAmount.Equal(doc.Subtotal.Add(doc.TaxAmount).Sub(doc.DiscountAmount)))
	s.Equal("USD", doc.Currency)
	s.Equal("Card", doc.PaymentMethod)
	s.Equal("txn_123", doc.TransactionID)
	s.Equal("Jane Wanjiru", doc.Customer.Name)
	s.Equal("jane@example.com", doc.Customer.Email)
	s.Equal("Nairobi", doc.Customer.Address.City)
	s.Require().Len(doc.LineItems, 2)
	s.Equal("Widget", doc.LineItems[0].Name)
	s.Equal(order.StoreID, *doc.StoreID)
	s.Equal(order.ID, doc.SourceID)
	s.Equal(s.f.userID, *doc.CreatedBy)

	// Store identity fills the header when the tenant has no template.
	s.Equal("Acme Online", doc.CompanyInfo.Name)
	s.Equal("https://shop.acme.test", doc.CompanyInfo.Website)
	s.Equal("https://cdn.acme.test/store-logo.png", doc.CompanyInfo.Logo)

	created := s.f.publisher.Named(event.DocumentCreated)
	s.Require().Len(created, 1)
	s.Equal(doc.ID, created[0].DocumentID)
	s.Equal("REC-2026-0001", created[0].DocumentNumber)
	s.Equal("Jane Wanjiru", created[0].CustomerName)
	s.Nil(created[0].Before)

	stored, err := s.f.query.GetDocument(s.f.ctx, enum.DocumentKindReceipt, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.DocumentNumber, stored.DocumentNumber)
}

func (s *GenerationServiceSuite) TestGenerate_SequentialNumbers() {
	first := s.f.generateReceipt(s.T(), s.f.addOrder().ID)
	second := s.f.generateReceipt(s.T(), s.f.addOrder().ID)

	s.Equal("REC-2026-0001", first.DocumentNumber)
	s.Equal("REC-2026-0002", second.DocumentNumber)
}

func (s *GenerationServiceSuite) TestGenerate_KindsHaveSeparateNumbering() {
	s.f.generateReceipt(s.T(), s.f.addOrder().ID)

	invoice, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{
		Kind:   enum.DocumentKindInvoice,
		Source: OrderRef{OrderID: s.f.addOrder().ID},
	})

	s.Require().NoError(err)
	s.Equal("INV-2026-0001", invoice.DocumentNumber)
}

func (s *GenerationServiceSuite) TestGenerate_ConfiguredPrefix() {
	_, err := s.f.templates.UpdateTemplate(s.f.ctx, enum.DocumentKindReceipt, entity.DocumentTemplate{NumberPrefix: "ACME-"}, nil)
	s.Require().NoError(err)

	doc := s.f.generateReceipt(s.T(), s.f.addOrder().ID)

	s.Equal("ACME-2026-0001", doc.DocumentNumber)
}

func (s *GenerationServiceSuite) TestGenerate_OrderWithoutEmailFailsValidation() {
	order := s.f.addOrder(func(o *entity.Order) { o.Billing.Email = "" })

	_, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{
		Kind:   enum.DocumentKindReceipt,
		Source: OrderRef{OrderID: order.ID},
	})

	appErr := s.requireType(err, apperror.TypeValidation)
	s.Require().NotEmpty(appErr.Errors)
	s.Equal("customer_email", appErr.Errors[0].Field)
	s.Empty(s.f.documents.All())
	s.Empty(s.f.publisher.Events())
}

func (s *GenerationServiceSuite) TestGenerate_SubscriptionPayment() {
	sub, payment := s.f.addSubscriptionPayment()

	doc, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{
		Kind:   enum.DocumentKindInvoice,
		Source: SubscriptionPaymentRef{SubscriptionID: sub.ID, PaymentID: payment.ID},
	})

	s.Require().NoError(err)
	s.Equal("INV-2026-0001", doc.DocumentNumber)
	s.Equal(enum.ScenarioSubscription, doc.Scenario)
	s.Require().Len(doc.LineItems, 1)
	s.Equal("Pro Plan", doc.LineItems[0].Name)
	s.Equal(1, doc.LineItems[0].Quantity)
	s.True(doc.TotalAmount.Equal(decimal.RequireFromString("9.99")))
	s.Equal("Flutterwave", doc.PaymentMethod)
	s.Equal("FLW-REF-42", doc.TransactionID)
	s.Empty(doc.Customer.Name)
	s.Empty(doc.Customer.Email)
	s.Nil(doc.StoreID)
	s.Equal(sub.ID, *doc.SubscriptionID)
	s.Equal(s.f.userID, *doc.UserID)
	s.Equal(payment.ID, doc.SourceID)
}

func (s *GenerationServiceSuite) TestGenerate_EmptyCompanyInfoIsAllowed() {
	sub, payment := s.f.addSubscriptionPayment()

	doc, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{
		Kind:   enum.DocumentKindReceipt,
		Source: SubscriptionPaymentRef{SubscriptionID: sub.ID, PaymentID: payment.ID},
	})

	s.Require().NoError(err)
	s.True(doc.CompanyInfo.IsEmpty(), "expected a blank header, got %+v", doc.CompanyInfo)
}

func (s *GenerationServiceSuite) TestGenerate_SubscriptionUsesSelectedStore() {
	sub, payment := s.f.addSubscriptionPayment()

	doc, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{
		Kind:    enum.DocumentKindReceipt,
		Source:  SubscriptionPaymentRef{SubscriptionID: sub.ID, PaymentID: payment.ID},
		StoreID: &s.f.store.ID,
	})

	s.Require().NoError(err)
	s.Equal("Acme Online", doc.CompanyInfo.Name)
	s.Nil(doc.StoreID)
}

func (s *GenerationServiceSuite) TestGenerate_NotFound() {
	sub, payment := s.f.addSubscriptionPayment()
	otherSub, _ := s.f.addSubscriptionPayment()

	tests := []struct {
		name    string
		source  SourceRef
		message string
	}{
		{"missing order", OrderRef{OrderID: uuid.New()}, "Order not found"},
		{"missing subscription", SubscriptionPaymentRef{SubscriptionID: uuid.New(), PaymentID: payment.ID}, "Subscription not found"},
		{"missing payment", SubscriptionPaymentRef{SubscriptionID: sub.ID, PaymentID: uuid.New()}, "Payment not found"},
		{"payment of another subscription", SubscriptionPaymentRef{SubscriptionID: otherSub.ID, PaymentID: payment.ID}, "Payment not found"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{Kind: enum.DocumentKindReceipt, Source: tt.source})

			appErr := s.requireType(err, apperror.TypeNotFound)
			s.Equal(tt.message, appErr.Message)
		})
	}
}

func (s *GenerationServiceSuite) TestGenerate_UnknownTenant() {
	order := s.f.addOrder()
	ctx := infraRepo.WithTenant(s.f.ctx, uuid.New())

	_, err := s.f.generation.Generate(ctx, &GenerateInput{Kind: enum.DocumentKindReceipt, Source: OrderRef{OrderID: order.ID}})

	appErr := s.requireType(err, apperror.TypeNotFound)
	s.Equal("Tenant not found", appErr.Message)
}

func (s *GenerationServiceSuite) TestGenerate_NonBillableOrder() {
	order := s.f.addOrder(func(o *entity.Order) { o.OrderStatus = enum.OrderStatusRefunded })

	_, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{Kind: enum.DocumentKindReceipt, Source: OrderRef{OrderID: order.ID}})

	appErr := s.requireType(err, apperror.TypeValidation)
	s.Equal("order_status", appErr.Errors[0].Field)
}

func (s *GenerationServiceSuite) TestGenerate_LineItemMismatchRejected() {
	order := s.f.addOrder(func(o *entity.Order) {
		o.Items[0].Total = decimal.NewFromInt(19)
	})

	_, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{Kind: enum.DocumentKindReceipt, Source: OrderRef{OrderID: order.ID}})

	appErr := s.requireType(err, apperror.TypeValidation)
	s.Equal("line_items[0].total_price", appErr.Errors[0].Field)
	s.Empty(s.f.documents.All())
}

func (s *GenerationServiceSuite) TestGenerate_ComputedTotalWins() {
	order := s.f.addOrder(func(o *entity.Order) {
		o.Total = decimal.NewFromInt(30)
	})

	doc := s.f.generateReceipt(s.T(), order.ID)

	s.True(doc.TotalAmount.Equal(decimal.RequireFromString("27.5")))
}

func (s *GenerationServiceSuite) TestGenerate_TenantCurrencyFallback() {
	order := s.f.addOrder(func(o *entity.Order) { o.Currency = "" })

	doc := s.f.generateReceipt(s.T(), order.ID)

	s.Equal("KES", doc.Currency)
}

func (s *GenerationServiceSuite) TestGenerate_RetriesNumberCollisionOnce() {
	s.f.documents.Put(&entity.Document{
		TenantID:       s.f.tenant.ID,
		Kind:           enum.DocumentKindReceipt,
		DocumentNumber: "REC-2026-0001",
	})

	doc := s.f.generateReceipt(s.T(), s.f.addOrder().ID)

	s.Equal("REC-2026-0002", doc.DocumentNumber)
}

func (s *GenerationServiceSuite) TestGenerate_SecondCollisionIsConflict() {
	for _, number := range []string{"REC-2026-0001", "REC-2026-0002"} {
		s.f.documents.Put(&entity.Document{
			TenantID:       s.f.tenant.ID,
			Kind:           enum.DocumentKindReceipt,
			DocumentNumber: number,
		})
	}

	_, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{
		Kind:   enum.DocumentKindReceipt,
		Source: OrderRef{OrderID: s.f.addOrder().ID},
	})

	s.requireType(err, apperror.TypeConflict)
	s.Len(s.f.documents.All(), 2)
	s.Empty(s.f.publisher.Events())
}

func (s *GenerationServiceSuite) TestGenerate_PersistenceFailureIsIntegrationError() {
	s.f.documents.CreateErr = errors.New("connection refused")

	_, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{
		Kind:   enum.DocumentKindReceipt,
		Source: OrderRef{OrderID: s.f.addOrder().ID},
	})

	appErr := s.requireType(err, apperror.TypeIntegration)
	s.Equal("Internal server error", appErr.Message)
	s.NotContains(appErr.Message, "connection refused")
}

func (s *GenerationServiceSuite) TestGenerate_PublishFailureDoesNotFailRequest() {
	s.f.publisher.Err = errors.New("bus closed")

	doc := s.f.generateReceipt(s.T(), s.f.addOrder().ID)

	s.NotEqual(uuid.Nil, doc.ID)
	s.Len(s.f.documents.All(), 1)
}

func (s *GenerationServiceSuite) TestGenerate_RequestOverrideWins() {
	_, err := s.f.templates.UpdateTemplate(s.f.ctx, enum.DocumentKindReceipt, entity.DocumentTemplate{
		StoreInfo: entity.StoreInfo{Name: "Acme Template", Email: "billing@acme.test"},
	}, nil)
	s.Require().NoError(err)

	doc, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{
		Kind:     enum.DocumentKindReceipt,
		Source:   OrderRef{OrderID: s.f.addOrder().ID},
		Template: &TemplateOverride{CompanyInfo: entity.CompanyInfo{Logo: "https://cdn.acme.test/upload.png"}},
	})

	s.Require().NoError(err)
	s.Equal("Acme Template", doc.CompanyInfo.Name)
	s.Equal("billing@acme.test", doc.CompanyInfo.Email)
	s.Equal("https://cdn.acme.test/upload.png", doc.CompanyInfo.Logo)
}

func (s *GenerationServiceSuite) TestCompanyInfoIsASnapshot() {
	_, err := s.f.templates.SetLogo(s.f.ctx, enum.DocumentKindReceipt, "https://cdn.acme.test/logo-v1.png", nil)
	s.Require().NoError(err)
	doc := s.f.generateReceipt(s.T(), s.f.addOrder().ID)

	_, err = s.f.templates.SetLogo(s.f.ctx, enum.DocumentKindReceipt, "https://cdn.acme.test/logo-v2.png", nil)
	s.Require().NoError(err)

	stored, err := s.f.query.GetDocument(s.f.ctx, enum.DocumentKindReceipt, doc.ID)
	s.Require().NoError(err)
	s.Equal("https://cdn.acme.test/logo-v1.png", stored.CompanyInfo.Logo)

	next := s.f.generateReceipt(s.T(), s.f.addOrder().ID)
	s.Equal("https://cdn.acme.test/logo-v2.png", next.CompanyInfo.Logo)
}

func (s *GenerationServiceSuite) TestGenerateBulk_ContinuesOnError() {
	items := make([]BulkItem, 5)
	for i := range items {
		items[i] = BulkItem{Source: OrderRef{OrderID: s.f.addOrder().ID}}
	}
	items[2] = BulkItem{Source: OrderRef{OrderID: uuid.New()}}

	result, err := s.f.generation.GenerateBulk(s.f.ctx, &BulkGenerateInput{
		Kind:  enum.DocumentKindReceipt,
		Items: items,
	})

	s.Require().NoError(err)
	s.Equal(5, result.Requested)
	s.Equal(4, result.Generated)
	s.Len(result.Documents, 4)
	s.Require().Len(result.Results, 5)

	failed := result.Results[2]
	s.False(failed.Success)
	s.Equal(2, failed.Index)
	s.Require().NotNil(failed.Error)
	s.Equal(apperror.TypeNotFound, failed.Error.Type)

	numbers := map[string]bool{}
	for i, r := range result.Results {
		if i == 2 {
			continue
		}
		s.True(r.Success)
		s.NotEmpty(r.DocumentNumber)
		numbers[r.DocumentNumber] = true
	}
	s.Len(numbers, 4, "document numbers must be unique")
	s.Len(s.f.publisher.Named(event.DocumentCreated), 4)
}

func (s *GenerationServiceSuite) TestGenerateBulk_MixedScenarios() {
	sub, payment := s.f.addSubscriptionPayment()
	noEmail := s.f.addOrder(func(o *entity.Order) { o.Billing.Email = "" })

	result, err := s.f.generation.GenerateBulk(s.f.ctx, &BulkGenerateInput{
		Kind: enum.DocumentKindInvoice,
		Items: []BulkItem{
			{Source: SubscriptionPaymentRef{SubscriptionID: sub.ID, PaymentID: payment.ID}},
			{Source: OrderRef{OrderID: noEmail.ID}},
			{Source: nil},
		},
	})

	s.Require().NoError(err)
	s.Equal(3, result.Requested)
	s.Equal(1, result.Generated)
	s.Equal(apperror.TypeValidation, result.Results[1].Error.Type)
	s.Equal(apperror.TypeValidation, result.Results[2].Error.Type)
}

func (s *GenerationServiceSuite) TestGenerateBulk_Limits() {
	_, err := s.f.generation.GenerateBulk(s.f.ctx, &BulkGenerateInput{Kind: enum.DocumentKindReceipt})
	s.requireType(err, apperror.TypeValidation)

	items := make([]BulkItem, 11)
	for i := range items {
		items[i] = BulkItem{Source: OrderRef{OrderID: uuid.New()}}
	}
	_, err = s.f.generation.GenerateBulk(s.f.ctx, &BulkGenerateInput{Kind: enum.DocumentKindReceipt, Items: items})
	s.requireType(err, apperror.TypeValidation)
}

func (s *GenerationServiceSuite) TestGenerate_InvalidKind() {
	_, err := s.f.generation.Generate(s.f.ctx, &GenerateInput{Kind: "quote", Source: OrderRef{OrderID: uuid.New()}})
	s.requireType(err, apperror.TypeValidation)
}
