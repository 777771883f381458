package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/sangkips/investify-docs/pkg/validation"
	"github.com/shopspring/decimal"
)

// SourceRef identifies the transaction a document is generated from. It is
// implemented only by OrderRef and SubscriptionPaymentRef.
type SourceRef interface {
	Scenario() enum.Scenario
	SourceID() uuid.UUID
	isSourceRef()
}

// OrderRef points at a storefront order
type OrderRef struct {
	OrderID uuid.UUID
}

func (OrderRef) Scenario() enum.Scenario { return enum.ScenarioOrder }
func (r OrderRef) SourceID() uuid.UUID   { return r.OrderID }
func (OrderRef) isSourceRef()            {}

// SubscriptionPaymentRef points at one payment of a subscription
type SubscriptionPaymentRef struct {
	SubscriptionID uuid.UUID
	PaymentID      uuid.UUID
}

func (SubscriptionPaymentRef) Scenario() enum.Scenario { return enum.ScenarioSubscription }
func (r SubscriptionPaymentRef) SourceID() uuid.UUID   { return r.PaymentID }
func (SubscriptionPaymentRef) isSourceRef()            {}

// DocumentDraft is a source record normalised into document fields. Amounts
// are the values declared by the source.
type DocumentDraft struct {
	Scenario        enum.Scenario
	SourceID        uuid.UUID
	StoreID         *uuid.UUID
	SubscriptionID  *uuid.UUID
	UserID          *uuid.UUID
	Customer        entity.CustomerSnapshot
	LineItems       []entity.LineItem
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	DiscountAmount  decimal.Decimal
	TotalAmount     decimal.Decimal
	Currency        string
	PaymentMethod   string
	TransactionID   string
	TransactionDate time.Time
	Description     string
	Notes           string
}

// orderRequirements are the fields an order must carry to be billed
type orderRequirements struct {
	CustomerID    string            `json:"customer_id" validate:"required"`
	CustomerName  string            `json:"customer_name" validate:"required"`
	CustomerEmail string            `json:"customer_email" validate:"required,email"`
	StoreID       string            `json:"store_id" validate:"required"`
	LineItems     []entity.LineItem `json:"line_items" validate:"min=1"`
	PaymentMethod string            `json:"payment_method" validate:"required"`
}

// subscriptionRequirements are the identifiers a subscription payment must
// carry. Customer identity and store are not needed.
type subscriptionRequirements struct {
	SubscriptionID string `json:"subscription_id" validate:"required"`
	PaymentID      string `json:"payment_id" validate:"required"`
	TenantID       string `json:"tenant_id" validate:"required"`
	UserID         string `json:"user_id" validate:"required"`
}

// ScenarioAdapter loads source records and converts them into drafts
type ScenarioAdapter struct {
	orderRepo        repository.OrderRepository
	subscriptionRepo repository.SubscriptionRepository
}

// NewScenarioAdapter creates a new scenario adapter
func NewScenarioAdapter(
	orderRepo repository.OrderRepository,
	subscriptionRepo repository.SubscriptionRepository,
) *ScenarioAdapter {
	return &ScenarioAdapter{
		orderRepo:        orderRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

// Adapt loads the record behind ref and validates it for its scenario.
func (a *ScenarioAdapter) Adapt(ctx context.Context, tenantID uuid.UUID, ref SourceRef) (*DocumentDraft, error) {
	switch ref := ref.(type) {
	case OrderRef:
		return a.adaptOrder(ctx, tenantID, ref)
	case SubscriptionPaymentRef:
		return a.adaptSubscription(ctx, tenantID, ref)
	case nil:
		return nil, apperror.NewFieldError("source", "is required")
	default:
		return nil, apperror.NewFieldError("scenario", fmt.Sprintf("unsupported source %T", ref))
	}
}

func (a *ScenarioAdapter) adaptOrder(ctx context.Context, tenantID uuid.UUID, ref OrderRef) (*DocumentDraft, error) {
	order, err := a.orderRepo.GetWithItems(ctx, tenantID, ref.OrderID)
	if err != nil {
		return nil, apperror.NewIntegrationError(err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	if !order.OrderStatus.Billable() {
		return nil, apperror.NewFieldError("order_status",
			fmt.Sprintf("order is %s and cannot be billed", order.OrderStatus))
	}

	items := lo.Map(order.Items, func(oi entity.OrderItem, _ int) entity.LineItem {
		return entity.LineItem{
			Name:        oi.Name,
			Description: oi.Description,
			Quantity:    oi.Quantity,
			UnitPrice:   oi.UnitPrice,
			TotalPrice:  oi.Total,
			TaxRate:     oi.TaxRate,
		}
	})

	storeID := order.StoreID
	draft := &DocumentDraft{
		Scenario: enum.ScenarioOrder,
		SourceID: order.ID,
		StoreID:  &storeID,
		Customer: entity.CustomerSnapshot{
			ID:      order.CustomerID,
			Name:    order.Billing.FullName(),
			Email:   strings.TrimSpace(order.Billing.Email),
			Phone:   strings.TrimSpace(order.Billing.Phone),
			Address: order.Billing.PostalAddress(),
		},
		LineItems:       items,
		Subtotal:        order.Total.Sub(order.TotalTax),
		TaxAmount:       order.TotalTax,
		DiscountAmount:  order.DiscountTotal,
		TotalAmount:     order.Total,
		Currency:        strings.ToUpper(strings.TrimSpace(order.Currency)),
		PaymentMethod:   strings.TrimSpace(order.PaymentMethodTitle),
		TransactionID:   order.TransactionID,
		TransactionDate: order.OrderDate,
		Description:     orderDescription(order),
		Notes:           order.CustomerNote,
	}

	req := orderRequirements{
		CustomerName:  draft.Customer.Name,
		CustomerEmail: draft.Customer.Email,
		LineItems:     items,
		PaymentMethod: draft.PaymentMethod,
	}
	if order.CustomerID != nil && *order.CustomerID != uuid.Nil {
		req.CustomerID = order.CustomerID.String()
	}
	if order.StoreID != uuid.Nil {
		req.StoreID = order.StoreID.String()
	}

	var fieldErrors []apperror.FieldError
	if err := validation.Struct(req); err != nil {
		fieldErrors = append(fieldErrors, apperror.GetAppError(err).Errors...)
	}
	if !order.Total.IsPositive() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "total_amount", Message: "must be greater than 0"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	return draft, nil
}

func (a *ScenarioAdapter) adaptSubscription(ctx context.Context, tenantID uuid.UUID, ref SubscriptionPaymentRef) (*DocumentDraft, error) {
	sub, err := a.subscriptionRepo.GetByID(ctx, tenantID, ref.SubscriptionID)
	if err != nil {
		return nil, apperror.NewIntegrationError(err)
	}
	if sub == nil {
		return nil, apperror.NewNotFoundError("Subscription")
	}

	payment, err := a.subscriptionRepo.GetPayment(ctx, tenantID, ref.PaymentID)
	if err != nil {
		return nil, apperror.NewIntegrationError(err)
	}
	if payment == nil || payment.SubscriptionID != sub.ID {
		return nil, apperror.NewNotFoundError("Payment")
	}

	req := subscriptionRequirements{
		SubscriptionID: uuidString(sub.ID),
		PaymentID:      uuidString(payment.ID),
		TenantID:       uuidString(tenantID),
		UserID:         uuidString(sub.UserID),
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	currency := firstNonBlank(payment.Currency, sub.Currency)
	transactionDate := payment.CreatedAt
	if payment.PaidAt != nil {
		transactionDate = *payment.PaidAt
	}

	subID, userID := sub.ID, sub.UserID
	return &DocumentDraft{
		Scenario:       enum.ScenarioSubscription,
		SourceID:       payment.ID,
		SubscriptionID: &subID,
		UserID:         &userID,
		LineItems: []entity.LineItem{{
			Name:        sub.PlanName,
			Description: sub.PlanDescription,
			Quantity:    1,
			UnitPrice:   payment.Amount,
			TotalPrice:  payment.Amount,
			TaxRate:     decimal.Zero,
		}},
		Subtotal:        payment.Amount,
		TaxAmount:       decimal.Zero,
		DiscountAmount:  decimal.Zero,
		TotalAmount:     payment.Amount,
		Currency:        strings.ToUpper(currency),
		PaymentMethod:   strings.TrimSpace(payment.Gateway),
		TransactionID:   payment.Reference,
		TransactionDate: transactionDate,
		Description:     subscriptionDescription(sub),
	}, nil
}

func orderDescription(order *entity.Order) string {
	if order.Number == "" {
		return "Order payment"
	}
	return "Payment for order #" + order.Number
}

func subscriptionDescription(sub *entity.Subscription) string {
	if sub.BillingInterval == "" {
		return sub.PlanName + " subscription"
	}
	return fmt.Sprintf("%s subscription (%s)", sub.PlanName, sub.BillingInterval)
}

func uuidString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
