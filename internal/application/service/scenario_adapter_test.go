package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapt_Order(t *testing.T) {
	f := newFixture(t)
	order := f.addOrder(func(o *entity.Order) {
		o.CustomerNote = "Leave at reception"
		o.Billing.Email = "  jane@example.com "
	})

	draft, err := f.adapter.Adapt(f.ctx, f.tenant.ID, OrderRef{OrderID: order.ID})

	require.NoError(t, err)
	assert.Equal(t, enum.ScenarioOrder, draft.Scenario)
	assert.Equal(t, order.ID, draft.SourceID)
	assert.Equal(t, order.StoreID, *draft.StoreID)
	assert.Equal(t, order.CustomerID, draft.Customer.ID)
	assert.Equal(t, "Jane Wanjiru", draft.Customer.Name)
	assert.Equal(t, "jane@example.com", draft.Customer.Email)
	assert.Equal(t, "KE", draft.Customer.Address.Country)
	assert.Equal(t, []string{"Widget", "Gadget"}, lo.Map(draft.LineItems, func(li entity.LineItem, _ int) string { return li.Name }))
	assert.True(t, draft.Subtotal.Equal(decimal.NewFromInt(25)))
	assert.True(t, draft.TotalAmount.Equal(decimal.RequireFromString("27.5")))
	assert.Equal(t, "USD", draft.Currency)
	assert.Equal(t, "Payment for order #1001", draft.Description)
	assert.Equal(t, "Leave at reception", draft.Notes)
	assert.Equal(t, order.OrderDate, draft.TransactionDate)
}

func TestAdapt_OrderMissingFields(t *testing.T) {
	f := newFixture(t)
	order := f.addOrder(func(o *entity.Order) {
		o.CustomerID = nil
		o.Billing = entity.BillingDetails{}
		o.PaymentMethodTitle = " "
		o.Items = nil
		o.Total = decimal.Zero
		o.TotalTax = decimal.Zero
	})

	_, err := f.adapter.Adapt(f.ctx, f.tenant.ID, OrderRef{OrderID: order.ID})

	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, apperror.TypeValidation, appErr.Type)
	fields := lo.Map(appErr.Errors, func(fe apperror.FieldError, _ int) string { return fe.Field })
	assert.ElementsMatch(t, []string{
		"customer_id", "customer_name", "customer_email", "line_items", "payment_method", "total_amount",
	}, fields)
}

func TestAdapt_OrderInvalidEmail(t *testing.T) {
	f := newFixture(t)
	order := f.addOrder(func(o *entity.Order) { o.Billing.Email = "not-an-email" })

	_, err := f.adapter.Adapt(f.ctx, f.tenant.ID, OrderRef{OrderID: order.ID})

	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	require.Len(t, appErr.Errors, 1)
	assert.Equal(t, "customer_email", appErr.Errors[0].Field)
}

func TestAdapt_OrderStatus(t *testing.T) {
	tests := []struct {
		status  enum.OrderStatus
		wantErr bool
	}{
		{enum.OrderStatusPending, false},
		{enum.OrderStatusCompleted, false},
		{enum.OrderStatusCancelled, true},
		{enum.OrderStatusRefunded, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			f := newFixture(t)
			order := f.addOrder(func(o *entity.Order) { o.OrderStatus = tt.status })

			_, err := f.adapter.Adapt(f.ctx, f.tenant.ID, OrderRef{OrderID: order.ID})

			if tt.wantErr {
				assert.True(t, apperror.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAdapt_Subscription(t *testing.T) {
	f := newFixture(t)
	sub, payment := f.addSubscriptionPayment()

	draft, err := f.adapter.Adapt(f.ctx, f.tenant.ID, SubscriptionPaymentRef{SubscriptionID: sub.ID, PaymentID: payment.ID})

	require.NoError(t, err)
	assert.Equal(t, enum.ScenarioSubscription, draft.Scenario)
	assert.Equal(t, payment.ID, draft.SourceID)
	assert.Nil(t, draft.StoreID)
	assert.Equal(t, sub.ID, *draft.SubscriptionID)
	assert.Equal(t, sub.UserID, *draft.UserID)
	require.Len(t, draft.LineItems, 1)
	line := draft.LineItems[0]
	assert.Equal(t, "Pro Plan", line.Name)
	assert.Equal(t, 1, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("9.99")))
	assert.True(t, draft.TaxAmount.IsZero())
	assert.True(t, draft.TotalAmount.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, "Flutterwave", draft.PaymentMethod)
	assert.Equal(t, "FLW-REF-42", draft.TransactionID)
	assert.Equal(t, *payment.PaidAt, draft.TransactionDate)
	assert.Equal(t, "Pro Plan subscription (monthly)", draft.Description)
	assert.Empty(t, draft.Customer.Email)
}

func TestAdapt_SubscriptionUnpaidUsesCreatedAt(t *testing.T) {
	f := newFixture(t)
	sub, payment := f.addSubscriptionPayment()
	payment.PaidAt = nil
	payment.Currency = ""
	f.subscriptions.PutPayment(payment)

	draft, err := f.adapter.Adapt(f.ctx, f.tenant.ID, SubscriptionPaymentRef{SubscriptionID: sub.ID, PaymentID: payment.ID})

	require.NoError(t, err)
	assert.Equal(t, payment.CreatedAt, draft.TransactionDate)
	assert.Equal(t, "USD", draft.Currency, "falls back to the subscription currency")
}

func TestAdapt_SubscriptionWithoutUser(t *testing.T) {
	f := newFixture(t)
	sub, payment := f.addSubscriptionPayment()
	sub.UserID = uuid.Nil
	f.subscriptions.PutSubscription(sub)

	_, err := f.adapter.Adapt(f.ctx, f.tenant.ID, SubscriptionPaymentRef{SubscriptionID: sub.ID, PaymentID: payment.ID})

	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, apperror.TypeValidation, appErr.Type)
	assert.Equal(t, "user_id", appErr.Errors[0].Field)
}

func TestAdapt_MissingSource(t *testing.T) {
	f := newFixture(t)

	_, err := f.adapter.Adapt(f.ctx, f.tenant.ID, nil)

	assert.True(t, apperror.IsValidation(err))
}

func TestAdapt_RepositoryFailure(t *testing.T) {
	f := newFixture(t)
	f.orders.Err = errors.New("connection refused")

	_, err := f.adapter.Adapt(f.ctx, f.tenant.ID, OrderRef{OrderID: uuid.New()})

	assert.True(t, apperror.IsIntegration(err))
}
