package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
)

// StoreRepository reads tenant storefronts
type StoreRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Store, error)
}

// OrderRepository reads storefront orders
type OrderRepository interface {
	// GetWithItems returns the order and its items in position order.
	GetWithItems(ctx context.Context, tenantID, id uuid.UUID) (*entity.Order, error)
}

// SubscriptionRepository reads subscriptions and their payments
type SubscriptionRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Subscription, error)
	GetPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*entity.Payment, error)
}
