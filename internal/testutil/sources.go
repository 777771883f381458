package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
)

// InMemoryTenantStore implements repository.TenantRepository
type InMemoryTenantStore struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]entity.Tenant
	Err     error
}

func NewInMemoryTenantStore(tenants ...entity.Tenant) *InMemoryTenantStore {
	s := &InMemoryTenantStore{tenants: make(map[uuid.UUID]entity.Tenant)}
	for _, t := range tenants {
		s.tenants[t.ID] = t
	}
	return s
}

func (s *InMemoryTenantStore) Put(t entity.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
}

func (s *InMemoryTenantStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// InMemoryStoreStore implements repository.StoreRepository
type InMemoryStoreStore struct {
	mu     sync.Mutex
	stores map[uuid.UUID]entity.Store
	Err    error
}

func NewInMemoryStoreStore(stores ...entity.Store) *InMemoryStoreStore {
	s := &InMemoryStoreStore{stores: make(map[uuid.UUID]entity.Store)}
	for _, st := range stores {
		s.stores[st.ID] = st
	}
	return s
}

func (s *InMemoryStoreStore) Put(st entity.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[st.ID] = st
}

// GetByID returns the store by ID without checking the tenant, so callers'
// own tenant checks can be exercised.
func (s *InMemoryStoreStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Store, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// InMemoryOrderStore implements repository.OrderRepository
type InMemoryOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]entity.Order
	Err    error
}

func NewInMemoryOrderStore(orders ...entity.Order) *InMemoryOrderStore {
	s := &InMemoryOrderStore{orders: make(map[uuid.UUID]entity.Order)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *InMemoryOrderStore) Put(o entity.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *InMemoryOrderStore) GetWithItems(ctx context.Context, tenantID, id uuid.UUID) (*entity.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, nil
	}
	o.Items = append([]entity.OrderItem(nil), o.Items...)
	return &o, nil
}

// InMemorySubscriptionStore implements repository.SubscriptionRepository
type InMemorySubscriptionStore struct {
	mu            sync.Mutex
	subscriptions map[uuid.UUID]entity.Subscription
	payments      map[uuid.UUID]entity.Payment
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		subscriptions: make(map[uuid.UUID]entity.Subscription),
		payments:      make(map[uuid.UUID]entity.Payment),
	}
}

func (s *InMemorySubscriptionStore) PutSubscription(sub entity.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[sub.ID] = sub
}

func (s *InMemorySubscriptionStore) PutPayment(p entity.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
}

func (s *InMemorySubscriptionStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[id]
	if !ok || sub.TenantID != tenantID {
		return nil, nil
	}
	return &sub, nil
}

func (s *InMemorySubscriptionStore) GetPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*entity.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok || p.TenantID != tenantID {
		return nil, nil
	}
	return &p, nil
}
