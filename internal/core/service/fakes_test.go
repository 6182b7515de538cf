package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/stockroom/internal/adapter/storage/memory"
	"github.com/rl1809/stockroom/internal/core/domain"
)

type memStore = memory.Store

func newMemStore() *memStore { return memory.New() }

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, e domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

var errPublishDown = errors.New("broker unavailable")

// fixture wires every service over one memStore with a fixed clock.
type fixture struct {
	store      *memStore
	cache      *mockCacheRepo
	events     *recordingPublisher
	products   *ProductService
	suppliers  *SupplierService
	warehouses *WarehouseService
	orders     *OrderService
	dashboard  *DashboardService
	now        time.Time
}

func newFixture() *fixture {
	store := newMemStore()
	cache := newMockCacheRepo()
	events := &recordingPublisher{}
	logger := zap.NewNop()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	f := &fixture{store: store, cache: cache, events: events, now: now}
	f.products = NewProductService(store, store, store, store, store, nil, logger)
	f.products.now = clock
	f.suppliers = NewSupplierService(store, store, store, store, logger)
	f.suppliers.now = clock
	f.warehouses = NewWarehouseService(store, store, store, store, logger)
	f.warehouses.now = clock
	f.orders = NewOrderService(store, store, store, store, f.products, cache, events, nil, logger)
	f.orders.now = clock
	f.dashboard = NewDashboardService(store, store, store, store)
	f.dashboard.now = clock
	return f
}

func (f *fixture) mustWarehouse(name string) *domain.Warehouse {
	w, err := f.warehouses.Create(context.Background(), domain.Warehouse{Name: name, Location: "12 Dock Rd, Rotterdam"})
	if err != nil {
		panic(err)
	}
	return w
}

func (f *fixture) mustSupplier(name string) *domain.Supplier {
	s, err := f.suppliers.Create(context.Background(), domain.Supplier{Name: name, Email: strings.ToLower(name) + "@example.com"})
	if err != nil {
		panic(err)
	}
	return s
}

func (f *fixture) mustProduct(sku string, price string, stock, minLevel int, warehouseID int64, supplierID *int64) *domain.Product {
	p, err := f.products.Create(context.Background(), domain.Product{
		Name:          "Product " + sku,
		SKU:           sku,
		Category:      "General",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		MinStockLevel: minLevel,
		WarehouseID:   warehouseID,
		SupplierID:    supplierID,
	})
	if err != nil {
		panic(err)
	}
	return p
}

func (f *fixture) stockOf(id int64) int {
	p, err := f.store.GetProduct(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return p.StockQuantity
}
