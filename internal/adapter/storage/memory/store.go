// Package memory keeps every repository in process maps. It backs the
// service and handler test suites.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/rl1809/stockroom/internal/core/domain"
)

// Store implements every repository port and the transactor. Transactions
// are serialised and a failed fn restores the snapshot taken before it ran.
// Nested WithinTx calls are not supported.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID     int64
	products   map[int64]domain.Product
	suppliers  map[int64]domain.Supplier
	warehouses map[int64]domain.Warehouse
	orders     map[int64]domain.Order
	users      map[int64]domain.User
}

func New() *Store {
	return &Store{
		products:   make(map[int64]domain.Product),
		suppliers:  make(map[int64]domain.Supplier),
		warehouses: make(map[int64]domain.Warehouse),
		orders:     make(map[int64]domain.Order),
		users:      make(map[int64]domain.User),
	}
}

func (m *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	products := cloneMap(m.products)
	suppliers := cloneMap(m.suppliers)
	warehouses := cloneMap(m.warehouses)
	orders := make(map[int64]domain.Order, len(m.orders))
	for id, o := range m.orders {
		orders[id] = cloneOrder(o)
	}
	users := cloneMap(m.users)
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.products, m.suppliers, m.warehouses, m.orders, m.users = products, suppliers, warehouses, orders, users
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[V any](in map[int64]V) map[int64]V {
	out := make(map[int64]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// cloneOrder copies o the way the SQL store would read it back, with money
// held at column scale.
func cloneOrder(o domain.Order) domain.Order {
	o.TotalAmount = o.TotalAmount.Round(domain.MoneyScale)
	o.Items = slices.Clone(o.Items)
	for i := range o.Items {
		o.Items[i].UnitPrice = o.Items[i].UnitPrice.Round(domain.MoneyScale)
	}
	return o
}

func storedProduct(p domain.Product) domain.Product {
	p.Price = p.Price.Round(domain.MoneyScale)
	return p
}

func checkStock(n int) error {
	if n < 0 || n > domain.MaxQuantity {
		return domain.InvalidArgumentf("Stock quantity has a value out of range")
	}
	return nil
}

func (m *Store) id() int64 {
	m.nextID++
	return m.nextID
}

func sortedValues[V any](in map[int64]V) []V {
	ids := make([]int64, 0, len(in))
	for id := range in {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]V, 0, len(in))
	for _, id := range ids {
		out = append(out, in[id])
	}
	return out
}

// Products

func (m *Store) CreateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.products[p.ID] = storedProduct(*p)
	return nil
}

func (m *Store) UpdateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return domain.NotFoundf("Product not found with ID: %d", p.ID)
	}
	m.products[p.ID] = storedProduct(*p)
	return nil
}

func (m *Store) DeleteProduct(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		for _, item := range o.Items {
			if item.ProductID == id {
				return domain.Conflictf("Cannot delete product: it is linked to existing orders or references.")
			}
		}
	}
	delete(m.products, id)
	return nil
}

func (m *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.NotFoundf("Product not found with ID: %d", id)
	}
	return &p, nil
}

func (m *Store) GetProductBySKU(_ context.Context, sku string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, domain.NotFoundf("Product not found with SKU: %s", sku)
}

func (m *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.products), nil
}

func (m *Store) ListProductsByWarehouse(ctx context.Context, warehouseID int64) ([]domain.Product, error) {
	all, _ := m.ListProducts(ctx)
	out := make([]domain.Product, 0)
	for _, p := range all {
		if p.WarehouseID == warehouseID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Store) ListProductsBySupplier(ctx context.Context, supplierID int64) ([]domain.Product, error) {
	all, _ := m.ListProducts(ctx)
	out := make([]domain.Product, 0)
	for _, p := range all {
		if p.SupplierID != nil && *p.SupplierID == supplierID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Store) DecrementStock(_ context.Context, id int64, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return false, domain.NotFoundf("Product not found with ID: %d", id)
	}
	if p.StockQuantity < quantity {
		return false, nil
	}
	p.StockQuantity -= quantity
	m.products[id] = p
	return true, nil
}

func (m *Store) IncrementStock(_ context.Context, id int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.NotFoundf("Product not found with ID: %d", id)
	}
	if err := checkStock(p.StockQuantity + quantity); err != nil {
		return err
	}
	p.StockQuantity += quantity
	m.products[id] = p
	return nil
}

func (m *Store) SetStock(_ context.Context, id int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.NotFoundf("Product not found with ID: %d", id)
	}
	if err := checkStock(quantity); err != nil {
		return err
	}
	p.StockQuantity = quantity
	m.products[id] = p
	return nil
}

// Suppliers

func (m *Store) CreateSupplier(_ context.Context, s *domain.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.id()
	m.suppliers[s.ID] = *s
	return nil
}

func (m *Store) UpdateSupplier(_ context.Context, s *domain.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suppliers[s.ID] = *s
	return nil
}

func (m *Store) DeleteSupplier(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.suppliers, id)
	return nil
}

func (m *Store) GetSupplier(_ context.Context, id int64) (*domain.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suppliers[id]
	if !ok {
		return nil, domain.NotFoundf("Supplier not found with ID: %d", id)
	}
	return &s, nil
}

func (m *Store) GetSupplierByName(_ context.Context, name string) (*domain.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.suppliers {
		if strings.EqualFold(s.Name, name) {
			return &s, nil
		}
	}
	return nil, domain.NotFoundf("Supplier not found with name: %s", name)
}

func (m *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.suppliers), nil
}

// Warehouses

func (m *Store) CreateWarehouse(_ context.Context, w *domain.Warehouse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = m.id()
	m.warehouses[w.ID] = *w
	return nil
}

func (m *Store) UpdateWarehouse(_ context.Context, w *domain.Warehouse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warehouses[w.ID] = *w
	return nil
}

func (m *Store) DeleteWarehouse(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.warehouses, id)
	return nil
}

func (m *Store) GetWarehouse(_ context.Context, id int64) (*domain.Warehouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.warehouses[id]
	if !ok {
		return nil, domain.NotFoundf("Warehouse not found with ID: %d", id)
	}
	return &w, nil
}

func (m *Store) GetWarehouseByName(_ context.Context, name string) (*domain.Warehouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.warehouses {
		if strings.EqualFold(w.Name, name) {
			return &w, nil
		}
	}
	return nil, domain.NotFoundf("Warehouse not found with name: %s", name)
}

func (m *Store) ListWarehouses(_ context.Context) ([]domain.Warehouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.warehouses), nil
}

// Orders

func (m *Store) assignItemIDs(o *domain.Order) {
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		if o.Items[i].ID == 0 {
			o.Items[i].ID = m.id()
		}
	}
}

func (m *Store) CreateOrder(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.id()
	m.assignItemIDs(o)
	m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (m *Store) UpdateOrder(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return domain.NotFoundf("Order not found with ID: %d", o.ID)
	}
	m.assignItemIDs(o)
	m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (m *Store) UpdateOrderStatus(_ context.Context, o *domain.Order, from domain.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok || stored.Status != from {
		return false, nil
	}
	stored.Status = o.Status
	stored.ActualDeliveryDate = o.ActualDeliveryDate
	stored.UpdatedAt = o.UpdatedAt
	m.orders[o.ID] = stored
	return true, nil
}

func (m *Store) DeleteOrder(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *Store) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.NotFoundf("Order not found with ID: %d", id)
	}
	o = cloneOrder(o)
	return &o, nil
}

func (m *Store) GetOrderByNumber(_ context.Context, number string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == number {
			o = cloneOrder(o)
			return &o, nil
		}
	}
	return nil, domain.NotFoundf("Order not found with number: %s", number)
}

func (m *Store) ListOrders(_ context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := sortedValues(m.orders)
	for i := range out {
		out[i] = cloneOrder(out[i])
	}
	return out, nil
}

func (m *Store) ListOrdersBySupplier(ctx context.Context, supplierID int64) ([]domain.Order, error) {
	all, _ := m.ListOrders(ctx)
	out := make([]domain.Order, 0)
	for _, o := range all {
		if o.SupplierID != nil && *o.SupplierID == supplierID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Store) CountItemsForProducts(_ context.Context, productIDs []int64, excludeOrderIDs []int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, o := range m.orders {
		if slices.Contains(excludeOrderIDs, id) {
			continue
		}
		for _, item := range o.Items {
			if slices.Contains(productIDs, item.ProductID) {
				n++
			}
		}
	}
	return n, nil
}

// Users

func (m *Store) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.id()
	m.users[u.ID] = *u
	return nil
}

func (m *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.NotFoundf("User not found: %s", username)
}

func (m *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.NotFoundf("User not found: %s", email)
}

