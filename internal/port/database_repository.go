package port

import (
	"context"

	"github.com/rl1809/stockroom/internal/core/domain"
)

// Transactor runs fn inside one database transaction. Repositories called
// with the ctx handed to fn join that transaction; returning an error from fn
// rolls every write back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListProductsByWarehouse(ctx context.Context, warehouseID int64) ([]domain.Product, error)
	ListProductsBySupplier(ctx context.Context, supplierID int64) ([]domain.Product, error)

	// DecrementStock atomically decreases stock, returns false if insufficient
	DecrementStock(ctx context.Context, id int64, quantity int) (bool, error)

	// IncrementStock atomically increases stock
	IncrementStock(ctx context.Context, id int64, quantity int) error

	// SetStock overwrites the stock level
	SetStock(ctx context.Context, id int64, quantity int) error
}

type SupplierRepository interface {
	CreateSupplier(ctx context.Context, s *domain.Supplier) error
	UpdateSupplier(ctx context.Context, s *domain.Supplier) error
	DeleteSupplier(ctx context.Context, id int64) error
	GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error)
	GetSupplierByName(ctx context.Context, name string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
}

type WarehouseRepository interface {
	CreateWarehouse(ctx context.Context, w *domain.Warehouse) error
	UpdateWarehouse(ctx context.Context, w *domain.Warehouse) error
	DeleteWarehouse(ctx context.Context, id int64) error
	GetWarehouse(ctx context.Context, id int64) (*domain.Warehouse, error)
	GetWarehouseByName(ctx context.Context, name string) (*domain.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]domain.Warehouse, error)
}

type OrderRepository interface {
	// CreateOrder persists the order header and its items
	CreateOrder(ctx context.Context, o *domain.Order) error

	// UpdateOrder writes the header and replaces the stored items with o.Items
	UpdateOrder(ctx context.Context, o *domain.Order) error

	// UpdateOrderStatus persists a transition only if the stored status still
	// equals from; returns false when another writer got there first
	UpdateOrderStatus(ctx context.Context, o *domain.Order, from domain.OrderStatus) (bool, error)

	DeleteOrder(ctx context.Context, id int64) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ListOrdersBySupplier(ctx context.Context, supplierID int64) ([]domain.Order, error)

	// CountItemsForProducts counts order items referencing any of the given
	// products, ignoring items of the excluded orders
	CountItemsForProducts(ctx context.Context, productIDs []int64, excludeOrderIDs []int64) (int, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
