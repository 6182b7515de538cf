package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/report"
	"github.com/rl1809/stockroom/internal/metrics"
	"github.com/rl1809/stockroom/internal/port"
)

type ProductService struct {
	tx         port.Transactor
	products   port.ProductRepository
	warehouses port.WarehouseRepository
	suppliers  port.SupplierRepository
	orders     port.OrderRepository
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewProductService(
	tx port.Transactor,
	products port.ProductRepository,
	warehouses port.WarehouseRepository,
	suppliers port.SupplierRepository,
	orders port.OrderRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		tx:         tx,
		products:   products,
		warehouses: warehouses,
		suppliers:  suppliers,
		orders:     orders,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkReferences(ctx, p); err != nil {
			return err
		}
		if err := s.checkSKUUnique(ctx, p.SKU, 0); err != nil {
			return err
		}
		now := s.now()
		p.CreatedAt, p.UpdatedAt = now, now
		return s.products.CreateProduct(ctx, &p)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("product created", zap.Int64("product_id", p.ID), zap.String("sku", p.SKU))
	return &p, nil
}

// Update replaces every mutable field of the product with p's.
func (s *ProductService) Update(ctx context.Context, id int64, p domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.products.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkReferences(ctx, p); err != nil {
			return err
		}
		if err := s.checkSKUUnique(ctx, p.SKU, id); err != nil {
			return err
		}
		p.ID = id
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = s.now()
		return s.products.UpdateProduct(ctx, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete refuses to remove a product that order items still point at.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.products.GetProduct(ctx, id); err != nil {
			return err
		}
		refs, err := s.orders.CountItemsForProducts(ctx, []int64{id}, nil)
		if err != nil {
			return err
		}
		if refs > 0 {
			return domain.Conflictf("Cannot delete product: it is linked to existing orders or references.")
		}
		return s.products.DeleteProduct(ctx, id)
	})
}

func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.GetProduct(ctx, id)
}

func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return s.products.GetProductBySKU(ctx, sku)
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListProducts(ctx)
}

func (s *ProductService) Search(ctx context.Context, term string) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0)
	for _, p := range products {
		if p.Matches(term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *ProductService) LowStock(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return report.LowStockProducts(products), nil
}

func (s *ProductService) ByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0)
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return report.Categories(products), nil
}

func (s *ProductService) TopExpensive(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit < 0 {
		return nil, domain.InvalidArgumentf("Limit cannot be negative")
	}
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return report.TopExpensive(products, limit), nil
}

func (s *ProductService) InventoryValue(ctx context.Context) (decimal.Decimal, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return report.TotalInventoryValue(products), nil
}

func (s *ProductService) InventoryValueByCategory(ctx context.Context) (map[string]decimal.Decimal, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return report.InventoryValueByCategory(products), nil
}

func (s *ProductService) CountByCategory(ctx context.Context) (map[string]int, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return report.CountByCategory(products), nil
}

func (s *ProductService) Alerts(ctx context.Context) ([]string, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return report.LowStockAlerts(products), nil
}

func (s *ProductService) ReduceStock(ctx context.Context, id int64, quantity int) (*domain.Product, error) {
	return s.mutateStock(ctx, id, func(ctx context.Context) error {
		return s.reduceStock(ctx, id, quantity)
	})
}

func (s *ProductService) IncreaseStock(ctx context.Context, id int64, quantity int) (*domain.Product, error) {
	return s.mutateStock(ctx, id, func(ctx context.Context) error {
		return s.increaseStock(ctx, id, quantity)
	})
}

func (s *ProductService) SetStock(ctx context.Context, id int64, quantity int) (*domain.Product, error) {
	if quantity < 0 {
		return nil, domain.InvalidArgumentf("Stock quantity cannot be negative")
	}
	if quantity > domain.MaxQuantity {
		return nil, domain.InvalidArgumentf("Stock quantity cannot exceed %d", domain.MaxQuantity)
	}
	return s.mutateStock(ctx, id, func(ctx context.Context) error {
		return s.products.SetStock(ctx, id, quantity)
	})
}

func (s *ProductService) mutateStock(ctx context.Context, id int64, mutate func(ctx context.Context) error) (*domain.Product, error) {
	var out *domain.Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := mutate(ctx); err != nil {
			return err
		}
		p, err := s.products.GetProduct(ctx, id)
		out = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// reduceStock relies on the conditional decrement in the repository; the
// follow-up read only builds the error message.
func (s *ProductService) reduceStock(ctx context.Context, id int64, quantity int) error {
	if quantity < 0 {
		return domain.InvalidArgumentf("Quantity cannot be negative")
	}
	ok, err := s.products.DecrementStock(ctx, id, quantity)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	s.metrics.ObserveStockRejection()
	return domain.Errorf(domain.KindOutOfStock,
		"Insufficient stock for product: %s. Available: %d, Requested: %d",
		p.Name, p.StockQuantity, quantity)
}

// increaseStock refuses increments that would push stock past the INT column;
// a concurrent increment that slips past the read is rejected by the store.
func (s *ProductService) increaseStock(ctx context.Context, id int64, quantity int) error {
	if quantity < 0 {
		return domain.InvalidArgumentf("Quantity cannot be negative")
	}
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if int64(p.StockQuantity)+int64(quantity) > domain.MaxQuantity {
		return domain.InvalidArgumentf("Stock quantity cannot exceed %d. Current: %d, Requested: %d",
			domain.MaxQuantity, p.StockQuantity, quantity)
	}
	return s.products.IncrementStock(ctx, id, quantity)
}

func (s *ProductService) checkReferences(ctx context.Context, p domain.Product) error {
	if _, err := s.warehouses.GetWarehouse(ctx, p.WarehouseID); err != nil {
		return err
	}
	if p.SupplierID != nil {
		if _, err := s.suppliers.GetSupplier(ctx, *p.SupplierID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProductService) checkSKUUnique(ctx context.Context, sku string, selfID int64) error {
	existing, err := s.products.GetProductBySKU(ctx, sku)
	if domain.KindOf(err) == domain.KindNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return domain.Conflictf("Product with SKU %s already exists", sku)
	}
	return nil
}
