package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/report"
	"github.com/rl1809/stockroom/internal/port"
)

type WarehouseService struct {
	tx         port.Transactor
	warehouses port.WarehouseRepository
	products   port.ProductRepository
	orders     port.OrderRepository
	logger     *zap.Logger
	now        func() time.Time
}

func NewWarehouseService(
	tx port.Transactor,
	warehouses port.WarehouseRepository,
	products port.ProductRepository,
	orders port.OrderRepository,
	logger *zap.Logger,
) *WarehouseService {
	return &WarehouseService{
		tx:         tx,
		warehouses: warehouses,
		products:   products,
		orders:     orders,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *WarehouseService) Create(ctx context.Context, w domain.Warehouse) (*domain.Warehouse, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkNameUnique(ctx, w.Name, 0); err != nil {
			return err
		}
		now := s.now()
		w.CreatedAt, w.UpdatedAt = now, now
		return s.warehouses.CreateWarehouse(ctx, &w)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("warehouse created", zap.Int64("warehouse_id", w.ID), zap.String("name", w.Name))
	return &w, nil
}

func (s *WarehouseService) Update(ctx context.Context, id int64, w domain.Warehouse) (*domain.Warehouse, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.warehouses.GetWarehouse(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkNameUnique(ctx, w.Name, id); err != nil {
			return err
		}
		w.ID = id
		w.CreatedAt = existing.CreatedAt
		w.UpdatedAt = s.now()
		return s.warehouses.UpdateWarehouse(ctx, &w)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Delete cascades to the products stored in the warehouse unless one of
// them is referenced by an order item.
func (s *WarehouseService) Delete(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.warehouses.GetWarehouse(ctx, id); err != nil {
			return err
		}
		products, err := s.products.ListProductsByWarehouse(ctx, id)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}
		if len(ids) > 0 {
			refs, err := s.orders.CountItemsForProducts(ctx, ids, nil)
			if err != nil {
				return err
			}
			if refs > 0 {
				return domain.Conflictf("Cannot delete warehouse: its products are linked to existing orders")
			}
		}
		for _, productID := range ids {
			if err := s.products.DeleteProduct(ctx, productID); err != nil {
				return err
			}
		}
		return s.warehouses.DeleteWarehouse(ctx, id)
	})
}

func (s *WarehouseService) Get(ctx context.Context, id int64) (*domain.Warehouse, error) {
	return s.warehouses.GetWarehouse(ctx, id)
}

func (s *WarehouseService) GetByName(ctx context.Context, name string) (*domain.Warehouse, error) {
	return s.warehouses.GetWarehouseByName(ctx, name)
}

func (s *WarehouseService) List(ctx context.Context) ([]domain.Warehouse, error) {
	return s.warehouses.ListWarehouses(ctx)
}

func (s *WarehouseService) Search(ctx context.Context, term string) ([]domain.Warehouse, error) {
	warehouses, err := s.warehouses.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Warehouse, 0)
	for _, w := range warehouses {
		if w.Matches(term) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *WarehouseService) SearchByLocation(ctx context.Context, location string) ([]domain.Warehouse, error) {
	warehouses, err := s.warehouses.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	location = strings.ToLower(location)
	out := make([]domain.Warehouse, 0)
	for _, w := range warehouses {
		if strings.Contains(strings.ToLower(w.Location), location) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *WarehouseService) Names(ctx context.Context) ([]string, error) {
	warehouses, err := s.warehouses.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(warehouses))
	for _, w := range warehouses {
		names = append(names, w.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *WarehouseService) WithLowStock(ctx context.Context) ([]domain.Warehouse, error) {
	warehouses, products, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return report.WarehousesWithLowStock(warehouses, products), nil
}

func (s *WarehouseService) Utilization(ctx context.Context, id int64) (*report.Utilization, error) {
	w, err := s.warehouses.GetWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListProductsByWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	u := report.WarehouseUtilization(*w, products)
	return &u, nil
}

func (s *WarehouseService) InventoryValue(ctx context.Context) (map[string]decimal.Decimal, error) {
	warehouses, products, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return report.InventoryValueByWarehouse(warehouses, products), nil
}

func (s *WarehouseService) ProductCount(ctx context.Context) (map[string]int, error) {
	warehouses, products, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return report.ProductCountByWarehouse(warehouses, products), nil
}

func (s *WarehouseService) GroupedByLocation(ctx context.Context) (map[string][]domain.Warehouse, error) {
	warehouses, err := s.warehouses.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	return report.GroupWarehousesByCity(warehouses), nil
}

func (s *WarehouseService) TotalProducts(ctx context.Context) (int, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return 0, err
	}
	return summary.TotalProducts, nil
}

func (s *WarehouseService) Summary(ctx context.Context) (*report.WarehouseSummary, error) {
	warehouses, products, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	summary := report.SummarizeWarehouses(warehouses, products)
	return &summary, nil
}

func (s *WarehouseService) Alerts(ctx context.Context) ([]string, error) {
	warehouses, products, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return report.WarehouseAlerts(warehouses, products), nil
}

func (s *WarehouseService) snapshot(ctx context.Context) ([]domain.Warehouse, []domain.Product, error) {
	warehouses, err := s.warehouses.ListWarehouses(ctx)
	if err != nil {
		return nil, nil, err
	}
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return warehouses, products, nil
}

func (s *WarehouseService) checkNameUnique(ctx context.Context, name string, selfID int64) error {
	existing, err := s.warehouses.GetWarehouseByName(ctx, name)
	if domain.KindOf(err) == domain.KindNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return domain.Conflictf("Warehouse with name %s already exists", name)
	}
	return nil
}
