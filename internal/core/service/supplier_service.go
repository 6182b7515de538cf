package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/report"
	"github.com/rl1809/stockroom/internal/port"
)

type SupplierService struct {
	tx        port.Transactor
	suppliers port.SupplierRepository
	products  port.ProductRepository
	orders    port.OrderRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewSupplierService(
	tx port.Transactor,
	suppliers port.SupplierRepository,
	products port.ProductRepository,
	orders port.OrderRepository,
	logger *zap.Logger,
) *SupplierService {
	return &SupplierService{
		tx:        tx,
		suppliers: suppliers,
		products:  products,
		orders:    orders,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *SupplierService) Create(ctx context.Context, sup domain.Supplier) (*domain.Supplier, error) {
	if sup.Status == "" {
		sup.Status = domain.SupplierStatusActive
	}
	if err := sup.Validate(); err != nil {
		return nil, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkUnique(ctx, sup, 0); err != nil {
			return err
		}
		now := s.now()
		sup.CreatedAt, sup.UpdatedAt = now, now
		return s.suppliers.CreateSupplier(ctx, &sup)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("supplier created", zap.Int64("supplier_id", sup.ID), zap.String("name", sup.Name))
	return &sup, nil
}

func (s *SupplierService) Update(ctx context.Context, id int64, sup domain.Supplier) (*domain.Supplier, error) {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.suppliers.GetSupplier(ctx, id)
		if err != nil {
			return err
		}
		if sup.Status == "" {
			sup.Status = existing.Status
		}
		if err := sup.Validate(); err != nil {
			return err
		}
		if err := s.checkUnique(ctx, sup, id); err != nil {
			return err
		}
		sup.ID = id
		sup.CreatedAt = existing.CreatedAt
		sup.UpdatedAt = s.now()
		return s.suppliers.UpdateSupplier(ctx, &sup)
	})
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

// Delete cascades to the supplier's orders and products. A product that is
// still referenced by an order of another supplier blocks the whole delete.
func (s *SupplierService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.suppliers.GetSupplier(ctx, id); err != nil {
			return err
		}
		orders, err := s.orders.ListOrdersBySupplier(ctx, id)
		if err != nil {
			return err
		}
		products, err := s.products.ListProductsBySupplier(ctx, id)
		if err != nil {
			return err
		}
		orderIDs := make([]int64, 0, len(orders))
		for _, o := range orders {
			orderIDs = append(orderIDs, o.ID)
		}
		productIDs := make([]int64, 0, len(products))
		for _, p := range products {
			productIDs = append(productIDs, p.ID)
		}
		if len(productIDs) > 0 {
			refs, err := s.orders.CountItemsForProducts(ctx, productIDs, orderIDs)
			if err != nil {
				return err
			}
			if refs > 0 {
				return domain.Conflictf("Cannot delete supplier: its products are linked to orders of other suppliers")
			}
		}
		for _, orderID := range orderIDs {
			if err := s.orders.DeleteOrder(ctx, orderID); err != nil {
				return err
			}
		}
		for _, productID := range productIDs {
			if err := s.products.DeleteProduct(ctx, productID); err != nil {
				return err
			}
		}
		return s.suppliers.DeleteSupplier(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("supplier deleted", zap.Int64("supplier_id", id))
	return nil
}

func (s *SupplierService) Get(ctx context.Context, id int64) (*domain.Supplier, error) {
	return s.suppliers.GetSupplier(ctx, id)
}

func (s *SupplierService) GetByName(ctx context.Context, name string) (*domain.Supplier, error) {
	return s.suppliers.GetSupplierByName(ctx, name)
}

func (s *SupplierService) List(ctx context.Context) ([]domain.Supplier, error) {
	return s.suppliers.ListSuppliers(ctx)
}

func (s *SupplierService) Active(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := s.suppliers.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	return report.ActiveSuppliers(suppliers), nil
}

func (s *SupplierService) ByStatus(ctx context.Context, status domain.SupplierStatus) ([]domain.Supplier, error) {
	suppliers, err := s.suppliers.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Supplier, 0)
	for _, sup := range suppliers {
		if sup.Status == status {
			out = append(out, sup)
		}
	}
	return out, nil
}

func (s *SupplierService) Search(ctx context.Context, term string) ([]domain.Supplier, error) {
	suppliers, err := s.suppliers.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Supplier, 0)
	for _, sup := range suppliers {
		if sup.Matches(term) {
			out = append(out, sup)
		}
	}
	return out, nil
}

func (s *SupplierService) Activate(ctx context.Context, id int64) (*domain.Supplier, error) {
	return s.setStatus(ctx, id, domain.SupplierStatusActive)
}

func (s *SupplierService) Deactivate(ctx context.Context, id int64) (*domain.Supplier, error) {
	return s.setStatus(ctx, id, domain.SupplierStatusInactive)
}

func (s *SupplierService) Suspend(ctx context.Context, id int64) (*domain.Supplier, error) {
	return s.setStatus(ctx, id, domain.SupplierStatusSuspended)
}

func (s *SupplierService) setStatus(ctx context.Context, id int64, status domain.SupplierStatus) (*domain.Supplier, error) {
	var out *domain.Supplier
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sup, err := s.suppliers.GetSupplier(ctx, id)
		if err != nil {
			return err
		}
		sup.SetStatus(status, s.now())
		out = sup
		return s.suppliers.UpdateSupplier(ctx, sup)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SupplierService) CountByStatus(ctx context.Context) (map[domain.SupplierStatus]int, error) {
	suppliers, err := s.suppliers.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	return report.CountSuppliersByStatus(suppliers), nil
}

func (s *SupplierService) GroupedByLocation(ctx context.Context) (map[string][]domain.Supplier, error) {
	suppliers, err := s.suppliers.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	return report.GroupSuppliersByCity(suppliers), nil
}

func (s *SupplierService) Names(ctx context.Context) ([]string, error) {
	suppliers, err := s.suppliers.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(suppliers))
	for _, sup := range suppliers {
		names = append(names, sup.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *SupplierService) Reliable(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := s.suppliers.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return report.ReliableSuppliers(suppliers, products), nil
}

func (s *SupplierService) Alerts(ctx context.Context) ([]string, error) {
	suppliers, err := s.suppliers.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	return report.SupplierAlerts(suppliers), nil
}

// checkUnique compares names and emails case-insensitively, skipping selfID.
func (s *SupplierService) checkUnique(ctx context.Context, sup domain.Supplier, selfID int64) error {
	suppliers, err := s.suppliers.ListSuppliers(ctx)
	if err != nil {
		return err
	}
	for _, other := range suppliers {
		if other.ID == selfID {
			continue
		}
		if strings.EqualFold(other.Name, sup.Name) {
			return domain.Conflictf("Supplier with name %s already exists", sup.Name)
		}
		if sup.Email != "" && strings.EqualFold(other.Email, sup.Email) {
			return domain.Conflictf("Supplier with email %s already exists", sup.Email)
		}
	}
	return nil
}
