package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/report"
	"github.com/rl1809/stockroom/internal/metrics"
	"github.com/rl1809/stockroom/internal/port"
)

const recentOrdersLimit = 10

var ErrDuplicateRequest = &domain.Error{Kind: domain.KindConflict, Message: "duplicate request"}

// ItemInput describes one line item; a nil UnitPrice takes the product's
// current price.
type ItemInput struct {
	ProductID int64
	Quantity  int
	UnitPrice *decimal.Decimal
}

type CreateOrderCommand struct {
	Type                 domain.OrderType
	SupplierID           *int64
	ExpectedDeliveryDate *time.Time
	Items                []ItemInput
	IdempotencyKey       string
}

// UpdateOrderCommand edits a pending order. Items, when non-nil, replace
// the current line items.
type UpdateOrderCommand struct {
	SupplierID           *int64
	ExpectedDeliveryDate *time.Time
	Items                []ItemInput
}

type OrderService struct {
	tx        port.Transactor
	orders    port.OrderRepository
	products  port.ProductRepository
	suppliers port.SupplierRepository
	stock     *ProductService
	cache     port.CacheRepository
	events    port.EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderService(
	tx port.Transactor,
	orders port.OrderRepository,
	products port.ProductRepository,
	suppliers port.SupplierRepository,
	stock *ProductService,
	cache port.CacheRepository,
	events port.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		tx:        tx,
		orders:    orders,
		products:  products,
		suppliers: suppliers,
		stock:     stock,
		cache:     cache,
		events:    events,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *OrderService) Create(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if _, err := domain.ParseOrderType(string(cmd.Type)); err != nil {
		return nil, err
	}
	if len(cmd.Items) == 0 {
		return nil, domain.InvalidArgumentf("Order must contain at least one item")
	}

	idempotencyKey := ""
	if cmd.IdempotencyKey != "" {
		idempotencyKey = fmt.Sprintf("idempotency:order:%s", cmd.IdempotencyKey)
		ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	var order *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkSupplier(ctx, cmd.SupplierID); err != nil {
			return err
		}
		now := s.now()
		order = domain.NewOrder(cmd.Type, cmd.SupplierID, now)
		order.ExpectedDeliveryDate = cmd.ExpectedDeliveryDate
		items, err := s.buildItems(ctx, cmd.Items, now)
		if err != nil {
			return err
		}
		for _, item := range items {
			order.AddItem(item, now)
		}
		if err := order.ValidateTotal(); err != nil {
			return err
		}
		return s.orders.CreateOrder(ctx, order)
	})
	if err != nil {
		if idempotencyKey != "" {
			if releaseErr := s.cache.ReleaseIdempotency(ctx, idempotencyKey); releaseErr != nil {
				s.logger.Warn("failed to release idempotency key", zap.String("key", idempotencyKey), zap.Error(releaseErr))
			}
		}
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("type", string(order.Type)),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
	)
	return order, nil
}

func (s *OrderService) Update(ctx context.Context, id int64, cmd UpdateOrderCommand) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if !o.IsPending() {
			return domain.InvalidStatef("Only pending orders can be modified")
		}
		if err := s.checkSupplier(ctx, cmd.SupplierID); err != nil {
			return err
		}
		now := s.now()
		o.SupplierID = cmd.SupplierID
		o.ExpectedDeliveryDate = cmd.ExpectedDeliveryDate
		o.UpdatedAt = now
		if cmd.Items != nil {
			if len(cmd.Items) == 0 {
				return domain.InvalidArgumentf("Order must contain at least one item")
			}
			items, err := s.buildItems(ctx, cmd.Items, now)
			if err != nil {
				return err
			}
			o.ReplaceItems(items, now)
			if err := o.ValidateTotal(); err != nil {
				return err
			}
		}
		order = o
		return s.orders.UpdateOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) AddItem(ctx context.Context, orderID int64, in ItemInput) (*domain.Order, error) {
	return s.editItems(ctx, orderID, func(ctx context.Context, o *domain.Order, now time.Time) error {
		items, err := s.buildItems(ctx, []ItemInput{in}, now)
		if err != nil {
			return err
		}
		o.AddItem(items[0], now)
		return nil
	})
}

func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID int64) (*domain.Order, error) {
	return s.editItems(ctx, orderID, func(_ context.Context, o *domain.Order, now time.Time) error {
		if !o.RemoveItem(itemID, now) {
			return domain.NotFoundf("Order item not found with ID: %d", itemID)
		}
		return nil
	})
}

func (s *OrderService) editItems(ctx context.Context, orderID int64, edit func(ctx context.Context, o *domain.Order, now time.Time) error) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.IsPending() {
			return domain.InvalidStatef("Only pending orders can be modified")
		}
		if err := edit(ctx, o, s.now()); err != nil {
			return err
		}
		if err := o.ValidateTotal(); err != nil {
			return err
		}
		order = o
		return s.orders.UpdateOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.orders.GetOrder(ctx, id); err != nil {
			return err
		}
		return s.orders.DeleteOrder(ctx, id)
	})
}

// Process confirms a pending order. Sale orders take their stock in the same
// transaction, so one short line leaves every product untouched.
func (s *OrderService) Process(ctx context.Context, id int64) (*domain.Order, error) {
	return s.transition(ctx, id, domain.TransitionProcess, func(ctx context.Context, o *domain.Order, now time.Time) error {
		if err := o.Confirm(now); err != nil {
			return err
		}
		if o.Type != domain.OrderTypeSale {
			return nil
		}
		for _, item := range o.Items {
			if err := s.stock.reduceStock(ctx, item.ProductID, item.Quantity); err != nil {
				if domain.KindOf(err) == domain.KindOutOfStock {
					return domain.Errorf(domain.KindOutOfStock, "Cannot process order %s: %s", o.OrderNumber, err.Error())
				}
				return err
			}
		}
		return nil
	})
}

func (s *OrderService) Ship(ctx context.Context, id int64) (*domain.Order, error) {
	return s.transition(ctx, id, domain.TransitionShip, func(_ context.Context, o *domain.Order, now time.Time) error {
		return o.Ship(now)
	})
}

// Deliver completes a shipped order; purchase orders add their quantities
// to stock.
func (s *OrderService) Deliver(ctx context.Context, id int64) (*domain.Order, error) {
	return s.transition(ctx, id, domain.TransitionDeliver, func(ctx context.Context, o *domain.Order, now time.Time) error {
		if err := o.Deliver(now); err != nil {
			return err
		}
		if o.Type != domain.OrderTypePurchase {
			return nil
		}
		for _, item := range o.Items {
			if err := s.stock.increaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *OrderService) Cancel(ctx context.Context, id int64) (*domain.Order, error) {
	return s.transition(ctx, id, domain.TransitionCancel, func(ctx context.Context, o *domain.Order, now time.Time) error {
		restore, err := o.Cancel(now)
		if err != nil {
			return err
		}
		if !restore {
			return nil
		}
		for _, item := range o.Items {
			if err := s.stock.increaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *OrderService) transition(
	ctx context.Context,
	id int64,
	name domain.OrderTransition,
	apply func(ctx context.Context, o *domain.Order, now time.Time) error,
) (*domain.Order, error) {
	var order *domain.Order
	now := s.now()
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		from := o.Status
		if err := apply(ctx, o, now); err != nil {
			return err
		}
		ok, err := s.orders.UpdateOrderStatus(ctx, o, from)
		if err != nil {
			return err
		}
		if !ok {
			return domain.InvalidStatef("Order %s was modified concurrently", o.OrderNumber)
		}
		order = o
		return nil
	})
	if err != nil {
		s.logger.Debug("order transition rejected",
			zap.Int64("order_id", id),
			zap.String("transition", string(name)),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.ObserveTransition(name, order.Type)
	s.logger.Info("order transitioned",
		zap.String("order_number", order.OrderNumber),
		zap.String("transition", string(name)),
		zap.String("status", string(order.Status)),
	)
	if err := s.events.PublishOrderEvent(ctx, domain.NewOrderEvent(order, name, now)); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

func (s *OrderService) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.orders.GetOrderByNumber(ctx, number)
}

func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx)
}

// ByStatus treats DELAYED as the derived display status.
func (s *OrderService) ByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	if status == domain.OrderStatusDelayed {
		return report.DelayedOrders(orders, s.now()), nil
	}
	out := make([]domain.Order, 0)
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *OrderService) ByType(ctx context.Context, t domain.OrderType) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0)
	for _, o := range orders {
		if o.Type == t {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *OrderService) Pending(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return report.PendingOrders(orders), nil
}

func (s *OrderService) Delayed(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return report.DelayedOrders(orders, s.now()), nil
}

func (s *OrderService) Recent(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return report.RecentOrders(orders, recentOrdersLimit), nil
}

// Search matches the order number or the supplier name.
func (s *OrderService) Search(ctx context.Context, term string) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.suppliers.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(suppliers))
	for _, sup := range suppliers {
		names[sup.ID] = strings.ToLower(sup.Name)
	}
	term = strings.ToLower(term)
	out := make([]domain.Order, 0)
	for _, o := range orders {
		if strings.Contains(strings.ToLower(o.OrderNumber), term) {
			out = append(out, o)
			continue
		}
		if o.SupplierID != nil && strings.Contains(names[*o.SupplierID], term) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *OrderService) Revenue(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	if end.Before(start) {
		return decimal.Zero, domain.InvalidArgumentf("End date must not be before start date")
	}
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return report.Revenue(orders, start, end), nil
}

func (s *OrderService) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return report.CountByStatus(orders), nil
}

func (s *OrderService) CountByType(ctx context.Context) (map[domain.OrderType]int, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return report.CountByType(orders), nil
}

func (s *OrderService) GroupedBySupplier(ctx context.Context) (map[string][]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.suppliers.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	return report.GroupOrdersBySupplier(orders, suppliers), nil
}

func (s *OrderService) Alerts(ctx context.Context) ([]string, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return report.OrderAlerts(orders, s.now()), nil
}

func (s *OrderService) checkSupplier(ctx context.Context, supplierID *int64) error {
	if supplierID == nil {
		return nil
	}
	_, err := s.suppliers.GetSupplier(ctx, *supplierID)
	return err
}

func (s *OrderService) buildItems(ctx context.Context, inputs []ItemInput, now time.Time) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		p, err := s.products.GetProduct(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		price := p.Price
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}
		item := domain.OrderItem{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: price,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := item.Validate(); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
