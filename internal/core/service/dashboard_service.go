package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/report"
	"github.com/rl1809/stockroom/internal/port"
)

const (
	DefaultTrendDays = 7
	MaxTrendDays     = 90

	dashboardTopExpensive = 5
)

type Summary struct {
	TotalProducts         int             `json:"totalProducts"`
	TotalOrders           int             `json:"totalOrders"`
	TotalSuppliers        int             `json:"totalSuppliers"`
	TotalWarehouses       int             `json:"totalWarehouses"`
	LowStockProductsCount int             `json:"lowStockProductsCount"`
	PendingOrdersCount    int             `json:"pendingOrdersCount"`
	DelayedOrdersCount    int             `json:"delayedOrdersCount"`
	ActiveSuppliers       int             `json:"activeSuppliers"`
	TotalInventoryValue   decimal.Decimal `json:"totalInventoryValue"`
	WeeklyRevenue         decimal.Decimal `json:"weeklyRevenue"`
}

type Alerts struct {
	ProductAlerts   []string `json:"productAlerts"`
	OrderAlerts     []string `json:"orderAlerts"`
	SupplierAlerts  []string `json:"supplierAlerts"`
	WarehouseAlerts []string `json:"warehouseAlerts"`
}

type Analytics struct {
	InventoryValueByCategory  map[string]decimal.Decimal    `json:"inventoryValueByCategory"`
	ProductCountByCategory    map[string]int                `json:"productCountByCategory"`
	TopExpensiveProducts      []domain.Product              `json:"topExpensiveProducts"`
	OrderCountByStatus        map[domain.OrderStatus]int    `json:"orderCountByStatus"`
	OrderCountByType          map[domain.OrderType]int      `json:"orderCountByType"`
	RecentOrders              []domain.Order                `json:"recentOrders"`
	SupplierCountByStatus     map[domain.SupplierStatus]int `json:"supplierCountByStatus"`
	ReliableSuppliers         []domain.Supplier             `json:"reliableSuppliers"`
	WarehouseSummary          report.WarehouseSummary       `json:"warehouseSummary"`
	InventoryValueByWarehouse map[string]decimal.Decimal    `json:"inventoryValueByWarehouse"`
}

type QuickStats struct {
	TotalInventoryValue    decimal.Decimal `json:"totalInventoryValue"`
	LowStockProducts       int             `json:"lowStockProducts"`
	TotalProducts          int             `json:"totalProducts"`
	Categories             int             `json:"categories"`
	PendingOrders          int             `json:"pendingOrders"`
	DelayedOrders          int             `json:"delayedOrders"`
	TotalOrders            int             `json:"totalOrders"`
	ActiveSuppliers        int             `json:"activeSuppliers"`
	TotalSuppliers         int             `json:"totalSuppliers"`
	TotalWarehouses        int             `json:"totalWarehouses"`
	WarehousesWithLowStock int             `json:"warehousesWithLowStock"`
}

// DashboardService derives every figure from a fresh read of the store.
type DashboardService struct {
	products   port.ProductRepository
	orders     port.OrderRepository
	suppliers  port.SupplierRepository
	warehouses port.WarehouseRepository
	now        func() time.Time
}

func NewDashboardService(
	products port.ProductRepository,
	orders port.OrderRepository,
	suppliers port.SupplierRepository,
	warehouses port.WarehouseRepository,
) *DashboardService {
	return &DashboardService{
		products:   products,
		orders:     orders,
		suppliers:  suppliers,
		warehouses: warehouses,
		now:        time.Now,
	}
}

type dashboardSnapshot struct {
	products   []domain.Product
	orders     []domain.Order
	suppliers  []domain.Supplier
	warehouses []domain.Warehouse
}

func (s *DashboardService) load(ctx context.Context) (*dashboardSnapshot, error) {
	var (
		snap dashboardSnapshot
		err  error
	)
	if snap.products, err = s.products.ListProducts(ctx); err != nil {
		return nil, err
	}
	if snap.orders, err = s.orders.ListOrders(ctx); err != nil {
		return nil, err
	}
	if snap.suppliers, err = s.suppliers.ListSuppliers(ctx); err != nil {
		return nil, err
	}
	if snap.warehouses, err = s.warehouses.ListWarehouses(ctx); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *DashboardService) Summary(ctx context.Context) (*Summary, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &Summary{
		TotalProducts:         len(snap.products),
		TotalOrders:           len(snap.orders),
		TotalSuppliers:        len(snap.suppliers),
		TotalWarehouses:       len(snap.warehouses),
		LowStockProductsCount: len(report.LowStockProducts(snap.products)),
		PendingOrdersCount:    len(report.PendingOrders(snap.orders)),
		DelayedOrdersCount:    len(report.DelayedOrders(snap.orders, now)),
		ActiveSuppliers:       len(report.ActiveSuppliers(snap.suppliers)),
		TotalInventoryValue:   report.TotalInventoryValue(snap.products),
		WeeklyRevenue:         report.Revenue(snap.orders, now.AddDate(0, 0, -7), now),
	}, nil
}

func (s *DashboardService) Alerts(ctx context.Context) (*Alerts, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &Alerts{
		ProductAlerts:   report.LowStockAlerts(snap.products),
		OrderAlerts:     report.OrderAlerts(snap.orders, s.now()),
		SupplierAlerts:  report.SupplierAlerts(snap.suppliers),
		WarehouseAlerts: report.WarehouseAlerts(snap.warehouses, snap.products),
	}, nil
}

func (s *DashboardService) Analytics(ctx context.Context) (*Analytics, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &Analytics{
		InventoryValueByCategory:  report.InventoryValueByCategory(snap.products),
		ProductCountByCategory:    report.CountByCategory(snap.products),
		TopExpensiveProducts:      report.TopExpensive(snap.products, dashboardTopExpensive),
		OrderCountByStatus:        report.CountByStatus(snap.orders),
		OrderCountByType:          report.CountByType(snap.orders),
		RecentOrders:              report.RecentOrders(snap.orders, recentOrdersLimit),
		SupplierCountByStatus:     report.CountSuppliersByStatus(snap.suppliers),
		ReliableSuppliers:         report.ReliableSuppliers(snap.suppliers, snap.products),
		WarehouseSummary:          report.SummarizeWarehouses(snap.warehouses, snap.products),
		InventoryValueByWarehouse: report.InventoryValueByWarehouse(snap.warehouses, snap.products),
	}, nil
}

// Trends returns one bucket per day for the last days days.
func (s *DashboardService) Trends(ctx context.Context, days int) ([]report.DailyTrend, error) {
	if days < 1 || days > MaxTrendDays {
		return nil, domain.InvalidArgumentf("Days must be between 1 and %d", MaxTrendDays)
	}
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return report.DailyTrends(orders, s.now(), days), nil
}

func (s *DashboardService) QuickStats(ctx context.Context) (*QuickStats, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &QuickStats{
		TotalInventoryValue:    report.TotalInventoryValue(snap.products),
		LowStockProducts:       len(report.LowStockProducts(snap.products)),
		TotalProducts:          len(snap.products),
		Categories:             len(report.Categories(snap.products)),
		PendingOrders:          len(report.PendingOrders(snap.orders)),
		DelayedOrders:          len(report.DelayedOrders(snap.orders, s.now())),
		TotalOrders:            len(snap.orders),
		ActiveSuppliers:        len(report.ActiveSuppliers(snap.suppliers)),
		TotalSuppliers:         len(snap.suppliers),
		TotalWarehouses:        len(snap.warehouses),
		WarehousesWithLowStock: len(report.WarehousesWithLowStock(snap.warehouses, snap.products)),
	}, nil
}

func (s *DashboardService) Performance(ctx context.Context) (*report.Performance, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	p := report.ComputePerformance(snap.products, snap.orders, snap.suppliers, s.now())
	return &p, nil
}
