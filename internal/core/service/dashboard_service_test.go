package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stockroom/internal/core/domain"
)

func TestDashboard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	sup := f.mustSupplier("Acme")
	low := f.mustProduct("A-1", "10", 10, 5, w.ID, &sup.ID)
	f.mustProduct("A-2", "4", 1, 5, w.ID, nil)

	f.orders.now = func() time.Time { return f.now.Add(-time.Hour) }
	order, _ := f.orders.Create(ctx, CreateOrderCommand{
		Type:  domain.OrderTypeSale,
		Items: []ItemInput{{ProductID: low.ID, Quantity: 3}},
	})
	for _, step := range []func(context.Context, int64) (*domain.Order, error){
		f.orders.Process, f.orders.Ship, f.orders.Deliver,
	} {
		if _, err := step(ctx, order.ID); err != nil {
			t.Fatalf("transition failed: %v", err)
		}
	}

	summary, err := f.dashboard.Summary(ctx)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalProducts != 2 || summary.TotalOrders != 1 || summary.LowStockProductsCount != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if !summary.WeeklyRevenue.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected weekly revenue 30, got %s", summary.WeeklyRevenue)
	}
	if !summary.TotalInventoryValue.Equal(decimal.NewFromInt(74)) {
		t.Errorf("expected inventory value 74, got %s", summary.TotalInventoryValue)
	}

	alerts, _ := f.dashboard.Alerts(ctx)
	if len(alerts.ProductAlerts) != 1 || len(alerts.WarehouseAlerts) != 1 || len(alerts.OrderAlerts) != 0 {
		t.Errorf("unexpected alerts %+v", alerts)
	}

	trends, err := f.dashboard.Trends(ctx, DefaultTrendDays)
	if err != nil {
		t.Fatalf("trends failed: %v", err)
	}
	if len(trends) != DefaultTrendDays {
		t.Fatalf("expected %d buckets, got %d", DefaultTrendDays, len(trends))
	}
	today := trends[len(trends)-1]
	if today.Date != f.now.Format(time.DateOnly) || today.Orders != 1 || today.Sales != 1 {
		t.Errorf("unexpected today bucket %+v", today)
	}
	if _, err := f.dashboard.Trends(ctx, MaxTrendDays+1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected InvalidArgument for too many days, got %v", err)
	}

	perf, _ := f.dashboard.Performance(ctx)
	if perf.StockHealthPercentage != 50 || perf.OrderPerformancePercentage != 100 || perf.SupplierReliabilityPercentage != 100 {
		t.Errorf("unexpected performance %+v", perf)
	}
	if perf.OverallHealthScore != 83.33 {
		t.Errorf("expected overall 83.33, got %v", perf.OverallHealthScore)
	}

	stats, _ := f.dashboard.QuickStats(ctx)
	if stats.Categories != 1 || stats.WarehousesWithLowStock != 1 || stats.ActiveSuppliers != 1 {
		t.Errorf("unexpected quick stats %+v", stats)
	}
}

func TestDashboard_Empty(t *testing.T) {
	f := newFixture()
	perf, err := f.dashboard.Performance(context.Background())
	if err != nil {
		t.Fatalf("performance failed: %v", err)
	}
	if perf.OverallHealthScore != 100 {
		t.Errorf("expected 100 on an empty store, got %v", perf.OverallHealthScore)
	}
}
