package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stockroom/internal/core/domain"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreate_TotalAmount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	a := f.mustProduct("A-1", "10", 50, 5, w.ID, nil)
	b := f.mustProduct("B-1", "5", 50, 5, w.ID, nil)

	order, err := f.orders.Create(ctx, CreateOrderCommand{
		Type: domain.OrderTypeSale,
		Items: []ItemInput{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(35)) {
		t.Errorf("expected total 35, got %s", order.TotalAmount)
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("expected PENDING, got %s", order.Status)
	}
	if !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Errorf("unexpected order number %q", order.OrderNumber)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	p := f.mustProduct("A-1", "10", 50, 5, w.ID, nil)

	tests := []struct {
		name string
		cmd  CreateOrderCommand
		kind domain.Kind
	}{
		{"no items", CreateOrderCommand{Type: domain.OrderTypeSale}, domain.KindInvalidArgument},
		{"bad type", CreateOrderCommand{Type: "GIFT", Items: []ItemInput{{ProductID: p.ID, Quantity: 1}}}, domain.KindInvalidArgument},
		{"zero quantity", CreateOrderCommand{Type: domain.OrderTypeSale, Items: []ItemInput{{ProductID: p.ID, Quantity: 0}}}, domain.KindInvalidArgument},
		{"unknown product", CreateOrderCommand{Type: domain.OrderTypeSale, Items: []ItemInput{{ProductID: 999, Quantity: 1}}}, domain.KindNotFound},
		{"unknown supplier", CreateOrderCommand{Type: domain.OrderTypePurchase, SupplierID: ptr(int64(999)), Items: []ItemInput{{ProductID: p.ID, Quantity: 1}}}, domain.KindNotFound},
		{"sub-cent unit price", CreateOrderCommand{Type: domain.OrderTypeSale, Items: []ItemInput{{ProductID: p.ID, Quantity: 3, UnitPrice: dec("0.333")}}}, domain.KindInvalidArgument},
		{"quantity beyond int column", CreateOrderCommand{Type: domain.OrderTypeSale, Items: []ItemInput{{ProductID: p.ID, Quantity: domain.MaxQuantity + 1}}}, domain.KindInvalidArgument},
		{"total beyond money column", CreateOrderCommand{Type: domain.OrderTypePurchase, Items: []ItemInput{{ProductID: p.ID, Quantity: 2, UnitPrice: dec("999999999999.99")}}}, domain.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.Create(ctx, tt.cmd)
			if got := domain.KindOf(err); got != tt.kind {
				t.Errorf("expected %s, got %s (%v)", tt.kind, got, err)
			}
		})
	}
}

func TestCreate_DuplicateRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	p := f.mustProduct("A-1", "10", 50, 5, w.ID, nil)
	cmd := CreateOrderCommand{
		Type:           domain.OrderTypeSale,
		Items:          []ItemInput{{ProductID: p.ID, Quantity: 1}},
		IdempotencyKey: "req-1",
	}

	if _, err := f.orders.Create(ctx, cmd); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := f.orders.Create(ctx, cmd)
	if !errors.Is(err, ErrDuplicateRequest) {
		t.Errorf("expected ErrDuplicateRequest, got: %v", err)
	}

	orders, _ := f.orders.List(ctx)
	if len(orders) != 1 {
		t.Errorf("expected 1 order, got %d", len(orders))
	}
}

func TestCreate_ReleasesKeyOnFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	p := f.mustProduct("A-1", "10", 50, 5, w.ID, nil)

	bad := CreateOrderCommand{
		Type:           domain.OrderTypeSale,
		Items:          []ItemInput{{ProductID: 999, Quantity: 1}},
		IdempotencyKey: "req-2",
	}
	if _, err := f.orders.Create(ctx, bad); err == nil {
		t.Fatal("expected failure for unknown product")
	}

	bad.Items = []ItemInput{{ProductID: p.ID, Quantity: 1}}
	if _, err := f.orders.Create(ctx, bad); err != nil {
		t.Errorf("retry with the same key should succeed, got: %v", err)
	}
}

func TestItemMutations_RecomputeTotal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	a := f.mustProduct("A-1", "10", 50, 5, w.ID, nil)
	b := f.mustProduct("B-1", "5", 50, 5, w.ID, nil)

	order, err := f.orders.Create(ctx, CreateOrderCommand{
		Type:  domain.OrderTypePurchase,
		Items: []ItemInput{{ProductID: a.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	order, err = f.orders.AddItem(ctx, order.ID, ItemInput{ProductID: b.ID, Quantity: 3, UnitPrice: dec("4.50")})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if want := decimal.RequireFromString("33.50"); !order.TotalAmount.Equal(want) {
		t.Errorf("expected total %s, got %s", want, order.TotalAmount)
	}

	order, err = f.orders.RemoveItem(ctx, order.ID, order.Items[0].ID)
	if err != nil {
		t.Fatalf("remove item failed: %v", err)
	}
	if want := decimal.RequireFromString("13.50"); !order.TotalAmount.Equal(want) {
		t.Errorf("expected total %s, got %s", want, order.TotalAmount)
	}

	stored, _ := f.orders.Get(ctx, order.ID)
	if !stored.TotalAmount.Equal(order.TotalAmount) || len(stored.Items) != 1 {
		t.Errorf("stored order out of sync: total %s, %d items", stored.TotalAmount, len(stored.Items))
	}

	if _, err := f.orders.RemoveItem(ctx, order.ID, 12345); domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("expected NotFound for unknown item, got: %v", err)
	}
}

func TestUpdate_OnlyPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	p := f.mustProduct("A-1", "10", 50, 5, w.ID, nil)
	order, _ := f.orders.Create(ctx, CreateOrderCommand{
		Type:  domain.OrderTypePurchase,
		Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})

	updated, err := f.orders.Update(ctx, order.ID, UpdateOrderCommand{
		Items: []ItemInput{{ProductID: p.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.TotalAmount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected total 40, got %s", updated.TotalAmount)
	}

	if _, err := f.orders.Process(ctx, order.ID); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	_, err = f.orders.Update(ctx, order.ID, UpdateOrderCommand{})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected InvalidState, got: %v", err)
	}
	_, err = f.orders.AddItem(ctx, order.ID, ItemInput{ProductID: p.ID, Quantity: 1})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected InvalidState, got: %v", err)
	}
}

func TestProcess_SaleReducesAndCancelRestores(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	a := f.mustProduct("A-1", "10", 20, 5, w.ID, nil)
	b := f.mustProduct("B-1", "5", 10, 5, w.ID, nil)

	order, _ := f.orders.Create(ctx, CreateOrderCommand{
		Type: domain.OrderTypeSale,
		Items: []ItemInput{
			{ProductID: a.ID, Quantity: 4},
			{ProductID: b.ID, Quantity: 3},
		},
	})

	confirmed, err := f.orders.Process(ctx, order.ID)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if confirmed.Status != domain.OrderStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", confirmed.Status)
	}
	if got := f.stockOf(a.ID); got != 16 {
		t.Errorf("expected stock 16 for A, got %d", got)
	}
	if got := f.stockOf(b.ID); got != 7 {
		t.Errorf("expected stock 7 for B, got %d", got)
	}

	if _, err := f.orders.Cancel(ctx, order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := f.stockOf(a.ID); got != 20 {
		t.Errorf("expected stock restored to 20 for A, got %d", got)
	}
	if got := f.stockOf(b.ID); got != 10 {
		t.Errorf("expected stock restored to 10 for B, got %d", got)
	}

	_, err = f.orders.Cancel(ctx, order.ID)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second cancel should fail with InvalidState, got: %v", err)
	}
	if got := f.stockOf(a.ID); got != 20 {
		t.Errorf("second cancel must not restock, got %d", got)
	}
}

func TestProcess_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	a := f.mustProduct("A-1", "10", 20, 5, w.ID, nil)
	b := f.mustProduct("B-1", "5", 2, 5, w.ID, nil)

	order, _ := f.orders.Create(ctx, CreateOrderCommand{
		Type: domain.OrderTypeSale,
		Items: []ItemInput{
			{ProductID: a.ID, Quantity: 4},
			{ProductID: b.ID, Quantity: 3},
		},
	})

	_, err := f.orders.Process(ctx, order.ID)
	if !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected OutOfStock, got: %v", err)
	}
	if !strings.Contains(err.Error(), order.OrderNumber) || !strings.Contains(err.Error(), "Available: 2, Requested: 3") {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if got := f.stockOf(a.ID); got != 20 {
		t.Errorf("earlier reduction must be rolled back, stock is %d", got)
	}
	stored, _ := f.orders.Get(ctx, order.ID)
	if stored.Status != domain.OrderStatusPending {
		t.Errorf("expected order to stay PENDING, got %s", stored.Status)
	}
	if len(f.events.events) != 0 {
		t.Errorf("no event expected for a failed transition, got %d", len(f.events.events))
	}
}

func TestLifecycle_PurchaseDeliveryAddsStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	sup := f.mustSupplier("Acme")
	p := f.mustProduct("A-1", "10", 5, 5, w.ID, &sup.ID)

	order, _ := f.orders.Create(ctx, CreateOrderCommand{
		Type:       domain.OrderTypePurchase,
		SupplierID: &sup.ID,
		Items:      []ItemInput{{ProductID: p.ID, Quantity: 7}},
	})

	if _, err := f.orders.Process(ctx, order.ID); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if got := f.stockOf(p.ID); got != 5 {
		t.Errorf("purchase confirmation must not touch stock, got %d", got)
	}
	if _, err := f.orders.Ship(ctx, order.ID); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	delivered, err := f.orders.Deliver(ctx, order.ID)
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if got := f.stockOf(p.ID); got != 12 {
		t.Errorf("expected stock 12 after delivery, got %d", got)
	}
	if delivered.ActualDeliveryDate == nil || !delivered.ActualDeliveryDate.Equal(f.now) {
		t.Errorf("expected actual delivery date %v, got %v", f.now, delivered.ActualDeliveryDate)
	}

	_, err = f.orders.Cancel(ctx, order.ID)
	if err == nil || err.Error() != "Cannot cancel delivered order" {
		t.Errorf("expected cancel of delivered order to fail, got: %v", err)
	}

	if len(f.events.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(f.events.events))
	}
	last := f.events.events[2]
	if last.Transition != domain.TransitionDeliver || last.Status != domain.OrderStatusDelivered {
		t.Errorf("unexpected last event %+v", last)
	}
}

func TestTransitions_Illegal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	p := f.mustProduct("A-1", "10", 50, 5, w.ID, nil)
	order, _ := f.orders.Create(ctx, CreateOrderCommand{
		Type:  domain.OrderTypeTransfer,
		Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})

	if _, err := f.orders.Ship(ctx, order.ID); err == nil || err.Error() != "Order must be confirmed before shipping" {
		t.Errorf("ship from PENDING: got %v", err)
	}
	if _, err := f.orders.Deliver(ctx, order.ID); err == nil || err.Error() != "Order must be shipped before delivery" {
		t.Errorf("deliver from PENDING: got %v", err)
	}
	if _, err := f.orders.Process(ctx, order.ID); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if _, err := f.orders.Process(ctx, order.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second process: expected InvalidState, got %v", err)
	}
	if _, err := f.orders.Deliver(ctx, order.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("deliver from CONFIRMED: expected InvalidState, got %v", err)
	}
	if _, err := f.orders.Ship(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown order: expected NotFound, got %v", err)
	}
}

func TestTransition_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	p := f.mustProduct("A-1", "10", 50, 5, w.ID, nil)
	order, _ := f.orders.Create(ctx, CreateOrderCommand{
		Type:  domain.OrderTypeSale,
		Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})

	f.events.err = errPublishDown
	if _, err := f.orders.Process(ctx, order.ID); err != nil {
		t.Errorf("publish failure must not fail the transition, got: %v", err)
	}
	stored, _ := f.orders.Get(ctx, order.ID)
	if stored.Status != domain.OrderStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", stored.Status)
	}
}

func TestProcess_ConcurrentSalesNeverOversell(t *testing.T) {
	initialStock := 20
	totalOrders := 50

	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	p := f.mustProduct("A-1", "10", initialStock, 0, w.ID, nil)

	ids := make([]int64, totalOrders)
	for i := range ids {
		o, err := f.orders.Create(ctx, CreateOrderCommand{
			Type:  domain.OrderTypeSale,
			Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		ids[i] = o.ID
	}

	var successCount atomic.Int32
	var failCount atomic.Int32
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := f.orders.Process(ctx, id); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(id)
	}
	wg.Wait()

	if int(successCount.Load()) != initialStock {
		t.Errorf("expected %d successes, got %d", initialStock, successCount.Load())
	}
	if int(failCount.Load()) != totalOrders-initialStock {
		t.Errorf("expected %d failures, got %d", totalOrders-initialStock, failCount.Load())
	}
	if got := f.stockOf(p.ID); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
}

func TestQueries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	sup := f.mustSupplier("Globex")
	p := f.mustProduct("A-1", "10", 50, 5, w.ID, nil)

	past := f.now.Add(-48 * time.Hour)
	late, _ := f.orders.Create(ctx, CreateOrderCommand{
		Type:                 domain.OrderTypePurchase,
		SupplierID:           &sup.ID,
		ExpectedDeliveryDate: &past,
		Items:                []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	_, _ = f.orders.Create(ctx, CreateOrderCommand{
		Type:  domain.OrderTypeSale,
		Items: []ItemInput{{ProductID: p.ID, Quantity: 2}},
	})

	delayed, err := f.orders.ByStatus(ctx, domain.OrderStatusDelayed)
	if err != nil {
		t.Fatalf("by status failed: %v", err)
	}
	if len(delayed) != 1 || delayed[0].ID != late.ID {
		t.Errorf("expected only the late order to be delayed, got %d", len(delayed))
	}

	pending, _ := f.orders.ByStatus(ctx, domain.OrderStatusPending)
	if len(pending) != 2 {
		t.Errorf("expected 2 pending orders, got %d", len(pending))
	}

	sales, _ := f.orders.ByType(ctx, domain.OrderTypeSale)
	if len(sales) != 1 {
		t.Errorf("expected 1 sale order, got %d", len(sales))
	}

	found, _ := f.orders.Search(ctx, "globex")
	if len(found) != 1 || found[0].ID != late.ID {
		t.Errorf("expected supplier-name search to find the late order, got %d", len(found))
	}

	alerts, _ := f.orders.Alerts(ctx)
	if len(alerts) != 3 || alerts[0] != "PENDING ORDERS: 2 orders awaiting processing" {
		t.Errorf("unexpected alerts %q", alerts)
	}

	if _, err := f.orders.Revenue(ctx, f.now, f.now.Add(-time.Hour)); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected InvalidArgument for reversed range, got %v", err)
	}

	grouped, _ := f.orders.GroupedBySupplier(ctx)
	if len(grouped["Globex"]) != 1 {
		t.Errorf("expected 1 order grouped under Globex, got %v", grouped)
	}
}

func TestDelete_RemovesOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.mustWarehouse("Main")
	p := f.mustProduct("A-1", "10", 50, 5, w.ID, nil)
	order, _ := f.orders.Create(ctx, CreateOrderCommand{
		Type:  domain.OrderTypeSale,
		Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})

	if err := f.orders.Delete(ctx, order.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := f.orders.Get(ctx, order.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected NotFound after delete, got %v", err)
	}
	if err := f.products.Delete(ctx, p.ID); err != nil {
		t.Errorf("product should be deletable once its order is gone, got %v", err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
