package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/stockroom/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/stockroom"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	db, err := OpenMySQL(ctx, dsn, PoolConfig{MaxOpenConns: 20, MaxIdleConns: 10, ConnMaxLifetime: time.Minute})
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := NewMySQLAdapter(db).Migrate(context.Background()); err != nil {
		db.Close()
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

// seedProduct creates a warehouse and one product with the given stock.
func seedProduct(t *testing.T, adapter *MySQLAdapter, stock int) *domain.Product {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	suffix := uuid.NewString()[:8]

	w := &domain.Warehouse{Name: "wh-" + suffix, Location: "Test, Lab", CreatedAt: now, UpdatedAt: now}
	if err := adapter.CreateWarehouse(ctx, w); err != nil {
		t.Fatalf("create warehouse: %v", err)
	}
	p := &domain.Product{
		Name:          "Widget " + suffix,
		SKU:           "SKU-" + suffix,
		Category:      "Test",
		Price:         decimal.RequireFromString("12.50"),
		StockQuantity: stock,
		MinStockLevel: 1,
		WarehouseID:   w.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := adapter.CreateProduct(ctx, p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestProduct_RoundTrip(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	p := seedProduct(t, adapter, 10)

	got, err := adapter.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if got.SKU != p.SKU || !got.Price.Equal(p.Price) || got.SupplierID != nil {
		t.Errorf("unexpected product %+v", got)
	}

	dup := *p
	err = adapter.CreateProduct(ctx, &dup)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected Conflict for duplicate SKU, got %v", err)
	}

	if _, err := adapter.GetProduct(ctx, -1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestDecrementStock_Conditional(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	p := seedProduct(t, adapter, 5)

	ok, err := adapter.DecrementStock(ctx, p.ID, 3)
	if err != nil || !ok {
		t.Fatalf("expected decrement to succeed: %v, %v", ok, err)
	}
	ok, err = adapter.DecrementStock(ctx, p.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected decrement beyond stock to be rejected")
	}
	ok, err = adapter.DecrementStock(ctx, p.ID, 0)
	if err != nil || !ok {
		t.Errorf("zero decrement must match the row: %v, %v", ok, err)
	}

	got, _ := adapter.GetProduct(ctx, p.ID)
	if got.StockQuantity != 2 {
		t.Errorf("expected stock 2, got %d", got.StockQuantity)
	}
}

func TestDecrementStock_Concurrent(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	p := seedProduct(t, adapter, 20)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := adapter.DecrementStock(ctx, p.ID, 1); err == nil && ok {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 20 {
		t.Errorf("expected 20 successes, got %d", successCount.Load())
	}
	got, _ := adapter.GetProduct(ctx, p.ID)
	if got.StockQuantity != 0 {
		t.Errorf("expected stock 0, got %d", got.StockQuantity)
	}
}

func TestWithinTx_RollsBack(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	p := seedProduct(t, adapter, 10)
	boom := errors.New("boom")

	err := adapter.WithinTx(ctx, func(ctx context.Context) error {
		if err := adapter.IncrementStock(ctx, p.ID, 5); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, _ := adapter.GetProduct(ctx, p.ID)
	if got.StockQuantity != 10 {
		t.Errorf("expected rollback to stock 10, got %d", got.StockQuantity)
	}
}

func TestOrder_RoundTripAndStatusCAS(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	p := seedProduct(t, adapter, 10)
	now := time.Now().UTC().Truncate(time.Microsecond)

	o := domain.NewOrder(domain.OrderTypeSale, nil, now)
	o.AddItem(domain.OrderItem{ProductID: p.ID, Quantity: 2, UnitPrice: p.Price, CreatedAt: now, UpdatedAt: now}, now)
	if err := adapter.CreateOrder(ctx, o); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	got, err := adapter.GetOrderByNumber(ctx, o.OrderNumber)
	if err != nil {
		t.Fatalf("GetOrderByNumber failed: %v", err)
	}
	if len(got.Items) != 1 || !got.TotalAmount.Equal(decimal.NewFromInt(25)) {
		t.Errorf("unexpected order %+v", got)
	}

	if err := adapter.DeleteProduct(ctx, p.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected Conflict deleting a referenced product, got %v", err)
	}

	if err := got.Confirm(now); err != nil {
		t.Fatal(err)
	}
	ok, err := adapter.UpdateOrderStatus(ctx, got, domain.OrderStatusPending)
	if err != nil || !ok {
		t.Fatalf("expected first transition to apply: %v, %v", ok, err)
	}
	ok, err = adapter.UpdateOrderStatus(ctx, got, domain.OrderStatusPending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("stale transition must not apply")
	}

	n, err := adapter.CountItemsForProducts(ctx, []int64{p.ID}, []int64{o.ID})
	if err != nil || n != 0 {
		t.Errorf("excluded order must not count: %d, %v", n, err)
	}

	if err := adapter.DeleteOrder(ctx, o.ID); err != nil {
		t.Fatalf("DeleteOrder failed: %v", err)
	}
	if err := adapter.DeleteProduct(ctx, p.ID); err != nil {
		t.Errorf("product should be deletable once unreferenced, got %v", err)
	}
}

func TestOrder_TotalsSurviveRoundTrip(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	p := seedProduct(t, adapter, 10)
	now := time.Now().UTC().Truncate(time.Microsecond)

	o := domain.NewOrder(domain.OrderTypePurchase, nil, now)
	o.AddItem(domain.OrderItem{ProductID: p.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("19.99"), CreatedAt: now, UpdatedAt: now}, now)
	o.AddItem(domain.OrderItem{ProductID: p.ID, Quantity: 7, UnitPrice: decimal.RequireFromString("0.05"), CreatedAt: now, UpdatedAt: now}, now)
	if err := adapter.CreateOrder(ctx, o); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	defer adapter.DeleteOrder(ctx, o.ID)

	got, err := adapter.GetOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	sum := decimal.Zero
	for _, item := range got.Items {
		sum = sum.Add(item.TotalPrice())
	}
	want := decimal.RequireFromString("60.32")
	if !got.TotalAmount.Equal(want) || !sum.Equal(want) {
		t.Errorf("expected total and item sum %s, got %s and %s", want, got.TotalAmount, sum)
	}
}

func TestStock_OutOfRangeIsInvalidArgument(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	p := seedProduct(t, adapter, 10)

	if err := adapter.IncrementStock(ctx, p.ID, domain.MaxQuantity); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected InvalidArgument for overflowing increment, got %v", err)
	}
	if err := adapter.SetStock(ctx, p.ID, 3000000000); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected InvalidArgument for oversized stock, got %v", err)
	}
	got, err := adapter.GetProduct(ctx, p.ID)
	if err != nil || got.StockQuantity != 10 {
		t.Errorf("stock must be unchanged: %v, %v", got, err)
	}
}

func TestMapError_Kinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind domain.Kind
	}{
		{"no rows", sql.ErrNoRows, domain.KindNotFound},
		{"duplicate", &mysql.MySQLError{Number: 1062}, domain.KindConflict},
		{"referenced", &mysql.MySQLError{Number: 1451}, domain.KindConflict},
		{"missing parent", &mysql.MySQLError{Number: 1452}, domain.KindInvalidArgument},
		{"out of range", fmt.Errorf("increment stock: %w", &mysql.MySQLError{Number: 1264}), domain.KindInvalidArgument},
		{"too long", &mysql.MySQLError{Number: 1406}, domain.KindInvalidArgument},
		{"other", &mysql.MySQLError{Number: 1205}, domain.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.KindOf(mapError(tt.err, "Product")); got != tt.kind {
				t.Errorf("expected %s, got %s", tt.kind, got)
			}
		})
	}
}
