// Package report derives alerts, groupings and dashboard figures from
// snapshots of the entity store. Everything here is a pure function of its
// arguments; callers query fresh slices for every request.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stockroom/internal/core/domain"
)

const UnknownCity = "Unknown"

func LowStockProducts(products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StockQuantity < out[j].StockQuantity
	})
	return out
}

func LowStockAlerts(products []domain.Product) []string {
	alerts := make([]string, 0)
	for _, p := range LowStockProducts(products) {
		alerts = append(alerts, fmt.Sprintf(
			"LOW STOCK ALERT: %s (SKU: %s) - Current Stock: %d, Min Level: %d",
			p.Name, p.SKU, p.StockQuantity, p.MinStockLevel,
		))
	}
	return alerts
}

// PendingOrders returns pending orders, oldest first.
func PendingOrders(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range orders {
		if o.IsPending() {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderDate.Before(out[j].OrderDate)
	})
	return out
}

func DelayedOrders(orders []domain.Order, now time.Time) []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range orders {
		if o.IsDelayed(now) {
			out = append(out, o)
		}
	}
	return out
}

// RecentOrders returns the newest limit orders by order date.
func RecentOrders(orders []domain.Order, limit int) []domain.Order {
	out := append([]domain.Order(nil), orders...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderDate.After(out[j].OrderDate)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func OrderAlerts(orders []domain.Order, now time.Time) []string {
	alerts := make([]string, 0)
	if pending := len(PendingOrders(orders)); pending > 0 {
		alerts = append(alerts, fmt.Sprintf("PENDING ORDERS: %d orders awaiting processing", pending))
	}
	delayed := DelayedOrders(orders, now)
	if len(delayed) > 0 {
		alerts = append(alerts, fmt.Sprintf("DELAYED ORDERS: %d orders past expected delivery date", len(delayed)))
		for _, o := range delayed {
			alerts = append(alerts, fmt.Sprintf("  - Order %s (Expected: %s)",
				o.OrderNumber, o.ExpectedDeliveryDate.Format(time.RFC3339)))
		}
	}
	return alerts
}

func SupplierAlerts(suppliers []domain.Supplier) []string {
	alerts := make([]string, 0)
	for _, s := range suppliers {
		if s.Status == domain.SupplierStatusActive {
			continue
		}
		contact := s.Email
		if contact == "" {
			contact = "No email"
		}
		alerts = append(alerts, fmt.Sprintf("SUPPLIER ALERT: %s is %s - Contact: %s",
			s.Name, strings.ToLower(string(s.Status)), contact))
	}
	return alerts
}

// WarehouseLowStockCounts maps warehouse id to its number of low-stock
// products. Warehouses without low stock are absent.
func WarehouseLowStockCounts(products []domain.Product) map[int64]int {
	counts := make(map[int64]int)
	for _, p := range products {
		if p.IsLowStock() {
			counts[p.WarehouseID]++
		}
	}
	return counts
}

func WarehousesWithLowStock(warehouses []domain.Warehouse, products []domain.Product) []domain.Warehouse {
	counts := WarehouseLowStockCounts(products)
	out := make([]domain.Warehouse, 0)
	for _, w := range warehouses {
		if counts[w.ID] > 0 {
			out = append(out, w)
		}
	}
	return out
}

func WarehouseAlerts(warehouses []domain.Warehouse, products []domain.Product) []string {
	counts := WarehouseLowStockCounts(products)
	alerts := make([]string, 0)
	for _, w := range warehouses {
		if n := counts[w.ID]; n > 0 {
			alerts = append(alerts, fmt.Sprintf("WAREHOUSE ALERT: %s has %d products with low stock", w.Name, n))
		}
	}
	return alerts
}

// Revenue sums delivered orders whose order date lies in [start, end).
func Revenue(orders []domain.Order, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.Status != domain.OrderStatusDelivered {
			continue
		}
		if o.OrderDate.Before(start) || !o.OrderDate.Before(end) {
			continue
		}
		total = total.Add(o.TotalAmount)
	}
	return total
}

func TotalInventoryValue(products []domain.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.InventoryValue())
	}
	return total
}

func InventoryValueByCategory(products []domain.Product) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, p := range products {
		out[p.Category] = out[p.Category].Add(p.InventoryValue())
	}
	return out
}

func CountByCategory(products []domain.Product) map[string]int {
	out := make(map[string]int)
	for _, p := range products {
		out[p.Category]++
	}
	return out
}

// Categories lists distinct categories in ascending order.
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

func TopExpensive(products []domain.Product, limit int) []domain.Product {
	out := append([]domain.Product(nil), products...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Price.GreaterThan(out[j].Price)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func CountByStatus(orders []domain.Order) map[domain.OrderStatus]int {
	out := make(map[domain.OrderStatus]int)
	for _, o := range orders {
		out[o.Status]++
	}
	return out
}

func CountByType(orders []domain.Order) map[domain.OrderType]int {
	out := make(map[domain.OrderType]int)
	for _, o := range orders {
		out[o.Type]++
	}
	return out
}

// GroupOrdersBySupplier keys orders by supplier name; orders without a
// supplier are left out.
func GroupOrdersBySupplier(orders []domain.Order, suppliers []domain.Supplier) map[string][]domain.Order {
	names := make(map[int64]string, len(suppliers))
	for _, s := range suppliers {
		names[s.ID] = s.Name
	}
	out := make(map[string][]domain.Order)
	for _, o := range orders {
		if o.SupplierID == nil {
			continue
		}
		name, ok := names[*o.SupplierID]
		if !ok {
			continue
		}
		out[name] = append(out[name], o)
	}
	return out
}

func CountSuppliersByStatus(suppliers []domain.Supplier) map[domain.SupplierStatus]int {
	out := make(map[domain.SupplierStatus]int)
	for _, s := range suppliers {
		out[s.Status]++
	}
	return out
}

func ActiveSuppliers(suppliers []domain.Supplier) []domain.Supplier {
	out := make([]domain.Supplier, 0)
	for _, s := range suppliers {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out
}

// ReliableSuppliers are active suppliers with at least one product.
func ReliableSuppliers(suppliers []domain.Supplier, products []domain.Product) []domain.Supplier {
	supplied := make(map[int64]bool)
	for _, p := range products {
		if p.SupplierID != nil {
			supplied[*p.SupplierID] = true
		}
	}
	out := make([]domain.Supplier, 0)
	for _, s := range suppliers {
		if s.IsActive() && supplied[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// CityOf takes the last comma-separated segment of an address or location.
func CityOf(location string) string {
	if strings.TrimSpace(location) == "" {
		return UnknownCity
	}
	parts := strings.Split(location, ",")
	city := strings.TrimSpace(parts[len(parts)-1])
	if city == "" {
		return UnknownCity
	}
	return city
}

// GroupSuppliersByCity skips suppliers without an address.
func GroupSuppliersByCity(suppliers []domain.Supplier) map[string][]domain.Supplier {
	out := make(map[string][]domain.Supplier)
	for _, s := range suppliers {
		if strings.TrimSpace(s.Address) == "" {
			continue
		}
		city := CityOf(s.Address)
		out[city] = append(out[city], s)
	}
	return out
}

func GroupWarehousesByCity(warehouses []domain.Warehouse) map[string][]domain.Warehouse {
	out := make(map[string][]domain.Warehouse)
	for _, w := range warehouses {
		city := CityOf(w.Location)
		out[city] = append(out[city], w)
	}
	return out
}

func InventoryValueByWarehouse(warehouses []domain.Warehouse, products []domain.Product) map[string]decimal.Decimal {
	byID := make(map[int64]decimal.Decimal)
	for _, p := range products {
		byID[p.WarehouseID] = byID[p.WarehouseID].Add(p.InventoryValue())
	}
	out := make(map[string]decimal.Decimal, len(warehouses))
	for _, w := range warehouses {
		out[w.Name] = byID[w.ID]
	}
	return out
}

func ProductCountByWarehouse(warehouses []domain.Warehouse, products []domain.Product) map[string]int {
	byID := make(map[int64]int)
	for _, p := range products {
		byID[p.WarehouseID]++
	}
	out := make(map[string]int, len(warehouses))
	for _, w := range warehouses {
		out[w.Name] = byID[w.ID]
	}
	return out
}

type Utilization struct {
	WarehouseName       string          `json:"warehouseName"`
	Location            string          `json:"location"`
	TotalProducts       int             `json:"totalProducts"`
	LowStockProducts    int             `json:"lowStockProducts"`
	TotalInventoryValue decimal.Decimal `json:"totalInventoryValue"`
	LowStockPercentage  float64         `json:"lowStockPercentage"`
}

// WarehouseUtilization summarises the products stored in w. products must
// already be filtered to the warehouse.
func WarehouseUtilization(w domain.Warehouse, products []domain.Product) Utilization {
	u := Utilization{
		WarehouseName:       w.Name,
		Location:            w.Location,
		TotalProducts:       len(products),
		TotalInventoryValue: TotalInventoryValue(products),
	}
	for _, p := range products {
		if p.IsLowStock() {
			u.LowStockProducts++
		}
	}
	if u.TotalProducts > 0 {
		u.LowStockPercentage = float64(u.LowStockProducts) / float64(u.TotalProducts) * 100
	}
	return u
}

type WarehouseSummary struct {
	TotalWarehouses           int                        `json:"totalWarehouses"`
	TotalProducts             int                        `json:"totalProducts"`
	WarehousesWithLowStock    int                        `json:"warehousesWithLowStock"`
	InventoryValueByWarehouse map[string]decimal.Decimal `json:"inventoryValueByWarehouse"`
	ProductCountByWarehouse   map[string]int             `json:"productCountByWarehouse"`
}

func SummarizeWarehouses(warehouses []domain.Warehouse, products []domain.Product) WarehouseSummary {
	counts := ProductCountByWarehouse(warehouses, products)
	total := 0
	for _, n := range counts {
		total += n
	}
	return WarehouseSummary{
		TotalWarehouses:           len(warehouses),
		TotalProducts:             total,
		WarehousesWithLowStock:    len(WarehousesWithLowStock(warehouses, products)),
		InventoryValueByWarehouse: InventoryValueByWarehouse(warehouses, products),
		ProductCountByWarehouse:   counts,
	}
}

type DailyTrend struct {
	Date    string          `json:"date"`
	Orders  int             `json:"orders"`
	Sales   int             `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
}

// DailyTrends buckets orders by UTC order day for the last days days,
// today included, oldest first. Revenue counts delivered orders only.
func DailyTrends(orders []domain.Order, now time.Time, days int) []DailyTrend {
	if days <= 0 {
		return []DailyTrend{}
	}
	today := now.UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(days - 1))
	trends := make([]DailyTrend, days)
	for i := range trends {
		trends[i] = DailyTrend{Date: first.AddDate(0, 0, i).Format(time.DateOnly), Revenue: decimal.Zero}
	}
	for _, o := range orders {
		day := o.OrderDate.UTC().Truncate(24 * time.Hour)
		if day.Before(first) || day.After(today) {
			continue
		}
		idx := int(day.Sub(first).Hours() / 24)
		trends[idx].Orders++
		if o.Type == domain.OrderTypeSale {
			trends[idx].Sales++
		}
		if o.Status == domain.OrderStatusDelivered {
			trends[idx].Revenue = trends[idx].Revenue.Add(o.TotalAmount)
		}
	}
	return trends
}

type Performance struct {
	StockHealthPercentage         float64 `json:"stockHealthPercentage"`
	OrderPerformancePercentage    float64 `json:"orderPerformancePercentage"`
	SupplierReliabilityPercentage float64 `json:"supplierReliabilityPercentage"`
	OverallHealthScore            float64 `json:"overallHealthScore"`
}

// ComputePerformance scores each area as a percentage, 100 when there is
// nothing to measure, rounded to two decimals.
func ComputePerformance(products []domain.Product, orders []domain.Order, suppliers []domain.Supplier, now time.Time) Performance {
	stock := percentage(len(products)-len(LowStockProducts(products)), len(products))
	order := percentage(len(orders)-len(DelayedOrders(orders, now)), len(orders))
	supplier := percentage(len(ActiveSuppliers(suppliers)), len(suppliers))
	return Performance{
		StockHealthPercentage:         round2(stock),
		OrderPerformancePercentage:    round2(order),
		SupplierReliabilityPercentage: round2(supplier),
		OverallHealthScore:            round2((stock + order + supplier) / 3),
	}
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(part) / float64(total) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
