package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	MinStockLevel int             `json:"minStockLevel"`
	WarehouseID   int64           `json:"warehouseId"`
	SupplierID    *int64          `json:"supplierId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// InventoryValue is price times units on hand.
func (p Product) InventoryValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
}

func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return InvalidArgumentf("Product name is required")
	case len(p.Name) > 100:
		return InvalidArgumentf("Product name cannot exceed 100 characters")
	case strings.TrimSpace(p.SKU) == "":
		return InvalidArgumentf("SKU is required")
	case len(p.SKU) > 50:
		return InvalidArgumentf("SKU cannot exceed 50 characters")
	case len(p.Description) > 500:
		return InvalidArgumentf("Description cannot exceed 500 characters")
	case strings.TrimSpace(p.Category) == "":
		return InvalidArgumentf("Category is required")
	case len(p.Category) > 50:
		return InvalidArgumentf("Category cannot exceed 50 characters")
	case p.WarehouseID <= 0:
		return InvalidArgumentf("Warehouse is required")
	}
	if err := checkMoney("Price", p.Price); err != nil {
		return err
	}
	if err := checkCount("Stock quantity", p.StockQuantity); err != nil {
		return err
	}
	return checkCount("Min stock level", p.MinStockLevel)
}

// Matches reports whether term occurs in the name, description, SKU or
// category, ignoring case.
func (p Product) Matches(term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.SKU), term) ||
		strings.Contains(strings.ToLower(p.Category), term)
}

func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		LowStock bool `json:"lowStock"`
	}{plain: plain(p), LowStock: p.IsLowStock()})
}
