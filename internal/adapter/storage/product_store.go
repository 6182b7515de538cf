package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/stockroom/internal/core/domain"
)

const productColumns = `id, name, sku, description, category, price, stock_quantity,
	min_stock_level, warehouse_id, supplier_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p        domain.Product
		supplier sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Description, &p.Category, &p.Price,
		&p.StockQuantity, &p.MinStockLevel, &p.WarehouseID, &supplier, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.SupplierID = int64Ptr(supplier)
	return &p, nil
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p *domain.Product) error {
	res, err := m.conn(ctx).ExecContext(ctx, `
		INSERT INTO products (name, sku, description, category, price, stock_quantity,
			min_stock_level, warehouse_id, supplier_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.SKU, p.Description, p.Category, p.Price, p.StockQuantity,
		p.MinStockLevel, p.WarehouseID, nullInt64(p.SupplierID), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "Product")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	p.ID = id
	return nil
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, p *domain.Product) error {
	res, err := m.conn(ctx).ExecContext(ctx, `
		UPDATE products
		SET name = ?, sku = ?, description = ?, category = ?, price = ?, stock_quantity = ?,
			min_stock_level = ?, warehouse_id = ?, supplier_id = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.SKU, p.Description, p.Category, p.Price, p.StockQuantity,
		p.MinStockLevel, p.WarehouseID, nullInt64(p.SupplierID), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return mapError(err, "Product")
	}
	return requireRow(res, "Product not found with ID: %d", p.ID)
}

func (m *MySQLAdapter) DeleteProduct(ctx context.Context, id int64) error {
	res, err := m.conn(ctx).ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		if domain.KindOf(mapError(err, "Product")) == domain.KindConflict {
			return domain.Conflictf("Cannot delete product: it is linked to existing orders or references.")
		}
		return mapError(err, "Product")
	}
	return requireRow(res, "Product not found with ID: %d", id)
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(m.conn(ctx).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Product not found with ID: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (m *MySQLAdapter) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	p, err := scanProduct(m.conn(ctx).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE sku = ?`, sku))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Product not found with SKU: %s", sku)
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return m.listProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

func (m *MySQLAdapter) ListProductsByWarehouse(ctx context.Context, warehouseID int64) ([]domain.Product, error) {
	return m.listProducts(ctx, `SELECT `+productColumns+` FROM products WHERE warehouse_id = ? ORDER BY id`, warehouseID)
}

func (m *MySQLAdapter) ListProductsBySupplier(ctx context.Context, supplierID int64) ([]domain.Product, error) {
	return m.listProducts(ctx, `SELECT `+productColumns+` FROM products WHERE supplier_id = ? ORDER BY id`, supplierID)
}

func (m *MySQLAdapter) listProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := m.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (m *MySQLAdapter) DecrementStock(ctx context.Context, id int64, quantity int) (bool, error) {
	res, err := m.conn(ctx).ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - ?, updated_at = NOW(6)
		WHERE id = ? AND stock_quantity >= ?`,
		quantity, id, quantity,
	)
	if err != nil {
		return false, mapError(fmt.Errorf("decrement stock: %w", err), "Stock quantity")
	}
	rows, err := affected(res)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (m *MySQLAdapter) IncrementStock(ctx context.Context, id int64, quantity int) error {
	res, err := m.conn(ctx).ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + ?, updated_at = NOW(6)
		WHERE id = ?`,
		quantity, id,
	)
	if err != nil {
		return mapError(fmt.Errorf("increment stock: %w", err), "Stock quantity")
	}
	return requireRow(res, "Product not found with ID: %d", id)
}

func (m *MySQLAdapter) SetStock(ctx context.Context, id int64, quantity int) error {
	res, err := m.conn(ctx).ExecContext(ctx, `
		UPDATE products SET stock_quantity = ?, updated_at = NOW(6) WHERE id = ?`,
		quantity, id,
	)
	if err != nil {
		return mapError(fmt.Errorf("set stock: %w", err), "Stock quantity")
	}
	return requireRow(res, "Product not found with ID: %d", id)
}

func requireRow(res sql.Result, format string, args ...any) error {
	rows, err := affected(res)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NotFoundf(format, args...)
	}
	return nil
}
