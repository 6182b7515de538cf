package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/stockroom/internal/core/domain"
)

const orderColumns = `id, order_number, status, type, supplier_id, total_amount, order_date,
	expected_delivery_date, actual_delivery_date, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                  domain.Order
		supplier           sql.NullInt64
		expected, actually sql.NullTime
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.Status, &o.Type, &supplier, &o.TotalAmount,
		&o.OrderDate, &expected, &actually, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.SupplierID = int64Ptr(supplier)
	o.ExpectedDeliveryDate = timePtr(expected)
	o.ActualDeliveryDate = timePtr(actually)
	o.Items = make([]domain.OrderItem, 0)
	return &o, nil
}

// CreateOrder persists the order header and its items
func (m *MySQLAdapter) CreateOrder(ctx context.Context, o *domain.Order) error {
	return m.WithinTx(ctx, func(ctx context.Context) error {
		res, err := m.conn(ctx).ExecContext(ctx, `
			INSERT INTO orders (order_number, status, type, supplier_id, total_amount, order_date,
				expected_delivery_date, actual_delivery_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.OrderNumber, o.Status, o.Type, nullInt64(o.SupplierID), o.TotalAmount, o.OrderDate,
			nullTime(o.ExpectedDeliveryDate), nullTime(o.ActualDeliveryDate), o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			return mapError(err, "Order")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		o.ID = id
		return m.insertItems(ctx, o)
	})
}

// UpdateOrder rewrites the header and replaces the stored items, keeping the
// ids of items that already had one.
func (m *MySQLAdapter) UpdateOrder(ctx context.Context, o *domain.Order) error {
	return m.WithinTx(ctx, func(ctx context.Context) error {
		res, err := m.conn(ctx).ExecContext(ctx, `
			UPDATE orders
			SET status = ?, type = ?, supplier_id = ?, total_amount = ?, expected_delivery_date = ?,
				actual_delivery_date = ?, updated_at = ?
			WHERE id = ?`,
			o.Status, o.Type, nullInt64(o.SupplierID), o.TotalAmount, nullTime(o.ExpectedDeliveryDate),
			nullTime(o.ActualDeliveryDate), o.UpdatedAt, o.ID,
		)
		if err != nil {
			return mapError(err, "Order")
		}
		if err := requireRow(res, "Order not found with ID: %d", o.ID); err != nil {
			return err
		}
		if _, err := m.conn(ctx).ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, o.ID); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		return m.insertItems(ctx, o)
	})
}

func (m *MySQLAdapter) insertItems(ctx context.Context, o *domain.Order) error {
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		res, err := m.conn(ctx).ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sql.NullInt64{Int64: item.ID, Valid: item.ID != 0}, item.OrderID, item.ProductID,
			item.Quantity, item.UnitPrice, item.CreatedAt, item.UpdatedAt,
		)
		if err != nil {
			return mapError(err, "Order item")
		}
		if item.ID == 0 {
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
			item.ID = id
		}
	}
	return nil
}

// UpdateOrderStatus is a compare-and-set on the stored status.
func (m *MySQLAdapter) UpdateOrderStatus(ctx context.Context, o *domain.Order, from domain.OrderStatus) (bool, error) {
	res, err := m.conn(ctx).ExecContext(ctx, `
		UPDATE orders
		SET status = ?, actual_delivery_date = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		o.Status, nullTime(o.ActualDeliveryDate), o.UpdatedAt, o.ID, from,
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	rows, err := affected(res)
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (m *MySQLAdapter) DeleteOrder(ctx context.Context, id int64) error {
	return m.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := m.conn(ctx).ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, id); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		res, err := m.conn(ctx).ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
		if err != nil {
			return mapError(err, "Order")
		}
		return requireRow(res, "Order not found with ID: %d", id)
	})
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(m.conn(ctx).QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Order not found with ID: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return o, m.loadItems(ctx, []*domain.Order{o})
}

func (m *MySQLAdapter) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	o, err := scanOrder(m.conn(ctx).QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = ?`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Order not found with number: %s", number)
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return o, m.loadItems(ctx, []*domain.Order{o})
}

func (m *MySQLAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return m.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id`)
}

func (m *MySQLAdapter) ListOrdersBySupplier(ctx context.Context, supplierID int64) ([]domain.Order, error) {
	return m.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE supplier_id = ? ORDER BY id`, supplierID)
}

func (m *MySQLAdapter) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := m.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	refs := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		refs = append(refs, o)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := m.loadItems(ctx, refs); err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(refs))
	for _, o := range refs {
		orders = append(orders, *o)
	}
	return orders, nil
}

// loadItems fills Items for every order with one query.
func (m *MySQLAdapter) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Order, len(orders))
	args := make([]any, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		args = append(args, o.ID)
	}

	rows, err := m.conn(ctx).QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, created_at, updated_at
		FROM order_items WHERE order_id IN (`+placeholders(len(args))+`) ORDER BY id`, args...)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func (m *MySQLAdapter) CountItemsForProducts(ctx context.Context, productIDs []int64, excludeOrderIDs []int64) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(productIDs)+len(excludeOrderIDs))
	for _, id := range productIDs {
		args = append(args, id)
	}
	query := `SELECT COUNT(*) FROM order_items WHERE product_id IN (` + placeholders(len(productIDs)) + `)`
	if len(excludeOrderIDs) > 0 {
		query += ` AND order_id NOT IN (` + placeholders(len(excludeOrderIDs)) + `)`
		for _, id := range excludeOrderIDs {
			args = append(args, id)
		}
	}

	var n int
	if err := m.conn(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count order items: %w", err)
	}
	return n, nil
}
