package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/stockroom/internal/core/domain"
)

const supplierColumns = `id, name, email, phone, address, contact_person, status, created_at, updated_at`

func scanSupplier(row rowScanner) (*domain.Supplier, error) {
	var s domain.Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.ContactPerson,
		&s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MySQLAdapter) CreateSupplier(ctx context.Context, s *domain.Supplier) error {
	res, err := m.conn(ctx).ExecContext(ctx, `
		INSERT INTO suppliers (name, email, phone, address, contact_person, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.Email, s.Phone, s.Address, s.ContactPerson, s.Status, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "Supplier")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	s.ID = id
	return nil
}

func (m *MySQLAdapter) UpdateSupplier(ctx context.Context, s *domain.Supplier) error {
	res, err := m.conn(ctx).ExecContext(ctx, `
		UPDATE suppliers
		SET name = ?, email = ?, phone = ?, address = ?, contact_person = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, s.Email, s.Phone, s.Address, s.ContactPerson, s.Status, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return mapError(err, "Supplier")
	}
	return requireRow(res, "Supplier not found with ID: %d", s.ID)
}

func (m *MySQLAdapter) DeleteSupplier(ctx context.Context, id int64) error {
	res, err := m.conn(ctx).ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "Supplier")
	}
	return requireRow(res, "Supplier not found with ID: %d", id)
}

func (m *MySQLAdapter) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	s, err := scanSupplier(m.conn(ctx).QueryRowContext(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Supplier not found with ID: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query supplier: %w", err)
	}
	return s, nil
}

func (m *MySQLAdapter) GetSupplierByName(ctx context.Context, name string) (*domain.Supplier, error) {
	s, err := scanSupplier(m.conn(ctx).QueryRowContext(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Supplier not found with name: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("query supplier: %w", err)
	}
	return s, nil
}

func (m *MySQLAdapter) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := m.conn(ctx).QueryContext(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0)
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, *s)
	}
	return suppliers, rows.Err()
}

const warehouseColumns = `id, name, location, created_at, updated_at`

func scanWarehouse(row rowScanner) (*domain.Warehouse, error) {
	var w domain.Warehouse
	if err := row.Scan(&w.ID, &w.Name, &w.Location, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (m *MySQLAdapter) CreateWarehouse(ctx context.Context, w *domain.Warehouse) error {
	res, err := m.conn(ctx).ExecContext(ctx, `
		INSERT INTO warehouses (name, location, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		w.Name, w.Location, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "Warehouse")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	w.ID = id
	return nil
}

func (m *MySQLAdapter) UpdateWarehouse(ctx context.Context, w *domain.Warehouse) error {
	res, err := m.conn(ctx).ExecContext(ctx, `
		UPDATE warehouses SET name = ?, location = ?, updated_at = ? WHERE id = ?`,
		w.Name, w.Location, w.UpdatedAt, w.ID,
	)
	if err != nil {
		return mapError(err, "Warehouse")
	}
	return requireRow(res, "Warehouse not found with ID: %d", w.ID)
}

func (m *MySQLAdapter) DeleteWarehouse(ctx context.Context, id int64) error {
	res, err := m.conn(ctx).ExecContext(ctx, `DELETE FROM warehouses WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "Warehouse")
	}
	return requireRow(res, "Warehouse not found with ID: %d", id)
}

func (m *MySQLAdapter) GetWarehouse(ctx context.Context, id int64) (*domain.Warehouse, error) {
	w, err := scanWarehouse(m.conn(ctx).QueryRowContext(ctx,
		`SELECT `+warehouseColumns+` FROM warehouses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Warehouse not found with ID: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query warehouse: %w", err)
	}
	return w, nil
}

func (m *MySQLAdapter) GetWarehouseByName(ctx context.Context, name string) (*domain.Warehouse, error) {
	w, err := scanWarehouse(m.conn(ctx).QueryRowContext(ctx,
		`SELECT `+warehouseColumns+` FROM warehouses WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Warehouse not found with name: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("query warehouse: %w", err)
	}
	return w, nil
}

func (m *MySQLAdapter) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	rows, err := m.conn(ctx).QueryContext(ctx, `SELECT `+warehouseColumns+` FROM warehouses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query warehouses: %w", err)
	}
	defer rows.Close()

	warehouses := make([]domain.Warehouse, 0)
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		warehouses = append(warehouses, *w)
	}
	return warehouses, rows.Err()
}

func (m *MySQLAdapter) CreateUser(ctx context.Context, u *domain.User) error {
	res, err := m.conn(ctx).ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		return mapError(err, "User")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	u.ID = id
	return nil
}

func (m *MySQLAdapter) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.getUser(ctx, `username = ?`, username)
}

func (m *MySQLAdapter) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getUser(ctx, `email = ?`, email)
}

func (m *MySQLAdapter) getUser(ctx context.Context, where string, arg string) (*domain.User, error) {
	var u domain.User
	err := m.conn(ctx).QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("User not found: %s", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
