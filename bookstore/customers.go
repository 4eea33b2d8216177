package bookstore

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
)

// CustomerBook manages the customer accounts orders are placed against.
type CustomerBook struct {
	db     *Database
	logger *slog.Logger
}

func membership(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func nullEmail(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func scanCustomer(row scanner) (*Customer, error) {
	var (
		c      Customer
		email  sql.NullString
		member string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &email, &member); err != nil {
		return nil, err
	}
	c.Email = email.String
	c.Membership = member == "Yes"
	return &c, nil
}

func (b *CustomerBook) AddCustomer(ctx context.Context, s Session, in CustomerInput) (int64, error) {
	const op = "add customer"
	if err := validateCustomer(op, in); err != nil {
		return 0, err
	}

	var id int64
	err := b.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeTx(ctx, tx, op, s, PermCustomers); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO customers(name,phone,email,membership) VALUES(?,?,?,?)`,
			strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone), nullEmail(in.Email), membership(in.Membership))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, storeError(op, "customer", 0, err)
	}
	b.logger.Info("customer added", "op", op, "customer_id", id, "staff_id", s.StaffID)
	return id, nil
}

func (b *CustomerBook) UpdateCustomer(ctx context.Context, s Session, id int64, in CustomerInput) error {
	const op = "update customer"
	if err := validateCustomer(op, in); err != nil {
		return err
	}

	err := b.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeTx(ctx, tx, op, s, PermCustomers); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE customers SET name=?, phone=?, email=?, membership=? WHERE id=?`,
			strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone), nullEmail(in.Email), membership(in.Membership), id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return newError(ErrNotFound, op, "customer", id)
		}
		return nil
	})
	if err != nil {
		return storeError(op, "customer", id, err)
	}
	b.logger.Info("customer updated", "op", op, "customer_id", id, "staff_id", s.StaffID)
	return nil
}

// DeleteCustomer removes an account that has never placed an order.
func (b *CustomerBook) DeleteCustomer(ctx context.Context, s Session, id int64) error {
	const op = "delete customer"
	err := b.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeTx(ctx, tx, op, s, PermCustomers); err != nil {
			return err
		}
		ok, err := exists(ctx, tx, `SELECT 1 FROM customers WHERE id=?`, id)
		if err != nil {
			return err
		}
		if !ok {
			return newError(ErrNotFound, op, "customer", id)
		}
		hasOrders, err := exists(ctx, tx, `SELECT 1 FROM orders WHERE customer_id=?`, id)
		if err != nil {
			return err
		}
		if hasOrders {
			return newError(ErrReferentialConflict, op, "customer", id)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM customers WHERE id=?`, id)
		return err
	})
	if err != nil {
		return storeError(op, "customer", id, err)
	}
	b.logger.Info("customer deleted", "op", op, "customer_id", id, "staff_id", s.StaffID)
	return nil
}

func (b *CustomerBook) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	const op = "get customer"
	c, err := scanCustomer(b.db.db.QueryRowContext(ctx,
		`SELECT id, name, phone, email, membership FROM customers WHERE id=?`, id))
	if err == sql.ErrNoRows {
		return nil, newError(ErrNotFound, op, "customer", id)
	}
	if err != nil {
		return nil, storeError(op, "customer", id, err)
	}
	return c, nil
}

func (b *CustomerBook) ListCustomers(ctx context.Context) ([]*Customer, error) {
	const op = "list customers"
	rows, err := b.db.db.QueryContext(ctx, `SELECT id, name, phone, email, membership FROM customers ORDER BY id`)
	if err != nil {
		return nil, storeError(op, "customer", 0, err)
	}
	defer rows.Close()

	var out []*Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, storeError(op, "customer", 0, err)
		}
		out = append(out, c)
	}
	return out, storeError(op, "customer", 0, rows.Err())
}
