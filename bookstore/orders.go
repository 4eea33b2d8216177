package bookstore

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/shopspring/decimal"
)

// OrderWorkflow turns carts into orders and drives their status. Each
// operation is one transaction: either every row and stock change lands, or
// none does.
type OrderWorkflow struct {
	db        *Database
	inventory *InventoryLedger
	logger    *slog.Logger
}

// NewCart returns an empty cart validated against this workflow's catalog.
func (w *OrderWorkflow) NewCart() *Cart { return NewCart(w.inventory) }

// Commit persists cart as an order for customerID with the given initial
// status. A Completed commit also takes the stock. The cart is cleared only
// when the order is durable.
func (w *OrderWorkflow) Commit(ctx context.Context, s Session, customerID int64, cart *Cart, status OrderStatus) (int64, error) {
	const op = "commit order"
	if status != StatusPending && status != StatusCompleted {
		return 0, invalidField(op, "status")
	}
	if cart == nil || cart.Len() == 0 {
		return 0, invalidField(op, "cart")
	}
	lines := cart.Lines()
	_, total := cart.Total()

	var orderID int64
	err := w.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeTx(ctx, tx, op, s, PermPlaceOrder); err != nil {
			return err
		}
		ok, err := exists(ctx, tx, `SELECT 1 FROM customers WHERE id=?`, customerID)
		if err != nil {
			return err
		}
		if !ok {
			return newError(ErrNotFound, op, "customer", customerID)
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO orders(customer_id,staff_id,order_date,total_amount,status)
            VALUES(?,?,?,?,?)`, customerID, s.StaffID, w.db.now(), total, status)
		if err != nil {
			return err
		}
		if orderID, err = res.LastInsertId(); err != nil {
			return err
		}

		for _, l := range lines {
			ok, err := exists(ctx, tx, `SELECT 1 FROM books WHERE id=?`, l.BookID)
			if err != nil {
				return err
			}
			if !ok {
				return newError(ErrNotFound, op, "book", l.BookID)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO order_items(order_id,book_id,quantity,price) VALUES(?,?,?,?)`,
				orderID, l.BookID, l.Quantity, l.UnitPrice); err != nil {
				return err
			}
			if status == StatusCompleted {
				if err := w.inventory.decrementTx(ctx, tx, s, l.BookID, l.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("order rejected", "op", op, "staff_id", s.StaffID, "customer_id", customerID, "err", err)
		return 0, storeError(op, "order", 0, err)
	}

	cart.Clear()
	w.logger.Info("order committed", "op", op, "order_id", orderID, "status", status,
		"total", total.StringFixed(2), "staff_id", s.StaffID, "session", s.ID)
	return orderID, nil
}

// Complete moves a Pending order to Completed and takes its stock. The status
// is switched first, so a concurrent second Complete finds nothing Pending
// and never decrements.
func (w *OrderWorkflow) Complete(ctx context.Context, s Session, orderID int64) error {
	const op = "complete order"
	err := w.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeTx(ctx, tx, op, s, PermPlaceOrder); err != nil {
			return err
		}
		if err := w.transitionTx(ctx, tx, op, orderID, StatusCompleted); err != nil {
			return err
		}
		items, err := orderItems(ctx, tx, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := w.inventory.decrementTx(ctx, tx, s, it.BookID, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeError(op, "order", orderID, err)
	}
	w.logger.Info("order completed", "op", op, "order_id", orderID, "staff_id", s.StaffID)
	return nil
}

// Cancel moves a Pending order to Cancelled. Stock is untouched.
func (w *OrderWorkflow) Cancel(ctx context.Context, s Session, orderID int64) error {
	const op = "cancel order"
	err := w.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeTx(ctx, tx, op, s, PermPlaceOrder); err != nil {
			return err
		}
		return w.transitionTx(ctx, tx, op, orderID, StatusCancelled)
	})
	if err != nil {
		return storeError(op, "order", orderID, err)
	}
	w.logger.Info("order cancelled", "op", op, "order_id", orderID, "staff_id", s.StaffID)
	return nil
}

// transitionTx sets a Pending order to `to`. Terminal orders are refused.
func (w *OrderWorkflow) transitionTx(ctx context.Context, tx *sql.Tx, op string, orderID int64, to OrderStatus) error {
	res, err := tx.ExecContext(ctx, `UPDATE orders SET status=? WHERE id=? AND status=?`, to, orderID, StatusPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	ok, err := exists(ctx, tx, `SELECT 1 FROM orders WHERE id=?`, orderID)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrNotFound, op, "order", orderID)
	}
	return newError(ErrInvalidTransition, op, "order", orderID)
}

// GetOrder fetches an order with its items.
func (w *OrderWorkflow) GetOrder(ctx context.Context, id int64) (*Order, error) {
	const op = "get order"
	o, err := scanOrder(w.db.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id))
	if err == sql.ErrNoRows {
		return nil, newError(ErrNotFound, op, "order", id)
	}
	if err != nil {
		return nil, storeError(op, "order", id, err)
	}
	if o.Items, err = orderItems(ctx, w.db.db, id); err != nil {
		return nil, storeError(op, "order", id, err)
	}
	return o, nil
}

// ListOrders lists orders newest first. An empty status lists all of them.
func (w *OrderWorkflow) ListOrders(ctx context.Context, status OrderStatus) ([]*Order, error) {
	const op = "list orders"
	q := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if status != "" {
		if !status.Valid() {
			return nil, invalidField(op, "status")
		}
		q += ` WHERE status=?`
		args = append(args, status)
	}
	q += ` ORDER BY id DESC`

	rows, err := w.db.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeError(op, "order", 0, err)
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, storeError(op, "order", 0, err)
		}
		out = append(out, o)
	}
	return out, storeError(op, "order", 0, rows.Err())
}

const orderColumns = `id, customer_id, staff_id, order_date, total_amount, status`

func scanOrder(row scanner) (*Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.CustomerID, &o.StaffID, &o.OrderDate, &o.TotalAmount, &o.Status); err != nil {
		return nil, err
	}
	return &o, nil
}

type rowsQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func orderItems(ctx context.Context, q rowsQueryer, orderID int64) ([]OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, book_id, quantity, price FROM order_items WHERE order_id=? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// OrderTotal sums the subtotals of items.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
