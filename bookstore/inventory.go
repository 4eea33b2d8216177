package bookstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
)

// InventoryLedger owns book stock. Every row mutation it makes is mirrored
// into the AuditLog within the same transaction.
type InventoryLedger struct {
	db     *Database
	audit  *AuditLog
	logger *slog.Logger
}

const bookColumns = `id, name, genre, quantity, author, publisher, price, updated_by, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (*Book, error) {
	var b Book
	if err := row.Scan(&b.ID, &b.Name, &b.Genre, &b.Quantity, &b.Author, &b.Publisher,
		&b.Price, &b.UpdatedBy, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// AddBook inserts a catalog row and its Insert audit entry.
func (l *InventoryLedger) AddBook(ctx context.Context, s Session, f BookFields) (int64, error) {
	const op = "add book"
	if err := validateBook(op, f); err != nil {
		return 0, err
	}

	var id int64
	err := l.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeTx(ctx, tx, op, s, PermCatalogEdit); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO books(name,genre,quantity,author,publisher,price,updated_by,updated_at)
            VALUES(?,?,?,?,?,?,?,?)`,
			f.Name, f.Genre, f.Quantity, f.Author, f.Publisher, f.Price, s.StaffID, l.db.now())
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return l.audit.appendTx(ctx, tx, id, LogInsert, s.StaffID)
	})
	if err != nil {
		return 0, storeError(op, "book", 0, err)
	}
	l.logger.Info("book added", "op", op, "book_id", id, "staff_id", s.StaffID, "session", s.ID)
	return id, nil
}

// Adjust replaces the editable fields of a book, stock included. The editor
// must still exist; the Update entry is attributed to them.
func (l *InventoryLedger) Adjust(ctx context.Context, s Session, bookID int64, f BookFields) error {
	const op = "adjust book"
	if err := validateBook(op, f); err != nil {
		return err
	}

	err := l.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeTx(ctx, tx, op, s, PermCatalogEdit); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE books SET name=?, genre=?, quantity=?, author=?, publisher=?, price=?,
            updated_by=?, updated_at=? WHERE id=?`,
			f.Name, f.Genre, f.Quantity, f.Author, f.Publisher, f.Price, s.StaffID, l.db.now(), bookID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return newError(ErrNotFound, op, "book", bookID)
		}
		return l.audit.appendTx(ctx, tx, bookID, LogUpdate, s.StaffID)
	})
	if err != nil {
		return storeError(op, "book", bookID, err)
	}
	l.logger.Info("book adjusted", "op", op, "book_id", bookID, "quantity", f.Quantity, "staff_id", s.StaffID)
	return nil
}

// Remove deletes a book. The Delete entry is written first and needs a
// Manager to be attributed to; books with order history cannot be removed.
// The caller's role is re-read in the transaction; an account that no
// longer exists falls back to the session's role.
func (l *InventoryLedger) Remove(ctx context.Context, s Session, bookID int64) error {
	const op = "remove book"
	var actor int64
	err := l.db.withTx(ctx, func(tx *sql.Tx) error {
		role, err := staffRole(ctx, tx, op, s.StaffID)
		switch {
		case errors.Is(err, ErrNotFound):
			role = s.Role
		case err != nil:
			return err
		}
		if !Authorize(role, PermBookDelete) {
			return newError(ErrForbidden, op, "staff", s.StaffID)
		}

		ok, err := exists(ctx, tx, `SELECT 1 FROM books WHERE id=?`, bookID)
		if err != nil {
			return err
		}
		if !ok {
			return newError(ErrNotFound, op, "book", bookID)
		}
		if actor, err = l.audit.deleteActorTx(ctx, tx, s.StaffID); err != nil {
			if errors.Is(err, ErrNoManagerForAudit) {
				return newError(ErrNoManagerForAudit, op, "book", bookID)
			}
			return err
		}
		if err := l.audit.appendTx(ctx, tx, bookID, LogDelete, actor); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM books WHERE id=?`, bookID)
		return err
	})
	if err != nil {
		return storeError(op, "book", bookID, err)
	}
	l.logger.Info("book removed", "op", op, "book_id", bookID, "staff_id", s.StaffID, "attributed_to", actor)
	return nil
}

// CheckAvailable reports whether the book has at least qty copies in stock.
func (l *InventoryLedger) CheckAvailable(ctx context.Context, bookID int64, qty int) (bool, error) {
	const op = "check stock"
	var stock int
	err := l.db.db.QueryRowContext(ctx, `SELECT quantity FROM books WHERE id=?`, bookID).Scan(&stock)
	if err == sql.ErrNoRows {
		return false, newError(ErrNotFound, op, "book", bookID)
	}
	if err != nil {
		return false, storeError(op, "book", bookID, err)
	}
	return stock >= qty, nil
}

// decrementTx removes qty copies inside the caller's transaction. The row is
// only touched when enough stock remains, so concurrent sessions cannot
// oversell; any failure must abort the caller's whole unit.
func (l *InventoryLedger) decrementTx(ctx context.Context, tx *sql.Tx, s Session, bookID int64, qty int) error {
	const op = "decrement stock"
	res, err := tx.StmtContext(ctx, l.db.decrementStmt).ExecContext(ctx, qty, s.StaffID, l.db.now(), bookID, qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		ok, err := exists(ctx, tx, `SELECT 1 FROM books WHERE id=?`, bookID)
		if err != nil {
			return err
		}
		if !ok {
			return newError(ErrNotFound, op, "book", bookID)
		}
		return newError(ErrInsufficientStock, op, "book", bookID)
	}
	return l.audit.appendTx(ctx, tx, bookID, LogUpdate, s.StaffID)
}

// GetBook fetches one book.
func (l *InventoryLedger) GetBook(ctx context.Context, id int64) (*Book, error) {
	b, err := scanBook(l.db.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id=?`, id))
	if err == sql.ErrNoRows {
		return nil, newError(ErrNotFound, "get book", "book", id)
	}
	if err != nil {
		return nil, storeError("get book", "book", id, err)
	}
	return b, nil
}

func (l *InventoryLedger) ListBooks(ctx context.Context) ([]*Book, error) {
	return l.queryBooks(ctx, "list books", `SELECT `+bookColumns+` FROM books ORDER BY id`)
}

// ListInStock lists books that can currently be ordered.
func (l *InventoryLedger) ListInStock(ctx context.Context) ([]*Book, error) {
	return l.queryBooks(ctx, "list in stock", `SELECT `+bookColumns+` FROM books WHERE quantity > 0 ORDER BY id`)
}

// SearchBooks matches q as a substring of name, author, genre or publisher.
func (l *InventoryLedger) SearchBooks(ctx context.Context, q string) ([]*Book, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return l.ListBooks(ctx)
	}
	pat := "%" + escapeLike(q) + "%"
	return l.queryBooks(ctx, "search books", `SELECT `+bookColumns+` FROM books
        WHERE name LIKE ? ESCAPE '!' OR author LIKE ? ESCAPE '!' OR genre LIKE ? ESCAPE '!' OR publisher LIKE ? ESCAPE '!'
        ORDER BY id`, pat, pat, pat, pat)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return r.Replace(s)
}

func (l *InventoryLedger) queryBooks(ctx context.Context, op, query string, args ...any) ([]*Book, error) {
	rows, err := l.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, "book", 0, err)
	}
	defer rows.Close()

	var out []*Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, storeError(op, "book", 0, err)
		}
		out = append(out, b)
	}
	return out, storeError(op, "book", 0, rows.Err())
}
