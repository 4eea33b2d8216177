package bookstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Options tunes a BookstoreManager. The zero value is usable.
type Options struct {
	BcryptCost int
	Logger     *slog.Logger
}

// BookstoreManager is a thin façade over the Database and the components
// built on it, keeping CLI code simple.
type BookstoreManager struct {
	db     *Database
	logger *slog.Logger

	Auth      *AuthManager
	Audit     *AuditLog
	Inventory *InventoryLedger
	Orders    *OrderWorkflow
	Staff     *StaffDirectory
	Customers *CustomerBook
}

// NewBookstoreManager opens (or creates) the SQLite database at dbPath.
func NewBookstoreManager(dbPath string, opts Options) (*BookstoreManager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	return NewBookstoreManagerWithDB(db, opts), nil
}

// NewBookstoreManagerWithDB wires every component over an open Database.
func NewBookstoreManagerWithDB(db *Database, opts Options) *BookstoreManager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	audit := &AuditLog{db: db}
	auth := NewAuthManager(db, opts.BcryptCost, logger)
	inv := &InventoryLedger{db: db, audit: audit, logger: logger}
	return &BookstoreManager{
		db:        db,
		logger:    logger,
		Auth:      auth,
		Audit:     audit,
		Inventory: inv,
		Orders:    &OrderWorkflow{db: db, inventory: inv, logger: logger},
		Staff:     &StaffDirectory{db: db, auth: auth, logger: logger},
		Customers: &CustomerBook{db: db, logger: logger},
	}
}

// Close closes the underlying database.
func (m *BookstoreManager) Close() error { return m.db.Close() }

// ------------------ Sessions ------------------

func (m *BookstoreManager) Login(ctx context.Context, email, password string) (Session, error) {
	return m.Auth.Verify(ctx, email, password)
}

// ResumeSession refreshes a session restored from a token against the
// current staff row. A deleted account can no longer act.
func (m *BookstoreManager) ResumeSession(ctx context.Context, s Session) (Session, error) {
	var (
		name string
		role Role
	)
	err := m.db.db.QueryRowContext(ctx, `SELECT name, role FROM staff WHERE id=?`, s.StaffID).Scan(&name, &role)
	if err != nil {
		if se := storeError("resume session", "staff", s.StaffID, err); errors.Is(se, ErrStoreUnavailable) {
			return Session{}, se
		}
		return Session{}, &Error{Kind: ErrAuthFailure, Op: "resume session", Entity: "staff", ID: s.StaffID}
	}
	s.Name, s.Role = name, role
	return s, nil
}

// ------------------ Orders ------------------

// LineRequest asks for Quantity copies of BookID.
type LineRequest struct {
	BookID   int64
	Quantity int
}

// PlaceOrder builds a cart from lines and commits it in one step.
func (m *BookstoreManager) PlaceOrder(ctx context.Context, s Session, customerID int64, lines []LineRequest, status OrderStatus) (int64, error) {
	cart := m.Orders.NewCart()
	for _, l := range lines {
		if _, err := cart.Add(ctx, l.BookID, l.Quantity); err != nil {
			return 0, err
		}
	}
	return m.Orders.Commit(ctx, s, customerID, cart, status)
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	return fmt.Sprintf("%-5d %-30s %-20s %-15s %5d %10s", b.ID, b.Name, b.Author, b.Genre, b.Quantity, b.Price.StringFixed(2))
}

// PrettyOrder formats an order header for lists.
func PrettyOrder(o *Order) string {
	return fmt.Sprintf("%-5d customer %-5d staff %-5d %-10s %10s  %s",
		o.ID, o.CustomerID, o.StaffID, o.Status, o.TotalAmount.StringFixed(2), o.OrderDate.Format("2006-01-02 15:04"))
}
