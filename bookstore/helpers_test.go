package bookstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	require.NoError(t, err, "new db")
	t.Cleanup(func() { db.Close() })
	return db
}

func tempManager(t *testing.T) *BookstoreManager {
	t.Helper()
	return NewBookstoreManagerWithDB(tempDB(t), Options{BcryptCost: bcrypt.MinCost})
}

var seq atomic.Int64

// uniquePhone returns a fresh 10-digit phone number.
func uniquePhone() string { return fmt.Sprintf("555%07d", seq.Add(1)) }

func sessionFor(id int64, name string, role Role) Session {
	return Session{ID: uuid.New(), StaffID: id, Name: name, Role: role}
}

// seedManager bootstraps the first Manager and returns their session.
func seedManager(t *testing.T, m *BookstoreManager) Session {
	t.Helper()
	id, created, err := m.Staff.EnsureManager(context.Background(), StaffInput{
		Name: "Ada Admin", Email: "admin@example.com", Phone: uniquePhone(), Password: "secret",
	})
	require.NoError(t, err)
	require.True(t, created)
	return sessionFor(id, "Ada Admin", RoleManager)
}

func seedStaff(t *testing.T, m *BookstoreManager, by Session, name string, role Role) Session {
	t.Helper()
	n := seq.Add(1)
	id, err := m.Staff.AddStaff(context.Background(), by, StaffInput{
		Name: name, Role: role, Email: fmt.Sprintf("staff%d@example.com", n), Phone: uniquePhone(), Password: "pw",
	})
	require.NoError(t, err)
	return sessionFor(id, name, role)
}

func seedBook(t *testing.T, m *BookstoreManager, s Session, qty int, price string) int64 {
	t.Helper()
	id, err := m.Inventory.AddBook(context.Background(), s, BookFields{
		Name: "Dune", Genre: "SciFi", Quantity: qty, Author: "Frank Herbert", Publisher: "Chilton",
		Price: decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return id
}

func seedCustomer(t *testing.T, m *BookstoreManager, s Session) int64 {
	t.Helper()
	id, err := m.Customers.AddCustomer(context.Background(), s, CustomerInput{Name: "Carl Customer", Phone: uniquePhone()})
	require.NoError(t, err)
	return id
}

func stockOf(t *testing.T, m *BookstoreManager, bookID int64) int {
	t.Helper()
	b, err := m.Inventory.GetBook(context.Background(), bookID)
	require.NoError(t, err)
	return b.Quantity
}

func tableCount(t *testing.T, db *Database, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
