package main

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"bookstore-backoffice/bookstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestShellPlacesOrder(t *testing.T) {
	ctx := context.Background()
	mgr, err := bookstore.NewBookstoreManager(filepath.Join(t.TempDir(), "shell.db"), bookstore.Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	_, _, err = mgr.Staff.EnsureManager(ctx, bookstore.StaffInput{
		Name: "Ada Admin", Email: "admin@example.com", Phone: "5550000001", Password: "secret",
	})
	require.NoError(t, err)
	s, err := mgr.Login(ctx, "admin@example.com", "secret")
	require.NoError(t, err)

	book, err := mgr.Inventory.AddBook(ctx, s, bookstore.BookFields{
		Name: "Emma", Genre: "Classic", Quantity: 3, Author: "Jane Austen", Publisher: "Penguin", Price: decimal.NewFromInt(6),
	})
	require.NoError(t, err)
	cust, err := mgr.Customers.AddCustomer(ctx, s, bookstore.CustomerInput{Name: "Carl Customer", Phone: "5550000002"})
	require.NoError(t, err)

	script := strings.Join([]string{
		"checkout", // no customer yet
		"customer", "1",
		"check", "1", "9",
		"add", "1", "9",
		"add", "1", "2",
		"cart",
		"checkout",
		"exit",
	}, "\n") + "\n"

	var out bytes.Buffer
	sh := &shell{mgr: mgr, s: s, cart: mgr.Orders.NewCart(), sc: bufio.NewScanner(strings.NewReader(script)), out: &out}
	require.NoError(t, sh.run(ctx))

	text := out.String()
	assert.Contains(t, text, "Pick a customer first")
	assert.Contains(t, text, "Ordering for Carl Customer.")
	assert.Contains(t, text, "Not enough stock of book 1 for 9.")
	assert.Contains(t, text, "insufficient stock")
	assert.Contains(t, text, "2 item(s), total 12.00")
	assert.Contains(t, text, "Order 1 saved as Completed.")

	b, err := mgr.Inventory.GetBook(ctx, book)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Quantity)

	orders, err := mgr.Orders.ListOrders(ctx, bookstore.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, cust, orders[0].CustomerID)
}
