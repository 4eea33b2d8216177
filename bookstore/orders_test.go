package bookstore

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitCompletedTakesStock(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	clerk := seedStaff(t, m, admin, "Clara Clerk", RoleClerk)
	book := seedBook(t, m, admin, 5, "12.50")
	cust := seedCustomer(t, m, clerk)

	cart := m.Orders.NewCart()
	_, err := cart.Add(ctx, book, 3)
	require.NoError(t, err)

	id, err := m.Orders.Commit(ctx, clerk, cust, cart, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 2, stockOf(t, m, book))
	assert.Zero(t, cart.Len(), "cart cleared after commit")

	o, err := m.Orders.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Equal(t, clerk.StaffID, o.StaffID)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("37.50")), "total %s", o.TotalAmount)
	require.Len(t, o.Items, 1)
	assert.Equal(t, book, o.Items[0].BookID)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.True(t, OrderTotal(o.Items).Equal(o.TotalAmount))

	entries, err := m.Audit.Entries(ctx, book)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, LogInsert, entries[0].Action)
	assert.Equal(t, LogUpdate, entries[1].Action)
	assert.Equal(t, clerk.StaffID, entries[1].Actor)
}

func TestCommitKeepsCartPrices(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	book := seedBook(t, m, admin, 5, "10")
	cust := seedCustomer(t, m, admin)

	cart := m.Orders.NewCart()
	_, err := cart.Add(ctx, book, 2)
	require.NoError(t, err)

	b, err := m.Inventory.GetBook(ctx, book)
	require.NoError(t, err)
	require.NoError(t, m.Inventory.Adjust(ctx, admin, book, BookFields{
		Name: b.Name, Genre: b.Genre, Quantity: b.Quantity, Author: b.Author, Publisher: b.Publisher,
		Price: decimal.NewFromInt(99),
	}))

	id, err := m.Orders.Commit(ctx, admin, cust, cart, StatusCompleted)
	require.NoError(t, err)

	o, err := m.Orders.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(20)), "total %s", o.TotalAmount)
	require.Len(t, o.Items, 1)
	assert.True(t, o.Items[0].Price.Equal(decimal.NewFromInt(10)), "item price %s", o.Items[0].Price)
	assert.Equal(t, 3, stockOf(t, m, book))
}

func TestCartRejectsMoreThanStock(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	book := seedBook(t, m, admin, 5, "9.99")

	cart := m.Orders.NewCart()
	_, err := cart.Add(ctx, book, 10)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Zero(t, cart.Len())
	assert.Equal(t, 5, stockOf(t, m, book))
}

func TestCommitRechecksStockAndRollsBack(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	plenty := seedBook(t, m, admin, 10, "5")
	scarce := seedBook(t, m, admin, 5, "7")
	cust := seedCustomer(t, m, admin)

	cart := m.Orders.NewCart()
	_, err := cart.Add(ctx, plenty, 4)
	require.NoError(t, err)
	_, err = cart.Add(ctx, scarce, 3)
	require.NoError(t, err)

	// Stock drops after the line was added.
	b, err := m.Inventory.GetBook(ctx, scarce)
	require.NoError(t, err)
	require.NoError(t, m.Inventory.Adjust(ctx, admin, scarce, BookFields{
		Name: b.Name, Genre: b.Genre, Quantity: 2, Author: b.Author, Publisher: b.Publisher, Price: b.Price,
	}))

	_, err = m.Orders.Commit(ctx, admin, cust, cart, StatusCompleted)
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 10, stockOf(t, m, plenty), "earlier line rolled back")
	assert.Equal(t, 2, stockOf(t, m, scarce))
	assert.Zero(t, tableCount(t, m.db, "orders"))
	assert.Zero(t, tableCount(t, m.db, "order_items"))
	assert.Equal(t, 2, cart.Len(), "cart kept on failure")

	entries, err := m.Audit.Entries(ctx, plenty)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no Update entry survives the rollback")
}

func TestCommitPendingThenCancel(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	book := seedBook(t, m, admin, 4, "3.00")
	cust := seedCustomer(t, m, admin)

	id, err := m.PlaceOrder(ctx, admin, cust, []LineRequest{{BookID: book, Quantity: 2}}, StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 4, stockOf(t, m, book))

	require.NoError(t, m.Orders.Cancel(ctx, admin, id))
	o, err := m.Orders.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, 4, stockOf(t, m, book))

	require.ErrorIs(t, m.Orders.Complete(ctx, admin, id), ErrInvalidTransition)
	require.ErrorIs(t, m.Orders.Cancel(ctx, admin, id), ErrInvalidTransition)
	assert.Equal(t, 4, stockOf(t, m, book))
}

func TestCompletePendingRechecksStock(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	book := seedBook(t, m, admin, 2, "10")
	cust := seedCustomer(t, m, admin)

	id, err := m.PlaceOrder(ctx, admin, cust, []LineRequest{{BookID: book, Quantity: 2}}, StatusPending)
	require.NoError(t, err)

	require.NoError(t, m.Orders.Complete(ctx, admin, id))
	assert.Equal(t, 0, stockOf(t, m, book))

	err = m.Orders.Complete(ctx, admin, id)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, stockOf(t, m, book), "never decremented twice")
}

func TestCompletePendingFailsWhenStockGone(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	book := seedBook(t, m, admin, 2, "10")
	cust := seedCustomer(t, m, admin)

	pending, err := m.PlaceOrder(ctx, admin, cust, []LineRequest{{BookID: book, Quantity: 2}}, StatusPending)
	require.NoError(t, err)
	_, err = m.PlaceOrder(ctx, admin, cust, []LineRequest{{BookID: book, Quantity: 1}}, StatusCompleted)
	require.NoError(t, err)

	require.ErrorIs(t, m.Orders.Complete(ctx, admin, pending), ErrInsufficientStock)
	o, err := m.Orders.GetOrder(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status, "status change rolled back with the failed decrement")
	assert.Equal(t, 1, stockOf(t, m, book))
}

func TestCommitValidation(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	book := seedBook(t, m, admin, 3, "1")
	cust := seedCustomer(t, m, admin)

	_, err := m.Orders.Commit(ctx, admin, cust, m.Orders.NewCart(), StatusCompleted)
	require.ErrorIs(t, err, ErrValidation, "empty cart")

	cart := m.Orders.NewCart()
	_, err = cart.Add(ctx, book, 1)
	require.NoError(t, err)

	_, err = m.Orders.Commit(ctx, admin, cust, cart, StatusCancelled)
	require.ErrorIs(t, err, ErrValidation, "cannot commit as Cancelled")

	_, err = m.Orders.Commit(ctx, admin, 9999, cart, StatusCompleted)
	require.ErrorIs(t, err, ErrNotFound, "unknown customer")

	_, err = m.Orders.Commit(ctx, sessionFor(9999, "Ghost", RoleClerk), cust, cart, StatusCompleted)
	require.ErrorIs(t, err, ErrNotFound, "unknown staff")

	assert.Equal(t, 3, stockOf(t, m, book))
	assert.Zero(t, tableCount(t, m.db, "orders"))
	assert.Equal(t, 1, cart.Len())
}

func TestTransitionUnknownOrder(t *testing.T) {
	m := tempManager(t)
	admin := seedManager(t, m)
	require.ErrorIs(t, m.Orders.Complete(context.Background(), admin, 42), ErrNotFound)
	require.ErrorIs(t, m.Orders.Cancel(context.Background(), admin, 42), ErrNotFound)
}

func TestListOrdersByStatus(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	book := seedBook(t, m, admin, 10, "2")
	cust := seedCustomer(t, m, admin)

	line := []LineRequest{{BookID: book, Quantity: 1}}
	p1, err := m.PlaceOrder(ctx, admin, cust, line, StatusPending)
	require.NoError(t, err)
	_, err = m.PlaceOrder(ctx, admin, cust, line, StatusCompleted)
	require.NoError(t, err)
	p2, err := m.PlaceOrder(ctx, admin, cust, line, StatusPending)
	require.NoError(t, err)

	pending, err := m.Orders.ListOrders(ctx, StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, p2, pending[0].ID, "newest first")
	assert.Equal(t, p1, pending[1].ID)

	all, err := m.Orders.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = m.Orders.ListOrders(ctx, OrderStatus("Shipped"))
	require.ErrorIs(t, err, ErrValidation)
}

// TestConcurrentCommitsNeverOversell races carts that each fit the stock on
// their own but not together.
func TestConcurrentCommitsNeverOversell(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	book := seedBook(t, m, admin, 5, "4")
	cust := seedCustomer(t, m, admin)

	const workers = 4
	carts := make([]*Cart, workers)
	for i := range carts {
		carts[i] = m.Orders.NewCart()
		_, err := carts[i].Add(ctx, book, 3)
		require.NoError(t, err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(c *Cart) {
			defer wg.Done()
			_, err := m.Orders.Commit(ctx, admin, cust, c, StatusCompleted)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}(carts[i])
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 2, stockOf(t, m, book))
	assert.Equal(t, 1, tableCount(t, m.db, "orders"))
}

func TestConcurrentCompleteDecrementsOnce(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	book := seedBook(t, m, admin, 6, "4")
	cust := seedCustomer(t, m, admin)

	id, err := m.PlaceOrder(ctx, admin, cust, []LineRequest{{BookID: book, Quantity: 2}}, StatusPending)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.Orders.Complete(ctx, admin, id)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 4, stockOf(t, m, book))
}

func TestCommitOversizedLineFailsWholeUnit(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)
	book := seedBook(t, m, admin, 5, "2")
	cust := seedCustomer(t, m, admin)

	// A stale view of the catalog lets the line into the cart.
	stale := fakeStock{book: {ID: book, Name: "Dune", Quantity: 10, Price: decimal.NewFromInt(2)}}
	cart := NewCart(stale)
	_, err := cart.Add(ctx, book, 10)
	require.NoError(t, err)

	_, err = m.Orders.Commit(ctx, admin, cust, cart, StatusCompleted)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, stockOf(t, m, book))
	assert.Zero(t, tableCount(t, m.db, "orders"))
	assert.Zero(t, tableCount(t, m.db, "order_items"))
}
