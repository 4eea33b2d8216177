package bookstore

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStock map[int64]*Book

func (f fakeStock) GetBook(_ context.Context, id int64) (*Book, error) {
	b, ok := f[id]
	if !ok {
		return nil, newError(ErrNotFound, "get book", "book", id)
	}
	cp := *b
	return &cp, nil
}

func TestCartSnapshotsPriceAndTotals(t *testing.T) {
	stock := fakeStock{
		1: {ID: 1, Name: "Emma", Quantity: 4, Price: decimal.RequireFromString("10.25")},
		2: {ID: 2, Name: "Ulysses", Quantity: 1, Price: decimal.RequireFromString("3")},
	}
	cart := NewCart(stock)
	ctx := context.Background()

	line, err := cart.Add(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Emma", line.BookName)

	_, err = cart.Add(ctx, 2, 1)
	require.NoError(t, err)
	_, err = cart.Add(ctx, 1, 1)
	require.NoError(t, err)

	// Later price changes do not affect lines already in the cart.
	stock[1].Price = decimal.RequireFromString("99")

	require.Equal(t, 3, cart.Len(), "lines for the same book stay separate")
	items, total := cart.Total()
	assert.Equal(t, 4, items)
	assert.True(t, total.Equal(decimal.RequireFromString("33.75")), "total %s", total)

	lines := cart.Lines()
	lines[0].Quantity = 100
	assert.Equal(t, 2, cart.Lines()[0].Quantity, "Lines returns a copy")
}

func TestCartAddRejections(t *testing.T) {
	cart := NewCart(fakeStock{1: {ID: 1, Name: "Emma", Quantity: 2, Price: decimal.NewFromInt(1)}})
	ctx := context.Background()

	for _, qty := range []int{0, -1} {
		_, err := cart.Add(ctx, 1, qty)
		require.ErrorIs(t, err, ErrValidation, "qty %d", qty)
	}
	_, err := cart.Add(ctx, 1, 3)
	require.ErrorIs(t, err, ErrInsufficientStock)
	_, err = cart.Add(ctx, 7, 1)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, cart.Len())
}

func TestCartClear(t *testing.T) {
	cart := NewCart(fakeStock{1: {ID: 1, Quantity: 5, Price: decimal.NewFromInt(2)}})
	_, err := cart.Add(context.Background(), 1, 5)
	require.NoError(t, err)

	cart.Clear()
	cart.Clear()
	assert.Zero(t, cart.Len())
	items, total := cart.Total()
	assert.Zero(t, items)
	assert.True(t, total.IsZero())
}
