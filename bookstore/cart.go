package bookstore

import (
	"context"

	"github.com/shopspring/decimal"
)

// StockLookup is the read side of the catalog a Cart validates against.
type StockLookup interface {
	GetBook(ctx context.Context, id int64) (*Book, error)
}

// CartLine is one candidate order line. UnitPrice is the price when the line
// was added.
type CartLine struct {
	BookID    int64
	BookName  string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart collects lines for one staff session. It is not safe for concurrent
// use and nothing in it is persisted or reserved; stock is checked again
// when the cart is committed.
type Cart struct {
	books StockLookup
	lines []CartLine
}

func NewCart(books StockLookup) *Cart { return &Cart{books: books} }

// Add appends a line for qty copies of bookID. Lines for the same book are
// kept separate.
func (c *Cart) Add(ctx context.Context, bookID int64, qty int) (CartLine, error) {
	const op = "add to cart"
	if qty <= 0 {
		return CartLine{}, invalidField(op, "quantity")
	}
	b, err := c.books.GetBook(ctx, bookID)
	if err != nil {
		return CartLine{}, err
	}
	if qty > b.Quantity {
		return CartLine{}, newError(ErrInsufficientStock, op, "book", bookID)
	}
	line := CartLine{BookID: b.ID, BookName: b.Name, Quantity: qty, UnitPrice: b.Price}
	c.lines = append(c.lines, line)
	return line, nil
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

// Total returns the number of copies and the amount across all lines.
func (c *Cart) Total() (int, decimal.Decimal) {
	items, amount := 0, decimal.Zero
	for _, l := range c.lines {
		items += l.Quantity
		amount = amount.Add(l.Subtotal())
	}
	return items, amount
}

// Clear drops every line. Clearing an empty cart is a no-op.
func (c *Cart) Clear() { c.lines = nil }
