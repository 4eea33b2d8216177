package bookstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the staff role stored on every staff row.
type Role string

const (
	RoleManager   Role = "Manager"
	RoleClerk     Role = "Clerk"
	RoleLibrarian Role = "Librarian"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleClerk, RoleLibrarian:
		return true
	}
	return false
}

// OrderStatus is the state of an order. Completed and Cancelled are terminal.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusCompleted OrderStatus = "Completed"
	StatusCancelled OrderStatus = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// LogAction is the kind of catalog mutation recorded in the book log.
type LogAction string

const (
	LogInsert LogAction = "Insert"
	LogUpdate LogAction = "Update"
	LogDelete LogAction = "Delete"
)

// Book is a catalog row. Quantity is the authoritative stock count.
type Book struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Genre     string          `json:"genre"`
	Quantity  int             `json:"quantity"`
	Author    string          `json:"author"`
	Publisher string          `json:"publisher"`
	Price     decimal.Decimal `json:"price"`
	UpdatedBy int64           `json:"updated_by"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BookFields holds the editable columns of a book.
type BookFields struct {
	Name      string
	Genre     string
	Quantity  int
	Author    string
	Publisher string
	Price     decimal.Decimal
}

// Staff is a back-office account.
type Staff struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	HireDate     time.Time `json:"hire_date"`
	PasswordHash string    `json:"-"` // never serialized
}

// Customer is a customer account that orders are placed against.
type Customer struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Membership bool   `json:"membership"`
}

// Order is a committed cart. TotalAmount is fixed at creation.
type Order struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customer_id"`
	StaffID     int64           `json:"staff_id"`
	OrderDate   time.Time       `json:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
	Items       []OrderItem     `json:"items,omitempty"`
}

// OrderItem is one committed cart line.
type OrderItem struct {
	ID       int64           `json:"id"`
	OrderID  int64           `json:"order_id"`
	BookID   int64           `json:"book_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Subtotal returns quantity × price.
func (it OrderItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// BookLogEntry is one append-only audit record.
type BookLogEntry struct {
	ID     int64     `json:"id"`
	BookID int64     `json:"book_id"`
	Action LogAction `json:"action"`
	Actor  int64     `json:"actor"`
	At     time.Time `json:"at"`
}

// Session identifies the authenticated staff member behind a call.
type Session struct {
	ID      uuid.UUID `json:"id"`
	StaffID int64     `json:"staff_id"`
	Name    string    `json:"name"`
	Role    Role      `json:"role"`
}
