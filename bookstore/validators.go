package bookstore

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	nameRe  = regexp.MustCompile(`^[A-Za-z\s]{2,50}$`)
	phoneRe = regexp.MustCompile(`^\+?\d{10,15}$`)
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ValidName accepts 2 to 50 ASCII letters and spaces.
func ValidName(s string) bool { return nameRe.MatchString(strings.TrimSpace(s)) }

// ValidPhone accepts an optional leading '+' followed by 10 to 15 digits.
func ValidPhone(s string) bool { return phoneRe.MatchString(strings.TrimSpace(s)) }

func ValidEmail(s string) bool { return emailRe.MatchString(strings.TrimSpace(s)) }

// ValidPrice accepts any non-negative decimal.
func ValidPrice(s string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	return err == nil && !d.IsNegative()
}

// ValidQuantity accepts a positive integer, as required for order lines.
func ValidQuantity(s string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && n > 0
}

// ValidStock accepts a non-negative integer, as allowed for catalog stock.
func ValidStock(s string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && n >= 0
}

// validateBook checks typed book fields before they reach the store.
func validateBook(op string, f BookFields) error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return invalidField(op, "name")
	case strings.TrimSpace(f.Genre) == "":
		return invalidField(op, "genre")
	case strings.TrimSpace(f.Author) == "":
		return invalidField(op, "author")
	case strings.TrimSpace(f.Publisher) == "":
		return invalidField(op, "publisher")
	case f.Quantity < 0:
		return invalidField(op, "quantity")
	case f.Price.IsNegative():
		return invalidField(op, "price")
	}
	return nil
}

// ParseBookFields validates raw form input and converts it to BookFields.
func ParseBookFields(name, genre, quantity, author, publisher, price string) (BookFields, error) {
	const op = "parse book"
	if !ValidStock(quantity) {
		return BookFields{}, invalidField(op, "quantity")
	}
	if !ValidPrice(price) {
		return BookFields{}, invalidField(op, "price")
	}
	qty, _ := strconv.Atoi(strings.TrimSpace(quantity))
	p, _ := decimal.NewFromString(strings.TrimSpace(price))
	f := BookFields{
		Name:      strings.TrimSpace(name),
		Genre:     strings.TrimSpace(genre),
		Quantity:  qty,
		Author:    strings.TrimSpace(author),
		Publisher: strings.TrimSpace(publisher),
		Price:     p,
	}
	if err := validateBook(op, f); err != nil {
		return BookFields{}, err
	}
	return f, nil
}

// StaffInput is the editable data of a staff account. Password may be empty
// on update to keep the current digest.
type StaffInput struct {
	Name     string
	Role     Role
	Email    string
	Phone    string
	Password string
}

func validateStaff(op string, in StaffInput, requirePassword bool) error {
	switch {
	case !ValidName(in.Name):
		return invalidField(op, "name")
	case !in.Role.Valid():
		return invalidField(op, "role")
	case !ValidEmail(in.Email):
		return invalidField(op, "email")
	case !ValidPhone(in.Phone):
		return invalidField(op, "phone")
	case requirePassword && in.Password == "":
		return invalidField(op, "password")
	}
	return nil
}

// CustomerInput is the editable data of a customer account. Email is optional.
type CustomerInput struct {
	Name       string
	Phone      string
	Email      string
	Membership bool
}

func validateCustomer(op string, in CustomerInput) error {
	switch {
	case !ValidName(in.Name):
		return invalidField(op, "name")
	case !ValidPhone(in.Phone):
		return invalidField(op, "phone")
	case strings.TrimSpace(in.Email) != "" && !ValidEmail(in.Email):
		return invalidField(op, "email")
	}
	return nil
}
