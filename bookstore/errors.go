package bookstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// Error kinds. Match them with errors.Is; the concrete error is always *Error.
var (
	ErrValidation          = errors.New("invalid field")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrNoManagerForAudit   = errors.New("no manager available for audit attribution")
	ErrLastManager         = errors.New("cannot delete the last manager")
	ErrDuplicate           = errors.New("duplicate value for unique field")
	ErrReferentialConflict = errors.New("referenced by dependent rows")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrNotFound            = errors.New("not found")
	ErrAuthFailure         = errors.New("invalid credentials")
	ErrForbidden           = errors.New("forbidden")
	ErrSelfDeletion        = errors.New("cannot delete the account in use")
	ErrStore               = errors.New("store operation failed")
)

// Error carries the context of a failed operation. It never holds secrets.
type Error struct {
	Kind   error
	Op     string // e.g. "commit order"
	Entity string // e.g. "book"
	ID     int64
	Field  string
	Err    error // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
		if e.ID != 0 {
			fmt.Fprintf(&b, " %d", e.ID)
		}
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op, entity string, id int64) *Error {
	return &Error{Kind: kind, Op: op, Entity: entity, ID: id}
}

func invalidField(op, field string) *Error {
	return &Error{Kind: ErrValidation, Op: op, Field: field}
}

// storeError classifies a driver error. Errors that are already *Error pass
// through untouched.
func storeError(op, entity string, id int64, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Entity: entity, ID: id, Err: err}
}

func classify(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrDuplicate
		case sqlite3.ErrConstraintForeignKey:
			return ErrReferentialConflict
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return ErrValidation
		}
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
			return ErrStoreUnavailable
		}
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062:
			return ErrDuplicate
		case 1451, 1452:
			return ErrReferentialConflict
		case 3819, 1048:
			return ErrValidation
		case 1205, 1213, 2002, 2006, 2013:
			return ErrStoreUnavailable
		}
	}

	var ne net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne):
		return ErrStoreUnavailable
	}
	return ErrStore
}
