package bookstore

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Permission names an action gated by role.
type Permission string

const (
	PermCatalogEdit Permission = "catalog.edit"
	PermBookDelete  Permission = "book.delete"
	PermCustomers   Permission = "customers.manage"
	PermPlaceOrder  Permission = "orders.place"
	PermManageStaff Permission = "staff.manage"
	PermViewReports Permission = "reports.view"
)

// managerOnly lists the permissions that only a Manager holds. Every other
// permission is shared by all roles.
var managerOnly = map[Permission]bool{
	PermManageStaff: true,
	PermViewReports: true,
}

// Authorize reports whether role may perform perm.
func Authorize(role Role, perm Permission) bool {
	if !role.Valid() {
		return false
	}
	if managerOnly[perm] {
		return role == RoleManager
	}
	return true
}

// AuthManager verifies staff credentials.
type AuthManager struct {
	db     *Database
	cost   int
	logger *slog.Logger

	dummyOnce sync.Once
	dummy     []byte
}

func NewAuthManager(db *Database, cost int, logger *slog.Logger) *AuthManager {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthManager{db: db, cost: cost, logger: logger}
}

// Hash returns a bcrypt digest of password.
func (a *AuthManager) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", &Error{Kind: ErrValidation, Op: "hash password", Field: "password"}
	}
	return string(b), nil
}

// checkPassword compares password against a stored digest. Bare 64-char hex
// digests are the SHA-256 form used by older staff rows.
func checkPassword(digest, password string) bool {
	if isLegacyDigest(digest) {
		sum := sha256.Sum256([]byte(password))
		want := hex.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(digest))) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

func isLegacyDigest(digest string) bool {
	if len(digest) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}

// Verify checks email and password and returns a fresh session. Unknown
// accounts and wrong passwords both yield ErrAuthFailure.
func (a *AuthManager) Verify(ctx context.Context, email, password string) (Session, error) {
	const op = "verify credentials"
	email = strings.TrimSpace(email)

	var (
		id     int64
		name   string
		role   Role
		digest string
	)
	err := a.db.db.QueryRowContext(ctx,
		`SELECT id, name, role, password_hash FROM staff WHERE email=?`, email).
		Scan(&id, &name, &role, &digest)
	if err == sql.ErrNoRows {
		// Spend comparable time so unknown emails are not distinguishable.
		a.dummyOnce.Do(func() {
			a.dummy, _ = bcrypt.GenerateFromPassword([]byte("unused"), a.cost)
		})
		_ = bcrypt.CompareHashAndPassword(a.dummy, []byte(password))
		a.logger.Info("login rejected", "op", op)
		return Session{}, &Error{Kind: ErrAuthFailure, Op: op}
	}
	if err != nil {
		return Session{}, storeError(op, "staff", 0, err)
	}
	if !checkPassword(digest, password) {
		a.logger.Info("login rejected", "op", op, "staff_id", id)
		return Session{}, &Error{Kind: ErrAuthFailure, Op: op}
	}

	s := Session{ID: uuid.New(), StaffID: id, Name: name, Role: role}
	a.logger.Info("login", "op", op, "staff_id", id, "role", role, "session", s.ID)
	return s, nil
}
