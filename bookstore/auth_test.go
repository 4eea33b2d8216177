package bookstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeTable(t *testing.T) {
	shared := []Permission{PermCatalogEdit, PermBookDelete, PermCustomers, PermPlaceOrder}
	for _, role := range []Role{RoleManager, RoleClerk, RoleLibrarian} {
		for _, p := range shared {
			assert.True(t, Authorize(role, p), "%s %s", role, p)
		}
	}
	for _, p := range []Permission{PermManageStaff, PermViewReports} {
		assert.True(t, Authorize(RoleManager, p))
		assert.False(t, Authorize(RoleClerk, p))
		assert.False(t, Authorize(RoleLibrarian, p))
	}
	assert.False(t, Authorize(Role("Owner"), PermPlaceOrder))
}

func TestVerify(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)

	s, err := m.Auth.Verify(ctx, " admin@example.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, admin.StaffID, s.StaffID)
	assert.Equal(t, RoleManager, s.Role)
	assert.NotEqual(t, admin.ID, s.ID, "each login gets a new session id")

	_, wrongPw := m.Auth.Verify(ctx, "admin@example.com", "nope")
	_, unknown := m.Auth.Verify(ctx, "ghost@example.com", "secret")
	require.ErrorIs(t, wrongPw, ErrAuthFailure)
	require.ErrorIs(t, unknown, ErrAuthFailure)
	assert.Equal(t, wrongPw.Error(), unknown.Error(), "failures are indistinguishable")
}

func TestVerifyLegacyDigest(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	sum := sha256.Sum256([]byte("admin123"))
	legacy := hex.EncodeToString(sum[:])
	_, err := m.db.db.Exec(`INSERT INTO staff(name,role,email,phone,hire_date,password_hash) VALUES(?,?,?,?,?,?)`,
		"Old Admin", RoleManager, "old@example.com", "5550000001", m.db.now(), legacy)
	require.NoError(t, err)

	_, err = m.Auth.Verify(ctx, "old@example.com", "admin123")
	require.NoError(t, err)
	_, err = m.Auth.Verify(ctx, "old@example.com", "admin124")
	require.ErrorIs(t, err, ErrAuthFailure)
}

func TestHashIsBcryptAndStable(t *testing.T) {
	m := tempManager(t)
	h, err := m.Auth.Hash("pw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, "$2"))
	assert.True(t, checkPassword(h, "pw"))
	assert.True(t, checkPassword(h, "pw"), "verification is repeatable")
	assert.False(t, checkPassword(h, "PW"))
}

func TestErrorsNeverCarryDigests(t *testing.T) {
	m := tempManager(t)
	ctx := context.Background()
	admin := seedManager(t, m)

	st, err := m.Staff.GetStaff(ctx, admin, admin.StaffID)
	require.NoError(t, err)

	_, err = m.Auth.Verify(ctx, "admin@example.com", "wrong")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), st.PasswordHash)
}
