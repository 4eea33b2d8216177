package main

import (
	"errors"
	"fmt"
	"testing"

	"bookstore-backoffice/bookstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	kindErr := func(kind error) error { return &bookstore.Error{Kind: kind, Op: "test"} }
	assert.Equal(t, exitInvalid, exitCode(kindErr(bookstore.ErrValidation)))
	assert.Equal(t, exitAuth, exitCode(kindErr(bookstore.ErrAuthFailure)))
	assert.Equal(t, exitForbidden, exitCode(kindErr(bookstore.ErrForbidden)))
	assert.Equal(t, exitNotFound, exitCode(kindErr(bookstore.ErrNotFound)))
	assert.Equal(t, exitConflict, exitCode(kindErr(bookstore.ErrInsufficientStock)))
	assert.Equal(t, exitConflict, exitCode(fmt.Errorf("wrapped: %w", kindErr(bookstore.ErrLastManager))))
	assert.Equal(t, exitUnavailable, exitCode(kindErr(bookstore.ErrStoreUnavailable)))
	assert.Equal(t, exitFailure, exitCode(errors.New("other")))
}

func TestParseLine(t *testing.T) {
	l, err := parseLine("12:3")
	require.NoError(t, err)
	assert.Equal(t, bookstore.LineRequest{BookID: 12, Quantity: 3}, l)

	for _, bad := range []string{"12", "x:1", "12:0", "12:-1", "0:1"} {
		_, err := parseLine(bad)
		assert.ErrorIs(t, err, bookstore.ErrValidation, bad)
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()
	for _, path := range [][]string{
		{"init"}, {"login"}, {"shell"},
		{"book", "add"}, {"book", "log"},
		{"order", "place"}, {"order", "complete"}, {"order", "cancel"},
		{"staff", "delete"}, {"customer", "update"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, "%v", path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
