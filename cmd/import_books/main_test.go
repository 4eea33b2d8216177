package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"bookstore-backoffice/bookstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAdder struct {
	added []bookstore.BookFields
}

func (r *recordingAdder) AddBook(_ context.Context, _ bookstore.Session, f bookstore.BookFields) (int64, error) {
	r.added = append(r.added, f)
	return int64(len(r.added)), nil
}

func TestImportCSV(t *testing.T) {
	in := `name,genre,quantity,author,publisher,price
Emma,Classic,4,Jane Austen,Penguin,7.50
"Dune, Deluxe",SciFi,2,Frank Herbert,Chilton,19.99
Broken,Classic,-3,Nobody,Nowhere,1
`
	var out bytes.Buffer
	inv := &recordingAdder{}
	ok, failed, err := importCSV(context.Background(), strings.NewReader(in), inv, bookstore.Session{StaffID: 1}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
	require.Len(t, inv.added, 2)
	assert.Equal(t, "Dune, Deluxe", inv.added[1].Name)
	assert.Contains(t, out.String(), "Line 4 skipped")
}

func TestImportCSVBadHeader(t *testing.T) {
	_, _, err := importCSV(context.Background(), strings.NewReader("title,genre,quantity,author,publisher,price\n"),
		&recordingAdder{}, bookstore.Session{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestReadPipedPassword(t *testing.T) {
	pw, err := readPipedPassword(strings.NewReader("correct horse battery\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "correct horse battery", pw)

	pw, err = readPipedPassword(strings.NewReader("no newline"))
	require.NoError(t, err)
	assert.Equal(t, "no newline", pw)

	_, err = readPipedPassword(strings.NewReader(""))
	require.Error(t, err)
}
