package bookstore

import (
	"context"
	"database/sql"
)

// AuditLog is the append-only record of catalog mutations. Writes happen only
// inside the transaction of the mutation they describe.
type AuditLog struct {
	db *Database
}

func (a *AuditLog) appendTx(ctx context.Context, tx *sql.Tx, bookID int64, action LogAction, actor int64) error {
	_, err := tx.StmtContext(ctx, a.db.insertLogStmt).ExecContext(ctx, bookID, action, actor, a.db.now())
	return err
}

// deleteActorTx picks who a Delete entry is attributed to: the deleter when
// they still exist and are a Manager, otherwise the lowest-id Manager.
func (a *AuditLog) deleteActorTx(ctx context.Context, tx *sql.Tx, deleter int64) (int64, error) {
	var role Role
	err := tx.QueryRowContext(ctx, `SELECT role FROM staff WHERE id=?`, deleter).Scan(&role)
	switch {
	case err == nil && role == RoleManager:
		return deleter, nil
	case err != nil && err != sql.ErrNoRows:
		return 0, err
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM staff WHERE role=? ORDER BY id LIMIT 1`, RoleManager).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNoManagerForAudit
	}
	return id, err
}

// Entries lists audit entries oldest first. bookID 0 lists every book.
func (a *AuditLog) Entries(ctx context.Context, bookID int64) ([]BookLogEntry, error) {
	const op = "list book log"
	q := `SELECT id, book_id, action, actor, action_time FROM book_log`
	var args []any
	if bookID != 0 {
		q += ` WHERE book_id=?`
		args = append(args, bookID)
	}
	q += ` ORDER BY id`

	rows, err := a.db.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeError(op, "book", bookID, err)
	}
	defer rows.Close()

	var out []BookLogEntry
	for rows.Next() {
		var e BookLogEntry
		if err := rows.Scan(&e.ID, &e.BookID, &e.Action, &e.Actor, &e.At); err != nil {
			return nil, storeError(op, "book", bookID, err)
		}
		out = append(out, e)
	}
	return out, storeError(op, "book", bookID, rows.Err())
}
