package bookstore

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
)

// StaffDirectory manages staff accounts. Everything here except the
// first-manager bootstrap requires a Manager session.
type StaffDirectory struct {
	db     *Database
	auth   *AuthManager
	logger *slog.Logger
}

const staffColumns = `id, name, role, email, phone, hire_date, password_hash`

func scanStaff(row scanner) (*Staff, error) {
	var st Staff
	if err := row.Scan(&st.ID, &st.Name, &st.Role, &st.Email, &st.Phone, &st.HireDate, &st.PasswordHash); err != nil {
		return nil, err
	}
	return &st, nil
}

func normalizeStaff(in StaffInput) StaffInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

// AddStaff creates an account. Email and phone must be unused.
func (d *StaffDirectory) AddStaff(ctx context.Context, s Session, in StaffInput) (int64, error) {
	const op = "add staff"
	in = normalizeStaff(in)
	if err := validateStaff(op, in, true); err != nil {
		return 0, err
	}
	digest, err := d.auth.Hash(in.Password)
	if err != nil {
		return 0, err
	}

	var id int64
	err = d.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeTx(ctx, tx, op, s, PermManageStaff); err != nil {
			return err
		}
		var err error
		id, err = insertStaffTx(ctx, tx, d.db, in, digest)
		return err
	})
	if err != nil {
		return 0, storeError(op, "staff", 0, err)
	}
	d.logger.Info("staff added", "op", op, "staff_id", id, "role", in.Role, "by", s.StaffID)
	return id, nil
}

func insertStaffTx(ctx context.Context, tx *sql.Tx, db *Database, in StaffInput, digest string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO staff(name,role,email,phone,hire_date,password_hash) VALUES(?,?,?,?,?,?)`,
		in.Name, in.Role, in.Email, in.Phone, db.now(), digest)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateStaff replaces an account's details. An empty password keeps the
// current one. Demoting the last Manager is allowed; the guard applies at
// deletion.
func (d *StaffDirectory) UpdateStaff(ctx context.Context, s Session, id int64, in StaffInput) error {
	const op = "update staff"
	in = normalizeStaff(in)
	if err := validateStaff(op, in, false); err != nil {
		return err
	}
	var digest string
	if in.Password != "" {
		var err error
		if digest, err = d.auth.Hash(in.Password); err != nil {
			return err
		}
	}

	err := d.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeTx(ctx, tx, op, s, PermManageStaff); err != nil {
			return err
		}
		var (
			res sql.Result
			err error
		)
		if digest == "" {
			res, err = tx.ExecContext(ctx, `UPDATE staff SET name=?, role=?, email=?, phone=? WHERE id=?`,
				in.Name, in.Role, in.Email, in.Phone, id)
		} else {
			res, err = tx.ExecContext(ctx, `UPDATE staff SET name=?, role=?, email=?, phone=?, password_hash=? WHERE id=?`,
				in.Name, in.Role, in.Email, in.Phone, digest, id)
		}
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return newError(ErrNotFound, op, "staff", id)
		}
		return nil
	})
	if err != nil {
		return storeError(op, "staff", id, err)
	}
	d.logger.Info("staff updated", "op", op, "staff_id", id, "by", s.StaffID, "password_changed", digest != "")
	return nil
}

// DeleteStaff removes an account. The last Manager and the caller's own
// account cannot be deleted, nor can staff referenced by orders, books or
// the audit log.
func (d *StaffDirectory) DeleteStaff(ctx context.Context, s Session, id int64) error {
	const op = "delete staff"
	err := d.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := authorizeTx(ctx, tx, op, s, PermManageStaff); err != nil {
			return err
		}
		role, err := staffRole(ctx, tx, op, id)
		if err != nil {
			return err
		}
		if role == RoleManager {
			managers, err := d.lockManagersTx(ctx, tx)
			if err != nil {
				return err
			}
			if managers <= 1 {
				return newError(ErrLastManager, op, "staff", id)
			}
		}
		if id == s.StaffID {
			return newError(ErrSelfDeletion, op, "staff", id)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM staff WHERE id=?`, id)
		return err
	})
	if err != nil {
		return storeError(op, "staff", id, err)
	}
	d.logger.Info("staff deleted", "op", op, "staff_id", id, "by", s.StaffID)
	return nil
}

// lockManagersTx counts the Managers while holding their rows, so two
// Managers deleting each other cannot both pass the last-Manager check.
func (d *StaffDirectory) lockManagersTx(ctx context.Context, tx *sql.Tx) (int, error) {
	rows, err := tx.QueryContext(ctx, d.db.lockingRead(`SELECT id FROM staff WHERE role=?`), RoleManager)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		n++
	}
	return n, rows.Err()
}

func (d *StaffDirectory) GetStaff(ctx context.Context, s Session, id int64) (*Staff, error) {
	const op = "get staff"
	if _, err := authorizeTx(ctx, d.db.db, op, s, PermManageStaff); err != nil {
		return nil, err
	}
	st, err := scanStaff(d.db.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff WHERE id=?`, id))
	if err == sql.ErrNoRows {
		return nil, newError(ErrNotFound, op, "staff", id)
	}
	if err != nil {
		return nil, storeError(op, "staff", id, err)
	}
	return st, nil
}

func (d *StaffDirectory) ListStaff(ctx context.Context, s Session) ([]*Staff, error) {
	const op = "list staff"
	if _, err := authorizeTx(ctx, d.db.db, op, s, PermManageStaff); err != nil {
		return nil, err
	}
	rows, err := d.db.db.QueryContext(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY id`)
	if err != nil {
		return nil, storeError(op, "staff", 0, err)
	}
	defer rows.Close()

	var out []*Staff
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, storeError(op, "staff", 0, err)
		}
		out = append(out, st)
	}
	return out, storeError(op, "staff", 0, rows.Err())
}

// EnsureManager creates a Manager from in when the store has none. It
// reports whether an account was created.
func (d *StaffDirectory) EnsureManager(ctx context.Context, in StaffInput) (int64, bool, error) {
	const op = "bootstrap manager"
	in = normalizeStaff(in)
	in.Role = RoleManager
	if err := validateStaff(op, in, true); err != nil {
		return 0, false, err
	}
	digest, err := d.auth.Hash(in.Password)
	if err != nil {
		return 0, false, err
	}

	var id int64
	err = d.db.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, `SELECT 1 FROM staff WHERE role=?`, RoleManager)
		if err != nil || ok {
			return err
		}
		id, err = insertStaffTx(ctx, tx, d.db, in, digest)
		return err
	})
	if err != nil {
		return 0, false, storeError(op, "staff", 0, err)
	}
	if id == 0 {
		return 0, false, nil
	}
	d.logger.Info("manager bootstrapped", "op", op, "staff_id", id)
	return id, true, nil
}
