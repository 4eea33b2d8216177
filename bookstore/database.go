package bookstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Database provides high-level helpers around a SQLite or MySQL connection.
type Database struct {
	db     *sql.DB
	driver string
	now    func() time.Time

	insertLogStmt *sql.Stmt
	decrementStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// busy_timeout and foreign keys; write transactions take the lock up front.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return newDatabase(db, "sqlite3")
}

// mysqlConfig builds the connection settings. ClientFoundRows makes
// RowsAffected count matched rows, as SQLite does, so an update that leaves
// a row unchanged is not mistaken for a missing one.
func mysqlConfig(user, pass, host, port, name string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = host + ":" + port
	cfg.DBName = name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg
}

// NewMySQLDatabase connects to a MySQL server and creates any missing tables
// from schema_mysql.sql.
func NewMySQLDatabase(user, pass, host, port, name string) (*Database, error) {
	cfg := mysqlConfig(user, pass, host, port, name)
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storeError("connect", "", 0, err)
	}
	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSchema()
	if err := applyMySQLSchema(schemaCtx, db); err != nil {
		db.Close()
		return nil, err
	}
	return newDatabase(db, "mysql")
}

func newDatabase(db *sql.DB, driver string) (*Database, error) {
	database := &Database{db: db, driver: driver, now: func() time.Time { return time.Now().UTC() }}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.insertLogStmt != nil {
		d.insertLogStmt.Close()
	}
	if d.decrementStmt != nil {
		d.decrementStmt.Close()
	}
	return d.db.Close()
}

// Driver returns the database/sql driver name in use.
func (d *Database) Driver() string { return d.driver }

// Ping verifies the store is reachable.
func (d *Database) Ping(ctx context.Context) error {
	return storeError("ping", "", 0, d.db.PingContext(ctx))
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS staff (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            role TEXT NOT NULL CHECK (role IN ('Manager','Clerk','Librarian')),
            email TEXT NOT NULL UNIQUE,
            phone TEXT NOT NULL UNIQUE,
            hire_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            password_hash TEXT NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            genre TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity >= 0),
            author TEXT NOT NULL,
            publisher TEXT NOT NULL,
            price TEXT NOT NULL,
            updated_by INTEGER NOT NULL REFERENCES staff(id),
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS customers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            phone TEXT NOT NULL UNIQUE,
            email TEXT UNIQUE,
            membership TEXT NOT NULL DEFAULT 'No' CHECK (membership IN ('Yes','No'))
        );`,
	`CREATE TABLE IF NOT EXISTS orders (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            customer_id INTEGER NOT NULL REFERENCES customers(id),
            staff_id INTEGER NOT NULL REFERENCES staff(id),
            order_date DATETIME NOT NULL,
            total_amount TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending','Completed','Cancelled'))
        );`,
	`CREATE TABLE IF NOT EXISTS order_items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            order_id INTEGER NOT NULL REFERENCES orders(id),
            book_id INTEGER NOT NULL REFERENCES books(id),
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            price TEXT NOT NULL
        );`,
	// book_id carries no foreign key so Delete entries outlive the row.
	`CREATE TABLE IF NOT EXISTS book_log (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL,
            action TEXT NOT NULL CHECK (action IN ('Insert','Update','Delete')),
            actor INTEGER NOT NULL REFERENCES staff(id),
            action_time DATETIME NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);`,
	`CREATE INDEX IF NOT EXISTS idx_book_log_book ON book_log(book_id);`,
}

//go:embed schema_mysql.sql
var mysqlSchema string

// mysqlStatements drops comment lines from schema_mysql.sql and splits it
// into single statements; the driver runs one statement per Exec.
func mysqlStatements() []string {
	var lines []string
	for _, line := range strings.Split(mysqlSchema, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "--") {
			lines = append(lines, line)
		}
	}
	var out []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func applyMySQLSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range mysqlStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return storeError("apply mysql schema", "", 0, err)
		}
	}
	return nil
}

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	err := db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range sqliteSchema {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertLogStmt, err = d.db.Prepare(`INSERT INTO book_log(book_id,action,actor,action_time) VALUES(?,?,?,?)`); err != nil {
		return storeError("prepare statements", "", 0, err)
	}
	// The quantity guard makes check-and-decrement one atomic step per row.
	if d.decrementStmt, err = d.db.Prepare(`UPDATE books SET quantity = quantity - ?, updated_by = ?, updated_at = ?
        WHERE id = ? AND quantity >= ?`); err != nil {
		return storeError("prepare statements", "", 0, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transaction helpers
// ---------------------------------------------------------------------------

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside one transaction; any error rolls the whole unit back.
func (d *Database) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func exists(ctx context.Context, q queryer, query string, args ...any) (bool, error) {
	var ok bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS(`+query+`)`, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// lockingRead marks a read inside a write transaction as locking. SQLite
// transactions already hold the write lock from BEGIN IMMEDIATE; InnoDB
// needs FOR UPDATE or the read sees a snapshot.
func (d *Database) lockingRead(query string) string {
	if d.driver == "mysql" {
		return query + ` FOR UPDATE`
	}
	return query
}

// staffRole returns the current role of staffID, or ErrNotFound when the
// account no longer exists.
func staffRole(ctx context.Context, q queryer, op string, staffID int64) (Role, error) {
	var role Role
	err := q.QueryRowContext(ctx, `SELECT role FROM staff WHERE id=?`, staffID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", newError(ErrNotFound, op, "staff", staffID)
	}
	if err != nil {
		return "", storeError(op, "staff", staffID, err)
	}
	return role, nil
}

// authorizeTx re-reads the caller's role inside the unit of work so a deleted
// or demoted account cannot act on a stale session.
func authorizeTx(ctx context.Context, q queryer, op string, s Session, perm Permission) (Role, error) {
	role, err := staffRole(ctx, q, op, s.StaffID)
	if err != nil {
		return "", err
	}
	if !Authorize(role, perm) {
		return "", newError(ErrForbidden, op, "staff", s.StaffID)
	}
	return role, nil
}
