package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"bookstore-backoffice/bookstore"
	"bookstore-backoffice/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// columns is the header every import file must start with.
var columns = []string{"name", "genre", "quantity", "author", "publisher", "price"}

func main() {
	if err := newImportCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newImportCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "import_books <file.csv>",
		Short: "Import a CSV catalog, attributing every row to a staff login",
		Long: `Import books from a CSV file with the header
  name,genre,quantity,author,publisher,price
Each row is added in its own transaction with an Insert log entry.
Rows that fail validation are reported and skipped.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

			mgr, err := openManager(cfg, logger)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer mgr.Close()

			password, err := readPassword("Password for " + email + ": ")
			if err != nil {
				return err
			}
			s, err := mgr.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return err
			}
			defer f.Close()

			ok, failed, err := importCSV(cmd.Context(), f, mgr.Inventory, s, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nImport complete: %d added, %d failed.\n", ok, failed)
			if failed > 0 {
				return fmt.Errorf("%d row(s) not imported", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "staff email to log in with (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func openManager(cfg config.Config, logger *slog.Logger) (*bookstore.BookstoreManager, error) {
	opts := bookstore.Options{BcryptCost: cfg.BcryptCost, Logger: logger}
	if cfg.DBDriver == "mysql" {
		db, err := bookstore.NewMySQLDatabase(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, err
		}
		return bookstore.NewBookstoreManagerWithDB(db, opts), nil
	}
	return bookstore.NewBookstoreManager(cfg.DBPath, opts)
}

// bookAdder is the part of the inventory ledger the importer uses.
type bookAdder interface {
	AddBook(ctx context.Context, s bookstore.Session, f bookstore.BookFields) (int64, error)
}

// importCSV adds every data row of r. Row failures are reported to out and
// counted; only a malformed file or header is returned as an error.
func importCSV(ctx context.Context, r io.Reader, inv bookAdder, s bookstore.Session, out io.Writer) (ok, failed int, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(columns)

	header, err := cr.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}
	for i, col := range columns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return 0, 0, fmt.Errorf("header column %d: want %q, got %q", i+1, col, header[i])
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ok, failed, fmt.Errorf("line %d: %w", line, err)
		}

		fields, err := bookstore.ParseBookFields(rec[0], rec[1], rec[2], rec[3], rec[4], rec[5])
		if err == nil {
			var id int64
			if id, err = inv.AddBook(ctx, s, fields); err == nil {
				fmt.Fprintf(out, "Imported: %s by %s (ID %d)\n", fields.Name, fields.Author, id)
				ok++
				continue
			}
		}
		fmt.Fprintf(out, "Line %d skipped: %v\n", line, err)
		failed++
	}
	return ok, failed, nil
}

// readPipedPassword reads one line of r as the password, spaces included.
func readPipedPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword securely reads a password with masking. Piped input is read
// as one line.
func readPassword(prompt string) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return readPipedPassword(os.Stdin)
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
