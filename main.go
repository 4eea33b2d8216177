package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"bookstore-backoffice/bookstore"
	"bookstore-backoffice/config"

	"github.com/spf13/cobra"
)

// Exit codes by failure class.
const (
	exitFailure     = 1
	exitInvalid     = 2
	exitAuth        = 3
	exitForbidden   = 4
	exitNotFound    = 5
	exitConflict    = 6
	exitUnavailable = 7
)

func main() {
	root := newRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, bookstore.ErrValidation):
		return exitInvalid
	case errors.Is(err, bookstore.ErrAuthFailure):
		return exitAuth
	case errors.Is(err, bookstore.ErrForbidden):
		return exitForbidden
	case errors.Is(err, bookstore.ErrNotFound):
		return exitNotFound
	case errors.Is(err, bookstore.ErrInsufficientStock),
		errors.Is(err, bookstore.ErrInvalidTransition),
		errors.Is(err, bookstore.ErrDuplicate),
		errors.Is(err, bookstore.ErrReferentialConflict),
		errors.Is(err, bookstore.ErrLastManager),
		errors.Is(err, bookstore.ErrSelfDeletion),
		errors.Is(err, bookstore.ErrNoManagerForAudit):
		return exitConflict
	case errors.Is(err, bookstore.ErrStoreUnavailable):
		return exitUnavailable
	}
	return exitFailure
}

// app carries what every command needs once the root has run.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	logFile io.Closer
	mgr     *bookstore.BookstoreManager
}

func newRootCommand() *cobra.Command {
	a := &app{}
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bookstore",
		Short: "Bookstore back-office: catalog, customers, staff and orders",
		Long: `Manage a bookstore's catalog, customer accounts, staff and orders.

Run "bookstore init" once to create the first Manager, then "bookstore login".
Configuration is read from the environment and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if verbose {
				cfg.LogLevel = slog.LevelDebug
			}
			a.cfg = cfg
			return a.setupLogging()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newInitCommand(a))
	cmd.AddCommand(newLoginCommand(a))
	cmd.AddCommand(newLogoutCommand(a))
	cmd.AddCommand(newWhoamiCommand(a))
	cmd.AddCommand(newBookCommand(a))
	cmd.AddCommand(newCustomerCommand(a))
	cmd.AddCommand(newStaffCommand(a))
	cmd.AddCommand(newOrderCommand(a))
	cmd.AddCommand(newShellCommand(a))

	return cmd
}

func (a *app) setupLogging() error {
	var w io.Writer = os.Stderr
	if a.cfg.LogFile != "" {
		f, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		w = f
	}
	a.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: a.cfg.LogLevel}))
	slog.SetDefault(a.logger)
	return nil
}

// manager opens the configured store on first use.
func (a *app) manager() (*bookstore.BookstoreManager, error) {
	if a.mgr != nil {
		return a.mgr, nil
	}
	opts := bookstore.Options{BcryptCost: a.cfg.BcryptCost, Logger: a.logger}

	var (
		db  *bookstore.Database
		err error
	)
	switch a.cfg.DBDriver {
	case "mysql":
		a.logger.Debug("opening database", "driver", "mysql", "host", a.cfg.DBHost, "name", a.cfg.DBName)
		db, err = bookstore.NewMySQLDatabase(a.cfg.DBUser, a.cfg.DBPass, a.cfg.DBHost, a.cfg.DBPort, a.cfg.DBName)
	default:
		a.logger.Debug("opening database", "driver", "sqlite3", "path", a.cfg.DBPath)
		db, err = bookstore.NewDatabase(a.cfg.DBPath)
	}
	if err != nil {
		return nil, err
	}
	a.mgr = bookstore.NewBookstoreManagerWithDB(db, opts)
	return a.mgr, nil
}

func (a *app) close() error {
	var err error
	if a.mgr != nil {
		if cerr := a.mgr.Close(); cerr != nil {
			a.logger.Error("error closing database", "error", cerr)
			err = cerr
		}
		a.mgr = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
	return err
}
