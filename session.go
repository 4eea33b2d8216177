package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"bookstore-backoffice/bookstore"

	"golang.org/x/term"
)

// readPassword securely reads a password with masking. Piped input is read
// as one line.
func readPassword(prompt string) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// sessionSecret returns the token signing key: the configured secret, or a
// random key kept next to the session file.
func (a *app) sessionSecret() ([]byte, error) {
	if a.cfg.SessionSecret != "" {
		return []byte(a.cfg.SessionSecret), nil
	}
	path := a.cfg.SessionFile + ".key"
	raw, err := os.ReadFile(path)
	if err == nil {
		return hex.DecodeString(strings.TrimSpace(string(raw)))
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read session key: %w", err)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	if err := writePrivate(path, []byte(hex.EncodeToString(key))); err != nil {
		return nil, fmt.Errorf("write session key: %w", err)
	}
	return key, nil
}

func writePrivate(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}

func (a *app) saveSession(s bookstore.Session) error {
	secret, err := a.sessionSecret()
	if err != nil {
		return err
	}
	token, err := bookstore.IssueToken(s, secret, a.cfg.SessionTTL)
	if err != nil {
		return err
	}
	return writePrivate(a.cfg.SessionFile, []byte(token))
}

// session restores the logged-in staff member and refreshes their role.
func (a *app) session(ctx context.Context) (bookstore.Session, error) {
	raw, err := os.ReadFile(a.cfg.SessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return bookstore.Session{}, &bookstore.Error{Kind: bookstore.ErrAuthFailure, Op: "not logged in; run \"bookstore login\""}
	}
	if err != nil {
		return bookstore.Session{}, fmt.Errorf("read session: %w", err)
	}
	secret, err := a.sessionSecret()
	if err != nil {
		return bookstore.Session{}, err
	}
	s, err := bookstore.ParseToken(strings.TrimSpace(string(raw)), secret)
	if err != nil {
		return bookstore.Session{}, err
	}
	mgr, err := a.manager()
	if err != nil {
		return bookstore.Session{}, err
	}
	s, err = mgr.ResumeSession(ctx, s)
	if err != nil {
		return bookstore.Session{}, err
	}
	a.logger.Debug("session resumed", "staff_id", s.StaffID, "role", s.Role, "session", s.ID)
	return s, nil
}

func (a *app) clearSession() error {
	if err := os.Remove(a.cfg.SessionFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
