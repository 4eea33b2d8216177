// Package config loads bookstore settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration. Each field maps to one variable.
type Config struct {
	DBDriver string // "sqlite3" or "mysql"
	DBPath   string // SQLite file

	DBUser string
	DBPass string // may be empty
	DBHost string
	DBPort string
	DBName string

	SessionSecret string // HS256 key; empty means a local key file is used
	SessionTTL    time.Duration
	SessionFile   string

	BcryptCost int
	LogLevel   slog.Level
	LogFile    string // empty means stderr
}

// Load reads .env from the working directory, if present, then the
// environment. Process variables win over the file.
func Load() (Config, error) { return LoadFile(".env") }

// LoadFile is Load with an explicit .env path.
func LoadFile(path string) (Config, error) {
	file := map[string]string{}
	if path != "" {
		m, err := godotenv.Read(path)
		switch {
		case err == nil:
			file = m
		case !errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}
	get := func(key, def string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		if v := file[key]; v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		DBDriver:      strings.ToLower(get("BOOKSTORE_DB_DRIVER", "sqlite3")),
		DBPath:        get("BOOKSTORE_DB_PATH", "bookstore.db"),
		DBUser:        get("DB_USER", "root"),
		DBPass:        get("DB_PASS", ""),
		DBHost:        get("DB_HOST", "127.0.0.1"),
		DBPort:        get("DB_PORT", "3306"),
		DBName:        get("DB_NAME", "bookstore"),
		SessionSecret: get("BOOKSTORE_SESSION_SECRET", ""),
		SessionFile:   get("BOOKSTORE_SESSION_FILE", defaultSessionFile()),
		LogFile:       get("BOOKSTORE_LOG_FILE", ""),
	}

	switch cfg.DBDriver {
	case "sqlite3", "mysql":
	case "sqlite":
		cfg.DBDriver = "sqlite3"
	default:
		return Config{}, fmt.Errorf("BOOKSTORE_DB_DRIVER: unsupported driver %q", cfg.DBDriver)
	}

	ttl, err := time.ParseDuration(get("BOOKSTORE_SESSION_TTL", "8h"))
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("BOOKSTORE_SESSION_TTL: invalid duration %q", get("BOOKSTORE_SESSION_TTL", ""))
	}
	cfg.SessionTTL = ttl

	cost, err := strconv.Atoi(get("BOOKSTORE_BCRYPT_COST", "12"))
	if err != nil || cost < 4 || cost > 31 {
		return Config{}, fmt.Errorf("BOOKSTORE_BCRYPT_COST: want an integer in [4,31], got %q", get("BOOKSTORE_BCRYPT_COST", ""))
	}
	cfg.BcryptCost = cost

	if err := cfg.LogLevel.UnmarshalText([]byte(get("BOOKSTORE_LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("BOOKSTORE_LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bookstore_session"
	}
	return filepath.Join(home, ".bookstore_session")
}
