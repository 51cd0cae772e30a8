package shared

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const memoryDSN = ":memory:"

// busyTimeoutMS lets the player and a concurrent CLI invocation share one store file.
const busyTimeoutMS = 5000

// sqliteDSN appends go-sqlite3 connection parameters to a file path.
// In-memory databases and DSNs that already carry parameters are left alone.
func sqliteDSN(path string) string {
	if path == memoryDSN || strings.Contains(path, "?") {
		return path
	}
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprint(busyTimeoutMS))
	q.Set("_journal_mode", "WAL")
	return path + "?" + q.Encode()
}

// NewDatabase opens the client store database. path may be ":memory:".
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", path, err)
	}

	// every connection to :memory: gets its own empty database
	if path == memoryDSN {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// ConfigureDatabase applies pool limits; non-positive values keep driver defaults.
func ConfigureDatabase(db *sql.DB, cfg DatabaseConfig) {
	if cfg.MaxOpenConns > 0 && cfg.Path != memoryDSN {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
}

// OpenMigrated opens the configured database and brings its schema up to date.
func OpenMigrated(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}
	ConfigureDatabase(db, cfg)

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
