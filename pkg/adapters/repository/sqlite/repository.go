package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/contextkeeper/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

// KVRepository stores opaque values under string keys in a single table
type KVRepository struct {
	db     *sql.DB
	driver string
}

func NewKVRepository(dbURL string) (*KVRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName, err)
	}

	if driverName == "sqlite" {
		// One connection keeps in-memory databases and pragmas consistent.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA busy_timeout = 10000`); err != nil {
			db.Close()
			return nil, fmt.Errorf("set busy_timeout: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &KVRepository{db: db, driver: driverName}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := db.Exec(query)
	return err
}

// Driver reports which database/sql driver backs the repository.
func (r *KVRepository) Driver() string {
	return r.driver
}

func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return []byte(value), true, nil
}

func (r *KVRepository) Update(ctx context.Context, key string, fn func(old []byte, ok bool) ([]byte, error)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update %q: %w", key, err)
	}
	defer tx.Rollback()

	var (
		current string
		found   = true
	)
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&current)
	if err == sql.ErrNoRows {
		found = false
	} else if err != nil {
		return fmt.Errorf("read %q: %w", key, err)
	}

	var old []byte
	if found {
		old = []byte(current)
	}
	next, err := fn(old, found)
	if err != nil {
		return err
	}

	upsert := `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			   ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, key, string(next), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}

	return tx.Commit()
}

func (r *KVRepository) Close() error {
	return r.db.Close()
}

// Ensure interface compliance
var _ ports.KeyValueStore = (*KVRepository)(nil)
