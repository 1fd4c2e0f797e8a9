package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// SQLite driver
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS checkpoints (
	key        TEXT PRIMARY KEY,
	request    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps checkpoints in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite checkpoint store: database path is required")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer avoids SQLITE_BUSY between concurrent saves.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create checkpoints table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, key string) (*Checkpoint, error) {
	var (
		raw     string
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT request, updated_at FROM checkpoints WHERE key = ?`, key,
	).Scan(&raw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint %q: %w", key, err)
	}
	cp := &Checkpoint{Key: key, UpdatedAt: time.Unix(0, updated).UTC()}
	if err := json.Unmarshal([]byte(raw), &cp.Request); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %q: %w", key, err)
	}
	return cp, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, cp *Checkpoint) error {
	if err := validate(cp); err != nil {
		return err
	}
	raw, err := json.Marshal(cp.Request)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint %q: %w", cp.Key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (key, request, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET request = excluded.request, updated_at = excluded.updated_at`,
		cp.Key, string(raw), cp.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint %q: %w", cp.Key, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete checkpoint %q: %w", key, err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
