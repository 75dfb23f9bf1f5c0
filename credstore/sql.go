package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// SQLite driver
	_ "modernc.org/sqlite"
)

const createCredentialsTable = `
CREATE TABLE IF NOT EXISTS credentials (
	user_id    TEXT PRIMARY KEY,
	credential TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLConfig holds SQLite store configuration.
type SQLConfig struct {
	// Path is the database file. ":memory:" opens a private in-memory database.
	Path            string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// SQLStore keeps credentials in a single SQLite table.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLStore opens the database at cfg.Path and creates the credentials
// table if needed.
func OpenSQLStore(ctx context.Context, cfg SQLConfig) (*SQLStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 8
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	dsn := cfg.Path
	if dsn == ":memory:" {
		// Every connection to ":memory:" is a new database.
		cfg.MaxOpenConns = 1
	} else {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if cfg.Path == ":memory:" {
		db.SetConnMaxLifetime(0)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewSQLStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database. Call Migrate before first use.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// Migrate creates the credentials table.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if s.db == nil {
		return errors.New("database not initialized")
	}
	if _, err := s.db.ExecContext(ctx, createCredentialsTable); err != nil {
		return fmt.Errorf("failed to create credentials table: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidUserID
	}

	var cred string
	err := s.db.QueryRowContext(ctx,
		`SELECT credential FROM credentials WHERE user_id = ?`, userID,
	).Scan(&cred)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return cred, nil
}

func (s *SQLStore) Put(ctx context.Context, userID, credential string) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (user_id, credential, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			credential = excluded.credential,
			updated_at = excluded.updated_at`,
		userID, credential, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLStore) Replace(ctx context.Context, userID, old, updated string) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET credential = ?, updated_at = ? WHERE user_id = ? AND credential = ?`,
		updated, s.now().Unix(), userID, old,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n == 1 {
		return nil
	}

	// Nothing updated: distinguish a missing user from a changed credential.
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	return ErrConflict
}

func (s *SQLStore) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
