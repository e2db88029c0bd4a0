package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps each profile as a JSON document in the users table.
type SQLiteStore struct {
	conn *sql.DB
	mu   sync.RWMutex
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		doc TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, p Profile, passwordHash string) error {
	if p.ID == "" {
		return ErrInvalidID
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, doc) VALUES (?, ?, ?, ?)`,
		p.ID, strings.ToLower(p.Email), passwordHash, string(doc))
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.conn.QueryRowContext(ctx, `SELECT doc FROM users WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to query profile %s: %w", id, err)
	}
	return decode(doc)
}

func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (Profile, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc, hash string
	err := s.conn.QueryRowContext(ctx,
		`SELECT doc, password_hash FROM users WHERE email = ?`, strings.ToLower(email)).Scan(&doc, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, "", ErrNotFound
	}
	if err != nil {
		return Profile{}, "", fmt.Errorf("failed to query profile by email: %w", err)
	}
	p, err := decode(doc)
	if err != nil {
		return Profile{}, "", err
	}
	return p, hash, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var doc string
	err = tx.QueryRowContext(ctx, `SELECT doc FROM users WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query profile %s: %w", id, err)
	}
	if patch.Empty() {
		return nil
	}

	p, err := decode(doc)
	if err != nil {
		return err
	}
	patch.apply(&p)

	updated, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET doc = ? WHERE id = ?`, string(updated), id); err != nil {
		return fmt.Errorf("failed to update profile %s: %w", id, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListAll(ctx context.Context, sortKey string) ([]Profile, error) {
	if sortKey != "" {
		if _, ok := sortKeys[sortKey]; !ok {
			return nil, ErrInvalidSortKey
		}
	}

	s.mu.RLock()
	rows, err := s.conn.QueryContext(ctx, `SELECT doc FROM users`)
	if err != nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}

	var out []Profile
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			rows.Close()
			s.mu.RUnlock()
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		p, err := decode(doc)
		if err != nil {
			rows.Close()
			s.mu.RUnlock()
			return nil, err
		}
		out = append(out, p)
	}
	err = rows.Err()
	rows.Close()
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	if err := sortProfiles(out, sortKey); err != nil {
		return nil, err
	}
	return out, nil
}

func decode(doc string) (Profile, error) {
	var p Profile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return Profile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return clone(p), nil
}
