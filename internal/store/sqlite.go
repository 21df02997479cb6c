package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Insert(ctx context.Context, r Redirect) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO redirects(slug, url, clicks, secret) VALUES(?, ?, 0, ?)`,
		r.Slug, r.URL, r.Secret)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

func (s *SQLite) GetBySlug(ctx context.Context, slug string) (Redirect, error) {
	var r Redirect
	err := s.db.QueryRowContext(ctx,
		`SELECT slug, url, clicks, secret, created_at FROM redirects WHERE slug = ?`, slug).
		Scan(&r.Slug, &r.URL, &r.Clicks, &r.Secret, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Redirect{}, ErrNotFound
		}
		return Redirect{}, err
	}
	return r, nil
}

// UpdateURL combines the secret check and the mutation in one statement
// so they cannot be separated by a concurrent write.
func (s *SQLite) UpdateURL(ctx context.Context, slug, secret, url string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE redirects SET url = ? WHERE slug = ? AND secret = ?`,
		url, slug, secret)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoMatch
	}
	return nil
}

func (s *SQLite) IncrementClicks(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE redirects SET clicks = clicks + 1 WHERE slug = ?`, slug)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Migrate ensures schema exists
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS redirects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			slug TEXT UNIQUE NOT NULL,
			url TEXT NOT NULL,
			clicks INTEGER NOT NULL DEFAULT 0,
			secret TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_redirects_slug ON redirects(slug);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
