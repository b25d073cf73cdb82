// Package vocabulary persists the tagger's lemma assignments so serialized
// documents can be turned into a lemma corpus without re-running the tagger.
package vocabulary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"bibsent/internal/domain"
)

var (
	_ domain.LemmaSink   = (*Store)(nil)
	_ domain.LemmaSource = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS vocabulary (
	text  TEXT NOT NULL,
	pos   TEXT NOT NULL,
	lemma TEXT NOT NULL,
	PRIMARY KEY (text, pos)
)`

// Store is a SQLite-backed (surface, category) → lemma table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the vocabulary database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating vocabulary directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary: %w", err)
	}
	// single connection serializes writers from the worker pool
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vocabulary schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put records the lemma of every token. Later assignments win.
func (s *Store) Put(ctx context.Context, tokens []domain.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vocabulary tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO vocabulary (text, pos, lemma) VALUES (?, ?, ?)
		 ON CONFLICT(text, pos) DO UPDATE SET lemma = excluded.lemma`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare vocabulary insert: %w", err)
	}
	defer stmt.Close()
	for _, t := range tokens {
		if t.Lemma == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, t.Text, t.POS, t.Lemma); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert vocabulary: %w", err)
		}
	}
	return tx.Commit()
}

// Lemma returns the recorded lemma of text tagged as pos.
func (s *Store) Lemma(ctx context.Context, text, pos string) (string, bool, error) {
	var lemma string
	err := s.db.QueryRowContext(ctx,
		`SELECT lemma FROM vocabulary WHERE text = ? AND pos = ?`, text, pos).Scan(&lemma)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query vocabulary: %w", err)
	}
	return lemma, true, nil
}

// Len returns the number of recorded entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vocabulary`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vocabulary: %w", err)
	}
	return n, nil
}
