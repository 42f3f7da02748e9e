package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/metrics"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id INTEGER NOT NULL,
	body TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE TABLE IF NOT EXISTS sequences (
	collection TEXT PRIMARY KEY,
	last_id INTEGER NOT NULL
);`

// SQLiteStore persists documents in a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
	settings
}

// OpenSQLite opens or creates the database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps id allocation serialized and lets ":memory:" share
	// a single connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path, settings: defaultSettings()}
	for _, opt := range opts {
		opt(&s.settings)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Create implements Store.Create. Allocation and insert share a transaction.
func (s *SQLiteStore) Create(ctx context.Context, c model.Collection, doc json.RawMessage) (json.RawMessage, error) {
	defer observe(c, "create", time.Now())
	if err := checkCollection(c); err != nil {
		return nil, err
	}

	var out json.RawMessage
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var last int64
		err := tx.QueryRowContext(ctx, `SELECT last_id FROM sequences WHERE collection = ?`, string(c)).Scan(&last)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read sequence: %w", err)
		}
		id := last + 1

		out, err = newDocument(doc, id, s.now())
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sequences (collection, last_id) VALUES (?, ?)
			 ON CONFLICT(collection) DO UPDATE SET last_id = excluded.last_id`, string(c), id); err != nil {
			return fmt.Errorf("advance sequence: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`, string(c), id, string(out)); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.reportCount(ctx, c)
	return out, nil
}

// Get implements Store.Get.
func (s *SQLiteStore) Get(ctx context.Context, c model.Collection, id int64) (json.RawMessage, error) {
	defer observe(c, "get", time.Now())
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	return s.load(ctx, s.db, c, id)
}

// Update implements Store.Update.
func (s *SQLiteStore) Update(ctx context.Context, c model.Collection, id int64, patch json.RawMessage) (json.RawMessage, error) {
	defer observe(c, "update", time.Now())
	return s.rewrite(ctx, c, id, func(cur json.RawMessage) (json.RawMessage, error) {
		return mergeDocument(cur, patch, s.now())
	})
}

// Replace implements Store.Replace.
func (s *SQLiteStore) Replace(ctx context.Context, c model.Collection, id int64, doc json.RawMessage) (json.RawMessage, error) {
	defer observe(c, "replace", time.Now())
	return s.rewrite(ctx, c, id, func(cur json.RawMessage) (json.RawMessage, error) {
		return replaceDocument(cur, doc, s.now())
	})
}

func (s *SQLiteStore) rewrite(ctx context.Context, c model.Collection, id int64, fn func(json.RawMessage) (json.RawMessage, error)) (json.RawMessage, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	var out json.RawMessage
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.load(ctx, tx, c, id)
		if err != nil {
			return err
		}
		if out, err = fn(cur); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET body = ? WHERE collection = ? AND id = ?`, string(out), string(c), id)
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete implements Store.Delete.
func (s *SQLiteStore) Delete(ctx context.Context, c model.Collection, id int64) error {
	defer observe(c, "delete", time.Now())
	if err := checkCollection(c); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, string(c), id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(c, id)
	}
	s.reportCount(ctx, c)
	return nil
}

// All implements Store.All.
func (s *SQLiteStore) All(ctx context.Context, c model.Collection) ([]json.RawMessage, error) {
	defer observe(c, "all", time.Now())
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM documents WHERE collection = ? ORDER BY id ASC`, string(c))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]json.RawMessage, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context, c model.Collection) (int, error) {
	if err := checkCollection(c); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, string(c)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) load(ctx context.Context, q querier, c model.Collection, id int64) (json.RawMessage, error) {
	var body string
	err := q.QueryRowContext(ctx, `SELECT body FROM documents WHERE collection = ? AND id = ?`, string(c), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(c, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return json.RawMessage(body), nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) reportCount(ctx context.Context, c model.Collection) {
	if n, err := s.Count(ctx, c); err == nil {
		metrics.UpdateRecordsTotal(string(c), n)
	}
}
