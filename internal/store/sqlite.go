package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/joinboard/internal/doctree"
)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteStore persists the tree as one JSON document per top-level collection.
type SQLiteStore struct {
	db   *sql.DB
	keys *doctree.KeyGenerator
	now  func() time.Time
}

// WriteRecord is one entry of the write history.
type WriteRecord struct {
	ID        int64
	Method    string
	Path      string
	CreatedAt time.Time
}

func NewSQLiteStore(db *sql.DB, keys *doctree.KeyGenerator) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("store: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if keys == nil {
		keys = doctree.NewKeyGenerator(nil, nil)
	}
	return &SQLiteStore{db: db, keys: keys, now: time.Now}, nil
}

// OpenSQLite opens the database file and applies pending migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s, err := NewSQLiteStore(db, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		root, err := s.loadRoot(ctx, s.db)
		if err != nil {
			return nil, err
		}
		return doctree.Encode(root)
	}
	doc, err := s.loadCollection(ctx, s.db, segs[0])
	if err != nil {
		return nil, err
	}
	return doctree.Encode(doctree.Get(doc, segs[1:]))
}

func (s *SQLiteStore) Put(ctx context.Context, path string, value any) (json.RawMessage, error) {
	v, err := treeValue(value)
	if err != nil {
		return nil, err
	}
	err = s.mutate(ctx, "PUT", path, func(root any, segs []string) (any, error) {
		return doctree.Set(root, segs, v), nil
	})
	if err != nil {
		return nil, err
	}
	return doctree.Encode(v)
}

func (s *SQLiteStore) Post(ctx context.Context, path string, value any) (string, error) {
	v, err := treeValue(value)
	if err != nil {
		return "", err
	}
	key := s.keys.Next()
	err = s.mutate(ctx, "POST", path, func(root any, segs []string) (any, error) {
		return doctree.Set(root, append(segs, key), v), nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *SQLiteStore) Patch(ctx context.Context, path string, partial any) (json.RawMessage, error) {
	v, err := treeValue(partial)
	if err != nil {
		return nil, err
	}
	err = s.mutate(ctx, "PATCH", path, func(root any, segs []string) (any, error) {
		return mergeTree(root, segs, v)
	})
	if err != nil {
		return nil, err
	}
	return doctree.Encode(v)
}

func (s *SQLiteStore) Delete(ctx context.Context, path string) error {
	return s.mutate(ctx, "DELETE", path, func(root any, segs []string) (any, error) {
		return doctree.Delete(root, segs), nil
	})
}

// History lists recorded writes at or below path, newest first.
func (s *SQLiteStore) History(ctx context.Context, path string, limit int) ([]WriteRecord, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	clean := Join(segs...)
	query := `SELECT id, method, path, created_at FROM document_log`
	args := make([]any, 0, 3)
	if clean != "" {
		query += ` WHERE path = ? OR path LIKE ?`
		args = append(args, clean, clean+"/%")
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]WriteRecord, 0)
	for rows.Next() {
		var rec WriteRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.Method, &rec.Path, &created); err != nil {
			return nil, err
		}
		at, err := time.Parse(sqliteTimeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", created, err)
		}
		rec.CreatedAt = at
		out = append(out, rec)
	}
	return out, rows.Err()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// mutate applies fn to the smallest document that contains path inside one
// transaction. Root writes rewrite every collection.
func (s *SQLiteStore) mutate(ctx context.Context, method, path string, fn func(root any, segs []string) (any, error)) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(segs) == 0 {
		root, err := s.loadRoot(ctx, tx)
		if err != nil {
			return err
		}
		next, err := fn(root, nil)
		if err != nil {
			return err
		}
		if err := s.replaceRoot(ctx, tx, next); err != nil {
			return err
		}
	} else {
		doc, err := s.loadCollection(ctx, tx, segs[0])
		if err != nil {
			return err
		}
		next, err := fn(doc, segs[1:])
		if err != nil {
			return err
		}
		if err := s.saveCollection(ctx, tx, segs[0], next); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO document_log (method, path, created_at) VALUES (?, ?, ?)`,
		method, Join(segs...), s.now().UTC().Format(sqliteTimeLayout)); err != nil {
		return fmt.Errorf("record write: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) loadCollection(ctx context.Context, q queryer, name string) (any, error) {
	var body string
	err := q.QueryRowContext(ctx, `SELECT body FROM documents WHERE collection = ?`, name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	doc, err := doctree.Decode([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", name, err)
	}
	return doc, nil
}

func (s *SQLiteStore) loadRoot(ctx context.Context, q queryer) (any, error) {
	rows, err := q.QueryContext(ctx, `SELECT collection, body FROM documents ORDER BY collection`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	root := make(map[string]any)
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, err
		}
		doc, err := doctree.Decode([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("decode collection %s: %w", name, err)
		}
		if doc != nil {
			root[name] = doc
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(root) == 0 {
		return nil, nil
	}
	return root, nil
}

func (s *SQLiteStore) saveCollection(ctx context.Context, tx *sql.Tx, name string, doc any) error {
	if doc == nil {
		_, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, name)
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", name, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (collection, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(collection) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, string(body), s.now().UTC().Format(sqliteTimeLayout),
	)
	return err
}

func (s *SQLiteStore) replaceRoot(ctx context.Context, tx *sql.Tx, root any) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return err
	}
	m, ok := root.(map[string]any)
	if !ok {
		if root == nil {
			return nil
		}
		return fmt.Errorf("%w: root must be an object", ErrInvalidValue)
	}
	for name, doc := range m {
		if err := s.saveCollection(ctx, tx, name, doc); err != nil {
			return err
		}
	}
	return nil
}
