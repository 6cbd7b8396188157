package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, unavailable("open sqlite", err)
	}
	// a single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable("ping sqlite", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Initialize(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            kind TEXT NOT NULL,
            id TEXT NOT NULL,
            body TEXT NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(kind, id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_documents_kind ON documents(kind)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping sqlite", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, kind Kind) ([]Document, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, body FROM documents WHERE kind = ? ORDER BY seq`, string(kind))
	if err != nil {
		return nil, unavailable("list "+string(kind), err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var body string
		if err := rows.Scan(&doc.ID, &body); err != nil {
			return nil, unavailable("scan "+string(kind), err)
		}
		doc.Body = []byte(body)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list "+string(kind), err)
	}

	return docs, nil
}

func (s *SQLiteStore) Get(ctx context.Context, kind Kind, id string) (Document, error) {
	if err := checkKind(kind); err != nil {
		return Document{}, err
	}

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE kind = ? AND id = ?`, string(kind), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, unavailable("get "+string(kind), err)
	}

	return Document{ID: id, Body: []byte(body)}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, kind Kind, doc Document) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (kind, id, body) VALUES (?, ?, ?)`,
		string(kind), doc.ID, string(doc.Body),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%s %s: %w", kind, doc.ID, ErrDuplicateID)
		}
		return unavailable("insert "+string(kind), err)
	}

	return nil
}

func (s *SQLiteStore) Replace(ctx context.Context, kind Kind, doc Document) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = CURRENT_TIMESTAMP WHERE kind = ? AND id = ?`,
		string(doc.Body), string(kind), doc.ID,
	)
	if err != nil {
		return unavailable("replace "+string(kind), err)
	}

	return affectedOne(res, kind, doc.ID)
}

func (s *SQLiteStore) Delete(ctx context.Context, kind Kind, id string) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return unavailable("delete "+string(kind), err)
	}

	return affectedOne(res, kind, id)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func affectedOne(res sql.Result, kind Kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
