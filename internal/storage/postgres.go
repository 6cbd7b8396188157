package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// unique_violation
const pqUniqueViolation = pq.ErrorCode("23505")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, unavailable("open postgres", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable("ping postgres", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Initialize(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
            seq BIGSERIAL,
            kind VARCHAR(64) NOT NULL,
            id VARCHAR(255) NOT NULL,
            body JSONB NOT NULL,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (kind, id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_documents_kind_seq ON documents(kind, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_establishment_category ON documents ((body->>'category')) WHERE kind = 'establishments'`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping postgres", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, kind Kind) ([]Document, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, body FROM documents WHERE kind = $1 ORDER BY seq`, string(kind))
	if err != nil {
		return nil, unavailable("list "+string(kind), err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var body []byte
		if err := rows.Scan(&doc.ID, &body); err != nil {
			return nil, unavailable("scan "+string(kind), err)
		}
		doc.Body = body
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list "+string(kind), err)
	}

	return docs, nil
}

func (s *PostgresStore) Get(ctx context.Context, kind Kind, id string) (Document, error) {
	if err := checkKind(kind); err != nil {
		return Document{}, err
	}

	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE kind = $1 AND id = $2`, string(kind), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, unavailable("get "+string(kind), err)
	}

	return Document{ID: id, Body: body}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, kind Kind, doc Document) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (kind, id, body) VALUES ($1, $2, $3)`,
		string(kind), doc.ID, []byte(doc.Body),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("%s %s: %w", kind, doc.ID, ErrDuplicateID)
		}
		return unavailable("insert "+string(kind), err)
	}

	return nil
}

func (s *PostgresStore) Replace(ctx context.Context, kind Kind, doc Document) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET body = $1, updated_at = CURRENT_TIMESTAMP WHERE kind = $2 AND id = $3`,
		[]byte(doc.Body), string(kind), doc.ID,
	)
	if err != nil {
		return unavailable("replace "+string(kind), err)
	}

	return affectedOne(res, kind, doc.ID)
}

func (s *PostgresStore) Delete(ctx context.Context, kind Kind, id string) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE kind = $1 AND id = $2`, string(kind), id)
	if err != nil {
		return unavailable("delete "+string(kind), err)
	}

	return affectedOne(res, kind, id)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
