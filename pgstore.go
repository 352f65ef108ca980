package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PGStore implements DocumentStore on PostgreSQL. Every document lives as a
// jsonb row in a single table; created_seq gives queries the same stable
// insertion order the in-memory store has.
type PGStore struct {
	db *sql.DB
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection  TEXT   NOT NULL,
	id          TEXT   NOT NULL,
	data        JSONB  NOT NULL,
	created_seq BIGSERIAL,
	PRIMARY KEY (collection, id)
)`

func OpenPGStore(connStr string) (*PGStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("cannot reach the database: %w", err)
	}
	if _, err := db.Exec(pgSchema); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	log.Default().Println("Database connection established successfully")
	return &PGStore{db: db}, nil
}

func (s *PGStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return decodeRow(id, raw)
}

func (s *PGStore) Set(ctx context.Context, collection, id string, fields Document) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data
	`, collection, id, raw)
	return err
}

func (s *PGStore) Create(ctx context.Context, collection, id string, fields Document) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO NOTHING
	`, collection, id, raw)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrExists
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, collection, id string, fields Document) error {
	// Array unions/removes need the current value, so the merge happens in Go
	// under a row lock: no other request can touch the document until the
	// transaction finishes.
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var raw []byte
		err := tx.QueryRowContext(ctx, `
			SELECT data FROM documents
			WHERE collection = $1 AND id = $2
			FOR UPDATE
		`, collection, id).Scan(&raw)
		if err == sql.ErrNoRows {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		doc, err := decodeRow("", raw)
		if err != nil {
			return err
		}
		delete(doc, "id")
		applyFieldOps(doc, fields)

		merged, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE documents SET data = $3
			WHERE collection = $1 AND id = $2
		`, collection, id, merged)
		return err
	})
}

func (s *PGStore) Query(ctx context.Context, collection string, opts ...QueryOption) ([]Document, error) {
	q := buildQueryOptions(opts)

	sqlQuery := `SELECT id, data FROM documents WHERE collection = $1`
	args := []any{collection}
	for _, f := range q.filters {
		// The document id lives in its own column, not in the jsonb payload.
		if f.field == "id" {
			args = append(args, fmt.Sprint(f.value))
			if f.op == "!=" {
				sqlQuery += fmt.Sprintf(" AND id <> $%d", len(args))
			} else {
				sqlQuery += fmt.Sprintf(" AND id = $%d", len(args))
			}
			continue
		}
		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		args = append(args, f.field, string(value))
		if f.op == "!=" {
			sqlQuery += fmt.Sprintf(" AND data -> $%d::text IS DISTINCT FROM $%d::jsonb", len(args)-1, len(args))
		} else {
			sqlQuery += fmt.Sprintf(" AND data -> $%d::text = $%d::jsonb", len(args)-1, len(args))
		}
	}
	if q.orderByDesc != "" {
		args = append(args, q.orderByDesc)
		sqlQuery += fmt.Sprintf(" ORDER BY (data ->> $%d::text)::numeric DESC NULLS LAST, created_seq", len(args))
	} else {
		sqlQuery += " ORDER BY created_seq"
	}
	if q.limit > 0 {
		args = append(args, q.limit)
		sqlQuery += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		doc, err := decodeRow(id, raw)
		if err != nil {
			return nil, err
		}
		results = append(results, doc)
	}
	return results, rows.Err()
}

// withTx wraps a function in a database transaction.
// - Ensures COMMIT on success, ROLLBACK on errors or panics.
// - Keeps store methods tiny and all state changes atomic.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		// If the callback panics, make sure to rollback before re-panicking
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func decodeRow(id string, raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	if id != "" {
		doc["id"] = id
	}
	return doc, nil
}
