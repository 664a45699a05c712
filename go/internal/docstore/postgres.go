package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/sqlc-dev/pqtype"
)

// DocumentsSchema creates the single table every collection lives in
const DocumentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
    collection  TEXT        NOT NULL,
    id          TEXT        NOT NULL,
    attributes  JSONB       NOT NULL DEFAULT '{}'::jsonb,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_collection_created_idx ON documents (collection, created_at, id);
`

// PostgresBackend stores documents as jsonb rows keyed by (collection, id)
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend wraps an open lib/pq connection pool
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Migrate creates the documents table if it does not exist
func (b *PostgresBackend) Migrate(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, DocumentsSchema); err != nil {
		return fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, collection, id string) (models.RawDocument, error) {
	var attrs pqtype.NullRawMessage
	err := b.db.QueryRowContext(ctx,
		`SELECT attributes FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RawDocument{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return models.RawDocument{}, fmt.Errorf("failed to get document: %w", err)
	}
	return decodeRow(id, attrs)
}

func (b *PostgresBackend) GetAll(ctx context.Context, collection string) ([]models.RawDocument, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, attributes FROM documents WHERE collection = $1 ORDER BY created_at, id`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.RawDocument
	for rows.Next() {
		var (
			id    string
			attrs pqtype.NullRawMessage
		)
		if err := rows.Scan(&id, &attrs); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc, err := decodeRow(id, attrs)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

func (b *PostgresBackend) Create(ctx context.Context, collection string, attrs map[string]any) (string, error) {
	id := uuid.NewString()
	payload, err := encodeAttributes(attrs)
	if err != nil {
		return "", err
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, attributes) VALUES ($1, $2, $3)`,
		collection, id, payload,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return id, nil
}

func (b *PostgresBackend) CreateWithID(ctx context.Context, collection string, attrs map[string]any, id string) error {
	payload, err := encodeAttributes(attrs)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, attributes) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE
		SET attributes = EXCLUDED.attributes, updated_at = now()`,
		collection, id, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to create document with id: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Update(ctx context.Context, collection string, attrs map[string]any, id string) error {
	payload, err := encodeAttributes(attrs)
	if err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx, `
		UPDATE documents SET attributes = attributes || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2`,
		collection, id, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return expectRow(res, collection, id)
}

func (b *PostgresBackend) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode field %s: %w", field, err)
	}
	res, err := b.db.ExecContext(ctx, `
		UPDATE documents SET attributes = jsonb_set(attributes, $3::text[], $4::jsonb, true), updated_at = now()
		WHERE collection = $1 AND id = $2`,
		collection, id, pq.Array([]string{field}), pqtype.NullRawMessage{RawMessage: payload, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("failed to update document field: %w", err)
	}
	return expectRow(res, collection, id)
}

func (b *PostgresBackend) Delete(ctx context.Context, collection, id string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func encodeAttributes(attrs map[string]any) (pqtype.NullRawMessage, error) {
	if attrs == nil {
		attrs = map[string]any{}
	}
	payload, err := json.Marshal(attrs)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("failed to encode attributes: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: payload, Valid: true}, nil
}

func decodeRow(id string, raw pqtype.NullRawMessage) (models.RawDocument, error) {
	attrs := map[string]any{}
	if raw.Valid && len(raw.RawMessage) > 0 {
		if err := json.Unmarshal(raw.RawMessage, &attrs); err != nil {
			return models.RawDocument{}, fmt.Errorf("failed to decode attributes of %s: %w", id, err)
		}
	}
	return models.RawDocument{ID: id, Attributes: attrs}, nil
}

func expectRow(res sql.Result, collection, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}
