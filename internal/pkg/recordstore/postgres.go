package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresSchema creates the single JSONB table shared by all collections.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	doc        JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS records_doc_gin ON records USING GIN (doc jsonb_path_ops);
`

// PostgresStore keeps documents as JSONB rows. Timestamps round-trip as
// RFC 3339 strings and numbers as float64.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresStore creates a store on an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Migrate creates the records table if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, PostgresSchema); err != nil {
		return unavailable("migrate", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	stored := sanitizePatch(doc)
	id := uuid.NewString()
	createdAt := s.now().UTC()
	stored[IDField] = id
	stored[CreatedAtField] = createdAt

	body, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}

	query := `INSERT INTO records (collection, id, doc, created_at) VALUES ($1, $2, $3::jsonb, $4)`
	if _, err := s.db.ExecContext(ctx, query, collection, id, string(body), createdAt); err != nil {
		return "", unavailable("create", err)
	}
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	query := `SELECT doc FROM records WHERE collection = $1 AND id = $2`
	if err := s.db.GetContext(ctx, &raw, query, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get", err)
	}
	return decodeJSON(raw)
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, patch Document) error {
	body, err := json.Marshal(sanitizePatch(patch))
	if err != nil {
		return err
	}

	query := `UPDATE records SET doc = doc || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`
	res, err := s.db.ExecContext(ctx, query, collection, id, string(body))
	if err != nil {
		return unavailable("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("update", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateIf compares the JSON value of a top-level field before merging patch.
func (s *PostgresStore) UpdateIf(ctx context.Context, collection, id, field string, expected any, patch Document) (bool, error) {
	body, err := json.Marshal(sanitizePatch(patch))
	if err != nil {
		return false, err
	}
	want, err := json.Marshal(expected)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE records SET doc = doc || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2 AND doc -> $4::text = $5::jsonb
	`
	res, err := s.db.ExecContext(ctx, query, collection, id, string(body), field, string(want))
	if err != nil {
		return false, unavailable("update_if", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("update_if", err)
	}
	if n == 1 {
		return true, nil
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM records WHERE collection = $1 AND id = $2)`, collection, id); err != nil {
		return false, unavailable("update_if", err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	if filter == nil {
		filter = Filter{}
	}
	body, err := json.Marshal(filter)
	if err != nil {
		return nil, err
	}

	query := `SELECT doc FROM records WHERE collection = $1 AND doc @> $2::jsonb ORDER BY created_at, id`
	var rows [][]byte
	if err := s.db.SelectContext(ctx, &rows, query, collection, string(body)); err != nil {
		return nil, unavailable("query", err)
	}

	out := make([]Document, 0, len(rows))
	for _, raw := range rows {
		doc, err := decodeJSON(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func decodeJSON(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, unavailable("decode", err)
	}
	return doc, nil
}
