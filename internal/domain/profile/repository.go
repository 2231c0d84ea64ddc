package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Schema creates the profiles table read by the resolver.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	role       TEXT NOT NULL CHECK (role IN ('seeker', 'provider')),
	full_name  TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Repository defines profile data access interface
type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates profile repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// GetByID returns nil, nil when the profile does not exist.
func (r *repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	q := `SELECT id, role, full_name, avatar_url FROM profiles WHERE id = $1`

	var p Profile
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Found = true
	return &p, nil
}
