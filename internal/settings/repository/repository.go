package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const settingNotFoundMessage = "setting not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new settings repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Get retrieves a setting by key.
func (r *Repo) Get(ctx context.Context, key string) (Setting, error) {
	query := `
		SELECT key, value, description, updated_at
		FROM settings
		WHERE key = $1`

	var s Setting
	err := r.pool.QueryRow(ctx, query, key).Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Setting{}, apperr.NotFound(settingNotFoundMessage)
		}
		return Setting{}, fmt.Errorf("get setting: %w", err)
	}

	return s, nil
}

// List retrieves all settings ordered by key.
func (r *Repo) List(ctx context.Context) ([]Setting, error) {
	query := `
		SELECT key, value, description, updated_at
		FROM settings
		ORDER BY key ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var results []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	return results, nil
}

// Upsert stores a setting value, returning the previous value when the key
// already existed.
func (r *Repo) Upsert(ctx context.Context, key, value string, description *string) (*string, error) {
	var previous *string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&previous)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("read previous setting: %w", err)
	}

	query := `
		INSERT INTO settings (key, value, description, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			description = COALESCE(EXCLUDED.description, settings.description),
			updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, key, value, description); err != nil {
		return nil, fmt.Errorf("upsert setting: %w", err)
	}

	return previous, nil
}
