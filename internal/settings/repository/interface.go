package repository

import (
	"context"
	"time"
)

// Setting is a single business configuration entry.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description *string   `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Repository provides access to the settings key/value store.
type Repository interface {
	Get(ctx context.Context, key string) (Setting, error)
	List(ctx context.Context) ([]Setting, error)
	// Upsert stores the value and returns the previous value, if any.
	Upsert(ctx context.Context, key, value string, description *string) (*string, error)
}
