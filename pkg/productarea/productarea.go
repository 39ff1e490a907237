// Package productarea maintains the product-area taxonomy that themes and
// analytics group posts under.
package productarea

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no product area matches the lookup.
	ErrNotFound = errors.New("product area not found")
	// ErrDuplicateName is returned when the name is already taken.
	ErrDuplicateName = errors.New("product area with this name already exists")
)

// Area is one product area.
type Area struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	DisplayOrder int       `json:"display_order"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store is the contract for product-area persistence.
type Store interface {
	// List returns areas ordered by (display_order, name); active only
	// unless includeInactive.
	List(ctx context.Context, includeInactive bool) ([]Area, error)
	Get(ctx context.Context, id int64) (*Area, error)
	Create(ctx context.Context, a *Area) (*Area, error)
	// Update modifies area fields. Supported keys: name, description,
	// display_order.
	Update(ctx context.Context, id int64, updates map[string]any) (*Area, error)
	SetActive(ctx context.Context, id int64, active bool) (*Area, error)
	EnsureTable(ctx context.Context) error
}
