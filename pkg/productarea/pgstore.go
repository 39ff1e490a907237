package productarea

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed product-area store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the product_areas table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS product_areas (
			id            BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			name          TEXT NOT NULL UNIQUE,
			description   TEXT NOT NULL DEFAULT '',
			display_order INTEGER NOT NULL DEFAULT 0,
			active        BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

const selectArea = `SELECT id, name, description, display_order, active, created_at, updated_at FROM product_areas`

// List returns areas ordered by (display_order, name).
func (s *PgStore) List(ctx context.Context, includeInactive bool) ([]Area, error) {
	q := selectArea
	if !includeInactive {
		q += ` WHERE active`
	}
	q += ` ORDER BY display_order, name`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list product areas: %w", err)
	}
	defer rows.Close()

	var areas []Area
	for rows.Next() {
		var a Area
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.DisplayOrder, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// Get returns a product area by ID.
func (s *PgStore) Get(ctx context.Context, id int64) (*Area, error) {
	var a Area
	err := s.pool.QueryRow(ctx, selectArea+` WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Description, &a.DisplayOrder, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product area %d: %w", id, err)
	}
	return &a, nil
}

// Create inserts a new product area.
func (s *PgStore) Create(ctx context.Context, a *Area) (*Area, error) {
	a.Active = true
	err := s.pool.QueryRow(ctx, `
		INSERT INTO product_areas (name, description, display_order)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		a.Name, a.Description, a.DisplayOrder).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("create product area %q: %w", a.Name, err)
	}
	return a, nil
}

// Update modifies area fields.
func (s *PgStore) Update(ctx context.Context, id int64, updates map[string]any) (*Area, error) {
	setClauses := "updated_at = $1"
	args := []any{time.Now().Truncate(time.Microsecond)}
	argIdx := 2

	for k, v := range updates {
		switch k {
		case "name", "description", "display_order":
			setClauses += fmt.Sprintf(", %s = $%d", k, argIdx)
			args = append(args, v)
			argIdx++
		}
	}

	args = append(args, id)
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`UPDATE product_areas SET %s WHERE id = $%d`, setClauses, argIdx), args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("update product area %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// SetActive soft-deletes or reactivates a product area.
func (s *PgStore) SetActive(ctx context.Context, id int64, active bool) (*Area, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE product_areas SET active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return nil, fmt.Errorf("set product area %d active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}
