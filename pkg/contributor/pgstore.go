package contributor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed roster store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the contributors and contributor_replies tables if
// they don't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS contributors (
			id            BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			name          TEXT NOT NULL,
			reddit_handle TEXT UNIQUE,
			alias         TEXT,
			role          TEXT NOT NULL DEFAULT '',
			active        BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS contributors_alias_idx ON contributors(alias) WHERE alias IS NOT NULL`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS contributor_replies (
			id             BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			post_id        TEXT NOT NULL,
			contributor_id BIGINT NOT NULL REFERENCES contributors(id),
			comment_id     TEXT NOT NULL,
			replied_at     TIMESTAMPTZ NOT NULL,
			detected_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS contributor_replies_post_idx ON contributor_replies(post_id)`)
	return err
}

const selectActor = `
	SELECT c.id, c.name, c.reddit_handle, c.alias, c.role, c.active, c.created_at,
	       (SELECT count(*) FROM contributor_replies r WHERE r.contributor_id = c.id) AS reply_count
	FROM contributors c`

// Create inserts a new actor.
func (s *PgStore) Create(ctx context.Context, a *Actor) (*Actor, error) {
	var handle *string
	if a.Kind == KindContributor {
		handle = &a.Handle
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO contributors (name, reddit_handle, alias, role, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		a.Name, handle, nilIfEmpty(a.Alias), a.Role, a.Active).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateHandle
		}
		return nil, fmt.Errorf("create actor %q: %w", a.Name, err)
	}
	return a, nil
}

// Get returns an actor by ID.
func (s *PgStore) Get(ctx context.Context, id int64) (*Actor, error) {
	a, err := s.scanOne(ctx, selectActor+` WHERE c.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get actor %d: %w", id, err)
	}
	return a, nil
}

// ByAlias returns the active actor linked to the given alias.
func (s *PgStore) ByAlias(ctx context.Context, alias string) (*Actor, error) {
	a, err := s.scanOne(ctx, selectActor+` WHERE c.alias = $1 AND c.active`, alias)
	if err != nil {
		return nil, fmt.Errorf("actor by alias %s: %w", alias, err)
	}
	return a, nil
}

// List returns the roster.
func (s *PgStore) List(ctx context.Context, includeInactive bool) ([]Actor, error) {
	q := selectActor
	if !includeInactive {
		q += ` WHERE c.active`
	}
	q += ` ORDER BY c.created_at ASC`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	var actors []Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		actors = append(actors, *a)
	}
	return actors, rows.Err()
}

// Update modifies actor fields. Supported keys: name, handle, alias, role.
func (s *PgStore) Update(ctx context.Context, id int64, updates map[string]any) (*Actor, error) {
	setClauses := ""
	var args []any
	argIdx := 1

	set := func(col string, v any) {
		if setClauses != "" {
			setClauses += ", "
		}
		setClauses += fmt.Sprintf("%s = $%d", col, argIdx)
		args = append(args, v)
		argIdx++
	}
	for k, v := range updates {
		switch k {
		case "name":
			set("name", v)
		case "handle":
			// An empty handle would silently turn a contributor into a
			// reader; reject it instead.
			str, _ := v.(string)
			if str == "" {
				return nil, fmt.Errorf("update actor %d: handle cannot be cleared", id)
			}
			set("reddit_handle", str)
		case "alias":
			set("alias", v)
		case "role":
			set("role", v)
		}
	}
	if setClauses == "" {
		return s.Get(ctx, id)
	}

	args = append(args, id)
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`UPDATE contributors SET %s WHERE id = $%d`, setClauses, argIdx), args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateHandle
		}
		return nil, fmt.Errorf("update actor %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// SetActive soft-deletes or reactivates an actor.
func (s *PgStore) SetActive(ctx context.Context, id int64, active bool) (*Actor, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE contributors SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return nil, fmt.Errorf("set actor %d active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// AddReply records a detected reddit reply by a contributor on a post.
func (s *PgStore) AddReply(ctx context.Context, postID string, contributorID int64, commentID string, repliedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contributor_replies (post_id, contributor_id, comment_id, replied_at)
		VALUES ($1, $2, $3, $4)`,
		postID, contributorID, commentID, repliedAt)
	if err != nil {
		return fmt.Errorf("add reply on post %s: %w", postID, err)
	}
	return nil
}

func (s *PgStore) scanOne(ctx context.Context, query string, args ...any) (*Actor, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanActor(rows)
}

func scanActor(row pgx.Row) (*Actor, error) {
	var a Actor
	var handle, alias *string
	if err := row.Scan(&a.ID, &a.Name, &handle, &alias, &a.Role, &a.Active, &a.CreatedAt, &a.ReplyCount); err != nil {
		return nil, err
	}
	if handle != nil {
		a.Kind = KindContributor
		a.Handle = *handle
	} else {
		a.Kind = KindReader
	}
	if alias != nil {
		a.Alias = *alias
	}
	return &a, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
