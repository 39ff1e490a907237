package post

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed post store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the posts and analyses tables if they don't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id                     TEXT PRIMARY KEY,
			subreddit              TEXT NOT NULL,
			title                  TEXT NOT NULL,
			body                   TEXT NOT NULL DEFAULT '',
			author                 TEXT NOT NULL,
			url                    TEXT NOT NULL,
			score                  INTEGER NOT NULL DEFAULT 0,
			num_comments           INTEGER NOT NULL DEFAULT 0,
			created_utc            TIMESTAMPTZ NOT NULL,
			scraped_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
			status                 TEXT NOT NULL DEFAULT 'pending',
			latest_sentiment       TEXT NOT NULL DEFAULT '',
			latest_sentiment_score DOUBLE PRECISION,
			is_warning             BOOLEAN NOT NULL DEFAULT FALSE,
			checked_out_by         BIGINT,
			checked_out_by_name    TEXT NOT NULL DEFAULT '',
			checked_out_at         TIMESTAMPTZ,
			resolved               BOOLEAN NOT NULL DEFAULT FALSE,
			resolved_by            BIGINT,
			resolved_by_name       TEXT NOT NULL DEFAULT '',
			resolved_at            TIMESTAMPTZ
		)`)
	if err != nil {
		return err
	}
	for _, idx := range []string{
		`CREATE INDEX IF NOT EXISTS posts_subreddit_idx ON posts(subreddit)`,
		`CREATE INDEX IF NOT EXISTS posts_status_idx ON posts(status)`,
		`CREATE INDEX IF NOT EXISTS posts_created_utc_idx ON posts(created_utc)`,
	} {
		if _, err := s.pool.Exec(ctx, idx); err != nil {
			return err
		}
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS analyses (
			id              TEXT PRIMARY KEY,
			post_id         TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			summary         TEXT NOT NULL,
			sentiment       TEXT NOT NULL,
			sentiment_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			key_issues      TEXT[] NOT NULL DEFAULT '{}',
			is_warning      BOOLEAN NOT NULL DEFAULT FALSE,
			analyzed_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			model_used      TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS analyses_post_idx ON analyses(post_id, analyzed_at DESC)`)
	return err
}

const selectPost = `
	SELECT p.id, p.subreddit, p.title, p.body, p.author, p.url, p.score, p.num_comments,
	       p.created_utc, p.scraped_at, p.status,
	       p.latest_sentiment, p.latest_sentiment_score, p.is_warning,
	       EXISTS (SELECT 1 FROM contributor_replies r WHERE r.post_id = p.id) AS has_reply,
	       p.checked_out_by, p.checked_out_by_name, p.checked_out_at,
	       p.resolved, p.resolved_by, p.resolved_by_name, p.resolved_at
	FROM posts p`

// Upsert inserts a scraped post or refreshes its mutable reddit fields.
func (s *PgStore) Upsert(ctx context.Context, p *Post) (*Post, error) {
	if p.Status == "" {
		p.Status = StatusPending
	}
	if p.ScrapedAt.IsZero() {
		p.ScrapedAt = time.Now().Truncate(time.Microsecond)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO posts (id, subreddit, title, body, author, url, score, num_comments, created_utc, scraped_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			score = EXCLUDED.score,
			num_comments = EXCLUDED.num_comments,
			body = EXCLUDED.body,
			scraped_at = EXCLUDED.scraped_at`,
		p.ID, p.Subreddit, p.Title, p.Body, p.Author, p.URL, p.Score, p.NumComments, p.CreatedUTC, p.ScrapedAt, p.Status)
	if err != nil {
		return nil, fmt.Errorf("upsert post %s: %w", p.ID, err)
	}
	return s.Get(ctx, p.ID)
}

// Get retrieves a single post by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*Post, error) {
	p, err := s.scanOne(ctx, selectPost+` WHERE p.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	return p, nil
}

// List returns posts matching the filter.
func (s *PgStore) List(ctx context.Context, f ListFilter) ([]Post, error) {
	q := selectPost
	var args []any
	argIdx := 1

	where := ""
	and := func(cond string, v any) {
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, argIdx)
		args = append(args, v)
		argIdx++
	}
	if f.Status != "" {
		and("p.status = $%d", f.Status)
	}
	if f.Subreddit != "" {
		and("p.subreddit = $%d", f.Subreddit)
	}
	if f.Sentiment != "" {
		and("p.id IN (SELECT DISTINCT a.post_id FROM analyses a WHERE a.sentiment = $%d)", f.Sentiment)
	}
	q += where

	// Sort columns are whitelisted; anything else falls back to created_utc.
	sortCol := "created_utc"
	switch f.SortBy {
	case "scraped_at", "score":
		sortCol = f.SortBy
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	q += fmt.Sprintf(" ORDER BY p.%s %s", sortCol, dir)

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Skip)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// UpdateStatus sets the triage status.
func (s *PgStore) UpdateStatus(ctx context.Context, id, status string) (*Post, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE posts SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return nil, fmt.Errorf("update post %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Checkout claims the post for the actor iff nobody holds it. The guard is
// in the WHERE clause, so concurrent checkouts race at the database and
// exactly one wins.
func (s *PgStore) Checkout(ctx context.Context, id string, actorID int64, actorName string) (*Post, error) {
	now := time.Now().Truncate(time.Microsecond)
	tag, err := s.pool.Exec(ctx, `
		UPDATE posts
		SET checked_out_by = $2, checked_out_by_name = $3, checked_out_at = $4
		WHERE id = $1 AND checked_out_by IS NULL`,
		id, actorID, actorName, now)
	if err != nil {
		return nil, fmt.Errorf("checkout post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrCheckedOut
	}
	return s.Get(ctx, id)
}

// Release clears the claim iff the actor holds it.
func (s *PgStore) Release(ctx context.Context, id string, actorID int64) (*Post, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE posts
		SET checked_out_by = NULL, checked_out_by_name = '', checked_out_at = NULL
		WHERE id = $1 AND checked_out_by = $2`,
		id, actorID)
	if err != nil {
		return nil, fmt.Errorf("release post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNotHolder
	}
	return s.Get(ctx, id)
}

// Resolve marks the post done.
func (s *PgStore) Resolve(ctx context.Context, id string, actorID int64, actorName string) (*Post, error) {
	now := time.Now().Truncate(time.Microsecond)
	tag, err := s.pool.Exec(ctx, `
		UPDATE posts
		SET resolved = TRUE, resolved_by = $2, resolved_by_name = $3, resolved_at = $4
		WHERE id = $1`,
		id, actorID, actorName, now)
	if err != nil {
		return nil, fmt.Errorf("resolve post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Unresolve clears the resolution fields.
func (s *PgStore) Unresolve(ctx context.Context, id string) (*Post, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE posts
		SET resolved = FALSE, resolved_by = NULL, resolved_by_name = '', resolved_at = NULL
		WHERE id = $1`,
		id)
	if err != nil {
		return nil, fmt.Errorf("unresolve post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// AddAnalysis appends an analysis record and updates the post's denormalized
// latest-sentiment fields in the same transaction.
func (s *PgStore) AddAnalysis(ctx context.Context, a *Analysis) (*Analysis, error) {
	a.ID = uuid.Must(uuid.NewV7()).String()
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = time.Now().Truncate(time.Microsecond)
	}
	if a.KeyIssues == nil {
		a.KeyIssues = []string{}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO analyses (id, post_id, summary, sentiment, sentiment_score, key_issues, is_warning, analyzed_at, model_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.PostID, a.Summary, a.Sentiment, a.SentimentScore, a.KeyIssues, a.IsWarning, a.AnalyzedAt, a.ModelUsed)
	if err != nil {
		return nil, fmt.Errorf("insert analysis for %s: %w", a.PostID, err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE posts
		SET latest_sentiment = $2, latest_sentiment_score = $3, is_warning = $4,
		    status = CASE WHEN status = 'pending' THEN 'analyzed' ELSE status END
		WHERE id = $1`,
		a.PostID, a.Sentiment, a.SentimentScore, a.IsWarning)
	if err != nil {
		return nil, fmt.Errorf("update latest sentiment for %s: %w", a.PostID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit analysis for %s: %w", a.PostID, err)
	}
	return a, nil
}

// Analyses returns a post's analysis history, most recent first.
func (s *PgStore) Analyses(ctx context.Context, postID string) ([]Analysis, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, post_id, summary, sentiment, sentiment_score, key_issues, is_warning, analyzed_at, model_used
		FROM analyses WHERE post_id = $1 ORDER BY analyzed_at DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("list analyses for %s: %w", postID, err)
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.PostID, &a.Summary, &a.Sentiment, &a.SentimentScore, &a.KeyIssues, &a.IsWarning, &a.AnalyzedAt, &a.ModelUsed); err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

func (s *PgStore) scanOne(ctx context.Context, query string, args ...any) (*Post, error) {
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
	return scanPost(rows)
}

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	var latestSentiment, checkedOutByName, resolvedByName string
	err := row.Scan(&p.ID, &p.Subreddit, &p.Title, &p.Body, &p.Author, &p.URL, &p.Score, &p.NumComments,
		&p.CreatedUTC, &p.ScrapedAt, &p.Status,
		&latestSentiment, &p.LatestSentimentScore, &p.IsWarning,
		&p.HasContributorReply,
		&p.CheckedOutBy, &checkedOutByName, &p.CheckedOutAt,
		&p.Resolved, &p.ResolvedBy, &resolvedByName, &p.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.LatestSentiment = latestSentiment
	p.CheckedOutByName = checkedOutByName
	p.ResolvedByName = resolvedByName
	return &p, nil
}
