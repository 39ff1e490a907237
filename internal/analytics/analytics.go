// Package analytics aggregates dashboard-level counts over the triage data.
package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Overview is the headline dashboard numbers.
type Overview struct {
	TotalPosts         int `json:"total_posts"`
	AnalyzedPosts      int `json:"analyzed_posts"`
	ResolvedPosts      int `json:"resolved_posts"`
	CheckedOutPosts    int `json:"checked_out_posts"`
	NegativePosts      int `json:"negative_posts"`
	WarningPosts       int `json:"warning_posts"`
	ActiveContributors int `json:"active_contributors"`
}

// StatusCount is one row of the status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Store runs aggregation queries. Reads only, no tables of its own.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Overview computes the headline numbers in one round trip.
func (s *Store) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM posts),
			(SELECT count(*) FROM posts WHERE latest_sentiment != ''),
			(SELECT count(*) FROM posts WHERE resolved),
			(SELECT count(*) FROM posts WHERE checked_out_by IS NOT NULL),
			(SELECT count(*) FROM posts WHERE latest_sentiment = 'negative'),
			(SELECT count(*) FROM posts WHERE is_warning),
			(SELECT count(*) FROM contributors WHERE active AND reddit_handle IS NOT NULL)`).
		Scan(&o.TotalPosts, &o.AnalyzedPosts, &o.ResolvedPosts, &o.CheckedOutPosts,
			&o.NegativePosts, &o.WarningPosts, &o.ActiveContributors)
	if err != nil {
		return nil, fmt.Errorf("analytics overview: %w", err)
	}
	return &o, nil
}

// StatusBreakdown counts posts per triage status.
func (s *Store) StatusBreakdown(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, count(*) FROM posts GROUP BY status ORDER BY count(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
