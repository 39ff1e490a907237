package post

import (
	"context"
	"errors"
	"time"
)

// Post statuses mirror the triage pipeline.
const (
	StatusPending  = "pending"
	StatusAnalyzed = "analyzed"
	StatusHandled  = "handled"
	StatusAnswered = "answered"
)

// Sentiment labels carried by analysis records.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

var (
	// ErrNotFound is returned when no post matches the lookup.
	ErrNotFound = errors.New("post not found")
	// ErrCheckedOut is returned when a checkout loses the race for an
	// already-held post.
	ErrCheckedOut = errors.New("post is already checked out")
	// ErrNotHolder is returned when a release is attempted by anyone other
	// than the checkout holder.
	ErrNotHolder = errors.New("post is not checked out by this contributor")
)

// Post is a scraped reddit post under triage.
//
// Checkout and resolution are two independent sub-machines: the three
// checked_out fields are all set or all clear, the resolved fields are set
// iff Resolved, and no invariant couples the two groups.
type Post struct {
	ID          string    `json:"id"` // reddit post id
	Subreddit   string    `json:"subreddit"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	Author      string    `json:"author"`
	URL         string    `json:"url"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	CreatedUTC  time.Time `json:"created_utc"`
	ScrapedAt   time.Time `json:"scraped_at"`
	Status      string    `json:"status"`

	// Denormalized mirror of the newest analysis record.
	LatestSentiment      string   `json:"latest_sentiment,omitempty"`
	LatestSentimentScore *float64 `json:"latest_sentiment_score,omitempty"`
	IsWarning            bool     `json:"is_warning"`

	HasContributorReply bool `json:"has_contributor_reply"`

	CheckedOutBy     *int64     `json:"checked_out_by"`
	CheckedOutByName string     `json:"checked_out_by_name,omitempty"`
	CheckedOutAt     *time.Time `json:"checked_out_at,omitempty"`

	Resolved       bool       `json:"resolved"`
	ResolvedBy     *int64     `json:"resolved_by,omitempty"`
	ResolvedByName string     `json:"resolved_by_name,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// CheckedOut reports whether any actor currently holds the post.
func (p *Post) CheckedOut() bool {
	return p.CheckedOutBy != nil
}

// HeldBy reports whether the given actor holds the checkout.
func (p *Post) HeldBy(actorID int64) bool {
	return p.CheckedOutBy != nil && *p.CheckedOutBy == actorID
}

// Analysis is one sentiment-analysis record for a post. History is
// most-recent-first; every analyze call appends a new record, no dedup.
type Analysis struct {
	ID             string    `json:"id"` // UUIDv7 (time-ordered)
	PostID         string    `json:"post_id"`
	Summary        string    `json:"summary"`
	Sentiment      string    `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	KeyIssues      []string  `json:"key_issues"`
	IsWarning      bool      `json:"is_warning"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
	ModelUsed      string    `json:"model_used,omitempty"`
}

// Detail is a post plus its full analysis history.
type Detail struct {
	Post
	Analyses []Analysis `json:"analyses"`
}

// ListFilter narrows and orders a post listing.
type ListFilter struct {
	Status    string
	Sentiment string
	Subreddit string
	SortBy    string // created_utc, scraped_at or score
	SortDesc  bool
	Skip      int
	Limit     int
}

// Store is the contract for post persistence. The checkout and release
// mutations are compare-and-set: whichever request reaches the database
// first wins, the loser gets ErrCheckedOut/ErrNotHolder and nothing changes.
type Store interface {
	// Upsert inserts a scraped post or refreshes its mutable reddit fields
	// (score, comment count, body). Lifecycle fields are never touched.
	Upsert(ctx context.Context, p *Post) (*Post, error)

	Get(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context, f ListFilter) ([]Post, error)
	UpdateStatus(ctx context.Context, id, status string) (*Post, error)

	// Checkout claims the post for the actor iff nobody holds it.
	Checkout(ctx context.Context, id string, actorID int64, actorName string) (*Post, error)
	// Release clears the claim iff the actor holds it.
	Release(ctx context.Context, id string, actorID int64) (*Post, error)

	// Resolve marks the post done. Any write-capable actor may resolve any
	// post; holding the checkout is not required.
	Resolve(ctx context.Context, id string, actorID int64, actorName string) (*Post, error)
	Unresolve(ctx context.Context, id string) (*Post, error)

	// AddAnalysis appends an analysis record and updates the post's
	// denormalized latest-sentiment fields in the same transaction.
	AddAnalysis(ctx context.Context, a *Analysis) (*Analysis, error)
	Analyses(ctx context.Context, postID string) ([]Analysis, error)

	EnsureTable(ctx context.Context) error
}
