// Package monitorclient is the REST client for the social-monitor backend,
// plus the Coordinator that applies the checkout/resolution state machine
// to a locally held post snapshot.
package monitorclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"social-monitor/pkg/contributor"
	"social-monitor/pkg/post"
	"social-monitor/pkg/productarea"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsConflict reports whether the error is an HTTP 409, i.e. a lost
// checkout/release race.
func IsConflict(err error) bool {
	var apiErr *APIError
	return asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// IsNotFound reports whether the error is an HTTP 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Me is the current-user info from /api/auth/me.
type Me struct {
	Authenticated   bool   `json:"authenticated"`
	Email           string `json:"email,omitempty"`
	Name            string `json:"name,omitempty"`
	Alias           string `json:"alias,omitempty"`
	ContributorID   int64  `json:"contributor_id,omitempty"`
	ContributorName string `json:"contributor_name,omitempty"`
}

// ListOptions narrows a post listing.
type ListOptions struct {
	Status    string
	Sentiment string
	Subreddit string
	SortBy    string
	SortDesc  bool
	Skip      int
	Limit     int
}

// Client talks to the backend. Each call is one request/response round
// trip; the client never retries on its own.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.http.SetAuthToken(token) }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json"),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type errorBody struct {
	Error string `json:"error"`
}

// do runs a prepared request and folds non-2xx responses into *APIError.
func (c *Client) do(req *resty.Request, method, path string) error {
	resp, err := req.SetError(&errorBody{}).Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
			msg = body.Error
		}
		return &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}
	return nil
}

// Roster fetches the actor roster (active actors only).
func (c *Client) Roster(ctx context.Context) ([]contributor.Actor, error) {
	var actors []contributor.Actor
	err := c.do(c.http.R().SetContext(ctx).SetResult(&actors), http.MethodGet, "/api/contributors")
	return actors, err
}

// FullRoster fetches the roster including deactivated actors.
func (c *Client) FullRoster(ctx context.Context) ([]contributor.Actor, error) {
	var actors []contributor.Actor
	err := c.do(c.http.R().SetContext(ctx).SetQueryParam("include_inactive", "true").SetResult(&actors),
		http.MethodGet, "/api/contributors")
	return actors, err
}

// Me fetches the current authenticated user and its linked actor, if any.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&me), http.MethodGet, "/api/auth/me"); err != nil {
		return nil, err
	}
	return &me, nil
}

// CreateContributor registers a new write-capable actor.
func (c *Client) CreateContributor(ctx context.Context, name, handle, alias, role string) (*contributor.Actor, error) {
	var a contributor.Actor
	err := c.do(c.http.R().SetContext(ctx).
		SetBody(map[string]string{"name": name, "reddit_handle": handle, "alias": alias, "role": role}).
		SetResult(&a), http.MethodPost, "/api/contributors")
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateReader registers a new view-only actor.
func (c *Client) CreateReader(ctx context.Context, name, alias, role string) (*contributor.Actor, error) {
	var a contributor.Actor
	err := c.do(c.http.R().SetContext(ctx).
		SetBody(map[string]string{"name": name, "alias": alias, "role": role}).
		SetResult(&a), http.MethodPost, "/api/contributors/readers")
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Contributor fetches one actor by id.
func (c *Client) Contributor(ctx context.Context, id int64) (*contributor.Actor, error) {
	var a contributor.Actor
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&a),
		http.MethodGet, fmt.Sprintf("/api/contributors/%d", id)); err != nil {
		return nil, err
	}
	return &a, nil
}

// Posts lists posts matching the options.
func (c *Client) Posts(ctx context.Context, opts ListOptions) ([]post.Post, error) {
	req := c.http.R().SetContext(ctx)
	if opts.Status != "" {
		req.SetQueryParam("status", opts.Status)
	}
	if opts.Sentiment != "" {
		req.SetQueryParam("sentiment", opts.Sentiment)
	}
	if opts.Subreddit != "" {
		req.SetQueryParam("subreddit", opts.Subreddit)
	}
	if opts.SortBy != "" {
		req.SetQueryParam("sort_by", opts.SortBy)
		order := "asc"
		if opts.SortDesc {
			order = "desc"
		}
		req.SetQueryParam("sort_order", order)
	}
	if opts.Skip > 0 {
		req.SetQueryParam("skip", fmt.Sprint(opts.Skip))
	}
	if opts.Limit > 0 {
		req.SetQueryParam("limit", fmt.Sprint(opts.Limit))
	}
	var posts []post.Post
	err := c.do(req.SetResult(&posts), http.MethodGet, "/api/posts")
	return posts, err
}

// Post fetches one post with its analysis history.
func (c *Client) Post(ctx context.Context, id string) (*post.Detail, error) {
	var d post.Detail
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&d), http.MethodGet, "/api/posts/"+id); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertPost ingests a scraped post or refreshes its mutable reddit fields.
func (c *Client) UpsertPost(ctx context.Context, p *post.Post) (*post.Post, error) {
	var out post.Post
	if err := c.do(c.http.R().SetContext(ctx).SetBody(p).SetResult(&out),
		http.MethodPost, "/api/posts"); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetStatus moves the post to a new triage status.
func (c *Client) SetStatus(ctx context.Context, postID, status string) (*post.Post, error) {
	var p post.Post
	err := c.do(c.http.R().SetContext(ctx).
		SetBody(map[string]string{"status": status}).
		SetResult(&p), http.MethodPatch, fmt.Sprintf("/api/posts/%s/status", postID))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type actorRef struct {
	ContributorID int64 `json:"contributor_id"`
}

// Checkout claims the post for the actor. 409 when another actor holds it.
func (c *Client) Checkout(ctx context.Context, postID string, actorID int64) (*post.Post, error) {
	return c.lifecycle(ctx, postID, "checkout", actorID)
}

// Release clears the actor's claim. 409 when the actor is not the holder.
func (c *Client) Release(ctx context.Context, postID string, actorID int64) (*post.Post, error) {
	return c.lifecycle(ctx, postID, "release", actorID)
}

// Resolve marks the post done on behalf of the actor.
func (c *Client) Resolve(ctx context.Context, postID string, actorID int64) (*post.Post, error) {
	return c.lifecycle(ctx, postID, "resolve", actorID)
}

// Unresolve reopens the post.
func (c *Client) Unresolve(ctx context.Context, postID string, actorID int64) (*post.Post, error) {
	return c.lifecycle(ctx, postID, "unresolve", actorID)
}

func (c *Client) lifecycle(ctx context.Context, postID, op string, actorID int64) (*post.Post, error) {
	var p post.Post
	err := c.do(c.http.R().SetContext(ctx).
		SetBody(actorRef{ContributorID: actorID}).
		SetResult(&p), http.MethodPost, fmt.Sprintf("/api/posts/%s/%s", postID, op))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Analyze triggers a new sentiment analysis for the post and returns the
// appended record.
func (c *Client) Analyze(ctx context.Context, postID string, actorID int64) (*post.Analysis, error) {
	var a post.Analysis
	err := c.do(c.http.R().SetContext(ctx).
		SetBody(actorRef{ContributorID: actorID}).
		SetResult(&a), http.MethodPost, fmt.Sprintf("/api/posts/%s/analyze", postID))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Overview is the dashboard headline numbers from /api/analytics/overview.
type Overview struct {
	TotalPosts         int `json:"total_posts"`
	AnalyzedPosts      int `json:"analyzed_posts"`
	ResolvedPosts      int `json:"resolved_posts"`
	CheckedOutPosts    int `json:"checked_out_posts"`
	NegativePosts      int `json:"negative_posts"`
	WarningPosts       int `json:"warning_posts"`
	ActiveContributors int `json:"active_contributors"`
}

// Overview fetches the dashboard headline numbers.
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&o), http.MethodGet, "/api/analytics/overview"); err != nil {
		return nil, err
	}
	return &o, nil
}

// StatusCount is one row of the status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// StatusBreakdown fetches post counts per triage status.
func (c *Client) StatusBreakdown(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := c.do(c.http.R().SetContext(ctx).SetResult(&counts),
		http.MethodGet, "/api/analytics/status-breakdown")
	return counts, err
}

// ProductAreas lists the product-area taxonomy.
func (c *Client) ProductAreas(ctx context.Context) ([]productarea.Area, error) {
	var areas []productarea.Area
	err := c.do(c.http.R().SetContext(ctx).SetResult(&areas),
		http.MethodGet, "/api/product-areas")
	return areas, err
}

// Analyses fetches a post's analysis history, most recent first.
func (c *Client) Analyses(ctx context.Context, postID string) ([]post.Analysis, error) {
	var list []post.Analysis
	err := c.do(c.http.R().SetContext(ctx).SetResult(&list),
		http.MethodGet, fmt.Sprintf("/api/posts/%s/analysis", postID))
	return list, err
}
