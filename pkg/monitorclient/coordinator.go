package monitorclient

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"social-monitor/pkg/post"
	"social-monitor/pkg/session"
)

// ErrNotAuthorized is returned when a write is refused by the client-side
// permission gate before any request is dispatched.
var ErrNotAuthorized = errors.New("not authorized")

// NotAuthorizedError carries the gate's reason string.
type NotAuthorizedError struct {
	Reason string
}

func (e *NotAuthorizedError) Error() string {
	return "not authorized: " + e.Reason
}

func (e *NotAuthorizedError) Is(target error) bool {
	return target == ErrNotAuthorized
}

// Coordinator drives the checkout/resolution state machine for a single
// post. It holds a local snapshot and replaces it only after a successful
// backend response; on any failure the snapshot is left untouched, so the
// local view may lag the server but never silently diverges from the last
// known good state. No operation retries or cancels once dispatched.
type Coordinator struct {
	client   *Client
	snapshot post.Post
	log      *zap.Logger
}

// NewCoordinator creates a Coordinator over a post snapshot.
func NewCoordinator(c *Client, snapshot post.Post, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{client: c, snapshot: snapshot, log: log}
}

// Post returns a copy of the current snapshot.
func (co *Coordinator) Post() post.Post {
	return co.snapshot
}

// gate consults the permission decision before any write. The denial is
// surfaced as an error here because a correctly gated UI disables the
// control instead of calling; reaching this path means the caller skipped
// the decision.
func gate(st session.State, auth session.AuthStatus) error {
	if d := session.Authorize(st, auth); !d.Allowed {
		return &NotAuthorizedError{Reason: d.Reason}
	}
	return nil
}

// Checkout claims the post for the resolved actor. Legal only while the
// snapshot shows the post unheld.
func (co *Coordinator) Checkout(ctx context.Context, st session.State, auth session.AuthStatus) error {
	if err := gate(st, auth); err != nil {
		return err
	}
	if co.snapshot.CheckedOut() {
		return fmt.Errorf("post %s: %w", co.snapshot.ID, post.ErrCheckedOut)
	}
	updated, err := co.client.Checkout(ctx, co.snapshot.ID, st.Actor.ID)
	if err != nil {
		co.log.Warn("checkout failed", zap.String("post", co.snapshot.ID), zap.Error(err))
		return err
	}
	co.snapshot = *updated
	return nil
}

// Release clears the claim. Legal only while the snapshot shows the
// resolved actor as the holder.
func (co *Coordinator) Release(ctx context.Context, st session.State, auth session.AuthStatus) error {
	if err := gate(st, auth); err != nil {
		return err
	}
	if !co.snapshot.HeldBy(st.Actor.ID) {
		return fmt.Errorf("post %s: %w", co.snapshot.ID, post.ErrNotHolder)
	}
	updated, err := co.client.Release(ctx, co.snapshot.ID, st.Actor.ID)
	if err != nil {
		co.log.Warn("release failed", zap.String("post", co.snapshot.ID), zap.Error(err))
		return err
	}
	co.snapshot = *updated
	return nil
}

// Resolve marks the post done. Any write-capable actor may resolve any
// post; holding the checkout is not required.
func (co *Coordinator) Resolve(ctx context.Context, st session.State, auth session.AuthStatus) error {
	if err := gate(st, auth); err != nil {
		return err
	}
	updated, err := co.client.Resolve(ctx, co.snapshot.ID, st.Actor.ID)
	if err != nil {
		co.log.Warn("resolve failed", zap.String("post", co.snapshot.ID), zap.Error(err))
		return err
	}
	co.snapshot = *updated
	return nil
}

// Unresolve reopens the post.
func (co *Coordinator) Unresolve(ctx context.Context, st session.State, auth session.AuthStatus) error {
	if err := gate(st, auth); err != nil {
		return err
	}
	updated, err := co.client.Unresolve(ctx, co.snapshot.ID, st.Actor.ID)
	if err != nil {
		co.log.Warn("unresolve failed", zap.String("post", co.snapshot.ID), zap.Error(err))
		return err
	}
	co.snapshot = *updated
	return nil
}

// Analyze triggers a new sentiment analysis. On success the snapshot's
// denormalized latest-sentiment fields mirror the returned record; the
// server decides what "latest" means under concurrent analyzers.
func (co *Coordinator) Analyze(ctx context.Context, st session.State, auth session.AuthStatus) (*post.Analysis, error) {
	if err := gate(st, auth); err != nil {
		return nil, err
	}
	a, err := co.client.Analyze(ctx, co.snapshot.ID, st.Actor.ID)
	if err != nil {
		co.log.Warn("analyze failed", zap.String("post", co.snapshot.ID), zap.Error(err))
		return nil, err
	}
	co.snapshot.LatestSentiment = a.Sentiment
	score := a.SentimentScore
	co.snapshot.LatestSentimentScore = &score
	co.snapshot.IsWarning = a.IsWarning
	if co.snapshot.Status == post.StatusPending {
		co.snapshot.Status = post.StatusAnalyzed
	}
	return a, nil
}

// Refresh replaces the snapshot with the server's current view.
func (co *Coordinator) Refresh(ctx context.Context) error {
	d, err := co.client.Post(ctx, co.snapshot.ID)
	if err != nil {
		return err
	}
	co.snapshot = d.Post
	return nil
}

func asAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}
