package monitorclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-monitor/pkg/contributor"
	"social-monitor/pkg/post"
	"social-monitor/pkg/session"
)

func writerState(id int64) session.State {
	return session.State{Actor: &contributor.Actor{
		ID: id, Kind: contributor.KindContributor, Name: "Jess", Handle: "jess_dev", Active: true,
	}}
}

func readerState() session.State {
	return session.State{Actor: &contributor.Actor{
		ID: 2, Kind: contributor.KindReader, Name: "Sam", Alias: "sam", Active: true,
	}}
}

func pendingPost() post.Post {
	return post.Post{ID: "t3_abc", Subreddit: "CopilotStudio", Title: "broken flow", Status: post.StatusPending}
}

// fakeBackend serves the lifecycle endpoints over a single mutable post and
// counts requests, so tests can assert that gated calls never dispatch.
type fakeBackend struct {
	t        *testing.T
	post     post.Post
	requests atomic.Int64
	fail     int // status to force on the next lifecycle call, 0 for none
}

func (b *fakeBackend) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/posts/{id}/{op}", func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		if b.fail != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(b.fail)
			json.NewEncoder(w).Encode(map[string]string{"error": "forced failure"})
			return
		}
		var ref struct {
			ContributorID int64 `json:"contributor_id"`
		}
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&ref))

		now := time.Now().UTC()
		switch r.PathValue("op") {
		case "checkout":
			b.post.CheckedOutBy = &ref.ContributorID
			b.post.CheckedOutByName = "Jess"
			b.post.CheckedOutAt = &now
		case "release":
			b.post.CheckedOutBy = nil
			b.post.CheckedOutByName = ""
			b.post.CheckedOutAt = nil
		case "resolve":
			b.post.Resolved = true
			b.post.ResolvedBy = &ref.ContributorID
			b.post.ResolvedByName = "Jess"
			b.post.ResolvedAt = &now
		case "unresolve":
			b.post.Resolved = false
			b.post.ResolvedBy = nil
			b.post.ResolvedByName = ""
			b.post.ResolvedAt = nil
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(b.post)
	})
	return httptest.NewServer(mux)
}

func TestCoordinatorCheckoutRelease(t *testing.T) {
	backend := &fakeBackend{t: t, post: pendingPost()}
	srv := backend.server()
	defer srv.Close()

	st := writerState(1)
	auth := session.AuthStatus{}
	co := NewCoordinator(New(srv.URL), pendingPost(), nil)

	require.NoError(t, co.Checkout(context.Background(), st, auth))
	snap := co.Post()
	assert.True(t, snap.HeldBy(1))
	assert.Equal(t, "Jess", snap.CheckedOutByName)

	// A second checkout is refused locally, before any request.
	before := backend.requests.Load()
	err := co.Checkout(context.Background(), st, auth)
	require.ErrorIs(t, err, post.ErrCheckedOut)
	assert.Equal(t, before, backend.requests.Load())

	require.NoError(t, co.Release(context.Background(), st, auth))
	snap = co.Post()
	assert.False(t, snap.CheckedOut())
}

func TestCoordinatorReleaseRequiresHolder(t *testing.T) {
	backend := &fakeBackend{t: t, post: pendingPost()}
	srv := backend.server()
	defer srv.Close()

	holder := int64(9)
	held := pendingPost()
	held.CheckedOutBy = &holder
	co := NewCoordinator(New(srv.URL), held, nil)

	err := co.Release(context.Background(), writerState(1), session.AuthStatus{})
	require.ErrorIs(t, err, post.ErrNotHolder)
	assert.Zero(t, backend.requests.Load())
	snap := co.Post()
	assert.True(t, snap.HeldBy(holder), "snapshot unchanged")
}

func TestCoordinatorLostRaceLeavesSnapshot(t *testing.T) {
	backend := &fakeBackend{t: t, post: pendingPost(), fail: http.StatusConflict}
	srv := backend.server()
	defer srv.Close()

	co := NewCoordinator(New(srv.URL), pendingPost(), nil)

	err := co.Checkout(context.Background(), writerState(1), session.AuthStatus{})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	snap := co.Post()
	assert.False(t, snap.CheckedOut(), "failed call must not touch the snapshot")
}

func TestCoordinatorResolveFailureLeavesSnapshot(t *testing.T) {
	backend := &fakeBackend{t: t, post: pendingPost(), fail: http.StatusInternalServerError}
	srv := backend.server()
	defer srv.Close()

	co := NewCoordinator(New(srv.URL), pendingPost(), nil)

	err := co.Resolve(context.Background(), writerState(1), session.AuthStatus{})
	require.Error(t, err)
	assert.False(t, co.Post().Resolved)
}

func TestCoordinatorResolveIgnoresCheckout(t *testing.T) {
	holder := int64(9)
	held := pendingPost()
	held.CheckedOutBy = &holder
	backend := &fakeBackend{t: t, post: held}
	srv := backend.server()
	defer srv.Close()

	// Resolution does not require holding the checkout, and resolving
	// leaves the holder in place.
	co := NewCoordinator(New(srv.URL), held, nil)
	require.NoError(t, co.Resolve(context.Background(), writerState(1), session.AuthStatus{}))
	snap := co.Post()
	assert.True(t, snap.Resolved)
	assert.True(t, snap.HeldBy(holder))

	require.NoError(t, co.Unresolve(context.Background(), writerState(1), session.AuthStatus{}))
	snap = co.Post()
	assert.False(t, snap.Resolved)
	assert.True(t, snap.HeldBy(holder))
}

func TestCoordinatorGateBlocksReaders(t *testing.T) {
	backend := &fakeBackend{t: t, post: pendingPost()}
	srv := backend.server()
	defer srv.Close()

	co := NewCoordinator(New(srv.URL), pendingPost(), nil)
	st := readerState()
	auth := session.AuthStatus{}

	for _, call := range []func() error{
		func() error { return co.Checkout(context.Background(), st, auth) },
		func() error { return co.Release(context.Background(), st, auth) },
		func() error { return co.Resolve(context.Background(), st, auth) },
		func() error { return co.Unresolve(context.Background(), st, auth) },
		func() error { _, err := co.Analyze(context.Background(), st, auth); return err },
	} {
		err := call()
		require.ErrorIs(t, err, ErrNotAuthorized)
		var denied *NotAuthorizedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, session.ReasonReader, denied.Reason)
	}
	assert.Zero(t, backend.requests.Load(), "denied writes must never reach the backend")
}

func TestCoordinatorGateBlocksUnselected(t *testing.T) {
	backend := &fakeBackend{t: t, post: pendingPost()}
	srv := backend.server()
	defer srv.Close()

	co := NewCoordinator(New(srv.URL), pendingPost(), nil)
	err := co.Checkout(context.Background(), session.State{}, session.AuthStatus{})
	require.ErrorIs(t, err, ErrNotAuthorized)

	var denied *NotAuthorizedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, session.ReasonNoActorSelected, denied.Reason)
	assert.Zero(t, backend.requests.Load())
}

func TestCoordinatorAnalyzeUpdatesSnapshot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/posts/{id}/analyze", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(post.Analysis{
			ID:             "0191-test",
			PostID:         "t3_abc",
			Summary:        "broken flow",
			Sentiment:      post.SentimentNegative,
			SentimentScore: -0.8,
			IsWarning:      true,
			AnalyzedAt:     time.Now().UTC(),
			ModelUsed:      "lexicon",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	co := NewCoordinator(New(srv.URL), pendingPost(), nil)
	a, err := co.Analyze(context.Background(), writerState(1), session.AuthStatus{})
	require.NoError(t, err)
	assert.Equal(t, post.SentimentNegative, a.Sentiment)

	snap := co.Post()
	assert.Equal(t, post.SentimentNegative, snap.LatestSentiment)
	require.NotNil(t, snap.LatestSentimentScore)
	assert.InDelta(t, -0.8, *snap.LatestSentimentScore, 1e-9)
	assert.True(t, snap.IsWarning)
	assert.Equal(t, post.StatusAnalyzed, snap.Status)
}

func TestClientNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "post not found"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := New(srv.URL).Post(context.Background(), "t3_missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "post not found", apiErr.Message)
}
