package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-monitor/pkg/contributor"
)

type fakeRoster struct {
	actors []contributor.Actor
	err    error
}

func (f *fakeRoster) Roster(context.Context) ([]contributor.Actor, error) {
	return f.actors, f.err
}

func testRoster() *fakeRoster {
	return &fakeRoster{actors: []contributor.Actor{
		{ID: 1, Kind: contributor.KindContributor, Name: "Jess", Handle: "jess_dev", Active: true},
		{ID: 2, Kind: contributor.KindReader, Name: "Sam", Alias: "sam", Active: true},
		{ID: 7, Kind: contributor.KindContributor, Name: "Ana", Handle: "ana_ops", Active: true},
	}}
}

func TestResolveAutoLink(t *testing.T) {
	r := NewResolver(testRoster(), NewMemoryStore())

	st, err := r.Resolve(context.Background(), AuthStatus{Enabled: true, Authenticated: true, LinkedActorID: 1})
	require.NoError(t, err)
	require.NotNil(t, st.Actor)
	assert.Equal(t, int64(1), st.Actor.ID)
	assert.True(t, st.AutoLinked)
	assert.False(t, st.IsReader())
}

func TestResolveAuthOnUnlinked(t *testing.T) {
	r := NewResolver(testRoster(), NewMemoryStore())

	// Signed out.
	st, err := r.Resolve(context.Background(), AuthStatus{Enabled: true})
	require.NoError(t, err)
	assert.Nil(t, st.Actor)

	// Signed in, identity not linked to any actor.
	st, err = r.Resolve(context.Background(), AuthStatus{Enabled: true, Authenticated: true})
	require.NoError(t, err)
	assert.Nil(t, st.Actor)

	// Linked id missing from the roster.
	st, err = r.Resolve(context.Background(), AuthStatus{Enabled: true, Authenticated: true, LinkedActorID: 99})
	require.NoError(t, err)
	assert.Nil(t, st.Actor)
}

func TestAutoLinkIsImmutable(t *testing.T) {
	store := NewMemoryStore()
	r := NewResolver(testRoster(), store)

	auth := AuthStatus{Enabled: true, Authenticated: true, LinkedActorID: 1}
	st, err := r.Resolve(context.Background(), auth)
	require.NoError(t, err)
	require.True(t, st.AutoLinked)

	// Select and Deselect are no-ops while auto-linked.
	next, err := r.Select(context.Background(), st, 7)
	require.NoError(t, err)
	assert.Equal(t, st, next)

	next, err = r.Deselect(st)
	require.NoError(t, err)
	assert.Equal(t, st, next)

	_, set, err := store.Load()
	require.NoError(t, err)
	assert.False(t, set, "auto-linked session must not touch the persisted selection")
}

func TestManualSelectionPersists(t *testing.T) {
	store := NewMemoryStore()
	r := NewResolver(testRoster(), store)

	st, err := r.Resolve(context.Background(), AuthStatus{})
	require.NoError(t, err)
	require.Nil(t, st.Actor)

	st, err = r.Select(context.Background(), st, 7)
	require.NoError(t, err)
	require.NotNil(t, st.Actor)
	assert.Equal(t, int64(7), st.Actor.ID)
	assert.False(t, st.AutoLinked)

	// A fresh resolver over the same store restores the choice.
	again, err := NewResolver(testRoster(), store).Resolve(context.Background(), AuthStatus{})
	require.NoError(t, err)
	require.NotNil(t, again.Actor)
	assert.Equal(t, int64(7), again.Actor.ID)

	// Deselect clears it durably.
	st, err = r.Deselect(st)
	require.NoError(t, err)
	assert.Nil(t, st.Actor)

	again, err = NewResolver(testRoster(), store).Resolve(context.Background(), AuthStatus{})
	require.NoError(t, err)
	assert.Nil(t, again.Actor)
}

func TestSelectRejectsUnknownActor(t *testing.T) {
	store := NewMemoryStore()
	r := NewResolver(testRoster(), store)

	st, err := r.Select(context.Background(), State{}, 42)
	require.Error(t, err)
	assert.Nil(t, st.Actor)

	_, set, err := store.Load()
	require.NoError(t, err)
	assert.False(t, set)
}

func TestResolveStaleSelection(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(42)) // actor no longer on the roster

	st, err := NewResolver(testRoster(), store).Resolve(context.Background(), AuthStatus{})
	require.NoError(t, err)
	assert.Nil(t, st.Actor)
}

func TestResolveRosterFailure(t *testing.T) {
	boom := errors.New("roster down")
	r := NewResolver(&fakeRoster{err: boom}, NewMemoryStore())

	st, err := r.Resolve(context.Background(), AuthStatus{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, State{}, st)
}
