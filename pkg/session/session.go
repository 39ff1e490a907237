// Package session resolves which actor is acting in the current client
// session and derives the single write-permission decision every mutating
// control consults. Both are pure functions over explicit state, usable
// from any frontend (CLI, TUI, browser bridge) without a framework.
package session

import (
	"context"
	"fmt"

	"social-monitor/pkg/contributor"
)

// AuthStatus describes the external authentication state at resolution time.
// Token acquisition itself is an external concern; the resolver only needs
// the outcome.
type AuthStatus struct {
	Enabled       bool
	Authenticated bool
	// LinkedActorID is the roster id pre-associated with the authenticated
	// identity, or 0 when the identity is not linked to any actor.
	LinkedActorID int64
}

// State is the resolved session identity: exactly one of {no actor,
// resolved contributor, resolved reader}.
type State struct {
	Actor *contributor.Actor
	// AutoLinked marks a resolution taken from the authenticated identity.
	// Auto-linked selections are not user-changeable.
	AutoLinked bool
}

// IsReader is always derived from the resolved actor, never cached
// separately, so a roster refresh cannot leave it stale.
func (s State) IsReader() bool {
	return s.Actor != nil && s.Actor.IsReader()
}

// RosterSource fetches the full actor roster.
type RosterSource interface {
	Roster(ctx context.Context) ([]contributor.Actor, error)
}

// Resolver produces session identity from authentication state, the roster
// and the persisted manual selection.
type Resolver struct {
	roster    RosterSource
	selection SelectionStore
}

// NewResolver creates a Resolver.
func NewResolver(roster RosterSource, selection SelectionStore) *Resolver {
	return &Resolver{roster: roster, selection: selection}
}

// Resolve computes the session identity from scratch. On roster fetch
// failure it returns the empty state along with the error; the caller may
// re-invoke on the next identity-change event, there is no retry loop here.
func (r *Resolver) Resolve(ctx context.Context, auth AuthStatus) (State, error) {
	actors, err := r.roster.Roster(ctx)
	if err != nil {
		return State{}, fmt.Errorf("fetch roster: %w", err)
	}

	if auth.Enabled {
		if !auth.Authenticated || auth.LinkedActorID == 0 {
			// Signed out, or signed in but not linked to any actor. The
			// surrounding UI directs the user toward registration.
			return State{}, nil
		}
		if a := findActor(actors, auth.LinkedActorID); a != nil {
			return State{Actor: a, AutoLinked: true}, nil
		}
		return State{}, nil
	}

	// Manual path: restore the persisted choice if it still resolves to a
	// roster member, otherwise stay unselected.
	id, ok, err := r.selection.Load()
	if err != nil || !ok {
		return State{}, err
	}
	if a := findActor(actors, id); a != nil {
		return State{Actor: a}, nil
	}
	return State{}, nil
}

// Select picks an actor manually and persists the choice. When the current
// state is auto-linked the selection is immutable: the call is a no-op and
// the prior state is returned unchanged.
func (r *Resolver) Select(ctx context.Context, cur State, id int64) (State, error) {
	if cur.AutoLinked {
		return cur, nil
	}

	actors, err := r.roster.Roster(ctx)
	if err != nil {
		return cur, fmt.Errorf("fetch roster: %w", err)
	}
	a := findActor(actors, id)
	if a == nil {
		return cur, fmt.Errorf("actor %d is not on the roster", id)
	}
	if err := r.selection.Save(id); err != nil {
		return cur, fmt.Errorf("persist selection: %w", err)
	}
	return State{Actor: a}, nil
}

// Deselect clears the manual selection. A no-op when auto-linked.
func (r *Resolver) Deselect(cur State) (State, error) {
	if cur.AutoLinked {
		return cur, nil
	}
	if err := r.selection.Clear(); err != nil {
		return cur, fmt.Errorf("clear selection: %w", err)
	}
	return State{}, nil
}

func findActor(actors []contributor.Actor, id int64) *contributor.Actor {
	for i := range actors {
		if actors[i].ID == id {
			return &actors[i]
		}
	}
	return nil
}
