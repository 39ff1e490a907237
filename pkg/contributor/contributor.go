package contributor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind discriminates the two actor variants on the roster.
type Kind string

const (
	// KindContributor is a write-capable actor, identified by a reddit handle.
	KindContributor Kind = "contributor"
	// KindReader is a view-only actor with no reddit handle.
	KindReader Kind = "reader"
)

var (
	// ErrNotFound is returned when no actor matches the lookup.
	ErrNotFound = errors.New("contributor not found")
	// ErrDuplicateHandle is returned when a reddit handle is already taken.
	ErrDuplicateHandle = errors.New("contributor with this handle already exists")
)

// Actor is a person able to interact with the system: either a Contributor
// (has a reddit handle, can perform writes) or a Reader (view-only).
// Kind is the single source of truth; Handle is non-empty iff the actor is
// a Contributor, and the JSON codec enforces that both ways.
type Actor struct {
	ID         int64
	Kind       Kind
	Name       string
	Handle     string // reddit handle, contributors only
	Alias      string // linked directory alias, e.g. "jdoe" from jdoe@example.com
	Role       string
	Active     bool
	ReplyCount int
	CreatedAt  time.Time
}

// IsReader reports whether the actor is a view-only Reader.
func (a *Actor) IsReader() bool {
	return a.Kind == KindReader
}

// CanWrite reports whether the actor may perform mutating operations.
func (a *Actor) CanWrite() bool {
	return a.Kind == KindContributor && a.Active
}

// actorJSON is the wire form. reddit_handle stays a nullable field so that
// existing consumers can keep deriving reader-ness from its null-ness.
type actorJSON struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Handle     *string   `json:"reddit_handle"`
	Alias      string    `json:"alias,omitempty"`
	Role       string    `json:"role,omitempty"`
	Active     bool      `json:"active"`
	ReplyCount int       `json:"reply_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// MarshalJSON encodes readers with reddit_handle: null.
func (a Actor) MarshalJSON() ([]byte, error) {
	w := actorJSON{
		ID:         a.ID,
		Name:       a.Name,
		Alias:      a.Alias,
		Role:       a.Role,
		Active:     a.Active,
		ReplyCount: a.ReplyCount,
		CreatedAt:  a.CreatedAt,
	}
	if a.Kind == KindContributor {
		h := a.Handle
		w.Handle = &h
	}
	return json.Marshal(w)
}

// UnmarshalJSON derives Kind from the null-ness of reddit_handle, so a
// decoded actor can never carry a contradictory tag.
func (a *Actor) UnmarshalJSON(data []byte) error {
	var w actorJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	a.ID = w.ID
	a.Name = w.Name
	a.Alias = w.Alias
	a.Role = w.Role
	a.Active = w.Active
	a.ReplyCount = w.ReplyCount
	a.CreatedAt = w.CreatedAt
	if w.Handle != nil {
		a.Kind = KindContributor
		a.Handle = *w.Handle
	} else {
		a.Kind = KindReader
		a.Handle = ""
	}
	return nil
}

// NewContributor builds an unsaved write-capable actor.
func NewContributor(name, handle, alias, role string) (*Actor, error) {
	if handle == "" {
		return nil, fmt.Errorf("contributor %q: reddit handle is required", name)
	}
	return &Actor{Kind: KindContributor, Name: name, Handle: handle, Alias: alias, Role: role, Active: true}, nil
}

// NewReader builds an unsaved view-only actor. Readers carry no reddit
// handle; the alias is required so the actor can be auto-linked at sign-in.
func NewReader(name, alias, role string) (*Actor, error) {
	if alias == "" {
		return nil, fmt.Errorf("reader %q: alias is required", name)
	}
	return &Actor{Kind: KindReader, Name: name, Alias: alias, Role: role, Active: true}, nil
}

// Store is the contract for roster persistence.
type Store interface {
	// Create inserts a new actor built via NewContributor or NewReader.
	Create(ctx context.Context, a *Actor) (*Actor, error)

	// Get returns an actor by ID, with reply count populated.
	Get(ctx context.Context, id int64) (*Actor, error)

	// ByAlias returns the active actor linked to the given alias.
	ByAlias(ctx context.Context, alias string) (*Actor, error)

	// List returns the roster, active actors only unless includeInactive.
	List(ctx context.Context, includeInactive bool) ([]Actor, error)

	// Update modifies actor fields. Supported keys: name, handle, alias, role.
	Update(ctx context.Context, id int64, updates map[string]any) (*Actor, error)

	// SetActive soft-deletes or reactivates an actor.
	SetActive(ctx context.Context, id int64, active bool) (*Actor, error)

	// AddReply records a detected reddit reply by a contributor on a post.
	AddReply(ctx context.Context, postID string, contributorID int64, commentID string, repliedAt time.Time) error

	// EnsureTable creates the roster tables if they don't exist.
	EnsureTable(ctx context.Context) error
}
