package session

// Decision is the outcome of the write-permission gate. When Allowed is
// false, Reason holds the human-readable explanation the UI renders as the
// disabled-state tooltip. A denial is a normal decision, not an error.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Reason strings, one per deniable condition.
const (
	ReasonNotSignedIn     = "must be signed in"
	ReasonNotLinked       = "account not linked to a profile"
	ReasonReader          = "readers cannot perform this action"
	ReasonNoActorSelected = "select a contributor to perform this action"
)

// Authorize derives the write permission from the resolved session
// identity and the authentication status. Pure, no side effects,
// recomputed on every call; first matching rule wins. Allowed is true only
// for an active, write-capable contributor.
//
// This is a client-side UX gate: the server re-validates every write
// independently.
func Authorize(s State, auth AuthStatus) Decision {
	if auth.Enabled {
		switch {
		case !auth.Authenticated:
			return Decision{Reason: ReasonNotSignedIn}
		case s.Actor == nil:
			return Decision{Reason: ReasonNotLinked}
		case s.IsReader():
			return Decision{Reason: ReasonReader}
		case !s.Actor.Active:
			return Decision{Reason: ReasonNotLinked}
		default:
			return Decision{Allowed: true}
		}
	}

	switch {
	case s.Actor == nil:
		return Decision{Reason: ReasonNoActorSelected}
	case s.IsReader():
		return Decision{Reason: ReasonReader}
	case !s.Actor.Active:
		return Decision{Reason: ReasonNoActorSelected}
	default:
		return Decision{Allowed: true}
	}
}
