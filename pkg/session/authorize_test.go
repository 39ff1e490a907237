package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"social-monitor/pkg/contributor"
)

func activeContributor() *contributor.Actor {
	return &contributor.Actor{ID: 1, Kind: contributor.KindContributor, Name: "Jess", Handle: "jess_dev", Active: true}
}

func activeReader() *contributor.Actor {
	return &contributor.Actor{ID: 2, Kind: contributor.KindReader, Name: "Sam", Alias: "sam", Active: true}
}

func TestAuthorizeTable(t *testing.T) {
	inactive := activeContributor()
	inactive.Active = false

	cases := []struct {
		name string
		s    State
		auth AuthStatus
		want Decision
	}{
		{
			name: "auth on, signed out",
			auth: AuthStatus{Enabled: true},
			want: Decision{Reason: ReasonNotSignedIn},
		},
		{
			name: "auth on, signed in, not linked",
			auth: AuthStatus{Enabled: true, Authenticated: true},
			want: Decision{Reason: ReasonNotLinked},
		},
		{
			name: "auth on, linked reader",
			s:    State{Actor: activeReader(), AutoLinked: true},
			auth: AuthStatus{Enabled: true, Authenticated: true, LinkedActorID: 2},
			want: Decision{Reason: ReasonReader},
		},
		{
			name: "auth on, linked contributor",
			s:    State{Actor: activeContributor(), AutoLinked: true},
			auth: AuthStatus{Enabled: true, Authenticated: true, LinkedActorID: 1},
			want: Decision{Allowed: true},
		},
		{
			name: "auth on, linked but deactivated",
			s:    State{Actor: inactive, AutoLinked: true},
			auth: AuthStatus{Enabled: true, Authenticated: true, LinkedActorID: 1},
			want: Decision{Reason: ReasonNotLinked},
		},
		{
			name: "auth off, nothing selected",
			want: Decision{Reason: ReasonNoActorSelected},
		},
		{
			name: "auth off, reader selected",
			s:    State{Actor: activeReader()},
			want: Decision{Reason: ReasonReader},
		},
		{
			name: "auth off, contributor selected",
			s:    State{Actor: activeContributor()},
			want: Decision{Allowed: true},
		},
		{
			name: "auth off, deactivated contributor selected",
			s:    State{Actor: inactive},
			want: Decision{Reason: ReasonNoActorSelected},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Authorize(tc.s, tc.auth))
		})
	}
}

// Every denial must carry a reason; allow must carry none.
func TestAuthorizeDecisionShape(t *testing.T) {
	states := []State{
		{},
		{Actor: activeReader()},
		{Actor: activeContributor()},
		{Actor: activeContributor(), AutoLinked: true},
	}
	auths := []AuthStatus{
		{},
		{Enabled: true},
		{Enabled: true, Authenticated: true},
		{Enabled: true, Authenticated: true, LinkedActorID: 1},
	}
	for _, s := range states {
		for _, a := range auths {
			d := Authorize(s, a)
			if d.Allowed {
				assert.Empty(t, d.Reason)
			} else {
				assert.NotEmpty(t, d.Reason)
			}
		}
	}
}
