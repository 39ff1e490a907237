package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"social-monitor/pkg/contributor"
)

type claimsKey struct{}

// Claims are the identity claims taken from a validated bearer token.
// Token acquisition and the IdP protocol are outside this server; it only
// checks the signature and reads the standard profile claims.
type Claims struct {
	Email string
	Name  string
}

// requireToken validates the Authorization header on /api/ routes when
// auth is enabled. /health and /api/auth/me stay reachable either way;
// /me reports the unauthenticated state instead of rejecting it.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Enabled || !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.parseBearer(r)
		if err != nil {
			if r.URL.Path == "/api/auth/me" {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func (s *Server) parseBearer(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, errors.New("missing bearer token")
	}

	var mapClaims jwt.MapClaims
	_, err := jwt.ParseWithClaims(raw, &mapClaims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.auth.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	c := &Claims{}
	if v, ok := mapClaims["preferred_username"].(string); ok && v != "" {
		c.Email = v
	} else if v, ok := mapClaims["email"].(string); ok {
		c.Email = v
	}
	if v, ok := mapClaims["name"].(string); ok {
		c.Name = v
	}
	return c, nil
}

func claimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

// extractAlias returns the local part of a UPN/email, lowercased.
func extractAlias(email string) string {
	if email == "" {
		return ""
	}
	alias, _, _ := strings.Cut(email, "@")
	return strings.ToLower(alias)
}

type meResponse struct {
	Authenticated   bool   `json:"authenticated"`
	Email           string `json:"email,omitempty"`
	Name            string `json:"name,omitempty"`
	Alias           string `json:"alias,omitempty"`
	ContributorID   int64  `json:"contributor_id,omitempty"`
	ContributorName string `json:"contributor_name,omitempty"`
}

// handleMe reports the authenticated identity and its linked actor, if
// any. With auth disabled it reports authenticated: false so clients fall
// back to manual actor selection.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if !s.auth.Enabled {
		writeJSON(w, 200, meResponse{Authenticated: false})
		return
	}
	claims := claimsFrom(r.Context())
	if claims == nil {
		writeJSON(w, 200, meResponse{Authenticated: false})
		return
	}

	resp := meResponse{
		Authenticated: true,
		Email:         claims.Email,
		Name:          claims.Name,
		Alias:         extractAlias(claims.Email),
	}
	if resp.Alias != "" {
		a, err := s.contributors.ByAlias(r.Context(), resp.Alias)
		if err != nil && !errors.Is(err, contributor.ErrNotFound) {
			writeStoreError(w, err)
			return
		}
		if a != nil {
			resp.ContributorID = a.ID
			resp.ContributorName = a.Name
		}
	}
	writeJSON(w, 200, resp)
}
