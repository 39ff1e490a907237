// Package api is the HTTP surface of the social monitor backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"social-monitor/internal/analytics"
	"social-monitor/pkg/analyzer"
	"social-monitor/pkg/contributor"
	"social-monitor/pkg/post"
	"social-monitor/pkg/productarea"
	"social-monitor/pkg/session"
)

// StatsSource runs the analytics aggregations.
type StatsSource interface {
	Overview(ctx context.Context) (*analytics.Overview, error)
	StatusBreakdown(ctx context.Context) ([]analytics.StatusCount, error)
}

// AuthConfig controls the bearer-token middleware.
type AuthConfig struct {
	Enabled bool
	Secret  string // HS256 signing secret
}

// Deps are the collaborators the server is wired with.
type Deps struct {
	Posts        post.Store
	Contributors contributor.Store
	Areas        productarea.Store
	Stats        StatsSource
	Analyzer     analyzer.Analyzer
	Auth         AuthConfig
	Logger       *zap.Logger
}

// Server is the HTTP API server.
type Server struct {
	posts        post.Store
	contributors contributor.Store
	areas        productarea.Store
	stats        StatsSource
	analyzer     analyzer.Analyzer
	auth         AuthConfig
	log          *zap.Logger
	mux          *http.ServeMux
}

// New creates a new Server.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	s := &Server{
		posts:        d.Posts,
		contributors: d.Contributors,
		areas:        d.Areas,
		stats:        d.Stats,
		analyzer:     d.Analyzer,
		auth:         d.Auth,
		log:          d.Logger,
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler: request logging, then bearer auth,
// then the mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.requireToken(s.mux).ServeHTTP(rec, r)
	s.log.Info("request",
		zap.String("method", r.Method),
		zap.String("uri", r.URL.RequestURI()),
		zap.Int("status", rec.status),
		zap.Duration("duration", time.Since(start)),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) routes() {
	// Auth
	s.mux.HandleFunc("GET /api/auth/me", s.handleMe)

	// Contributors
	s.mux.HandleFunc("GET /api/contributors", s.handleContributorList)
	s.mux.HandleFunc("POST /api/contributors", s.handleContributorCreate)
	s.mux.HandleFunc("POST /api/contributors/readers", s.handleReaderCreate)
	s.mux.HandleFunc("GET /api/contributors/{id}", s.handleContributorGet)
	s.mux.HandleFunc("PATCH /api/contributors/{id}", s.handleContributorUpdate)
	s.mux.HandleFunc("DELETE /api/contributors/{id}", s.handleContributorDeactivate)
	s.mux.HandleFunc("POST /api/contributors/{id}/activate", s.handleContributorActivate)

	// Posts
	s.mux.HandleFunc("GET /api/posts", s.handlePostList)
	s.mux.HandleFunc("POST /api/posts", s.handlePostUpsert)
	s.mux.HandleFunc("GET /api/posts/{id}", s.handlePostGet)
	s.mux.HandleFunc("PATCH /api/posts/{id}/status", s.handlePostStatus)
	s.mux.HandleFunc("POST /api/posts/{id}/checkout", s.handlePostCheckout)
	s.mux.HandleFunc("POST /api/posts/{id}/release", s.handlePostRelease)
	s.mux.HandleFunc("POST /api/posts/{id}/resolve", s.handlePostResolve)
	s.mux.HandleFunc("POST /api/posts/{id}/unresolve", s.handlePostUnresolve)
	s.mux.HandleFunc("GET /api/posts/{id}/analysis", s.handlePostAnalyses)
	s.mux.HandleFunc("POST /api/posts/{id}/analyze", s.handlePostAnalyze)

	// Analytics
	s.mux.HandleFunc("GET /api/analytics/overview", s.handleOverview)
	s.mux.HandleFunc("GET /api/analytics/status-breakdown", s.handleStatusBreakdown)

	// Product areas
	s.mux.HandleFunc("GET /api/product-areas", s.handleAreaList)
	s.mux.HandleFunc("POST /api/product-areas", s.handleAreaCreate)
	s.mux.HandleFunc("GET /api/product-areas/{id}", s.handleAreaGet)
	s.mux.HandleFunc("PUT /api/product-areas/{id}", s.handleAreaUpdate)
	s.mux.HandleFunc("DELETE /api/product-areas/{id}", s.handleAreaDeactivate)
	s.mux.HandleFunc("POST /api/product-areas/{id}/activate", s.handleAreaActivate)

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps the stores' sentinel errors onto status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, post.ErrNotFound),
		errors.Is(err, contributor.ErrNotFound),
		errors.Is(err, productarea.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, post.ErrCheckedOut), errors.Is(err, post.ErrNotHolder):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, contributor.ErrDuplicateHandle),
		errors.Is(err, productarea.ErrDuplicateName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// requireWriter re-validates a write server-side: the acting contributor
// must exist, be active and not be a reader, regardless of what the client
// gate decided.
func (s *Server) requireWriter(w http.ResponseWriter, r *http.Request, actorID int64) (*contributor.Actor, bool) {
	if actorID == 0 {
		writeError(w, http.StatusBadRequest, "contributor_id is required")
		return nil, false
	}
	a, err := s.contributors.Get(r.Context(), actorID)
	if err != nil {
		if errors.Is(err, contributor.ErrNotFound) {
			writeError(w, http.StatusForbidden, "unknown contributor")
			return nil, false
		}
		writeStoreError(w, err)
		return nil, false
	}
	if a.IsReader() {
		writeError(w, http.StatusForbidden, session.ReasonReader)
		return nil, false
	}
	if !a.Active {
		writeError(w, http.StatusForbidden, "contributor is deactivated")
		return nil, false
	}
	return a, true
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
