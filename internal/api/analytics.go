package api

import (
	"net/http"

	"social-monitor/internal/analytics"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.stats.Overview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, 200, o)
}

func (s *Server) handleStatusBreakdown(w http.ResponseWriter, r *http.Request) {
	counts, err := s.stats.StatusBreakdown(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if counts == nil {
		counts = []analytics.StatusCount{}
	}
	writeJSON(w, 200, counts)
}
