package api

import (
	"encoding/json"
	"net/http"

	"social-monitor/pkg/productarea"
)

func (s *Server) handleAreaList(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	areas, err := s.areas.List(r.Context(), includeInactive)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if areas == nil {
		areas = []productarea.Area{}
	}
	writeJSON(w, 200, areas)
}

func (s *Server) handleAreaGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, 400, "invalid product area id")
		return
	}
	a, err := s.areas.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, a)
}

func (s *Server) handleAreaCreate(w http.ResponseWriter, r *http.Request) {
	var a productarea.Area
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if a.Name == "" {
		writeError(w, 400, "name is required")
		return
	}
	result, err := s.areas.Create(r.Context(), &a)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 201, result)
}

func (s *Server) handleAreaUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, 400, "invalid product area id")
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	updates := make(map[string]any)
	for k, v := range body {
		switch k {
		case "name", "description", "display_order":
			updates[k] = v
		}
	}
	a, err := s.areas.Update(r.Context(), id, updates)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, a)
}

func (s *Server) handleAreaDeactivate(w http.ResponseWriter, r *http.Request) {
	s.setAreaActive(w, r, false)
}

func (s *Server) handleAreaActivate(w http.ResponseWriter, r *http.Request) {
	s.setAreaActive(w, r, true)
}

func (s *Server) setAreaActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, 400, "invalid product area id")
		return
	}
	a, err := s.areas.SetActive(r.Context(), id, active)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, a)
}
