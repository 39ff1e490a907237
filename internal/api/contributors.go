package api

import (
	"encoding/json"
	"net/http"

	"social-monitor/pkg/contributor"
)

func (s *Server) handleContributorList(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	actors, err := s.contributors.List(r.Context(), includeInactive)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if actors == nil {
		actors = []contributor.Actor{}
	}
	writeJSON(w, 200, actors)
}

func (s *Server) handleContributorGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, 400, "invalid contributor id")
		return
	}
	a, err := s.contributors.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, a)
}

type contributorCreateRequest struct {
	Name   string `json:"name"`
	Handle string `json:"reddit_handle"`
	Alias  string `json:"alias"`
	Role   string `json:"role"`
}

func (s *Server) handleContributorCreate(w http.ResponseWriter, r *http.Request) {
	var body contributorCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if body.Name == "" {
		writeError(w, 400, "name is required")
		return
	}
	a, err := contributor.NewContributor(body.Name, body.Handle, body.Alias, body.Role)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	result, err := s.contributors.Create(r.Context(), a)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 201, result)
}

type readerCreateRequest struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
	Role  string `json:"role"`
}

func (s *Server) handleReaderCreate(w http.ResponseWriter, r *http.Request) {
	var body readerCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if body.Name == "" {
		writeError(w, 400, "name is required")
		return
	}
	a, err := contributor.NewReader(body.Name, body.Alias, body.Role)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	result, err := s.contributors.Create(r.Context(), a)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 201, result)
}

func (s *Server) handleContributorUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, 400, "invalid contributor id")
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
		case "name", "alias", "role":
			updates[k] = v
		case "reddit_handle":
			updates["handle"] = v
		}
	}
	a, err := s.contributors.Update(r.Context(), id, updates)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, a)
}

func (s *Server) handleContributorDeactivate(w http.ResponseWriter, r *http.Request) {
	s.setContributorActive(w, r, false)
}

func (s *Server) handleContributorActivate(w http.ResponseWriter, r *http.Request) {
	s.setContributorActive(w, r, true)
}

func (s *Server) setContributorActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, 400, "invalid contributor id")
		return
	}
	a, err := s.contributors.SetActive(r.Context(), id, active)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, a)
}
