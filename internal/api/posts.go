package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"social-monitor/pkg/post"
)

func (s *Server) handlePostList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := post.ListFilter{
		Status:    q.Get("status"),
		Sentiment: q.Get("sentiment"),
		Subreddit: q.Get("subreddit"),
		SortBy:    q.Get("sort_by"),
		SortDesc:  q.Get("sort_order") != "asc",
		Skip:      queryInt(r, "skip", 0),
		Limit:     queryInt(r, "limit", 50),
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	posts, err := s.posts.List(r.Context(), f)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if posts == nil {
		posts = []post.Post{}
	}
	writeJSON(w, 200, posts)
}

func (s *Server) handlePostGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.posts.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	analyses, err := s.posts.Analyses(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if analyses == nil {
		analyses = []post.Analysis{}
	}
	writeJSON(w, 200, post.Detail{Post: *p, Analyses: analyses})
}

func (s *Server) handlePostUpsert(w http.ResponseWriter, r *http.Request) {
	var p post.Post
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if p.ID == "" || p.Title == "" || p.Subreddit == "" {
		writeError(w, 400, "id, subreddit and title are required")
		return
	}
	result, err := s.posts.Upsert(r.Context(), &p)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 201, result)
}

func (s *Server) handlePostStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	switch body.Status {
	case post.StatusPending, post.StatusAnalyzed, post.StatusHandled, post.StatusAnswered:
	default:
		writeError(w, 400, "unknown status "+body.Status)
		return
	}
	p, err := s.posts.UpdateStatus(r.Context(), r.PathValue("id"), body.Status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, p)
}

type actorRef struct {
	ContributorID int64 `json:"contributor_id"`
}

func decodeActorRef(w http.ResponseWriter, r *http.Request) (actorRef, bool) {
	var ref actorRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return ref, false
	}
	return ref, true
}

func (s *Server) handlePostCheckout(w http.ResponseWriter, r *http.Request) {
	ref, ok := decodeActorRef(w, r)
	if !ok {
		return
	}
	actor, ok := s.requireWriter(w, r, ref.ContributorID)
	if !ok {
		return
	}
	p, err := s.posts.Checkout(r.Context(), r.PathValue("id"), actor.ID, actor.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, p)
}

func (s *Server) handlePostRelease(w http.ResponseWriter, r *http.Request) {
	ref, ok := decodeActorRef(w, r)
	if !ok {
		return
	}
	actor, ok := s.requireWriter(w, r, ref.ContributorID)
	if !ok {
		return
	}
	p, err := s.posts.Release(r.Context(), r.PathValue("id"), actor.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, p)
}

func (s *Server) handlePostResolve(w http.ResponseWriter, r *http.Request) {
	ref, ok := decodeActorRef(w, r)
	if !ok {
		return
	}
	actor, ok := s.requireWriter(w, r, ref.ContributorID)
	if !ok {
		return
	}
	p, err := s.posts.Resolve(r.Context(), r.PathValue("id"), actor.ID, actor.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, p)
}

func (s *Server) handlePostUnresolve(w http.ResponseWriter, r *http.Request) {
	ref, ok := decodeActorRef(w, r)
	if !ok {
		return
	}
	if _, ok := s.requireWriter(w, r, ref.ContributorID); !ok {
		return
	}
	p, err := s.posts.Unresolve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, p)
}

func (s *Server) handlePostAnalyses(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.posts.Get(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	analyses, err := s.posts.Analyses(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if analyses == nil {
		analyses = []post.Analysis{}
	}
	writeJSON(w, 200, analyses)
}

// handlePostAnalyze runs the configured analyzer and appends the result to
// the post's history. Every invocation is independent: repeated calls
// prepend further records, no dedup.
func (s *Server) handlePostAnalyze(w http.ResponseWriter, r *http.Request) {
	ref, ok := decodeActorRef(w, r)
	if !ok {
		return
	}
	if _, ok := s.requireWriter(w, r, ref.ContributorID); !ok {
		return
	}

	p, err := s.posts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), p)
	if err != nil {
		s.log.Error("analysis failed", zap.String("post", p.ID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "analysis failed: "+err.Error())
		return
	}

	a, err := s.posts.AddAnalysis(r.Context(), &post.Analysis{
		PostID:         p.ID,
		Summary:        result.Summary,
		Sentiment:      result.Sentiment,
		SentimentScore: result.SentimentScore,
		KeyIssues:      result.KeyIssues,
		IsWarning:      result.IsWarning,
		ModelUsed:      result.ModelUsed,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 201, a)
}
