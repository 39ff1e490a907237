// Package analyzer produces sentiment analyses for posts. The LLM-backed
// implementation treats the model as an opaque collaborator; Lexicon is a
// deterministic fallback so the analyze operation works without one.
package analyzer

import (
	"context"
	"strings"

	"social-monitor/pkg/post"
)

// Result is one analysis outcome, independent of which backend produced it.
type Result struct {
	Summary        string   `json:"summary"`
	Sentiment      string   `json:"sentiment"` // positive, neutral, negative
	SentimentScore float64  `json:"sentiment_score"`
	KeyIssues      []string `json:"key_issues"`
	IsWarning      bool     `json:"is_warning"`
	ModelUsed      string   `json:"model_used"`
}

// Analyzer produces an analysis for a post.
type Analyzer interface {
	Analyze(ctx context.Context, p *post.Post) (*Result, error)
}

// Lexicon scores posts against fixed word lists. Deterministic, no network.
type Lexicon struct{}

// NewLexicon creates a Lexicon analyzer.
func NewLexicon() *Lexicon {
	return &Lexicon{}
}

var (
	positiveTerms = []string{"love", "great", "awesome", "works", "solved", "thanks", "helpful", "amazing", "fixed"}
	negativeTerms = []string{"broken", "bug", "crash", "fail", "error", "slow", "terrible", "useless", "frustrat", "annoy", "worst"}
	warningTerms  = []string{"cancel", "refund", "quit", "switching to", "lawsuit", "scam", "uninstall"}
)

// Analyze classifies a post by counting lexicon hits in its title and body.
func (l *Lexicon) Analyze(_ context.Context, p *post.Post) (*Result, error) {
	text := strings.ToLower(p.Title + " " + p.Body)

	var pos, neg int
	var issues []string
	for _, t := range positiveTerms {
		pos += strings.Count(text, t)
	}
	for _, t := range negativeTerms {
		if n := strings.Count(text, t); n > 0 {
			neg += n
			issues = append(issues, t)
		}
	}
	warning := false
	for _, t := range warningTerms {
		if strings.Contains(text, t) {
			warning = true
			break
		}
	}

	sentiment := post.SentimentNeutral
	score := 0.0
	if total := pos + neg; total > 0 {
		score = float64(pos-neg) / float64(total)
		switch {
		case score > 0.2:
			sentiment = post.SentimentPositive
		case score < -0.2:
			sentiment = post.SentimentNegative
		}
	}

	return &Result{
		Summary:        summarize(p),
		Sentiment:      sentiment,
		SentimentScore: score,
		KeyIssues:      issues,
		IsWarning:      warning,
		ModelUsed:      "lexicon",
	}, nil
}

func summarize(p *post.Post) string {
	s := strings.TrimSpace(p.Title)
	if len(s) > 180 {
		s = s[:177] + "..."
	}
	return s
}
