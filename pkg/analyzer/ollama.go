package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"social-monitor/pkg/post"
)

// Ollama analyzes posts through a local Ollama server.
type Ollama struct {
	http  *resty.Client
	model string
}

// NewOllama creates an Ollama analyzer against the given base URL
// (e.g. http://localhost:11434).
func NewOllama(baseURL, model string) *Ollama {
	return &Ollama{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(120 * time.Second),
		model: model,
	}
}

const analysisPrompt = `You are analyzing a reddit post about a product for a support triage dashboard.

Post title: %s
Post body: %s

Respond with JSON only, in this exact shape:
{"summary": "<one or two sentences>", "sentiment": "positive|neutral|negative", "sentiment_score": <-1.0 to 1.0>, "key_issues": ["<short issue>", ...], "is_warning": <true if the author is hostile, threatening to quit or demanding a refund>}`

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Analyze sends the post to the model and parses its JSON verdict.
func (o *Ollama) Analyze(ctx context.Context, p *post.Post) (*Result, error) {
	var out generateResponse
	resp, err := o.http.R().
		SetContext(ctx).
		SetBody(generateRequest{
			Model:  o.model,
			Prompt: fmt.Sprintf(analysisPrompt, p.Title, p.Body),
			Format: "json",
			Stream: false,
		}).
		SetResult(&out).
		Post("/api/generate")
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ollama generate: status %d: %s", resp.StatusCode(), resp.String())
	}

	var verdict struct {
		Summary        string   `json:"summary"`
		Sentiment      string   `json:"sentiment"`
		SentimentScore float64  `json:"sentiment_score"`
		KeyIssues      []string `json:"key_issues"`
		IsWarning      bool     `json:"is_warning"`
	}
	if err := json.Unmarshal([]byte(out.Response), &verdict); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	sentiment := strings.ToLower(verdict.Sentiment)
	switch sentiment {
	case post.SentimentPositive, post.SentimentNeutral, post.SentimentNegative:
	default:
		sentiment = post.SentimentNeutral
	}

	return &Result{
		Summary:        verdict.Summary,
		Sentiment:      sentiment,
		SentimentScore: clamp(verdict.SentimentScore, -1, 1),
		KeyIssues:      verdict.KeyIssues,
		IsWarning:      verdict.IsWarning,
		ModelUsed:      "ollama/" + o.model,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
