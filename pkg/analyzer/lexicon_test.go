package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-monitor/pkg/post"
)

func TestLexiconNegative(t *testing.T) {
	p := &post.Post{
		Title: "App keeps crashing",
		Body:  "Every export ends in an error. Broken since the update, this is terrible.",
	}
	res, err := NewLexicon().Analyze(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, post.SentimentNegative, res.Sentiment)
	assert.Negative(t, res.SentimentScore)
	assert.Contains(t, res.KeyIssues, "crash")
	assert.Contains(t, res.KeyIssues, "error")
	assert.False(t, res.IsWarning)
	assert.Equal(t, "lexicon", res.ModelUsed)
}

func TestLexiconPositive(t *testing.T) {
	p := &post.Post{Title: "Love this tool", Body: "Works great, the new release solved my problem. Thanks!"}
	res, err := NewLexicon().Analyze(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, post.SentimentPositive, res.Sentiment)
	assert.Positive(t, res.SentimentScore)
	assert.Empty(t, res.KeyIssues)
}

func TestLexiconNeutral(t *testing.T) {
	p := &post.Post{Title: "Question about configuring webhooks"}
	res, err := NewLexicon().Analyze(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, post.SentimentNeutral, res.Sentiment)
	assert.Zero(t, res.SentimentScore)
}

func TestLexiconWarning(t *testing.T) {
	p := &post.Post{Title: "That's it, I want a refund", Body: "Switching to a competitor next week."}
	res, err := NewLexicon().Analyze(context.Background(), p)
	require.NoError(t, err)

	assert.True(t, res.IsWarning)
	assert.Equal(t, post.SentimentNeutral, res.Sentiment)
}

func TestLexiconSummaryTruncates(t *testing.T) {
	p := &post.Post{Title: strings.Repeat("a", 300)}
	res, err := NewLexicon().Analyze(context.Background(), p)
	require.NoError(t, err)

	assert.Len(t, res.Summary, 180)
	assert.True(t, strings.HasSuffix(res.Summary, "..."))
}
