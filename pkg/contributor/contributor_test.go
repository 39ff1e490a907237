package contributor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContributorRequiresHandle(t *testing.T) {
	_, err := NewContributor("Jess", "", "jess", "engineer")
	require.Error(t, err)

	a, err := NewContributor("Jess", "jess_dev", "jess", "engineer")
	require.NoError(t, err)
	assert.Equal(t, KindContributor, a.Kind)
	assert.True(t, a.Active)
	assert.True(t, a.CanWrite())
	assert.False(t, a.IsReader())
}

func TestNewReaderRequiresAlias(t *testing.T) {
	_, err := NewReader("Sam", "", "pm")
	require.Error(t, err)

	a, err := NewReader("Sam", "sam", "pm")
	require.NoError(t, err)
	assert.Equal(t, KindReader, a.Kind)
	assert.Empty(t, a.Handle)
	assert.True(t, a.IsReader())
	assert.False(t, a.CanWrite())
}

func TestContributorJSONKeepsHandle(t *testing.T) {
	a, err := NewContributor("Jess", "jess_dev", "jess", "engineer")
	require.NoError(t, err)
	a.ID = 1

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"reddit_handle":"jess_dev"`)

	var back Actor
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, KindContributor, back.Kind)
	assert.Equal(t, "jess_dev", back.Handle)
}

func TestReaderJSONEmitsNullHandle(t *testing.T) {
	a, err := NewReader("Sam", "sam", "pm")
	require.NoError(t, err)
	a.ID = 2

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"reddit_handle":null`)

	var back Actor
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, KindReader, back.Kind)
	assert.Empty(t, back.Handle)
	assert.True(t, back.IsReader())
}

// Kind is derived from the wire handle even when the payload never carried
// a kind tag, so a decoded actor cannot contradict itself.
func TestUnmarshalDerivesKind(t *testing.T) {
	var a Actor
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"name":"X","reddit_handle":"xx","active":true}`), &a))
	assert.Equal(t, KindContributor, a.Kind)

	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"name":"Y","reddit_handle":null,"active":true}`), &a))
	assert.Equal(t, KindReader, a.Kind)
}

func TestCanWriteRequiresActive(t *testing.T) {
	a, err := NewContributor("Jess", "jess_dev", "jess", "")
	require.NoError(t, err)
	a.Active = false
	assert.False(t, a.CanWrite())
}
