package selector

import (
	"strings"
	"testing"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustModel(t *testing.T, name string) catalog.Model {
	t.Helper()
	m, err := catalog.Default().LookupByName(name)
	require.NoError(t, err)
	return m
}

func TestResolveClient(t *testing.T) {
	t.Parallel()

	s := New(catalog.Default(), provider.Handle{Provider: catalog.OpenAI})

	h, err := s.ResolveClient(mustModel(t, catalog.GPT4oMini))
	require.NoError(t, err)
	assert.Equal(t, catalog.OpenAI, h.Provider)

	_, err = s.ResolveClient(mustModel(t, catalog.ClaudeSonnet4))
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestAvailability(t *testing.T) {
	t.Parallel()

	s := New(catalog.Default(), provider.Handle{Provider: catalog.Google})

	assert.True(t, s.IsAvailable(mustModel(t, catalog.Gemini15Flash)))
	assert.False(t, s.IsAvailable(mustModel(t, catalog.GPT4o)))

	available := s.AvailableModels()
	require.NotEmpty(t, available)
	for _, m := range available {
		assert.Equal(t, catalog.Google, m.Provider)
	}
	assert.Same(t, catalog.Default(), s.Catalog())
}

func TestEstimateTokens(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 0, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 130, EstimateTokens(strings.Repeat("x", 520)))
}

func TestValidateModelForText(t *testing.T) {
	t.Parallel()

	gpt4 := mustModel(t, catalog.GPT4) // 8192 tokens

	assert.NoError(t, ValidateModelForText(gpt4, strings.Repeat("a", 8192*4)))
	assert.ErrorIs(t, ValidateModelForText(gpt4, strings.Repeat("a", 8193*4)), ErrTextTooLong)

	unbounded := catalog.Model{ID: "x"}
	assert.NoError(t, ValidateModelForText(unbounded, strings.Repeat("a", 1<<20)))
}
