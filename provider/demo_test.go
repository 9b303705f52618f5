package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoProvider(t *testing.T) {
	p, err := New("gemini", Config{Demo: true})
	require.NoError(t, err)
	require.IsType(t, &DemoProvider{}, p)

	models, err := p.ListModels(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "models/gemini-1.5-pro", models[0].ID)
	assert.Equal(t, 1000000, models[0].InputTokenLimit)
	assert.Equal(t, int64(1707955200), models[0].Created)
	assert.Contains(t, models[0].SupportedActions, "vision")

	model, err := p.GetModel(context.Background(), "anything", "models/gemini-1.5-flash")
	require.NoError(t, err)
	assert.Contains(t, model.Description, "speed")

	_, err = p.GetModel(context.Background(), "anything", "models/gemini-2")
	assert.ErrorIs(t, err, ErrModelNotFound)

	probe, err := p.Probe(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.True(t, probe.OK)
	assert.Equal(t, "gemini-1.5-flash", probe.Model)

	_, err = p.ListModels(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestDemoProvider_EveryProviderHasModels(t *testing.T) {
	for _, id := range All() {
		p, err := New(id, Config{Demo: true})
		require.NoError(t, err)

		models, err := p.ListModels(context.Background(), "demo-key")
		require.NoError(t, err)
		assert.NotEmpty(t, models, id)
		for _, m := range models {
			assert.Equal(t, id, m.OwnedBy)
		}
	}
}

func TestTableLookups(t *testing.T) {
	id, ok := Lookup(" Google ")
	require.True(t, ok)
	assert.Equal(t, "gemini", id)

	_, ok = Lookup("mistral")
	assert.False(t, ok)

	assert.Equal(t, "🟪 Anthropic Claude", Badge("claude"))
	assert.Equal(t, "ℹ️ Unknown Provider", Badge("mistral"))
	assert.Equal(t, "xAI Grok", DisplayName("grok"))
	assert.Equal(t, "mistral", DisplayName("mistral"))
	assert.Equal(t, []string{"openai", "gemini", "deepseek", "anthropic", "grok", "groq"}, All())
}

func TestDescribe(t *testing.T) {
	infos := Describe(Config{BaseURLs: map[string]string{"groq": "http://localhost:9999/"}})
	require.Len(t, infos, 6)

	byID := map[string]Info{}
	for _, info := range infos {
		byID[info.ID] = info
	}
	assert.Equal(t, "http://localhost:9999", byID["groq"].BaseURL)
	assert.Equal(t, "https://api.openai.com/v1", byID["openai"].BaseURL)
	assert.Equal(t, "x-api-key", byID["anthropic"].AuthHeader)
	assert.Equal(t, []string{"xai"}, byID["grok"].Aliases)
}
