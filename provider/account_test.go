package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelsFromIDs(ids ...string) []Model {
	models := make([]Model, 0, len(ids))
	for _, id := range ids {
		models = append(models, Model{ID: id})
	}
	return models
}

func TestGetAccountStatus(t *testing.T) {
	tests := []struct {
		name         string
		provider     string
		models       []Model
		wantPaid     bool
		wantFeatures map[string]bool
	}{
		{
			name:     "openai with gpt-4o",
			provider: "openai",
			models:   modelsFromIDs("gpt-4o", "gpt-3.5-turbo"),
			wantPaid: true,
			wantFeatures: map[string]bool{
				"has_gpt4":       true,
				"has_gpt4_turbo": false,
				"has_gpt4o":      true,
			},
		},
		{
			name:     "groq free tier looking models",
			provider: "groq",
			models:   modelsFromIDs("whisper-large-v3"),
			wantPaid: false,
			wantFeatures: map[string]bool{
				"has_llama_3_8b":   false,
				"has_llama_3_70b":  false,
				"has_mixtral_8x7b": false,
				"has_gemma_7b":     false,
				"has_gemma_2b":     false,
			},
		},
		{
			name:     "alias resolves",
			provider: "claude",
			models:   modelsFromIDs("claude-3-haiku-20240307"),
			wantPaid: true,
			wantFeatures: map[string]bool{
				"has_claude_3_opus":   false,
				"has_claude_3_sonnet": false,
				"has_claude_3_haiku":  true,
				"has_claude_2":        false,
			},
		},
		{
			name:         "unknown provider",
			provider:     "mistral",
			models:       modelsFromIDs("mistral-large"),
			wantPaid:     false,
			wantFeatures: map[string]bool{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status := GetAccountStatus(tc.provider, tc.models)
			assert.Equal(t, tc.wantPaid, status.IsPaid)
			assert.Equal(t, tc.wantFeatures, status.Features)
			if tc.wantPaid {
				assert.Equal(t, "Paid", status.AccountType)
			} else {
				assert.Equal(t, "Free", status.AccountType)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize("openai", modelsFromIDs("gpt-4o", "text-embedding-3-small", "whisper-1", "dall-e-3"))

	assert.Equal(t, 4, summary.TotalModels)
	assert.Equal(t, 2, summary.OtherModels)
	assert.Equal(t, []string{"gpt-4o", "text-embedding-3-small", "whisper-1", "dall-e-3"}, summary.AllModels)

	require.Len(t, summary.Categories, 2)
	assert.Equal(t, Category{Name: "gpt", Count: 1, Models: []string{"gpt-4o"}}, summary.Categories[0])
	assert.Equal(t, Category{Name: "embedding", Count: 1, Models: []string{"text-embedding-3-small"}}, summary.Categories[1])
}

func TestSummarize_MultipleCategories(t *testing.T) {
	summary := Summarize("gemini", modelsFromIDs("models/gemini-1.5-pro", "models/text-embedding-004", "models/aqa"))

	require.Len(t, summary.Categories, 2)
	assert.Equal(t, 1, summary.Categories[0].Count)
	assert.Equal(t, 1, summary.Categories[1].Count)
	assert.Equal(t, 1, summary.OtherModels)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize("deepseek", nil)
	assert.Equal(t, 0, summary.TotalModels)
	assert.Empty(t, summary.AllModels)
	require.Len(t, summary.Categories, 1)
	assert.Equal(t, 0, summary.Categories[0].Count)
}

func TestAccountType(t *testing.T) {
	assert.Equal(t, "Paid", accountType("deepseek", modelsFromIDs("deepseek-chat", "deepseek-reasoner")))
	assert.Equal(t, "Free", accountType("deepseek", modelsFromIDs("deepseek-chat")))
	assert.Equal(t, "Paid", accountType("gemini", modelsFromIDs("models/gemini-pro")))
	assert.Equal(t, "Free", accountType("gemini", modelsFromIDs("models/gemini-1.5-flash")))
	assert.Equal(t, "Free", accountType("unknown", modelsFromIDs("gpt-4")))
}
