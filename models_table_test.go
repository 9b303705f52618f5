package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keymate/modelid"
	"keymate/provider"
)

func sampleRows() []ModelRow {
	return normalizeModels("openai", []provider.Model{
		{ID: "gpt-4o", Created: 1715367049},
		{ID: "text-embedding-3-large", Created: 1705953180},
		{ID: "whisper-1"},
		{ID: "custom-model", InputTokenLimit: 4096, Created: 1690000000},
	})
}

func rowIDs(rows []ModelRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ModelID
	}
	return ids
}

func TestNormalizeModels(t *testing.T) {
	rows := sampleRows()
	require.Len(t, rows, 4)

	assert.Equal(t, modelid.TypeChat, rows[0].Type)
	assert.Equal(t, 128000, rows[0].ContextLength, "filled from reference card")
	assert.Equal(t, modelid.TypeEmbedding, rows[1].Type)
	assert.Equal(t, modelid.TypeAudio, rows[2].Type)
	assert.Zero(t, rows[2].ContextLength)
	assert.Equal(t, modelid.TypeUnknown, rows[3].Type)
	assert.Equal(t, 4096, rows[3].ContextLength)
	for _, r := range rows {
		assert.Equal(t, "openai", r.Provider)
		assert.Equal(t, "Available", r.Status)
	}
}

func TestApplyTableQuery(t *testing.T) {
	tests := []struct {
		name  string
		query TableQuery
		want  []string
	}{
		{"no query keeps order", TableQuery{}, []string{"gpt-4o", "text-embedding-3-large", "whisper-1", "custom-model"}},
		{"search is case insensitive", TableQuery{Search: "GPT"}, []string{"gpt-4o"}},
		{"type filter", TableQuery{Type: "audio"}, []string{"whisper-1"}},
		{"type all", TableQuery{Type: "All"}, []string{"gpt-4o", "text-embedding-3-large", "whisper-1", "custom-model"}},
		{"provider filter", TableQuery{Provider: "groq"}, []string{}},
		{"min context drops unknown", TableQuery{MinContext: 5000}, []string{"gpt-4o", "text-embedding-3-large"}},
		{"sort name", TableQuery{Sort: "name"}, []string{"custom-model", "gpt-4o", "text-embedding-3-large", "whisper-1"}},
		{"sort context asc", TableQuery{Sort: "context"}, []string{"custom-model", "text-embedding-3-large", "gpt-4o", "whisper-1"}},
		{"sort context desc keeps unknown last", TableQuery{Sort: "context", Order: "desc"}, []string{"gpt-4o", "text-embedding-3-large", "custom-model", "whisper-1"}},
		{"sort created desc", TableQuery{Sort: "created", Order: "desc"}, []string{"gpt-4o", "text-embedding-3-large", "custom-model", "whisper-1"}},
		{"sort type keeps unknown last", TableQuery{Sort: "type", Order: "desc"}, []string{"text-embedding-3-large", "gpt-4o", "whisper-1", "custom-model"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rowIDs(applyTableQuery(sampleRows(), tc.query)))
		})
	}
}

func TestExportCSV(t *testing.T) {
	rows := applyTableQuery(sampleRows(), TableQuery{Search: "e"})
	data, err := exportCSV(rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "provider,model_id,type,context_length,created,status", lines[0])
	assert.Equal(t, "openai,text-embedding-3-large,Embedding,8192,2024-01-22,Available", lines[1])
	assert.Equal(t, "openai,whisper-1,Audio,,,Available", lines[2])

	data, err = exportCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "provider,model_id,type,context_length,created,status\n", string(data))
}

func TestDashboardMetrics(t *testing.T) {
	m := dashboardMetrics(SessionView{})
	assert.Equal(t, DashboardMetrics{
		TotalModels:   0,
		ProviderBadge: "ℹ️ Unknown Provider",
		APIStatus:     apiStatusNotTested,
		SelectedModel: "None",
	}, m)

	valid := true
	m = dashboardMetrics(SessionView{
		Provider:      "groq",
		Valid:         &valid,
		ModelCount:    12,
		SelectedModel: "llama-3.1-70b-versatile-preview",
	})
	assert.Equal(t, 12, m.TotalModels)
	assert.Equal(t, "🟩 Groq", m.ProviderBadge)
	assert.Equal(t, apiStatusValid, m.APIStatus)
	assert.Equal(t, "llama-3.1-70b-versat...", m.SelectedModel)

	invalid := false
	assert.Equal(t, apiStatusInvalid, dashboardMetrics(SessionView{Valid: &invalid}).APIStatus)
}

func TestTruncateModel(t *testing.T) {
	assert.Equal(t, "gpt-4o", truncateModel("gpt-4o"))
	assert.Equal(t, "12345678901234567890", truncateModel("12345678901234567890"))
	assert.Equal(t, "12345678901234567890...", truncateModel("123456789012345678901"))
}
