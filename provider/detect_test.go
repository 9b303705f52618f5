package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectOrder(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"sk-ant-api03-abc", []string{"anthropic"}},
		{"xai-abc", []string{"grok"}},
		{"gsk_abc", []string{"groq"}},
		{"AIzaSyABC", []string{"gemini"}},
		{"sk-proj-abc", []string{"openai", "deepseek"}},
		{"  SK-ANT-upper ", []string{"anthropic"}},
		{"random-key", []string{"openai", "gemini", "deepseek", "anthropic", "grok", "groq"}},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectOrder(tc.key))
		})
	}
}

func TestDetect_PicksFirstValidInPriorityOrder(t *testing.T) {
	openaiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]interface{}{
			"error": map[string]string{"message": "Incorrect API key provided"},
		})
	}))
	defer openaiServer.Close()

	deepseekServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"object": "list",
			"data":   []map[string]interface{}{{"id": "deepseek-chat", "object": "model"}},
		})
	}))
	defer deepseekServer.Close()

	registry, err := NewRegistry(Config{
		BaseURLs: map[string]string{
			"openai":   openaiServer.URL,
			"deepseek": deepseekServer.URL,
		},
	})
	require.NoError(t, err)

	detection := Detect(context.Background(), registry, "sk-shared-prefix")
	require.True(t, detection.Valid)
	assert.Equal(t, "deepseek", detection.Provider)
	assert.Equal(t, "Valid Deepseek API key", detection.Message)
	require.Len(t, detection.Attempts, 2)
	assert.Equal(t, "openai", detection.Attempts[0].Provider)
	assert.Equal(t, StatusInvalid, detection.Attempts[0].Status)
	assert.Equal(t, "Free", detection.Result.AccountType)
}

func TestDetect_StopsAtFirstValidProvider(t *testing.T) {
	openaiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"object": "list",
			"data":   []map[string]interface{}{{"id": "gpt-4o", "object": "model"}},
		})
	}))
	defer openaiServer.Close()

	var deepseekHits atomic.Int32
	deepseekServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deepseekHits.Add(1)
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"object": "list", "data": []interface{}{}})
	}))
	defer deepseekServer.Close()

	registry, err := NewRegistry(Config{
		BaseURLs: map[string]string{
			"openai":   openaiServer.URL,
			"deepseek": deepseekServer.URL,
		},
	})
	require.NoError(t, err)

	detection := Detect(context.Background(), registry, "sk-shared-prefix")
	require.True(t, detection.Valid)
	assert.Equal(t, "openai", detection.Provider)
	require.Len(t, detection.Attempts, 1)
	assert.Zero(t, deepseekHits.Load(), "deepseek must not receive the key")
}

func TestDetect_CancelledContextSendsNothing(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	registry, err := NewRegistry(Config{
		BaseURLs: map[string]string{"openai": server.URL, "deepseek": server.URL},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	detection := Detect(ctx, registry, "sk-late")
	assert.False(t, detection.Valid)
	assert.Empty(t, detection.Attempts)
	assert.Zero(t, hits.Load())
}

func TestDetect_NoValidProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	registry, err := NewRegistry(Config{
		BaseURLs: map[string]string{"grok": server.URL},
	})
	require.NoError(t, err)

	detection := Detect(context.Background(), registry, "xai-nope")
	assert.False(t, detection.Valid)
	assert.Empty(t, detection.Provider)
	assert.Equal(t, "Invalid or unauthorized API key", detection.Message)
	require.Len(t, detection.Attempts, 1)
	assert.Equal(t, StatusInvalid, detection.Attempts[0].Status)
}

func TestDetect_BlankKey(t *testing.T) {
	detection := Detect(context.Background(), Registry{}, "")
	assert.False(t, detection.Valid)
	assert.Equal(t, "No API key provided", detection.Message)
	assert.Empty(t, detection.Attempts)
}

func TestDetect_DemoRegistry(t *testing.T) {
	registry, err := NewRegistry(Config{Demo: true})
	require.NoError(t, err)

	detection := Detect(context.Background(), registry, "sk-ant-demo")
	require.True(t, detection.Valid)
	assert.Equal(t, "anthropic", detection.Provider)
	assert.Equal(t, "Paid", detection.Result.AccountType)
}

func TestRegistry_Get(t *testing.T) {
	registry, err := NewRegistry(Config{Demo: true})
	require.NoError(t, err)

	p, err := registry.Get("xai")
	require.NoError(t, err)
	assert.Equal(t, "grok", p.ID())

	_, err = registry.Get("mistral")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = New("mistral", Config{})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
