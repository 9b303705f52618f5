package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	cwd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	return tmp
}

func TestLoadSettings_CreatesDefaults(t *testing.T) {
	chdirTemp(t)

	loadSettings()

	assert.Equal(t, defaultSettings(), currentSettings())
	data, err := os.ReadFile(filepath.Join(configDir, settingsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"max_requests_per_minute": 60`)
}

func TestLoadSettings_KeepsDefaultsForMissingKeys(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, settingsFile), []byte(`{
		"timeout": 12,
		"features": {"enable_probe": false}
	}`), 0644))

	loadSettings()

	s := currentSettings()
	assert.Equal(t, 12, s.Timeout)
	assert.Equal(t, 3, s.MaxRetries)
	assert.False(t, s.Features.EnableProbe)
	assert.True(t, s.Features.EnableNotifications)
	assert.True(t, s.Security.EnableRateLimiting)
}

func TestLoadSettings_CorruptFile(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.MkdirAll(configDir, 0755))
	path := filepath.Join(configDir, settingsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	loadSettings()

	assert.Equal(t, defaultSettings(), currentSettings())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data), "corrupt file is left for the user to fix")
}

func TestReplaceSettings(t *testing.T) {
	chdirTemp(t)

	next := defaultSettings()
	next.AutoRefresh = true
	next.Security.MaxRequestsPerMinute = 5
	require.NoError(t, replaceSettings(next))
	assert.Equal(t, next, currentSettings())

	settingsMutex.Lock()
	settings = Settings{}
	settingsMutex.Unlock()

	loadSettings()
	assert.Equal(t, next, currentSettings())
}

func TestDefaultSettings_UsesRequestTimeout(t *testing.T) {
	saved := requestTimeout
	t.Cleanup(func() { requestTimeout = saved })

	requestTimeout = 45
	assert.Equal(t, 45, defaultSettings().Timeout)

	requestTimeout = 0
	assert.Equal(t, 30, defaultSettings().Timeout)
}
