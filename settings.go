package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const (
	configDir    = "config"
	settingsFile = "settings.json"
)

// FeatureFlags toggle optional parts of the dashboard
type FeatureFlags struct {
	EnableAdvancedAnalysis    bool `json:"enable_advanced_analysis"`
	EnableModelComparison     bool `json:"enable_model_comparison"`
	EnableExportFunctionality bool `json:"enable_export_functionality"`
	EnableNotifications       bool `json:"enable_notifications"`
	EnableProbe               bool `json:"enable_probe"`
}

// SecuritySettings configure the local request limiter
type SecuritySettings struct {
	EnableRateLimiting   bool `json:"enable_rate_limiting"`
	MaxRequestsPerMinute int  `json:"max_requests_per_minute" binding:"min=1,max=10000"`
}

// Settings are the user-editable options persisted in config/settings.json
type Settings struct {
	Timeout     int              `json:"timeout" binding:"min=1,max=300"`
	MaxRetries  int              `json:"max_retries" binding:"min=0,max=10"`
	ShowRawJSON bool             `json:"show_raw_json"`
	AutoRefresh bool             `json:"auto_refresh"`
	Features    FeatureFlags     `json:"features"`
	Security    SecuritySettings `json:"security"`
}

var (
	settings      Settings
	settingsMutex sync.RWMutex
)

func defaultSettings() Settings {
	timeout := requestTimeout
	if timeout <= 0 {
		timeout = 30
	}
	return Settings{
		Timeout:    timeout,
		MaxRetries: 3,
		Features: FeatureFlags{
			EnableAdvancedAnalysis:    true,
			EnableModelComparison:     true,
			EnableExportFunctionality: true,
			EnableNotifications:       true,
			EnableProbe:               true,
		},
		Security: SecuritySettings{
			EnableRateLimiting:   true,
			MaxRequestsPerMinute: 60,
		},
	}
}

// currentSettings returns a copy safe to read without the lock
func currentSettings() Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settings
}

// saveSettingsLocked performs the actual saving without locking the mutex.
// This is to be called from functions that already hold the lock.
func saveSettingsLocked() error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, settingsFile), data, 0644)
}

// loadSettings loads the settings from settings.json, creating it with defaults if it doesn't exist or is corrupt.
func loadSettings() {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settingsPath := filepath.Join(configDir, settingsFile)
	data, err := os.ReadFile(settingsPath)

	if err != nil {
		if os.IsNotExist(err) {
			log.Infof("Settings file not found at %s, creating with default values.", settingsPath)
			settings = defaultSettings()
			if err := saveSettingsLocked(); err != nil {
				log.Fatalf("Failed to create default settings file: %v", err)
			}
		} else {
			log.Warnf("Failed to read settings file: %v. Loading default settings.", err)
			settings = defaultSettings()
		}
		return
	}

	// Missing keys keep their default values
	loaded := defaultSettings()
	if err := json.Unmarshal(data, &loaded); err != nil {
		log.Warnf("Failed to parse settings file, please check its format. Loading default settings. Error: %v", err)
		settings = defaultSettings()
		return
	}
	settings = loaded

	log.Info("Successfully loaded settings from settings.json")
}

// replaceSettings swaps in new settings and persists them.
func replaceSettings(next Settings) error {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settings = next
	return saveSettingsLocked()
}
