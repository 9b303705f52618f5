package main

import (
	"time"

	"keymate/modelid"
	"keymate/provider"
)

// ValidateRequest is the payload of POST /api/validate.
// An empty or "auto" provider triggers detection.
type ValidateRequest struct {
	APIKey   string `json:"api_key"`
	Provider string `json:"provider"`
}

// ValidateResponse reports a validation without any key material beyond the mask
type ValidateResponse struct {
	Valid         bool               `json:"valid"`
	Provider      string             `json:"provider,omitempty"`
	ProviderBadge string             `json:"provider_badge"`
	Status        provider.Status    `json:"status"`
	Message       string             `json:"message"`
	StatusCode    int                `json:"status_code,omitempty"`
	AccountType   string             `json:"account_type,omitempty"`
	ModelCount    int                `json:"model_count"`
	MaskedKey     string             `json:"masked_key"`
	Attempts      []*provider.Result `json:"attempts"`
	Metrics       DashboardMetrics   `json:"metrics"`
}

// SessionResponse is returned by the session endpoints
type SessionResponse struct {
	Session SessionView      `json:"session"`
	Metrics DashboardMetrics `json:"metrics"`
}

// ModelsResponse is the filtered models table
type ModelsResponse struct {
	Provider      string                  `json:"provider"`
	Total         int                     `json:"total"`
	Filtered      int                     `json:"filtered"`
	Rows          []ModelRow              `json:"rows"`
	Types         []modelid.Type          `json:"types"`
	AccountStatus *provider.AccountStatus `json:"account_status,omitempty"`
	Summary       *provider.Summary       `json:"summary,omitempty"`
	Metrics       DashboardMetrics        `json:"metrics"`
}

// ModelDetailResponse combines the live descriptor with offline insight
type ModelDetailResponse struct {
	Model   provider.Model   `json:"model"`
	Insight modelid.Insight  `json:"insight"`
	Metrics DashboardMetrics `json:"metrics"`
}

// ProbeRequest is the payload of POST /api/probe
type ProbeRequest struct {
	Model string `json:"model"`
}

// InsightResponse adds the display badge to an offline insight
type InsightResponse struct {
	modelid.Insight
	ProviderBadge string `json:"provider_badge"`
}

// reportData feeds the report template
type reportData struct {
	GeneratedAt time.Time
	Session     SessionView
	Metrics     DashboardMetrics
	Rows        []ModelRow
}
