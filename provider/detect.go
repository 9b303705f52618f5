package provider

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// Detection is the outcome of trying a key against its candidate providers.
type Detection struct {
	Provider string    `json:"provider,omitempty"`
	Valid    bool      `json:"valid"`
	Message  string    `json:"message"`
	Result   *Result   `json:"result,omitempty"`
	Attempts []*Result `json:"attempts"`
}

// DetectOrder returns the providers worth trying for a key, most likely first.
func DetectOrder(apiKey string) []string {
	key := strings.ToLower(strings.TrimSpace(apiKey))
	switch {
	case strings.HasPrefix(key, "sk-ant-"):
		return []string{"anthropic"}
	case strings.HasPrefix(key, "xai-"):
		return []string{"grok"}
	case strings.HasPrefix(key, "gsk_"):
		return []string{"groq"}
	case strings.HasPrefix(key, "ai"):
		return []string{"gemini"}
	case strings.HasPrefix(key, "sk-"):
		return []string{"openai", "deepseek"}
	default:
		return All()
	}
}

// Detect tries the key against its candidates one at a time, in priority
// order, and stops at the first provider that accepts it. Lower-priority
// providers never see the key once an earlier one has accepted it.
func Detect(ctx context.Context, registry Registry, apiKey string) *Detection {
	if strings.TrimSpace(apiKey) == "" {
		return &Detection{Message: "No API key provided", Attempts: []*Result{}}
	}

	order := DetectOrder(apiKey)
	detection := &Detection{Attempts: make([]*Result, 0, len(order))}
	for _, id := range order {
		if ctx.Err() != nil {
			break
		}
		p, err := registry.Get(id)
		if err != nil {
			detection.Attempts = append(detection.Attempts, &Result{Provider: id, Status: StatusFailed, Message: err.Error()})
			continue
		}
		r := Validate(ctx, p, apiKey)
		detection.Attempts = append(detection.Attempts, r)
		if r.Valid {
			detection.Provider = r.Provider
			detection.Valid = true
			detection.Result = r
			detection.Message = "Valid " + DisplayName(r.Provider) + " API key"
			break
		}
	}
	if !detection.Valid {
		detection.Message = "Invalid or unauthorized API key"
	}

	log.WithFields(logrus.Fields{
		"key":        MaskKey(apiKey),
		"candidates": order,
		"attempts":   len(detection.Attempts),
		"provider":   detection.Provider,
	}).Info("Provider detection finished")
	return detection
}
