package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Status classifies the outcome of a validation request.
type Status string

const (
	StatusValid           Status = "valid"
	StatusInvalid         Status = "invalid"
	StatusDenied          Status = "denied"
	StatusRateLimited     Status = "rate_limited"
	StatusTimeout         Status = "timeout"
	StatusConnectionError Status = "connection_error"
	StatusFailed          Status = "error"
)

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Result is the outcome of validating one key against one provider.
type Result struct {
	Provider    string        `json:"provider"`
	Valid       bool          `json:"valid"`
	Status      Status        `json:"status"`
	Message     string        `json:"message"`
	StatusCode  int           `json:"status_code,omitempty"`
	AccountType string        `json:"account_type,omitempty"`
	Models      []Model       `json:"-"`
	Duration    time.Duration `json:"duration_ns"`
}

// Validate issues one authenticated list request and classifies the response.
func Validate(ctx context.Context, p Provider, apiKey string) *Result {
	start := time.Now()
	logger := log.WithFields(logrus.Fields{
		"provider": p.ID(),
		"key":      MaskKey(apiKey),
	})

	if strings.TrimSpace(apiKey) == "" {
		return &Result{
			Provider: p.ID(),
			Status:   StatusInvalid,
			Message:  "No API key provided",
		}
	}

	models, err := p.ListModels(ctx, apiKey)
	result := classify(p, err)
	result.Duration = time.Since(start)
	if result.Valid {
		result.Models = models
		result.AccountType = accountType(p.ID(), models)
		result.Message = fmt.Sprintf("Valid %s API key (%s account)", p.Name(), result.AccountType)
	}

	logger.WithFields(logrus.Fields{
		"status":      result.Status,
		"status_code": result.StatusCode,
		"duration":    result.Duration,
	}).Info("Validated API key")
	return result
}

func classify(p Provider, err error) *Result {
	r := &Result{Provider: p.ID()}
	name := p.Name()

	if err == nil {
		r.Valid = true
		r.Status = StatusValid
		r.StatusCode = http.StatusOK
		return r
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		r.StatusCode = statusErr.StatusCode
		switch statusErr.StatusCode {
		case http.StatusUnauthorized:
			r.Status = StatusInvalid
			r.Message = fmt.Sprintf("Invalid %s API key - Authentication failed", name)
		case http.StatusBadRequest:
			r.Status = StatusInvalid
			r.Message = fmt.Sprintf("Invalid %s API key - Bad request", name)
		case http.StatusForbidden:
			r.Status = StatusDenied
			r.Message = fmt.Sprintf("%s API key access denied - Check permissions", name)
		case http.StatusTooManyRequests:
			r.Status = StatusRateLimited
			r.Message = fmt.Sprintf("%s API rate limit exceeded", name)
		default:
			r.Status = StatusFailed
			r.Message = fmt.Sprintf("%s API error: %d", name, statusErr.StatusCode)
		}
		return r
	}

	if isTimeout(err) {
		r.Status = StatusTimeout
		r.Message = fmt.Sprintf("%s API request timed out", name)
		return r
	}

	r.Status = StatusConnectionError
	r.Message = fmt.Sprintf("%s API connection error: %v", name, err)
	return r
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// MaskKey hides all but a few characters of an API key for display.
func MaskKey(key string) string {
	r := []rune(key)
	switch {
	case len(r) == 0:
		return ""
	case len(r) <= 2:
		return strings.Repeat("*", len(r))
	case len(r) <= 6:
		return string(r[0]) + strings.Repeat("*", len(r)-2) + string(r[len(r)-1])
	default:
		return string(r[:3]) + "…" + string(r[len(r)-2:])
	}
}
