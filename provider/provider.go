package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var log = logrus.New()

var (
	// ErrUnknownProvider is returned for ids that are not in the provider table.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrModelNotFound is returned when neither the direct lookup nor the model list knows the id.
	ErrModelNotFound = errors.New("model not found")

	// ErrNoKey is returned when an operation is attempted with a blank API key.
	ErrNoKey = errors.New("no API key provided")
)

// Model is a provider-neutral model descriptor used for display.
type Model struct {
	ID               string          `json:"id"`
	Created          int64           `json:"created,omitempty"`
	OwnedBy          string          `json:"owned_by,omitempty"`
	DisplayName      string          `json:"display_name,omitempty"`
	Description      string          `json:"description,omitempty"`
	Version          string          `json:"version,omitempty"`
	InputTokenLimit  int             `json:"input_token_limit,omitempty"`
	OutputTokenLimit int             `json:"output_token_limit,omitempty"`
	SupportedActions []string        `json:"supported_actions,omitempty"`
	Raw              json.RawMessage `json:"raw,omitempty"`
}

// ProbeResult holds the outcome of a one-token generation request.
type ProbeResult struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	OK       bool          `json:"ok"`
	Reply    string        `json:"reply,omitempty"`
	Error    string        `json:"error,omitempty"`
	Latency  time.Duration `json:"latency_ns"`
}

// Provider is implemented by every vendor adapter.
type Provider interface {
	ID() string
	Name() string
	ListModels(ctx context.Context, apiKey string) ([]Model, error)
	GetModel(ctx context.Context, apiKey, modelID string) (*Model, error)
	Probe(ctx context.Context, apiKey, model string) (*ProbeResult, error)
}

// Config holds the settings shared by all provider adapters
type Config struct {
	// BaseURLs overrides the default endpoint per provider id
	BaseURLs map[string]string

	// Timeout bounds a single HTTP request. Defaults to 30 seconds.
	// Listing and validation requests are never retried.
	Timeout time.Duration

	// ProbeLimiter throttles generation probes across all providers. Nil means unlimited.
	ProbeLimiter *rate.Limiter
	// ProbeRetries is how often a failed generation probe is retried
	ProbeRetries int

	// Demo serves a fixed catalogue without touching the network
	Demo bool
}

func (c Config) baseURL(s spec) string {
	if u := strings.TrimSpace(c.BaseURLs[s.ID]); u != "" {
		return strings.TrimRight(u, "/")
	}
	return s.BaseURL
}

// New creates the adapter for a provider id (aliases accepted)
func New(id string, config Config) (Provider, error) {
	s, ok := lookupSpec(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}

	if config.Demo {
		return newDemoProvider(s), nil
	}

	switch s.kind {
	case kindOpenAICompatible:
		return newOpenAICompatibleProvider(s, config), nil
	case kindAnthropic:
		return newAnthropicProvider(s, config), nil
	case kindGemini:
		return newGeminiProvider(s, config), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
}

// Registry maps canonical provider ids to adapters.
type Registry map[string]Provider

// NewRegistry builds adapters for every known provider.
func NewRegistry(config Config) (Registry, error) {
	reg := make(Registry, len(specs))
	for _, s := range specs {
		p, err := New(s.ID, config)
		if err != nil {
			return nil, err
		}
		reg[s.ID] = p
	}
	return reg, nil
}

// Get resolves aliases before looking up the adapter.
func (r Registry) Get(id string) (Provider, error) {
	s, ok := lookupSpec(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	p, ok := r[s.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	return p, nil
}

// SetLogLevel sets the logging level for the provider package
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

func findModel(models []Model, id string) (*Model, error) {
	for i := range models {
		if models[i].ID == id {
			return &models[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrModelNotFound, id)
}
