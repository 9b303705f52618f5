package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms/anthropic"
)

const (
	anthropicVersion  = "2023-06-01"
	anthropicPageSize = 1000
	anthropicMaxPages = 20
)

// AnthropicProvider lists models from the Anthropic /v1/models API
type AnthropicProvider struct {
	spec       spec
	baseURL    string
	httpClient *retryablehttp.Client
	config     Config
}

type anthropicModelList struct {
	Data    []json.RawMessage `json:"data"`
	HasMore bool              `json:"has_more"`
	FirstID string            `json:"first_id"`
	LastID  string            `json:"last_id"`
}

type anthropicModel struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func newAnthropicProvider(s spec, config Config) *AnthropicProvider {
	return &AnthropicProvider{
		spec:       s,
		baseURL:    config.baseURL(s),
		httpClient: newHTTPClient(s, config),
		config:     config,
	}
}

func (p *AnthropicProvider) ID() string   { return p.spec.ID }
func (p *AnthropicProvider) Name() string { return p.spec.Name }

func (p *AnthropicProvider) get(ctx context.Context, apiKey, path string, query url.Values) ([]byte, error) {
	requestURL := p.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating Anthropic request: %w", err)
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to Anthropic: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading Anthropic response body: %w", err)
	}
	if err := statusFromResponse(p.spec.ID, resp, body); err != nil {
		return nil, err
	}
	return body, nil
}

// ListModels pages through GET {base}/models using after_id.
func (p *AnthropicProvider) ListModels(ctx context.Context, apiKey string) ([]Model, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoKey
	}
	logger := log.WithFields(logrus.Fields{
		"provider": p.spec.ID,
		"base_url": p.baseURL,
	})
	logger.Debug("Listing models")

	var models []Model
	afterID := ""
	for page := 0; page < anthropicMaxPages; page++ {
		query := url.Values{}
		query.Set("limit", fmt.Sprint(anthropicPageSize))
		if afterID != "" {
			query.Set("after_id", afterID)
		}

		body, err := p.get(ctx, apiKey, "/models", query)
		if err != nil {
			logger.WithError(err).Debug("Listing models failed")
			return nil, err
		}

		var list anthropicModelList
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("error parsing Anthropic model list: %w", err)
		}
		for _, raw := range list.Data {
			m, err := convertAnthropicModel(raw)
			if err != nil {
				return nil, err
			}
			models = append(models, m)
		}

		if !list.HasMore || list.LastID == "" {
			break
		}
		afterID = list.LastID
	}

	logger.WithField("count", len(models)).Debug("Listed models")
	return models, nil
}

// GetModel tries GET {base}/models/{id} and falls back to scanning the list.
func (p *AnthropicProvider) GetModel(ctx context.Context, apiKey, modelID string) (*Model, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoKey
	}
	body, err := p.get(ctx, apiKey, "/models/"+url.PathEscape(modelID), nil)
	if err == nil {
		m, err := convertAnthropicModel(body)
		if err != nil {
			return nil, err
		}
		return &m, nil
	}
	log.WithFields(logrus.Fields{
		"provider": p.spec.ID,
		"model":    modelID,
	}).WithError(err).Debug("Direct model lookup failed, scanning list")

	models, err := p.ListModels(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return findModel(models, modelID)
}

// Probe sends a one-token message through langchaingo's Anthropic client.
func (p *AnthropicProvider) Probe(ctx context.Context, apiKey, model string) (*ProbeResult, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoKey
	}
	if model == "" {
		model = p.spec.ProbeModel
	}
	llm, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(model),
		anthropic.WithBaseURL(p.baseURL),
		anthropic.WithHTTPClient(p.httpClient.StandardClient()),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating Anthropic client: %w", err)
	}
	return runProbe(ctx, p.spec.ID, model, NewRateLimitedLLM(llm, p.config.ProbeLimiter, p.config.ProbeRetries)), nil
}

func convertAnthropicModel(raw json.RawMessage) (Model, error) {
	var m anthropicModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return Model{}, fmt.Errorf("error parsing Anthropic model: %w", err)
	}
	model := Model{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		OwnedBy:     "anthropic",
		Raw:         raw,
	}
	if !m.CreatedAt.IsZero() {
		model.Created = m.CreatedAt.Unix()
	}
	return model, nil
}
