package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// OpenAICompatibleProvider serves every vendor exposing the OpenAI /models API
// (OpenAI, Deepseek, xAI Grok, Groq).
type OpenAICompatibleProvider struct {
	spec       spec
	baseURL    string
	httpClient *retryablehttp.Client
	config     Config
}

func newOpenAICompatibleProvider(s spec, config Config) *OpenAICompatibleProvider {
	return &OpenAICompatibleProvider{
		spec:       s,
		baseURL:    config.baseURL(s),
		httpClient: newHTTPClient(s, config),
		config:     config,
	}
}

func (p *OpenAICompatibleProvider) ID() string   { return p.spec.ID }
func (p *OpenAICompatibleProvider) Name() string { return p.spec.Name }

func (p *OpenAICompatibleProvider) client(apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = p.baseURL
	cfg.HTTPClient = p.httpClient.StandardClient()
	return openai.NewClientWithConfig(cfg)
}

// ListModels calls GET {base}/models
func (p *OpenAICompatibleProvider) ListModels(ctx context.Context, apiKey string) ([]Model, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoKey
	}
	logger := log.WithFields(logrus.Fields{
		"provider": p.spec.ID,
		"base_url": p.baseURL,
	})
	logger.Debug("Listing models")

	list, err := p.client(apiKey).ListModels(ctx)
	if err != nil {
		err = p.wrapError(err)
		logger.WithError(err).Debug("Listing models failed")
		return nil, err
	}

	models := make([]Model, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, convertOpenAIModel(m))
	}
	logger.WithField("count", len(models)).Debug("Listed models")
	return models, nil
}

// GetModel tries GET {base}/models/{id} and falls back to scanning the list.
func (p *OpenAICompatibleProvider) GetModel(ctx context.Context, apiKey, modelID string) (*Model, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoKey
	}
	m, err := p.client(apiKey).GetModel(ctx, modelID)
	if err == nil {
		model := convertOpenAIModel(m)
		return &model, nil
	}
	log.WithFields(logrus.Fields{
		"provider": p.spec.ID,
		"model":    modelID,
	}).WithError(p.wrapError(err)).Debug("Direct model lookup failed, scanning list")

	models, err := p.ListModels(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return findModel(models, modelID)
}

// Probe sends a one-token chat completion through langchaingo.
func (p *OpenAICompatibleProvider) Probe(ctx context.Context, apiKey, model string) (*ProbeResult, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoKey
	}
	if model == "" {
		model = p.spec.ProbeModel
	}
	llm, err := lcopenai.New(
		lcopenai.WithToken(apiKey),
		lcopenai.WithModel(model),
		lcopenai.WithBaseURL(p.baseURL),
		lcopenai.WithHTTPClient(p.httpClient.StandardClient()),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating %s client: %w", p.spec.ID, err)
	}
	return runProbe(ctx, p.spec.ID, model, p.wrapLLM(llm)), nil
}

func (p *OpenAICompatibleProvider) wrapLLM(llm llms.Model) llms.Model {
	return NewRateLimitedLLM(llm, p.config.ProbeLimiter, p.config.ProbeRetries)
}

func (p *OpenAICompatibleProvider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &StatusError{Provider: p.spec.ID, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &StatusError{Provider: p.spec.ID, StatusCode: reqErr.HTTPStatusCode, Body: strings.TrimSpace(string(reqErr.Body))}
	}
	return err
}

func convertOpenAIModel(m openai.Model) Model {
	raw, _ := json.Marshal(m)
	return Model{
		ID:      m.ID,
		Created: m.CreatedAt,
		OwnedBy: m.OwnedBy,
		Raw:     raw,
	}
}
