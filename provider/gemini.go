package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const geminiAPIVersion = "v1"

// GeminiProvider lists models through the Google Gen AI SDK.
type GeminiProvider struct {
	spec       spec
	baseURL    string
	httpClient *retryablehttp.Client
	config     Config
}

func newGeminiProvider(s spec, config Config) *GeminiProvider {
	return &GeminiProvider{
		spec:       s,
		baseURL:    config.baseURL(s),
		httpClient: newHTTPClient(s, config),
		config:     config,
	}
}

func (p *GeminiProvider) ID() string   { return p.spec.ID }
func (p *GeminiProvider) Name() string { return p.spec.Name }

func (p *GeminiProvider) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient.StandardClient(),
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    p.baseURL,
			APIVersion: geminiAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create googleai client: %w", err)
	}
	return client, nil
}

// ListModels iterates every page of GET {base}/v1/models.
func (p *GeminiProvider) ListModels(ctx context.Context, apiKey string) ([]Model, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoKey
	}
	logger := log.WithFields(logrus.Fields{
		"provider": p.spec.ID,
		"base_url": p.baseURL,
	})
	logger.Debug("Listing models")

	client, err := p.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	var models []Model
	for m, err := range client.Models.All(ctx) {
		if err != nil {
			err = p.wrapError(err)
			logger.WithError(err).Debug("Listing models failed")
			return nil, err
		}
		models = append(models, convertGeminiModel(m))
	}

	logger.WithField("count", len(models)).Debug("Listed models")
	return models, nil
}

// GetModel tries the direct lookup and falls back to scanning the list.
// Gemini ids are resource names such as "models/gemini-1.5-pro".
func (p *GeminiProvider) GetModel(ctx context.Context, apiKey, modelID string) (*Model, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoKey
	}
	client, err := p.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	m, err := client.Models.Get(ctx, modelID, nil)
	if err == nil && m != nil {
		model := convertGeminiModel(m)
		return &model, nil
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

// Probe asks the model for a single output token.
func (p *GeminiProvider) Probe(ctx context.Context, apiKey, model string) (*ProbeResult, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoKey
	}
	if model == "" {
		model = p.spec.ProbeModel
	}
	client, err := p.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	if p.config.ProbeLimiter != nil {
		if err := p.config.ProbeLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	start := time.Now()
	result := &ProbeResult{Provider: p.spec.ID, Model: model}
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(probePrompt), &genai.GenerateContentConfig{
		MaxOutputTokens: 1,
	})
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = p.wrapError(err).Error()
		return result, nil
	}
	result.OK = true
	result.Reply = resp.Text()
	return result, nil
}

func (p *GeminiProvider) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Provider: p.spec.ID, StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &StatusError{Provider: p.spec.ID, StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return err
}

func convertGeminiModel(m *genai.Model) Model {
	raw, _ := json.Marshal(m)
	return Model{
		ID:               m.Name,
		DisplayName:      m.DisplayName,
		Description:      m.Description,
		Version:          m.Version,
		OwnedBy:          "google",
		InputTokenLimit:  int(m.InputTokenLimit),
		OutputTokenLimit: int(m.OutputTokenLimit),
		SupportedActions: m.SupportedActions,
		Raw:              raw,
	}
}
