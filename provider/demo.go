package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"keymate/modelid"
)

// DemoProvider answers from the offline reference catalogue. Any non-blank key is accepted.
type DemoProvider struct {
	spec spec
}

func newDemoProvider(s spec) *DemoProvider {
	return &DemoProvider{spec: s}
}

func (p *DemoProvider) ID() string   { return p.spec.ID }
func (p *DemoProvider) Name() string { return p.spec.Name }

func (p *DemoProvider) ListModels(ctx context.Context, apiKey string) ([]Model, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cards := modelid.Cards(p.spec.ID)
	models := make([]Model, 0, len(cards))
	for _, c := range cards {
		raw, _ := json.Marshal(c)
		m := Model{
			ID:               c.ID,
			OwnedBy:          p.spec.ID,
			Description:      c.Description,
			InputTokenLimit:  c.ContextLength,
			SupportedActions: c.Capabilities,
			Raw:              raw,
		}
		if t, err := time.Parse(time.DateOnly, c.Created); err == nil {
			m.Created = t.Unix()
		}
		models = append(models, m)
	}
	return models, nil
}

func (p *DemoProvider) GetModel(ctx context.Context, apiKey, modelID string) (*Model, error) {
	models, err := p.ListModels(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return findModel(models, modelID)
}

func (p *DemoProvider) Probe(ctx context.Context, apiKey, model string) (*ProbeResult, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoKey
	}
	if model == "" {
		model = p.spec.ProbeModel
	}
	return &ProbeResult{Provider: p.spec.ID, Model: model, OK: true, Reply: "pong"}, nil
}
