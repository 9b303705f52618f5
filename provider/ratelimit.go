package provider

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

const (
	probePrompt       = "ping"
	defaultBackoffMin = 500 * time.Millisecond
	defaultBackoffMax = 5 * time.Second
)

// RateLimitedLLM wraps an LLM client with a shared limiter and bounded retries
type RateLimitedLLM struct {
	llm         llms.Model
	rateLimiter *rate.Limiter
	maxRetries  int
	backoffMin  time.Duration
	backoffMax  time.Duration
}

// NewRateLimitedLLM wraps llm. A nil limiter disables throttling; maxRetries <= 0 disables retries.
func NewRateLimitedLLM(llm llms.Model, limiter *rate.Limiter, maxRetries int) *RateLimitedLLM {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RateLimitedLLM{
		llm:         llm,
		rateLimiter: limiter,
		maxRetries:  maxRetries,
		backoffMin:  defaultBackoffMin,
		backoffMax:  defaultBackoffMax,
	}
}

// NewProbeLimiter converts a per-minute budget into a limiter. Zero or negative means unlimited.
func NewProbeLimiter(requestsPerMinute float64) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), 1)
}

// Call implements the llms.Model interface
func (r *RateLimitedLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, r, prompt, options...)
}

// GenerateContent implements the llms.Model interface with rate limiting and retries
func (r *RateLimitedLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if r.rateLimiter != nil {
		if err := r.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	var lastErr error
	attempt := 0

	for {
		resp, err := r.llm.GenerateContent(ctx, messages, options...)
		if err == nil {
			return resp, nil
		}

		if attempt >= r.maxRetries {
			if lastErr != nil {
				return nil, fmt.Errorf("all retry attempts failed, last error: %w", err)
			}
			return nil, err
		}

		// Exponential backoff with +/- 20% jitter
		backoff := r.backoffMin * time.Duration(1<<uint(attempt))
		if backoff > r.backoffMax {
			backoff = r.backoffMax
		}
		jitter := time.Duration(float64(backoff) * (0.8 + 0.4*rand.Float64()))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(jitter):
			attempt++
			lastErr = err
		}
	}
}

func runProbe(ctx context.Context, providerID, model string, llm llms.Model) *ProbeResult {
	result := &ProbeResult{Provider: providerID, Model: model}
	start := time.Now()
	reply, err := llms.GenerateFromSinglePrompt(ctx, llm, probePrompt, llms.WithMaxTokens(1))
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.OK = true
	result.Reply = reply
	return result
}
