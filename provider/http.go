package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 30 * time.Second

// newHTTPClient returns the client shared by one adapter. Every request is
// sent once; the response is passed through as-is so its status can be classified.
func newHTTPClient(s spec, config Config) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = singleAttempt

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client.HTTPClient.Timeout = timeout

	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = log.WithFields(logrus.Fields{
		"provider": s.ID,
	})
	return client
}

// singleAttempt never asks for another try. Context errors still surface.
func singleAttempt(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	return false, ctx.Err()
}

// statusFromResponse turns a non-2xx response into a StatusError.
func statusFromResponse(providerID string, resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{Provider: providerID, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
