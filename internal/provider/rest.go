package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// APIError represents a non-2xx response from a provider API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// restClient is the shared HTTP plumbing for the remote providers: JSON
// request/response, bounded timeout, and a client-side rate limiter. No
// retry: a failed call propagates immediately so the orchestrator can
// advance to the next provider.
type restClient struct {
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

func newRESTClient(name string, timeout time.Duration, logger zerolog.Logger) *restClient {
	return &restClient{
		name: name,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		// Conservative shared default: 50 requests per minute, small burst.
		limiter: rate.NewLimiter(rate.Every(time.Minute/50), 5),
		logger:  logger,
	}
}

// postJSON sends payload to url with the given headers and decodes the
// body into out.
func (c *restClient) postJSON(ctx context.Context, url string, headers map[string]string, payload, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
