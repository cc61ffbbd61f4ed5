package provider

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
)

const builtinDefaultModel = "llama3.2"

// BuiltIn talks to an Ollama-compatible model runtime on the host.
// Availability is determined by probing the endpoint, not by credentials.
type BuiltIn struct {
	endpoint  string
	model     string
	client    *restClient
	logger    zerolog.Logger
	available atomic.Bool
}

// NewBuiltIn creates the built-in provider. Call Refresh before first use
// to establish availability.
func NewBuiltIn(endpoint string, timeout time.Duration, logger zerolog.Logger) *BuiltIn {
	return &BuiltIn{
		endpoint: endpoint,
		model:    builtinDefaultModel,
		client:   newRESTClient("builtin", timeout, logger),
		logger:   logger,
	}
}

func (b *BuiltIn) ID() analysis.ProviderID  { return analysis.ProviderBuiltIn }
func (b *BuiltIn) RequiresCredential() bool { return false }
func (b *BuiltIn) Available() bool          { return b.available.Load() }

// Refresh probes the runtime endpoint. A failed probe marks the provider
// unavailable until the next refresh.
func (b *BuiltIn) Refresh(ctx context.Context) {
	if b.endpoint == "" {
		b.available.Store(false)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"/api/tags", nil)
	if err != nil {
		b.available.Store(false)
		return
	}

	resp, err := b.client.httpClient.Do(req)
	if err != nil {
		b.available.Store(false)
		b.logger.Debug().Err(err).Msg("Built-in model runtime not reachable")
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	ok := resp.StatusCode == http.StatusOK
	b.available.Store(ok)
	b.logger.Debug().Bool("available", ok).Msg("Built-in model runtime probed")
}

type builtinRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type builtinResponse struct {
	Response string `json:"response"`
}

// Explain sends a single-shot generate call to the runtime.
func (b *BuiltIn) Explain(ctx context.Context, text, pageContext string) (string, error) {
	prompt := fmt.Sprintf(explainPrompt, text)
	if pageContext != "" {
		prompt += "\n\nSurrounding page context: " + pageContext
	}

	request := builtinRequest{
		Model:  b.model,
		Prompt: prompt,
		Stream: false,
	}

	var response builtinResponse
	if err := b.client.postJSON(ctx, b.endpoint+"/api/generate", nil, request, &response); err != nil {
		return "", err
	}

	if response.Response == "" {
		return "", fmt.Errorf("empty response from built-in runtime")
	}
	return response.Response, nil
}
