package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicAPIVersion     = "2023-06-01"
	anthropicDefaultModel   = "claude-3-5-haiku-20241022"
)

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	apiKey  string
	model   string
	BaseURL string // Exported for testing
	client  *restClient
}

// NewAnthropic creates an Anthropic provider. An empty apiKey yields an
// unavailable provider, not an error.
func NewAnthropic(apiKey string, timeout time.Duration, logger zerolog.Logger) *Anthropic {
	return &Anthropic{
		apiKey:  apiKey,
		model:   anthropicDefaultModel,
		BaseURL: anthropicDefaultBaseURL,
		client:  newRESTClient("anthropic", timeout, logger),
	}
}

func (a *Anthropic) ID() analysis.ProviderID  { return analysis.ProviderAnthropic }
func (a *Anthropic) RequiresCredential() bool { return true }
func (a *Anthropic) Available() bool          { return a.apiKey != "" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Explain sends the text to the Messages API and returns the first text
// block of the response.
func (a *Anthropic) Explain(ctx context.Context, text, pageContext string) (string, error) {
	prompt := fmt.Sprintf(explainPrompt, text)
	if pageContext != "" {
		prompt += "\n\nSurrounding page context: " + pageContext
	}

	request := anthropicRequest{
		Model:     a.model,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
		MaxTokens: 1024,
	}

	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicAPIVersion,
	}

	var response anthropicResponse
	if err := a.client.postJSON(ctx, a.BaseURL+"/v1/messages", headers, request, &response); err != nil {
		return "", err
	}

	if len(response.Content) == 0 || response.Content[0].Text == "" {
		return "", fmt.Errorf("empty response from anthropic")
	}
	return response.Content[0].Text, nil
}
