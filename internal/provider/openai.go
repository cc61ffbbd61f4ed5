package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
)

const (
	openaiDefaultBaseURL = "https://api.openai.com"
	openaiDefaultModel   = "gpt-4o-mini"
)

// OpenAI calls the OpenAI chat completions API.
type OpenAI struct {
	apiKey  string
	model   string
	BaseURL string // Exported for testing
	client  *restClient
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(apiKey string, timeout time.Duration, logger zerolog.Logger) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		model:   openaiDefaultModel,
		BaseURL: openaiDefaultBaseURL,
		client:  newRESTClient("openai", timeout, logger),
	}
}

func (o *OpenAI) ID() analysis.ProviderID  { return analysis.ProviderOpenAI }
func (o *OpenAI) RequiresCredential() bool { return true }
func (o *OpenAI) Available() bool          { return o.apiKey != "" }

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

// Explain sends the text to the chat completions API and returns the first
// choice's content.
func (o *OpenAI) Explain(ctx context.Context, text, pageContext string) (string, error) {
	prompt := fmt.Sprintf(explainPrompt, text)
	if pageContext != "" {
		prompt += "\n\nSurrounding page context: " + pageContext
	}

	request := openaiRequest{
		Model:    o.model,
		Messages: []openaiMessage{{Role: "user", Content: prompt}},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + o.apiKey,
	}

	var response openaiResponse
	if err := o.client.postJSON(ctx, o.BaseURL+"/v1/chat/completions", headers, request, &response); err != nil {
		return "", err
	}

	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from openai")
	}
	return response.Choices[0].Message.Content, nil
}
