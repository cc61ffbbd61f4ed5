package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
)

const (
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com"
	geminiDefaultModel   = "gemini-1.5-flash"
)

// Gemini calls the Google generative language API.
type Gemini struct {
	apiKey  string
	model   string
	BaseURL string // Exported for testing
	client  *restClient
}

// NewGemini creates a Gemini provider.
func NewGemini(apiKey string, timeout time.Duration, logger zerolog.Logger) *Gemini {
	return &Gemini{
		apiKey:  apiKey,
		model:   geminiDefaultModel,
		BaseURL: geminiDefaultBaseURL,
		client:  newRESTClient("gemini", timeout, logger),
	}
}

func (g *Gemini) ID() analysis.ProviderID  { return analysis.ProviderGemini }
func (g *Gemini) RequiresCredential() bool { return true }
func (g *Gemini) Available() bool          { return g.apiKey != "" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Explain sends the text to generateContent and returns the first
// candidate's first part.
func (g *Gemini) Explain(ctx context.Context, text, pageContext string) (string, error) {
	prompt := fmt.Sprintf(explainPrompt, text)
	if pageContext != "" {
		prompt += "\n\nSurrounding page context: " + pageContext
	}

	request := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.BaseURL, g.model, g.apiKey)

	var response geminiResponse
	if err := g.client.postJSON(ctx, url, nil, request, &response); err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 ||
		response.Candidates[0].Content.Parts[0].Text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return response.Candidates[0].Content.Parts[0].Text, nil
}
