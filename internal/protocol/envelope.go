// Package protocol defines the message envelope carried by both channels:
// the persistent WebSocket and the one-shot HTTP fallback. Both paths
// resolve to the same response shape so callers stay path-agnostic.
package protocol

import "github.com/GALIB-Dev/AI-Extension/internal/analysis"

// Message types.
const (
	MsgExplainText = "EXPLAIN_TEXT"
)

// ExplainPayload carries the text to analyze.
type ExplainPayload struct {
	Text        string           `json:"text"`
	PageContext string           `json:"pageContext,omitempty"`
	Options     analysis.Options `json:"options,omitempty"`
}

// Request is the envelope for an analysis request.
type Request struct {
	Type          string         `json:"type"`
	Payload       ExplainPayload `json:"payload"`
	CorrelationID string         `json:"correlationId"`
}

// Response is the envelope for an analysis response. Exactly one of
// Analysis or Error is set.
type Response struct {
	Explanation      string           `json:"explanation,omitempty"`
	Analysis         *analysis.Result `json:"analysis,omitempty"`
	Error            string           `json:"error,omitempty"`
	ErrorCode        string           `json:"errorCode,omitempty"`
	Cached           bool             `json:"cached,omitempty"`
	ProcessingTimeMs int64            `json:"processingTimeMs,omitempty"`
	CorrelationID    string           `json:"correlationId"`
}

// FromResult builds a success response from an analysis result.
func FromResult(correlationID string, result *analysis.Result) *Response {
	return &Response{
		Explanation:      result.ExplanationText,
		Analysis:         result,
		Cached:           result.Cached,
		ProcessingTimeMs: result.ProcessingTimeMs,
		CorrelationID:    correlationID,
	}
}

// FromError builds an error response.
func FromError(correlationID string, code analysis.ErrorCode, message string) *Response {
	return &Response{
		Error:         message,
		ErrorCode:     string(code),
		CorrelationID: correlationID,
	}
}
