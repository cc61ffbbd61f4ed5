// Package provider defines the explanation provider interface and its
// fixed set of variants: the built-in local model runtime, three remote
// APIs, and the heuristic local analyzer.
package provider

import (
	"context"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
)

// Provider is a pluggable explanation source.
type Provider interface {
	// ID returns the provider's stable identifier.
	ID() analysis.ProviderID

	// RequiresCredential reports whether the provider needs a configured
	// credential to be usable.
	RequiresCredential() bool

	// Available reports whether the provider can currently serve requests.
	// Must be cheap; expensive checks belong in Refresh.
	Available() bool

	// Explain produces a plain-language explanation of the text, or an
	// error. Failures are never retried at this boundary.
	Explain(ctx context.Context, text, pageContext string) (string, error)
}

// Refresher is implemented by providers whose availability depends on
// probing the environment (the built-in runtime). Refresh is called at
// session start and by the maintenance worker.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Describe builds the descriptor for a provider.
func Describe(p Provider) analysis.Descriptor {
	return analysis.Descriptor{
		ID:                 p.ID(),
		Available:          p.Available(),
		RequiresCredential: p.RequiresCredential(),
	}
}

// explainPrompt is the instruction sent to every model-backed provider.
const explainPrompt = "You are a financial educator. Explain the following text from a web page in plain language for a general audience. Be concise and concrete.\n\nText: %s"
