package provider

import (
	"context"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
	"github.com/GALIB-Dev/AI-Extension/internal/local"
)

// Local wraps the heuristic analyzer as the terminal provider. It is
// always available and never fails.
type Local struct {
	analyzer *local.Analyzer
}

// NewLocal creates the local provider around an analyzer instance.
func NewLocal(analyzer *local.Analyzer) *Local {
	return &Local{analyzer: analyzer}
}

func (l *Local) ID() analysis.ProviderID  { return analysis.ProviderLocal }
func (l *Local) RequiresCredential() bool { return false }
func (l *Local) Available() bool          { return true }

// Explain returns the heuristic analyzer's explanation text.
func (l *Local) Explain(ctx context.Context, text, pageContext string) (string, error) {
	return l.analyzer.Analyze(text).ExplanationText, nil
}

// Analyzer exposes the wrapped analyzer so the orchestrator can take the
// full heuristic result instead of just its explanation text.
func (l *Local) Analyzer() *local.Analyzer {
	return l.analyzer
}
