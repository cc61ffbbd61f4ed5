// Package orchestrator implements the provider fallback chain: providers
// are tried in priority order with bounded timeouts, the cache is
// consulted before and after, and the heuristic local analyzer terminates
// the chain so a result is always produced.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
	"github.com/GALIB-Dev/AI-Extension/internal/cache"
	"github.com/GALIB-Dev/AI-Extension/internal/config"
	"github.com/GALIB-Dev/AI-Extension/internal/local"
	"github.com/GALIB-Dev/AI-Extension/internal/metrics"
	"github.com/GALIB-Dev/AI-Extension/internal/provider"
)

// Orchestrator owns the provider chain and the result cache policy.
type Orchestrator struct {
	providers []provider.Provider
	analyzer  *local.Analyzer
	cache     *cache.Manager
	config    *config.Config
	logger    zerolog.Logger
}

// New creates an orchestrator over the fixed provider set. The providers
// slice must end with the local provider; NewDefault builds the standard
// chain from configuration.
func New(providers []provider.Provider, analyzer *local.Analyzer, cacheManager *cache.Manager, cfg *config.Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		analyzer:  analyzer,
		cache:     cacheManager,
		config:    cfg,
		logger:    logger,
	}
}

// NewDefault wires the standard chain: built-in runtime, the three remote
// APIs, and the terminal local analyzer.
func NewDefault(cacheManager *cache.Manager, cfg *config.Config, logger zerolog.Logger) *Orchestrator {
	analyzer := local.New()
	providers := []provider.Provider{
		provider.NewBuiltIn(cfg.BuiltinEndpoint, cfg.ProviderTimeout, logger),
		provider.NewAnthropic(cfg.AnthropicAPIKey, cfg.ProviderTimeout, logger),
		provider.NewOpenAI(cfg.OpenAIAPIKey, cfg.ProviderTimeout, logger),
		provider.NewGemini(cfg.GeminiAPIKey, cfg.ProviderTimeout, logger),
		provider.NewLocal(analyzer),
	}
	return New(providers, analyzer, cacheManager, cfg, logger)
}

// Explain runs the full pipeline for one request. The only error it can
// return is the input-too-short rejection; every provider failure degrades
// to the next candidate and the local analyzer never fails.
func (o *Orchestrator) Explain(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	start := time.Now()

	text := strings.TrimSpace(req.Text)
	if len([]rune(text)) < analysis.MinTextLength {
		metrics.RequestsTotal.WithLabelValues("rejected", "").Inc()
		return nil, analysis.ErrInputTooShort
	}

	metrics.ActiveRequests.Inc()
	defer metrics.ActiveRequests.Dec()

	level := req.Options.Level
	if level == "" {
		level = analysis.ComplexityIntermediate
	}
	key := CacheKey(text, level)

	if !req.Options.ForceRefresh {
		cached := o.cache.Get(key)
		metrics.RecordCacheLookup(cached != nil)
		if cached != nil {
			result := *cached
			result.Cached = true
			result.ProcessingTimeMs = time.Since(start).Milliseconds()
			metrics.RequestsTotal.WithLabelValues("cache_hit", string(result.Source)).Inc()
			metrics.RequestLatency.WithLabelValues(string(result.Source), "hit").Observe(time.Since(start).Seconds())
			return &result, nil
		}
	}

	result := o.runChain(ctx, text, req.PageContext)
	result.Cached = false
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	// TTL scales with confidence: higher confidence is worth keeping
	// longer.
	ttl := time.Duration(float64(o.config.CacheBaseTTL) * (1 + result.Confidence))
	if err := o.cache.Set(key, result, ttl); err != nil {
		// Cache errors never fail an analysis request.
		o.logger.Error().Err(err).Str("key", key).Msg("Failed to cache analysis result")
	}

	metrics.RequestsTotal.WithLabelValues("ok", string(result.Source)).Inc()
	metrics.RequestLatency.WithLabelValues(string(result.Source), "miss").Observe(time.Since(start).Seconds())
	return result, nil
}

// runChain tries each available candidate in priority order and returns
// the first success. The local analyzer is the always-succeeding terminal
// candidate.
func (o *Orchestrator) runChain(ctx context.Context, text, pageContext string) *analysis.Result {
	for _, p := range o.candidates() {
		if p.ID() == analysis.ProviderLocal {
			return o.analyzer.Analyze(text)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.config.ProviderTimeout)
		explanation, err := p.Explain(attemptCtx, text, pageContext)
		cancel()

		if err != nil || strings.TrimSpace(explanation) == "" {
			metrics.ProviderFailures.WithLabelValues(string(p.ID())).Inc()
			o.logger.Warn().Err(err).Str("provider", string(p.ID())).Msg("Provider attempt failed, advancing to next candidate")
			continue
		}

		return &analysis.Result{
			ExplanationText: explanation,
			Confidence:      o.confidenceFor(p.ID()),
			Source:          p.ID(),
			Complexity:      local.ClassifyComplexity(text),
			AnalyzedAt:      time.Now(),
		}
	}

	// Unreachable as long as the local provider is registered, but keep
	// the contract: never return nil.
	return o.analyzer.Analyze(text)
}

// candidates computes the priority order: the preferred provider first,
// then the fixed chain, duplicates collapsed, filtered to currently
// available providers. With cloud disabled, credentialed remotes are
// skipped entirely.
func (o *Orchestrator) candidates() []provider.Provider {
	byID := make(map[analysis.ProviderID]provider.Provider, len(o.providers))
	order := make([]analysis.ProviderID, 0, len(o.providers)+1)

	if o.config.PreferredProvider != "" {
		order = append(order, analysis.ProviderID(o.config.PreferredProvider))
	}
	for _, p := range o.providers {
		byID[p.ID()] = p
		order = append(order, p.ID())
	}

	seen := make(map[analysis.ProviderID]bool)
	var out []provider.Provider
	for _, id := range order {
		p, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		if !o.config.CloudEnabled && p.RequiresCredential() {
			continue
		}
		if !p.Available() {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (o *Orchestrator) confidenceFor(id analysis.ProviderID) float64 {
	switch id {
	case analysis.ProviderBuiltIn:
		return o.config.ConfidenceBuiltIn
	case analysis.ProviderAnthropic:
		return o.config.ConfidenceAnthropic
	case analysis.ProviderOpenAI:
		return o.config.ConfidenceOpenAI
	case analysis.ProviderGemini:
		return o.config.ConfidenceGemini
	default:
		return 0.7
	}
}

// Providers returns the current descriptor table in chain order.
func (o *Orchestrator) Providers() []analysis.Descriptor {
	descriptors := make([]analysis.Descriptor, 0, len(o.providers))
	for _, p := range o.providers {
		descriptors = append(descriptors, provider.Describe(p))
	}
	return descriptors
}

// RefreshAvailability re-probes providers whose availability depends on
// the environment. Called at session start and by the maintenance worker.
func (o *Orchestrator) RefreshAvailability(ctx context.Context) {
	for _, p := range o.providers {
		if r, ok := p.(provider.Refresher); ok {
			r.Refresh(ctx)
		}
	}

	for _, d := range o.Providers() {
		o.logger.Debug().
			Str("provider", string(d.ID)).
			Bool("available", d.Available).
			Msg("Provider availability refreshed")
	}
}

// CacheKey derives the stable cache key from normalized text and the
// analysis level.
func CacheKey(text string, level analysis.Complexity) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized + "|" + string(level)))
	return hex.EncodeToString(sum[:])
}
