package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
	"github.com/GALIB-Dev/AI-Extension/internal/cache"
	"github.com/GALIB-Dev/AI-Extension/internal/config"
	"github.com/GALIB-Dev/AI-Extension/internal/local"
	"github.com/GALIB-Dev/AI-Extension/internal/provider"
)

// stubProvider is a scriptable chain member that records invocations.
type stubProvider struct {
	id        analysis.ProviderID
	available bool
	needsCred bool
	reply     string
	err       error
	calls     int
}

func (s *stubProvider) ID() analysis.ProviderID  { return s.id }
func (s *stubProvider) RequiresCredential() bool { return s.needsCred }
func (s *stubProvider) Available() bool          { return s.available }

func (s *stubProvider) Explain(ctx context.Context, text, pageContext string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		CacheBaseTTL:        time.Minute,
		ProviderTimeout:     time.Second,
		CloudEnabled:        true,
		ConfidenceBuiltIn:   0.92,
		ConfidenceAnthropic: 0.95,
		ConfidenceOpenAI:    0.93,
		ConfidenceGemini:    0.91,
	}
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, stubs ...*stubProvider) *Orchestrator {
	t.Helper()

	cacheManager, err := cache.NewManager(t.TempDir(), 10, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = cacheManager.Close()
	})

	providers := make([]provider.Provider, 0, len(stubs)+1)
	for _, s := range stubs {
		providers = append(providers, s)
	}
	providers = append(providers, &stubProvider{id: analysis.ProviderLocal, available: true})

	return New(providers, local.New(), cacheManager, cfg, zerolog.Nop())
}

const sampleText = "The Federal Reserve raised interest rates by 0.25%"

func TestExplainRejectsShortInput(t *testing.T) {
	remote := &stubProvider{id: analysis.ProviderAnthropic, available: true, needsCred: true, reply: "x"}
	orch := newTestOrchestrator(t, testConfig(), remote)

	tests := []string{"", "   ", "short", "  trimmed \n"}
	for _, text := range tests {
		result, err := orch.Explain(context.Background(), analysis.Request{Text: text})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, analysis.ErrInputTooShort)
	}
	assert.Equal(t, 0, remote.calls, "rejected input must not reach any provider")
}

func TestExplainUsesFirstAvailableProvider(t *testing.T) {
	remote := &stubProvider{id: analysis.ProviderAnthropic, available: true, needsCred: true, reply: "a clear explanation"}
	orch := newTestOrchestrator(t, testConfig(), remote)

	result, err := orch.Explain(context.Background(), analysis.Request{Text: sampleText})
	require.NoError(t, err)

	assert.Equal(t, analysis.ProviderAnthropic, result.Source)
	assert.Equal(t, "a clear explanation", result.ExplanationText)
	assert.Equal(t, 0.95, result.Confidence)
	assert.False(t, result.Cached)
	assert.Equal(t, 1, remote.calls)
}

func TestExplainAdvancesPastFailures(t *testing.T) {
	failing := &stubProvider{id: analysis.ProviderAnthropic, available: true, needsCred: true, err: errors.New("upstream 500")}
	empty := &stubProvider{id: analysis.ProviderOpenAI, available: true, needsCred: true, reply: "   "}
	working := &stubProvider{id: analysis.ProviderGemini, available: true, needsCred: true, reply: "explained"}
	orch := newTestOrchestrator(t, testConfig(), failing, empty, working)

	result, err := orch.Explain(context.Background(), analysis.Request{Text: sampleText})
	require.NoError(t, err)

	assert.Equal(t, analysis.ProviderGemini, result.Source)
	assert.Equal(t, 0.91, result.Confidence)
	assert.Equal(t, 1, failing.calls, "each failed provider is tried exactly once")
	assert.Equal(t, 1, empty.calls, "blank replies count as failures")
	assert.Equal(t, 1, working.calls)
}

func TestExplainSkipsUnavailableProviders(t *testing.T) {
	offline := &stubProvider{id: analysis.ProviderBuiltIn, available: false, reply: "never"}
	orch := newTestOrchestrator(t, testConfig(), offline)

	result, err := orch.Explain(context.Background(), analysis.Request{Text: sampleText})
	require.NoError(t, err)

	assert.Equal(t, analysis.ProviderLocal, result.Source)
	assert.Equal(t, 0, offline.calls)
}

func TestExplainFallsBackToLocalAnalyzer(t *testing.T) {
	failing := &stubProvider{id: analysis.ProviderAnthropic, available: true, needsCred: true, err: errors.New("down")}
	orch := newTestOrchestrator(t, testConfig(), failing)

	result, err := orch.Explain(context.Background(), analysis.Request{Text: sampleText})
	require.NoError(t, err)

	assert.Equal(t, analysis.ProviderLocal, result.Source)
	assert.NotEmpty(t, result.ExplanationText)
	assert.Contains(t, result.Topics, "Interest Rates")
}

func TestExplainCloudDisabledSkipsCredentialedProviders(t *testing.T) {
	cfg := testConfig()
	cfg.CloudEnabled = false

	credentialed := &stubProvider{id: analysis.ProviderAnthropic, available: true, needsCred: true, reply: "cloud"}
	builtin := &stubProvider{id: analysis.ProviderBuiltIn, available: true, reply: "on device"}
	orch := newTestOrchestrator(t, cfg, credentialed, builtin)

	result, err := orch.Explain(context.Background(), analysis.Request{Text: sampleText})
	require.NoError(t, err)

	assert.Equal(t, analysis.ProviderBuiltIn, result.Source)
	assert.Equal(t, 0, credentialed.calls, "credentialed providers are skipped with cloud disabled")
	assert.Equal(t, 1, builtin.calls)
}

func TestExplainPreferredProviderGoesFirst(t *testing.T) {
	cfg := testConfig()
	cfg.PreferredProvider = "gemini"

	anthropic := &stubProvider{id: analysis.ProviderAnthropic, available: true, needsCred: true, reply: "a"}
	gemini := &stubProvider{id: analysis.ProviderGemini, available: true, needsCred: true, reply: "g"}
	orch := newTestOrchestrator(t, cfg, anthropic, gemini)

	result, err := orch.Explain(context.Background(), analysis.Request{Text: sampleText})
	require.NoError(t, err)

	assert.Equal(t, analysis.ProviderGemini, result.Source)
	assert.Equal(t, 0, anthropic.calls)
	assert.Equal(t, 1, gemini.calls, "preferred provider is tried once, not twice")
}

func TestExplainServesSecondCallFromCache(t *testing.T) {
	remote := &stubProvider{id: analysis.ProviderAnthropic, available: true, needsCred: true, reply: "cached answer"}
	orch := newTestOrchestrator(t, testConfig(), remote)

	first, err := orch.Explain(context.Background(), analysis.Request{Text: sampleText})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := orch.Explain(context.Background(), analysis.Request{Text: sampleText})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.ExplanationText, second.ExplanationText)
	assert.LessOrEqual(t, second.ProcessingTimeMs, first.ProcessingTimeMs)
	assert.Equal(t, 1, remote.calls, "cache hit must not reach the provider")
}

func TestExplainForceRefreshBypassesCache(t *testing.T) {
	remote := &stubProvider{id: analysis.ProviderAnthropic, available: true, needsCred: true, reply: "fresh"}
	orch := newTestOrchestrator(t, testConfig(), remote)

	_, err := orch.Explain(context.Background(), analysis.Request{Text: sampleText})
	require.NoError(t, err)

	result, err := orch.Explain(context.Background(), analysis.Request{
		Text:    sampleText,
		Options: analysis.Options{ForceRefresh: true},
	})
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.Equal(t, 2, remote.calls)
}

func TestProvidersReportsChainOrder(t *testing.T) {
	builtin := &stubProvider{id: analysis.ProviderBuiltIn, available: false}
	remote := &stubProvider{id: analysis.ProviderAnthropic, available: true, needsCred: true}
	orch := newTestOrchestrator(t, testConfig(), builtin, remote)

	descriptors := orch.Providers()
	require.Len(t, descriptors, 3)

	assert.Equal(t, analysis.ProviderBuiltIn, descriptors[0].ID)
	assert.False(t, descriptors[0].Available)
	assert.Equal(t, analysis.ProviderAnthropic, descriptors[1].ID)
	assert.True(t, descriptors[1].RequiresCredential)
	assert.Equal(t, analysis.ProviderLocal, descriptors[2].ID)
}

func TestCacheKey(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		a := CacheKey("Interest  Rates\nRose", analysis.ComplexityIntermediate)
		b := CacheKey("interest rates rose", analysis.ComplexityIntermediate)
		assert.Equal(t, a, b)
	})

	t.Run("level is part of the key", func(t *testing.T) {
		a := CacheKey("interest rates rose", analysis.ComplexityBeginner)
		b := CacheKey("interest rates rose", analysis.ComplexityAdvanced)
		assert.NotEqual(t, a, b)
	})

	t.Run("hex encoded sha-256", func(t *testing.T) {
		key := CacheKey("interest rates rose", analysis.ComplexityIntermediate)
		assert.Len(t, key, 64)
	})
}
