package local

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
)

func TestAnalyze(t *testing.T) {
	analyzer := New()

	t.Run("rate announcement", func(t *testing.T) {
		result := analyzer.Analyze("The Federal Reserve raised interest rates by 0.25%")
		require.NotNil(t, result)

		assert.Equal(t, analysis.ProviderLocal, result.Source)
		assert.Equal(t, analysis.ComplexityIntermediate, result.Complexity)
		assert.Equal(t, analysis.SentimentNeutral, result.Sentiment)
		assert.Contains(t, result.Topics, "Interest Rates")
		assert.Contains(t, result.Topics, "Monetary Policy")

		var pct *analysis.Entity
		for i := range result.Entities {
			if result.Entities[i].Type == analysis.EntityPercentage {
				pct = &result.Entities[i]
			}
		}
		require.NotNil(t, pct)
		assert.Equal(t, "0.25%", pct.Text)
		assert.Equal(t, 0.25, pct.Value)

		assert.Greater(t, result.Confidence, 0.5)
		assert.LessOrEqual(t, result.Confidence, 1.0)
		assert.NotEmpty(t, result.ExplanationText)
		assert.False(t, result.AnalyzedAt.IsZero())
	})

	t.Run("no financial vocabulary", func(t *testing.T) {
		result := analyzer.Analyze("so it is as it is so it be")
		require.NotNil(t, result)
		assert.Equal(t, "No recognized financial terminology was found in the selected text.", result.ExplanationText)
		assert.Empty(t, result.Topics)
	})

	t.Run("deterministic", func(t *testing.T) {
		text := "Mortgage rates climbed while bond yields held steady"
		first := analyzer.Analyze(text)
		second := analyzer.Analyze(text)
		assert.Equal(t, first.ExplanationText, second.ExplanationText)
		assert.Equal(t, first.Confidence, second.Confidence)
		assert.Equal(t, first.Topics, second.Topics)
	})
}

func TestScoreSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want analysis.Sentiment
	}{
		{"positive", "shares surged and profits exceeded expectations with strong growth", analysis.SentimentPositive},
		{"negative", "stocks plunged after the company missed estimates and warned of losses", analysis.SentimentNegative},
		{"neutral", "the committee met on tuesday to review quarterly figures", analysis.SentimentNeutral},
		{"balanced counts stay neutral", "profits rose but losses dropped too", analysis.SentimentNeutral},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreSentiment(Tokenize(tc.text)))
		})
	}
}

func TestClassifyComplexity(t *testing.T) {
	tests := []struct {
		name string
		text string
		want analysis.Complexity
	}{
		{"beginner", "how to save money with a bank account", analysis.ComplexityBeginner},
		{"intermediate", "dividend payouts depend on company earnings", analysis.ComplexityIntermediate},
		{"advanced", "the desk priced a credit default swap on the tranche", analysis.ComplexityAdvanced},
		{"advanced outranks intermediate", "bond volatility spiked across the yield curve", analysis.ComplexityAdvanced},
		{"plain text", "we went to the shop on sunday", analysis.ComplexityBeginner},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyComplexity(tc.text))
		})
	}
}

func TestExtractTopics(t *testing.T) {
	t.Run("first rule wins and duplicates collapse", func(t *testing.T) {
		terms := WeightTerms(Tokenize("interest interest rates rates inflation inflation"))
		topics := ExtractTopics(terms)

		assert.Contains(t, topics, "Interest Rates")
		assert.Contains(t, topics, "Inflation")

		seen := make(map[string]int)
		for _, topic := range topics {
			seen[topic]++
		}
		for topic, n := range seen {
			assert.Equal(t, 1, n, "topic %q repeated", topic)
		}
	})

	t.Run("unmapped stems yield nothing", func(t *testing.T) {
		terms := WeightTerms(Tokenize("weather weather forecast forecast"))
		assert.Empty(t, ExtractTopics(terms))
	})
}
