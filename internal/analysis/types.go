// Package analysis defines the data model shared by the orchestrator,
// providers, cache, and transport. Results are value objects: they are
// serialized across the channel boundary and never shared by reference.
package analysis

import "time"

// ProviderID identifies an explanation source.
type ProviderID string

const (
	ProviderBuiltIn   ProviderID = "builtin"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderOpenAI    ProviderID = "openai"
	ProviderGemini    ProviderID = "gemini"
	ProviderLocal     ProviderID = "local"
)

// Complexity is the vocabulary tier detected in the input text.
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

// Sentiment is the lexicon-based polarity of the input text.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// EntityType categorizes an extracted entity.
type EntityType string

const (
	EntityCurrency    EntityType = "currency"
	EntityPercentage  EntityType = "percentage"
	EntityInstitution EntityType = "institution"
)

// Entity is a span of financial interest found in the input.
type Entity struct {
	Text  string     `json:"text"`
	Type  EntityType `json:"type"`
	Value float64    `json:"value,omitempty"`
}

// Options tunes a single analysis request.
type Options struct {
	ForceRefresh bool       `json:"force_refresh,omitempty"`
	Level        Complexity `json:"level,omitempty"`
}

// Request is one analysis request as seen by the orchestrator.
type Request struct {
	Text          string  `json:"text"`
	PageContext   string  `json:"page_context,omitempty"`
	CorrelationID string  `json:"correlation_id"`
	Options       Options `json:"options,omitempty"`
}

// Result is the outcome of one analysis. Immutable once produced.
type Result struct {
	ExplanationText  string     `json:"explanation_text"`
	Confidence       float64    `json:"confidence"`
	Source           ProviderID `json:"source"`
	Complexity       Complexity `json:"complexity"`
	Sentiment        Sentiment  `json:"sentiment,omitempty"`
	Topics           []string   `json:"topics,omitempty"`
	Entities         []Entity   `json:"entities,omitempty"`
	Cached           bool       `json:"cached"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
	AnalyzedAt       time.Time  `json:"analyzed_at"`
}

// Descriptor reports a provider's current availability. Recomputed whenever
// credentials change; never persisted.
type Descriptor struct {
	ID                 ProviderID `json:"id"`
	Available          bool       `json:"available"`
	RequiresCredential bool       `json:"requires_credential"`
}
