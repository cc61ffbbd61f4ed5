// Package local implements the heuristic analyzer: a deterministic, pure
// function of the input text. It is the always-available last member of the
// provider chain and never fails.
package local

import (
	"fmt"
	"strings"
	"time"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
)

// Analyzer runs the keyword/entity/sentiment/topic pipeline over raw text.
type Analyzer struct{}

// New creates a heuristic analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze produces a complete analysis result from the input text alone.
func (a *Analyzer) Analyze(text string) *analysis.Result {
	start := time.Now()

	tokens := Tokenize(text)
	terms := WeightTerms(tokens)
	entities := ExtractEntities(text)
	sentiment := ScoreSentiment(tokens)
	topics := ExtractTopics(terms)
	summary := Summarize(text, terms)
	confidence := scoreConfidence(text, terms, entities)

	return &analysis.Result{
		ExplanationText:  buildExplanation(terms, entities, topics, summary, confidence),
		Confidence:       confidence,
		Source:           analysis.ProviderLocal,
		Complexity:       ClassifyComplexity(text),
		Sentiment:        sentiment,
		Topics:           topics,
		Entities:         entities,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		AnalyzedAt:       time.Now(),
	}
}

// ScoreSentiment counts lexicon hits. A side wins only if it beats the
// other by more than max(1, 5% of the token count).
func ScoreSentiment(tokens []string) analysis.Sentiment {
	positive, negative := 0, 0
	for _, tok := range tokens {
		if positiveWords[tok] {
			positive++
		}
		if negativeWords[tok] {
			negative++
		}
	}

	margin := len(tokens) / 20
	if margin < 1 {
		margin = 1
	}

	switch {
	case positive-negative > margin:
		return analysis.SentimentPositive
	case negative-positive > margin:
		return analysis.SentimentNegative
	default:
		return analysis.SentimentNeutral
	}
}

// ClassifyComplexity scans the input against the three vocabulary tiers.
// Any advanced term forces advanced, intermediate outranks beginner.
func ClassifyComplexity(text string) analysis.Complexity {
	lowered := strings.ToLower(text)

	for _, term := range advancedTerms {
		if strings.Contains(lowered, term) {
			return analysis.ComplexityAdvanced
		}
	}
	for _, term := range intermediateTerms {
		if strings.Contains(lowered, term) {
			return analysis.ComplexityIntermediate
		}
	}
	return analysis.ComplexityBeginner
}

// ExtractTopics maps top-weighted term stems to the fixed topic vocabulary.
// The first matching rule per term wins; duplicates collapse.
func ExtractTopics(terms []Term) []string {
	var topics []string
	seen := make(map[string]bool)

	for _, term := range terms {
		for _, rule := range topicRules {
			if strings.Contains(term.Stem, rule.stem) {
				if !seen[rule.topic] {
					seen[rule.topic] = true
					topics = append(topics, rule.topic)
				}
				break
			}
		}
	}
	return topics
}

// scoreConfidence combines capped term-weight, entity, and diversity
// signals with a flat bonus for high-value domain terms.
func scoreConfidence(text string, terms []Term, entities []analysis.Entity) float64 {
	confidence := 0.3

	if len(terms) > 0 {
		var sum float64
		for _, t := range terms {
			sum += t.Weight
		}
		avg := sum / float64(len(terms))
		contribution := avg / 10
		if contribution > 0.3 {
			contribution = 0.3
		}
		confidence += contribution
	}

	entityContribution := 0.05 * float64(len(entities))
	if entityContribution > 0.2 {
		entityContribution = 0.2
	}
	confidence += entityContribution

	types := make(map[analysis.EntityType]bool)
	for _, e := range entities {
		types[e.Type] = true
	}
	diversity := 0.05 * float64(len(types))
	if diversity > 0.15 {
		diversity = 0.15
	}
	confidence += diversity

	lowered := strings.ToLower(text)
	for _, term := range highValueTerms {
		if strings.Contains(lowered, term) {
			confidence += 0.1
			break
		}
	}

	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// buildExplanation turns the pipeline output into user-facing prose.
func buildExplanation(terms []Term, entities []analysis.Entity, topics []string, summary string, confidence float64) string {
	if len(terms) == 0 && len(entities) == 0 {
		return "No recognized financial terminology was found in the selected text."
	}

	var b strings.Builder

	if len(topics) > 0 {
		b.WriteString(fmt.Sprintf("This text discusses %s.", joinNatural(topics)))
	} else {
		b.WriteString("This text contains general financial terminology.")
	}

	if len(entities) > 0 {
		counts := make(map[analysis.EntityType]int)
		for _, e := range entities {
			counts[e.Type]++
		}
		var parts []string
		if n := counts[analysis.EntityCurrency]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d monetary amount(s)", n))
		}
		if n := counts[analysis.EntityPercentage]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d percentage figure(s)", n))
		}
		if n := counts[analysis.EntityInstitution]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d named institution(s)", n))
		}
		b.WriteString(fmt.Sprintf(" It mentions %s.", joinNatural(parts)))
	}

	if summary != "" {
		b.WriteString(" Key sentences: ")
		b.WriteString(summary)
	}

	switch {
	case confidence >= 0.75:
		b.WriteString(" This analysis is based on strong matches against known financial vocabulary.")
	case confidence >= 0.5:
		b.WriteString(" This analysis is based on partial matches against known financial vocabulary.")
	default:
		b.WriteString(" This analysis found only weak matches, so treat it as a rough guide.")
	}

	return b.String()
}

func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
