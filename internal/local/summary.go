package local

import (
	"regexp"
	"sort"
	"strings"
)

const (
	// summaryMinLength is the input length below which no summary is built.
	summaryMinLength = 400

	summaryKeep = 3

	minSentenceTokens = 8
	maxSentenceTokens = 40
)

var sentenceSplitRe = regexp.MustCompile(`[.!?]+\s+`)

type scoredSentence struct {
	index int
	text  string
	score float64
}

// Summarize builds an extractive summary: sentences are scored by the
// average weight of their tokens plus bonuses for top terms and position,
// the best are kept, and the kept sentences are re-sorted into original
// order. Returns "" for texts below the length threshold.
func Summarize(text string, terms []Term) string {
	if len(text) < summaryMinLength {
		return ""
	}

	sentences := splitSentences(text)
	if len(sentences) <= summaryKeep {
		return ""
	}

	weights := make(map[string]float64, len(terms))
	topStems := make(map[string]bool, len(terms))
	for _, t := range terms {
		weights[t.Stem] = t.Weight
		topStems[t.Stem] = true
	}

	scored := make([]scoredSentence, 0, len(sentences))
	for i, sentence := range sentences {
		tokens := Tokenize(sentence)

		var sum float64
		topHits := 0
		for _, tok := range tokens {
			sum += weights[tok]
			if topStems[tok] {
				topHits++
			}
		}

		score := 0.0
		if len(tokens) > 0 {
			score = sum / float64(len(tokens))
		}
		score += 0.5 * float64(topHits)
		if i == 0 || i == len(sentences)-1 {
			score += 0.25
		}
		if len(tokens) < minSentenceTokens || len(tokens) > maxSentenceTokens {
			score -= 0.5
		}

		scored = append(scored, scoredSentence{index: i, text: sentence, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	kept := scored[:summaryKeep]

	sort.Slice(kept, func(i, j int) bool {
		return kept[i].index < kept[j].index
	})

	parts := make([]string, 0, len(kept))
	for _, s := range kept {
		parts = append(parts, strings.TrimSpace(s.text))
	}
	return strings.Join(parts, " ")
}

func splitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceSplitRe.Split(strings.TrimSpace(text), -1) {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
