package local

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// punctRe matches everything that is not a letter, digit, whitespace, or a
// currency/percent symbol.
var punctRe = regexp.MustCompile(`[^a-z0-9$%€£\s]`)

var digitsRe = regexp.MustCompile(`^[0-9]+$`)

// Tokenize lowercases the text, strips punctuation (keeping currency and
// percent symbols), drops short tokens, pure digits, and stop-words, and
// applies the suffix-stripping rules. The result is the stem stream the
// rest of the pipeline operates on.
func Tokenize(text string) []string {
	cleaned := punctRe.ReplaceAllString(strings.ToLower(text), " ")

	var tokens []string
	for _, raw := range strings.Fields(cleaned) {
		if len(raw) <= 2 || digitsRe.MatchString(raw) || stopWords[raw] {
			continue
		}
		tokens = append(tokens, stem(raw))
	}
	return tokens
}

// stem applies the first matching suffix rule. Very short stems are left
// alone so "bonds" becomes "bond" but "yes" stays "yes".
func stem(token string) string {
	for _, rule := range suffixRules {
		if strings.HasSuffix(token, rule.suffix) && len(token) > len(rule.suffix)+2 {
			return token[:len(token)-len(rule.suffix)] + rule.replace
		}
	}
	return token
}

// Term is a weighted stem.
type Term struct {
	Stem   string
	Count  int
	Weight float64
}

const topTermCount = 10

// WeightTerms computes tf × idf weights over the document's own token
// distribution and returns the top terms by weight. Terms occurring fewer
// than twice are dropped unless nothing repeats, in which case single
// occurrences are kept so short selections still yield terms.
func WeightTerms(tokens []string) []Term {
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, tok := range tokens {
		counts[tok]++
	}

	n := float64(len(tokens))
	minCount := 2
	repeated := false
	for _, c := range counts {
		if c >= 2 {
			repeated = true
			break
		}
	}
	if !repeated {
		minCount = 1
	}

	var terms []Term
	for stem, count := range counts {
		if count < minCount {
			continue
		}
		idf := math.Log(1 + n/float64(count))
		terms = append(terms, Term{
			Stem:   stem,
			Count:  count,
			Weight: float64(count) * idf,
		})
	}

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Weight != terms[j].Weight {
			return terms[i].Weight > terms[j].Weight
		}
		return terms[i].Stem < terms[j].Stem
	})

	if len(terms) > topTermCount {
		terms = terms[:topTermCount]
	}
	return terms
}
