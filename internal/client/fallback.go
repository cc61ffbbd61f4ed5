package client

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
	"github.com/GALIB-Dev/AI-Extension/internal/protocol"
)

// inlineGlossary is the caller's last-resort vocabulary: a compact subset
// of the host analyzer's lexicon, small enough to scan synchronously.
var inlineGlossary = map[string]string{
	"interest":  "the cost of borrowing money, or the return on savings",
	"inflation": "a general rise in prices that reduces purchasing power",
	"dividend":  "a share of profits a company pays to its shareholders",
	"mortgage":  "a loan secured against property",
	"stock":     "a share of ownership in a company",
	"bond":      "a loan to a company or government that pays interest",
	"equity":    "the ownership value in an asset after debts",
	"yield":     "the income an investment produces, as a percentage",
	"portfolio": "the collection of investments someone holds",
	"recession": "a period of shrinking economic activity",
	"asset":     "anything of value that is owned",
	"liability": "money that is owed",
	"credit":    "borrowed money, or the ability to borrow",
	"fund":      "a pool of money invested on behalf of many people",
}

// inlineScan is the single-pass keyword scan run when both transport
// paths have failed. Returns nil when no financial vocabulary is present,
// in which case the transport error is surfaced instead.
func inlineScan(text, correlationID string) *protocol.Response {
	start := time.Now()
	lowered := strings.ToLower(text)

	var found []string
	for term := range inlineGlossary {
		if strings.Contains(lowered, term) {
			found = append(found, term)
		}
	}
	if len(found) == 0 {
		return nil
	}
	sort.Strings(found)

	glosses := make([]string, 0, len(found))
	for _, term := range found {
		glosses = append(glosses, fmt.Sprintf("%s: %s", term, inlineGlossary[term]))
	}

	explanation := fmt.Sprintf(
		"The analysis service is unreachable, so this is a quick offline summary. Recognized terms: %s.",
		strings.Join(glosses, "; "),
	)

	result := &analysis.Result{
		ExplanationText:  explanation,
		Confidence:       0.4,
		Source:           analysis.ProviderLocal,
		Complexity:       analysis.ComplexityBeginner,
		Topics:           found,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		AnalyzedAt:       time.Now(),
	}
	return protocol.FromResult(correlationID, result)
}
