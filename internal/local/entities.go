package local

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
)

var (
	currencyRe = regexp.MustCompile(`[$€£]\s?([0-9][0-9,]*(?:\.[0-9]+)?)\s?(million|billion|trillion)?`)

	percentageRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s?%`)

	institutionRe = regexp.MustCompile(`\b([A-Z][A-Za-z]+(?:\s[A-Z][A-Za-z]+)*\s(?:Bank|Corp|Corporation|Inc|LLC|Ltd|Group|Holdings|Capital|Fund|Trust|Reserve|Exchange))\b`)
)

var magnitudes = map[string]float64{
	"million":  1e6,
	"billion":  1e9,
	"trillion": 1e12,
}

// ExtractEntities scans the raw (non-lowercased) text for currency amounts,
// percentages, and named institutions.
func ExtractEntities(text string) []analysis.Entity {
	var entities []analysis.Entity

	for _, m := range currencyRe.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if mag, ok := magnitudes[m[2]]; ok {
			value *= mag
		}
		entities = append(entities, analysis.Entity{
			Text:  strings.TrimSpace(m[0]),
			Type:  analysis.EntityCurrency,
			Value: value,
		})
	}

	for _, m := range percentageRe.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		entities = append(entities, analysis.Entity{
			Text:  strings.ReplaceAll(m[0], " ", ""),
			Type:  analysis.EntityPercentage,
			Value: value,
		})
	}

	for _, m := range institutionRe.FindAllStringSubmatch(text, -1) {
		entities = append(entities, analysis.Entity{
			Text: m[1],
			Type: analysis.EntityInstitution,
		})
	}

	return entities
}
