package rules

import (
	"strings"
	"unicode/utf8"

	"github.com/ldi/mission/pkg/models"
)

// Analyze classifies the perceived effort of a task from its title and
// description. Pure and case-insensitive: both inputs are lowercased and
// concatenated, then tiers are checked most severe first. Empty text never
// reaches a tier and yields the default label.
func (rs *Ruleset) Analyze(title, description string) models.Difficulty {
	text := strings.TrimSpace(strings.ToLower(title) + " " + strings.ToLower(description))
	if text == "" {
		return rs.Default
	}

	length := utf8.RuneCountInString(text)
	for _, tier := range rs.Tiers {
		if tier.matches(text, length) {
			return tier.Label
		}
	}
	return rs.Default
}

func (t *Tier) matches(text string, length int) bool {
	for _, kw := range t.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	if t.LongerThan > 0 && length > t.LongerThan {
		return true
	}
	if t.ShorterThan > 0 && length < t.ShorterThan {
		return true
	}
	return false
}
