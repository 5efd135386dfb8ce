package rules

import "strings"

// IconFor picks an illustrative icon for a task. Unlike Analyze, matching is
// exact-word: the text is split on whitespace and the first word (by position)
// present in the icon table wins. No match returns the default icon.
func (rs *Ruleset) IconFor(title, description string) string {
	text := strings.ToLower(title) + " " + strings.ToLower(description)
	for _, word := range strings.Fields(text) {
		if icon, ok := rs.Icons[word]; ok {
			return icon
		}
	}
	return rs.DefaultIcon
}
