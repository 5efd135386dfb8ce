package rules

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	embedrules "github.com/ldi/mission/embed/rules"
	"github.com/ldi/mission/pkg/models"
)

// Tier is one difficulty classification rule. A tier matches when the
// evaluation text contains any keyword as a substring, or when the text
// length crosses the tier's threshold (LongerThan for severe tiers,
// ShorterThan for easy ones). A zero threshold is unused.
type Tier struct {
	Label       models.Difficulty `toml:"label"`
	Keywords    []string          `toml:"keywords"`
	LongerThan  int               `toml:"longer_than"`
	ShorterThan int               `toml:"shorter_than"`
}

// Ruleset holds the classification configuration: difficulty tiers in
// severity order (most severe first) and the keyword-to-icon table.
type Ruleset struct {
	Default     models.Difficulty `toml:"default"`
	DefaultIcon string            `toml:"default_icon"`
	Tiers       []Tier            `toml:"tier"`
	Icons       map[string]string `toml:"icons"`
}

// Load returns the ruleset from the given path, or the embedded defaults if
// the path is empty or the file does not exist.
func Load(path string) (*Ruleset, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read rules file: %w", err)
			}
			return parse(string(data))
		}
	}
	return parse(embedrules.Defaults)
}

func parse(data string) (*Ruleset, error) {
	rs := &Ruleset{}
	if _, err := toml.Decode(data, rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := rs.validate(); err != nil {
		return nil, err
	}
	rs.normalize()
	return rs, nil
}

func (rs *Ruleset) validate() error {
	if !rs.Default.Valid() {
		return fmt.Errorf("invalid default difficulty: %q", rs.Default)
	}
	if rs.DefaultIcon == "" {
		return fmt.Errorf("default_icon must be set")
	}
	for _, tier := range rs.Tiers {
		if !tier.Label.Valid() {
			return fmt.Errorf("invalid tier label: %q", tier.Label)
		}
		if len(tier.Keywords) == 0 && tier.LongerThan == 0 && tier.ShorterThan == 0 {
			return fmt.Errorf("tier %q has no keywords and no length threshold", tier.Label)
		}
	}
	return nil
}

// normalize lowercases all keyword tables so matching stays case-insensitive
// regardless of how the rules file was written.
func (rs *Ruleset) normalize() {
	for i := range rs.Tiers {
		for j, kw := range rs.Tiers[i].Keywords {
			rs.Tiers[i].Keywords[j] = strings.ToLower(kw)
		}
	}
	icons := make(map[string]string, len(rs.Icons))
	for kw, icon := range rs.Icons {
		icons[strings.ToLower(kw)] = icon
	}
	rs.Icons = icons
}
