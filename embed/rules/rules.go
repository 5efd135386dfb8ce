package rules

import _ "embed"

// Defaults is the built-in classification ruleset: difficulty tiers and the
// keyword-to-icon table.
//
//go:embed defaults.toml
var Defaults string
