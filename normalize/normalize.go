// Package normalize rewrites dictated phrases into technical text, turning
// spoken symbol names into the symbols themselves ("open paren" -> "(").
package normalize

import (
	"regexp"
	"strings"
)

// Rule maps a spoken phrase to its replacement. Phrases match on word
// boundaries only.
type Rule struct {
	Phrase        string
	Replacement   string
	CaseSensitive bool
}

type compiledRule struct {
	re          *regexp.Regexp
	replacement string
}

// Normalizer applies a fixed rule table to transcribed text. It is
// immutable after construction and safe for concurrent use.
type Normalizer struct {
	rules []compiledRule
}

// New compiles the given rules in order. Longer phrases should precede
// their prefixes ("open paren" before "open") so they win.
func New(rules []Rule) *Normalizer {
	n := &Normalizer{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		flags := ""
		if !r.CaseSensitive {
			flags = "(?i)"
		}
		re, err := regexp.Compile(flags + `\b` + regexp.QuoteMeta(r.Phrase) + `\b`)
		if err != nil {
			continue
		}
		n.rules = append(n.rules, compiledRule{re: re, replacement: r.Replacement})
	}
	return n
}

// Default returns a normalizer loaded with the built-in dictation rules.
func Default() *Normalizer {
	return New(defaultRules)
}

// Apply runs every rule over text and tidies the result.
func (n *Normalizer) Apply(text string) string {
	if text == "" {
		return text
	}
	out := text
	for _, r := range n.rules {
		out = r.re.ReplaceAllString(out, r.replacement)
	}
	return postProcess(out)
}

var (
	// squeeze "config . json" to "config.json"
	extSpacing = regexp.MustCompile(`\s*\.\s*([a-zA-Z]{1,4})\b`)
	// join runs of spoken single digits, "1 2 3" -> "123"
	digitRuns  = regexp.MustCompile(`\b\d( \d)+\b`)
	multiSpace = regexp.MustCompile(`\s{2,}`)
)

func postProcess(text string) string {
	text = extSpacing.ReplaceAllString(text, ".$1")
	text = digitRuns.ReplaceAllStringFunc(text, func(run string) string {
		return strings.ReplaceAll(run, " ", "")
	})
	text = multiSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
