// Package title normalizes free-text titles for fuzzy matching across delivery providers.
package title

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var (
	punctuation = regexp.MustCompile(`['’":\-!?.,/\\_]`)
	noiseTokens = regexp.MustCompile(`(?i)\b(season|part|cour|special|ova|ona|tv|series|dub|sub)\b`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Normalize produces a cleaner query string for a provider's search index.
// It lowercases, replaces punctuation with spaces, removes whole-word noise
// tokens and collapses whitespace. The result is not a unique key, only a
// better probe. Empty input yields an empty string.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)
	s = punctuation.ReplaceAllString(s, " ")
	s = noiseTokens.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Variants builds the ordered list of title variants used by the provider
// waterfall: primary title first, then native and localized variants, then
// synonyms. Empty entries are dropped and duplicates keep their first position.
func Variants(primary, native, english string, synonyms []string) []string {
	all := append([]string{primary, native, english}, synonyms...)
	all = lo.Filter(all, func(v string, _ int) bool { return v != "" })
	return lo.Uniq(all)
}
