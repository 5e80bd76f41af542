// Package textnorm canonicalizes merchant text before classification.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultAliases maps merchant brand tokens to generic descriptions.
var DefaultAliases = map[string]string{
	"starbucks": "coffee shop",
	"mcdonalds": "fast food",
	"amazon":    "online shopping",
	"flipkart":  "online shopping",
	"uber":      "ride sharing",
	"ola":       "ride sharing",
	"netflix":   "streaming service",
	"hotstar":   "streaming service",
	"paytm":     "digital payment",
	"gpay":      "digital payment",
	"phonepe":   "digital payment",
}

// Normalizer folds case, strips diacritics and punctuation, and expands aliases.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	aliases map[string]string
	keep    map[rune]bool
}

// New creates a Normalizer with the given alias map. A nil map disables aliasing.
func New(aliases map[string]string) *Normalizer {
	folded := make(map[string]string, len(aliases))
	for k, v := range aliases {
		folded[strings.ToLower(k)] = v
	}
	return &Normalizer{
		aliases: folded,
		keep:    map[rune]bool{'&': true},
	}
}

var defaultNormalizer = New(DefaultAliases)

// Normalize canonicalizes s with the default alias map.
func Normalize(s string) string {
	return defaultNormalizer.Normalize(s)
}

// Normalize returns the canonical form of s. It is total: any input, including
// the empty string, yields a (possibly empty) string.
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	// Casers and transform chains carry state, so build them per call.
	folded := cases.Fold().String(s)
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripper, folded)
	if err != nil {
		plain = folded
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || n.keep[r] {
			return r
		}
		return ' '
	}, plain)

	words := strings.Fields(cleaned)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if alias, ok := n.aliases[w]; ok {
			out = append(out, alias)
			continue
		}
		out = append(out, w)
	}

	return strings.Join(out, " ")
}

// WordCount returns the number of whitespace-separated words in normalized text.
func WordCount(normalized string) int {
	return len(strings.Fields(normalized))
}
