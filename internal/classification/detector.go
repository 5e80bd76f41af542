// Package classification provides keyword-based category rules and the fraud rule score.
package classification

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Fallback category constants.
const (
	CategorySuspicious = "Suspicious"
	CategoryOther      = "Other"
)

// Fallback confidence parameters.
const (
	NoMatchConfidence = 0.5
	baseConfidence    = 0.6
	perHitConfidence  = 0.1
	maxConfidence     = 0.95
)

// Rule is an ordered keyword set for one category.
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// compiledRule holds a rule with its keywords split into tokens and phrases.
type compiledRule struct {
	tokens  map[string]struct{}
	phrases []string
	Rule
}

// Match is the result of a keyword classification.
type Match struct {
	Category   string
	Hits       int
	Confidence float64
}

// Detector implements keyword-based transaction categorization.
// Rules are evaluated in declaration order; the first rule with a hit wins.
// A Detector is immutable once built.
type Detector struct {
	fingerprint string
	rules       []compiledRule
}

// NewDetector creates a detector with the given rules.
func NewDetector(rules []Rule) (*Detector, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Detector{rules: compiled, fingerprint: fingerprint(compiled)}, nil
}

// fingerprint hashes the compiled rules. Keyword order within a rule does not matter.
func fingerprint(rules []compiledRule) string {
	h := sha256.New()
	for _, r := range rules {
		tokens := make([]string, 0, len(r.tokens))
		for t := range r.tokens {
			tokens = append(tokens, t)
		}
		sort.Strings(tokens)
		phrases := append([]string(nil), r.phrases...)
		sort.Strings(phrases)

		fmt.Fprintf(h, "%s\x00%s\x00%s\x01", r.Category, strings.Join(tokens, ","), strings.Join(phrases, ","))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// NewDefaultDetector creates a detector with DefaultRules.
func NewDefaultDetector() *Detector {
	d, err := NewDetector(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("default rules are invalid: %v", err))
	}
	return d
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	seen := make(map[string]bool, len(rules))

	for i, r := range rules {
		name := strings.TrimSpace(r.Category)
		if name == "" {
			return nil, fmt.Errorf("rule %d: %w", i, ErrEmptyCategory)
		}
		if seen[name] {
			return nil, fmt.Errorf("rule %q: %w", name, ErrDuplicateCategory)
		}
		seen[name] = true

		cr := compiledRule{
			Rule:   Rule{Category: name, Keywords: r.Keywords},
			tokens: make(map[string]struct{}),
		}
		for _, kw := range r.Keywords {
			kw = strings.Join(strings.Fields(strings.ToLower(kw)), " ")
			if kw == "" {
				continue
			}
			if strings.Contains(kw, " ") {
				cr.phrases = append(cr.phrases, kw)
				continue
			}
			cr.tokens[kw] = struct{}{}
		}
		if len(cr.tokens) == 0 && len(cr.phrases) == 0 {
			return nil, fmt.Errorf("rule %q: %w", name, ErrNoKeywords)
		}
		compiled = append(compiled, cr)
	}

	return compiled, nil
}

// Classify returns the first rule with at least one keyword hit in normalized text,
// or Other at NoMatchConfidence.
func (d *Detector) Classify(normalized string) Match {
	words := strings.Fields(normalized)
	padded := " " + strings.Join(words, " ") + " "

	for _, rule := range d.rules {
		hits := rule.hits(words, padded)
		if hits == 0 {
			continue
		}
		return Match{
			Category:   rule.Category,
			Hits:       hits,
			Confidence: minFloat(maxConfidence, baseConfidence+perHitConfidence*float64(hits)),
		}
	}

	return Match{Category: CategoryOther, Confidence: NoMatchConfidence}
}

// hits counts distinct keywords of the rule present in the text.
func (r compiledRule) hits(words []string, padded string) int {
	found := make(map[string]struct{})
	for _, w := range words {
		if _, ok := r.tokens[w]; ok {
			found[w] = struct{}{}
		}
	}
	count := len(found)
	for _, phrase := range r.phrases {
		if strings.Contains(padded, " "+phrase+" ") {
			count++
		}
	}
	return count
}

// Categories returns the rule categories in evaluation order.
func (d *Detector) Categories() []string {
	names := make([]string, len(d.rules))
	for i, r := range d.rules {
		names[i] = r.Category
	}
	return names
}

// GetRuleCount returns the number of loaded rules.
func (d *Detector) GetRuleCount() int {
	return len(d.rules)
}

// Fingerprint identifies the rule set. Detectors that can disagree on some
// text have different fingerprints.
func (d *Detector) Fingerprint() string {
	return d.fingerprint
}

// minFloat returns the minimum of two float64 values.
func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
