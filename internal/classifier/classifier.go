// Package classifier assigns categories to spending rows, first from an
// ordered list of pattern rules, then by propagating settled decisions to
// near-identical labels.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/releve-dev/releve/internal/config"
	"github.com/releve-dev/releve/internal/model"
)

// DefaultThreshold is the minimum similarity score (0-100) for propagation.
const DefaultThreshold = 90

// Rule maps a pattern over the upper-cased label to a category.
type Rule struct {
	Category string
	Pattern  *regexp.Regexp
}

// NewRule compiles pattern into a Rule.
func NewRule(pattern, category string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("compiling rule for %q: %w", category, err)
	}
	return Rule{Category: category, Pattern: re}, nil
}

// Options configures a Classifier.
type Options struct {
	Rules           []Rule   // evaluated in order, first match wins
	Exclusions      []string // labels containing one of these are settled as DefaultCategory
	Threshold       float64  // zero means DefaultThreshold
	DefaultCategory string   // empty means model.DefaultCategory
}

// Stats counts what a classification pass did to debit rows.
type Stats struct {
	Excluded   int
	Matched    int
	Propagated int
	Unmatched  int
}

// Classifier is safe for concurrent use; it holds no per-run state.
type Classifier struct {
	rules      []Rule
	exclusions []string
	threshold  float64
	def        string
}

// New creates a Classifier.
func New(opts Options) *Classifier {
	c := &Classifier{
		rules:     opts.Rules,
		threshold: opts.Threshold,
		def:       opts.DefaultCategory,
	}
	if c.threshold == 0 {
		c.threshold = DefaultThreshold
	}
	if c.def == "" {
		c.def = model.DefaultCategory
	}
	for _, kw := range opts.Exclusions {
		if kw = strings.ToUpper(strings.TrimSpace(kw)); kw != "" {
			c.exclusions = append(c.exclusions, kw)
		}
	}
	return c
}

// FromConfig compiles the configured rule list.
func FromConfig(cfg config.ClassifierConfig) (*Classifier, error) {
	rules := make([]Rule, 0, len(cfg.Rules))
	for i, r := range cfg.Rules {
		rule, err := NewRule(r.Pattern, r.Category)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return New(Options{
		Rules:           rules,
		Exclusions:      cfg.Exclusions,
		Threshold:       cfg.Threshold,
		DefaultCategory: cfg.DefaultCategory,
	}), nil
}

// Classify runs the pattern rules and then similarity propagation.
func (c *Classifier) Classify(txns []model.Transaction) Stats {
	s1 := c.ApplyRules(txns)
	s2 := c.Propagate(txns)
	return Stats{
		Excluded:   s1.Excluded,
		Matched:    s1.Matched,
		Propagated: s2.Propagated,
		Unmatched:  s2.Unmatched,
	}
}

// ApplyRules classifies every unsettled debit row by exclusion keyword, then
// by the first matching rule. Credit rows and settled rows are left alone.
func (c *Classifier) ApplyRules(txns []model.Transaction) Stats {
	var st Stats
	for i := range txns {
		t := &txns[i]
		if !t.IsDebit() || t.Settled {
			continue
		}
		switch cat, kw, kind := c.match(t.Label); kind {
		case matchExcluded:
			t.Category, t.MatchedKeyword, t.Settled = c.def, kw, true
			st.Excluded++
		case matchRule:
			t.Category, t.MatchedKeyword, t.Settled = cat, kw, true
			st.Matched++
		default:
			t.Category, t.MatchedKeyword = c.def, ""
			st.Unmatched++
		}
	}
	return st
}

type matchKind int

const (
	matchNone matchKind = iota
	matchExcluded
	matchRule
)

func (c *Classifier) match(label string) (category, keyword string, kind matchKind) {
	upper := strings.ToUpper(label)
	for _, kw := range c.exclusions {
		if strings.Contains(upper, kw) {
			return c.def, kw, matchExcluded
		}
	}
	for _, r := range c.rules {
		if loc := r.Pattern.FindStringIndex(upper); loc != nil {
			return r.Category, upper[loc[0]:loc[1]], matchRule
		}
	}
	return "", "", matchNone
}
