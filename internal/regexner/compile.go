// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package regexner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PatternError reports a rule whose pattern the target engine cannot use.
// Err wraps ErrMalformedPattern, ErrUnsupported or ErrNotPortable.
type PatternError struct {
	File    string
	Line    int
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("pattern %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("%s:%d: pattern %q: %v", e.File, e.Line, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Rule is a compiled Mapping.
type Rule struct {
	Mapping
	tokens       []*regexp.Regexp
	overwritable map[string]struct{}
}

// Len is the number of tokens the rule spans.
func (r *Rule) Len() int { return len(r.tokens) }

func (r *Rule) matchAt(words []string, at int) bool {
	if at+len(r.tokens) > len(words) {
		return false
	}
	for i, re := range r.tokens {
		if !re.MatchString(words[at+i]) {
			return false
		}
	}
	return true
}

func (r *Rule) canOverwrite(label string) bool {
	if label == "" || label == "O" {
		return true
	}
	_, ok := r.overwritable[label]
	return ok
}

// Ruleset is an immutable, compiled set of rules.
type Ruleset struct {
	rules       []*Rule
	fingerprint string
}

// Compile compiles every pattern of every mapping for the rules backend. The
// first unusable pattern aborts compilation with a *PatternError.
func Compile(mappings []Mapping, ignoreCase bool) (*Ruleset, error) {
	prefix := ""
	if ignoreCase {
		prefix = "(?i)"
	}

	rs := &Ruleset{rules: make([]*Rule, 0, len(mappings)), fingerprint: fingerprint(mappings, ignoreCase)}
	for _, m := range mappings {
		r := &Rule{Mapping: m, overwritable: make(map[string]struct{}, len(m.Overwritable))}
		for _, p := range m.Patterns {
			if err := CheckPattern(p, EngineRules); err != nil {
				return nil, &PatternError{File: m.File, Line: m.Line, Pattern: p, Err: err}
			}
			re, err := regexp.Compile(prefix + "^(?:" + p + ")$")
			if err != nil {
				return nil, &PatternError{File: m.File, Line: m.Line, Pattern: p, Err: fmt.Errorf("%w: %w", ErrMalformedPattern, err)}
			}
			r.tokens = append(r.tokens, re)
		}
		for _, t := range m.Overwritable {
			r.overwritable[t] = struct{}{}
		}
		rs.rules = append(rs.rules, r)
	}

	// Longest first, then highest priority; declaration order breaks ties.
	sort.SliceStable(rs.rules, func(i, j int) bool {
		a, b := rs.rules[i], rs.rules[j]
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		return a.Priority > b.Priority
	})
	return rs, nil
}

// fingerprint digests everything that affects labelling. Source locations
// are left out so that moving a rule between files keeps the digest.
func fingerprint(mappings []Mapping, ignoreCase bool) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "ignorecase=%t\n", ignoreCase)
	for _, m := range mappings {
		_, _ = fmt.Fprintf(h, "%s\t%s\t%s\t%s\n",
			strings.Join(m.Patterns, " "), m.Type,
			strings.Join(m.Overwritable, ","),
			strconv.FormatFloat(m.Priority, 'g', -1, 64))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Fingerprint identifies the rules and options the set was compiled from.
// Two sets label identically when their fingerprints are equal.
func (rs *Ruleset) Fingerprint() string {
	if rs == nil {
		return ""
	}
	return rs.fingerprint
}

// Len returns the number of compiled rules.
func (rs *Ruleset) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Label assigns rule types to words in place. labels must be as long as
// words; an empty label is treated as "O". At each position the longest
// matching rule wins, ties going to the higher priority. A rule only applies
// when every token it covers is unlabelled or carries a type listed as
// overwritable by the rule.
func (rs *Ruleset) Label(words, labels []string) {
	if rs == nil || len(words) != len(labels) {
		return
	}
	for i := 0; i < len(words); {
		applied := 0
		for _, r := range rs.rules {
			if !r.matchAt(words, i) || !r.applicable(labels[i:i+r.Len()]) {
				continue
			}
			for k := 0; k < r.Len(); k++ {
				labels[i+k] = r.Type
			}
			applied = r.Len()
			break
		}
		if applied == 0 {
			applied = 1
		}
		i += applied
	}
}

func (r *Rule) applicable(span []string) bool {
	for _, l := range span {
		if !r.canOverwrite(l) {
			return false
		}
	}
	return true
}
