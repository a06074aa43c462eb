// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package regexner

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Engine is the regular expression dialect a rule file is checked against.
type Engine string

const (
	// EngineRules is RE2, as used by the in-process rules backend.
	EngineRules Engine = "rules"
	// EngineCoreNLP is java.util.regex, as used by a CoreNLP server.
	EngineCoreNLP Engine = "corenlp"
)

// Engines lists the accepted Engine values.
var Engines = []Engine{EngineRules, EngineCoreNLP}

var (
	// ErrMalformedPattern wraps a syntax error reported by the RE2 parser.
	ErrMalformedPattern = errors.New("malformed")
	// ErrUnsupported marks valid java.util.regex constructs RE2 has no
	// equivalent for.
	ErrUnsupported = errors.New("unsupported by the rules backend")
	// ErrNotPortable marks RE2 syntax that java.util.regex rejects or reads
	// differently.
	ErrNotPortable = errors.New("not portable to java.util.regex")
)

// syntax lists the constructs of a pattern only one of the engines accepts.
type syntax struct {
	javaOnly []string
	re2Only  []string
}

func addOnce(list []string, name string) []string {
	for _, n := range list {
		if n == name {
			return list
		}
	}
	return append(list, name)
}

// scanSyntax walks p outside \Q...\E sections and escapes, looking for
// constructs that separate the two engines.
func scanSyntax(p string) syntax {
	var s syntax
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\':
			if i+1 >= len(p) {
				return s
			}
			next := p[i+1]
			switch {
			case next == 'Q':
				end := strings.Index(p[i+2:], `\E`)
				if end < 0 {
					return s
				}
				i += 2 + end + 1
				continue
			case !inClass && next >= '1' && next <= '9':
				s.javaOnly = addOnce(s.javaOnly, "backreference")
			case !inClass && next == 'k' && strings.HasPrefix(p[i+2:], "<"):
				s.javaOnly = addOnce(s.javaOnly, "backreference")
			}
			i++

		case inClass:
			switch {
			case strings.HasPrefix(p[i:], "[:"):
				s.re2Only = addOnce(s.re2Only, "POSIX class [[:name:]]")
				if end := strings.Index(p[i:], ":]"); end >= 0 {
					i += end + 1
				}
			case c == ']':
				inClass = false
			}

		case c == '[':
			inClass = true
			// A ']' right after '[' or '[^' is a literal.
			j := i + 1
			if j < len(p) && p[j] == '^' {
				j++
			}
			if j < len(p) && p[j] == ']' {
				i = j
			}

		case c == '(' && strings.HasPrefix(p[i:], "(?"):
			rest := p[i+2:]
			switch {
			case strings.HasPrefix(rest, "="), strings.HasPrefix(rest, "!"):
				s.javaOnly = addOnce(s.javaOnly, "lookahead")
			case strings.HasPrefix(rest, "<="), strings.HasPrefix(rest, "<!"):
				s.javaOnly = addOnce(s.javaOnly, "lookbehind")
			case strings.HasPrefix(rest, ">"):
				s.javaOnly = addOnce(s.javaOnly, "atomic group")
			case strings.HasPrefix(rest, "P<"):
				s.re2Only = addOnce(s.re2Only, "named group (?P<name>)")
			default:
				if end := strings.IndexAny(rest, ":)"); end >= 0 && strings.ContainsRune(rest[:end], 'U') {
					s.re2Only = addOnce(s.re2Only, "flag U")
				}
			}
			i++

		case (c == '*' || c == '+' || c == '?' || c == '}') && i+1 < len(p) && p[i+1] == '+':
			s.javaOnly = addOnce(s.javaOnly, "possessive quantifier")
			i++
		}
	}
	return s
}

// CheckPattern reports whether p is usable by engine.
//
// For EngineRules the pattern must compile under RE2; Java constructs RE2
// lacks are reported as ErrUnsupported rather than as syntax errors. For
// EngineCoreNLP, RE2-only syntax is reported as ErrNotPortable. Patterns
// using Java-only constructs cannot be parsed by RE2 and are accepted
// without a further syntax check.
func CheckPattern(p string, engine Engine) error {
	syn := scanSyntax(p)
	switch engine {
	case EngineCoreNLP:
		if len(syn.re2Only) > 0 {
			return fmt.Errorf("%w: %s", ErrNotPortable, strings.Join(syn.re2Only, ", "))
		}
		if len(syn.javaOnly) > 0 {
			return nil
		}
	default:
		if len(syn.javaOnly) > 0 {
			return fmt.Errorf("%w: %s", ErrUnsupported, strings.Join(syn.javaOnly, ", "))
		}
	}
	if _, err := regexp.Compile(p); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPattern, err)
	}
	return nil
}

// Check runs CheckPattern over every pattern of mappings and returns all
// problems found, in file order.
func Check(mappings []Mapping, engine Engine) []*PatternError {
	var out []*PatternError
	for _, m := range mappings {
		for _, p := range m.Patterns {
			if err := CheckPattern(p, engine); err != nil {
				out = append(out, &PatternError{File: m.File, Line: m.Line, Pattern: p, Err: err})
			}
		}
	}
	return out
}
