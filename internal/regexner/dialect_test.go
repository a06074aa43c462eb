// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package regexner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPattern(t *testing.T) {
	tests := []struct {
		pattern  string
		rules    error
		corenlp  error
		contains string
	}{
		{pattern: `Ada`},
		{pattern: `[A-Z][a-z]+`},
		{pattern: `\QMr.\E`},
		{pattern: `\Q(?=\E\d+`},
		{pattern: `[(?=]`},
		{pattern: `[]a]++`, rules: ErrUnsupported, contains: "possessive quantifier"},
		{pattern: `a++`, rules: ErrUnsupported, contains: "possessive quantifier"},
		{pattern: `a{2}+`, rules: ErrUnsupported, contains: "possessive quantifier"},
		{pattern: `a+?`},
		{pattern: `(?=Mr)\w+`, rules: ErrUnsupported, contains: "lookahead"},
		{pattern: `(?<!Dr)\w+`, rules: ErrUnsupported, contains: "lookbehind"},
		{pattern: `(?>ab|a)c`, rules: ErrUnsupported, contains: "atomic group"},
		{pattern: `(\w)\1`, rules: ErrUnsupported, contains: "backreference"},
		{pattern: `(?<x>\w)\k<x>`, rules: ErrUnsupported, contains: "backreference"},
		{pattern: `\\1`},
		{pattern: `(?P<x>a)`, corenlp: ErrNotPortable, contains: "(?P<name>)"},
		{pattern: `[[:alpha:]]+`, corenlp: ErrNotPortable, contains: "POSIX class"},
		{pattern: `(?U)a+`, corenlp: ErrNotPortable, contains: "flag U"},
		{pattern: `(?i)ada`},
		{pattern: `(unclosed`, rules: ErrMalformedPattern, corenlp: ErrMalformedPattern, contains: "missing closing )"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			for engine, want := range map[Engine]error{EngineRules: tt.rules, EngineCoreNLP: tt.corenlp} {
				err := CheckPattern(tt.pattern, engine)
				if want == nil {
					assert.NoError(t, err, engine)
					continue
				}
				require.ErrorIs(t, err, want, engine)
				assert.Contains(t, err.Error(), tt.contains, engine)
			}
		})
	}
}

func TestCompileReportsUnsupportedConstructs(t *testing.T) {
	_, err := Compile([]Mapping{{Patterns: []string{`(?=Mr)\w+`}, Type: "TITLE", File: "t.tsv", Line: 3}}, false)
	var pe *PatternError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.NotErrorIs(t, err, ErrMalformedPattern)
	assert.Equal(t, `t.tsv:3: pattern "(?=Mr)\\w+": unsupported by the rules backend: lookahead`, pe.Error())
}

func TestCheckCollectsEveryProblem(t *testing.T) {
	ms := []Mapping{
		{Patterns: []string{"ok", "a++"}, Type: "A", File: "f.tsv", Line: 1},
		{Patterns: []string{"(?P<n>x)"}, Type: "B", File: "f.tsv", Line: 2},
		{Patterns: []string{"(bad"}, Type: "C", File: "f.tsv", Line: 3},
	}

	rules := Check(ms, EngineRules)
	require.Len(t, rules, 2)
	assert.Equal(t, 1, rules[0].Line)
	assert.ErrorIs(t, rules[0], ErrUnsupported)
	assert.Equal(t, 3, rules[1].Line)
	assert.ErrorIs(t, rules[1], ErrMalformedPattern)

	corenlp := Check(ms, EngineCoreNLP)
	require.Len(t, corenlp, 2)
	assert.Equal(t, 2, corenlp[0].Line)
	assert.ErrorIs(t, corenlp[0], ErrNotPortable)
	assert.Equal(t, 3, corenlp[1].Line)
}
