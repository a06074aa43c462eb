// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package regexner reads, validates and quotes tab-separated RegexNER rule
// files, and labels token sequences with the rules they contain.
//
// A rule line has the form
//
//	patterns<TAB>type[<TAB>overwritable[<TAB>priority]]
//
// where patterns is a space separated list of per-token regular expressions,
// overwritable is a comma separated list of NER types the rule may replace
// and priority is a float used to break ties between equally long matches.
package regexner

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MaxFields is the number of tab separated fields a rule line may carry.
const MaxFields = 4

var (
	// ErrMalformedLine is returned for lines missing the type column or
	// carrying an unparsable priority.
	ErrMalformedLine = errors.New("regexner: malformed rule line")
	// ErrTooManyFields is returned for lines with more than MaxFields fields.
	ErrTooManyFields = errors.New("regexner: rule line has more than 4 fields")
)

// Mapping is one parsed rule line.
type Mapping struct {
	Patterns     []string
	Type         string
	Overwritable []string
	Priority     float64

	// Source location, filled by Load.
	File string
	Line int
}

// ParseLine parses a single non-blank rule line.
func ParseLine(line string) (Mapping, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, "\t")
	if len(fields) > MaxFields {
		return Mapping{}, ErrTooManyFields
	}
	if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
		return Mapping{}, fmt.Errorf("%w: missing type", ErrMalformedLine)
	}

	m := Mapping{
		Patterns: strings.Fields(fields[0]),
		Type:     strings.TrimSpace(fields[1]),
	}
	if len(m.Patterns) == 0 {
		return Mapping{}, fmt.Errorf("%w: empty pattern", ErrMalformedLine)
	}
	if len(fields) > 2 {
		for _, t := range strings.Split(fields[2], ",") {
			if t = strings.TrimSpace(t); t != "" {
				m.Overwritable = append(m.Overwritable, t)
			}
		}
	}
	if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
		p, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil {
			return Mapping{}, fmt.Errorf("%w: priority %q", ErrMalformedLine, fields[3])
		}
		m.Priority = p
	}
	return m, nil
}

// LineError locates a parse failure inside a rule file.
type LineError struct {
	File string
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Load reads and parses every rule file in order. Blank lines are skipped.
func Load(paths ...string) ([]Mapping, error) {
	var out []Mapping
	for _, path := range paths {
		ms, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, ms...)
	}
	return out, nil
}

func loadFile(path string) ([]Mapping, error) {
	f, err := os.Open(path) // #nosec G304 -- rule files are operator supplied
	if err != nil {
		return nil, fmt.Errorf("open rule file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []Mapping
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		m, err := ParseLine(line)
		if err != nil {
			return nil, &LineError{File: path, Line: n, Err: err}
		}
		m.File, m.Line = path, n
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rule file %s: %w", path, err)
	}
	return out, nil
}
