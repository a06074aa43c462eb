// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package mediatype maps textual MIME types onto a closed, ordered set of
// known media types with alias (canonical) resolution and wildcard matching.
package mediatype

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidMediaType is returned when a string does not have the
// type/subtype[+suffix][;params] shape.
var ErrInvalidMediaType = errors.New("cannot parse media type")

// MediaType is one of the enumerated media types. The zero value is Unknown.
type MediaType int

// Declaration order is significant: FromType returns the first match.
const (
	Unknown MediaType = iota
	TextHTML
	ApplicationJSON
	TextJSON
	TextXML
	ApplicationXML
	ApplicationXHTMLXML
	TextJavaScript
	ApplicationJavaScript
	TextCSS
	TextCSV
	TextTSV
	TextPlain
	ImageGIF
	ImageJPG
	ImageJPEG
	ImagePNG
)

type definition struct {
	typ       string
	subtype   string
	canonical MediaType // Unknown means "self"
}

var definitions = [...]definition{
	Unknown:               {},
	TextHTML:              {"text", "html", Unknown},
	ApplicationJSON:       {"application", "json", Unknown},
	TextJSON:              {"text", "json", ApplicationJSON},
	TextXML:               {"text", "xml", Unknown},
	ApplicationXML:        {"application", "xml", TextXML},
	ApplicationXHTMLXML:   {"application", "xhtml+xml", Unknown},
	TextJavaScript:        {"text", "javascript", Unknown},
	ApplicationJavaScript: {"application", "javascript", TextJavaScript},
	TextCSS:               {"text", "css", Unknown},
	TextCSV:               {"text", "csv", Unknown},
	TextTSV:               {"text", "tsv", Unknown},
	TextPlain:             {"text", "plain", Unknown},
	ImageGIF:              {"image", "gif", Unknown},
	ImageJPG:              {"image", "jpg", Unknown},
	ImageJPEG:             {"image", "jpeg", ImageJPG},
	ImagePNG:              {"image", "png", Unknown},
}

// Values returns every enumerated media type in declaration order.
func Values() []MediaType {
	out := make([]MediaType, 0, len(definitions)-1)
	for mt := TextHTML; int(mt) < len(definitions); mt++ {
		out = append(out, mt)
	}
	return out
}

func (m MediaType) valid() bool {
	return m > Unknown && int(m) < len(definitions)
}

// Type returns the top-level type, e.g. "application".
func (m MediaType) Type() string {
	if !m.valid() {
		return ""
	}
	return definitions[m].typ
}

// Subtype returns the subtype, e.g. "json" or "xhtml+xml".
func (m MediaType) Subtype() string {
	if !m.valid() {
		return ""
	}
	return definitions[m].subtype
}

// String returns "type/subtype", or the empty string for Unknown.
func (m MediaType) String() string {
	if !m.valid() {
		return ""
	}
	return definitions[m].typ + "/" + definitions[m].subtype
}

// Canonical returns the alias target of m, or m itself. Aliases are a single hop.
func (m MediaType) Canonical() MediaType {
	if !m.valid() {
		return m
	}
	if c := definitions[m].canonical; c != Unknown {
		return c
	}
	return m
}

// IsCanonical reports whether m has no alias target.
func (m MediaType) IsCanonical() bool {
	return m.Canonical() == m
}

// Matches reports whether the textual media type s matches m. Type and
// subtype must each be equal, or either side must be the wildcard "*".
// It returns ErrInvalidMediaType when s cannot be parsed.
func (m MediaType) Matches(s string) (bool, error) {
	r, err := Parse(s)
	if err != nil {
		return false, err
	}
	return m.MatchesRange(r), nil
}

// MatchesRange is Matches for an already parsed range.
func (m MediaType) MatchesRange(r Range) bool {
	if !m.valid() {
		return false
	}
	d := definitions[m]

	typeMatch := r.Type == d.typ || r.Type == "*" || d.typ == "*"
	subMatch := r.Subtype == d.subtype || r.Subtype == "*" || d.subtype == "*"
	if !subMatch && r.Suffix != "" {
		subMatch = r.Subtype+"+"+r.Suffix == d.subtype
	}
	return typeMatch && subMatch
}

// FromType returns the first enumerated media type matching s, or Unknown
// when none match. Unparseable input returns ErrInvalidMediaType.
func FromType(s string) (MediaType, error) {
	r, err := Parse(s)
	if err != nil {
		return Unknown, err
	}
	for mt := TextHTML; int(mt) < len(definitions); mt++ {
		if mt.MatchesRange(r) {
			return mt, nil
		}
	}
	return Unknown, nil
}

// FromTypeOr is FromType with a fallback. Format errors are swallowed:
// unparseable or unmatched input both yield fallback.
func FromTypeOr(s string, fallback MediaType) MediaType {
	mt, err := FromType(s)
	if err != nil || mt == Unknown {
		return fallback
	}
	return mt
}

// Range is a parsed media range such as "application/xhtml+xml; q=0.8".
type Range struct {
	Type    string
	Subtype string
	Suffix  string
	Params  map[string]string
}

// String renders the range without parameters.
func (r Range) String() string {
	if r.Suffix != "" {
		return r.Type + "/" + r.Subtype + "+" + r.Suffix
	}
	return r.Type + "/" + r.Subtype
}

var rangePattern = regexp.MustCompile(`^([^/\s;+]+)/([^+;\s]+)(?:\+([^;\s]*))?\s*(?:;(.*))?$`)

// Parse parses a single media range case-insensitively.
func Parse(s string) (Range, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	parts := rangePattern.FindStringSubmatch(trimmed)
	if parts == nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidMediaType, s)
	}

	r := Range{
		Type:    parts[1],
		Subtype: parts[2],
		Suffix:  parts[3],
	}
	if parts[4] != "" {
		r.Params = make(map[string]string)
		for _, p := range strings.Split(parts[4], ";") {
			key, value, _ := strings.Cut(p, "=")
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			r.Params[key] = strings.Trim(strings.TrimSpace(value), `"`)
		}
	}
	return r, nil
}
