// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mediatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegotiate(t *testing.T) {
	supported := []MediaType{ApplicationJSON, TextJSON, TextXML, ApplicationXML}

	tests := []struct {
		name     string
		accept   string
		fallback MediaType
		want     MediaType
	}{
		{"empty header uses fallback", "", ApplicationJSON, ApplicationJSON},
		{"exact json", "application/json", TextXML, ApplicationJSON},
		{"alias spelling kept", "text/json", ApplicationJSON, TextJSON},
		{"xml", "application/xml", ApplicationJSON, ApplicationXML},
		{"any prefers fallback", "*/*", TextXML, TextXML},
		{"text wildcard", "text/*", ApplicationJSON, TextJSON},
		{"unsupported uses fallback", "text/html", ApplicationJSON, ApplicationJSON},
		{"garbage uses fallback", "no-slash-here", TextXML, TextXML},
		{
			name:     "browser header falls through to wildcard",
			accept:   "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			fallback: ApplicationJSON,
			want:     ApplicationXML,
		},
		{"q ordering", "application/json;q=0.2, text/xml;q=0.7", ApplicationJSON, TextXML},
		{"q zero excluded", "text/xml;q=0, application/json", TextXML, ApplicationJSON},
		{"bad q skipped", "text/xml;q=abc", ApplicationJSON, ApplicationJSON},
		{"params ignored", "application/json; charset=utf-8", TextXML, ApplicationJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Negotiate(tt.accept, tt.fallback, supported...)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNegotiateUnknownFallback(t *testing.T) {
	assert.Equal(t, Unknown, Negotiate("image/png", Unknown, ApplicationJSON))
	assert.Equal(t, ApplicationJSON, Negotiate("*/*", Unknown, ApplicationJSON))
}
