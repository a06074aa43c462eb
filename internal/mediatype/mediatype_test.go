// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mediatype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesIsReflexive(t *testing.T) {
	for _, mt := range Values() {
		t.Run(mt.String(), func(t *testing.T) {
			ok, err := mt.Matches(mt.String())
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestWildcardInputMatchesEverything(t *testing.T) {
	for _, mt := range Values() {
		ok, err := mt.Matches("*/*")
		require.NoError(t, err)
		assert.True(t, ok, "%s should match */*", mt)

		ok, err = mt.Matches(mt.Type() + "/*")
		require.NoError(t, err)
		assert.True(t, ok, "%s should match %s/*", mt, mt.Type())
	}

	ok, err := ImagePNG.Matches("text/*")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesIsCaseInsensitiveAndIgnoresParams(t *testing.T) {
	ok, err := ApplicationJSON.Matches("Application/JSON; charset=UTF-8")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ApplicationXHTMLXML.Matches("application/xhtml+xml;q=0.9")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchesRejectsUnparseable(t *testing.T) {
	_, err := TextPlain.Matches("bogus-string-with-no-slash")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidMediaType))
}

func TestFromType(t *testing.T) {
	tests := []struct {
		in   string
		want MediaType
	}{
		{"application/json", ApplicationJSON},
		{"text/json", TextJSON},
		{"application/xml", ApplicationXML},
		{"text/xml", TextXML},
		{"image/jpeg", ImageJPEG},
		{"*/*", TextHTML},
		{"text/*", TextHTML},
		{"application/*", ApplicationJSON},
		{"application/octet-stream", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FromType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromTypeAliasCollapsing(t *testing.T) {
	js, err := FromType("application/json")
	require.NoError(t, err)
	alias, err := FromType("text/json")
	require.NoError(t, err)

	assert.NotEqual(t, js, alias)
	assert.Equal(t, js, alias.Canonical())
	assert.True(t, js.IsCanonical())
	assert.False(t, alias.IsCanonical())
	assert.Equal(t, TextXML, ApplicationXML.Canonical())
}

func TestCanonicalIsSingleHop(t *testing.T) {
	for _, mt := range Values() {
		c := mt.Canonical()
		assert.Equal(t, c, c.Canonical(), "alias chain from %s", mt)
	}
}

func TestFromTypeRaisesButFromTypeOrSwallows(t *testing.T) {
	_, err := FromType("bogus-string-with-no-slash")
	assert.ErrorIs(t, err, ErrInvalidMediaType)

	assert.Equal(t, TextXML, FromTypeOr("bogus-string-with-no-slash", TextXML))
	assert.Equal(t, TextXML, FromTypeOr("application/zip", TextXML))
	assert.Equal(t, Unknown, FromTypeOr("application/zip", Unknown))
	assert.Equal(t, ApplicationJSON, FromTypeOr("application/json", TextXML))
}

func TestUniqueTypeSubtypePairs(t *testing.T) {
	seen := make(map[string]MediaType)
	for _, mt := range Values() {
		if prev, ok := seen[mt.String()]; ok {
			t.Fatalf("%s declared twice (%d and %d)", mt, prev, mt)
		}
		seen[mt.String()] = mt
	}
}

func TestUnknownIsInert(t *testing.T) {
	assert.Equal(t, "", Unknown.String())
	assert.Equal(t, Unknown, Unknown.Canonical())
	assert.False(t, Unknown.MatchesRange(Range{Type: "*", Subtype: "*"}))
}

func TestParse(t *testing.T) {
	r, err := Parse("application/vnd.api+json; q=0.5; charset=\"utf-8\"")
	require.NoError(t, err)
	assert.Equal(t, "application", r.Type)
	assert.Equal(t, "vnd.api", r.Subtype)
	assert.Equal(t, "json", r.Suffix)
	assert.Equal(t, "0.5", r.Params["q"])
	assert.Equal(t, "utf-8", r.Params["charset"])
	assert.Equal(t, "application/vnd.api+json", r.String())

	for _, bad := range []string{"", "json", "/json", "application/", "; q=1"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidMediaType, "input %q", bad)
	}
}
