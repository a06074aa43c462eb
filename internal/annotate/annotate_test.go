// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package annotate

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncAdapter(t *testing.T) {
	var a Annotator = Func(func(_ context.Context, text string) (*Document, error) {
		return &Document{Text: text}, nil
	})
	doc, err := a.Annotate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", doc.Text)
	assert.Equal(t, "func", a.Name())
}

func TestStamp(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	doc := &Document{}
	Stamp(doc, at)

	assert.Equal(t, "2024-03-01T11:00:00Z", doc.DocDate)
	id, err := ulid.Parse(doc.DocID)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(at), id.Time())

	doc.DocID = "keep"
	Stamp(doc, at)
	assert.Equal(t, "keep", doc.DocID)

	Stamp(nil, at)
}

func TestPropertiesGet(t *testing.T) {
	p := Properties{"a": "1", "blank": ""}
	assert.Equal(t, "1", p.Get("a", "x"))
	assert.Equal(t, "x", p.Get("blank", "x"))
	assert.Equal(t, "x", p.Get("missing", "x"))

	c := p.Clone()
	c["a"] = "2"
	assert.Equal(t, "1", p["a"])
}

func TestSentenceMentions(t *testing.T) {
	text := "Ada Lovelace met Babbage"
	s := Sentence{Tokens: []Token{
		{Word: "Ada", CharacterOffsetBegin: 0, CharacterOffsetEnd: 3, NER: "PERSON"},
		{Word: "Lovelace", CharacterOffsetBegin: 4, CharacterOffsetEnd: 12, NER: "PERSON"},
		{Word: "met", CharacterOffsetBegin: 13, CharacterOffsetEnd: 16, NER: OutsideLabel},
		{Word: "Babbage", CharacterOffsetBegin: 17, CharacterOffsetEnd: 24, NER: "PERSON"},
	}}

	got := s.Mentions(text, 10)
	require.Len(t, got, 2)
	assert.Equal(t, EntityMention{
		Text: "Ada Lovelace", NER: "PERSON",
		TokenBegin: 0, TokenEnd: 2,
		CharacterOffsetBegin: 0, CharacterOffsetEnd: 12,
		DocTokenBegin: 10, DocTokenEnd: 12,
	}, got[0])
	assert.Equal(t, "Babbage", got[1].Text)
	assert.Equal(t, 13, got[1].DocTokenBegin)
}

type fingerprinted struct {
	Func
	fp string
}

func (f fingerprinted) Fingerprint() string { return f.fp }

func TestScope(t *testing.T) {
	plain := Func(func(context.Context, string) (*Document, error) { return nil, nil })
	assert.Equal(t, "func", Scope(plain))
	assert.Equal(t, "func", Scope(fingerprinted{Func: plain}))
	assert.Equal(t, "func@abc", Scope(fingerprinted{Func: plain, fp: "abc"}))
}
