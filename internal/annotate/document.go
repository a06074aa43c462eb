// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package annotate

import "encoding/xml"

// Document is the annotation of one request's text. Field names follow the
// CoreNLP JSON output so remote results decode without a mapping layer.
type Document struct {
	XMLName   xml.Name   `json:"-" xml:"document"`
	DocID     string     `json:"docId,omitempty" xml:"docId,omitempty"`
	DocDate   string     `json:"docDate,omitempty" xml:"docDate,omitempty"`
	Text      string     `json:"text" xml:"text"`
	Sentences []Sentence `json:"sentences" xml:"sentences>sentence"`
}

type Sentence struct {
	Index          int             `json:"index" xml:"id,attr"`
	Tokens         []Token         `json:"tokens" xml:"tokens>token"`
	EntityMentions []EntityMention `json:"entitymentions,omitempty" xml:"mentions>mention,omitempty"`
}

type Token struct {
	Index                int    `json:"index" xml:"id,attr"`
	Word                 string `json:"word" xml:"word"`
	OriginalText         string `json:"originalText" xml:"originalText"`
	Lemma                string `json:"lemma,omitempty" xml:"lemma,omitempty"`
	CharacterOffsetBegin int    `json:"characterOffsetBegin" xml:"CharacterOffsetBegin"`
	CharacterOffsetEnd   int    `json:"characterOffsetEnd" xml:"CharacterOffsetEnd"`
	POS                  string `json:"pos,omitempty" xml:"POS,omitempty"`
	NER                  string `json:"ner,omitempty" xml:"NER,omitempty"`
	Before               string `json:"before" xml:"-"`
	After                string `json:"after" xml:"-"`
}

// EntityMention is a maximal run of tokens sharing one NER label.
type EntityMention struct {
	Text                 string `json:"text" xml:"text"`
	NER                  string `json:"ner" xml:"ner,attr"`
	TokenBegin           int    `json:"tokenBegin" xml:"tokenBegin"`
	TokenEnd             int    `json:"tokenEnd" xml:"tokenEnd"`
	CharacterOffsetBegin int    `json:"characterOffsetBegin" xml:"CharacterOffsetBegin"`
	CharacterOffsetEnd   int    `json:"characterOffsetEnd" xml:"CharacterOffsetEnd"`
	DocTokenBegin        int    `json:"docTokenBegin" xml:"docTokenBegin"`
	DocTokenEnd          int    `json:"docTokenEnd" xml:"docTokenEnd"`
}

// OutsideLabel is the NER label of tokens that belong to no entity.
const OutsideLabel = "O"

// Mentions derives entity mentions from the NER labels of s's tokens.
// Offsets are in characters (runes) of text. docTokenOffset is the
// document-level index of s's first token.
func (s *Sentence) Mentions(text string, docTokenOffset int) []EntityMention {
	var (
		out   []EntityMention
		runes []rune
	)
	for i := 0; i < len(s.Tokens); {
		label := s.Tokens[i].NER
		if label == "" || label == OutsideLabel {
			i++
			continue
		}
		j := i + 1
		for j < len(s.Tokens) && s.Tokens[j].NER == label {
			j++
		}
		begin := s.Tokens[i].CharacterOffsetBegin
		end := s.Tokens[j-1].CharacterOffsetEnd
		m := EntityMention{
			NER:                  label,
			TokenBegin:           i,
			TokenEnd:             j,
			CharacterOffsetBegin: begin,
			CharacterOffsetEnd:   end,
			DocTokenBegin:        docTokenOffset + i,
			DocTokenEnd:          docTokenOffset + j,
		}
		if runes == nil {
			runes = []rune(text)
		}
		if begin >= 0 && end <= len(runes) && begin <= end {
			m.Text = string(runes[begin:end])
		}
		out = append(out, m)
		i = j
	}
	return out
}
