// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package rules

import (
	"strings"
	"unicode"

	"github.com/ManuGH/nlpd/internal/annotate"
)

// span is a token with rune offsets into the source text.
type span struct {
	word       string
	begin, end int
}

// tokenize splits text into word and punctuation tokens. Letters, digits and
// connector characters inside a word ('-', '\'', '.' between letters) stay
// in one token; every other non-space rune is a token of its own.
func tokenize(text string) []span {
	runes := []rune(text)
	var out []span
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case isWordRune(r):
			j := i + 1
			for j < len(runes) {
				if isWordRune(runes[j]) {
					j++
					continue
				}
				if isConnector(runes[j]) && j+1 < len(runes) && isWordRune(runes[j+1]) {
					j += 2
					continue
				}
				break
			}
			out = append(out, span{word: string(runes[i:j]), begin: i, end: j})
			i = j
		default:
			out = append(out, span{word: string(r), begin: i, end: i + 1})
			i++
		}
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

func isConnector(r rune) bool {
	return r == '-' || r == '\'' || r == '.' || r == '’'
}

func endsSentence(word string) bool {
	return word == "." || word == "!" || word == "?"
}

// split groups tokens into sentences and fills in whitespace context.
func split(text string, spans []span) []annotate.Sentence {
	runes := []rune(text)
	var (
		sentences []annotate.Sentence
		current   []annotate.Token
	)
	for i, sp := range spans {
		before := string(runes[prevEnd(spans, i):sp.begin])
		after := string(runes[sp.end:nextBegin(spans, i, len(runes))])
		current = append(current, annotate.Token{
			Index:                len(current) + 1,
			Word:                 sp.word,
			OriginalText:         sp.word,
			Lemma:                strings.ToLower(sp.word),
			CharacterOffsetBegin: sp.begin,
			CharacterOffsetEnd:   sp.end,
			NER:                  annotate.OutsideLabel,
			Before:               before,
			After:                after,
		})
		if endsSentence(sp.word) {
			sentences = append(sentences, annotate.Sentence{Index: len(sentences), Tokens: current})
			current = nil
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, annotate.Sentence{Index: len(sentences), Tokens: current})
	}
	return sentences
}

func prevEnd(spans []span, i int) int {
	if i == 0 {
		return 0
	}
	return spans[i-1].end
}

func nextBegin(spans []span, i, total int) int {
	if i+1 < len(spans) {
		return spans[i+1].begin
	}
	return total
}
