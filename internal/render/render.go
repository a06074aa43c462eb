// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package render serializes annotated documents for the negotiated media type.
package render

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/ManuGH/nlpd/internal/mediatype"
)

// ErrUnsupported is returned by For when no codec serves a media type.
var ErrUnsupported = errors.New("render: unsupported media type")

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the canonical MIME type the codec produces.
	ContentType() string
	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)
}

type jsonCodec struct{}

func (jsonCodec) ContentType() string { return mediatype.ApplicationJSON.String() }

// Marshal encodes v as indented JSON without HTML escaping.
func (jsonCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type xmlCodec struct{}

func (xmlCodec) ContentType() string { return mediatype.TextXML.String() }

type xmlRoot struct {
	XMLName xml.Name `xml:"root"`
	Value   any
}

// Marshal encodes v as an indented XML document with v wrapped in <root>.
func (xmlCodec) Marshal(v any) ([]byte, error) {
	body, err := xml.MarshalIndent(xmlRoot{Value: v}, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	return append(out, '\n'), nil
}

var codecs = map[mediatype.MediaType]Codec{
	mediatype.ApplicationJSON: jsonCodec{},
	mediatype.TextXML:         xmlCodec{},
}

// For returns the codec for mt, resolving aliases to their canonical type.
func For(mt mediatype.MediaType) (Codec, error) {
	if c, ok := codecs[mt.Canonical()]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, mt.String())
}

// Supported lists, in declaration order, every media type For accepts.
func Supported() []mediatype.MediaType {
	var out []mediatype.MediaType
	for _, mt := range mediatype.Values() {
		if _, ok := codecs[mt.Canonical()]; ok {
			out = append(out, mt)
		}
	}
	return out
}

// Render marshals v for mt.
func Render(mt mediatype.MediaType, v any) ([]byte, error) {
	c, err := For(mt)
	if err != nil {
		return nil, err
	}
	b, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", c.ContentType(), err)
	}
	return b, nil
}
