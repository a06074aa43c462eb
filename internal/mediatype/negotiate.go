// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mediatype

import (
	"sort"
	"strconv"
	"strings"
)

// Negotiate picks a response media type from an Accept header.
//
// Ranges are tried in descending q order (ties keep header order, q=0 is
// excluded). For each range the fallback is tested first, then supported in
// the given order, so "*/*" resolves to the fallback. Ranges that fail to
// parse count as no match. When nothing matches, fallback is returned.
func Negotiate(accept string, fallback MediaType, supported ...MediaType) MediaType {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return fallback
	}

	candidates := make([]MediaType, 0, len(supported)+1)
	if fallback.valid() {
		candidates = append(candidates, fallback)
	}
	for _, mt := range supported {
		if mt.valid() && mt != fallback {
			candidates = append(candidates, mt)
		}
	}

	for _, r := range parseAccept(accept) {
		for _, mt := range candidates {
			if mt.MatchesRange(r) {
				return mt
			}
		}
	}
	return fallback
}

type weightedRange struct {
	Range
	q float64
}

func parseAccept(accept string) []Range {
	var ranges []weightedRange
	for _, part := range strings.Split(accept, ",") {
		r, err := Parse(part)
		if err != nil {
			continue
		}
		q := 1.0
		if raw, ok := r.Params["q"]; ok {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		if q <= 0 {
			continue
		}
		ranges = append(ranges, weightedRange{Range: r, q: q})
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].q > ranges[j].q
	})

	out := make([]Range, len(ranges))
	for i, r := range ranges {
		out[i] = r.Range
	}
	return out
}
