package cluster

import (
	"strings"

	"github.com/veracite/veracite/internal/model"
)

// Deduplicate merges spans that are the same citation matched twice: identical
// normalized text (modulo whitespace artifacts) with offsets within epsilon of
// each other. Both extraction strategies trimming the same match at slightly
// different boundaries is the common source. The span with the more specific
// extraction method survives. Input and output are in document order.
func (b *Builder) Deduplicate(spans []model.CitationSpan) []model.CitationSpan {
	if len(spans) < 2 {
		return spans
	}

	out := make([]model.CitationSpan, 0, len(spans))
	for _, span := range spans {
		merged := false
		for i := range out {
			if !sameCitation(out[i], span, b.cfg.DedupeEpsilon) {
				continue
			}
			if span.Method.MoreSpecific(out[i].Method) {
				out[i] = span
			}
			merged = true
			break
		}
		if !merged {
			out = append(out, span)
		}
	}
	return out
}

// sameCitation reports whether two spans are duplicate matches of one
// citation occurrence
func sameCitation(a, b model.CitationSpan, epsilon int) bool {
	if foldSpace(a.NormalizedText) != foldSpace(b.NormalizedText) {
		return false
	}
	d := a.Start - b.Start
	if d < 0 {
		d = -d
	}
	return d <= epsilon
}

// foldSpace collapses whitespace runs so newline artifacts do not defeat
// text equality
func foldSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
