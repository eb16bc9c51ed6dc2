// Package extract scans normalized document text for citation-shaped
// substrings. Two strategies run independently: a structured parser over a
// reporter registry (high precision) and a curated regex fallback for
// citation forms outside the grammar (recall). Their outputs are merged by
// offset, with the structured span winning overlaps.
package extract

import (
	"sort"

	"go.uber.org/zap"

	"github.com/veracite/veracite/internal/model"
)

// Strategy is one independent extraction pass over normalized text
type Strategy interface {
	// Name returns the strategy name for logging
	Name() string

	// Method returns the provenance tag applied to produced spans
	Method() model.ExtractionMethod

	// Extract returns all spans the strategy recognizes. Must not panic;
	// failed patterns degrade recall, never correctness.
	Extract(text string) []model.CitationSpan
}

// Extractor merges the outputs of all registered strategies
type Extractor struct {
	structured Strategy
	fallbacks  []Strategy
	log        *zap.Logger
}

// NewExtractor creates an extractor with the default strategies
func NewExtractor(log *zap.Logger) *Extractor {
	return &Extractor{
		structured: NewStructuredStrategy(),
		fallbacks:  []Strategy{NewRegexStrategy(log)},
		log:        log,
	}
}

// Extract runs every strategy and merges the resulting span lists.
// Spans are returned in document order. Extract never fails; with no
// recognizable citations it returns an empty slice.
func (e *Extractor) Extract(text string) []model.CitationSpan {
	structured := e.structured.Extract(text)

	var fallback []model.CitationSpan
	for _, s := range e.fallbacks {
		fallback = append(fallback, s.Extract(text)...)
	}

	merged := MergeSpans(structured, fallback)

	e.log.Debug("extraction complete",
		zap.Int("structured", len(structured)),
		zap.Int("fallback", len(fallback)),
		zap.Int("merged", len(merged)))

	return merged
}

// MergeSpans combines structured-parser spans with regex-fallback spans.
// When a fallback span overlaps a structured span by more than half of the
// shorter span's length, the structured span wins and the fallback span is
// discarded. Non-overlapping spans from both lists are retained.
// Pure function; inputs are not mutated.
func MergeSpans(structured, fallback []model.CitationSpan) []model.CitationSpan {
	merged := make([]model.CitationSpan, 0, len(structured)+len(fallback))
	merged = append(merged, structured...)

	for _, fb := range fallback {
		shadowed := false
		for _, st := range structured {
			if overlapExceedsHalf(fb, st) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			merged = append(merged, fb)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Start != merged[j].Start {
			return merged[i].Start < merged[j].Start
		}
		return merged[i].End < merged[j].End
	})

	return merged
}

// overlapExceedsHalf reports whether two spans overlap by more than 50% of
// the shorter span's length
func overlapExceedsHalf(a, b model.CitationSpan) bool {
	lo := a.Start
	if b.Start > lo {
		lo = b.Start
	}
	hi := a.End
	if b.End < hi {
		hi = b.End
	}
	if hi <= lo {
		return false
	}

	overlap := hi - lo
	shorter := a.End - a.Start
	if l := b.End - b.Start; l < shorter {
		shorter = l
	}
	return overlap*2 > shorter
}
