package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/veracite/veracite/internal/model"
)

// StructuredStrategy recognizes standard volume-reporter-page citations over
// the reporter registry, plus short-form back-references ("Id. at 335",
// "169 Wn.2d at 820"). It is the high-precision strategy: on overlap its
// spans win over regex-fallback spans.
type StructuredStrategy struct {
	fullPattern     *regexp.Regexp // 171 Wn.2d 486
	reporterAtPage  *regexp.Regexp // 169 Wn.2d at 820
	idAtPage        *regexp.Regexp // Id. at 335
	pinpointPattern *regexp.Regexp // , 493 following a page
}

// NewStructuredStrategy compiles the registry-backed citation grammar
func NewStructuredStrategy() *StructuredStrategy {
	alt := reporterAlternation()
	return &StructuredStrategy{
		fullPattern:     regexp.MustCompile(`\b(\d{1,4})\s+(` + alt + `)\s+(\d{1,5})\b`),
		reporterAtPage:  regexp.MustCompile(`\b(\d{1,4})\s+(` + alt + `)\s+at\s+(\d{1,5})\b`),
		idAtPage:        regexp.MustCompile(`\bId\.\s+at\s+(\d{1,5})\b`),
		pinpointPattern: regexp.MustCompile(`^,\s*(\d{1,5})`),
	}
}

// Name returns the strategy name
func (s *StructuredStrategy) Name() string { return "structured" }

// Method returns the extraction method this strategy tags spans with
func (s *StructuredStrategy) Method() model.ExtractionMethod {
	return model.MethodStructuredParser
}

// Extract scans normalized text for structured citations. One span is emitted
// per parallel reporter; pinpoint pages are attached to the span they follow.
func (s *StructuredStrategy) Extract(text string) []model.CitationSpan {
	var spans []model.CitationSpan

	// Short forms with an explicit reporter first: "169 Wn.2d at 820" would
	// otherwise be unmatchable once the full pattern consumed nothing.
	shortMatches := s.reporterAtPage.FindAllStringSubmatchIndex(text, -1)
	shortRanges := make([][2]int, 0, len(shortMatches))
	for _, m := range shortMatches {
		span := s.buildSpan(text, m, true)
		if span != nil {
			spans = append(spans, *span)
			shortRanges = append(shortRanges, [2]int{m[0], m[1]})
		}
	}

	fullMatches := s.fullPattern.FindAllStringSubmatchIndex(text, -1)

	// Drop full matches living inside a short-form match ("169 Wn.2d at 820"
	// contains no full citation, but "169 Wn.2d" + a later number could
	// confuse the grammar in adjacent prose).
	kept := fullMatches[:0]
	for _, m := range fullMatches {
		inside := false
		for _, r := range shortRanges {
			if m[0] >= r[0] && m[1] <= r[1] {
				inside = true
				break
			}
		}
		if !inside {
			kept = append(kept, m)
		}
	}
	fullMatches = kept

	for i, m := range fullMatches {
		span := s.buildSpan(text, m, false)
		if span == nil {
			continue
		}

		// Pinpoint pages: numerals chained after the first page by commas,
		// stopping where the next citation's volume begins.
		nextStart := len(text)
		if i+1 < len(fullMatches) {
			nextStart = fullMatches[i+1][0]
		}
		span.Pinpoint = s.scanPinpoints(text, m[1], nextStart)

		spans = append(spans, *span)
	}

	spans = append(spans, s.extractIdForms(text)...)

	return spans
}

// buildSpan converts one submatch index set to a CitationSpan
func (s *StructuredStrategy) buildSpan(text string, m []int, shortForm bool) *model.CitationSpan {
	volume := text[m[2]:m[3]]
	matched := text[m[4]:m[5]]
	page := text[m[6]:m[7]]

	rep, ok := LookupReporter(matched)
	if !ok {
		return nil
	}

	span := &model.CitationSpan{
		RawText:        text[m[0]:m[1]],
		NormalizedText: fmt.Sprintf("%s %s %s", volume, rep.Canonical, page),
		Start:          m[0],
		End:            m[1],
		Method:         model.MethodStructuredParser,
		Volume:         volume,
		Reporter:       rep.Canonical,
		Family:         rep.Family,
		Page:           page,
		ShortForm:      shortForm,
	}
	return span
}

// extractIdForms finds "Id. at N" back-references. They carry no reporter and
// are resolved to a cluster by adjacency later.
func (s *StructuredStrategy) extractIdForms(text string) []model.CitationSpan {
	var spans []model.CitationSpan
	for _, m := range s.idAtPage.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[0]:m[1]]
		spans = append(spans, model.CitationSpan{
			RawText:        raw,
			NormalizedText: strings.Join(strings.Fields(raw), " "),
			Start:          m[0],
			End:            m[1],
			Method:         model.MethodStructuredParser,
			Page:           text[m[2]:m[3]],
			ShortForm:      true,
		})
	}
	return spans
}

// scanPinpoints collects comma-chained page numbers after a citation's first
// page. boundary is where the next citation starts; a numeral that begins
// there is a parallel citation's volume, not a pinpoint.
func (s *StructuredStrategy) scanPinpoints(text string, from, boundary int) []string {
	var pins []string
	pos := from
	for pos < boundary {
		m := s.pinpointPattern.FindStringSubmatchIndex(text[pos:])
		if m == nil {
			break
		}
		numStart := pos + m[2]
		numEnd := pos + m[3]
		if numStart >= boundary {
			break
		}
		pins = append(pins, text[numStart:numEnd])
		pos = numEnd
	}
	return pins
}
