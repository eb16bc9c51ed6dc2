package extract

import (
	"testing"

	"go.uber.org/zap"

	"github.com/veracite/veracite/internal/model"
)

func TestStructuredStrategy_SingleCitation(t *testing.T) {
	s := NewStructuredStrategy()

	text := "Brown v. Board of Education, 347 U.S. 483 (1954), held that segregation is unconstitutional."
	spans := s.Extract(text)

	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	if span.NormalizedText != "347 U.S. 483" {
		t.Errorf("Expected normalized text '347 U.S. 483', got %q", span.NormalizedText)
	}
	if span.Volume != "347" || span.Reporter != "U.S." || span.Page != "483" {
		t.Errorf("Unexpected components: %+v", span)
	}
	if span.Method != model.MethodStructuredParser {
		t.Errorf("Expected structured parser method, got %s", span.Method)
	}
	if !span.Valid() {
		t.Error("Expected a valid span")
	}
	if text[span.Start:span.End] != span.RawText {
		t.Errorf("Offsets do not cover raw text: %q vs %q", text[span.Start:span.End], span.RawText)
	}
}

func TestStructuredStrategy_ParallelCitationsWithPinpoint(t *testing.T) {
	s := NewStructuredStrategy()

	text := "State v. Smith, 171 Wn.2d 486, 493, 256 P.3d 321 (2011)."
	spans := s.Extract(text)

	if len(spans) != 2 {
		t.Fatalf("Expected 2 spans (one per parallel reporter), got %d: %+v", len(spans), spans)
	}

	first, second := spans[0], spans[1]
	if first.NormalizedText != "171 Wn.2d 486" {
		t.Errorf("Expected '171 Wn.2d 486', got %q", first.NormalizedText)
	}
	if len(first.Pinpoint) != 1 || first.Pinpoint[0] != "493" {
		t.Errorf("Expected pinpoint [493], got %v", first.Pinpoint)
	}
	if second.NormalizedText != "256 P.3d 321" {
		t.Errorf("Expected '256 P.3d 321', got %q", second.NormalizedText)
	}
	if len(second.Pinpoint) != 0 {
		t.Errorf("Expected no pinpoints on second span, got %v", second.Pinpoint)
	}
}

func TestStructuredStrategy_ReporterVariantNormalized(t *testing.T) {
	s := NewStructuredStrategy()

	spans := s.Extract("See Ervin, 169 Wash. 2d 815, 821 (2010).")
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	if spans[0].NormalizedText != "169 Wn.2d 815" {
		t.Errorf("Expected variant unified to 'Wn.2d', got %q", spans[0].NormalizedText)
	}
}

func TestStructuredStrategy_ShortForms(t *testing.T) {
	s := NewStructuredStrategy()

	text := "Ervin, 169 Wn.2d at 820. Id. at 335."
	spans := s.Extract(text)

	if len(spans) != 2 {
		t.Fatalf("Expected 2 short-form spans, got %d: %+v", len(spans), spans)
	}

	for _, span := range spans {
		if !span.ShortForm {
			t.Errorf("Expected short-form flag on %q", span.RawText)
		}
	}
	if spans[0].Reporter != "Wn.2d" && spans[1].Reporter != "Wn.2d" {
		t.Error("Expected the reporter-at-page form to carry its reporter")
	}
}

func TestStructuredStrategy_USCNotMatchedAsUSReports(t *testing.T) {
	s := NewStructuredStrategy()

	spans := s.Extract("The claim arises under 42 U.S.C. § 1983 and related provisions.")
	if len(spans) != 0 {
		t.Errorf("Statutory citation must not match the case grammar, got %+v", spans)
	}
}

func TestRegexStrategy_FallbackFamilies(t *testing.T) {
	s := NewRegexStrategy(zap.NewNop())

	tests := []struct {
		text   string
		family string
	}{
		{"See 2011 WL 1234567 at *3.", "westlaw"},
		{"Cited as 2015 UT 89 by the court.", "neutral"},
		{"See 2019-Ohio-4204.", "ohio-neutral"},
	}

	for _, tt := range tests {
		spans := s.Extract(tt.text)
		if len(spans) != 1 {
			t.Errorf("Expected 1 span for %q, got %d", tt.text, len(spans))
			continue
		}
		if spans[0].Family != tt.family {
			t.Errorf("Expected family %q, got %q", tt.family, spans[0].Family)
		}
		if spans[0].Method != model.MethodRegex {
			t.Errorf("Expected regex method, got %s", spans[0].Method)
		}
	}
}

func TestRegexStrategy_BadPatternSkipped(t *testing.T) {
	specs := []fallbackSpec{
		{Family: "broken", Expr: `([invalid`},
		{Family: "westlaw", Expr: `\b(\d{4})\s+WL\s+(\d{1,9})\b`},
	}

	s := newRegexStrategyFrom(specs, zap.NewNop())
	if len(s.patterns) != 1 {
		t.Fatalf("Expected broken pattern to be skipped, got %d patterns", len(s.patterns))
	}

	spans := s.Extract("2011 WL 1234567")
	if len(spans) != 1 {
		t.Errorf("Surviving pattern should still extract, got %d spans", len(spans))
	}
}

func TestMergeSpans_OverlapKeepsStructured(t *testing.T) {
	structured := []model.CitationSpan{
		{NormalizedText: "347 U.S. 483", Start: 10, End: 22, Method: model.MethodStructuredParser},
	}
	fallback := []model.CitationSpan{
		// Overlaps the structured span by more than half its length.
		{NormalizedText: "347 U.S. 483 (1954)", Start: 10, End: 29, Method: model.MethodRegex},
		// Disjoint fallback span survives.
		{NormalizedText: "2011 WL 1234567", Start: 50, End: 65, Method: model.MethodRegex},
	}

	merged := MergeSpans(structured, fallback)
	if len(merged) != 2 {
		t.Fatalf("Expected 2 merged spans, got %d", len(merged))
	}
	if merged[0].Method != model.MethodStructuredParser {
		t.Errorf("Expected structured span to win the overlap, got %s", merged[0].Method)
	}
	if merged[1].NormalizedText != "2011 WL 1234567" {
		t.Errorf("Expected disjoint fallback span retained, got %q", merged[1].NormalizedText)
	}
}

func TestMergeSpans_DocumentOrder(t *testing.T) {
	structured := []model.CitationSpan{
		{NormalizedText: "b", Start: 40, End: 52, Method: model.MethodStructuredParser},
		{NormalizedText: "a", Start: 5, End: 17, Method: model.MethodStructuredParser},
	}

	merged := MergeSpans(structured, nil)
	if merged[0].NormalizedText != "a" || merged[1].NormalizedText != "b" {
		t.Errorf("Expected spans sorted by offset, got %+v", merged)
	}
}

func TestExtractor_QuotedCitationExtractedNormally(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	text := `The court reasoned (quoting Roe v. Wade, 410 U.S. 113 (1973)) that precedent controls.`
	spans := e.Extract(text)

	if len(spans) != 1 {
		t.Fatalf("Expected 1 span inside parenthetical, got %d", len(spans))
	}
	if spans[0].NormalizedText != "410 U.S. 113" {
		t.Errorf("Expected '410 U.S. 113', got %q", spans[0].NormalizedText)
	}
}
