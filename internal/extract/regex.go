package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/veracite/veracite/internal/model"
)

// fallbackSpec is one curated fallback pattern, tagged with the reporter
// family it targets. Specs are compiled at construction; a spec that fails to
// compile is logged and skipped, degrading recall rather than correctness.
type fallbackSpec struct {
	Family string
	Expr   string
}

// defaultFallbackSpecs cover citation shapes the structured grammar does not:
// database citations and public-domain (neutral) citations.
var defaultFallbackSpecs = []fallbackSpec{
	{Family: "westlaw", Expr: `\b(\d{4})\s+WL\s+(\d{1,9})\b`},
	{Family: "lexis", Expr: `\b(\d{4})\s+U\.S\.\s+(?:App\.\s+)?LEXIS\s+(\d{1,9})\b`},
	{Family: "lexis", Expr: `\b(\d{4})\s+U\.S\.\s+Dist\.\s+LEXIS\s+(\d{1,9})\b`},
	{Family: "neutral", Expr: `\b(\d{4})\s+(UT|ND|SD|MT|WY|VT|NMSC|NMCA|OK|WI|ME)\s+(\d{1,4})\b`},
	{Family: "ohio-neutral", Expr: `\b(\d{4})-Ohio-(\d{1,5})\b`},
}

// RegexStrategy is the fallback extractor for reporters and citation forms
// outside the structured grammar
type RegexStrategy struct {
	patterns []compiledFallback
	log      *zap.Logger
}

type compiledFallback struct {
	family string
	re     *regexp.Regexp
}

// NewRegexStrategy compiles the default fallback patterns
func NewRegexStrategy(log *zap.Logger) *RegexStrategy {
	return newRegexStrategyFrom(defaultFallbackSpecs, log)
}

// newRegexStrategyFrom compiles the given specs, skipping any that fail
func newRegexStrategyFrom(specs []fallbackSpec, log *zap.Logger) *RegexStrategy {
	s := &RegexStrategy{log: log}
	for _, spec := range specs {
		re, err := regexp.Compile(spec.Expr)
		if err != nil {
			// Extraction degrades, the run continues.
			log.Warn("fallback pattern failed to compile, skipping",
				zap.String("family", spec.Family),
				zap.String("pattern", spec.Expr),
				zap.Error(err))
			continue
		}
		s.patterns = append(s.patterns, compiledFallback{family: spec.Family, re: re})
	}
	return s
}

// Name returns the strategy name
func (s *RegexStrategy) Name() string { return "regex" }

// Method returns the extraction method this strategy tags spans with
func (s *RegexStrategy) Method() model.ExtractionMethod {
	return model.MethodRegex
}

// Extract scans normalized text with every fallback pattern
func (s *RegexStrategy) Extract(text string) []model.CitationSpan {
	var spans []model.CitationSpan
	for _, p := range s.patterns {
		for _, m := range p.re.FindAllStringIndex(text, -1) {
			raw := text[m[0]:m[1]]
			spans = append(spans, model.CitationSpan{
				RawText:        raw,
				NormalizedText: strings.Join(strings.Fields(raw), " "),
				Start:          m[0],
				End:            m[1],
				Method:         model.MethodRegex,
				Family:         p.family,
			})
		}
	}
	return spans
}
