package model

// ExtractionMethod records which strategy produced a citation span
type ExtractionMethod string

const (
	MethodStructuredParser ExtractionMethod = "structured_parser" // Reporter-registry grammar match
	MethodRegex            ExtractionMethod = "regex"             // Curated fallback pattern match
)

// MoreSpecific reports whether m is a higher-precision method than other.
// The structured parser always wins over a regex fallback.
func (m ExtractionMethod) MoreSpecific(other ExtractionMethod) bool {
	return m == MethodStructuredParser && other == MethodRegex
}

// CitationSpan is a single citation occurrence in the normalized document.
// It is created once by the extractor; later stages only attach data
// (ExtractedContext, cluster id, verification), never rewrite the match itself.
type CitationSpan struct {
	RawText        string           `json:"raw_text"`        // Citation exactly as matched
	NormalizedText string           `json:"normalized_text"` // Canonical form (unified reporter, collapsed whitespace)
	Start          int              `json:"start"`           // Offset in the normalized document
	End            int              `json:"end"`             // Exclusive end offset
	Method         ExtractionMethod `json:"method"`          // Provenance of the match

	// Parsed components, populated by the structured parser where available.
	Volume   string   `json:"volume,omitempty"`
	Reporter string   `json:"reporter,omitempty"` // Canonical reporter abbreviation
	Family   string   `json:"family,omitempty"`   // Reporter family (e.g., "federal", "pacific")
	Page     string   `json:"page,omitempty"`
	Pinpoint []string `json:"pinpoint,omitempty"` // Pinpoint pages following the first page

	// ShortForm marks back-references like "Id. at 335" or "Ervin, 169 Wn.2d at 820".
	ShortForm bool `json:"short_form,omitempty"`

	// Context holds the case name/date inferred from surrounding prose.
	// Extracted data is untrusted and is never copied into canonical fields.
	Context ExtractedContext `json:"context"`
}

// Valid reports whether the span satisfies its basic invariants
func (s *CitationSpan) Valid() bool {
	return s.Start < s.End && s.NormalizedText != ""
}

// ExtractedContext is the case name and decision year recovered from the text
// surrounding a citation. An all-empty context is a normal outcome for
// short-form citations with no adjacent name.
type ExtractedContext struct {
	CaseName     string `json:"case_name,omitempty"`
	DecisionYear string `json:"decision_year,omitempty"`
}

// Empty reports whether no context was recovered
func (c ExtractedContext) Empty() bool {
	return c.CaseName == "" && c.DecisionYear == ""
}
