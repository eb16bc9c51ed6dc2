package model

// VerificationSource identifies which step of the fallback chain produced a
// verification result
type VerificationSource string

const (
	SourceLookup    VerificationSource = "courtlistener_lookup" // Primary structured citation-lookup API
	SourceSearch    VerificationSource = "courtlistener_search" // Citation-field search, anti-contamination checked
	SourceWebSearch VerificationSource = "web_fallback"         // Allow-listed legal-content domains
	SourceNone      VerificationSource = "none"                 // No trusted result
)

// sourceTrust orders sources from least to most trusted
var sourceTrust = map[VerificationSource]int{
	SourceNone:      0,
	SourceWebSearch: 1,
	SourceSearch:    2,
	SourceLookup:    3,
}

// AtLeastAsTrusted reports whether s is equally or more trusted than other.
// Re-verification may overwrite an existing result only when this holds.
func (s VerificationSource) AtLeastAsTrusted(other VerificationSource) bool {
	return sourceTrust[s] >= sourceTrust[other]
}

// VerificationResult is the outcome of one verification attempt for a distinct
// normalized citation. Canonical fields are populated only from a trusted chain
// step that passed its acceptance check; extracted data is never promoted.
type VerificationResult struct {
	Verified      bool               `json:"verified"`
	CanonicalName string             `json:"canonical_name,omitempty"`
	CanonicalDate string             `json:"canonical_date,omitempty"`
	CanonicalURL  string             `json:"canonical_url,omitempty"`
	Source        VerificationSource `json:"source"`
	Confidence    float64            `json:"confidence"` // 0.0 to 1.0

	// YearMismatch flags a canonical/extracted year gap beyond the configured
	// tolerance. Extracted years are unreliable, so this lowers confidence
	// rather than discarding the result.
	YearMismatch bool `json:"year_mismatch,omitempty"`
}

// Unverified returns the result used when every chain step failed
func Unverified() *VerificationResult {
	return &VerificationResult{
		Verified:   false,
		Source:     SourceNone,
		Confidence: 0,
	}
}
