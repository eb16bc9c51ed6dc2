// Package verify resolves citations against an ordered chain of external
// sources. Canonical case metadata is populated only from a chain step that
// passed its acceptance check; case names inferred from prose are never
// promoted, even as a fallback.
package verify

import (
	"context"

	"github.com/veracite/veracite/internal/model"
)

// LookupResult is the uniform shape every provider returns
type LookupResult struct {
	Found    bool
	CaseName string
	Date     string // Decision date, ISO form or bare year
	URL      string

	// Citations is the record's OWN citation list, used by the
	// anti-contamination check: a record that merely mentions the queried
	// citation does not list it as one of its own.
	Citations []string
}

// Provider is one external verification source. Adding a provider means
// implementing this interface and inserting it into the ordered chain; no
// other component changes.
type Provider interface {
	// Name identifies the provider for logging and rate-limit keying
	Name() string

	// Source is the trust tier results from this provider carry
	Source() model.VerificationSource

	// Lookup resolves one citation. A miss is (Found=false, nil error);
	// network/timeout/5xx failures return an error wrapping
	// model.ErrProviderUnavailable so the chain advances.
	Lookup(ctx context.Context, citation string) (*LookupResult, error)
}

// accepted applies the step-specific acceptance check for a provider's
// result. Results failing acceptance are treated as "not found", never
// surfaced as canonical data.
func accepted(source model.VerificationSource, citation string, r *LookupResult) bool {
	if r == nil || !r.Found {
		return false
	}

	switch source {
	case model.SourceLookup:
		// The structured lookup is trusted when it returns both a case name
		// and a canonical identifier.
		return r.CaseName != "" && r.URL != ""
	case model.SourceSearch:
		// Anti-contamination: the record's own citation list must contain the
		// citation under test, otherwise the search merely found a case that
		// cites it.
		return citationListContains(r.Citations, citation)
	case model.SourceWebSearch:
		// The web provider only reports results whose URL encodes the queried
		// volume/reporter/page; a URL is all it needs here.
		return r.URL != ""
	default:
		return false
	}
}
