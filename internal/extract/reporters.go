package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Reporter describes one case reporter: its canonical abbreviation, the
// variant spellings seen in the wild (OCR and style-guide drift), and the
// reporter family it belongs to.
type Reporter struct {
	Canonical string
	Family    string
	Variants  []string
}

// reporterRegistry is the fixed set of reporters the structured parser
// recognizes. Variants are matched verbatim after normalization, so spellings
// differing only in spacing need their own entry.
var reporterRegistry = []Reporter{
	// Federal
	{Canonical: "U.S.", Family: "federal", Variants: []string{"U.S.", "U. S."}},
	{Canonical: "S. Ct.", Family: "federal", Variants: []string{"S. Ct.", "S.Ct."}},
	{Canonical: "L. Ed. 2d", Family: "federal", Variants: []string{"L. Ed. 2d", "L.Ed.2d"}},
	{Canonical: "L. Ed.", Family: "federal", Variants: []string{"L. Ed.", "L.Ed."}},
	{Canonical: "F.4th", Family: "federal", Variants: []string{"F.4th", "F. 4th"}},
	{Canonical: "F.3d", Family: "federal", Variants: []string{"F.3d", "F. 3d"}},
	{Canonical: "F.2d", Family: "federal", Variants: []string{"F.2d", "F. 2d"}},
	{Canonical: "F.", Family: "federal", Variants: []string{"F."}},
	{Canonical: "F. Supp. 3d", Family: "federal", Variants: []string{"F. Supp. 3d", "F.Supp.3d"}},
	{Canonical: "F. Supp. 2d", Family: "federal", Variants: []string{"F. Supp. 2d", "F.Supp.2d"}},
	{Canonical: "F. Supp.", Family: "federal", Variants: []string{"F. Supp.", "F.Supp."}},
	{Canonical: "F. App'x", Family: "federal", Variants: []string{"F. App'x", "F.App'x", "Fed. Appx."}},
	{Canonical: "B.R.", Family: "federal", Variants: []string{"B.R."}},

	// Regional
	{Canonical: "P.3d", Family: "pacific", Variants: []string{"P.3d", "P. 3d"}},
	{Canonical: "P.2d", Family: "pacific", Variants: []string{"P.2d", "P. 2d"}},
	{Canonical: "P.", Family: "pacific", Variants: []string{"P."}},
	{Canonical: "N.E.3d", Family: "northeastern", Variants: []string{"N.E.3d", "N.E. 3d"}},
	{Canonical: "N.E.2d", Family: "northeastern", Variants: []string{"N.E.2d", "N.E. 2d"}},
	{Canonical: "N.W.2d", Family: "northwestern", Variants: []string{"N.W.2d", "N.W. 2d"}},
	{Canonical: "S.E.2d", Family: "southeastern", Variants: []string{"S.E.2d", "S.E. 2d"}},
	{Canonical: "S.W.3d", Family: "southwestern", Variants: []string{"S.W.3d", "S.W. 3d"}},
	{Canonical: "S.W.2d", Family: "southwestern", Variants: []string{"S.W.2d", "S.W. 2d"}},
	{Canonical: "A.3d", Family: "atlantic", Variants: []string{"A.3d", "A. 3d"}},
	{Canonical: "A.2d", Family: "atlantic", Variants: []string{"A.2d", "A. 2d"}},
	{Canonical: "So. 3d", Family: "southern", Variants: []string{"So. 3d", "So.3d"}},
	{Canonical: "So. 2d", Family: "southern", Variants: []string{"So. 2d", "So.2d"}},

	// State official reporters with irregular abbreviations
	{Canonical: "Wn.2d", Family: "washington", Variants: []string{"Wn.2d", "Wn. 2d", "Wash. 2d", "Wash.2d"}},
	{Canonical: "Wn. App.", Family: "washington", Variants: []string{"Wn. App.", "Wash. App."}},
	{Canonical: "Wn. App. 2d", Family: "washington", Variants: []string{"Wn. App. 2d", "Wash. App. 2d"}},
	{Canonical: "Cal. 5th", Family: "california", Variants: []string{"Cal. 5th", "Cal.5th"}},
	{Canonical: "Cal. 4th", Family: "california", Variants: []string{"Cal. 4th", "Cal.4th"}},
	{Canonical: "Cal. App. 5th", Family: "california", Variants: []string{"Cal. App. 5th"}},
	{Canonical: "Cal. App. 4th", Family: "california", Variants: []string{"Cal. App. 4th"}},
	{Canonical: "Cal. Rptr. 3d", Family: "california", Variants: []string{"Cal. Rptr. 3d", "Cal.Rptr.3d"}},
	{Canonical: "N.Y.3d", Family: "newyork", Variants: []string{"N.Y.3d", "N.Y. 3d"}},
	{Canonical: "N.Y.2d", Family: "newyork", Variants: []string{"N.Y.2d", "N.Y. 2d"}},
	{Canonical: "Ill. 2d", Family: "illinois", Variants: []string{"Ill. 2d", "Ill.2d"}},
	{Canonical: "Ohio St. 3d", Family: "ohio", Variants: []string{"Ohio St. 3d", "Ohio St.3d"}},
	{Canonical: "Mass.", Family: "massachusetts", Variants: []string{"Mass."}},
}

// canonicalReporter maps every variant spelling to its registry entry
var canonicalReporter = func() map[string]*Reporter {
	m := make(map[string]*Reporter)
	for i := range reporterRegistry {
		r := &reporterRegistry[i]
		for _, v := range r.Variants {
			m[v] = r
		}
	}
	return m
}()

// reporterAlternation builds the regexp alternation over every variant,
// longest first so "F. Supp. 2d" wins over "F.".
func reporterAlternation() string {
	variants := make([]string, 0, len(canonicalReporter))
	for v := range canonicalReporter {
		variants = append(variants, v)
	}
	sort.Slice(variants, func(i, j int) bool {
		if len(variants[i]) != len(variants[j]) {
			return len(variants[i]) > len(variants[j])
		}
		return variants[i] < variants[j]
	})

	escaped := make([]string, len(variants))
	for i, v := range variants {
		escaped[i] = regexp.QuoteMeta(v)
	}
	return strings.Join(escaped, "|")
}

// LookupReporter resolves a matched reporter string to its registry entry
func LookupReporter(matched string) (*Reporter, bool) {
	r, ok := canonicalReporter[matched]
	return r, ok
}

// citationShape matches a bare volume-reporter-page string for
// canonicalization outside a document scan.
var citationShape = regexp.MustCompile(`^(\d{1,4})\s+(.+?)\s+(\d{1,5})$`)

// CanonicalCitation rewrites a citation string to its canonical form:
// whitespace collapsed and the reporter unified to its registry spelling.
// Strings outside the volume-reporter-page shape are returned with
// whitespace collapsed only. Used both for display and for comparing
// citation lists returned by verification providers.
func CanonicalCitation(citation string) string {
	folded := strings.Join(strings.Fields(citation), " ")
	m := citationShape.FindStringSubmatch(folded)
	if m == nil {
		return folded
	}
	if rep, ok := LookupReporter(m[2]); ok {
		return m[1] + " " + rep.Canonical + " " + m[3]
	}
	return folded
}
