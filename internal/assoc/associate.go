// Package assoc recovers the case name and decision year for a citation from
// the prose surrounding it. All output is extracted (untrusted) data: it is
// never promoted to canonical fields without passing verification.
package assoc

import (
	"regexp"
	"strings"

	"github.com/veracite/veracite/internal/model"
)

// signalWords are citation signals that must be stripped from case-name
// candidates. Ordered longest-first so "But see" wins over "See".
var signalWords = []string{
	"See generally", "See, e.g.,", "See also", "But see", "But cf.",
	"Compare", "Contra", "Accord", "See", "Cf.", "E.g.,", "E.g.", "Quoting", "Citing",
}

var (
	// Procedural-posture anchors, right-anchored at the comma.
	inRePattern = regexp.MustCompile(`((?:In re|In the Matter of|Matter of|Ex parte)\s+[A-Z][\w'.&-]*(?:\s+[\w'.&-]+)*)$`)

	// "v." separator inside a candidate region.
	vSeparator = regexp.MustCompile(`\bv\.?\s`)

	// Matches a parenthesized year, with or without a court prefix:
	// "(1954)", "(9th Cir. 1997)", "(Wash. 2011)".
	yearPattern = regexp.MustCompile(`\(([^()]*?\s)?(\d{4})\)`)
)

// stopwords reject permissive candidates that carry no name signal
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true, "at": true,
	"on": true, "and": true, "or": true, "id": true, "ibid": true, "see": true,
	"court": true, "supra": true, "infra": true,
}

// connectorTokens may appear lowercase inside a party name
// ("The Boeing Co. v. Sierracin Corp.", "Dep't of Ecology")
var connectorTokens = map[string]bool{
	"of": true, "the": true, "&": true, "ex": true, "rel.": true, "for": true,
}

// Associator recovers extracted context for citation spans
type Associator struct {
	lookback int
	clause   int
}

// NewAssociator creates an associator with the given window bounds
func NewAssociator(cfg model.AssocConfig) *Associator {
	lookback := cfg.LookbackChars
	if lookback <= 0 {
		lookback = 400
	}
	clause := cfg.ClauseChars
	if clause <= 0 {
		clause = 120
	}
	return &Associator{lookback: lookback, clause: clause}
}

// Associate recovers the case name and decision year for one span from the
// normalized document text. An all-empty context is a normal outcome for
// short-form citations with no adjacent name; Associate never fails.
func (a *Associator) Associate(text string, span model.CitationSpan) model.ExtractedContext {
	return model.ExtractedContext{
		CaseName:     a.caseName(text, span),
		DecisionYear: a.decisionYear(text, span),
	}
}

// caseName applies the anchor heuristics, most specific first, to the region
// between the nearest preceding comma and the lookback bound.
func (a *Associator) caseName(text string, span model.CitationSpan) string {
	region, ok := a.nameRegion(text, span.Start)
	if !ok {
		return ""
	}

	// 1. "<Name> v. <Name>" ending exactly at the comma.
	if name := vAnchorName(region); name != "" {
		return cleanCandidate(name)
	}

	// 2. In re / Matter of / Ex parte anchors.
	if m := inRePattern.FindString(region); m != "" {
		return cleanCandidate(m)
	}

	// 3. Permissive fallback: trailing run of capitalized tokens.
	candidate := cleanCandidate(capitalizedSuffix(region))
	if candidate == "" || isStopwordPhrase(candidate) {
		return ""
	}
	return candidate
}

// vAnchorName recognizes "<Party> v. <Party>" ending at the region's end.
// The left party is the trailing run of capitalized (or connector) tokens
// before "v."; prose further left ("The rule comes from ...") is excluded.
// The right party stops at the first citation token: for the trailing span of
// a parallel cite the region reads "Smith, 171 Wn.2d 486, 493", and the lead
// citation with its pinpoints is not part of the name.
func vAnchorName(region string) string {
	locs := vSeparator.FindAllStringIndex(region+" ", -1)
	if len(locs) == 0 {
		return ""
	}
	// The last separator is the one adjacent to the citation.
	v := locs[len(locs)-1]

	right := rightParty(region[v[1]:])
	if right == "" || !startsUpper(right) {
		return ""
	}

	left := capitalizedSuffix(strings.TrimSpace(region[:v[0]]))
	if left == "" {
		return ""
	}

	return left + " v. " + right
}

// rightParty trims a right-party candidate at the first token that begins with
// a digit, the boundary where a name ends and a volume-reporter-page citation
// starts.
func rightParty(candidate string) string {
	fields := strings.Fields(candidate)
	end := len(fields)
	for i, tok := range fields {
		if tok[0] >= '0' && tok[0] <= '9' {
			end = i
			break
		}
	}
	if end == 0 {
		return ""
	}
	name := strings.Join(fields[:end], " ")
	return strings.TrimSuffix(name, ",")
}

// capitalizedSuffix returns the trailing run of tokens that look like part of
// a proper name: capitalized words, plus lowercase connectors between them.
func capitalizedSuffix(region string) string {
	fields := strings.Fields(region)
	if len(fields) == 0 {
		return ""
	}

	start := len(fields)
	for i := len(fields) - 1; i >= 0; i-- {
		tok := fields[i]
		if startsUpper(tok) || connectorTokens[strings.ToLower(tok)] {
			start = i
			continue
		}
		break
	}
	if start == len(fields) {
		return ""
	}

	// A name cannot begin with a connector.
	for start < len(fields) && connectorTokens[strings.ToLower(fields[start])] {
		start++
	}
	if start == len(fields) {
		return ""
	}

	return strings.Join(fields[start:], " ")
}

func startsUpper(tok string) bool {
	return tok != "" && tok[0] >= 'A' && tok[0] <= 'Z'
}

// nameRegion returns the candidate region ending at the comma immediately
// preceding the span, bounded by the lookback window. Leading citation
// signals are stripped here so every anchor sees a clean region.
func (a *Associator) nameRegion(text string, start int) (string, bool) {
	if start <= 0 {
		return "", false
	}

	// The name ends at a comma directly before the citation.
	i := start - 1
	for i >= 0 && (text[i] == ' ' || text[i] == '\t') {
		i--
	}
	if i < 0 || text[i] != ',' {
		return "", false
	}

	lo := i - a.lookback
	if lo < 0 {
		lo = 0
	}
	region := text[lo:i]

	// Do not cross sentence or clause boundaries inside the window.
	if cut := strings.LastIndexAny(region, ";:"); cut >= 0 {
		region = region[cut+1:]
	}
	if cut := lastSentenceBreak(region); cut >= 0 {
		region = region[cut+1:]
	}

	region = strings.TrimSpace(region)
	if region == "" {
		return "", false
	}
	return stripSignal(region), true
}

// lastSentenceBreak finds the last period that ends a sentence rather than an
// abbreviation ("v.", "Wn.", "Id.", initials): followed by a space and
// preceded by a lowercase word of reasonable length.
func lastSentenceBreak(region string) int {
	for i := len(region) - 1; i > 0; i-- {
		if region[i] != '.' {
			continue
		}
		if i+1 >= len(region) || region[i+1] != ' ' {
			continue
		}
		j := i - 1
		for j >= 0 && isWordByte(region[j]) {
			j--
		}
		word := region[j+1 : i]
		if len(word) >= 3 && word == strings.ToLower(word) {
			return i
		}
	}
	return -1
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// decisionYear finds the parenthesized 4-digit year within the clause around
// the citation. With several years present (case history markers), the one
// closest to the span wins.
func (a *Associator) decisionYear(text string, span model.CitationSpan) string {
	lo := span.Start - a.clause
	if lo < 0 {
		lo = 0
	}
	hi := span.End + a.clause
	if hi > len(text) {
		hi = len(text)
	}

	window := text[lo:hi]
	spanMid := (span.Start+span.End)/2 - lo

	best := ""
	bestDist := -1
	for _, m := range yearPattern.FindAllStringSubmatchIndex(window, -1) {
		if crossesClauseBreak(window, spanMid, m[0]) {
			continue
		}
		dist := m[0] - spanMid
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best = window[m[4]:m[5]]
			bestDist = dist
		}
	}
	return best
}

// crossesClauseBreak reports whether a semicolon separates the span from a
// candidate year, which would place the year in a different string cite
func crossesClauseBreak(window string, spanMid, yearPos int) bool {
	lo, hi := spanMid, yearPos
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(window) {
		hi = len(window)
	}
	return strings.ContainsRune(window[lo:hi], ';')
}

// stripSignal removes a leading citation signal from a candidate region
func stripSignal(region string) string {
	trimmed := strings.TrimSpace(region)
	lower := strings.ToLower(trimmed)
	for _, sig := range signalWords {
		ls := strings.ToLower(sig)
		if strings.HasPrefix(lower, ls) {
			rest := trimmed[len(sig):]
			return strings.TrimLeft(rest, " ,")
		}
	}
	return trimmed
}

// isStopwordPhrase reports whether every token of the candidate is a stopword
func isStopwordPhrase(candidate string) bool {
	fields := strings.Fields(candidate)
	if len(fields) == 0 {
		return true
	}
	for _, f := range fields {
		if !stopwords[strings.ToLower(strings.Trim(f, ".,"))] {
			return false
		}
	}
	return true
}

// cleanCandidate strips quotation and parenthetical contamination from a
// matched case-name candidate
func cleanCandidate(name string) string {
	name = strings.Trim(name, ` "'()[]`)
	name = strings.TrimSuffix(name, ",")
	return strings.TrimSpace(name)
}
