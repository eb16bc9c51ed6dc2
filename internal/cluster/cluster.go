// Package cluster groups citation spans that denote the same underlying case:
// parallel reporter citations, pinpoint repeats, and short-form
// back-references. Within one run cluster membership only grows (merges),
// never shrinks.
package cluster

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/veracite/veracite/internal/model"
)

// parallelGap matches the text allowed between two parallel citations of one
// case: punctuation, whitespace, and pinpoint page numbers only.
var parallelGap = regexp.MustCompile(`^[\s,;]*(?:\d{1,5}[\s,;]*)*$`)

// Builder groups deduplicated spans into clusters
type Builder struct {
	cfg model.ClusterConfig
}

// NewBuilder creates a cluster builder
func NewBuilder(cfg model.ClusterConfig) *Builder {
	if cfg.DedupeEpsilon <= 0 {
		cfg.DedupeEpsilon = 8
	}
	if cfg.MaxParallelGap <= 0 {
		cfg.MaxParallelGap = 40
	}
	return &Builder{cfg: cfg}
}

// Build groups spans into clusters. Spans must be deduplicated and in
// document order. Every span lands in exactly one cluster; singleton clusters
// are allowed. Members of an adjacency cluster with no extracted context
// inherit the cluster's representative name so parallel reporters share one
// case name.
func (b *Builder) Build(text string, spans []model.CitationSpan) []model.Cluster {
	var clusters []model.Cluster

	for _, span := range spans {
		if idx := b.joinExisting(text, clusters, span); idx >= 0 {
			clusters[idx].Members = append(clusters[idx].Members, span)
			continue
		}
		clusters = append(clusters, model.Cluster{
			ID:      fmt.Sprintf("cluster-%d", len(clusters)+1),
			Members: []model.CitationSpan{span},
		})
	}

	for i := range clusters {
		fillInheritedContext(&clusters[i])
	}

	return clusters
}

// joinExisting returns the index of the cluster the span belongs to, or -1
func (b *Builder) joinExisting(text string, clusters []model.Cluster, span model.CitationSpan) int {
	if len(clusters) == 0 {
		return -1
	}

	// (a) Parallel citation: adjacent to the last cluster's last member,
	// separated only by punctuation/whitespace/pinpoints, with a matching or
	// absent case name.
	last := len(clusters) - 1
	tail := clusters[last].Members[len(clusters[last].Members)-1]
	if b.isParallel(text, tail, span) {
		return last
	}

	if span.ShortForm {
		return b.matchShortForm(clusters, span)
	}

	return -1
}

// isParallel reports whether next is a parallel citation of prev's case
func (b *Builder) isParallel(text string, prev, next model.CitationSpan) bool {
	if next.Start < prev.End {
		return false
	}
	gap := next.Start - prev.End
	if gap > b.cfg.MaxParallelGap {
		return false
	}
	if !parallelGap.MatchString(text[prev.End:next.Start]) {
		return false
	}

	// Same extracted name, or the later span has none and inherits.
	prevName, nextName := prev.Context.CaseName, next.Context.CaseName
	return nextName == "" || prevName == "" || prevName == nextName
}

// matchShortForm resolves a short-form back-reference to an earlier cluster
func (b *Builder) matchShortForm(clusters []model.Cluster, span model.CitationSpan) int {
	// "Id. at N" carries no reporter: it refers to the immediately preceding
	// citation.
	if span.Reporter == "" && span.Context.CaseName == "" {
		return len(clusters) - 1
	}

	// "Ervin, 169 Wn.2d at 820": match by reporter+volume against a full
	// citation seen earlier.
	if span.Reporter != "" {
		for i := len(clusters) - 1; i >= 0; i-- {
			for _, m := range clusters[i].Members {
				if !m.ShortForm && m.Reporter == span.Reporter && m.Volume == span.Volume {
					return i
				}
			}
		}
	}

	// Fall back to case-name token overlap.
	if span.Context.CaseName != "" {
		if i := b.matchByNameToken(clusters, span.Context.CaseName); i >= 0 {
			return i
		}
	}

	return -1
}

// matchByNameToken finds the most recent cluster whose representative name
// shares a meaningful token with the short-form name
func (b *Builder) matchByNameToken(clusters []model.Cluster, name string) int {
	tokens := meaningfulTokens(name)
	if len(tokens) == 0 {
		return -1
	}

	for i := len(clusters) - 1; i >= 0; i-- {
		rep := meaningfulTokens(clusters[i].RepresentativeName())
		for _, t := range tokens {
			for _, r := range rep {
				if t == r {
					return i
				}
			}
		}
	}
	return -1
}

// nameStopwords are tokens too common to identify a case on their own
var nameStopwords = map[string]bool{
	"v": true, "v.": true, "the": true, "of": true, "in": true, "re": true,
	"state": true, "people": true, "united": true, "states": true,
	"commonwealth": true, "matter": true, "ex": true, "parte": true,
}

// meaningfulTokens returns the lowercased non-stopword tokens of a case name
func meaningfulTokens(name string) []string {
	var out []string
	for _, f := range strings.Fields(name) {
		tok := strings.ToLower(strings.Trim(f, ".,'\""))
		if tok == "" || nameStopwords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// fillInheritedContext propagates the representative name and year to members
// that have no extracted context of their own (parallel reporters cite one
// case; the prose names it once).
func fillInheritedContext(c *model.Cluster) {
	name := c.RepresentativeName()
	year := c.RepresentativeYear()
	for i := range c.Members {
		if c.Members[i].Context.CaseName == "" {
			c.Members[i].Context.CaseName = name
		}
		if c.Members[i].Context.DecisionYear == "" {
			c.Members[i].Context.DecisionYear = year
		}
	}
}

// MergeByCanonicalURL merges clusters whose members resolved to the same
// canonical case at verification time. Cluster ids of survivors are stable;
// merged members keep document order within each surviving cluster.
func MergeByCanonicalURL(clusters []model.Cluster, canonicalURL func(span model.CitationSpan) string) []model.Cluster {
	byURL := make(map[string]int)
	var out []model.Cluster

	for _, c := range clusters {
		url := ""
		for _, m := range c.Members {
			if u := canonicalURL(m); u != "" {
				url = u
				break
			}
		}

		if url != "" {
			if idx, seen := byURL[url]; seen {
				out[idx].Absorb(&c)
				continue
			}
			byURL[url] = len(out)
		}
		out = append(out, c)
	}

	return out
}
