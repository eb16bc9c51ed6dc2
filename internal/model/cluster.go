package model

// Cluster groups citation spans believed to refer to the same underlying case
// (parallel reporters, pinpoint repeats, short-form back-references).
// Member order is document order. Within one run clusters only grow through
// merges; they are never split.
type Cluster struct {
	ID      string         `json:"id"`
	Members []CitationSpan `json:"members"`
}

// RepresentativeName derives the cluster's case name from its members'
// extracted contexts: the most frequent non-empty name wins, ties broken by
// document order.
func (c *Cluster) RepresentativeName() string {
	counts := make(map[string]int)
	order := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		name := m.Context.CaseName
		if name == "" {
			continue
		}
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}

	best := ""
	bestCount := 0
	for _, name := range order {
		if counts[name] > bestCount {
			best = name
			bestCount = counts[name]
		}
	}
	return best
}

// RepresentativeYear returns the first non-empty extracted decision year
func (c *Cluster) RepresentativeYear() string {
	for _, m := range c.Members {
		if m.Context.DecisionYear != "" {
			return m.Context.DecisionYear
		}
	}
	return ""
}

// Absorb appends another cluster's members, preserving document order.
// Used for verification-time merges; membership never shrinks.
func (c *Cluster) Absorb(other *Cluster) {
	c.Members = append(c.Members, other.Members...)
}
