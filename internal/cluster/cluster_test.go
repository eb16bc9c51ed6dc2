package cluster

import (
	"strings"
	"testing"

	"github.com/veracite/veracite/internal/model"
)

func newTestBuilder() *Builder {
	return NewBuilder(model.DefaultConfig().Cluster)
}

func spanAt(text, needle string, opts func(*model.CitationSpan)) model.CitationSpan {
	start := strings.Index(text, needle)
	span := model.CitationSpan{
		RawText:        needle,
		NormalizedText: needle,
		Start:          start,
		End:            start + len(needle),
		Method:         model.MethodStructuredParser,
	}
	if opts != nil {
		opts(&span)
	}
	return span
}

func TestDeduplicate_NearIdenticalSpans(t *testing.T) {
	b := newTestBuilder()

	spans := []model.CitationSpan{
		{NormalizedText: "347 U.S. 483", Start: 30, End: 42, Method: model.MethodRegex},
		{NormalizedText: "347  U.S.\n483", Start: 32, End: 44, Method: model.MethodStructuredParser},
	}

	out := b.Deduplicate(spans)
	if len(out) != 1 {
		t.Fatalf("Expected 1 span after dedup, got %d", len(out))
	}
	if out[0].Method != model.MethodStructuredParser {
		t.Errorf("Expected the more specific method to survive, got %s", out[0].Method)
	}
}

func TestDeduplicate_DistantRepeatsKept(t *testing.T) {
	b := newTestBuilder()

	// The same citation cited twice in different places is two occurrences,
	// not a duplicate match.
	spans := []model.CitationSpan{
		{NormalizedText: "347 U.S. 483", Start: 30, End: 42, Method: model.MethodStructuredParser},
		{NormalizedText: "347 U.S. 483", Start: 500, End: 512, Method: model.MethodStructuredParser},
	}

	out := b.Deduplicate(spans)
	if len(out) != 2 {
		t.Errorf("Expected both occurrences kept, got %d", len(out))
	}
}

func TestBuild_ParallelCitationsCluster(t *testing.T) {
	b := newTestBuilder()
	text := "State v. Smith, 171 Wn.2d 486, 493, 256 P.3d 321 (2011)."

	spans := []model.CitationSpan{
		spanAt(text, "171 Wn.2d 486", func(s *model.CitationSpan) {
			s.Volume, s.Reporter, s.Page = "171", "Wn.2d", "486"
			s.Context = model.ExtractedContext{CaseName: "State v. Smith", DecisionYear: "2011"}
		}),
		spanAt(text, "256 P.3d 321", func(s *model.CitationSpan) {
			s.Volume, s.Reporter, s.Page = "256", "P.3d", "321"
		}),
	}

	clusters := b.Build(text, spans)
	if len(clusters) != 1 {
		t.Fatalf("Expected parallel citations in one cluster, got %d clusters", len(clusters))
	}
	if len(clusters[0].Members) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(clusters[0].Members))
	}

	// The unnamed parallel member inherits the cluster's case name.
	for _, m := range clusters[0].Members {
		if m.Context.CaseName != "State v. Smith" {
			t.Errorf("Expected inherited case name, got %q for %q", m.Context.CaseName, m.NormalizedText)
		}
	}
}

func TestBuild_DifferentCasesSeparateClusters(t *testing.T) {
	b := newTestBuilder()
	text := "Brown v. Board, 347 U.S. 483 (1954). Much later, Roe v. Wade, 410 U.S. 113 (1973)."

	spans := []model.CitationSpan{
		spanAt(text, "347 U.S. 483", func(s *model.CitationSpan) {
			s.Context.CaseName = "Brown v. Board"
		}),
		spanAt(text, "410 U.S. 113", func(s *model.CitationSpan) {
			s.Context.CaseName = "Roe v. Wade"
		}),
	}

	clusters := b.Build(text, spans)
	if len(clusters) != 2 {
		t.Fatalf("Expected 2 clusters, got %d", len(clusters))
	}
}

func TestBuild_ConflictingNamesNotParallel(t *testing.T) {
	b := newTestBuilder()
	// Adjacent citations in a string cite with distinct extracted names must
	// not be folded together.
	text := "Davis, 526 U.S. 629, Gebser, 524 U.S. 274."

	spans := []model.CitationSpan{
		spanAt(text, "526 U.S. 629", func(s *model.CitationSpan) { s.Context.CaseName = "Davis" }),
		spanAt(text, "524 U.S. 274", func(s *model.CitationSpan) { s.Context.CaseName = "Gebser" }),
	}

	clusters := b.Build(text, spans)
	if len(clusters) != 2 {
		t.Fatalf("Expected distinct names to stay separate, got %d clusters", len(clusters))
	}
}

func TestBuild_ShortFormByReporterVolume(t *testing.T) {
	b := newTestBuilder()
	text := "Ervin v. State, 169 Wn.2d 815 (2010). Other prose here. Ervin, 169 Wn.2d at 820."

	spans := []model.CitationSpan{
		spanAt(text, "169 Wn.2d 815", func(s *model.CitationSpan) {
			s.Volume, s.Reporter, s.Page = "169", "Wn.2d", "815"
			s.Context = model.ExtractedContext{CaseName: "Ervin v. State", DecisionYear: "2010"}
		}),
		spanAt(text, "169 Wn.2d at 820", func(s *model.CitationSpan) {
			s.Volume, s.Reporter, s.Page = "169", "Wn.2d", "820"
			s.ShortForm = true
			s.Context.CaseName = "Ervin"
		}),
	}

	clusters := b.Build(text, spans)
	if len(clusters) != 1 {
		t.Fatalf("Expected short form to join its full citation, got %d clusters", len(clusters))
	}
}

func TestBuild_IdFormJoinsPrecedingCluster(t *testing.T) {
	b := newTestBuilder()
	text := "Brown v. Board, 347 U.S. 483 (1954). The court agreed. Id. at 495."

	spans := []model.CitationSpan{
		spanAt(text, "347 U.S. 483", func(s *model.CitationSpan) {
			s.Context.CaseName = "Brown v. Board"
		}),
		spanAt(text, "Id. at 495", func(s *model.CitationSpan) {
			s.ShortForm = true
			s.Page = "495"
		}),
	}

	clusters := b.Build(text, spans)
	if len(clusters) != 1 {
		t.Fatalf("Expected Id. form to join the preceding cluster, got %d", len(clusters))
	}
}

func TestBuild_EverySpanInExactlyOneCluster(t *testing.T) {
	b := newTestBuilder()
	text := "Brown v. Board, 347 U.S. 483, 74 S. Ct. 686 (1954). See also 2011 WL 1234567."

	spans := []model.CitationSpan{
		spanAt(text, "347 U.S. 483", func(s *model.CitationSpan) {
			s.Context.CaseName = "Brown v. Board"
			s.Volume, s.Reporter, s.Page = "347", "U.S.", "483"
		}),
		spanAt(text, "74 S. Ct. 686", func(s *model.CitationSpan) {
			s.Volume, s.Reporter, s.Page = "74", "S. Ct.", "686"
		}),
		spanAt(text, "2011 WL 1234567", func(s *model.CitationSpan) {
			s.Method = model.MethodRegex
			s.Family = "westlaw"
		}),
	}

	clusters := b.Build(text, spans)

	total := 0
	for _, c := range clusters {
		total += len(c.Members)
	}
	if total != len(spans) {
		t.Errorf("Union of clusters must equal the span set: %d members vs %d spans", total, len(spans))
	}
}

func TestMergeByCanonicalURL(t *testing.T) {
	clusters := []model.Cluster{
		{ID: "cluster-1", Members: []model.CitationSpan{{NormalizedText: "347 U.S. 483"}}},
		{ID: "cluster-2", Members: []model.CitationSpan{{NormalizedText: "74 S. Ct. 686"}}},
		{ID: "cluster-3", Members: []model.CitationSpan{{NormalizedText: "410 U.S. 113"}}},
	}

	urls := map[string]string{
		"347 U.S. 483":  "https://www.courtlistener.com/opinion/105221/brown/",
		"74 S. Ct. 686": "https://www.courtlistener.com/opinion/105221/brown/",
		"410 U.S. 113":  "https://www.courtlistener.com/opinion/108713/roe/",
	}

	merged := MergeByCanonicalURL(clusters, func(s model.CitationSpan) string {
		return urls[s.NormalizedText]
	})

	if len(merged) != 2 {
		t.Fatalf("Expected verification-time merge to 2 clusters, got %d", len(merged))
	}
	if len(merged[0].Members) != 2 {
		t.Errorf("Expected merged cluster to hold both parallel citations, got %d", len(merged[0].Members))
	}
}
