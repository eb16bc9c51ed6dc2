// Package pipeline orchestrates one document run: normalize, extract,
// associate, cluster, verify, report. Every stage is deterministic except
// verification, which talks to external sources through the verify chain.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veracite/veracite/internal/assoc"
	"github.com/veracite/veracite/internal/cache"
	"github.com/veracite/veracite/internal/cluster"
	"github.com/veracite/veracite/internal/extract"
	"github.com/veracite/veracite/internal/llm"
	"github.com/veracite/veracite/internal/model"
	"github.com/veracite/veracite/internal/normalize"
	"github.com/veracite/veracite/internal/verify"
)

// ProgressFunc receives monotone progress updates during a run
type ProgressFunc func(pct int, step string)

// Pipeline orchestrates the complete check process
type Pipeline struct {
	extractor  *extract.Extractor
	associator *assoc.Associator
	clusterer  *cluster.Builder
	verifier   *verify.Verifier
	renderer   *Renderer
	summarizer *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	config     *model.Config
	log        *zap.Logger
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, log *zap.Logger) *Pipeline {
	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			log.Warn("failed to initialize LLM provider", zap.Error(err))
		} else {
			summarizer = s
		}
	}

	var verifier *verify.Verifier
	if cfg.Verify.Enabled {
		var store cache.Cache
		if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
			store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		}
		verifier = verify.NewVerifier(cfg.Verify, cfg.HTTP, store, cfg.Cache, log)
	}

	return &Pipeline{
		extractor:  extract.NewExtractor(log),
		associator: assoc.NewAssociator(cfg.Assoc),
		clusterer:  cluster.NewBuilder(cfg.Cluster),
		verifier:   verifier,
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		summarizer: summarizer,
		config:     cfg,
		log:        log,
	}
}

// Check runs the full pipeline over raw document bytes. The source label
// identifies the document in the report. A report is returned even when the
// context is cancelled mid-verification; it is then marked Partial, with
// unreached citations left unverified.
func (p *Pipeline) Check(ctx context.Context, source string, raw []byte, progress ProgressFunc) (*model.Report, error) {
	if progress == nil {
		progress = func(int, string) {}
	}

	if max := p.config.Extract.MaxInputBytes; max > 0 && len(raw) > max {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", model.ErrInputTooLarge, len(raw), max)
	}
	if bytes.ContainsRune(raw, 0) {
		return nil, fmt.Errorf("%w: binary content", model.ErrInputUnreadable)
	}

	// 1. Normalize
	text := string(raw)
	if normalize.LooksLikeHTML(text) {
		text = normalize.StripHTML(text)
	}
	text = normalize.Normalize(text)
	progress(10, "normalize")

	// 2. Extract citation spans
	spans := p.extractor.Extract(text)
	extracted := len(spans)
	progress(25, "extract")

	// 3. Associate prose context
	for i := range spans {
		spans[i].Context = p.associator.Associate(text, spans[i])
	}
	progress(35, "associate")

	// 4. Deduplicate and cluster
	spans = p.clusterer.Deduplicate(spans)
	clusters := p.clusterer.Build(text, spans)
	progress(45, "cluster")

	// 5. Verify concurrently, one chain traversal per unique citation
	partial := p.runVerification(ctx, spans, progress)

	// 6. Merge clusters that verification proved to be the same case
	if p.verifier != nil {
		clusters = cluster.MergeByCanonicalURL(clusters, func(span model.CitationSpan) string {
			return p.verifier.CanonicalURL(span.NormalizedText)
		})
	}
	progress(90, "merge")

	report := p.buildReport(source, spans, clusters, extracted, partial)

	// 7. Generate LLM summary if enabled (AFTER verification, never affects results)
	if p.summarizer != nil && p.summarizer.IsEnabled() && !partial {
		llmSummary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			p.log.Warn("LLM summary generation failed", zap.Error(err))
		} else if llmSummary != nil {
			report.LLM = llmSummary
		}
	}
	progress(100, "done")

	return report, nil
}

// CheckFile reads a document from disk and runs the pipeline on it
func (p *Pipeline) CheckFile(ctx context.Context, path string) (*model.Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInputUnreadable, err)
	}
	return p.Check(ctx, path, raw, nil)
}

// runVerification resolves every unique citation through the verify chain
// with bounded concurrency. Returns true when the context ended before all
// citations were reached.
func (p *Pipeline) runVerification(ctx context.Context, spans []model.CitationSpan, progress ProgressFunc) bool {
	if p.verifier == nil || len(spans) == 0 {
		progress(85, "verify")
		return false
	}

	// Unique citations, first occurrence order.
	seen := make(map[string]bool)
	var unique []model.CitationSpan
	for _, s := range spans {
		if s.ShortForm || seen[s.NormalizedText] {
			continue
		}
		seen[s.NormalizedText] = true
		unique = append(unique, s)
	}

	workers := p.config.Verify.Concurrency
	if workers <= 0 {
		workers = 1
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		done    int
		partial bool
	)
	sem := make(chan struct{}, workers)

	for _, span := range unique {
		// Cancellation checkpoint between dispatches.
		if ctx.Err() != nil {
			partial = true
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(s model.CitationSpan) {
			defer wg.Done()
			defer func() { <-sem }()

			p.verifier.Verify(ctx, s.NormalizedText, s.Context)

			mu.Lock()
			done++
			pct := 45 + done*40/len(unique)
			mu.Unlock()
			progress(pct, "verify")
		}(span)
	}
	wg.Wait()

	if ctx.Err() != nil {
		partial = true
	}
	return partial
}

// buildReport assembles the final payload from the run's artifacts
func (p *Pipeline) buildReport(source string, spans []model.CitationSpan, clusters []model.Cluster, extracted int, partial bool) *model.Report {
	clusterOf := make(map[int]string) // span start offset -> cluster ID
	for _, c := range clusters {
		for _, m := range c.Members {
			clusterOf[m.Start] = c.ID
		}
	}

	unverified := model.Unverified()
	citations := make([]model.CitationReport, 0, len(spans))
	verifiedCount := 0
	for _, s := range spans {
		result := unverified
		if p.verifier != nil {
			if r := p.verifier.Result(s.NormalizedText); r != nil {
				result = r
			}
		}
		if result.Verified {
			verifiedCount++
		}

		citations = append(citations, model.CitationReport{
			Citation:          s.RawText,
			NormalizedText:    s.NormalizedText,
			ExtractedCaseName: s.Context.CaseName,
			ExtractedDate:     s.Context.DecisionYear,
			CanonicalName:     result.CanonicalName,
			CanonicalDate:     result.CanonicalDate,
			CanonicalURL:      result.CanonicalURL,
			Verified:          result.Verified,
			Confidence:        result.Confidence,
			Source:            result.Source,
			ClusterID:         clusterOf[s.Start],
		})
	}

	clusterReports := make([]model.ClusterReport, 0, len(clusters))
	for _, c := range clusters {
		members := make([]string, 0, len(c.Members))
		display := ""
		for _, m := range c.Members {
			members = append(members, m.NormalizedText)
			if display == "" && p.verifier != nil {
				if r := p.verifier.Result(m.NormalizedText); r != nil && r.Verified {
					display = r.CanonicalName
				}
			}
		}
		if display == "" {
			display = c.RepresentativeName()
		}
		clusterReports = append(clusterReports, model.ClusterReport{
			ClusterID:       c.ID,
			MemberCitations: members,
			DisplayName:     display,
		})
	}

	return &model.Report{
		Source:      source,
		ProcessedAt: time.Now().UTC(),
		Partial:     partial,
		Citations:   citations,
		Clusters:    clusterReports,
		Stats: model.ReportStats{
			SpansExtracted: extracted,
			Deduplicated:   extracted - len(spans),
			Clusters:       len(clusters),
			Verified:       verifiedCount,
			Unverified:     len(spans) - verifiedCount,
		},
	}
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("Wrote Markdown: %s\n", mdPath)
		}
	}

	// LLM summary goes to a separate file so generated content never mixes
	// with verification output.
	if report.LLM != nil && report.LLM.Enabled && mdPath != "" {
		llmMdPath := trimMarkdownSuffix(mdPath) + ".llm.md"
		if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmMdPath); err != nil {
			p.log.Warn("failed to write LLM summary", zap.Error(err))
		} else if verbose {
			fmt.Printf("Wrote LLM Summary: %s\n", llmMdPath)
		}
	}

	p.renderer.RenderSummary(report)

	return nil
}
