package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/veracite/veracite/internal/model"
)

// Summarizer wraps a Provider and produces the optional model.LLMSummary for
// a report. It is strictly additive: verification results are computed before
// the summarizer runs and are never modified by it.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer from configuration. An empty provider
// name yields a disabled summarizer, not an error.
func NewSummarizer(config Config) (*Summarizer, error) {
	var provider Provider
	switch strings.ToLower(config.Provider) {
	case "openai":
		p, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		provider = p
	case "":
		provider = nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", config.Provider)
	}

	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider's name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary produces the LLM summary for a finished report. Failures
// degrade to a summary object carrying warnings; they never fail the run.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if s.provider == nil {
		return nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		return &model.LLMSummary{
			Enabled:        false,
			Provider:       s.provider.Name(),
			StrictEvidence: s.config.StrictEvidence,
			Warnings:       []string{fmt.Sprintf("Provider %s is not available", s.provider.Name())},
		}, nil
	}

	evidenceURLs := verifiedURLs(report)

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:       report,
		EvidenceURLs: evidenceURLs,
		Model:        s.config.Model,
		MaxTokens:    s.config.MaxTokens,
	})
	if err != nil {
		return &model.LLMSummary{
			Enabled:        true,
			Provider:       s.provider.Name(),
			Model:          s.config.Model,
			StrictEvidence: s.config.StrictEvidence,
			Warnings:       []string{fmt.Sprintf("Summary generation failed: %v", err)},
		}, nil
	}

	return &model.LLMSummary{
		Enabled:        true,
		Provider:       s.provider.Name(),
		Model:          resp.Model,
		StrictEvidence: s.config.StrictEvidence,
		SummaryMD:      resp.Summary,
		Warnings: []string{
			fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
			fmt.Sprintf("Verified %d citations in summary against allowlist", len(resp.CitedURLs)),
		},
	}, nil
}

// verifiedURLs collects the canonical URLs of verified citations: the only
// URLs the LLM is permitted to cite.
func verifiedURLs(report model.Report) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, c := range report.Citations {
		if !c.Verified || c.CanonicalURL == "" || seen[c.CanonicalURL] {
			continue
		}
		seen[c.CanonicalURL] = true
		urls = append(urls, c.CanonicalURL)
	}
	return urls
}

// RenderSeparateMarkdown renders the LLM summary as a standalone markdown
// document, clearly labeled as generated content.
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** This summary was produced by a language model.\n")
	b.WriteString("> All verification results were determined independently of it.\n\n")
	b.WriteString(fmt.Sprintf("- Provider: %s\n", summary.Provider))
	b.WriteString(fmt.Sprintf("- Model: %s\n", summary.Model))
	b.WriteString(fmt.Sprintf("- Strict Evidence Mode: %t\n\n", summary.StrictEvidence))

	if summary.SummaryMD != "" {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	} else {
		b.WriteString("No summary generated.\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			b.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}

	return b.String()
}
