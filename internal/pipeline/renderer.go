package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/veracite/veracite/internal/model"
)

// Renderer writes reports as JSON, Markdown, and a stdout summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	b.WriteString("# Citation Verification Report\n\n")
	b.WriteString(fmt.Sprintf("- Source: %s\n", report.Source))
	b.WriteString(fmt.Sprintf("- Processed: %s\n", report.ProcessedAt.Format("2006-01-02 15:04:05 MST")))
	if report.Partial {
		b.WriteString("- **Partial run**: verification was interrupted; unreached citations are unverified\n")
	}
	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Extracted | Deduplicated | Clusters | Verified | Unverified |\n")
	b.WriteString("|---|---|---|---|---|\n")
	b.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d |\n\n",
		report.Stats.SpansExtracted, report.Stats.Deduplicated,
		report.Stats.Clusters, report.Stats.Verified, report.Stats.Unverified))

	b.WriteString("## Citations\n\n")
	for _, c := range report.Citations {
		b.WriteString(fmt.Sprintf("### %s\n\n", c.Citation))
		if c.Verified {
			b.WriteString(fmt.Sprintf("- Verified: yes (%s, confidence %.2f)\n", c.Source, c.Confidence))
			b.WriteString(fmt.Sprintf("- Canonical: %s", c.CanonicalName))
			if c.CanonicalDate != "" {
				b.WriteString(fmt.Sprintf(" (%s)", c.CanonicalDate))
			}
			b.WriteString("\n")
			if c.CanonicalURL != "" {
				b.WriteString(fmt.Sprintf("- URL: %s\n", c.CanonicalURL))
			}
		} else {
			b.WriteString("- Verified: **no**\n")
		}
		if c.ExtractedCaseName != "" {
			b.WriteString(fmt.Sprintf("- Cited in text as: %s", c.ExtractedCaseName))
			if c.ExtractedDate != "" {
				b.WriteString(fmt.Sprintf(" (%s)", c.ExtractedDate))
			}
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("- Cluster: %s\n\n", c.ClusterID))
	}

	if len(report.Clusters) > 0 {
		b.WriteString("## Clusters\n\n")
		for _, cl := range report.Clusters {
			name := cl.DisplayName
			if name == "" {
				name = "(unnamed)"
			}
			b.WriteString(fmt.Sprintf("- %s: %s [%s]\n", cl.ClusterID, name,
				strings.Join(cl.MemberCitations, "; ")))
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\nGenerated by Veracite. Verification reflects source availability at run time.\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderLLMMarkdown writes the pre-rendered LLM summary document
func (r *Renderer) RenderLLMMarkdown(markdown, path string) error {
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderSummary prints a one-screen run summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Printf("\n%s\n", report.Source)
	fmt.Printf("  citations: %d (%d clusters)\n", len(report.Citations), report.Stats.Clusters)
	fmt.Printf("  verified:  %d\n", report.Stats.Verified)
	if report.Stats.Unverified > 0 {
		fmt.Printf("  UNVERIFIED: %d\n", report.Stats.Unverified)
		for _, c := range report.Citations {
			if !c.Verified {
				fmt.Printf("    - %s\n", c.Citation)
			}
		}
	}
	if report.Partial {
		fmt.Println("  (partial run: verification interrupted)")
	}
}

// trimMarkdownSuffix strips a trailing .md extension for derived file names
func trimMarkdownSuffix(path string) string {
	return strings.TrimSuffix(path, ".md")
}
