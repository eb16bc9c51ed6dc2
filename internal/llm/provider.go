package llm

import (
	"context"
	"fmt"

	"github.com/veracite/veracite/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a summary of the report with strict evidence mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the verification report to summarize
	Report model.Report

	// EvidenceURLs is the STRICT allowlist of URLs the LLM can cite: only
	// canonical URLs returned by verification. This prevents hallucination -
	// the LLM cannot reference any URL not in this list.
	EvidenceURLs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// CitedURLs are the URLs the LLM actually cited (for verification)
	CitedURLs []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the provider
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictEvidence enforces the URL allowlist (should always be true)
	StrictEvidence bool

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Model:          "",
		Timeout:        30,
		StrictEvidence: true, // CRITICAL: Always enforce
		MaxTokens:      1000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = modelConfig.Provider
	cfg.Model = modelConfig.Model
	cfg.APIKey = modelConfig.APIKey
	cfg.BaseURL = modelConfig.BaseURL
	cfg.StrictEvidence = modelConfig.StrictEvidence
	if modelConfig.MaxTokens > 0 {
		cfg.MaxTokens = modelConfig.MaxTokens
	}
	return cfg
}

// BuildPrompt constructs the default prompt for summarization with strict evidence mode
func BuildPrompt(report model.Report, evidenceURLs []string) string {
	prompt := fmt.Sprintf(`You are summarizing a citation verification report. The engine checks whether legal citations resolve to real cases in authoritative sources - it NEVER judges the legal merit of any argument.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. If a citation is unverified, state that explicitly. Never guess which case it might refer to.
4. Focus on VERIFICATION OUTCOMES, not legal merit. Use phrases like:
   - "X of Y citations were verified against..."
   - "No authoritative record was found for..."
   - "The cited year differs from the court record for..."
5. Never say a citation is "fake" or "fabricated" - only that it could not be verified.

Report Summary:
- Source: %s
- Citations Extracted: %d
- Citation Clusters: %d
- Verified: %d
- Unverified: %d

Flagged Citations:
`, joinURLs(evidenceURLs), report.Source, report.Stats.SpansExtracted, report.Stats.Clusters, report.Stats.Verified, report.Stats.Unverified)

	// Add up to 3 flagged citations
	flagged := 0
	for _, c := range report.Citations {
		if c.Verified {
			continue
		}
		prompt += fmt.Sprintf("- %s (unverified)\n", c.Citation)
		flagged++
		if flagged >= 3 {
			break
		}
	}
	if flagged == 0 {
		prompt += "(none)\n"
	}

	prompt += "\nProvide a 3-4 sentence summary focusing on verification outcomes, not legal merit."

	return prompt
}

// Helper functions

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No evidence URLs available)"
	}
	result := ""
	for i, url := range urls {
		if i >= 20 { // Limit to first 20 to avoid token bloat
			result += fmt.Sprintf("\n... and %d more URLs", len(urls)-20)
			break
		}
		result += fmt.Sprintf("\n- %s", url)
	}
	return result
}
