package model

import "time"

// Report is the complete result of one document run: every extracted citation
// with its extracted and canonical data side by side, plus the clusters
// grouping parallel citations. A report is always produced, even when
// verification entirely failed.
type Report struct {
	Source      string    `json:"source"`       // Source label: file, url, text
	ProcessedAt time.Time `json:"processed_at"` // When the run occurred
	Partial     bool      `json:"partial"`      // True when the run was cancelled or timed out

	Citations []CitationReport `json:"citations"` // Document order
	Clusters  []ClusterReport  `json:"clusters"`

	Stats ReportStats `json:"stats"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional LLM summary (separate, never affects results)
}

// CitationReport is the per-citation entry in the final payload
type CitationReport struct {
	Citation          string             `json:"citation"`
	NormalizedText    string             `json:"normalized_text"`
	ExtractedCaseName string             `json:"extracted_case_name,omitempty"`
	ExtractedDate     string             `json:"extracted_date,omitempty"`
	CanonicalName     string             `json:"canonical_name,omitempty"`
	CanonicalDate     string             `json:"canonical_date,omitempty"`
	CanonicalURL      string             `json:"canonical_url,omitempty"`
	Verified          bool               `json:"verified"`
	Confidence        float64            `json:"confidence"`
	Source            VerificationSource `json:"source"`
	ClusterID         string             `json:"cluster_id"`
}

// ClusterReport is the per-cluster entry in the final payload. DisplayName
// prefers canonical data from any verified member over extracted data.
type ClusterReport struct {
	ClusterID       string   `json:"cluster_id"`
	MemberCitations []string `json:"member_citations"`
	DisplayName     string   `json:"display_name,omitempty"`
}

// ReportStats summarizes a run
type ReportStats struct {
	SpansExtracted int `json:"spans_extracted"`
	Deduplicated   int `json:"deduplicated"`
	Clusters       int `json:"clusters"`
	Verified       int `json:"verified"`
	Unverified     int `json:"unverified"`
}

// LLMSummary contains an optional LLM-generated summary of the report.
// CRITICAL: this never affects verification results and is clearly separated.
type LLMSummary struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"`
	Model          string   `json:"model,omitempty"`
	StrictEvidence bool     `json:"strict_evidence"` // Whether citation enforcement was enabled
	SummaryMD      string   `json:"summary_md,omitempty"`
	Warnings       []string `json:"warnings,omitempty"` // Any issues (e.g., URL leaks detected)
}
