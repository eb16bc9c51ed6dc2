package model

import "time"

// Config holds the full engine configuration. Every empirically tuned
// threshold (async size split, dedupe epsilon, year tolerance, parallel-gap
// width) is configuration, not a hardcoded invariant.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Assoc   AssocConfig   `yaml:"assoc" mapstructure:"assoc"`
	Cluster ClusterConfig `yaml:"cluster" mapstructure:"cluster"`
	Verify  VerifyConfig  `yaml:"verify" mapstructure:"verify"`
	Job     JobConfig     `yaml:"job" mapstructure:"job"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// HTTPConfig configures outbound HTTP for verification providers
type HTTPConfig struct {
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent   string        `yaml:"user_agent" mapstructure:"user_agent"`
	InsecureTLS bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy   string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy  string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy     string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig configures the long-lived verification cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ExtractConfig configures the citation extractor
type ExtractConfig struct {
	// MaxInputBytes rejects oversized documents before the pipeline starts.
	MaxInputBytes int `yaml:"max_input_bytes" mapstructure:"max_input_bytes"`
}

// AssocConfig configures the context associator
type AssocConfig struct {
	// LookbackChars bounds the case-name candidate region before a citation.
	LookbackChars int `yaml:"lookback_chars" mapstructure:"lookback_chars"`
	// ClauseChars bounds the year search window around a citation.
	ClauseChars int `yaml:"clause_chars" mapstructure:"clause_chars"`
}

// ClusterConfig configures deduplication and parallel-citation grouping
type ClusterConfig struct {
	// DedupeEpsilon is the max offset distance for two identical spans to be
	// considered the same match found twice.
	DedupeEpsilon int `yaml:"dedupe_epsilon" mapstructure:"dedupe_epsilon"`
	// MaxParallelGap is the max distance between adjacent spans still treated
	// as parallel citations of one case.
	MaxParallelGap int `yaml:"max_parallel_gap" mapstructure:"max_parallel_gap"`
}

// VerifyConfig configures the verification orchestrator
type VerifyConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	CourtListenerURL   string `yaml:"courtlistener_url" mapstructure:"courtlistener_url"`
	CourtListenerToken string `yaml:"courtlistener_token" mapstructure:"courtlistener_token"`

	// WebDomains is the allow-list for the web-search fallback step.
	WebDomains []string `yaml:"web_domains" mapstructure:"web_domains"`

	// RequestsPerSecond and Concurrency are per-provider caps.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Concurrency       int     `yaml:"concurrency" mapstructure:"concurrency"`

	// Retry policy applied uniformly across the fallback chain.
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff" mapstructure:"backoff"`

	// YearToleranceYears flags canonical/extracted year gaps beyond this as
	// suspicious (lower confidence, never discarded).
	YearToleranceYears int `yaml:"year_tolerance_years" mapstructure:"year_tolerance_years"`
}

// JobConfig configures the task coordinator
type JobConfig struct {
	// AsyncThresholdBytes: documents at or above this size run as queued jobs.
	AsyncThresholdBytes int `yaml:"async_threshold_bytes" mapstructure:"async_threshold_bytes"`
	// MaxWallClock fails a job that exceeds its budget.
	MaxWallClock time.Duration `yaml:"max_wall_clock" mapstructure:"max_wall_clock"`
	// Workers is the size of the job worker pool.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LLMConfig configures the optional LLM summary
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // "" disables
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"-"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	StrictEvidence bool   `yaml:"strict_evidence" mapstructure:"strict_evidence"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "Veracite/0.2 (+https://github.com/veracite/veracite)",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // resolved to ~/.veracite/cache at startup
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Extract: ExtractConfig{
			MaxInputBytes: 10_000_000,
		},
		Assoc: AssocConfig{
			LookbackChars: 400,
			ClauseChars:   120,
		},
		Cluster: ClusterConfig{
			DedupeEpsilon:  8,
			MaxParallelGap: 40,
		},
		Verify: VerifyConfig{
			Enabled:          true,
			CourtListenerURL: "https://www.courtlistener.com",
			WebDomains: []string{
				"law.justia.com",
				"caselaw.findlaw.com",
				"casetext.com",
				"scholar.google.com",
				"www.courtlistener.com",
			},
			RequestsPerSecond:  2,
			Concurrency:        4,
			MaxAttempts:        3,
			Backoff:            500 * time.Millisecond,
			YearToleranceYears: 5,
		},
		Job: JobConfig{
			AsyncThresholdBytes: 100_000,
			MaxWallClock:        10 * time.Minute,
			Workers:             2,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		LLM: LLMConfig{
			Provider:       "", // Disabled by default
			Model:          "",
			MaxTokens:      1000,
			StrictEvidence: true, // Always enforce
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
