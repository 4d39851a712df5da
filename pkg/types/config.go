// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "refcheck/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CrossrefConfig holds settings for the Crossref evidence client.
type CrossrefConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent in the mailto header for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// PubMedConfig holds settings for the NCBI E-utilities client. An empty
// APIKey disables the PubMed enrichment entirely.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "qwen-turbo").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API. Empty means the
	// classifier runs on its regex fallback only.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// DiagnosisConfig holds settings for the classifier fallback stage.
type DiagnosisConfig struct {
	AIConfig   `yaml:",inline"`
	HTTPConfig `yaml:",inline"`
}

// PipelineConfig holds pacing settings for a resolution run.
type PipelineConfig struct {
	// RequestDelay is the mandatory pause between consecutive references
	// (default 1s). A random jitter of up to half the delay is added.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// CooldownEvery is the number of references between extended pauses
	// (default 100). Negative disables the cool-down.
	CooldownEvery int `json:"cooldown_every" yaml:"cooldown_every"`

	// CooldownPeriod is the length of the extended pause (default 60s).
	CooldownPeriod time.Duration `json:"cooldown_period" yaml:"cooldown_period"`
}

// AdmissionConfig holds settings for the shared admission controller.
type AdmissionConfig struct {
	// Capacity is the number of runs that may execute concurrently
	// (default 3).
	Capacity int `json:"capacity" yaml:"capacity"`

	// StaleAfter is how long the oldest run may hold a token before it is
	// reclaimed as abandoned (default 3h).
	StaleAfter time.Duration `json:"stale_after" yaml:"stale_after"`
}

// StoreConfig holds settings for the incremental store.
type StoreConfig struct {
	// DBPath is the SQLite database file (default "refcheck.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}

// CheckConfig groups all stage configurations for a verification run.
type CheckConfig struct {
	Crossref  CrossrefConfig  `json:"crossref" yaml:"crossref"`
	PubMed    PubMedConfig    `json:"pubmed" yaml:"pubmed"`
	Diagnosis DiagnosisConfig `json:"diagnosis" yaml:"diagnosis"`
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline"`
	Admission AdmissionConfig `json:"admission" yaml:"admission"`
	Store     StoreConfig     `json:"store" yaml:"store"`
}
