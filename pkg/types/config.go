// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every component that talks
// to an external metadata service.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "prettybib/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// Mailto is an optional contact address. Crossref routes requests that
	// carry one to its polite pool.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// MaxRetries bounds the number of retries after HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// Resolver names accepted in ResolveConfig.Order.
const (
	ResolverDBLP     = "dblp"
	ResolverDOI      = "doi"
	ResolverCrossref = "crossref"
)

// ResolveConfig selects and orders the metadata resolvers.
type ResolveConfig struct {
	// Order lists resolver names, tried first to last per entry.
	Order []string `json:"order" yaml:"order" mapstructure:"order"`
}

// FilterConfig lists the fields stripped from every written entry.
type FilterConfig struct {
	// Global fields are removed from every entry.
	Global []string `json:"global" yaml:"global" mapstructure:"global"`

	// PerType maps a lower-case entry type to additional fields to remove.
	PerType map[string][]string `json:"per_type" yaml:"per_type" mapstructure:"per_type"`

	// DropRedundantISSN removes issn when the entry also has a doi.
	DropRedundantISSN bool `json:"drop_redundant_issn" yaml:"drop_redundant_issn" mapstructure:"drop_redundant_issn"`
}

// CacheConfig controls the on-disk resolution cache.
type CacheConfig struct {
	// Enabled turns the cache on.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// TTL is how long a cached resolution stays valid. Zero never expires.
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// EnrichConfig holds settings for the enrich run itself.
type EnrichConfig struct {
	// Workers is the number of entries resolved concurrently (default 1).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// ReportPath, when set, receives a YAML report of per-entry outcomes.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty" mapstructure:"report_path"`
}

// Config groups all prettybib settings.
type Config struct {
	LogLevel string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	HTTP     HTTPConfig    `json:"http" yaml:"http" mapstructure:"http"`
	Resolve  ResolveConfig `json:"resolve" yaml:"resolve" mapstructure:"resolve"`
	Filter   FilterConfig  `json:"filter" yaml:"filter" mapstructure:"filter"`
	Cache    CacheConfig   `json:"cache" yaml:"cache" mapstructure:"cache"`
	Enrich   EnrichConfig  `json:"enrich" yaml:"enrich" mapstructure:"enrich"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "prettybib/0.1",
			MaxRetries:        3,
			RequestsPerSecond: 5,
		},
		Resolve: ResolveConfig{
			Order: []string{ResolverDBLP, ResolverDOI, ResolverCrossref},
		},
		Filter: FilterConfig{
			Global: []string{
				"file", "note", "annotation", "abstract", "keywords", "language",
				"editor", "copyright", "biburl", "bibsource", "timestamp",
				"eprinttype", "eprint",
			},
			PerType: map[string][]string{
				"article":       {"url", "urldate", "isbn"},
				"inproceedings": {"url", "urldate", "isbn", "address"},
			},
			DropRedundantISSN: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    ".prettybib/cache.db",
			TTL:     30 * 24 * time.Hour,
		},
		Enrich: EnrichConfig{
			Workers: 1,
		},
	}
}
