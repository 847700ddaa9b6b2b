package model

import "time"

// Config is the complete pipeline configuration.
// Loaded via viper from ~/.sourcerer/config.yaml, SOURCERER_* env vars,
// and CLI flags (highest priority).
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Proxies     ProxyConfig       `yaml:"proxies"`
	Providers   ProvidersConfig   `yaml:"providers"`
	LLM         LLMConfig         `yaml:"llm"`
	Gate        GateConfig        `yaml:"gate"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Domains     DomainsConfig     `yaml:"domains"`
	Cache       CacheConfig       `yaml:"cache"`
}

// HTTPConfig controls the shared HTTP behavior of all fetch paths
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls"`
	HTTPProxy     string        `yaml:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy"`
	RespectRobots bool          `yaml:"respect_robots"`
	RatePerDomain float64       `yaml:"rate_per_domain"` // requests/second
	RateBurst     int           `yaml:"rate_burst"`

	// RateOverrides maps a host to a custom requests/second budget,
	// overriding rate_per_domain for that host only.
	RateOverrides map[string]float64 `yaml:"rate_overrides,omitempty"`
}

// ProxyConfig lists the CORS-relay templates tried after a failed
// direct fetch. Each template contains exactly one %s which is
// replaced by the url-encoded target.
type ProxyConfig struct {
	Templates []string `yaml:"templates"`
}

// ProvidersConfig enables/disables adapters and caps their fan-out
type ProvidersConfig struct {
	Enabled      []Provider `yaml:"enabled"`
	PubMedMax    int        `yaml:"pubmed_max"`
	BioRxivMax   int        `yaml:"biorxiv_max"`
	FeedMax      int        `yaml:"feed_max"`
	PatentsMax   int        `yaml:"patents_max"`
	WebSearchMax int        `yaml:"websearch_max"`
	GenAgeMax    int        `yaml:"genagedb_max"`
	AIWebMax     int        `yaml:"ai_web_max"`
	FeedURL      string     `yaml:"feed_url"`
}

// LLMConfig selects and configures the model provider
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "gemini", "openai"
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// GateConfig bounds the final source list. The defaults below come
// from the original tuning; both are deliberately configurable.
type GateConfig struct {
	ReliabilityThreshold float64 `yaml:"reliability_threshold"`
	MaxSources           int     `yaml:"max_sources"`
}

// ConcurrencyConfig caps the per-stage fan-out
type ConcurrencyConfig struct {
	ExcavationWorkers int `yaml:"excavation_workers"`
	EnrichmentWorkers int `yaml:"enrichment_workers"`
}

// DomainsConfig holds the primary-domain allow-list and the preprint
// servers that expose a structured DOI lookup
type DomainsConfig struct {
	Primary         []string `yaml:"primary"`
	PreprintServers []string `yaml:"preprint_servers"`
}

// CacheConfig controls the fetched-body cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir,omitempty"`
	TTL     time.Duration `yaml:"ttl"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       20 * time.Second,
			UserAgent:     "Sourcerer/0.2 (+https://github.com/ipetrov/sourcerer)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: false,
			RatePerDomain: 2.0,
			RateBurst:     5,
		},
		Proxies: ProxyConfig{
			Templates: []string{
				"https://api.allorigins.win/raw?url=%s",
				"https://corsproxy.io/?%s",
				"https://api.codetabs.com/v1/proxy?quest=%s",
			},
		},
		Providers: ProvidersConfig{
			Enabled:      AllProviders(),
			PubMedMax:    5,
			BioRxivMax:   10,
			FeedMax:      50,
			PatentsMax:   10,
			WebSearchMax: 10,
			GenAgeMax:    5,
			AIWebMax:     20,
			FeedURL:      "https://connect.biorxiv.org/biorxiv_xml.php?subject=all",
		},
		LLM: LLMConfig{
			Provider:  "gemini",
			Model:     "gemini-2.0-flash",
			Timeout:   60,
			MaxTokens: 4096,
		},
		Gate: GateConfig{
			ReliabilityThreshold: 0.2,
			MaxSources:           60,
		},
		Concurrency: ConcurrencyConfig{
			ExcavationWorkers: 8,
			EnrichmentWorkers: 8,
		},
		Domains: DomainsConfig{
			Primary: []string{
				"pubmed.ncbi.nlm.nih.gov",
				"ncbi.nlm.nih.gov",
				"biorxiv.org",
				"medrxiv.org",
				"arxiv.org",
				"nature.com",
				"science.org",
				"sciencedirect.com",
				"cell.com",
				"thelancet.com",
				"nejm.org",
				"springer.com",
				"link.springer.com",
				"wiley.com",
				"onlinelibrary.wiley.com",
				"patents.google.com",
				"doi.org",
				"plos.org",
				"frontiersin.org",
				"oup.com",
				"academic.oup.com",
				"genomics.senescence.info",
				"open-genes.com",
			},
			PreprintServers: []string{"biorxiv.org", "medrxiv.org"},
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Minute,
		},
	}
}
