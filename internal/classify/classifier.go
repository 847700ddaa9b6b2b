// Package classify labels search results as primary (known
// scholarly/preprint/patent hosts) or secondary (everything else).
package classify

import (
	"net/url"
	"strings"

	"github.com/ipetrov/sourcerer/internal/model"
)

// Classifier matches hostnames against the primary-domain allow-list.
// Pure in-memory lookups, no network calls.
type Classifier struct {
	exact map[string]bool
}

// New creates a classifier from the configured domain list
func New(cfg *model.DomainsConfig) *Classifier {
	c := &Classifier{exact: make(map[string]bool, len(cfg.Primary))}
	for _, domain := range cfg.Primary {
		c.exact[normalizeHost(domain)] = true
	}
	return c
}

// IsPrimary reports whether rawURL points at a primary domain.
// The verdict depends only on the hostname: path and query never
// change it.
func (c *Classifier) IsPrimary(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := normalizeHost(parsed.Hostname())
	if host == "" {
		return false
	}

	if c.exact[host] {
		return true
	}
	// Suffix match: content.biorxiv.org matches biorxiv.org
	for domain := range c.exact {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// Classify attaches the domain verdict to each result
func (c *Classifier) Classify(results []model.RawResult) []model.ClassifiedResult {
	classified := make([]model.ClassifiedResult, 0, len(results))
	for _, r := range results {
		classified = append(classified, model.ClassifiedResult{
			RawResult:       r,
			IsPrimaryDomain: c.IsPrimary(r.Link),
		})
	}
	return classified
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimPrefix(host, "www.")
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
