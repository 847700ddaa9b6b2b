// Package enrich recovers a real title/abstract for each primary
// candidate before it reaches the model. Downstream reliability
// scoring and summarization are bounded by input quality, so a thin
// search snippet is replaced by the authoritative record whenever one
// can be found.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/ipetrov/sourcerer/internal/fetch"
	"github.com/ipetrov/sourcerer/internal/model"
)

// doiPattern matches a DOI anywhere in a URL or document body
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s"'<>?#]+`)

// preprintDetailsBase is the preprint servers' structured lookup API.
// Declared as a var so tests can substitute an httptest server.
var preprintDetailsBase = "https://api.biorxiv.org/details"

// FetchFailedSnippet is the explicit marker left in place of an
// abstract when every fetch strategy failed.
const FetchFailedSnippet = "Content unavailable: fetch failed."

// PageFetcher is the slice of the resilient fetcher the enricher
// needs.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// Enricher upgrades candidate snippets to abstracts. Strategy per
// candidate, first success wins: structured preprint API by DOI, then
// page scrape (JSON-LD, citation metas, DOM heuristics), then an
// explicit fetch-failed downgrade. Enrichment failure is never fatal.
type Enricher struct {
	fetcher         PageFetcher
	client          *http.Client
	userAgent       string
	preprintServers []string
	workers         int
	obs             model.Observer
}

// New creates an enricher
func New(fetcher PageFetcher, client *http.Client, cfg *model.Config, obs model.Observer) *Enricher {
	workers := cfg.Concurrency.EnrichmentWorkers
	if workers <= 0 {
		workers = 8
	}
	if obs == nil {
		obs = model.NopObserver()
	}
	return &Enricher{
		fetcher:         fetcher,
		client:          client,
		userAgent:       cfg.HTTP.UserAgent,
		preprintServers: cfg.Domains.PreprintServers,
		workers:         workers,
		obs:             obs,
	}
}

// Enrich processes all candidates concurrently under a semaphore and
// preserves input order
func (e *Enricher) Enrich(ctx context.Context, candidates []model.ClassifiedResult) []model.EnrichedResult {
	results := make([]model.EnrichedResult, len(candidates))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.workers)

	for i, candidate := range candidates {
		wg.Add(1)
		go func(idx int, c model.ClassifiedResult) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = fetchFailed(c)
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = e.enrichOne(ctx, c)
		}(i, candidate)
	}
	wg.Wait()

	return results
}

func (e *Enricher) enrichOne(ctx context.Context, c model.ClassifiedResult) model.EnrichedResult {
	// Structured API lookup by DOI comes first: it yields the
	// authoritative record and skips HTML parsing entirely.
	if doi := ExtractDOI(c.Link); doi != "" {
		if server := e.preprintServer(c.Link); server != "" {
			if enriched, err := e.lookupPreprint(ctx, c, server, doi); err == nil {
				return enriched
			} else {
				e.obs.Progress("enrich", "preprint API miss for %s: %v", doi, err)
			}
		}
	}

	page, err := e.fetcher.Fetch(ctx, c.Link)
	if err != nil {
		e.obs.Progress("enrich", "fetch failed for %s: %v", c.Link, err)
		return fetchFailed(c)
	}

	scraped := scrapeDocument(page.Body)

	enriched := model.EnrichedResult{
		ClassifiedResult: c,
		Outcome:          model.OutcomeScrapeHit,
	}
	// The fetch may have followed a redirect; record the canonical
	// location.
	if page.FinalURL != "" {
		enriched.Link = page.FinalURL
	}
	if scraped.Title != "" {
		enriched.Title = scraped.Title
	}
	if scraped.Abstract != "" {
		enriched.AbstractText = scraped.Abstract
	} else {
		enriched.AbstractText = c.Snippet
	}
	if scraped.DOIConfirmed || doiPattern.MatchString(page.Body) {
		enriched.DOIConfirmed = true
		enriched.AbstractText = strings.TrimSpace(enriched.AbstractText + " " + model.DOIConfirmedMarker)
	}
	return enriched
}

type preprintDetailsReply struct {
	Collection []struct {
		DOI      string `json:"doi"`
		Title    string `json:"title"`
		Abstract string `json:"abstract"`
		Version  string `json:"version"`
	} `json:"collection"`
}

// lookupPreprint queries the server's details API by DOI and rewrites
// the candidate from the authoritative record
func (e *Enricher) lookupPreprint(ctx context.Context, c model.ClassifiedResult, server, doi string) (model.EnrichedResult, error) {
	reqURL := fmt.Sprintf("%s/%s/%s", preprintDetailsBase, server, doi)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.EnrichedResult{}, err
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return model.EnrichedResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return model.EnrichedResult{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var reply preprintDetailsReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return model.EnrichedResult{}, err
	}
	if len(reply.Collection) == 0 || reply.Collection[0].Abstract == "" {
		return model.EnrichedResult{}, fmt.Errorf("no record for %s", doi)
	}

	record := reply.Collection[0]
	enriched := model.EnrichedResult{
		ClassifiedResult: c,
		AbstractText:     strings.TrimSpace(record.Abstract + " " + model.DOIConfirmedMarker),
		DOIConfirmed:     true,
		Outcome:          model.OutcomeAPIHit,
	}
	enriched.Title = record.Title
	enriched.Link = fmt.Sprintf("https://www.%s.org/content/%s", server, record.DOI)
	return enriched, nil
}

// preprintServer returns the server name ("biorxiv") when the link's
// host is a known preprint server, else ""
func (e *Enricher) preprintServer(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	for _, server := range e.preprintServers {
		if host == server || strings.HasSuffix(host, "."+server) {
			return strings.TrimSuffix(server, ".org")
		}
	}
	return ""
}

// ExtractDOI pulls the first DOI out of a URL, stripping version
// suffixes preprint servers append (…v2, .full)
func ExtractDOI(rawURL string) string {
	doi := doiPattern.FindString(rawURL)
	if doi == "" {
		return ""
	}
	doi = strings.TrimSuffix(doi, ".full")
	if idx := versionSuffix.FindStringIndex(doi); idx != nil {
		doi = doi[:idx[0]]
	}
	return doi
}

var versionSuffix = regexp.MustCompile(`v\d+$`)

func fetchFailed(c model.ClassifiedResult) model.EnrichedResult {
	return model.EnrichedResult{
		ClassifiedResult: c,
		AbstractText:     FetchFailedSnippet,
		Outcome:          model.OutcomeFetchFailed,
	}
}
