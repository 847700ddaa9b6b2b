package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ipetrov/sourcerer/internal/fetch"
	"github.com/ipetrov/sourcerer/internal/model"
)

// webSearchBase is the no-JS HTML results page. Declared as a var so
// tests can substitute an httptest server.
var webSearchBase = "https://html.duckduckgo.com/html/"

// PageFetcher is the slice of the resilient fetcher the scrape-based
// adapters need.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// WebSearchAdapter scrapes the search engine's no-JS result page.
// Result links are redirect wrappers; the real destination sits in
// the uddg query parameter and is what gets recorded.
type WebSearchAdapter struct {
	Fetcher    PageFetcher
	MaxResults int
}

// Name returns the provider tag
func (a *WebSearchAdapter) Name() model.Provider { return model.ProviderWebSearch }

// Search scrapes one results page
func (a *WebSearchAdapter) Search(ctx context.Context, topic string) ([]model.RawResult, error) {
	max := a.MaxResults
	if max <= 0 {
		max = 10
	}

	searchURL := fmt.Sprintf("%s?q=%s", webSearchBase, url.QueryEscape(topic))
	page, err := a.Fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("web search: parse page: %w", err)
	}

	var results []model.RawResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		anchor := sel.Find(".result__a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return true
		}
		dest := unwrapRedirect(href)
		if dest == "" {
			return true
		}
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			return true
		}
		results = append(results, model.RawResult{
			Title:   title,
			Link:    dest,
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
			Origin:  model.ProviderWebSearch,
		})
		return len(results) < max
	})
	return results, nil
}

// unwrapRedirect recovers the destination from the engine's
// redirect-wrapper links (…/l/?uddg=<encoded>). A plain absolute URL
// passes through unchanged.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if dest := parsed.Query().Get("uddg"); dest != "" {
		if decoded, err := url.QueryUnescape(dest); err == nil {
			return decoded
		}
		return dest
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}
	return ""
}
