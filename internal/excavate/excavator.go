// Package excavate recovers primary-domain links buried in secondary
// pages (news aggregators, blogs) by crawling their outbound anchors.
package excavate

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ipetrov/sourcerer/internal/classify"
	"github.com/ipetrov/sourcerer/internal/fetch"
	"github.com/ipetrov/sourcerer/internal/model"
	"github.com/ipetrov/sourcerer/internal/worker"
)

// PageFetcher is the slice of the resilient fetcher the excavator
// needs.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// Excavator crawls secondary pages concurrently and promotes anchors
// that land on primary domains into new candidates.
type Excavator struct {
	fetcher    PageFetcher
	classifier *classify.Classifier
	workers    int
	obs        model.Observer
}

// New creates an excavator
func New(fetcher PageFetcher, classifier *classify.Classifier, workers int, obs model.Observer) *Excavator {
	if workers <= 0 {
		workers = 8
	}
	if obs == nil {
		obs = model.NopObserver()
	}
	return &Excavator{fetcher: fetcher, classifier: classifier, workers: workers, obs: obs}
}

type excavateJob struct {
	parent     model.ClassifiedResult
	fetcher    PageFetcher
	classifier *classify.Classifier
}

type excavateResult struct {
	parent model.ClassifiedResult
	links  []model.RawResult
	err    error
}

func (r *excavateResult) GetError() error { return r.err }

// Execute fetches one secondary page and mines its primary links
func (j *excavateJob) Execute(ctx context.Context) worker.Result {
	page, err := j.fetcher.Fetch(ctx, j.parent.Link)
	if err != nil {
		return &excavateResult{parent: j.parent, err: err}
	}

	links := minePrimaryLinks(page.Body, page.FinalURL, j.classifier, j.parent)
	return &excavateResult{parent: j.parent, links: links}
}

// Excavate crawls every secondary result through the worker pool. A
// page that fails to fetch contributes zero links; failures are
// logged, never fatal.
func (e *Excavator) Excavate(ctx context.Context, secondary []model.ClassifiedResult) []model.RawResult {
	if len(secondary) == 0 {
		return nil
	}

	pool := worker.NewPool(e.workers)
	pool.Start()
	for _, result := range secondary {
		pool.Submit(&excavateJob{parent: result, fetcher: e.fetcher, classifier: e.classifier})
	}

	var excavated []model.RawResult
	for _, res := range pool.Wait() {
		er := res.(*excavateResult)
		if er.err != nil {
			e.obs.Progress("excavate", "page %s failed: %v", er.parent.Link, er.err)
			continue
		}
		if len(er.links) > 0 {
			e.obs.Progress("excavate", "page %q yielded %d primary links", er.parent.Title, len(er.links))
		}
		excavated = append(excavated, er.links...)
	}
	return excavated
}

// minePrimaryLinks walks the page's anchors and keeps those whose
// resolved target passes the domain classifier
func minePrimaryLinks(body, baseRawURL string, classifier *classify.Classifier, parent model.ClassifiedResult) []model.RawResult {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseRawURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []model.RawResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			var href, text string
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					href = strings.TrimSpace(attr.Val)
				}
			}
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				text = strings.TrimSpace(n.FirstChild.Data)
			}

			if resolved := resolveHref(base, href); resolved != "" && !seen[resolved] {
				if classifier.IsPrimary(resolved) {
					seen[resolved] = true
					title := text
					if title == "" {
						title = resolved
					}
					links = append(links, model.RawResult{
						Title:   title,
						Link:    resolved,
						Snippet: "excavated from: " + parent.Title,
						Origin:  parent.Origin,
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

// resolveHref resolves a relative href, dropping anchors, scripts,
// and non-http schemes
func resolveHref(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
