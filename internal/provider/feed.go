package provider

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/ipetrov/sourcerer/internal/model"
)

var markupPattern = regexp.MustCompile(`<[^>]+>`)

// FeedAdapter pulls the live preprint RSS feed. It returns items raw
// and unfiltered: the feed is not topic-scoped, so syntactic matching
// would either drop everything or keep noise. The AI relevance filter
// downstream makes the call.
type FeedAdapter struct {
	Client    *http.Client
	FeedURL   string
	MaxItems  int
	UserAgent string
}

// Name returns the provider tag
func (a *FeedAdapter) Name() model.Provider { return model.ProviderBioRxivFeed }

// Search pulls and normalizes the bounded feed; topic is ignored
func (a *FeedAdapter) Search(ctx context.Context, topic string) ([]model.RawResult, error) {
	parser := gofeed.NewParser()
	parser.Client = a.Client
	parser.UserAgent = a.UserAgent

	feed, err := parser.ParseURLWithContext(a.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	max := a.MaxItems
	if max <= 0 {
		max = 50
	}

	var results []model.RawResult
	for _, item := range feed.Items {
		if len(results) >= max {
			break
		}
		if item.Link == "" {
			continue
		}
		results = append(results, model.RawResult{
			Title:   stripMarkup(item.Title),
			Link:    item.Link,
			Snippet: truncate(stripMarkup(item.Description), 500),
			Origin:  model.ProviderBioRxivFeed,
		})
	}
	return results, nil
}

// stripMarkup removes tags and collapses whitespace from feed fields,
// which frequently embed HTML
func stripMarkup(s string) string {
	s = markupPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
