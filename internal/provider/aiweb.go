package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ipetrov/sourcerer/internal/llm"
	"github.com/ipetrov/sourcerer/internal/model"
)

// AIWebAdapter delegates discovery to the model's built-in web
// grounding: it scrapes nothing itself and reads the cited source
// list from the grounding metadata. Prose without citations is
// discarded: unverifiable text must never silently become a source.
type AIWebAdapter struct {
	Provider   llm.Provider
	MaxResults int
}

// Name returns the provider tag
func (a *AIWebAdapter) Name() model.Provider { return model.ProviderAIWeb }

const aiWebSystem = `You are a research librarian. Search the web for authoritative
scientific documents about the given topic: peer-reviewed papers, preprints, and
patents. For each document found, name its title and URL in your answer.`

// Search issues one grounded model call
func (a *AIWebAdapter) Search(ctx context.Context, topic string) ([]model.RawResult, error) {
	max := a.MaxResults
	if max <= 0 {
		max = 20
	}

	resp, err := a.Provider.Complete(ctx, llm.Request{
		System:       aiWebSystem,
		Prompt:       fmt.Sprintf("Find scientific sources about: %s", topic),
		UseGrounding: true,
	})
	if err != nil {
		if errors.Is(err, llm.ErrGroundingUnsupported) {
			// Provider cannot ground; contribute nothing rather
			// than un-cited prose.
			return nil, nil
		}
		return nil, fmt.Errorf("grounded search: %w", err)
	}

	var results []model.RawResult
	for _, src := range resp.Sources {
		if len(results) >= max {
			break
		}
		title := src.Title
		if title == "" {
			title = hostOf(src.URI)
		}
		results = append(results, model.RawResult{
			Title:   title,
			Link:    src.URI,
			Snippet: "Cited by web-grounded model search.",
			Origin:  model.ProviderAIWeb,
		})
	}
	return results, nil
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}
