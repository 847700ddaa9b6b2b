package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ipetrov/sourcerer/internal/model"
)

// RelevanceFilter asks the model which candidates from a noisy feed
// are actually about the topic. Anything the model does not name is
// dropped, and a malformed reply drops the whole batch: unfiltered
// noise must never continue downstream.
type RelevanceFilter struct {
	provider Provider
	maxKeep  int
}

// NewRelevanceFilter creates a filter bounded to maxKeep survivors
func NewRelevanceFilter(provider Provider, maxKeep int) *RelevanceFilter {
	if maxKeep <= 0 {
		maxKeep = 10
	}
	return &RelevanceFilter{provider: provider, maxKeep: maxKeep}
}

const relevanceSystem = `You are a research assistant screening a raw preprint feed.
Given a topic and a numbered candidate list, reply with a single JSON object:
{"relevant": [<candidate numbers or URLs>]}
Include only candidates clearly relevant to the topic. Reply with JSON only.`

// Filter returns the subset of candidates the model judged relevant
func (f *RelevanceFilter) Filter(ctx context.Context, topic string, candidates []model.RawResult) ([]model.RawResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n\nCandidates (keep at most %d):\n", topic, f.maxKeep)
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s - %s (%s)\n", i+1, c.Title, c.Snippet, c.Link)
	}

	resp, err := f.provider.Complete(ctx, Request{
		System: relevanceSystem,
		Prompt: b.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("relevance filter call: %w", err)
	}

	var reply struct {
		Relevant []any `json:"relevant"`
	}
	if err := DecodeStructured(resp.Text, &reply); err != nil {
		return nil, fmt.Errorf("relevance filter reply: %w", err)
	}

	byLink := make(map[string]model.RawResult, len(candidates))
	for _, c := range candidates {
		byLink[c.Link] = c
	}

	var kept []model.RawResult
	seen := make(map[string]bool)
	for _, item := range reply.Relevant {
		if len(kept) >= f.maxKeep {
			break
		}
		var match *model.RawResult
		switch v := item.(type) {
		case float64:
			// 1-based candidate number
			idx := int(v) - 1
			if idx >= 0 && idx < len(candidates) {
				match = &candidates[idx]
			}
		case string:
			if c, ok := byLink[v]; ok {
				match = &c
			} else if idx, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				if idx >= 1 && idx <= len(candidates) {
					match = &candidates[idx-1]
				}
			}
		}
		if match != nil && !seen[match.Link] {
			seen[match.Link] = true
			kept = append(kept, *match)
		}
	}

	return kept, nil
}
