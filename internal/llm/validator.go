package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ipetrov/sourcerer/internal/model"
)

// Validator sends the curated primary-source set to the model and
// receives one summary + reliability score per source. A partial or
// malformed batch is a hard failure: an un-scored source set is
// unsafe to publish as ground truth, so there is no per-item recovery
// here.
type Validator struct {
	provider Provider
}

// NewValidator creates a validator on the given provider
func NewValidator(provider Provider) *Validator {
	return &Validator{provider: provider}
}

const validatorSystem = `You are a scientific source auditor. For every source you are given,
write a 2-3 sentence factual summary of what the document says about the topic and assign a
reliability score in [0,1]:
- 0.8-1.0: top-tier peer-reviewed journal domain, or snippet marked ` + model.DOIConfirmedMarker + `
- 0.5-0.7: known preprint server or mid-tier journal
- 0.2-0.4: vague, obscure, or unverifiable venue
- 0.0-0.1: clearly non-scientific content
Reply with a single JSON object:
{"sources": [{"uri": "...", "title": "...", "summary": "...", "reliability": 0.0, "reliabilityJustification": "..."}]}
Return exactly one record per input source, keyed by its URI. Reply with JSON only.`

type validatorRecord struct {
	URI                      string  `json:"uri"`
	Title                    string  `json:"title"`
	Summary                  string  `json:"summary"`
	Reliability              float64 `json:"reliability"`
	ReliabilityJustification string  `json:"reliabilityJustification"`
}

// Validate scores every enriched source. The returned list carries
// StatusValid and is unsorted; the quality gate orders and bounds it.
func (v *Validator) Validate(ctx context.Context, topic string, sources []model.EnrichedResult) ([]model.GroundingSource, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n\nSources:\n", topic)
	for i, s := range sources {
		fmt.Fprintf(&b, "%d. title: %s\n   uri: %s\n   snippet: %s\n", i+1, s.Title, s.Link, s.AbstractText)
	}

	resp, err := v.provider.Complete(ctx, Request{
		System: validatorSystem,
		Prompt: b.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("validator call: %w", err)
	}

	var reply struct {
		Sources []validatorRecord `json:"sources"`
	}
	if err := DecodeStructured(resp.Text, &reply); err != nil {
		return nil, fmt.Errorf("validator reply: %w", err)
	}

	byURI := make(map[string]validatorRecord, len(reply.Sources))
	for _, rec := range reply.Sources {
		byURI[rec.URI] = rec
	}

	validated := make([]model.GroundingSource, 0, len(sources))
	for _, s := range sources {
		rec, ok := byURI[s.Link]
		if !ok {
			return nil, fmt.Errorf("validator reply missing record for %s", s.Link)
		}

		title := rec.Title
		if title == "" {
			title = s.Title
		}

		validated = append(validated, model.GroundingSource{
			URI:                      s.Link,
			Title:                    title,
			Status:                   model.StatusValid,
			Origin:                   s.Origin,
			Content:                  stripMarker(rec.Summary),
			Reliability:              model.ClampReliability(rec.Reliability),
			ReliabilityJustification: rec.ReliabilityJustification,
		})
	}

	return validated, nil
}

// stripMarker removes the DOI-confirmation tag if the model echoed it
func stripMarker(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, model.DOIConfirmedMarker, ""))
}
