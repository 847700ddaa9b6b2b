// Package pipeline wires the discovery stages together: federated
// search, domain classification, excavation, enrichment, AI
// validation, and the quality gate. Data flows strictly forward; each
// stage settles completely before the next starts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ipetrov/sourcerer/internal/classify"
	"github.com/ipetrov/sourcerer/internal/enrich"
	"github.com/ipetrov/sourcerer/internal/excavate"
	"github.com/ipetrov/sourcerer/internal/fetch"
	"github.com/ipetrov/sourcerer/internal/gate"
	"github.com/ipetrov/sourcerer/internal/llm"
	"github.com/ipetrov/sourcerer/internal/model"
	"github.com/ipetrov/sourcerer/internal/provider"
	"github.com/ipetrov/sourcerer/internal/search"
	"github.com/ipetrov/sourcerer/internal/util"
)

// Checkpoint errors surfaced to the caller. Provider-local failures
// never propagate; these two stages and the validator are the only
// points where an empty or broken state aborts the run.
var (
	ErrNoResults        = errors.New("no sources found for topic")
	ErrNoPrimarySources = errors.New("no primary sources found after excavation")
	ErrValidationFailed = errors.New("source validation failed")
)

// PageFetcher is the fetcher slice shared by the excavator and
// enricher.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// Pipeline turns a free-text topic into a deduplicated,
// reliability-scored, context-budgeted set of grounding sources.
type Pipeline struct {
	cfg        *model.Config
	fetcher    PageFetcher
	client     *http.Client
	classifier *classify.Classifier
	excavator  *excavate.Excavator
	enricher   *enrich.Enricher
	filter     *llm.RelevanceFilter
	validator  *llm.Validator
	llmProv    llm.Provider
	obs        model.Observer

	// adapterFactory builds the enabled adapters; swappable in tests
	adapterFactory func(enabled []model.Provider) []provider.Adapter
}

// New builds a pipeline from configuration. The LLM provider is
// mandatory: without the validator no source may be published as
// ground truth.
func New(ctx context.Context, cfg *model.Config, obs model.Observer) (*Pipeline, error) {
	if obs == nil {
		obs = model.NopObserver()
	}

	llmProv, err := llm.NewProvider(ctx, llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	if llmProv == nil {
		return nil, fmt.Errorf("an LLM provider is required for source validation")
	}

	fetcher := fetch.New(cfg, nil, obs)
	client := &http.Client{
		Timeout: cfg.HTTP.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		},
	}

	return assemble(cfg, llmProv, fetcher, client, obs), nil
}

// assemble wires the stage components around the given collaborators
func assemble(cfg *model.Config, llmProv llm.Provider, fetcher PageFetcher, client *http.Client, obs model.Observer) *Pipeline {
	classifier := classify.New(&cfg.Domains)

	p := &Pipeline{
		cfg:        cfg,
		fetcher:    fetcher,
		client:     client,
		classifier: classifier,
		excavator:  excavate.New(fetcher, classifier, cfg.Concurrency.ExcavationWorkers, obs),
		enricher:   enrich.New(fetcher, client, cfg, obs),
		filter:     llm.NewRelevanceFilter(llmProv, 10),
		validator:  llm.NewValidator(llmProv),
		llmProv:    llmProv,
		obs:        obs,
	}
	p.adapterFactory = p.buildAdapters
	return p
}

// Run executes the full pipeline for one topic. It returns either a
// populated, reliability-sorted source list or a single checkpoint
// error.
func (p *Pipeline) Run(ctx context.Context, topic string, enabled []model.Provider) ([]model.GroundingSource, error) {
	if len(enabled) == 0 {
		enabled = p.cfg.Providers.Enabled
	}
	adapters := p.adapterFactory(enabled)

	// 1. Federated search across all enabled providers.
	p.obs.Progress("pipeline", "searching %d providers for %q", len(adapters), topic)
	results := search.Federated(ctx, topic, adapters, p.obs)
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	// 2. Classify, then excavate secondary pages for primary links.
	classified := p.classifier.Classify(results)
	var secondary []model.ClassifiedResult
	for _, c := range classified {
		if !c.IsPrimaryDomain {
			secondary = append(secondary, c)
		}
	}
	p.obs.Progress("pipeline", "%d results (%d secondary), excavating", len(classified), len(secondary))
	excavated := p.excavator.Excavate(ctx, secondary)

	// 3. Merge excavated links into the pool and keep primaries.
	combined := search.Dedupe(append(results, excavated...))
	classified = p.classifier.Classify(combined)
	var primaries []model.ClassifiedResult
	for _, c := range classified {
		if c.IsPrimaryDomain {
			primaries = append(primaries, c)
		}
	}
	if len(primaries) == 0 {
		return nil, ErrNoPrimarySources
	}

	// 4. Enrich primaries with real abstracts.
	p.obs.Progress("pipeline", "enriching %d primary candidates", len(primaries))
	enriched := p.enricher.Enrich(ctx, primaries)

	// 5. Relevance-filter the noisy feed items only.
	curated := p.filterFeedItems(ctx, topic, enriched)

	// 6. AI validation: summaries + reliability scores. All or
	// nothing per batch.
	p.obs.Progress("pipeline", "validating %d sources", len(curated))
	validated, err := p.validator.Validate(ctx, topic, curated)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	// 7. Quality gate: threshold, sort, truncate.
	final := gate.Apply(validated, p.cfg.Gate.ReliabilityThreshold, p.cfg.Gate.MaxSources)
	p.obs.Progress("pipeline", "%d sources passed the quality gate", len(final))
	return final, nil
}

// filterFeedItems runs the AI relevance filter over candidates that
// came from the raw feed. On a filter failure the whole feed batch is
// discarded rather than passed through unvetted.
func (p *Pipeline) filterFeedItems(ctx context.Context, topic string, enriched []model.EnrichedResult) []model.EnrichedResult {
	var feedRaw []model.RawResult
	for _, e := range enriched {
		if e.Origin == model.ProviderBioRxivFeed {
			feedRaw = append(feedRaw, e.RawResult)
		}
	}
	if len(feedRaw) == 0 {
		return enriched
	}

	keepLinks := make(map[string]bool)
	kept, err := p.filter.Filter(ctx, topic, feedRaw)
	if err != nil {
		p.obs.Progress("pipeline", "relevance filter failed, dropping %d feed items: %v", len(feedRaw), err)
	} else {
		for _, k := range kept {
			keepLinks[k.Link] = true
		}
		p.obs.Progress("pipeline", "relevance filter kept %d of %d feed items", len(keepLinks), len(feedRaw))
	}

	curated := make([]model.EnrichedResult, 0, len(enriched))
	for _, e := range enriched {
		if e.Origin == model.ProviderBioRxivFeed && !keepLinks[e.Link] {
			continue
		}
		curated = append(curated, e)
	}
	return curated
}

// buildAdapters instantiates the enabled provider adapters
func (p *Pipeline) buildAdapters(enabled []model.Provider) []provider.Adapter {
	pc := p.cfg.Providers
	ua := p.cfg.HTTP.UserAgent

	var adapters []provider.Adapter
	for _, name := range enabled {
		switch name {
		case model.ProviderPubMed:
			adapters = append(adapters, &provider.PubMedAdapter{
				Client: p.client, UserAgent: ua, MaxResults: pc.PubMedMax,
			})
		case model.ProviderBioRxiv:
			adapters = append(adapters, &provider.BioRxivAdapter{
				Client: p.client, UserAgent: ua, MaxResults: pc.BioRxivMax,
			})
		case model.ProviderBioRxivFeed:
			adapters = append(adapters, &provider.FeedAdapter{
				Client: p.client, FeedURL: pc.FeedURL, MaxItems: pc.FeedMax, UserAgent: ua,
			})
		case model.ProviderPatents:
			adapters = append(adapters, &provider.PatentsAdapter{
				Client: p.client, UserAgent: ua, MaxResults: pc.PatentsMax,
			})
		case model.ProviderWebSearch:
			adapters = append(adapters, &provider.WebSearchAdapter{
				Fetcher: p.fetcher, MaxResults: pc.WebSearchMax,
			})
		case model.ProviderGenAge:
			adapters = append(adapters, &provider.GenAgeAdapter{
				Client: p.client, UserAgent: ua, MaxResults: pc.GenAgeMax,
			})
		case model.ProviderAIWeb:
			adapters = append(adapters, &provider.AIWebAdapter{
				Provider: p.llmProv, MaxResults: pc.AIWebMax,
			})
		}
	}
	return adapters
}
