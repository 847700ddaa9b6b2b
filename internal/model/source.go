package model

// Provider identifies one of the federated source adapters
type Provider string

const (
	ProviderPubMed      Provider = "pubmed"       // structured biomedical literature index
	ProviderBioRxiv     Provider = "biorxiv"      // preprint archive via its indexing mirror
	ProviderBioRxivFeed Provider = "biorxiv-feed" // live preprint RSS feed (noisy)
	ProviderPatents     Provider = "patents"      // patent search endpoint
	ProviderWebSearch   Provider = "websearch"    // general web search (no-JS HTML)
	ProviderGenAge      Provider = "genagedb"     // curated gene/longevity database
	ProviderAIWeb       Provider = "ai-web"       // model call with web grounding
)

// AllProviders lists every adapter in fan-out order
func AllProviders() []Provider {
	return []Provider{
		ProviderPubMed,
		ProviderBioRxiv,
		ProviderBioRxivFeed,
		ProviderPatents,
		ProviderWebSearch,
		ProviderGenAge,
		ProviderAIWeb,
	}
}

// RawResult is the normalized output of a single provider hit.
// Link is the deduplication key within a pipeline run.
type RawResult struct {
	Title   string   `json:"title"`
	Link    string   `json:"link"`
	Snippet string   `json:"snippet"`
	Origin  Provider `json:"origin"`
}

// ClassifiedResult is a RawResult with its domain verdict attached.
// Computed once, immutable thereafter.
type ClassifiedResult struct {
	RawResult
	IsPrimaryDomain bool `json:"is_primary_domain"`
}

// EnrichmentOutcome tags how an abstract was (or was not) recovered
type EnrichmentOutcome string

const (
	OutcomeAPIHit      EnrichmentOutcome = "api-hit"      // preprint-server lookup by DOI
	OutcomeScrapeHit   EnrichmentOutcome = "scrape-hit"   // JSON-LD, citation metas, or DOM heuristics
	OutcomeFetchFailed EnrichmentOutcome = "fetch-failed" // every fetch strategy failed
)

// EnrichedResult carries the recovered bibliographic content for a
// primary candidate. Link may have been rewritten to the canonical URL
// when the fetch followed a redirect.
type EnrichedResult struct {
	ClassifiedResult
	AbstractText string            `json:"abstract_text"`
	DOIConfirmed bool              `json:"doi_confirmed"`
	Outcome      EnrichmentOutcome `json:"outcome"`
}

// DOIConfirmedMarker tags an enriched snippet whose DOI was verified
// against a structured record or the document itself. The validator
// reads it as a strong reliability signal and strips it before the
// summary reaches the user.
const DOIConfirmedMarker = "[DOI-verified]"

// SourceStatus is the review state of a grounding source
type SourceStatus string

const (
	StatusUnverified  SourceStatus = "unverified"
	StatusValid       SourceStatus = "valid"
	StatusInvalid     SourceStatus = "invalid"
	StatusValidating  SourceStatus = "validating"
	StatusFetchFailed SourceStatus = "fetch-failed"
)

// GroundingSource is the final exported artifact: a vetted document
// the downstream analysis is restricted to cite. The pipeline only
// emits StatusValid; other statuses are set later by manual review.
type GroundingSource struct {
	URI                      string       `json:"uri"`
	Title                    string       `json:"title"`
	Status                   SourceStatus `json:"status"`
	Origin                   Provider     `json:"origin"`
	Content                  string       `json:"content"`
	Reliability              float64      `json:"reliability"`
	ReliabilityJustification string       `json:"reliability_justification,omitempty"`
	Reason                   string       `json:"reason,omitempty"`
}

// ClampReliability forces a score into [0,1]. Malformed model replies
// are clamped, not rejected.
func ClampReliability(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
