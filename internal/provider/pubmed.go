package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ipetrov/sourcerer/internal/model"
)

// eutils endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedSearchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedSummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

// pubmedIDBatch caps IDs per esummary call; eutils is rate-sensitive
// and small batches keep individual replies cheap.
const pubmedIDBatch = 5

// PubMedAdapter queries the NCBI literature index in two steps: an ID
// search restricted to title/abstract for precision, then batched
// summary fetches by ID.
type PubMedAdapter struct {
	Client     *http.Client
	UserAgent  string
	MaxResults int
}

// Name returns the provider tag
func (a *PubMedAdapter) Name() model.Provider { return model.ProviderPubMed }

type pubmedSearchReply struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedSummaryReply struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDocSummary struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	FullJournalName string `json:"fulljournalname"`
	PubDate         string `json:"pubdate"`
}

// Search runs the two-step eutils query
func (a *PubMedAdapter) Search(ctx context.Context, topic string) ([]model.RawResult, error) {
	max := a.MaxResults
	if max <= 0 {
		max = 5
	}

	term := fmt.Sprintf("%s[Title/Abstract]", topic)
	searchURL := fmt.Sprintf("%s?db=pubmed&retmode=json&retmax=%d&term=%s",
		pubmedSearchBase, max, url.QueryEscape(term))

	var search pubmedSearchReply
	if err := getJSON(ctx, a.Client, searchURL, a.UserAgent, &search); err != nil {
		return nil, fmt.Errorf("pubmed search: %w", err)
	}
	ids := search.ESearchResult.IDList
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > max {
		ids = ids[:max]
	}

	var results []model.RawResult
	for start := 0; start < len(ids); start += pubmedIDBatch {
		end := start + pubmedIDBatch
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := a.fetchSummaries(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (a *PubMedAdapter) fetchSummaries(ctx context.Context, ids []string) ([]model.RawResult, error) {
	summaryURL := fmt.Sprintf("%s?db=pubmed&retmode=json&id=%s",
		pubmedSummaryBase, strings.Join(ids, ","))

	var reply pubmedSummaryReply
	if err := getJSON(ctx, a.Client, summaryURL, a.UserAgent, &reply); err != nil {
		return nil, fmt.Errorf("pubmed summary: %w", err)
	}

	var results []model.RawResult
	for _, id := range ids {
		raw, ok := reply.Result[id]
		if !ok {
			continue
		}
		var doc pubmedDocSummary
		if err := json.Unmarshal(raw, &doc); err != nil || doc.Title == "" {
			continue
		}
		results = append(results, model.RawResult{
			Title:   doc.Title,
			Link:    fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", id),
			Snippet: pubmedSnippet(doc),
			Origin:  model.ProviderPubMed,
		})
	}
	return results, nil
}

// pubmedSnippet builds "First Author et al. Journal (date)."
func pubmedSnippet(doc pubmedDocSummary) string {
	var parts []string
	if len(doc.Authors) > 0 {
		authors := doc.Authors[0].Name
		if len(doc.Authors) > 1 {
			authors += " et al"
		}
		parts = append(parts, authors)
	}
	if doc.FullJournalName != "" {
		journal := doc.FullJournalName
		if doc.PubDate != "" {
			journal += " (" + doc.PubDate + ")"
		}
		parts = append(parts, journal)
	}
	if len(parts) == 0 {
		return "PubMed-indexed article."
	}
	return strings.Join(parts, ". ") + "."
}
