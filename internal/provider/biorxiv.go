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

// BioRxivAdapter finds preprints through the literature index rather
// than bioRxiv's own search, which has no usable API. Queries are
// restricted to the bioRxiv journal tag; when the exact phrase is too
// narrow an OR-expanded token query is tried for recall. Links resolve
// to the archive's canonical content URL when a bioRxiv DOI is
// present, else fall back to the index link.
type BioRxivAdapter struct {
	Client     *http.Client
	UserAgent  string
	MaxResults int
}

// Name returns the provider tag
func (a *BioRxivAdapter) Name() model.Provider { return model.ProviderBioRxiv }

type biorxivDocSummary struct {
	UID        string `json:"uid"`
	Title      string `json:"title"`
	PubDate    string `json:"pubdate"`
	ArticleIDs []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// Search queries the index for bioRxiv-tagged preprints
func (a *BioRxivAdapter) Search(ctx context.Context, topic string) ([]model.RawResult, error) {
	max := a.MaxResults
	if max <= 0 {
		max = 10
	}

	// Exact phrase first, token OR-expansion as recall fallback.
	ids, err := a.searchIDs(ctx, fmt.Sprintf(`"%s" AND biorxiv[Journal]`, topic), max)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		tokens := strings.Fields(topic)
		if len(tokens) > 1 {
			expanded := fmt.Sprintf("(%s) AND biorxiv[Journal]", strings.Join(tokens, " OR "))
			ids, err = a.searchIDs(ctx, expanded, max)
			if err != nil {
				return nil, err
			}
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	summaryURL := fmt.Sprintf("%s?db=pubmed&retmode=json&id=%s",
		pubmedSummaryBase, strings.Join(ids, ","))
	var reply pubmedSummaryReply
	if err := getJSON(ctx, a.Client, summaryURL, a.UserAgent, &reply); err != nil {
		return nil, fmt.Errorf("biorxiv summary: %w", err)
	}

	var results []model.RawResult
	for _, id := range ids {
		raw, ok := reply.Result[id]
		if !ok {
			continue
		}
		var doc biorxivDocSummary
		if err := json.Unmarshal(raw, &doc); err != nil || doc.Title == "" {
			continue
		}

		link := fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", id)
		if doi := biorxivDOI(doc); doi != "" {
			link = "https://www.biorxiv.org/content/" + doi
		}

		snippet := "bioRxiv preprint"
		if len(doc.Authors) > 0 {
			snippet = doc.Authors[0].Name + " et al. " + snippet
		}
		if doc.PubDate != "" {
			snippet += " (" + doc.PubDate + ")"
		}

		results = append(results, model.RawResult{
			Title:   doc.Title,
			Link:    link,
			Snippet: snippet + ".",
			Origin:  model.ProviderBioRxiv,
		})
	}
	return results, nil
}

func (a *BioRxivAdapter) searchIDs(ctx context.Context, term string, max int) ([]string, error) {
	searchURL := fmt.Sprintf("%s?db=pubmed&retmode=json&retmax=%d&term=%s",
		pubmedSearchBase, max, url.QueryEscape(term))
	var search pubmedSearchReply
	if err := getJSON(ctx, a.Client, searchURL, a.UserAgent, &search); err != nil {
		return nil, fmt.Errorf("biorxiv search: %w", err)
	}
	ids := search.ESearchResult.IDList
	if len(ids) > max {
		ids = ids[:max]
	}
	return ids, nil
}

// biorxivDOI returns the bioRxiv DOI (10.1101/...) if the record has
// one
func biorxivDOI(doc biorxivDocSummary) string {
	for _, aid := range doc.ArticleIDs {
		if aid.IDType == "doi" && strings.HasPrefix(aid.Value, "10.1101/") {
			return aid.Value
		}
	}
	return ""
}
