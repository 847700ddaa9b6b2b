package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ipetrov/sourcerer/internal/model"
)

// patentsSearchBase is the patent search endpoint. Declared as a var
// so tests can substitute an httptest server.
var patentsSearchBase = "https://patents.google.com/xhr/query"

// PatentsAdapter queries the patent search endpoint. The response
// body is not pure JSON: it carries a non-JSON preamble, so parsing
// starts at the first '{'.
type PatentsAdapter struct {
	Client     *http.Client
	UserAgent  string
	MaxResults int
}

// Name returns the provider tag
func (a *PatentsAdapter) Name() model.Provider { return model.ProviderPatents }

type patentsReply struct {
	Results struct {
		Cluster []struct {
			Result []struct {
				Patent struct {
					PublicationNumber string          `json:"publication_number"`
					Title             string          `json:"title"`
					Snippet           string          `json:"snippet"`
					Inventor          json.RawMessage `json:"inventor"`
					Assignee          json.RawMessage `json:"assignee"`
					GrantDate         string          `json:"grant_date"`
				} `json:"patent"`
			} `json:"result"`
		} `json:"cluster"`
	} `json:"results"`
}

// Search queries the endpoint and defensively parses the reply
func (a *PatentsAdapter) Search(ctx context.Context, topic string) ([]model.RawResult, error) {
	max := a.MaxResults
	if max <= 0 {
		max = 10
	}

	reqURL := fmt.Sprintf("%s?url=%s", patentsSearchBase,
		url.QueryEscape("q="+url.QueryEscape(topic)))

	body, err := getBody(ctx, a.Client, reqURL, a.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("patent search: %w", err)
	}

	// Skip the non-JSON preamble.
	start := bytes.IndexByte(body, '{')
	if start < 0 {
		return nil, fmt.Errorf("patent search: no JSON object in reply")
	}

	var reply patentsReply
	if err := json.Unmarshal(body[start:], &reply); err != nil {
		return nil, fmt.Errorf("patent search: parse reply: %w", err)
	}

	var results []model.RawResult
	for _, cluster := range reply.Results.Cluster {
		for _, item := range cluster.Result {
			if len(results) >= max {
				return results, nil
			}
			p := item.Patent
			if p.PublicationNumber == "" {
				continue
			}
			results = append(results, model.RawResult{
				Title:   stripMarkup(p.Title),
				Link:    "https://patents.google.com/patent/" + p.PublicationNumber,
				Snippet: patentSnippet(p.Snippet, p.Inventor, p.Assignee, p.GrantDate),
				Origin:  model.ProviderPatents,
			})
		}
	}
	return results, nil
}

// patentSnippet assembles a readable line; inventor and assignee come
// back as either arrays or scalars depending on the record
func patentSnippet(snippet string, inventor, assignee json.RawMessage, grantDate string) string {
	var parts []string
	if s := stripMarkup(snippet); s != "" {
		parts = append(parts, truncate(s, 300))
	}
	if names := flexStrings(inventor); len(names) > 0 {
		parts = append(parts, "Inventors: "+strings.Join(names, ", "))
	}
	if names := flexStrings(assignee); len(names) > 0 {
		parts = append(parts, "Assignee: "+strings.Join(names, ", "))
	}
	if grantDate != "" {
		parts = append(parts, "Granted: "+grantDate)
	}
	if len(parts) == 0 {
		return "Patent record."
	}
	return strings.Join(parts, " | ")
}

// flexStrings decodes a field that may be a string, a string array,
// or absent
func flexStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		var out []string
		for _, s := range many {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
