package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPubMedAdapter_TwoStepSearch(t *testing.T) {
	var summaryCalls []string

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("term")
		if !strings.Contains(term, "[Title/Abstract]") {
			t.Errorf("search term not scoped to title/abstract: %q", term)
		}
		fmt.Fprint(w, `{"esearchresult": {"idlist": ["111", "222"]}}`)
	}))
	defer search.Close()

	summary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query().Get("id")
		summaryCalls = append(summaryCalls, ids)
		fmt.Fprint(w, `{"result": {
			"111": {"uid": "111", "title": "Rapamycin extends lifespan", "authors": [{"name": "Harrison DE"}, {"name": "Strong R"}], "fulljournalname": "Nature", "pubdate": "2009 Jul"},
			"222": {"uid": "222", "title": "mTOR signaling review", "authors": [{"name": "Saxton RA"}], "fulljournalname": "Cell", "pubdate": "2017 Mar"}
		}}`)
	}))
	defer summary.Close()

	origSearch, origSummary := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase, pubmedSummaryBase = search.URL, summary.URL
	defer func() { pubmedSearchBase, pubmedSummaryBase = origSearch, origSummary }()

	a := &PubMedAdapter{Client: http.DefaultClient, UserAgent: "test", MaxResults: 5}
	results, err := a.Search(context.Background(), "rapamycin lifespan")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Link != "https://pubmed.ncbi.nlm.nih.gov/111/" {
		t.Errorf("unexpected link: %s", results[0].Link)
	}
	if want := "Harrison DE et al. Nature (2009 Jul)."; results[0].Snippet != want {
		t.Errorf("snippet = %q, want %q", results[0].Snippet, want)
	}
	if len(summaryCalls) != 1 || summaryCalls[0] != "111,222" {
		t.Errorf("unexpected summary calls: %v", summaryCalls)
	}
}

func TestPubMedAdapter_BatchesSummaryIDs(t *testing.T) {
	ids := make([]string, 8)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", 100+i)
	}

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"esearchresult": {"idlist": ["%s"]}}`, strings.Join(ids, `","`))
	}))
	defer search.Close()

	var batchSizes []int
	summary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batch := strings.Split(r.URL.Query().Get("id"), ",")
		batchSizes = append(batchSizes, len(batch))
		fmt.Fprint(w, `{"result": {}}`)
	}))
	defer summary.Close()

	origSearch, origSummary := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase, pubmedSummaryBase = search.URL, summary.URL
	defer func() { pubmedSearchBase, pubmedSummaryBase = origSearch, origSummary }()

	a := &PubMedAdapter{Client: http.DefaultClient, UserAgent: "test", MaxResults: 8}
	if _, err := a.Search(context.Background(), "topic"); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(batchSizes) != 2 || batchSizes[0] != 5 || batchSizes[1] != 3 {
		t.Errorf("expected batches of 5 and 3, got %v", batchSizes)
	}
}

func TestPubMedAdapter_NoIDs(t *testing.T) {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"esearchresult": {"idlist": []}}`)
	}))
	defer search.Close()

	orig := pubmedSearchBase
	pubmedSearchBase = search.URL
	defer func() { pubmedSearchBase = orig }()

	a := &PubMedAdapter{Client: http.DefaultClient, UserAgent: "test"}
	results, err := a.Search(context.Background(), "gibberish")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results != nil {
		t.Errorf("expected no results, got %+v", results)
	}
}
