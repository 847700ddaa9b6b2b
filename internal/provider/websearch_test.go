package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/ipetrov/sourcerer/internal/fetch"
	"github.com/ipetrov/sourcerer/internal/model"
)

// stubFetcher serves a canned page body for any URL
type stubFetcher struct {
	body string
	err  error
	last string
}

func (s *stubFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.Result, error) {
	s.last = rawURL
	if s.err != nil {
		return nil, s.err
	}
	return &fetch.Result{Body: s.body, FinalURL: rawURL}, nil
}

const resultsPage = `<html><body>
<div class="result">
	<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.nature.com%2Farticles%2Fs41586&rut=abc">Nature paper</a>
	<div class="result__snippet">A study of aging.</div>
</div>
<div class="result">
	<a class="result__a" href="https://example.com/direct">Direct link</a>
	<div class="result__snippet">Plain absolute link.</div>
</div>
<div class="result">
	<a class="result__a" href="javascript:void(0)">Junk</a>
</div>
<div class="result">
	<a class="result__a" href="https://example.com/extra">Extra</a>
</div>
</body></html>`

func TestWebSearchAdapter_UnwrapsRedirects(t *testing.T) {
	fetcher := &stubFetcher{body: resultsPage}
	a := &WebSearchAdapter{Fetcher: fetcher, MaxResults: 10}

	results, err := a.Search(context.Background(), "aging biology")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results (junk href dropped), got %d", len(results))
	}
	if results[0].Link != "https://www.nature.com/articles/s41586" {
		t.Errorf("uddg parameter not unwrapped: %s", results[0].Link)
	}
	if results[0].Title != "Nature paper" || results[0].Snippet != "A study of aging." {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].Link != "https://example.com/direct" {
		t.Errorf("plain link should pass through: %s", results[1].Link)
	}
	if fetcher.last == "" {
		t.Error("fetcher was never called")
	}
}

func TestWebSearchAdapter_BoundsResults(t *testing.T) {
	a := &WebSearchAdapter{Fetcher: &stubFetcher{body: resultsPage}, MaxResults: 1}
	results, err := a.Search(context.Background(), "topic")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestWebSearchAdapter_FetchErrorPropagates(t *testing.T) {
	a := &WebSearchAdapter{Fetcher: &stubFetcher{err: errors.New("blocked")}}
	if _, err := a.Search(context.Background(), "topic"); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestWebSearchAdapter_Name(t *testing.T) {
	a := &WebSearchAdapter{}
	if a.Name() != model.ProviderWebSearch {
		t.Errorf("unexpected name %s", a.Name())
	}
}

func TestUnwrapRedirect(t *testing.T) {
	cases := []struct {
		href string
		want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fx.test%2Fa", "https://x.test/a"},
		{"https://x.test/plain", "https://x.test/plain"},
		{"javascript:void(0)", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := unwrapRedirect(tc.href); got != tc.want {
			t.Errorf("unwrapRedirect(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}
