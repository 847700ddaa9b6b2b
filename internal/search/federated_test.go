package search

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ipetrov/sourcerer/internal/model"
	"github.com/ipetrov/sourcerer/internal/provider"
)

type stubAdapter struct {
	name    model.Provider
	results []model.RawResult
	err     error
}

func (a *stubAdapter) Name() model.Provider { return a.name }
func (a *stubAdapter) Search(ctx context.Context, topic string) ([]model.RawResult, error) {
	return a.results, a.err
}

func TestFederated_MergesAllAdapters(t *testing.T) {
	adapters := []provider.Adapter{
		&stubAdapter{name: "a", results: []model.RawResult{
			{Title: "one", Link: "https://x.test/1", Origin: "a"},
		}},
		&stubAdapter{name: "b", results: []model.RawResult{
			{Title: "two", Link: "https://x.test/2", Origin: "b"},
			{Title: "three", Link: "https://x.test/3", Origin: "b"},
		}},
	}

	results := Federated(context.Background(), "topic", adapters, model.NopObserver())
	if len(results) != 3 {
		t.Fatalf("expected 3 merged results, got %d", len(results))
	}
	links := make(map[string]bool)
	for _, r := range results {
		links[r.Link] = true
	}
	for _, want := range []string{"https://x.test/1", "https://x.test/2", "https://x.test/3"} {
		if !links[want] {
			t.Errorf("missing result %s", want)
		}
	}
}

func TestFederated_IsolatesFailures(t *testing.T) {
	adapters := []provider.Adapter{
		&stubAdapter{name: "broken", err: errors.New("endpoint down")},
		&stubAdapter{name: "ok", results: []model.RawResult{
			{Title: "survivor", Link: "https://x.test/ok"},
		}},
	}

	results := Federated(context.Background(), "topic", adapters, model.NopObserver())
	if len(results) != 1 {
		t.Fatalf("expected the healthy adapter's result, got %d results", len(results))
	}
	if results[0].Link != "https://x.test/ok" {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func TestDedupe(t *testing.T) {
	input := []model.RawResult{
		{Title: "first", Link: "https://x.test/a", Origin: "p1"},
		{Title: "dup", Link: "https://x.test/a", Origin: "p2"},
		{Title: "second", Link: "https://x.test/b"},
		{Title: "no link"},
	}

	deduped := Dedupe(input)
	if len(deduped) != 2 {
		t.Fatalf("expected 2 results, got %d", len(deduped))
	}
	// First occurrence wins.
	if deduped[0].Title != "first" || deduped[0].Origin != model.Provider("p1") {
		t.Errorf("expected first occurrence kept, got %+v", deduped[0])
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	input := []model.RawResult{
		{Title: "a", Link: "https://x.test/a"},
		{Title: "a2", Link: "https://x.test/a"},
		{Title: "b", Link: "https://x.test/b"},
	}

	once := Dedupe(input)
	twice := Dedupe(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedupe is not idempotent: %+v vs %+v", once, twice)
	}
}
