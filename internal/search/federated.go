// Package search fans a topic out to every enabled provider adapter
// concurrently and merges the replies into a deduplicated result set.
package search

import (
	"context"
	"sync"

	"github.com/ipetrov/sourcerer/internal/model"
	"github.com/ipetrov/sourcerer/internal/provider"
)

// Federated runs every adapter concurrently and merges the results.
// Each adapter's failure is isolated: it is reported to the observer
// and contributes zero results, never aborting its siblings. The
// model-backed adapter runs alongside the scrape-based ones so slow
// model calls do not serialize behind them.
func Federated(ctx context.Context, topic string, adapters []provider.Adapter, obs model.Observer) []model.RawResult {
	type adapterReply struct {
		name    model.Provider
		results []model.RawResult
		err     error
	}

	ch := make(chan adapterReply, len(adapters))
	var wg sync.WaitGroup

	for _, a := range adapters {
		wg.Add(1)
		go func(a provider.Adapter) {
			defer wg.Done()
			results, err := a.Search(ctx, topic)
			ch <- adapterReply{name: a.Name(), results: results, err: err}
		}(a)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []model.RawResult
	for reply := range ch {
		if reply.err != nil {
			obs.Progress("search", "provider %s failed: %v", reply.name, reply.err)
			continue
		}
		obs.Progress("search", "provider %s returned %d results", reply.name, len(reply.results))
		all = append(all, reply.results...)
	}

	return Dedupe(all)
}

// Dedupe removes results sharing a link. Exact case-sensitive URL
// match; first occurrence wins. Idempotent.
func Dedupe(results []model.RawResult) []model.RawResult {
	seen := make(map[string]bool, len(results))
	deduped := make([]model.RawResult, 0, len(results))
	for _, r := range results {
		if r.Link == "" || seen[r.Link] {
			continue
		}
		seen[r.Link] = true
		deduped = append(deduped, r)
	}
	return deduped
}
