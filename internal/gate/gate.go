// Package gate bounds the validated source set so the downstream
// analysis prompt stays within its context budget.
package gate

import (
	"sort"

	"github.com/ipetrov/sourcerer/internal/model"
)

// Apply drops sources below the reliability threshold, sorts the
// remainder by descending reliability, and truncates to maxSources.
// Truncation always removes the lowest-reliability tail, never an
// arbitrary subset.
func Apply(sources []model.GroundingSource, threshold float64, maxSources int) []model.GroundingSource {
	kept := make([]model.GroundingSource, 0, len(sources))
	for _, s := range sources {
		if s.Reliability >= threshold {
			kept = append(kept, s)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Reliability > kept[j].Reliability
	})

	if maxSources > 0 && len(kept) > maxSources {
		kept = kept[:maxSources]
	}
	return kept
}
