// Package selection picks the digest items from scored candidates, favouring
// one item per category before filling the remaining slots.
package selection

import (
	"sort"

	"github.com/okian/scout/internal/domain/model"
)

// Select returns at most limit candidates.
//
// Pass one takes the best candidate of each distinct category; pass two fills
// the remaining slots with the next best regardless of category. Output is
// ordered by score descending; equal scores keep discovery order.
func Select(cands []model.ScoredCandidate, limit int) []model.ScoredCandidate {
	if limit <= 0 || len(cands) == 0 {
		return nil
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].Score > cands[order[b]].Score
	})

	picked := make([]bool, len(order))
	n := 0

	// Pass one: diversity.
	seen := make(map[model.Category]struct{})
	for rank, idx := range order {
		if n == limit {
			break
		}
		cat := cands[idx].Category
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		picked[rank] = true
		n++
	}

	// Pass two: fill.
	for rank := range order {
		if n == limit {
			break
		}
		if picked[rank] {
			continue
		}
		picked[rank] = true
		n++
	}

	out := make([]model.ScoredCandidate, 0, n)
	for rank, idx := range order {
		if picked[rank] {
			out = append(out, cands[idx])
		}
	}
	return out
}

// BySearch groups selected candidates by the search that found them, keeping
// each group in selection order.
func BySearch(selected []model.ScoredCandidate) map[string][]model.ScoredCandidate {
	out := make(map[string][]model.ScoredCandidate)
	for _, sc := range selected {
		out[sc.Search] = append(out[sc.Search], sc)
	}
	return out
}
