package aggregate

import (
	"sort"

	"tally/internal/core"
)

// CategoryShare is one row of a spending-by-category breakdown: total
// outflow for the category across every bucket in the input, plus its
// fraction of the overall outflow.
type CategoryShare struct {
	Category     core.CategoryID
	Name         string
	OutflowCents int64
	Share        float64
	Count        int
}

// Shares collapses summaries into per-category outflow totals sorted by
// amount descending (ties by category id for stable rendering). Share is 0
// for every row when nothing was spent at all.
func Shares(summaries []Summary, categories CategorySet) []CategoryShare {
	byCategory := make(map[core.CategoryID]*CategoryShare)
	var total int64
	for _, s := range summaries {
		row, ok := byCategory[s.Category]
		if !ok {
			row = &CategoryShare{Category: s.Category, Name: categories.Name(s.Category)}
			byCategory[s.Category] = row
		}
		row.OutflowCents += s.OutflowCents
		row.Count += s.Count
		total += s.OutflowCents
	}

	out := make([]CategoryShare, 0, len(byCategory))
	for _, row := range byCategory {
		if total > 0 {
			row.Share = float64(row.OutflowCents) / float64(total)
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OutflowCents != out[j].OutflowCents {
			return out[i].OutflowCents > out[j].OutflowCents
		}
		return out[i].Category < out[j].Category
	})
	return out
}
