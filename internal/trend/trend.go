// Package trend compares period summaries against earlier baselines and
// classifies the deltas into qualitative insights.
package trend

import (
	"fmt"

	"tally/internal/aggregate"
	"tally/internal/core"
	"tally/internal/period"
)

// Point compares one summary with the summary of the same category
// baselineOffset periods earlier.
//
// "No baseline" and "no change" are distinct observable conditions:
// HasBaseline is false when no earlier summary exists (deltas carry no
// information then), and PercentDefined is false whenever the percent
// could not be computed, including a baseline net of exactly zero. The
// percent is never reported as zero or infinity in those cases.
type Point struct {
	Bucket         period.Bucket
	Category       core.CategoryID
	BaselineOffset int
	CurrentNet     int64
	PreviousNet    int64
	DeltaCents     int64
	DeltaPercent   float64
	HasBaseline    bool
	PercentDefined bool
}

// Analyze derives a Point per input summary. The input must already be in
// Summarize order; it is consumed as-is and never re-sorted, which keeps
// the dependency on the aggregation pass explicit and cheap.
func Analyze(summaries []aggregate.Summary, baselineOffset int) ([]Point, error) {
	if baselineOffset < 1 {
		return nil, fmt.Errorf("trend: %w: baseline offset %d, must be at least 1", core.ErrInvalidConfiguration, baselineOffset)
	}

	idx := aggregate.Index(summaries)
	points := make([]Point, 0, len(summaries))
	for _, s := range summaries {
		p := Point{
			Bucket:         s.Bucket,
			Category:       s.Category,
			BaselineOffset: baselineOffset,
			CurrentNet:     s.NetCents,
		}
		prev, ok := idx[aggregate.KeyOf(s.Bucket.Offset(-baselineOffset), s.Category)]
		if ok {
			p.HasBaseline = true
			p.PreviousNet = prev.NetCents
			p.DeltaCents = s.NetCents - prev.NetCents
			if prev.NetCents != 0 {
				p.PercentDefined = true
				p.DeltaPercent = float64(p.DeltaCents) / float64(prev.NetCents)
			}
		}
		points = append(points, p)
	}
	return points, nil
}
