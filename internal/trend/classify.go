package trend

import (
	"fmt"

	"tally/internal/core"
)

const (
	Rising    Label = "rising"
	Falling   Label = "falling"
	Stable    Label = "stable"
	Undefined Label = "undefined"
)

type Label string

// Insight is the qualitative layer over a Point.
type Insight struct {
	Point   Point
	Label   Label
	Message string
}

// ClassifierConfig holds insight thresholds. SignificantChange is the
// fraction beyond which a delta stops being "stable".
type ClassifierConfig struct {
	SignificantChange float64
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{SignificantChange: 0.2}
}

type Classifier struct {
	significant float64
}

func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	if cfg.SignificantChange <= 0 {
		return nil, fmt.Errorf("trend classifier: %w: significant change threshold %f, must be positive",
			core.ErrInvalidConfiguration, cfg.SignificantChange)
	}
	return &Classifier{significant: cfg.SignificantChange}, nil
}

// Classify maps one point to a label. A percent strictly beyond the
// threshold in either direction is rising/falling; an undefined percent is
// never coerced into a numeric label.
func (c *Classifier) Classify(p Point) Insight {
	switch {
	case !p.PercentDefined:
		return Insight{Point: p, Label: Undefined, Message: "no prior baseline to compare against"}
	case p.DeltaPercent > c.significant:
		return Insight{Point: p, Label: Rising,
			Message: fmt.Sprintf("up %.0f%% vs %s", p.DeltaPercent*100, baselineDesc(p))}
	case p.DeltaPercent < -c.significant:
		return Insight{Point: p, Label: Falling,
			Message: fmt.Sprintf("down %.0f%% vs %s", -p.DeltaPercent*100, baselineDesc(p))}
	default:
		return Insight{Point: p, Label: Stable,
			Message: fmt.Sprintf("steady (%+.1f%% vs %s)", p.DeltaPercent*100, baselineDesc(p))}
	}
}

// Insights classifies every point, preserving input order.
func (c *Classifier) Insights(points []Point) []Insight {
	out := make([]Insight, 0, len(points))
	for _, p := range points {
		out = append(out, c.Classify(p))
	}
	return out
}

func baselineDesc(p Point) string {
	unit := p.Bucket.Grain.String()
	if p.BaselineOffset == 1 {
		return "prior " + unit
	}
	return fmt.Sprintf("%d %ss prior", p.BaselineOffset, unit)
}
