package trend

import (
	"errors"
	"math"
	"testing"
	"time"

	"tally/internal/aggregate"
	"tally/internal/core"
)

var testCategories = aggregate.NewCategorySet([]core.Category{
	{ID: 1, UserID: 7, Name: "food"},
	{ID: 2, UserID: 7, Name: "transport"},
})

func monthTx(id int64, cat core.CategoryID, cents int64, year int, month time.Month) core.Transaction {
	return core.Transaction{
		ID:        id,
		UserID:    7,
		Category:  cat,
		Amount:    core.Money{Cents: cents},
		Timestamp: time.Date(year, month, 15, 12, 0, 0, 0, time.UTC),
	}
}

func summarizeMonthly(t *testing.T, transactions []core.Transaction) []aggregate.Summary {
	t.Helper()
	summaries, err := aggregate.Summarize(transactions, core.Monthly, testCategories, aggregate.Options{})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	return summaries
}

func TestAnalyzeDeltas(t *testing.T) {
	summaries := summarizeMonthly(t, []core.Transaction{
		monthTx(1, 1, -5000, 2025, time.January),
		monthTx(2, 1, -6150, 2025, time.February),
	})

	points, err := Analyze(summaries, 1)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Analyze() returned %d points, want 2", len(points))
	}

	jan := points[0]
	if jan.HasBaseline || jan.PercentDefined {
		t.Errorf("january should have no baseline, got %+v", jan)
	}

	feb := points[1]
	if !feb.HasBaseline || !feb.PercentDefined {
		t.Fatalf("february should have a defined baseline, got %+v", feb)
	}
	if feb.DeltaCents != -1150 {
		t.Errorf("february DeltaCents = %d, want -1150", feb.DeltaCents)
	}
	// -1150 / -5000: spending grew 23% month over month.
	if math.Abs(feb.DeltaPercent-0.23) > 1e-9 {
		t.Errorf("february DeltaPercent = %f, want 0.23", feb.DeltaPercent)
	}
}

func TestAnalyzeZeroBaselineNet(t *testing.T) {
	// January nets exactly zero: baseline exists, percent must stay
	// undefined rather than becoming infinity.
	summaries := summarizeMonthly(t, []core.Transaction{
		monthTx(1, 1, -1000, 2025, time.January),
		monthTx(2, 1, 1000, 2025, time.January),
		monthTx(3, 1, -2000, 2025, time.February),
	})

	points, err := Analyze(summaries, 1)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	feb := points[1]
	if !feb.HasBaseline {
		t.Fatal("february should see the zero-net january baseline")
	}
	if feb.PercentDefined {
		t.Fatalf("percent over a zero baseline must be undefined, got %f", feb.DeltaPercent)
	}
	if feb.DeltaCents != -2000 {
		t.Errorf("DeltaCents = %d, want -2000", feb.DeltaCents)
	}
}

func TestAnalyzeBaselineOffset(t *testing.T) {
	summaries := summarizeMonthly(t, []core.Transaction{
		monthTx(1, 1, -4000, 2025, time.January),
		monthTx(2, 1, -9000, 2025, time.February),
		monthTx(3, 1, -5000, 2025, time.March),
	})

	points, err := Analyze(summaries, 2)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	march := points[2]
	if !march.HasBaseline {
		t.Fatal("march should baseline against january at offset 2")
	}
	if march.PreviousNet != -4000 || march.DeltaCents != -1000 {
		t.Errorf("march = {prev:%d delta:%d}, want {prev:-4000 delta:-1000}", march.PreviousNet, march.DeltaCents)
	}
	if points[1].HasBaseline {
		t.Error("february has no baseline two months back")
	}
}

func TestAnalyzeInvalidOffset(t *testing.T) {
	if _, err := Analyze(nil, 0); !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Fatalf("Analyze(offset 0) error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestAnalyzePreservesOrder(t *testing.T) {
	summaries := summarizeMonthly(t, []core.Transaction{
		monthTx(1, 1, -100, 2025, time.January),
		monthTx(2, 2, -100, 2025, time.January),
		monthTx(3, 1, -100, 2025, time.February),
	})
	points, err := Analyze(summaries, 1)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for i := range summaries {
		if points[i].Category != summaries[i].Category || !points[i].Bucket.Start.Equal(summaries[i].Bucket.Start) {
			t.Fatalf("point %d out of order: %+v vs summary %+v", i, points[i], summaries[i])
		}
	}
}

func TestClassify(t *testing.T) {
	classifier, err := NewClassifier(DefaultClassifierConfig())
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}

	tests := []struct {
		name string
		p    Point
		want Label
	}{
		{"rising", Point{DeltaPercent: 0.23, PercentDefined: true, HasBaseline: true}, Rising},
		{"falling", Point{DeltaPercent: -0.35, PercentDefined: true, HasBaseline: true}, Falling},
		{"stable", Point{DeltaPercent: 0.05, PercentDefined: true, HasBaseline: true}, Stable},
		{"exactly at threshold is stable", Point{DeltaPercent: 0.2, PercentDefined: true, HasBaseline: true}, Stable},
		{"no baseline", Point{}, Undefined},
		{"zero-net baseline", Point{HasBaseline: true}, Undefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(tt.p)
			if got.Label != tt.want {
				t.Errorf("Classify() label = %s, want %s", got.Label, tt.want)
			}
			if got.Message == "" {
				t.Error("Classify() message should not be empty")
			}
		})
	}
}

func TestNewClassifierInvalidThreshold(t *testing.T) {
	if _, err := NewClassifier(ClassifierConfig{SignificantChange: 0}); !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Fatalf("NewClassifier(0) error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestDirections(t *testing.T) {
	// Food net falls by exactly 1000 cents each month; transport appears
	// in a single bucket and has no direction.
	summaries := summarizeMonthly(t, []core.Transaction{
		monthTx(1, 1, -3000, 2025, time.January),
		monthTx(2, 1, -4000, 2025, time.February),
		monthTx(3, 1, -5000, 2025, time.March),
		monthTx(4, 2, -9000, 2025, time.February),
	})
	points, err := Analyze(summaries, 1)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	got := Directions(points)
	if len(got) != 1 {
		t.Fatalf("Directions() returned %d entries, want 1 (single-bucket categories skipped)", len(got))
	}
	d := got[0]
	if d.Category != 1 || d.PeriodsCovered != 3 {
		t.Errorf("direction = %+v, want category 1 over 3 periods", d)
	}
	if math.Abs(d.SlopeCentsFit-(-1000)) > 1e-9 {
		t.Errorf("SlopeCentsFit = %f, want -1000", d.SlopeCentsFit)
	}
	if math.Abs(d.R2-1) > 1e-9 {
		t.Errorf("R2 = %f, want 1 for an exact line", d.R2)
	}
}

func TestRegression(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		wantSlope float64
		wantR2    float64
	}{
		{"perfect line", []float64{100, 200, 300, 400}, 100, 1},
		{"flat series", []float64{500, 500, 500}, 0, 1},
		{"descending", []float64{400, 300, 200}, -100, 1},
		{"too short", []float64{42}, 0, 0},
		{"empty", nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slope, r2 := Regression(tt.values)
			if math.Abs(slope-tt.wantSlope) > 1e-9 {
				t.Errorf("slope = %f, want %f", slope, tt.wantSlope)
			}
			if math.Abs(r2-tt.wantR2) > 1e-9 {
				t.Errorf("r2 = %f, want %f", r2, tt.wantR2)
			}
		})
	}
}
