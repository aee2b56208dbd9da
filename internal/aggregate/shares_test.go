package aggregate

import (
	"math"
	"testing"

	"tally/internal/core"
)

func TestShares(t *testing.T) {
	transactions := []core.Transaction{
		tx(1, 1, -6000, day(1, 9)),
		tx(2, 1, -2000, day(2, 9)),
		tx(3, 2, -2000, day(1, 9)),
		tx(4, 3, 5000, day(1, 9)), // inflow only, zero share
	}
	summaries, err := Summarize(transactions, core.Daily, testCategories, Options{})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	shares := Shares(summaries, testCategories)
	if len(shares) != 3 {
		t.Fatalf("Shares() returned %d rows, want 3", len(shares))
	}

	if shares[0].Category != 1 || shares[0].Name != "food" || shares[0].OutflowCents != 8000 {
		t.Errorf("top share = %+v, want food with 8000 outflow", shares[0])
	}
	if math.Abs(shares[0].Share-0.8) > 1e-9 {
		t.Errorf("food share = %f, want 0.8", shares[0].Share)
	}
	if shares[1].Category != 2 || math.Abs(shares[1].Share-0.2) > 1e-9 {
		t.Errorf("second share = %+v, want transport at 0.2", shares[1])
	}
	if shares[2].Category != 3 || shares[2].OutflowCents != 0 || shares[2].Share != 0 {
		t.Errorf("inflow-only share = %+v, want salary at zero", shares[2])
	}
}

func TestSharesNoOutflow(t *testing.T) {
	transactions := []core.Transaction{
		tx(1, 3, 5000, day(1, 9)),
	}
	summaries, err := Summarize(transactions, core.Daily, testCategories, Options{})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	shares := Shares(summaries, testCategories)
	if len(shares) != 1 {
		t.Fatalf("Shares() returned %d rows, want 1", len(shares))
	}
	if shares[0].Share != 0 {
		t.Fatalf("share with zero total outflow = %f, want 0", shares[0].Share)
	}
}

func TestSharesEmpty(t *testing.T) {
	if got := Shares(nil, testCategories); len(got) != 0 {
		t.Fatalf("Shares(nil) returned %d rows, want 0", len(got))
	}
}
