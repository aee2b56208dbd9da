package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseSignedCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"20.00", 2000, true},
		{"-20.00", -2000, true},
		{"+5", 500, true},
		{"-0,50", -50, true},
		{"-12.346", -1235, true}, // half-up on the magnitude
		{"0", 0, false},
		{"0.00", 0, false},
		{"--5", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseSignedCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{2000, "20.00"},
		{-2000, "-20.00"},
		{123456, "1234.56"},
		{-7, "-0.07"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyAbs(t *testing.T) {
	if got := (Money{Cents: -250}).Abs(); got != 250 {
		t.Fatalf("Abs() = %d, want 250", got)
	}
	if got := (Money{Cents: 250}).Abs(); got != 250 {
		t.Fatalf("Abs() = %d, want 250", got)
	}
}
