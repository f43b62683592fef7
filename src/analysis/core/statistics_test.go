package core

import (
	"math"
	"testing"
)

func TestCalculateMeanStd(t *testing.T) {
	mean, std := CalculateMeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || std != 2 {
		t.Fatalf("expected 5/2, got %v/%v", mean, std)
	}

	mean, std = CalculateMeanStd([]float64{42})
	if mean != 42 || std != 0 {
		t.Fatalf("single element: got %v/%v", mean, std)
	}

	mean, std = CalculateMeanStd(nil)
	if mean != 0 || std != 0 {
		t.Fatalf("empty: got %v/%v", mean, std)
	}
}

func TestCalculateZScoreAndChange(t *testing.T) {
	if z := CalculateZScore(9, 5, 2); z != 2 {
		t.Fatalf("expected z=2, got %v", z)
	}
	if z := CalculateZScore(9, 5, 0); z != 0 {
		t.Fatalf("zero std must give 0, got %v", z)
	}
	if c := CalculateChangePercent(110, 100); math.Abs(c-10) > 1e-9 {
		t.Fatalf("expected 10%%, got %v", c)
	}
	if c := CalculateChangePercent(110, 0); c != 0 {
		t.Fatalf("zero base must give 0, got %v", c)
	}
}

func TestComputeOHLC(t *testing.T) {
	got := ComputeOHLC([]float64{3, 5, 1, 4})
	want := OHLC{Open: 3, High: 5, Low: 1, Close: 4}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if ComputeOHLC(nil) != (OHLC{}) {
		t.Fatalf("empty series must be zero")
	}
}
