package money

import (
	"math"
	"testing"
)

func TestValid(t *testing.T) {
	tests := []struct {
		in   float64
		want bool
	}{
		{0, true},
		{250, true},
		{200.55, true},
		{0.1, true},
		{-42.5, true},
		{Max, true},
		{10.005, false},
		{0.001, false},
		{1e11, false},
		{Max + 0.01, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Errorf("Valid(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRound(t *testing.T) {
	if got := Round(120 + 200.55); got != 320.55 {
		t.Errorf("expected 320.55, got %v", got)
	}
	if got := Round(320.55 - 110.25); got != 210.3 {
		t.Errorf("expected 210.3, got %v", got)
	}
}
