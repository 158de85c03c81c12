// Package money holds the rules for amounts stored in NUMERIC(12,2) columns.
package money

import (
	"math"
	"strconv"
	"strings"
)

// Max is the largest amount a NUMERIC(12,2) column holds.
const Max = 9_999_999_999.99

// Round rounds v to whole cents.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// Valid reports whether v is finite, no larger than Max in magnitude and
// written with at most two decimal places, so it survives storage unchanged.
func Valid(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > Max {
		return false
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s)-i-1 <= 2
	}
	return true
}
