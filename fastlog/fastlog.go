// Package fastlog provides a precomputed table of logarithms of small
// non-negative integers. The table is created once and is read-only
// afterwards, so it can be shared between goroutines.
package fastlog

import "math"

// DefaultSize is the default number of tabulated values.
const DefaultSize = 1 << 16

// Table stores log(i) for 0 <= i < Len().
type Table struct {
	values []float64
}

// NewTable creates a table for integers in [0, n).
func NewTable(n int) *Table {
	if n < 1 {
		n = 1
	}
	t := &Table{values: make([]float64, n)}
	t.values[0] = math.Inf(-1)
	for i := 1; i < n; i++ {
		t.values[i] = math.Log(float64(i))
	}
	return t
}

// Len returns the number of tabulated values.
func (t *Table) Len() int {
	return len(t.values)
}

// Log returns the natural logarithm of i. Values outside of the table
// are computed directly.
func (t *Table) Log(i int) float64 {
	if i >= 0 && i < len(t.values) {
		return t.values[i]
	}
	return math.Log(float64(i))
}
