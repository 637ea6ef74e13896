package moments

import (
	"fmt"
	"math"
	"strings"
)

// Size is the number of Hu invariants in a descriptor.
const Size = 7

// Vector is one shape descriptor: raw, log-transformed or normalized Hu
// invariants, in the classical order I1..I7.
type Vector [Size]float64

// IsFinite reports whether every component is a finite number.
func (v Vector) IsFinite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Slice returns the components as a newly allocated slice, convenient for
// JSON output.
func (v Vector) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, v[:])
	return out
}

// String formats the vector as a comma separated row, the same layout used by
// reference dataset files.
func (v Vector) String() string {
	parts := make([]string, Size)
	for i, x := range v {
		parts[i] = fmt.Sprintf("%g", x)
	}
	return strings.Join(parts, ",")
}

// Manhattan returns the L1 distance between two vectors: the sum of the
// absolute per-component differences.
func Manhattan(a, b Vector) float64 {
	var d float64
	for i := range a {
		d += math.Abs(a[i] - b[i])
	}
	return d
}
