package moments

import "math"

// Normalize returns the z-score of every component computed against the
// vector's own mean and population standard deviation.
//
// The statistics come from the seven components of v itself, not from a
// population of samples. When the standard deviation is exactly zero (all
// components equal) the all-zero vector is returned.
func Normalize(v Vector) Vector {
	var sum float64
	for _, x := range v {
		sum += x
	}
	mean := sum / Size

	var variance float64
	for _, x := range v {
		d := x - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / Size)

	var out Vector
	if stddev == 0 {
		return out
	}
	for i, x := range v {
		out[i] = (x - mean) / stddev
	}
	return out
}

// Prepare applies LogTransform followed by Normalize. Query and reference
// vectors must both go through it before they are compared.
func Prepare(raw Vector) Vector {
	return Normalize(LogTransform(raw))
}
