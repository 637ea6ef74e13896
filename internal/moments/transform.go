package moments

import "math"

// LogEpsilon is the magnitude at or below which a component is considered
// zero by LogTransform.
const LogEpsilon = 1e-10

// LogTransform compresses each component to a signed base-10 logarithm of its
// magnitude.
//
// For |v| > LogEpsilon the result is sign(v) * log10(|v|), which is the same
// as -sign(v) * |log10(|v|)| over the whole range Hu invariants live in
// (|v| < 1). The result therefore has the opposite sign of v when |v| < 1
// and the same sign when |v| > 1. The common -copysign(log10(|v|), v) form
// agrees with this only below 1; for |v| > 1 it yields the opposite sign.
// Components with |v| <= LogEpsilon map to exactly 0 so that no infinities
// leave this stage.
func LogTransform(v Vector) Vector {
	var out Vector
	for i, x := range v {
		out[i] = logComponent(x)
	}
	return out
}

func logComponent(x float64) float64 {
	mag := math.Abs(x)
	if !(mag > LogEpsilon) {
		return 0
	}
	l := math.Log10(mag)
	if x < 0 {
		return -l
	}
	return l
}
