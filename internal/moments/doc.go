// Package moments computes rotation, scale and translation invariant shape
// descriptors from binary masks and prepares them for nearest-neighbor
// comparison.
//
// # Pipeline
//
// A descriptor moves through three stages, each represented by the same
// fixed-size Vector type:
//
//  1. Raw: the seven Hu invariants computed by Hu from a binary mask.
//  2. Transformed: LogTransform compresses the dynamic range of each
//     invariant, which naturally spans many orders of magnitude.
//  3. Normalized: Normalize rescales the vector against its own mean and
//     population standard deviation.
//
// Vectors are compared with Manhattan (L1) distance.
//
// # Vector Length
//
// Vector is a [7]float64 array rather than a slice, so every stage is
// guaranteed to carry exactly seven components. There is no runtime length
// check anywhere in the package because a vector of any other length cannot
// be constructed.
//
// # Degenerate Masks
//
// A mask without foreground pixels has no centroid. Hu returns the all-zero
// vector for it instead of dividing by zero, and the zero vector passes
// through LogTransform and Normalize unchanged. Callers that need to tell an
// empty drawing apart from a real shape should check Spatial.M00.
package moments
