// Package classifier labels a hand-drawn shape with the nearest entry of a
// reference dataset.
//
// The pipeline is: pixels → filled mask (detection) → Hu invariants →
// signed log transform → per-vector normalization (moments) → Manhattan
// distance to every reference entry. The first entry at the minimum
// distance wins.
//
// Classification never falls back to a default label: an empty dataset is
// a dataset empty error. A drawing with no detectable shape is classified
// as the all-zero vector and flagged with EmptyMask.
package classifier
