// Package bracket locates sign-change intervals ("brackets") of a function
// by uniform sampling over a bounded domain.
//
// The scanner evaluates f at lo, lo+Δ, lo+2Δ, ... and reports every
// sub-interval [x, x+Δ] with f(x)·f(x+Δ) < 0. Sub-intervals that contain a
// known singular point of the function are skipped structurally: near a
// pole the product test reads large opposite-signed values as a sign
// change.
//
// # Known limitations
//
// Sampling is a heuristic and the limitations are inherent to it:
//   - a bracket narrower than Δ may be missed entirely
//   - an even number of roots inside one step cancels out and is missed
//   - a root exactly on a sample point gives a zero product and is missed
//
// Use a smaller step when these matter; the scanner does not refine
// adaptively.
package bracket
