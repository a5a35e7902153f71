package bracket

import (
	"fmt"
	"math"
)

// Interval is a closed interval [A, B] with A < B.
type Interval struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
}

// Width returns B - A.
func (iv Interval) Width() float64 {
	return iv.B - iv.A
}

// Midpoint returns (A + B) / 2.
func (iv Interval) Midpoint() float64 {
	return (iv.A + iv.B) / 2
}

// Contains reports whether A <= x <= B.
func (iv Interval) Contains(x float64) bool {
	return iv.A <= x && x <= iv.B
}

// Valid reports whether both endpoints are finite and A < B.
func (iv Interval) Valid() bool {
	return !math.IsNaN(iv.A) && !math.IsNaN(iv.B) &&
		!math.IsInf(iv.A, 0) && !math.IsInf(iv.B, 0) &&
		iv.A < iv.B
}

// String formats the interval the way reports print it.
func (iv Interval) String() string {
	return fmt.Sprintf("[%.4f, %.4f]", iv.A, iv.B)
}
