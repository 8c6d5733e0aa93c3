package mathhelp

import (
	"math"

	"golang.org/x/exp/constraints"
)

// BetweenInc reports whether f lies between p and q, bounds included, in either order.
func BetweenInc[T constraints.Integer | constraints.Float](f, p, q T) bool {
	if p <= q {
		return p <= f && f <= q
	}
	return q <= f && f <= p
}

// relative distance to an integer below which a quotient is taken to be that integer,
// a few thousand ulps of float64
const snapTolerance = 1e-12

// FloorDiv divides and rounds towards negative infinity.
// A value exactly on a multiple of d lands on that multiple, not the one below.
// Quotients within snapTolerance*max(1, |q|) of an integer snap to it first, so floating point
// noise from a coordinate round trip cannot drop a boundary value into the previous cell.
func FloorDiv(n, d float64) int {
	q := n / d
	if r := math.Round(q); math.Abs(q-r) < snapTolerance*math.Max(1, math.Abs(q)) {
		return int(r)
	}
	return int(math.Floor(q))
}
