package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Point is a 2D image coordinate in pixels.
type Point struct {
	X float64
	Y float64
}

// Angle returns the angle at vertex b between rays b->a and b->c in degrees,
// within [0,180]. A zero-length ray yields 0.
func Angle(a, b, c Point) float64 {
	ba := []float64{a.X - b.X, a.Y - b.Y}
	bc := []float64{c.X - b.X, c.Y - b.Y}
	na := floats.Norm(ba, 2)
	nc := floats.Norm(bc, 2)
	if na == 0 || nc == 0 {
		return 0
	}
	cos := floats.Dot(ba, bc) / (na * nc)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}
