package clip

import (
	"math"

	"ArcOverhang/geom"
)

// Circle returns a regular n-gon approximation of the circle (center,
// radiusMM), the same construction as original_source's create_circle —
// used everywhere a true arc needs to be fed through polygon boolean ops.
func Circle(center geom.Point, radiusMM float64, n int) geom.Polygon {
	if n < 3 {
		n = 3
	}
	pts := make(geom.Path, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = geom.NewPointMM(
			center.XMM()+radiusMM*math.Sin(theta),
			center.YMM()+radiusMM*math.Cos(theta),
		)
	}
	return geom.NewPolygon(pts)
}
