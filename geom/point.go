package geom

import "math"

// Point is a 2-D planar coordinate in fixed-point micrometers.
type Point struct {
	x, y Micrometer
}

// NewPoint builds a Point from raw Micrometer coordinates.
func NewPoint(x, y Micrometer) Point {
	return Point{x: x, y: y}
}

// NewPointMM builds a Point from floating point millimeter coordinates.
func NewPointMM(x, y float64) Point {
	return Point{x: FromMM(x), y: FromMM(y)}
}

func (p Point) X() Micrometer { return p.x }
func (p Point) Y() Micrometer { return p.y }

// XMM and YMM return the coordinates as millimeters.
func (p Point) XMM() float64 { return p.x.ToMillimeter() }
func (p Point) YMM() float64 { return p.y.ToMillimeter() }

func (p Point) SetX(x Micrometer) Point { p.x = x; return p }
func (p Point) SetY(y Micrometer) Point { p.y = y; return p }

// Sub returns p - o.
func (p Point) Sub(o Point) Point {
	return Point{x: p.x - o.x, y: p.y - o.y}
}

// Add returns p + o.
func (p Point) Add(o Point) Point {
	return Point{x: p.x + o.x, y: p.y + o.y}
}

// Size returns the euclidean length of p interpreted as a vector.
func (p Point) Size() Micrometer {
	return Micrometer(math.Hypot(float64(p.x), float64(p.y)))
}

// Dist returns the euclidean distance between p and o, in millimeters.
func (p Point) Dist(o Point) float64 {
	dx := p.XMM() - o.XMM()
	dy := p.YMM() - o.YMM()
	return math.Hypot(dx, dy)
}

// ShorterThan reports whether p (as a vector) is strictly shorter than d.
func (p Point) ShorterThan(d Micrometer) bool {
	return p.Size() < d
}

// ShorterThanOrEqual reports whether p (as a vector) is not longer than d.
func (p Point) ShorterThanOrEqual(d Micrometer) bool {
	return p.Size() <= d
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{x: (a.x + b.x) / 2, y: (a.y + b.y) / 2}
}

// MoveToward returns the point reached by moving distance (mm) from start
// toward target.
func MoveToward(start, target Point, distanceMM float64) Point {
	dx := target.XMM() - start.XMM()
	dy := target.YMM() - start.YMM()
	mag := math.Hypot(dx, dy)
	if mag == 0 {
		return start
	}
	return NewPointMM(start.XMM()+dx/mag*distanceMM, start.YMM()+dy/mag*distanceMM)
}
