package geom

import "math"

// Path is an ordered sequence of points. Depending on context it represents
// either a closed polygon ring or an open polyline.
type Path []Point

// Paths is a collection of independent Path values.
type Paths []Path

// Size returns the bounding box of the path as (min, max).
func (p Path) Size() (min, max Point) {
	if len(p) == 0 {
		return Point{}, Point{}
	}
	min, max = p[0], p[0]
	for _, pt := range p[1:] {
		if pt.x < min.x {
			min.x = pt.x
		}
		if pt.y < min.y {
			min.y = pt.y
		}
		if pt.x > max.x {
			max.x = pt.x
		}
		if pt.y > max.y {
			max.y = pt.y
		}
	}
	return min, max
}

// LengthMM returns the total length of the path walked as an open polyline.
func (p Path) LengthMM() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += p[i].Dist(p[i-1])
	}
	return total
}

// Simplify removes near-duplicate consecutive points. A negative tolerance
// picks a small default, mirroring GoSlice's Path.Simplify(-1, -1) usage.
func (p Path) Simplify(tolerance Micrometer) Path {
	if tolerance < 0 {
		tolerance = 10
	}
	if len(p) < 2 {
		return p
	}
	result := Path{p[0]}
	for _, pt := range p[1:] {
		if pt.Sub(result[len(result)-1]).ShorterThanOrEqual(tolerance) {
			continue
		}
		result = append(result, pt)
	}
	return result
}

// Redistribute resamples the path (treated as an open polyline) so that
// consecutive points are approximately distanceMM apart, preserving the
// path's start and end. Mirrors original_source's redistribute_vertices.
func (p Path) Redistribute(distanceMM float64) Path {
	total := p.LengthMM()
	if total == 0 || len(p) < 2 {
		return p
	}
	numVert := int(math.Round(total / distanceMM))
	if numVert == 0 {
		numVert = 1
	}
	result := make(Path, 0, numVert+1)
	for n := 0; n <= numVert; n++ {
		frac := float64(n) / float64(numVert)
		result = append(result, p.interpolateNormalized(frac))
	}
	return result
}

// interpolateNormalized returns the point at the given normalized [0,1]
// distance fraction along the open polyline.
func (p Path) interpolateNormalized(frac float64) Point {
	if frac <= 0 || len(p) == 1 {
		return p[0]
	}
	if frac >= 1 {
		return p[len(p)-1]
	}
	target := p.LengthMM() * frac
	walked := 0.0
	for i := 1; i < len(p); i++ {
		segLen := p[i].Dist(p[i-1])
		if walked+segLen >= target {
			remain := target - walked
			if segLen == 0 {
				return p[i]
			}
			t := remain / segLen
			return NewPointMM(
				p[i-1].XMM()+(p[i].XMM()-p[i-1].XMM())*t,
				p[i-1].YMM()+(p[i].YMM()-p[i-1].YMM())*t,
			)
		}
		walked += segLen
	}
	return p[len(p)-1]
}

// Closed returns the path with its first point appended at the end, useful
// for treating a polygon ring's boundary as a closed walk of edges.
func (p Path) Closed() Path {
	if len(p) == 0 || p[0] == p[len(p)-1] {
		return p
	}
	closed := make(Path, len(p)+1)
	copy(closed, p)
	closed[len(p)] = p[0]
	return closed
}

// PointToPathDistanceMM returns the minimum distance (mm) from pt to any
// segment of the path.
func PointToPathDistanceMM(pt Point, path Path) float64 {
	if len(path) == 0 {
		return math.Inf(1)
	}
	if len(path) == 1 {
		return pt.Dist(path[0])
	}
	best := math.Inf(1)
	for i := 1; i < len(path); i++ {
		d := pointToSegmentDistanceMM(pt, path[i-1], path[i])
		if d < best {
			best = d
		}
	}
	return best
}

func pointToSegmentDistanceMM(pt, a, b Point) float64 {
	ax, ay := a.XMM(), a.YMM()
	bx, by := b.XMM(), b.YMM()
	px, py := pt.XMM(), pt.YMM()

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return pt.Dist(a)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	projX := ax + t*dx
	projY := ay + t*dy
	return math.Hypot(px-projX, py-projY)
}
