package clip

import "ArcOverhang/geom"

// CoincidentEdges splits subject (a ring or open polyline, walked edge by
// edge) into the sub-polylines whose edges lie within epsilonMM of other,
// and the sub-polylines that don't. It answers "which portion of this
// boundary coincides with that boundary", a query no boolean/offset
// library exposes directly: used both for a region's start-line/
// boundary-line split, and, applied to a single circle ring against a
// swept-region boundary, for arc-boundary extraction.
//
// An edge is classified as coincident when both of its endpoints lie
// within epsilonMM of some edge of other.
func CoincidentEdges(subject geom.Path, other geom.Path, epsilonMM float64) (coincident, rest geom.Paths) {
	if len(subject) < 2 {
		return nil, geom.Paths{subject}
	}

	classify := func(p geom.Point) bool {
		return geom.PointToPathDistanceMM(p, other) <= epsilonMM
	}

	var curCoincident, curRest geom.Path
	flushCoincident := func() {
		if len(curCoincident) >= 2 {
			coincident = append(coincident, curCoincident)
		}
		curCoincident = nil
	}
	flushRest := func() {
		if len(curRest) >= 2 {
			rest = append(rest, curRest)
		}
		curRest = nil
	}

	for i := 1; i < len(subject); i++ {
		a, b := subject[i-1], subject[i]
		onOther := classify(a) && classify(b)
		if onOther {
			flushRest()
			if len(curCoincident) == 0 {
				curCoincident = append(curCoincident, a)
			}
			curCoincident = append(curCoincident, b)
		} else {
			flushCoincident()
			if len(curRest) == 0 {
				curRest = append(curRest, a)
			}
			curRest = append(curRest, b)
		}
	}
	flushCoincident()
	flushRest()

	return coincident, rest
}

// RadiusEdges splits ring into the sub-polylines whose points lie within
// epsilonMM of distance radiusMM from center (the "exposed on the circle"
// edges of an arc's swept-region boundary) and the rest.
func RadiusEdges(ring geom.Path, center geom.Point, radiusMM, epsilonMM float64) (onCircle, rest geom.Paths) {
	if len(ring) < 2 {
		return nil, geom.Paths{ring}
	}

	onRadius := func(p geom.Point) bool {
		d := p.Dist(center)
		return d >= radiusMM-epsilonMM && d <= radiusMM+epsilonMM
	}

	var curOn, curRest geom.Path
	flushOn := func() {
		if len(curOn) >= 2 {
			onCircle = append(onCircle, curOn)
		}
		curOn = nil
	}
	flushRest := func() {
		if len(curRest) >= 2 {
			rest = append(rest, curRest)
		}
		curRest = nil
	}

	for i := 1; i < len(ring); i++ {
		a, b := ring[i-1], ring[i]
		if onRadius(a) && onRadius(b) {
			flushRest()
			if len(curOn) == 0 {
				curOn = append(curOn, a)
			}
			curOn = append(curOn, b)
		} else {
			flushOn()
			if len(curRest) == 0 {
				curRest = append(curRest, a)
			}
			curRest = append(curRest, b)
		}
	}
	flushOn()
	flushRest()

	return onCircle, rest
}

// MergeChains joins polylines end-to-end where one's last point equals (or
// is within epsilonMM of) another's first point, the equivalent of
// shapely's ops.linemerge used throughout original_source to coalesce
// MultiLineString intersections into single LineStrings.
func MergeChains(chains geom.Paths, epsilonMM float64) geom.Paths {
	remaining := make(geom.Paths, len(chains))
	copy(remaining, chains)

	var merged geom.Paths
	for len(remaining) > 0 {
		cur := remaining[0]
		remaining = remaining[1:]

		progressed := true
		for progressed {
			progressed = false
			for i, cand := range remaining {
				if cur[len(cur)-1].Dist(cand[0]) <= epsilonMM {
					cur = append(cur, cand[1:]...)
					remaining = append(remaining[:i], remaining[i+1:]...)
					progressed = true
					break
				}
				if cur[len(cur)-1].Dist(cand[len(cand)-1]) <= epsilonMM {
					cur = append(cur, reversePath(cand)[1:]...)
					remaining = append(remaining[:i], remaining[i+1:]...)
					progressed = true
					break
				}
			}
		}
		merged = append(merged, cur)
	}
	return merged
}

func reversePath(p geom.Path) geom.Path {
	r := make(geom.Path, len(p))
	for i, pt := range p {
		r[len(p)-1-i] = pt
	}
	return r
}
