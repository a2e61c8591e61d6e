// Package arcpacker implements the A stage: packing a validated bridge
// region with concentric-arc fill. Mirrors original_source's Arc class,
// get_start_pt_on_ls, generate_multiple_concentric_arcs, get_arc_boundaries,
// get_farthest_point and the main() while-loop that drives the frontier
// expansion.
package arcpacker

import (
	"math"
	"math/rand"

	"ArcOverhang/clip"
	"ArcOverhang/geom"
)

// Options configures arc generation. Field names follow config.Settings;
// the pipeline passes the relevant subset in from a config.Settings value.
type Options struct {
	Engine                       clip.Engine
	PointsPerCircle              int
	ArcWidthMM                   float64
	ArcCenterOffsetMM            float64
	RMaxMM                       float64
	MaxDistanceFromPerimeterMM   float64
	MinStartArcs                 int
	NozzleDiameterMM             float64
	SafetyBreakMaxArcs           int
	UseLeastAmountOfCenterPoints bool
	Rand                         *rand.Rand
}

// Arc is one concentric ring: its center, radius, and the polygon it
// actually occupies once clipped against the remaining empty space.
type Arc struct {
	Center geom.Point
	Radius float64
	Poly   geom.MultiPolygon
}

// Result is the full output of packing a single region: the arc polygons
// generated (for remaining-space bookkeeping) and the arc boundary
// polylines ready for gcode emission, in emission order.
type Result struct {
	Arcs          []Arc
	ArcBoundaries geom.Paths
	RemainingSpace geom.MultiPolygon
	FillPercent   float64
}

// generateConcentricArc builds the disk of the given radius at center,
// clipped to remaining, as one arc ring. Mirrors Arc.generate_concentric_arc.
func generateConcentricArc(engine clip.Engine, center geom.Point, radiusMM float64, n int, remaining geom.MultiPolygon) Arc {
	disk := clip.Circle(center, radiusMM, n).AsMultiPolygon()
	clipped, ok := engine.Intersection(disk, remaining)
	if !ok {
		clipped = nil
	}
	return Arc{Center: center, Radius: radiusMM, Poly: clipped}
}

// arcBoundary extracts the portion of an arc's polygon boundary that
// actually lies on its circle (as opposed to the edges introduced by
// clipping against remaining space / the region boundary). Mirrors
// Arc.extract_arc_boundary.
func arcBoundary(a Arc, pointsPerCircle int) geom.Paths {
	var out geom.Paths
	for _, poly := range a.Poly {
		for _, ring := range poly.Boundary() {
			onCircle, _ := clip.RadiusEdges(ring, a.Center, a.Radius, 0.02)
			out = append(out, onCircle...)
		}
	}
	return out
}

// generateMultipleConcentricArcs grows a family of arcs from rMin to rMax
// around startPt, stopping early if an arc intersects boundary (unless
// UseLeastAmountOfCenterPoints keeps generating anyway). Mirrors
// generate_multiple_concentric_arcs.
func generateMultipleConcentricArcs(opts Options, startPt geom.Point, rMin, rMax float64, boundary geom.Paths, remaining geom.MultiPolygon) []Arc {
	var arcs []Arc
	for r := rMin; r <= rMax; r += opts.ArcWidthMM {
		arc := generateConcentricArc(opts.Engine, startPt, r, opts.PointsPerCircle, remaining)
		if intersectsAny(arc.Poly, boundary) && !opts.UseLeastAmountOfCenterPoints {
			break
		}
		arcs = append(arcs, arc)
	}
	return arcs
}

func intersectsAny(poly geom.MultiPolygon, lines geom.Paths) bool {
	for _, line := range lines {
		for _, pt := range line {
			if poly.DistanceToMM(pt) < 0.01 {
				return true
			}
		}
		for _, p := range poly {
			if geom.PolygonDistanceToPathMM(p, line) < 0.01 {
				return true
			}
		}
	}
	return false
}

// getArcBoundaries extracts boundary polylines for every arc in arcs, in
// order. Mirrors get_arc_boundaries.
func getArcBoundaries(arcs []Arc, pointsPerCircle int) geom.Paths {
	var out geom.Paths
	for _, a := range arcs {
		out = append(out, arcBoundary(a, pointsPerCircle)...)
	}
	return out
}

// farthestPoint finds the point on arcPoly farthest from basePoly's
// boundary that still lies within remainingSpace, mirroring
// get_farthest_point. ok is false if no such point exists.
func farthestPoint(arcPoly geom.MultiPolygon, basePoly geom.Polygon, remainingSpace geom.MultiPolygon) (pt geom.Point, dist float64, ok bool) {
	longest := -1.0
	for _, poly := range arcPoly {
		for _, ring := range poly.Boundary() {
			for _, p := range ring {
				d := basePoly.DistanceToBoundaryMM(p)
				if d > longest && remainingSpace.ContainsPoint(p) {
					longest = d
					pt = p
					ok = true
				}
			}
		}
	}
	return pt, longest, ok
}

// moveToward returns the point distanceMM from start in the direction of
// target. Thin wrapper around geom.MoveToward for call-site symmetry with
// original_source's move_toward_point.
func moveToward(start, target geom.Point, distanceMM float64) geom.Point {
	return geom.MoveToward(start, target, distanceMM)
}

// startPointOnLine scores every interior vertex of ls by how close it is
// to the line's midpoint (by length) and how sharp a corner it sits on,
// returning the highest-scoring vertex. Mirrors get_start_pt_on_ls.
func startPointOnLine(ls geom.Path, cornerImportance float64, r *rand.Rand, chooseRandom bool) geom.Point {
	if len(ls) < 2 {
		return geom.Point{}
	}
	if chooseRandom {
		return ls[r.Intn(len(ls))]
	}
	if len(ls) == 2 {
		return geom.Midpoint(ls[0], ls[1])
	}

	total := ls.LengthMM()
	if total == 0 {
		return ls[0]
	}

	bestScore := -1.0
	best := ls[0]
	cur := 0.0
	for i := 1; i < len(ls)-1; i++ {
		cur += ls[i-1].Dist(ls[i])
		relLen := cur / total
		lengthScore := 1 - math.Abs(relLen-0.5)

		v1x, v1y := ls[i].XMM()-ls[i-1].XMM(), ls[i].YMM()-ls[i-1].YMM()
		v2x, v2y := ls[i+1].XMM()-ls[i].XMM(), ls[i+1].YMM()-ls[i].YMM()
		n1 := math.Hypot(v1x, v1y)
		n2 := math.Hypot(v2x, v2y)
		score := lengthScore
		if n1 > 0 && n2 > 0 {
			dot := (v1x*v2x + v1y*v2y) / (n1 * n2)
			if dot > 1 {
				dot = 1
			} else if dot < -1 {
				dot = -1
			}
			angleScore := math.Abs(math.Sin(math.Acos(dot))) * cornerImportance
			score += angleScore
		}
		if score > bestScore {
			bestScore = score
			best = ls[i]
		}
	}
	return best
}

// PackRegion runs the full concentric-arc expansion for a single validated
// bridge region, from its start line to a safety-bounded frontier
// expansion loop. Mirrors the body of main()'s per-polygon arc loop.
func PackRegion(opts Options, region geom.Polygon, startLine geom.Path, boundaryWithoutStart geom.Paths) Result {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	arcWidth := opts.ArcWidthMM
	rMinStart := opts.NozzleDiameterMM
	rMax := opts.RMaxMM
	rMin := opts.ArcCenterOffsetMM + arcWidth/1.5

	remaining := region.AsMultiPolygon()

	startPt := startPointOnLine(startLine, 0.2, rng, false)
	concentric := generateMultipleConcentricArcs(opts, startPt, rMinStart, rMax, boundaryWithoutStart, remaining)

	if len(concentric) < opts.MinStartArcs {
		dense := startLine.Redistribute(0.1)
		startPt = startPointOnLine(dense, 0.2, rng, false)
		concentric = generateMultipleConcentricArcs(opts, startPt, rMinStart, rMax, boundaryWithoutStart, remaining)

		if len(concentric) < opts.MinStartArcs {
			for i := 0; i < 10; i++ {
				startPt = startPointOnLine(startLine, 0.2, rng, true)
				concentric = generateMultipleConcentricArcs(opts, startPt, rMinStart, rMax, boundaryWithoutStart, remaining)
				if len(concentric) >= opts.MinStartArcs {
					break
				}
			}
			if len(concentric) < opts.MinStartArcs {
				for i := 0; i < 10; i++ {
					startPt = startPointOnLine(dense, 0.2, rng, true)
					concentric = generateMultipleConcentricArcs(opts, startPt, rMinStart, rMax, boundaryWithoutStart, remaining)
					if len(concentric) >= opts.MinStartArcs {
						break
					}
				}
			}
		}
	}
	if len(concentric) < opts.MinStartArcs {
		return Result{RemainingSpace: remaining}
	}

	var finalArcs []Arc
	var arcs []Arc
	var boundaries geom.Paths

	finalArcs = append(finalArcs, concentric[len(concentric)-1])
	for _, a := range concentric {
		remaining = subtract(opts.Engine, remaining, a.Poly)
		arcs = append(arcs, a)
	}
	boundaries = append(boundaries, getArcBoundaries(concentric, opts.PointsPerCircle)...)

	idx := 0
	safetyBreak := 0
	triedFixing := false
	maxArcs := opts.SafetyBreakMaxArcs
	if maxArcs == 0 {
		maxArcs = 2000
	}

	maxDistanceFromPerimeter := opts.MaxDistanceFromPerimeterMM
	for idx < len(finalArcs) {
		curArc := finalArcs[idx]
		farPt, longestDist, found := farthestPoint(curArc.Poly, region, remaining)
		if !found || longestDist < maxDistanceFromPerimeter {
			idx++
			continue
		}

		startPt = moveToward(farPt, curArc.Center, opts.ArcCenterOffsetMM)
		concentric = generateMultipleConcentricArcs(opts, startPt, rMin, rMax, region.Boundary(), remaining)
		bnds := getArcBoundaries(concentric, opts.PointsPerCircle)

		if len(concentric) > 0 {
			for _, a := range concentric {
				remaining = subtract(opts.Engine, remaining, a.Poly)
				arcs = append(arcs, a)
			}
			finalArcs = append(finalArcs, concentric[len(concentric)-1])
			boundaries = append(boundaries, bnds...)
		} else {
			idx++
		}

		safetyBreak++
		if safetyBreak > maxArcs {
			break
		}

		if len(finalArcs) == 1 && idx == 1 && !triedFixing {
			regionArea := region.AreaMM2()
			if regionArea > 0 && remaining.AreaMM2()/regionArea*100 > 50 {
				opts.ArcCenterOffsetMM = 0
				rMin = arcWidth / 1.5
				idx = 0
				triedFixing = true
			}
		}
	}

	fillPercent := 100.0
	if area := region.AreaMM2(); area > 0 {
		fillPercent = 100 - remaining.AreaMM2()/area*100
	}

	return Result{
		Arcs:           arcs,
		ArcBoundaries:  boundaries,
		RemainingSpace: remaining,
		FillPercent:    fillPercent,
	}
}

// subtract removes b's swept region from a. b is buffered by a tiny epsilon
// first, closing the numeric gaps a raw difference would otherwise leave as
// slivers along the arc boundary, mirroring original_source's
// remaining_space.difference(arc.poly.buffer(1e-2)).
func subtract(engine clip.Engine, a, b geom.MultiPolygon) geom.MultiPolygon {
	if len(b) == 0 {
		return a
	}
	buffered := engine.BufferPolygon(b, 1e-2)
	out, ok := engine.Difference(a, buffered)
	if !ok {
		return a
	}
	return out
}
