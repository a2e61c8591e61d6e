// Package regionvalidator implements the V stage: filtering candidate
// bridge regions down to the ones arcpacker should actually fill. Mirrors
// original_source's Layer.verify_infill_polys.
package regionvalidator

import (
	"ArcOverhang/geom"
)

// Options controls which candidate polygons survive validation.
type Options struct {
	CheckForAllowedSpace bool
	AllowedSpace         geom.Polygon
	MinAreaMM2           float64
	MinBridgeLengthMM    float64
	MinDistanceMM        float64 // distance a candidate poly must be within of an overhang line; original_source default 0.5
}

// Result pairs each valid polygon with its original index in the input
// slice, letting the caller also mark the corresponding bridge-infill
// gcode for deletion (mirrors original_source's delete_these_infills
// bookkeeping).
type Result struct {
	Polygon geom.Polygon
	Index   int
}

// Validate keeps the candidate polygons that are big enough, optionally
// inside the allowed build area, and close enough to an overhang
// perimeter line of sufficient length. Mirrors verify_infill_polys.
func Validate(candidates geom.MultiPolygon, overhangLines geom.Paths, opts Options) []Result {
	if len(overhangLines) == 0 {
		return nil
	}

	minDist := opts.MinDistanceMM
	if minDist == 0 {
		minDist = 0.5
	}

	var results []Result
	for idx, poly := range candidates {
		if opts.CheckForAllowedSpace && !allowedSpaceContains(opts.AllowedSpace, poly) {
			continue
		}
		if poly.AreaMM2() < opts.MinAreaMM2 {
			continue
		}
		for _, line := range overhangLines {
			if geom.PolygonDistanceToPathMM(poly, line) < minDist && line.LengthMM() > opts.MinBridgeLengthMM {
				results = append(results, Result{Polygon: poly, Index: idx})
				break
			}
		}
	}
	return results
}

func allowedSpaceContains(allowed geom.Polygon, poly geom.Polygon) bool {
	minPt, maxPt := poly.Outline.Size()
	return allowed.ContainsPoint(minPt) && allowed.ContainsPoint(maxPt)
}
