// Package geomlift implements the G stage: lifting feature polylines out
// of a gcodeio.Layer into geom polygons — external perimeters, bridge
// infill regions, solid infill regions and overhang perimeter lines.
// Mirrors original_source's make_external_perimeter2polys,
// spot_bridge_infill/make_polys_from_bridge_infill,
// spot_solid_infill/make_polys_from_solid_infill and
// get_overhang_perimeter_line_strings.
package geomlift

import (
	"strconv"
	"strings"

	"ArcOverhang/clip"
	"ArcOverhang/gcodeio"
	"ArcOverhang/geom"
)

// ExternalPerimeters walks the layer's features and rebuilds the closed
// polygon for every run of "External perimeter" (and, once that run has
// started, any immediately-following "Overhang perimeter" features —
// PrusaSlicer sometimes classifies part of an external perimeter loop as
// overhang). Mirrors make_external_perimeter2polys.
func ExternalPerimeters(l *gcodeio.Layer) []geom.Path {
	var polys []geom.Path
	started := false
	var linesWithStart []string

	flush := func() {
		if poly, ok := gcodeio.PolygonFromLines(linesWithStart); ok {
			polys = append(polys, poly)
		}
		linesWithStart = nil
		started = false
	}

	for idf, fe := range l.Features {
		isExternal := strings.Contains(fe.Type, "External")
		isOverhang := strings.Contains(fe.Type, "Overhang")

		if isExternal || (isOverhang && started) {
			if !started && idf > 1 {
				if pt, ok := realFeatureStartPoint(l, idf); ok {
					linesWithStart = append(linesWithStart, syntheticMoveLine(pt))
				}
			}
			linesWithStart = append(linesWithStart, fe.Lines...)
			started = true
		}

		isLast := idf == len(l.Features)-1
		if (isLast && started) || (started && !isExternal && !isOverhang) {
			flush()
		}
	}

	return polys
}

func realFeatureStartPoint(l *gcodeio.Layer, idf int) (geom.Point, bool) {
	if idf < 1 {
		return geom.Point{}, false
	}
	lines := l.Features[idf-1].Lines
	for i := len(lines) - 1; i >= 0; i-- {
		if p, ok := gcodeio.PointFromLine(lines[i]); ok {
			return p, true
		}
	}
	return geom.Point{}, false
}

func syntheticMoveLine(p geom.Point) string {
	return "G1 X" + formatCoord(p.XMM()) + " Y" + formatCoord(p.YMM())
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// BridgeInfillChains returns each contiguous bridge-infill polyline in the
// layer, split at travel moves. Mirrors spot_bridge_infill's use of
// spot_feature_points("Bridge infill", split_at_travel=True).
func BridgeInfillChains(l *gcodeio.Layer, travelSpeedMMPerMin float64) []geom.Path {
	return l.SpotFeaturePoints("Bridge infill", gcodeio.FeaturePointsOpts{
		SplitAtTravel:       true,
		TravelSpeedMMPerMin: travelSpeedMMPerMin,
	})
}

// BridgePolygons buffers each bridge-infill chain out by extendMM,
// producing the candidate regions arcpacker will fill. Mirrors
// make_polys_from_bridge_infill.
func BridgePolygons(engine clip.Engine, chains []geom.Path, extendMM float64) geom.MultiPolygon {
	var out geom.MultiPolygon
	for _, chain := range chains {
		if len(chain) < 2 {
			continue
		}
		out = append(out, engine.BufferLine(chain, extendMM)...)
	}
	return out
}

// SolidInfillChains returns each contiguous solid-infill polyline in the
// layer, split at travel moves, keeping only chains with at least one
// point inside oldPolys (the carried-forward arc regions from lower
// layers). Mirrors spot_solid_infill + verify_solid_infill_pts.
func SolidInfillChains(l *gcodeio.Layer, travelSpeedMMPerMin float64, oldPolys geom.MultiPolygon) []geom.Path {
	all := l.SpotFeaturePoints("Solid infill", gcodeio.FeaturePointsOpts{
		SplitAtTravel:       true,
		TravelSpeedMMPerMin: travelSpeedMMPerMin,
	})
	var kept []geom.Path
	for _, chain := range all {
		if verifySolidInfillPts(chain, oldPolys) {
			kept = append(kept, chain)
		}
	}
	return kept
}

func verifySolidInfillPts(chain geom.Path, oldPolys geom.MultiPolygon) bool {
	for _, p := range chain {
		if oldPolys.ContainsPoint(p) {
			return true
		}
	}
	return false
}

// SolidInfillPolygons buffers each solid-infill chain out by extendMM.
// Mirrors make_polys_from_solid_infill.
func SolidInfillPolygons(engine clip.Engine, chains []geom.Path, extendMM float64) geom.MultiPolygon {
	var out geom.MultiPolygon
	for _, chain := range chains {
		if len(chain) < 2 {
			continue
		}
		out = append(out, engine.BufferLine(chain, extendMM)...)
	}
	return out
}

// OverhangPerimeterLines returns the "Overhang perimeter" feature
// polylines in the layer, each prefixed with its real start point.
// Mirrors get_overhang_perimeter_line_strings.
func OverhangPerimeterLines(l *gcodeio.Layer) []geom.Path {
	return l.SpotFeaturePoints("Overhang perimeter", gcodeio.FeaturePointsOpts{
		IncludeRealStartPt: true,
	})
}

// MergePolys unions a set of candidate bridge polygons together so
// adjacent/overlapping bridge regions become one region. Mirrors
// merge_polys' unary_union call.
func MergePolys(engine clip.Engine, polys geom.MultiPolygon) geom.MultiPolygon {
	if len(polys) == 0 {
		return nil
	}
	merged := geom.MultiPolygon{polys[0]}
	for _, p := range polys[1:] {
		next, ok := engine.Union(merged, geom.MultiPolygon{p})
		if ok {
			merged = next
		} else {
			merged = append(merged, p)
		}
	}
	return merged
}
