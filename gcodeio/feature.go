package gcodeio

import (
	"strings"

	"ArcOverhang/geom"
)

// Feature is one ";TYPE:"-delimited block of a layer: its type name, the
// lines belonging to it, and the index (within Layer.Lines) where it
// starts. Mirrors original_source's self.features entries
// [ftype, lines, start].
type Feature struct {
	Type  string
	Lines []string
	Start int
}

// ExtractFeatures splits the layer's lines into Feature blocks at every
// ";TYPE:" marker. Mirrors Layer.extract_features.
func (l *Layer) ExtractFeatures() {
	var features []Feature
	var buf []string
	currentType := ""
	start := 0

	for i, line := range l.Lines {
		if strings.Contains(line, ";TYPE:") {
			if currentType != "" {
				features = append(features, Feature{Type: currentType, Lines: buf, Start: start})
			}
			buf = nil
			start = i
			currentType = line
		} else {
			buf = append(buf, line)
		}
	}
	features = append(features, Feature{Type: currentType, Lines: buf, Start: start})
	l.Features = features
}

// realFeatureStartPoint returns the last X/Y point of the feature just
// before idx, used to stitch a feature's real starting point onto its
// polyline (original_source's get_real_feature_start_point).
func (l *Layer) realFeatureStartPoint(idx int) (geom.Point, bool) {
	if idx < 1 {
		return geom.Point{}, false
	}
	lines := l.Features[idx-1].Lines
	for i := len(lines) - 1; i >= 0; i-- {
		if p, ok := PointFromLine(lines[i]); ok {
			return p, true
		}
	}
	return geom.Point{}, false
}

// FeaturePointsOpts controls SpotFeaturePoints' behavior.
type FeaturePointsOpts struct {
	SplitAtWipe         bool
	IncludeRealStartPt  bool
	SplitAtTravel       bool
	TravelSpeedMMPerMin float64
}

// SpotFeaturePoints collects the extruding G1 X/Y points of every feature
// block whose type contains featureName, split into separate polylines per
// the given options. Mirrors Layer.spot_feature_points.
func (l *Layer) SpotFeaturePoints(featureName string, opts FeaturePointsOpts) []geom.Path {
	var parts []geom.Path

	for idx, f := range l.Features {
		if !strings.Contains(f.Type, featureName) {
			continue
		}

		var pts geom.Path
		isWipe := false

		if opts.IncludeRealStartPt && idx > 0 {
			if sp, ok := l.realFeatureStartPoint(idx); ok {
				pts = append(pts, sp)
			}
		}

		for _, line := range f.Lines {
			m, ok := ParseMotion(line)
			if !ok || isWipe {
				if strings.Contains(line, "WIPE_START") {
					isWipe = true
					if opts.SplitAtWipe && len(pts) > 0 {
						parts = append(parts, pts)
						pts = nil
					}
				}
				if strings.Contains(line, "WIPE_END") {
					isWipe = false
				}
				continue
			}

			if !m.HasE && opts.SplitAtTravel && m.HasF && isTravelSpeed(m.F, opts.TravelSpeedMMPerMin) {
				if len(pts) >= 2 {
					parts = append(parts, pts)
					pts = nil
				}
				continue
			}
			if m.HasE {
				if p, ok := m.Point(); ok {
					pts = append(pts, p)
				}
			}

			if strings.Contains(line, "WIPE_START") {
				isWipe = true
				if opts.SplitAtWipe {
					parts = append(parts, pts)
					pts = nil
				}
			}
			if strings.Contains(line, "WIPE_END") {
				isWipe = false
			}
		}
		if len(pts) > 1 {
			parts = append(parts, pts)
		}
	}

	return parts
}

func isTravelSpeed(f, travel float64) bool {
	return travel > 0 && f == travel
}
