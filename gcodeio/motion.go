// Package gcodeio implements the L stage (layer segmenter): splitting a
// gcode stream into layers and feature blocks, and parsing individual
// motion lines. It mirrors original_source's split_gcode_into_layers,
// Layer.extract_features and get_pt_from_cmd, with the per-field regex
// parsing grounded on piwi3910/SlabCut's internal/gcode/parser.go style.
package gcodeio

import (
	"regexp"
	"strconv"
	"strings"

	"ArcOverhang/geom"
)

// fieldRe matches a single whitespace-delimited gcode field: a letter
// followed by a signed, possibly dotted decimal. Grounded on
// piwi3910-cnc-calculator's coordRe, generalized from XYZF to XYZEF.
var fieldRe = regexp.MustCompile(`^([XYZEF])(-?[0-9]*\.?[0-9]+)$`)

// Motion is a parsed G1 (or G0) command line: whichever of X/Y/Z/E/F were
// present, plus whether each was present at all (gcode fields are sparse —
// a line may set only some axes).
type Motion struct {
	HasX, HasY, HasZ, HasE, HasF bool
	X, Y, Z, E, F                float64
}

// Point returns the (X, Y) of the motion as a geom.Point, and whether both
// were present (mirrors get_pt_from_cmd returning None when X or Y is
// missing).
func (m Motion) Point() (geom.Point, bool) {
	if !m.HasX || !m.HasY {
		return geom.Point{}, false
	}
	return geom.NewPointMM(m.X, m.Y), true
}

// ParseMotion parses a G1/G0 line's fields. Comments (after ';') are
// stripped first. Returns ok=false if the line isn't a G0/G1 motion line.
func ParseMotion(line string) (Motion, bool) {
	code := line
	if idx := strings.IndexByte(code, ';'); idx >= 0 {
		code = code[:idx]
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Motion{}, false
	}

	fields := strings.Fields(code)
	if len(fields) == 0 {
		return Motion{}, false
	}
	cmd := fields[0]
	if cmd != "G1" && cmd != "G0" {
		return Motion{}, false
	}

	var m Motion
	for _, f := range fields[1:] {
		match := fieldRe.FindStringSubmatch(f)
		if match == nil {
			continue
		}
		val, err := strconv.ParseFloat(match[2], 64)
		if err != nil {
			continue
		}
		switch match[1] {
		case "X":
			m.HasX, m.X = true, val
		case "Y":
			m.HasY, m.Y = true, val
		case "Z":
			m.HasZ, m.Z = true, val
		case "E":
			m.HasE, m.E = true, val
		case "F":
			m.HasF, m.F = true, val
		}
	}
	return m, true
}

// PointFromLine parses a line and, if it is a motion command with both X
// and Y, returns that point. Mirrors get_pt_from_cmd.
func PointFromLine(line string) (geom.Point, bool) {
	m, ok := ParseMotion(line)
	if !ok {
		return geom.Point{}, false
	}
	return m.Point()
}

// PolygonFromLines builds a closed polygon from the G1 X/Y points of a
// block of lines, stopping at the first ";WIPE" marker. Mirrors
// make_polygon_from_gcode.
func PolygonFromLines(lines []string) (geom.Path, bool) {
	var pts geom.Path
	for _, line := range lines {
		if strings.Contains(line, ";WIPE") {
			break
		}
		if p, ok := PointFromLine(line); ok {
			pts = append(pts, p)
		}
	}
	if len(pts) > 2 {
		return pts, true
	}
	return nil, false
}
