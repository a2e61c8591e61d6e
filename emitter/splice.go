package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"ArcOverhang/gcodeio"
	"ArcOverhang/geom"
)

// DeleteRange is a [start, end] line-index span (inclusive) that must be
// dropped from the original layer when splicing in replacement gcode.
// Mirrors original_source's self.delete_lines entries.
type DeleteRange struct {
	Start, End int
}

// PrepareDeletion finds, for every feature whose type contains
// featureName, whether any line in it falls inside one of polys; if so the
// whole feature block (through to the line before the next feature starts)
// is marked for deletion. Mirrors Layer.prepare_deletion.
func PrepareDeletion(l *gcodeio.Layer, featureName string, polys geom.MultiPolygon) []DeleteRange {
	var ranges []DeleteRange
	for idf, fe := range l.Features {
		if !strings.Contains(fe.Type, featureName) {
			continue
		}
		deleteThis := false
	lines:
		for _, line := range fe.Lines {
			p, ok := gcodeio.PointFromLine(line)
			if !ok {
				continue
			}
			if polys.ContainsPoint(p) {
				deleteThis = true
				break lines
			}
		}
		if !deleteThis {
			continue
		}
		end := len(l.Lines)
		if idf < len(l.Features)-1 {
			end = l.Features[idf+1].Start - 1
		}
		ranges = append(ranges, DeleteRange{Start: fe.Start, End: end})
	}
	return ranges
}

func exportThisLine(lineNum int, ranges []DeleteRange) bool {
	for _, r := range ranges {
		if lineNum >= r.Start && lineNum <= r.End {
			return false
		}
	}
	return true
}

// CoolingOptions controls the above-arcs fan/speed override applied to
// perimeter lines near an arc/hilbert region. Mirrors the
// is_close2bridging-driven override block in main().
type CoolingOptions struct {
	DetectionDistanceMM             float64
	AboveArcsFanSpeed               float64
	AboveArcsPerimeterSpeedMMPerMin float64
	ApplyToWholeLayer               bool
	OriginalFanSpeed                float64
	OldPolys                        geom.MultiPolygon
}

// isClose2Bridging reports whether the travel segment from lastP to the
// point on line is within detectionDistanceMM of any polygon in oldPolys.
// Mirrors Layer.is_close2bridging.
func isClose2Bridging(line string, lastP geom.Point, hasLastP bool, oldPolys geom.MultiPolygon, detectionDistanceMM float64) (geom.Point, bool, bool) {
	p, ok := gcodeio.PointFromLine(line)
	if !ok {
		return lastP, hasLastP, false
	}
	if !hasLastP {
		lastP = geom.NewPointMM(p.XMM()-0.01, p.YMM()-0.01)
	}
	seg := geom.Path{lastP, p}
	side := func(a, b, c geom.Point) float64 {
		return (b.XMM()-a.XMM())*(c.YMM()-a.YMM()) - (b.YMM()-a.YMM())*(c.XMM()-a.XMM())
	}
	close := false
	for _, poly := range oldPolys {
		if poly.DistanceToMM(p) < detectionDistanceMM || geom.PolygonDistanceToPathMM(poly, seg) < detectionDistanceMM {
			close = true
			break
		}
		for _, ring := range poly.Boundary() {
			for i := 1; i < len(ring) && !close; i++ {
				close = side(lastP, p, ring[i-1])*side(lastP, p, ring[i]) < 0 &&
					side(ring[i-1], ring[i], lastP)*side(ring[i-1], ring[i], p) < 0
			}
		}
		if close {
			break
		}
	}
	return p, true, close
}

// SpliceResult is the rewritten layer's lines and whether anything was
// actually changed.
type SpliceResult struct {
	Lines    []string
	Modified bool
}

// Splice rewrites layer's lines: arc gcode is injected at the first
// feature marker (followed by the last X/Y line before that marker, found
// by scanning backward, so the original path resumes from its real
// position), Hilbert gcode likewise at the first marker if oldPolys carried
// forward, bridge / prior-layer solid-infill blocks in deleteRanges are
// dropped, and any exported line near an old arc region gets the
// above-arcs fan and feed override. The feed rate is restored once the
// lines move away again; the fan speed is restored then too unless
// ApplyToWholeLayer is set, and otherwise at the end of the layer. Mirrors
// the body of main()'s "if modify:" block.
func Splice(
	layer *gcodeio.Layer,
	arcGcode []string,
	hilbertGcode []string,
	deleteRanges []DeleteRange,
	arcFanSpeed float64,
	cooling CoolingOptions,
	oldPolysNonEmpty bool,
) SpliceResult {
	var out []string
	isArcInjected := len(arcGcode) == 0
	isHilbertInjected := len(hilbertGcode) == 0

	var curPrintSpeed = "G1 F600"
	messedWithSpeed := false
	messedWithFan := false
	modified := false
	var lastP geom.Point
	hasLastP := false

	injectBackscan := func(idline int) {
		for id := idline - 1; id >= 0; id-- {
			if strings.Contains(layer.Lines[id], "X") {
				out = append(out, layer.Lines[id])
				return
			}
		}
	}

	for idline, line := range layer.Lines {
		if len(arcGcode) > 0 && !isArcInjected && strings.Contains(line, ";TYPE") {
			out = append(out, ";TYPE:Arc infill")
			out = append(out, fmt.Sprintf("M106 S%d", int(arcFanSpeed)))
			out = append(out, arcGcode...)
			isArcInjected = true
			modified = true
			injectBackscan(idline)
		}

		if len(hilbertGcode) > 0 && !isHilbertInjected && strings.Contains(line, ";TYPE") {
			isHilbertInjected = true
			modified = true
			out = append(out, ";TYPE:Solid infill")
			out = append(out, fmt.Sprintf("M106 S%d", int(cooling.AboveArcsFanSpeed)))
			out = append(out, hilbertGcode...)
			injectBackscan(idline)
		}

		if strings.Contains(strings.SplitN(line, ";", 2)[0], "G1 F") {
			curPrintSpeed = line
		}

		if !exportThisLine(idline, deleteRanges) {
			modified = true
			continue
		}

		var close bool
		lastP, hasLastP, close = isClose2Bridging(line, lastP, hasLastP, cooling.OldPolys, cooling.DetectionDistanceMM)
		if oldPolysNonEmpty && close {
			if !messedWithFan {
				out = append(out, fmt.Sprintf("M106 S%d", int(cooling.AboveArcsFanSpeed)))
				messedWithFan = true
			}
			out = append(out, strings.TrimRight(line, "\n")+" F"+strconv.Itoa(int(cooling.AboveArcsPerimeterSpeedMMPerMin)))
			messedWithSpeed = true
			modified = true
		} else {
			if messedWithFan && !cooling.ApplyToWholeLayer {
				out = append(out, fmt.Sprintf("M106 S%d", int(cooling.OriginalFanSpeed)))
				messedWithFan = false
			}
			if messedWithSpeed {
				out = append(out, curPrintSpeed)
				messedWithSpeed = false
			}
			out = append(out, line)
		}
	}

	if messedWithFan {
		out = append(out, fmt.Sprintf("M106 S%d", int(cooling.OriginalFanSpeed)))
	}

	return SpliceResult{Lines: out, Modified: modified}
}
