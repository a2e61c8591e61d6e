// Package emitter implements the E stage: turning arc and Hilbert fill
// geometry into gcode lines, and splicing them into a layer's line stream
// in place of the deleted bridge/solid-infill blocks. Mirrors
// original_source's p2gcode, retract_gcode, set_feed_rate_gcode,
// arc2gcode, hilbert2gcode and the main() injection loop. The accumulator
// style (AddComment/AddLine appending to a line slice) follows
// goslice's gcode.Builder.
package emitter

import (
	"fmt"
	"math"

	"ArcOverhang/arcpacker"
	"ArcOverhang/geom"
	"ArcOverhang/hilbertfill"
)

// Builder accumulates gcode lines the way goslice's gcode.Builder
// accumulates commands, but operates on plain strings since this pipeline
// rewrites an existing gcode stream rather than generating one from
// scratch.
type Builder struct {
	Lines []string
}

func (b *Builder) AddComment(format string, args ...any) {
	b.Lines = append(b.Lines, ";"+fmt.Sprintf(format, args...))
}

func (b *Builder) AddLine(line string) {
	b.Lines = append(b.Lines, line)
}

// p2gcode formats a single G1 move to p, with an extrusion amount and an
// optional feed rate override. Mirrors p2gcode.
func p2gcode(p geom.Point, e float64, f float64, hasF bool) string {
	line := fmt.Sprintf("G1 X%.6g Y%.6g ", p.XMM(), p.YMM())
	if e == 0 {
		line += "E0"
	} else {
		line += fmt.Sprintf("E%.7f", e)
	}
	if hasF {
		line += fmt.Sprintf(" F%d", int(f))
	}
	return line
}

// retractGcode emits a retraction (or un-retraction) move. Mirrors
// retract_gcode.
func retractGcode(retract bool, retractLengthMM, retractSpeedMMPerSec float64) string {
	e := retractLengthMM
	if retract {
		e = -retractLengthMM
	}
	return fmt.Sprintf("G1 E%g F%d", e, int(retractSpeedMMPerSec*60))
}

func setFeedRateGcode(f float64) string {
	return fmt.Sprintf("G1 F%d", int(f))
}

// ArcOptions configures arc2gcode's per-arc speed/extrusion behavior.
type ArcOptions struct {
	ExtendArcDistMM             float64
	ArcSlowDownBelowDurationSec float64
	ArcMinPrintSpeedMMPerMin    float64
	ArcPrintSpeedMMPerMin       float64
	ArcTravelFeedRateMMPerMin   float64
	GCodeArcPtMinDistMM         float64
	RetractLengthMM             float64
	RetractSpeedMMPerSec        float64
	TimeLapseEveryNArcs         int
}

// ArcToGcode renders a single arc boundary polyline into gcode lines.
// Mirrors arc2gcode.
func ArcToGcode(line geom.Path, eStepsPerMM float64, arcIdx int, opts ArcOptions) []string {
	if len(line) < 2 {
		return nil
	}

	extendDist := opts.ExtendArcDistMM
	if extendDist == 0 {
		extendDist = 0.5
	}
	pExtend := geom.MoveToward(line[len(line)-2], line[len(line)-1], extendDist)

	duration := opts.ArcSlowDownBelowDurationSec
	if duration == 0 {
		duration = 3
	}
	minSpeed := opts.ArcMinPrintSpeedMMPerMin
	if minSpeed == 0 {
		minSpeed = 60
	}
	maxSpeed := opts.ArcPrintSpeedMMPerMin
	if maxSpeed == 0 {
		maxSpeed = 120
	}
	arcSpeed := clip(line.LengthMM()/duration*60, minSpeed, maxSpeed)

	minPtDist := opts.GCodeArcPtMinDistMM
	if minPtDist == 0 {
		minPtDist = 0.1
	}

	var out []string
	var p1 geom.Point
	for i, p := range line {
		switch {
		case i == 0:
			p1 = p
			out = append(out, fmt.Sprintf(";Arc %d Length:%g", arcIdx, line.LengthMM()))
			out = append(out, p2gcode(p, 0, opts.ArcTravelFeedRateMMPerMin, true))
			out = append(out, retractGcode(false, opts.RetractLengthMM, opts.RetractSpeedMMPerSec))
			out = append(out, setFeedRateGcode(arcSpeed))
		default:
			dist := p.Dist(p1)
			if dist > minPtDist {
				out = append(out, p2gcode(p, dist*eStepsPerMM, 0, false))
				p1 = p
			}
		}
		if i == len(line)-1 {
			out = append(out, p2gcode(pExtend, extendDist*eStepsPerMM, 0, false))
			out = append(out, retractGcode(true, opts.RetractLengthMM, opts.RetractSpeedMMPerSec))
		}
	}
	return out
}

func clip(v, min, max float64) float64 {
	return math.Min(math.Max(v, min), max)
}

// HilbertOptions configures hilbert2gcode's speed/extrusion behavior.
type HilbertOptions struct {
	ArcTravelFeedRateMMPerMin         float64
	AboveArcsInfillPrintSpeedMMPerMin float64
	RetractLengthMM                   float64
	RetractSpeedMMPerSec              float64
}

// HilbertToGcode renders every Hilbert fill chain into gcode lines.
// Mirrors hilbert2gcode.
func HilbertToGcode(chains []hilbertfill.Chain, eStepsPerMM float64, opts HilbertOptions) []string {
	var out []string
	var lastP geom.Point
	for idc, chain := range chains {
		for idp, p := range chain {
			switch {
			case idp == 0:
				out = append(out, p2gcode(p, 0, opts.ArcTravelFeedRateMMPerMin, true))
				if idc == 0 {
					out = append(out, retractGcode(false, opts.RetractLengthMM, opts.RetractSpeedMMPerSec))
				}
			case idp == 1:
				out = append(out, p2gcode(p, eStepsPerMM*p.Dist(lastP), opts.AboveArcsInfillPrintSpeedMMPerMin, true))
			default:
				out = append(out, p2gcode(p, eStepsPerMM*p.Dist(lastP), 0, false))
			}
			lastP = p
		}
	}
	out = append(out, retractGcode(true, opts.RetractLengthMM, opts.RetractSpeedMMPerSec))
	return out
}

// ArcFamilyToGcode renders every boundary line in an arcpacker.Result in
// order, numbering each arc for its comment.
func ArcFamilyToGcode(result arcpacker.Result, eStepsPerMM float64, opts ArcOptions) []string {
	var out []string
	for idx, line := range result.ArcBoundaries {
		out = append(out, ArcToGcode(line, eStepsPerMM, idx, opts)...)
		// Preserves original_source's "ida % N" condition verbatim
		// (fires on every arc except multiples of N, not every Nth arc).
		if opts.TimeLapseEveryNArcs > 0 && idx%opts.TimeLapseEveryNArcs != 0 {
			out = append(out, "M240")
		}
	}
	return out
}
