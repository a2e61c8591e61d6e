// Package hilbertfill implements the H stage: filling the solid-infill
// region sitting above an arc-packed area with a Hilbert curve path
// instead of rectilinear infill. Mirrors original_source's
// Layer.create_hilbert_curve_in_poly. No library in the pack exposes a
// direct index-to-lattice-point decode (the one Hilbert-curve example,
// airmap/sfc, only encodes ranges), so the decode below is hand-derived
// from the standard bit-rotation construction.
package hilbertfill

import (
	"math"

	"ArcOverhang/geom"
)

// Options configures Hilbert fill generation.
type Options struct {
	SolidInfillExtrusionWidthMM float64
	FillingPercentage           float64 // 0-100
	InfillPrintSpeedMMPerMin    float64
	TravelEveryNSeconds         float64
	LayerNumber                 int
}

// d2xy decodes a Hilbert curve index into (x, y) lattice coordinates for a
// curve of the given order (2^order cells per side). Standard
// bit-rotation construction, e.g. as used in libhilbert/Wikipedia's
// reference implementation.
func d2xy(order int, d uint64) (x, y uint64) {
	for s := uint64(1); s < uint64(1)<<uint(order); s *= 2 {
		rx := uint64(1) & (d / 2)
		ry := uint64(1) & (d ^ rx)
		x, y = rot(s, x, y, rx, ry)
		x += s * rx
		y += s * ry
		d /= 4
	}
	return x, y
}

func rot(s, x, y, rx, ry uint64) (uint64, uint64) {
	if ry != 0 {
		return x, y
	}
	if rx == 1 {
		x = s - 1 - x
		y = s - 1 - y
	}
	return y, x
}

// Chain is one contiguous run of Hilbert lattice points lying inside the
// target polygon, ready to be emitted as a single travel-free bead.
type Chain geom.Path

// Generate builds the set of Hilbert-fill chains covering poly, sized and
// spaced per opts. Mirrors create_hilbert_curve_in_poly: the curve's
// order is picked so its cell pitch matches the desired line spacing, then
// points outside poly are dropped and the remaining runs are chunked by
// the travel interval and shuffled.
func Generate(poly geom.Polygon, opts Options, rngShuffle func([]Chain)) []Chain {
	w := opts.SolidInfillExtrusionWidthMM
	a := opts.FillingPercentage / 100
	if a <= 0 {
		a = 1
	}
	if w <= 0 {
		return nil
	}

	mmBetweenTravels := (opts.InfillPrintSpeedMMPerMin / 60) * opts.TravelEveryNSeconds

	minPt, maxPt := poly.Outline.Size()
	minX, minY := minPt.XMM(), minPt.YMM()
	maxX, maxY := maxPt.XMM(), maxPt.YMM()
	lx := maxX - minX
	ly := maxY - minY
	l := math.Max(lx, ly)
	if l <= 0 {
		return nil
	}

	order := int(math.Ceil(math.Log((a*l+w)/w) / math.Log(2)))
	if order < 1 {
		order = 1
	}
	scale := w / a
	maxIdx := uint64(1)<<uint(2*order) - 1

	movX, movY := 0.0, 0.0
	if opts.LayerNumber%2 == 1 {
		movX = w / a
		movY = w / a
	}

	noEl := int(math.Ceil(mmBetweenTravels / scale))
	if noEl < 1 {
		noEl = 1
	}

	var chains []Chain
	var buf geom.Path

	flush := func() {
		if len(buf) > 5 {
			if len(buf) > int(float64(noEl)*1.7) {
				for x := 0; x < len(buf); x += noEl {
					end := x + noEl
					if end > len(buf) {
						end = len(buf)
					}
					chains = append(chains, Chain(append(geom.Path{}, buf[x:end]...)))
				}
			} else {
				chains = append(chains, Chain(append(geom.Path{}, buf...)))
			}
		}
		buf = nil
	}

	for d := uint64(0); d <= maxIdx; d++ {
		hx, hy := d2xy(order, d)
		px := float64(hx)*scale + minX - movX
		py := float64(hy)*scale + minY - movY
		pt := geom.NewPointMM(px, py)
		if poly.ContainsPoint(pt) {
			buf = append(buf, pt)
		} else {
			flush()
		}
	}
	flush()

	if rngShuffle != nil {
		rngShuffle(chains)
	}

	return chains
}
