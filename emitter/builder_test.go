package emitter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ArcOverhang/arcpacker"
	"ArcOverhang/geom"
	"ArcOverhang/hilbertfill"
)

func TestBuilderAddCommentAndLine(t *testing.T) {
	var b Builder
	b.AddComment("layer %d", 3)
	b.AddLine("G1 X0 Y0")
	assert.Equal(t, []string{";layer 3", "G1 X0 Y0"}, b.Lines)
}

func TestP2GcodeZeroExtrusionOmitsDecimals(t *testing.T) {
	line := p2gcode(geom.NewPointMM(1, 2), 0, 0, false)
	assert.Equal(t, "G1 X1 Y2 E0", line)
}

func TestP2GcodeWithExtrusionAndFeedRate(t *testing.T) {
	line := p2gcode(geom.NewPointMM(1, 2), 0.12345678, 1200, true)
	assert.Equal(t, "G1 X1 Y2 E0.1234568 F1200", line)
}

func TestRetractGcodeSignsMatchDirection(t *testing.T) {
	assert.Equal(t, "G1 E-1.2 F2100", retractGcode(true, 1.2, 35))
	assert.Equal(t, "G1 E1.2 F2100", retractGcode(false, 1.2, 35))
}

func TestSetFeedRateGcode(t *testing.T) {
	assert.Equal(t, "G1 F1500", setFeedRateGcode(1500))
}

func TestClipClampsToRange(t *testing.T) {
	assert.Equal(t, 10.0, clip(5, 10, 20))
	assert.Equal(t, 20.0, clip(50, 10, 20))
	assert.Equal(t, 15.0, clip(15, 10, 20))
}

func TestArcToGcodeShortLineReturnsNil(t *testing.T) {
	assert.Nil(t, ArcToGcode(geom.Path{geom.NewPointMM(0, 0)}, 1, 0, ArcOptions{}))
}

func TestArcToGcodeStartsWithHeaderAndEndsWithRetraction(t *testing.T) {
	line := geom.Path{geom.NewPointMM(0, 0), geom.NewPointMM(10, 0), geom.NewPointMM(10, 10)}
	out := ArcToGcode(line, 0.02, 3, ArcOptions{})
	assert.NotEmpty(t, out)
	assert.Contains(t, out[0], ";Arc 3 Length:")
	assert.Contains(t, out[len(out)-1], "G1 E-")
}

func TestArcToGcodeSkipsPointsBelowMinDistance(t *testing.T) {
	line := geom.Path{
		geom.NewPointMM(0, 0),
		geom.NewPointMM(0.01, 0),
		geom.NewPointMM(10, 0),
	}
	out := ArcToGcode(line, 0.02, 0, ArcOptions{GCodeArcPtMinDistMM: 0.5})
	for _, l := range out {
		assert.NotContains(t, l, "X0.01")
	}
}

func TestHilbertToGcodeEndsWithRetraction(t *testing.T) {
	chains := []hilbertfill.Chain{
		{geom.NewPointMM(0, 0), geom.NewPointMM(1, 0), geom.NewPointMM(1, 1)},
	}
	out := HilbertToGcode(chains, 0.02, HilbertOptions{})
	assert.NotEmpty(t, out)
	assert.Contains(t, out[len(out)-1], "G1 E-")
}

func TestArcFamilyToGcodeAppliesTimeLapseSkipPattern(t *testing.T) {
	boundaries := geom.Paths{
		{geom.NewPointMM(0, 0), geom.NewPointMM(1, 0)},
		{geom.NewPointMM(0, 0), geom.NewPointMM(1, 0)},
		{geom.NewPointMM(0, 0), geom.NewPointMM(1, 0)},
	}
	result := arcpacker.Result{ArcBoundaries: boundaries}
	out := ArcFamilyToGcode(result, 0.02, ArcOptions{TimeLapseEveryNArcs: 2})

	m240Count := 0
	for _, l := range out {
		if l == "M240" {
			m240Count++
		}
	}
	// idx 0: 0%2==0 -> no M240; idx 1: 1%2!=0 -> M240; idx 2: 2%2==0 -> no M240.
	assert.Equal(t, 1, m240Count)
}
