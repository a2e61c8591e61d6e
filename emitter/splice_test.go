package emitter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ArcOverhang/gcodeio"
	"ArcOverhang/geom"
)

func TestExportThisLine(t *testing.T) {
	ranges := []DeleteRange{{Start: 2, End: 4}}
	assert.True(t, exportThisLine(1, ranges))
	assert.False(t, exportThisLine(2, ranges))
	assert.False(t, exportThisLine(4, ranges))
	assert.True(t, exportThisLine(5, ranges))
}

func TestPrepareDeletionMarksWholeFeatureBlock(t *testing.T) {
	l := gcodeio.NewLayer(1, []string{
		";TYPE:External perimeter",
		"G1 X0 Y0 E0.1",
		";TYPE:Bridge infill",
		"G1 X1 Y1 E0.1",
		"G1 X2 Y1 E0.1",
		";TYPE:Solid infill",
		"G1 X50 Y50 E0.1",
	})
	l.ExtractFeatures()

	polys := geom.NewPolygon(geom.Path{
		geom.NewPointMM(0, 0), geom.NewPointMM(5, 0), geom.NewPointMM(5, 5), geom.NewPointMM(0, 5),
	}).AsMultiPolygon()

	ranges := PrepareDeletion(l, "Bridge infill", polys)
	assert.Equal(t, []DeleteRange{{Start: 2, End: 4}}, ranges)
}

func TestPrepareDeletionSkipsFeatureOutsidePolys(t *testing.T) {
	l := gcodeio.NewLayer(1, []string{
		";TYPE:Bridge infill",
		"G1 X500 Y500 E0.1",
	})
	l.ExtractFeatures()

	polys := geom.NewPolygon(geom.Path{
		geom.NewPointMM(0, 0), geom.NewPointMM(5, 0), geom.NewPointMM(5, 5), geom.NewPointMM(0, 5),
	}).AsMultiPolygon()

	assert.Empty(t, PrepareDeletion(l, "Bridge infill", polys))
}

func TestIsClose2BridgingNoPointOnLine(t *testing.T) {
	_, has, close := isClose2Bridging(";TYPE:Bridge infill", geom.Point{}, true, nil, 1)
	assert.True(t, has)
	assert.False(t, close)
}

func TestIsClose2BridgingDetectsProximity(t *testing.T) {
	oldPolys := geom.NewPolygon(geom.Path{
		geom.NewPointMM(0, 0), geom.NewPointMM(5, 0), geom.NewPointMM(5, 5), geom.NewPointMM(0, 5),
	}).AsMultiPolygon()

	p, has, close := isClose2Bridging("G1 X2 Y2 E0.1", geom.Point{}, false, oldPolys, 1)
	assert.True(t, has)
	assert.True(t, close)
	assert.InDelta(t, 2.0, p.XMM(), 1e-9)

	_, _, farClose := isClose2Bridging("G1 X500 Y500 E0.1", geom.Point{}, false, oldPolys, 1)
	assert.False(t, farClose)
}

func TestSpliceInjectsArcGcodeAtFirstTypeMarkerWithBackscan(t *testing.T) {
	layer := gcodeio.NewLayer(1, []string{
		"G1 X0 Y0 E0.1",
		";TYPE:External perimeter",
		"G1 X1 Y0 E0.1",
	})

	result := Splice(
		layer,
		[]string{"G1 X5 Y5 E0.1"},
		nil,
		nil,
		255,
		CoolingOptions{},
		false,
	)

	assert.True(t, result.Modified)
	assert.Equal(t, []string{
		"G1 X0 Y0 E0.1",
		";TYPE:Arc infill",
		"M106 S255",
		"G1 X5 Y5 E0.1",
		"G1 X0 Y0 E0.1",
		";TYPE:External perimeter",
		"G1 X1 Y0 E0.1",
	}, result.Lines)
}
