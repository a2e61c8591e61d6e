package geomlift

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"ArcOverhang/gcodeio"
	"ArcOverhang/geom"
)

// fakeEngine is a minimal clip.Engine stand-in: BufferLine wraps the
// input's bounding box in a rectangle padded by distanceMM, BufferPolygon
// returns its input unchanged, and Union just concatenates, which is all
// geomlift's orchestration logic
// needs to be exercised without pulling in real clipper math.
type fakeEngine struct{}

func (fakeEngine) Union(a, b geom.MultiPolygon) (geom.MultiPolygon, bool) {
	return append(append(geom.MultiPolygon{}, a...), b...), true
}

func (fakeEngine) Difference(a, b geom.MultiPolygon) (geom.MultiPolygon, bool) { return a, true }

func (fakeEngine) Intersection(a, b geom.MultiPolygon) (geom.MultiPolygon, bool) { return a, true }

func (fakeEngine) BufferPolygon(p geom.MultiPolygon, distanceMM float64) geom.MultiPolygon {
	return p
}

func (fakeEngine) BufferLine(path geom.Path, distanceMM float64) geom.MultiPolygon {
	min, max := path.Size()
	return geom.MultiPolygon{geom.NewPolygon(geom.Path{
		geom.NewPointMM(min.XMM()-distanceMM, min.YMM()-distanceMM),
		geom.NewPointMM(max.XMM()+distanceMM, min.YMM()-distanceMM),
		geom.NewPointMM(max.XMM()+distanceMM, max.YMM()+distanceMM),
		geom.NewPointMM(min.XMM()-distanceMM, max.YMM()+distanceMM),
	})}
}

func bridgeLayer() *gcodeio.Layer {
	return gcodeio.NewLayer(1, []string{
		";TYPE:External perimeter",
		"G1 X0 Y0 E0.1",
		"G1 X10 Y0 E0.1",
		"G1 X10 Y10 E0.1",
		"G1 X0 Y10 E0.1",
		"G1 X0 Y0 E0.1",
		";TYPE:Bridge infill",
		"G1 X1 Y1 E0.1",
		"G1 X2 Y1 E0.1",
		";TYPE:Overhang perimeter",
		"G1 X1 Y1 E0.1",
		"G1 X2 Y1 E0.1",
		"G1 X2 Y2 E0.1",
	})
}

func TestExternalPerimeters(t *testing.T) {
	l := bridgeLayer()
	l.ExtractFeatures()
	polys := ExternalPerimeters(l)
	assert.Len(t, polys, 1)
	assert.Len(t, polys[0], 5)
}

func TestBridgeInfillChainsAndPolygons(t *testing.T) {
	l := bridgeLayer()
	l.ExtractFeatures()
	chains := BridgeInfillChains(l, 0)
	assert.Len(t, chains, 1)
	assert.Len(t, chains[0], 2)

	polys := BridgePolygons(fakeEngine{}, chains, 1)
	assert.Len(t, polys, 1)
}

func TestOverhangPerimeterLines(t *testing.T) {
	l := bridgeLayer()
	l.ExtractFeatures()
	lines := OverhangPerimeterLines(l)
	assert.Len(t, lines, 1)
	assert.Len(t, lines[0], 4)
}

func TestSolidInfillChainsFiltersByOldPolys(t *testing.T) {
	l := gcodeio.NewLayer(1, []string{
		";TYPE:Solid infill",
		"G1 X1 Y1 E0.1",
		"G1 X2 Y1 E0.1",
		"G1 X50 Y50 F9000",
		"G1 X51 Y51 E0.1",
		"G1 X52 Y52 E0.1",
	})
	l.ExtractFeatures()

	inside := geom.MultiPolygon{geom.NewPolygon(geom.Path{
		geom.NewPointMM(0, 0), geom.NewPointMM(5, 0), geom.NewPointMM(5, 5), geom.NewPointMM(0, 5),
	})}

	chains := SolidInfillChains(l, 9000, inside)
	assert.Len(t, chains, 1)
	for _, p := range chains[0] {
		assert.True(t, inside.ContainsPoint(p))
	}
}

func TestMergePolys(t *testing.T) {
	p1 := geom.NewPolygon(geom.Path{geom.NewPointMM(0, 0), geom.NewPointMM(1, 0), geom.NewPointMM(1, 1)})
	p2 := geom.NewPolygon(geom.Path{geom.NewPointMM(2, 2), geom.NewPointMM(3, 2), geom.NewPointMM(3, 3)})
	merged := MergePolys(fakeEngine{}, geom.MultiPolygon{p1, p2})
	assert.Len(t, merged, 2)
	assert.Nil(t, MergePolys(fakeEngine{}, nil))
}

func TestFormatCoordPrintsFixedPrecision(t *testing.T) {
	assert.Equal(t, "1.5000", formatCoord(1.5))
	assert.Equal(t, fmt.Sprintf("%.4f", 0.0), formatCoord(0))
}
