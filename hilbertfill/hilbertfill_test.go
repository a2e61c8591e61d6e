package hilbertfill

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ArcOverhang/geom"
)

func TestD2XYOrder1MatchesReferenceMapping(t *testing.T) {
	x, y := d2xy(1, 0)
	assert.Equal(t, uint64(0), x)
	assert.Equal(t, uint64(0), y)

	x, y = d2xy(1, 1)
	assert.Equal(t, uint64(0), x)
	assert.Equal(t, uint64(1), y)

	x, y = d2xy(1, 2)
	assert.Equal(t, uint64(1), x)
	assert.Equal(t, uint64(1), y)

	x, y = d2xy(1, 3)
	assert.Equal(t, uint64(1), x)
	assert.Equal(t, uint64(0), y)
}

func TestD2XYStaysWithinLattice(t *testing.T) {
	const order = 3
	maxIdx := uint64(1)<<uint(2*order) - 1
	for d := uint64(0); d <= maxIdx; d++ {
		x, y := d2xy(order, d)
		assert.Less(t, x, uint64(1)<<uint(order))
		assert.Less(t, y, uint64(1)<<uint(order))
	}
}

func squarePoly(side float64) geom.Polygon {
	return geom.NewPolygon(geom.Path{
		geom.NewPointMM(0, 0),
		geom.NewPointMM(side, 0),
		geom.NewPointMM(side, side),
		geom.NewPointMM(0, side),
	})
}

func TestGenerateReturnsNilWithoutWidth(t *testing.T) {
	chains := Generate(squarePoly(10), Options{}, nil)
	assert.Nil(t, chains)
}

func TestGenerateProducesPointsInsidePolygon(t *testing.T) {
	poly := squarePoly(10)
	opts := Options{
		SolidInfillExtrusionWidthMM: 1,
		FillingPercentage:           100,
		InfillPrintSpeedMMPerMin:    600,
		TravelEveryNSeconds:         1,
	}
	chains := Generate(poly, opts, nil)
	assert.NotEmpty(t, chains)
	for _, c := range chains {
		assert.Greater(t, len(c), 5)
		for _, p := range c {
			assert.True(t, poly.ContainsPoint(p))
		}
	}
}

func TestGenerateInvokesShuffleCallback(t *testing.T) {
	poly := squarePoly(10)
	opts := Options{
		SolidInfillExtrusionWidthMM: 1,
		FillingPercentage:           100,
		InfillPrintSpeedMMPerMin:    600,
		TravelEveryNSeconds:         1,
	}
	called := false
	Generate(poly, opts, func(c []Chain) { called = true })
	assert.True(t, called)
}

func TestGenerateOddLayerStillProducesValidChains(t *testing.T) {
	poly := squarePoly(10)
	opts := Options{
		SolidInfillExtrusionWidthMM: 1,
		FillingPercentage:           100,
		InfillPrintSpeedMMPerMin:    600,
		TravelEveryNSeconds:         1,
		LayerNumber:                 1,
	}
	odd := Generate(poly, opts, nil)
	assert.NotEmpty(t, odd)
	for _, c := range odd {
		for _, p := range c {
			assert.True(t, poly.ContainsPoint(p))
		}
	}
}

func TestGenerateZeroAreaPolygonReturnsNil(t *testing.T) {
	degenerate := geom.NewPolygon(geom.Path{geom.NewPointMM(0, 0), geom.NewPointMM(0, 0)})
	opts := Options{SolidInfillExtrusionWidthMM: 1, FillingPercentage: 100}
	assert.Nil(t, Generate(degenerate, opts, nil))
}
