package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func square(side float64) Path {
	return Path{
		NewPointMM(0, 0),
		NewPointMM(side, 0),
		NewPointMM(side, side),
		NewPointMM(0, side),
	}
}

func TestPathSize(t *testing.T) {
	min, max := square(10).Size()
	assert.InDelta(t, 0.0, min.XMM(), 1e-9)
	assert.InDelta(t, 0.0, min.YMM(), 1e-9)
	assert.InDelta(t, 10.0, max.XMM(), 1e-9)
	assert.InDelta(t, 10.0, max.YMM(), 1e-9)
}

func TestPathLengthMM(t *testing.T) {
	p := Path{NewPointMM(0, 0), NewPointMM(3, 4)}
	assert.InDelta(t, 5.0, p.LengthMM(), 1e-9)
}

func TestPathRedistributePreservesEndpoints(t *testing.T) {
	p := Path{NewPointMM(0, 0), NewPointMM(10, 0)}
	out := p.Redistribute(2)
	assert.InDelta(t, 0.0, out[0].XMM(), 1e-6)
	assert.InDelta(t, 10.0, out[len(out)-1].XMM(), 1e-6)
	assert.GreaterOrEqual(t, len(out), 3)
}

func TestPathSimplifyDropsNearDuplicates(t *testing.T) {
	p := Path{
		NewPointMM(0, 0),
		NewPointMM(0.001, 0.001),
		NewPointMM(5, 5),
	}
	out := p.Simplify(FromMM(0.5))
	assert.Len(t, out, 2)
}

func TestPointToPathDistanceMM(t *testing.T) {
	p := Path{NewPointMM(0, 0), NewPointMM(10, 0)}
	d := PointToPathDistanceMM(NewPointMM(5, 3), p)
	assert.InDelta(t, 3.0, d, 1e-9)
}

func TestPathClosed(t *testing.T) {
	ring := square(10)
	closed := ring.Closed()
	assert.Len(t, closed, len(ring)+1)
	assert.Equal(t, closed[0], closed[len(closed)-1])

	alreadyClosed := closed.Closed()
	assert.Len(t, alreadyClosed, len(closed))
}
