package gcodeio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMotionBasic(t *testing.T) {
	m, ok := ParseMotion("G1 X10.5 Y-3.2 E0.5 F1200")
	assert.True(t, ok)
	assert.True(t, m.HasX)
	assert.True(t, m.HasY)
	assert.True(t, m.HasE)
	assert.True(t, m.HasF)
	assert.InDelta(t, 10.5, m.X, 1e-9)
	assert.InDelta(t, -3.2, m.Y, 1e-9)
}

func TestParseMotionIgnoresComment(t *testing.T) {
	m, ok := ParseMotion("G1 X1 Y2 ; a comment with X9 in it")
	assert.True(t, ok)
	assert.InDelta(t, 1.0, m.X, 1e-9)
	assert.InDelta(t, 2.0, m.Y, 1e-9)
}

func TestParseMotionRejectsNonMotion(t *testing.T) {
	_, ok := ParseMotion("M106 S255")
	assert.False(t, ok)

	_, ok = ParseMotion(";TYPE:Bridge infill")
	assert.False(t, ok)
}

func TestMotionPointRequiresBothAxes(t *testing.T) {
	m, ok := ParseMotion("G1 X10 F600")
	assert.True(t, ok)
	_, hasPoint := m.Point()
	assert.False(t, hasPoint)
}

func TestPolygonFromLinesStopsAtWipe(t *testing.T) {
	lines := []string{
		"G1 X0 Y0",
		"G1 X10 Y0",
		"G1 X10 Y10",
		";WIPE_START",
		"G1 X0 Y0",
	}
	path, ok := PolygonFromLines(lines)
	assert.True(t, ok)
	assert.Len(t, path, 3)
}

func TestPolygonFromLinesNeedsAtLeastThreePoints(t *testing.T) {
	_, ok := PolygonFromLines([]string{"G1 X0 Y0", "G1 X1 Y1"})
	assert.False(t, ok)
}
