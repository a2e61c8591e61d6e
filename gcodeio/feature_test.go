package gcodeio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFeatures(t *testing.T) {
	l := NewLayer(1, []string{
		"G1 X0 Y0",
		";TYPE:External perimeter",
		"G1 X1 Y0 E0.1",
		"G1 X1 Y1 E0.1",
		";TYPE:Bridge infill",
		"G1 X2 Y2 E0.1",
	})
	l.ExtractFeatures()
	assert.Len(t, l.Features, 2)
	assert.Equal(t, ";TYPE:External perimeter", l.Features[0].Type)
	assert.Equal(t, ";TYPE:Bridge infill", l.Features[1].Type)
}

func TestSpotFeaturePointsCollectsExtrudingMoves(t *testing.T) {
	l := NewLayer(1, []string{
		";TYPE:Bridge infill",
		"G1 X0 Y0 E0.1",
		"G1 X1 Y0 E0.1",
		"G1 X1 Y1 E0.1",
	})
	l.ExtractFeatures()
	parts := l.SpotFeaturePoints("Bridge infill", FeaturePointsOpts{})
	assert.Len(t, parts, 1)
	assert.Len(t, parts[0], 3)
}

func TestSpotFeaturePointsSplitsAtTravel(t *testing.T) {
	l := NewLayer(1, []string{
		";TYPE:Bridge infill",
		"G1 X0 Y0 E0.1",
		"G1 X1 Y0 E0.1",
		"G1 X5 Y5 F9000",
		"G1 X6 Y5 E0.1",
		"G1 X7 Y5 E0.1",
	})
	l.ExtractFeatures()
	parts := l.SpotFeaturePoints("Bridge infill", FeaturePointsOpts{
		SplitAtTravel:       true,
		TravelSpeedMMPerMin: 9000,
	})
	assert.Len(t, parts, 2)
	assert.Len(t, parts[0], 2)
	assert.Len(t, parts[1], 2)
}
