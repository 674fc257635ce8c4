package panner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/geom"
	"github.com/ebu/ebu-adm-renderer/internal/layout"
)

func fivePointZeroLayout() layout.Layout {
	l, _ := layout.Named("0+5+0")
	return l
}

func TestChannelLockScenarioD(t *testing.T) {
	// Scenario D: channelLock maxDistance=0.5 at az=25 routes 1.0 to M+030.
	l := fivePointZeroLayout()
	dir := geom.Polar{Azimuth: 25, Elevation: 0, Distance: 1}.Point()
	gains, locked := ChannelLock(l, dir, 0.5)
	require.True(t, locked)
	idx, ok := l.ByName("M+030")
	require.True(t, ok)
	assert.InDelta(t, 1.0, gains[idx], 1e-6)
	for i, g := range gains {
		if i != idx {
			assert.Equal(t, 0.0, g)
		}
	}
}

func TestChannelLockOutOfRange(t *testing.T) {
	l := fivePointZeroLayout()
	dir := geom.Polar{Azimuth: 85, Elevation: 0, Distance: 1}.Point()
	_, locked := ChannelLock(l, dir, 0.1)
	assert.False(t, locked)
}

func TestZoneExclusionPreservesEnergy(t *testing.T) {
	l := fivePointZeroLayout()
	gains := make([]float64, len(l.Channels))
	for i := range gains {
		gains[i] = 1 / float64(len(gains))
	}
	var before float64
	for _, g := range gains {
		before += g * g
	}

	excluded := make([]bool, len(l.Channels))
	idx, _ := l.ByName("M+000")
	excluded[idx] = true

	out, err := ZoneExclusion(l, gains, excluded)
	require.NoError(t, err)

	var after float64
	for _, g := range out {
		after += g * g
	}
	assert.InDelta(t, before, after, 1e-9)
	assert.Equal(t, 0.0, out[idx])
}

func TestZoneExclusionAllSpeakersFails(t *testing.T) {
	l := fivePointZeroLayout()
	gains := make([]float64, len(l.Channels))
	excluded := make([]bool, len(l.Channels))
	for i := range excluded {
		excluded[i] = true
	}
	_, err := ZoneExclusion(l, gains, excluded)
	assert.Error(t, err)
}

func TestZoneContainsPolarSector(t *testing.T) {
	zone := admmodel.Zone{MinAz: -45, MaxAz: 45, MinEl: -10, MaxEl: 10}
	assert.True(t, ZoneContains(zone, geom.Polar{Azimuth: 0, Elevation: 0}))
	assert.False(t, ZoneContains(zone, geom.Polar{Azimuth: 90, Elevation: 0}))
}

func TestDivergenceGainsSumToOne(t *testing.T) {
	for _, d := range []float64{0, 0.25, 0.5, 1} {
		g := DivergenceGains(d)
		assert.InDelta(t, 1.0, g[0]+g[1]+g[2], 1e-9)
	}
}
