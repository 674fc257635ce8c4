package panner

import "github.com/ebu/ebu-adm-renderer/internal/geom"

// Divergence replaces a point source by the triangle {-azimuthRange, 0,
// +azimuthRange} around pos with gains {g_d, |1-d|, g_d}, per spec §4.3
// step 4, summing the resulting three per-position panner outputs. value is
// d in [0,1]; azimuthRange is divergenceAzimuthRange in degrees.
func Divergence(pos geom.Polar, value, azimuthRange float64) []geom.Polar {
	if value <= 0 {
		return []geom.Polar{pos}
	}
	left := pos
	left.Azimuth = wrapAzimuth(pos.Azimuth + azimuthRange)
	right := pos
	right.Azimuth = wrapAzimuth(pos.Azimuth - azimuthRange)
	return []geom.Polar{left, pos, right}
}

// DivergenceGains returns the per-position gain weights that pair with
// Divergence's three positions: {g_d, |1-d|, g_d}, where g_d = d/2 so the
// three weights sum to 1.
func DivergenceGains(value float64) [3]float64 {
	if value <= 0 {
		return [3]float64{0, 1, 0}
	}
	gd := value / 2
	return [3]float64{gd, absf(1 - value), gd}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func wrapAzimuth(az float64) float64 {
	for az > 180 {
		az -= 360
	}
	for az < -180 {
		az += 360
	}
	return az
}

// DivergenceCartesian is the Cartesian-path equivalent (spec §4.3 step 4):
// the triangle spreads along X by positionRange instead of azimuth.
func DivergenceCartesian(pos geom.Cartesian, value, positionRange float64) []geom.Cartesian {
	if value <= 0 {
		return []geom.Cartesian{pos}
	}
	left := pos
	left.X = clamp(pos.X+positionRange, -1, 1)
	right := pos
	right.X = clamp(pos.X-positionRange, -1, 1)
	return []geom.Cartesian{left, pos, right}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
