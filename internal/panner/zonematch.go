package panner

import (
	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/geom"
)

// ZoneContains reports whether a loudspeaker at nominal lies inside zone,
// per spec §4.3 step 7 (either a polar sector or a Cartesian box).
func ZoneContains(zone admmodel.Zone, nominal geom.Polar) bool {
	if zone.IsCartesian {
		c := nominal.ToCartesian()
		return c.X >= zone.MinX && c.X <= zone.MaxX &&
			c.Y >= zone.MinY && c.Y <= zone.MaxY &&
			c.Z >= zone.MinZ && c.Z <= zone.MaxZ
	}
	return inRange(nominal.Azimuth, zone.MinAz, zone.MaxAz) && inRange(nominal.Elevation, zone.MinEl, zone.MaxEl)
}

func inRange(v, lo, hi float64) bool {
	if lo <= hi {
		return v >= lo && v <= hi
	}
	// Wrapping range (e.g. MinAz=170, MaxAz=-170 crossing +/-180).
	return v >= lo || v <= hi
}

// ExclusionMask builds the per-channel excluded-or-not mask for a set of
// zones against a layout's nominal positions.
func ExclusionMask(nominal []geom.Polar, zones []admmodel.Zone) []bool {
	mask := make([]bool, len(nominal))
	for i, p := range nominal {
		for _, z := range zones {
			if ZoneContains(z, p) {
				mask[i] = true
				break
			}
		}
	}
	return mask
}
