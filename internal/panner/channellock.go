package panner

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/ebu/ebu-adm-renderer/internal/layout"
)

// ChannelLock replaces gains with a one-hot vector onto the nearest
// non-LFE loudspeaker when that loudspeaker lies within maxDistance
// (Euclidean, on unit vectors) of dir, per spec §4.3 step 8. Ties are
// broken by increasing nominal channel index (the v2.1 bug fix spec §4.3
// names explicitly). locked is false (and gains nil) when no loudspeaker
// is within range, in which case the caller keeps its own gains.
func ChannelLock(l layout.Layout, dir s2.Point, maxDistance float64) (gains []float64, locked bool) {
	nonLFE := l.WithoutLFE()
	best := -1
	bestDist := math.Inf(1)
	// nonLFE is already in increasing channel-index order, so the first
	// strict improvement seen also wins any exact-distance tie (spec §4.3
	// step 8's "priority by increasing nominal channel index" rule).
	for _, idx := range nonLFE {
		p := l.Channels[idx].Real.Point()
		d := euclidean(p, dir)
		if d > maxDistance {
			continue
		}
		if d < bestDist-1e-12 {
			bestDist = d
			best = idx
		}
	}
	if best == -1 {
		return nil, false
	}
	out := make([]float64, len(l.Channels))
	out[best] = 1
	return out, true
}

// euclidean is the chord (Euclidean) distance between two unit vectors,
// as opposed to the great-circle angular distance used by the panner.
func euclidean(a, b s2.Point) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
