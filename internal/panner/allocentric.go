package panner

import (
	"math"

	"github.com/ebu/ebu-adm-renderer/internal/geom"
	"github.com/ebu/ebu-adm-renderer/internal/layout"
)

// Allocentric implements the Cartesian extent panner of spec §4.3 step 5
// (BS.2127 §7.3.8): it blends gains across loudspeakers by the source's
// (x, y, z) position within the [-1, 1]^3 cube, using trilinear weights
// from each loudspeaker's own Cartesian position rather than a spherical
// triangulation. Loudspeaker positions are converted to Cartesian via
// geom.Polar.ToCartesian so the same catalogue serves both panning paths.
func Allocentric(l layout.Layout, pos geom.Cartesian) []float64 {
	nonLFE := l.WithoutLFE()
	gains := make([]float64, len(l.Channels))
	if len(nonLFE) == 0 {
		return gains
	}

	var sumSq float64
	for _, idx := range nonLFE {
		speaker := l.Channels[idx].Real.ToCartesian()
		w := trilinearWeight(pos, speaker)
		gains[idx] = w
		sumSq += w * w
	}
	if sumSq > 0 {
		scale := 1 / math.Sqrt(sumSq)
		for _, idx := range nonLFE {
			gains[idx] *= scale
		}
	}
	return gains
}

// trilinearWeight scores how well speaker matches pos along each cube axis,
// higher when closer, falling to zero at cube-diagonal distance 2. This
// gives every non-LFE speaker a nonnegative weight, concentrated on the
// speakers nearest pos in the cube, without requiring the degenerate-
// triangle handling the spherical panner needs for planar layouts.
func trilinearWeight(pos, speaker geom.Cartesian) float64 {
	dx := pos.X - speaker.X
	dy := pos.Y - speaker.Y
	dz := pos.Z - speaker.Z
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	w := 1 - dist/2
	if w < 0 {
		w = 0
	}
	return w * w
}
