package panner

import "math"

// DiffuseSplit splits a direct gain vector g into a direct part and a
// diffuse part per spec §4.3 step 9: direct = (1-sqrt(d))*g, diffuse =
// sqrt(d)*gDiffuse, where gDiffuse is the extent gain pattern with
// width/height forced to a diffuse kernel (the caller supplies it, already
// computed e.g. via Extent with a wide fixed extent). Both parts are
// returned on the same N output channels, matching both onto the same
// speakers (no decorrelator in this renderer, spec §4.3 step 9 / §1
// Non-goals).
func DiffuseSplit(g, gDiffuse []float64, d float64) (direct, diffuse []float64) {
	direct = make([]float64, len(g))
	diffuse = make([]float64, len(g))
	directScale := 1 - math.Sqrt(clamp(d, 0, 1))
	diffuseScale := math.Sqrt(clamp(d, 0, 1))
	for i := range g {
		direct[i] = directScale * g[i]
		if i < len(gDiffuse) {
			diffuse[i] = diffuseScale * gDiffuse[i]
		}
	}
	return direct, diffuse
}

// Combine sums the direct and diffuse parts back onto one gain vector, since
// this renderer emits both on the same channels (spec §4.3 step 9).
func Combine(direct, diffuse []float64) []float64 {
	out := make([]float64, len(direct))
	for i := range out {
		out[i] = direct[i] + diffuse[i]
	}
	return out
}
