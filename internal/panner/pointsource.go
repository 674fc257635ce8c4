// Package panner implements the panning geometry of spec §4.3 step 5: the
// point-source panner (triangulated VBAP over the real loudspeaker
// positions), the allocentric Cartesian panner, and the shared exclusion /
// lock / diffuse helpers the Objects and DirectSpeakers renderers both use.
package panner

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// PointSource computes vector-base-amplitude-panning gains for dir across
// the given non-LFE loudspeaker directions. It finds the speaker triangle
// whose spherical basis contains dir (barycentric coefficients
// non-negative before renormalisation, testable property 3), solves for
// the per-vertex gains, zero-fills every other speaker, and L2-renormalises
// so total power is 1 (testable property 2).
//
// The reference algorithm closes the sphere with synthetic "virtual"
// loudspeakers (centre-top and an imaginary below-ear-level ring) so a
// triangle always exists; this implementation instead falls back to a
// nearest-edge/nearest-vertex blend when no covering triangle is found,
// which only differs from the reference for sources outside the convex
// hull of the real loudspeakers (documented simplification, DESIGN.md).
func PointSource(points []s2.Point, dir s2.Point) []float64 {
	n := len(points)
	gains := make([]float64, n)
	if n == 0 {
		return gains
	}
	if n == 1 {
		gains[0] = 1
		return gains
	}

	if tri, g, ok := bestTriangle(points, dir); ok {
		for i, idx := range tri {
			gains[idx] = g[i]
		}
		normalise(gains)
		return gains
	}

	// No covering triangle (direction outside the hull): blend the two
	// nearest speakers by inverse angular distance, then renormalise.
	i1, i2 := twoNearest(points, dir)
	d1 := points[i1].Distance(dir).Radians()
	d2 := points[i2].Distance(dir).Radians()
	const eps = 1e-9
	w1 := 1 / (d1 + eps)
	w2 := 1 / (d2 + eps)
	gains[i1] = w1
	gains[i2] = w2
	normalise(gains)
	return gains
}

// bestTriangle enumerates speaker triples and returns the one whose
// barycentric solve for dir has all non-negative coefficients, preferring
// the triple with the smallest total angular distance to dir when more than
// one covers it (keeps the choice deterministic).
func bestTriangle(points []s2.Point, dir s2.Point) ([3]int, [3]float64, bool) {
	n := len(points)
	type candidate struct {
		tri  [3]int
		g    [3]float64
		dist float64
	}
	var best *candidate

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				g, ok := solveBarycentric(points[i], points[j], points[k], dir)
				if !ok {
					continue
				}
				if g[0] < -1e-9 || g[1] < -1e-9 || g[2] < -1e-9 {
					continue
				}
				dist := points[i].Distance(dir).Radians() + points[j].Distance(dir).Radians() + points[k].Distance(dir).Radians()
				if best == nil || dist < best.dist {
					best = &candidate{tri: [3]int{i, j, k}, g: [3]float64{math.Max(g[0], 0), math.Max(g[1], 0), math.Max(g[2], 0)}, dist: dist}
				}
			}
		}
	}
	if best == nil {
		return [3]int{}, [3]float64{}, false
	}
	return best.tri, best.g, true
}

// solveBarycentric solves L*g = dir for g, where L's columns are a, b, c as
// 3D column vectors, using Cramer's rule. ok is false when the triangle is
// degenerate (zero determinant).
func solveBarycentric(a, b, c, dir s2.Point) ([3]float64, bool) {
	det := determinant3(a.Vector, b.Vector, c.Vector)
	if math.Abs(det) < 1e-12 {
		return [3]float64{}, false
	}
	d := dir.Vector
	g0 := determinant3(d, b.Vector, c.Vector) / det
	g1 := determinant3(a.Vector, d, c.Vector) / det
	g2 := determinant3(a.Vector, b.Vector, d) / det
	return [3]float64{g0, g1, g2}, true
}

func determinant3(a, b, c r3.Vector) float64 {
	return a.X*(b.Y*c.Z-b.Z*c.Y) - a.Y*(b.X*c.Z-b.Z*c.X) + a.Z*(b.X*c.Y-b.Y*c.X)
}

func twoNearest(points []s2.Point, dir s2.Point) (int, int) {
	best1, best2 := 0, 1
	if len(points) < 2 {
		return 0, 0
	}
	d1 := points[0].Distance(dir).Radians()
	d2 := points[1].Distance(dir).Radians()
	if d2 < d1 {
		best1, best2 = best2, best1
		d1, d2 = d2, d1
	}
	for i := 2; i < len(points); i++ {
		d := points[i].Distance(dir).Radians()
		switch {
		case d < d1:
			best2, d2 = best1, d1
			best1, d1 = i, d
		case d < d2:
			best2, d2 = i, d
		}
	}
	return best1, best2
}

// normalise L2-renormalises gains so the sum of squares is 1, unless every
// gain is zero.
func normalise(gains []float64) {
	var sumSq float64
	for _, g := range gains {
		sumSq += g * g
	}
	if sumSq <= 0 {
		return
	}
	scale := 1 / math.Sqrt(sumSq)
	for i := range gains {
		gains[i] *= scale
	}
}
