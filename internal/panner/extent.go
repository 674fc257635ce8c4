package panner

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/ebu/ebu-adm-renderer/internal/pointdesign"
)

// ExtentParams is the width/height/depth triple of spec §4.3 step 6, in
// degrees (width, height) and 0..1 (depth).
type ExtentParams struct {
	Width, Height, Depth float64
}

// Extent computes the spread gain pattern for dir with the given extent,
// over the given loudspeaker directions. A zero-size extent degenerates to
// the plain point source (no quadrature needed). Otherwise it convolves the
// point source against a width x height patch on the sphere, quadrature-
// sampled at the embedded point-design points (spec §4.3 step 6), applies
// depth as a blend toward a uniform ("diffuse") pattern, and L2-renormalises
// so total power is 1.
func Extent(points []s2.Point, dir s2.Point, e ExtentParams) []float64 {
	if e.Width <= 0 && e.Height <= 0 && e.Depth <= 0 {
		return PointSource(points, dir)
	}

	n := len(points)
	acc := make([]float64, n)
	frame := newTangentFrame(dir)

	var totalWeight float64
	for _, sample := range pointdesign.Points() {
		u, v, inFront := frame.project(sample)
		if !inFront {
			continue
		}
		if math.Abs(u) > halfOrMin(e.Width) || math.Abs(v) > halfOrMin(e.Height) {
			continue
		}
		g := PointSource(points, sample)
		w := pointdesign.Weight()
		for i := range acc {
			acc[i] += w * g[i]
		}
		totalWeight += w
	}

	if totalWeight <= 0 {
		// Degenerate patch (e.g. a very narrow width/height that no quadrature
		// point landed inside): fall back to the point source at dir.
		acc = PointSource(points, dir)
	} else {
		for i := range acc {
			acc[i] /= totalWeight
		}
	}

	if e.Depth > 0 {
		diffuse := uniformPattern(n)
		for i := range acc {
			acc[i] = (1-e.Depth)*acc[i] + e.Depth*diffuse[i]
		}
	}

	normalise(acc)
	return acc
}

// halfOrMin returns half the patch dimension in radians. A zero (or
// negative) dimension gets a half-degree floor instead, so a patch with only
// one nonzero dimension still captures the nearest quadrature points; a
// small nonzero dimension gets no floor.
func halfOrMin(degrees float64) float64 {
	if degrees <= 0 {
		return 0.5 * math.Pi / 180
	}
	return (degrees / 2) * math.Pi / 180
}

func uniformPattern(n int) []float64 {
	g := make([]float64, n)
	if n == 0 {
		return g
	}
	v := 1 / math.Sqrt(float64(n))
	for i := range g {
		g[i] = v
	}
	return g
}

// tangentFrame is an orthonormal basis (right, up) tangent to the sphere at
// dir, used to project nearby quadrature points into a local (u, v) patch
// coordinate in radians.
type tangentFrame struct {
	dir, right, up s2.Point
}

func newTangentFrame(dir s2.Point) tangentFrame {
	ref := s2.PointFromCoords(0, 0, 1)
	if math.Abs(dir.Z) > 0.99 {
		ref = s2.PointFromCoords(1, 0, 0)
	}
	right := s2.PointFromCoords(
		dir.Y*ref.Z-dir.Z*ref.Y,
		dir.Z*ref.X-dir.X*ref.Z,
		dir.X*ref.Y-dir.Y*ref.X,
	)
	right = normalisePoint(right)
	up := s2.PointFromCoords(
		right.Y*dir.Z-right.Z*dir.Y,
		right.Z*dir.X-right.X*dir.Z,
		right.X*dir.Y-right.Y*dir.X,
	)
	return tangentFrame{dir: dir, right: right, up: up}
}

func normalisePoint(p s2.Point) s2.Point {
	n := p.Norm()
	if n == 0 {
		return p
	}
	return s2.PointFromCoords(p.X/n, p.Y/n, p.Z/n)
}

// project returns the local (u, v) tangent-plane coordinates of p relative
// to f's direction, in radians, and whether p lies in the front hemisphere
// (otherwise it's not a meaningful patch member regardless of u, v).
func (f tangentFrame) project(p s2.Point) (u, v float64, inFront bool) {
	z := p.Dot(f.dir.Vector)
	if z <= 0 {
		return 0, 0, false
	}
	x := p.Dot(f.right.Vector)
	y := p.Dot(f.up.Vector)
	return math.Atan2(x, z), math.Atan2(y, z), true
}
