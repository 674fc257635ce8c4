package hoa

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
)

// realSH evaluates the real-valued spherical harmonic of the given ACN
// order/degree at direction dir, SN3D-normalised, per BS.2127 appendix's
// ambisonic component ordering. degree ranges over [-order, order].
//
// Only the orders this renderer's BS.2051 layouts can usefully decode
// (0-3) are implemented; callers reject anything higher before construction
// (see BuildDecoder).
func realSH(order, degree int, dir s2.Point) float64 {
	x, y, z := dir.X, dir.Y, dir.Z
	switch order {
	case 0:
		return 1
	case 1:
		switch degree {
		case -1:
			return y
		case 0:
			return z
		case 1:
			return x
		}
	case 2:
		switch degree {
		case -2:
			return math.Sqrt(3) * x * y
		case -1:
			return math.Sqrt(3) * y * z
		case 0:
			return 0.5 * (3*z*z - 1)
		case 1:
			return math.Sqrt(3) * x * z
		case 2:
			return math.Sqrt(3) / 2 * (x*x - y*y)
		}
	case 3:
		switch degree {
		case -3:
			return math.Sqrt(5.0/8) * y * (3*x*x - y*y)
		case -2:
			return math.Sqrt(15) * x * y * z
		case -1:
			return math.Sqrt(3.0/8) * y * (5*z*z - 1)
		case 0:
			return 0.5 * z * (5*z*z - 3)
		case 1:
			return math.Sqrt(3.0/8) * x * (5*z*z - 1)
		case 2:
			return math.Sqrt(15) / 2 * z * (x*x - y*y)
		case 3:
			return math.Sqrt(5.0/8) * x * (x*x - 3*y*y)
		}
	}
	return 0
}

// normalizationScale converts an SN3D-evaluated realSH value to the
// requested ADM HOA normalization scheme (spec §3's
// HOANormalization: SN3D is realSH's native scale, N3D applies the
// orthonormal sqrt(2n+1) factor, FuMa matches the legacy B-format scale for
// orders 0-1 and falls back to SN3D above that, as the reference decoder
// does).
func normalizationScale(order int, norm admmodel.HOANormalization) float64 {
	switch norm {
	case admmodel.NormN3D:
		return math.Sqrt(2*float64(order) + 1)
	case admmodel.NormFuMa:
		if order == 0 {
			return 1 / math.Sqrt(2)
		}
		return 1
	default: // SN3D
		return 1
	}
}
