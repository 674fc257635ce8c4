// Package geom implements the ADM position model (spec §3): polar and
// Cartesian representations, the conversions between them, and the
// screen-scaling / screen-edge-lock transforms that operate on positions.
//
// Angles and unit-sphere directions are modelled with golang/geo's s1/s2
// types, the same library the teacher's pure-Go rewrites
// (cmd/samoyed-ll2utm, cmd/samoyed-utm2ll) use for degree/radian and
// lat-lng/unit-vector conversion.
package geom

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Polar is an ADM polar position: azimuth counter-clockwise in degrees
// (0 = front, +90 = left), elevation in degrees, radius in metres.
type Polar struct {
	Azimuth   float64
	Elevation float64
	Distance  float64
}

// Cartesian is an ADM Cartesian position: X right, Y front, Z up. BS.2076
// speakers for Cartesian rendering lie inside or on the unit cube.
type Cartesian struct {
	X, Y, Z float64
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }

// Point returns the unit-sphere direction of p, ignoring distance.
func (p Polar) Point() s2.Point {
	// ADM azimuth is measured counter-clockwise from the front (Y axis) with
	// positive values to the left (-X); s2.LatLng is standard lat/lng, so we
	// build the unit vector directly rather than going through LatLng, whose
	// longitude convention runs the other way.
	az := degToRad(p.Azimuth)
	el := degToRad(p.Elevation)
	x := -math.Sin(az) * math.Cos(el)
	y := math.Cos(az) * math.Cos(el)
	z := math.Sin(el)
	return s2.PointFromCoords(x, y, z)
}

// ToCartesian converts a polar position to the BS.2127-defined Cartesian
// position on (inside) the unit cube. The conversion is invertible (spec
// §4.3 step 1); ToPolar undoes it exactly for non-degenerate positions.
func (p Polar) ToCartesian() Cartesian {
	pt := p.Point()
	// Map the unit-sphere direction onto the unit cube by scaling each axis
	// by the infinity-norm radius, per BS.2127 §10 position conversion.
	norm := math.Max(math.Abs(pt.X), math.Max(math.Abs(pt.Y), math.Abs(pt.Z)))
	if norm == 0 {
		return Cartesian{}
	}
	return Cartesian{X: pt.X / norm, Y: pt.Y / norm, Z: pt.Z / norm}
}

// ToPolar converts a Cartesian position back to polar. Azimuth/elevation are
// derived from the direction only; Distance is fixed at 1 (BS.2127 treats
// the cube face, not a physical radius, as canonical for Cartesian sources).
func (c Cartesian) ToPolar() Polar {
	if c.X == 0 && c.Y == 0 && c.Z == 0 {
		return Polar{Distance: 0}
	}
	pt := s2.PointFromCoords(c.X, c.Y, c.Z)
	az := radToDeg(math.Atan2(-pt.X, pt.Y))
	hyp := math.Hypot(pt.X, pt.Y)
	el := radToDeg(math.Atan2(pt.Z, hyp))
	return Polar{Azimuth: az, Elevation: el, Distance: 1}
}

// AngularDistance returns the angle, in radians, between two directions on
// the unit sphere — used by channel lock (spec §4.3 step 8) and the
// point-source panner's nearest-triangle search.
func AngularDistance(a, b s2.Point) s1.Angle {
	return a.Distance(b)
}

// Screen describes a reference or reproduction screen for screen-scaling
// and screen-edge-lock (spec §4.3 steps 2-3): a centre azimuth/elevation and
// an angular half-width/half-height, expressed per BS.2127 §7.3.9.
type Screen struct {
	CentreAzimuth   float64
	CentreElevation float64
	HalfWidth       float64 // degrees
	AspectRatio     float64
}

// ScaleToScreen warps a position from the reference screen to the
// reproduction screen, per BS.2127 §7.3.9. It fails when the source lies at
// a pole (azimuth singular) or when either screen has zero half-width,
// because the warp is undefined there (spec §4.3 step 2, SPEC_FULL.md §13.2).
func ScaleToScreen(p Polar, ref, repro Screen) (Polar, error) {
	if math.Abs(p.Elevation) >= 90 {
		return Polar{}, errScreenSingular("position at a pole")
	}
	if ref.HalfWidth <= 0 || repro.HalfWidth <= 0 {
		return Polar{}, errScreenSingular("degenerate (zero-width) screen")
	}

	relAz := p.Azimuth - ref.CentreAzimuth
	relEl := p.Elevation - ref.CentreElevation

	scaleAz := repro.HalfWidth / ref.HalfWidth
	scaleEl := (repro.HalfWidth * repro.AspectRatio) / (ref.HalfWidth * ref.AspectRatio)

	out := p
	out.Azimuth = repro.CentreAzimuth + relAz*scaleAz
	out.Elevation = repro.CentreElevation + relEl*scaleEl
	return out, nil
}

type screenError string

func (e screenError) Error() string { return string(e) }

func errScreenSingular(reason string) error {
	return screenError("screen scaling undefined: " + reason)
}

// ScreenEdge names the edges screen-edge-lock can snap to (spec §4.3 step 3).
type ScreenEdge int

const (
	EdgeNone ScreenEdge = iota
	EdgeLeft
	EdgeRight
)

// LockToScreenEdge snaps the azimuth of p to the named screen edge, leaving
// elevation untouched. EdgeNone returns p unchanged.
func LockToScreenEdge(p Polar, edge ScreenEdge, screen Screen) Polar {
	switch edge {
	case EdgeLeft:
		p.Azimuth = screen.CentreAzimuth + screen.HalfWidth
	case EdgeRight:
		p.Azimuth = screen.CentreAzimuth - screen.HalfWidth
	}
	return p
}
