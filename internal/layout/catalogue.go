package layout

import (
	"sort"

	"github.com/ebu/ebu-adm-renderer/internal/geom"
)

// Catalogue entries are BS.2051 Table 1 nominal loudspeaker positions. Real
// positions default to nominal until overridden by a speakers file.
var catalogue = map[string][]Channel{
	"0+5+0": {
		{Name: "M+030", Nominal: geom.Polar{Azimuth: 30, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M-030", Nominal: geom.Polar{Azimuth: -30, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M+000", Nominal: geom.Polar{Azimuth: 0, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M+110", Nominal: geom.Polar{Azimuth: 110, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M-110", Nominal: geom.Polar{Azimuth: -110, Elevation: 0, Distance: 1}, Gain: 1},
	},
	"0+2+0": {
		{Name: "M+030", Nominal: geom.Polar{Azimuth: 30, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M-030", Nominal: geom.Polar{Azimuth: -30, Elevation: 0, Distance: 1}, Gain: 1},
	},
	"4+5+0": {
		{Name: "M+030", Nominal: geom.Polar{Azimuth: 30, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M-030", Nominal: geom.Polar{Azimuth: -30, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M+000", Nominal: geom.Polar{Azimuth: 0, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M+110", Nominal: geom.Polar{Azimuth: 110, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M-110", Nominal: geom.Polar{Azimuth: -110, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "U+030", Nominal: geom.Polar{Azimuth: 30, Elevation: 30, Distance: 1}, Gain: 1},
		{Name: "U-030", Nominal: geom.Polar{Azimuth: -30, Elevation: 30, Distance: 1}, Gain: 1},
		{Name: "U+110", Nominal: geom.Polar{Azimuth: 110, Elevation: 30, Distance: 1}, Gain: 1},
		{Name: "U-110", Nominal: geom.Polar{Azimuth: -110, Elevation: 30, Distance: 1}, Gain: 1},
	},
	"9+10+3": {
		{Name: "M+060", Nominal: geom.Polar{Azimuth: 60, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M-060", Nominal: geom.Polar{Azimuth: -60, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M+030", Nominal: geom.Polar{Azimuth: 30, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M-030", Nominal: geom.Polar{Azimuth: -30, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M+000", Nominal: geom.Polar{Azimuth: 0, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M+135", Nominal: geom.Polar{Azimuth: 135, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M-135", Nominal: geom.Polar{Azimuth: -135, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M+090", Nominal: geom.Polar{Azimuth: 90, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "M-090", Nominal: geom.Polar{Azimuth: -90, Elevation: 0, Distance: 1}, Gain: 1},
		{Name: "U+045", Nominal: geom.Polar{Azimuth: 45, Elevation: 30, Distance: 1}, Gain: 1},
		{Name: "U-045", Nominal: geom.Polar{Azimuth: -45, Elevation: 30, Distance: 1}, Gain: 1},
		{Name: "U+000", Nominal: geom.Polar{Azimuth: 0, Elevation: 30, Distance: 1}, Gain: 1},
		{Name: "U+135", Nominal: geom.Polar{Azimuth: 135, Elevation: 30, Distance: 1}, Gain: 1},
		{Name: "U-135", Nominal: geom.Polar{Azimuth: -135, Elevation: 30, Distance: 1}, Gain: 1},
		{Name: "U+090", Nominal: geom.Polar{Azimuth: 90, Elevation: 30, Distance: 1}, Gain: 1},
		{Name: "U-090", Nominal: geom.Polar{Azimuth: -90, Elevation: 30, Distance: 1}, Gain: 1},
		{Name: "UH+180", Nominal: geom.Polar{Azimuth: 180, Elevation: 30, Distance: 1}, Gain: 1},
		{Name: "T+000", Nominal: geom.Polar{Azimuth: 0, Elevation: 90, Distance: 1}, Gain: 1},
		{Name: "LFE1", Nominal: geom.Polar{Azimuth: 45, Elevation: -30, Distance: 1}, IsLFE: true, Gain: 1},
		{Name: "LFE2", Nominal: geom.Polar{Azimuth: -45, Elevation: -30, Distance: 1}, IsLFE: true, Gain: 1},
		{Name: "B+000", Nominal: geom.Polar{Azimuth: 0, Elevation: -30, Distance: 1}, Gain: 1},
		{Name: "BC+000", Nominal: geom.Polar{Azimuth: 0, Elevation: -1, Distance: 1}, Gain: 1},
	},
}

// Named looks up a standard BS.2051 layout by name (e.g. "0+5+0"). Real
// positions are initialised equal to nominal; a speakers file may override
// them afterwards.
func Named(name string) (Layout, bool) {
	channels, ok := catalogue[name]
	if !ok {
		return Layout{}, false
	}
	out := make([]Channel, len(channels))
	for i, c := range channels {
		c.Real = c.Nominal
		if c.Gain == 0 {
			c.Gain = 1
		}
		out[i] = c
	}
	return Layout{Name: name, Channels: out}, true
}

// Names lists every layout this catalogue knows about.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	return names
}

// FindChannelPosition looks up a BS.2051 nominal channel position by its
// speaker label, scanning every known layout (in sorted layout-name order,
// first match wins) since a label like "M+030" recurs identically across layouts. Used
// by tools that synthesise test fixtures from a bare speaker-label list
// (admrender-make-test-bwf) rather than a chosen target layout.
func FindChannelPosition(label string) (geom.Polar, bool) {
	names := Names()
	sort.Strings(names)
	for _, name := range names {
		for _, c := range catalogue[name] {
			if c.Name == label {
				return c.Nominal, true
			}
		}
	}
	return geom.Polar{}, false
}
