// Package config loads the speakers YAML file (spec §6) that overrides a
// standard layout's real positions, per-channel gains, and screen geometry.
// Grounded on the teacher's gopkg.in/yaml.v3 usage in deviceid.go
// (tocalls.yaml), which loads a flat list of typed records the same way.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ebu/ebu-adm-renderer/internal/geom"
	"github.com/ebu/ebu-adm-renderer/internal/layout"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

// SpeakerEntry is one `speakers:` list item in the YAML file.
type SpeakerEntry struct {
	Channel    string    `yaml:"channel"`
	Names      []string  `yaml:"names"`
	Position   *Position `yaml:"position"`
	GainLinear *float64  `yaml:"gain_linear"`
}

// Position is the optional real-position override for a speaker entry.
type Position struct {
	Az float64 `yaml:"az"`
	El float64 `yaml:"el"`
	R  float64 `yaml:"r"`
}

// ScreenSpec is the `screen:` section of the speakers file.
type ScreenSpec struct {
	Type        string  `yaml:"type"` // "polar", "cart", or "" for null
	Azimuth     float64 `yaml:"azimuth"`
	Elevation   float64 `yaml:"elevation"`
	HalfWidth   float64 `yaml:"width"`
	AspectRatio float64 `yaml:"aspect_ratio"`
}

// File is the parsed top-level document.
type File struct {
	Speakers []SpeakerEntry `yaml:"speakers"`
	Screen   *ScreenSpec    `yaml:"screen"`
}

// LoadSpeakersFile reads and parses a speakers YAML file from path.
func LoadSpeakersFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rendererrors.Wrap(rendererrors.LayoutError, err, "reading speakers file %q", path)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, rendererrors.Wrap(rendererrors.LayoutError, err, "parsing speakers file %q", path)
	}
	return &f, nil
}

// Apply overlays the speakers file's real positions and gains onto a base
// layout, matching channels by name or by any of an entry's aliases.
func (f *File) Apply(base layout.Layout) (layout.Layout, error) {
	out := base
	out.Channels = append([]layout.Channel(nil), base.Channels...)

	for _, entry := range f.Speakers {
		idx, ok := findChannel(out, entry)
		if !ok {
			return layout.Layout{}, rendererrors.New(rendererrors.LayoutError,
				"speakers file references unknown channel %q", entry.Channel)
		}
		ch := out.Channels[idx]
		if entry.Position != nil {
			ch.Real = geom.Polar{Azimuth: entry.Position.Az, Elevation: entry.Position.El, Distance: entry.Position.R}
			if ch.Real.Distance == 0 {
				ch.Real.Distance = 1
			}
		}
		if entry.GainLinear != nil {
			ch.Gain = *entry.GainLinear
		}
		out.Channels[idx] = ch
	}

	if err := out.Validate(); err != nil {
		return layout.Layout{}, err
	}
	if err := out.CheckPositions(); err != nil {
		return layout.Layout{}, err
	}
	return out, nil
}

func findChannel(l layout.Layout, entry SpeakerEntry) (int, bool) {
	if idx, ok := l.ByName(entry.Channel); ok {
		return idx, true
	}
	for _, alias := range entry.Names {
		if idx, ok := l.ByName(alias); ok {
			return idx, true
		}
	}
	return -1, false
}

// ReproductionScreen converts the YAML screen section into a geom.Screen.
// It returns false (and a zero Screen) when Screen is nil or Type == ""
// (no screen defined), leaving the caller's default screen in place.
func (f *File) ReproductionScreen() (geom.Screen, bool) {
	if f == nil || f.Screen == nil || f.Screen.Type == "" {
		return geom.Screen{}, false
	}
	s := f.Screen
	hw := s.HalfWidth
	if hw == 0 {
		hw = 30
	}
	ar := s.AspectRatio
	if ar == 0 {
		ar = 1
	}
	return geom.Screen{
		CentreAzimuth:   s.Azimuth,
		CentreElevation: s.Elevation,
		HalfWidth:       hw,
		AspectRatio:     ar,
	}, true
}

func (s SpeakerEntry) String() string {
	return fmt.Sprintf("SpeakerEntry(%s)", s.Channel)
}
