// Package directspeakers implements the DirectSpeakers type renderer, spec
// §4.4: mapping a speakerLabel or bounded nominal position onto one or more
// output channels of the target layout.
package directspeakers

import (
	"strings"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/block"
	"github.com/ebu/ebu-adm-renderer/internal/geom"
	"github.com/ebu/ebu-adm-renderer/internal/layout"
	"github.com/ebu/ebu-adm-renderer/internal/panner"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

// Params bundles the render-wide inputs held constant across every block of
// one DirectSpeakers channel format.
type Params struct {
	Layout   layout.Layout
	Warnings *rendererrors.Warnings
	ItemPath string
}

// Render converts a DirectSpeakers channel format's block sequence into a
// timeline of output gain events, spec §4.7's renderer contract.
func Render(p Params, blocks []admmodel.BlockFormat, sampleRate int) (block.Timeline, error) {
	nOut := p.Layout.NumChannels()
	var outputs []block.RendererOutput
	for _, bf := range blocks {
		if bf.DirectSpeaker == nil {
			continue
		}
		gains := renderBlock(p, *bf.DirectSpeaker)

		start := secondsToSamples(bf.RTime, sampleRate)
		end := secondsToSamples(bf.End(), sampleRate)
		outputs = append(outputs, block.RendererOutput{
			StartSample:   start,
			EndSample:     end,
			Gain:          block.GainVector(gains),
			InterpSamples: 0,
			Jump:          true, // DirectSpeakers positions are not interpolated, spec §4.4
		})
	}
	return block.BuildTimeline(outputs, 1, nOut), nil
}

func secondsToSamples(t float64, sampleRate int) int {
	return int(t*float64(sampleRate) + 0.5)
}

// renderBlock applies the decision order of spec §4.4: exact label match,
// nominal-bounds match, common-definitions downmix/upmix, else a warning
// and silence. The Cartesian path instead always uses the allocentric
// panner.
func renderBlock(p Params, db admmodel.DirectSpeakersBlock) []float64 {
	nOut := p.Layout.NumChannels()
	gains := make([]float64, nOut)

	if db.PositionCartesian != nil {
		gains = panner.Allocentric(p.Layout, *db.PositionCartesian)
		scaleLayoutGains(p.Layout, gains)
		for i := range gains {
			gains[i] *= db.Gain
		}
		checkLFELabel(p, db)
		return gains
	}

	if idx, ok := matchLabel(p.Layout, db.SpeakerLabels); ok {
		gains[idx] = 1
		gains[idx] *= p.Layout.Channels[idx].Gain * db.Gain
		checkLFELabel(p, db)
		return gains
	}

	if db.PositionPolar != nil {
		if idx, ok := matchNominalBounds(p.Layout, *db.PositionPolar, db.AzRange, db.ElRange); ok {
			gains[idx] = 1
			gains[idx] *= p.Layout.Channels[idx].Gain * db.Gain
			checkLFELabel(p, db)
			return gains
		}
	}

	if idx, compensation, ok := downmixMatch(p.Layout, db.SpeakerLabels); ok {
		gains[idx] = compensation
		gains[idx] *= p.Layout.Channels[idx].Gain * db.Gain
		checkLFELabel(p, db)
		return gains
	}

	p.Warnings.Addf("directSpeakers block (labels=%v) matched no output channel", db.SpeakerLabels)
	checkLFELabel(p, db)
	return gains
}

func checkLFELabel(p Params, db admmodel.DirectSpeakersBlock) {
	for _, label := range db.SpeakerLabels {
		if strings.Contains(strings.ToUpper(label), "LFE") && !db.IsLFE {
			p.Warnings.Addf("speaker label %q looks like an LFE channel but the block is not flagged LFE", label)
		}
	}
}

// matchLabel implements decision (i): an exact channel-name match.
func matchLabel(l layout.Layout, labels []string) (int, bool) {
	for _, label := range labels {
		if idx, ok := l.ByName(label); ok {
			return idx, true
		}
	}
	return -1, false
}

// matchNominalBounds implements decision (ii): the output channel whose
// nominal position falls within the block's azimuth/elevation range
// (falling back to the single nearest nominal position when no range is
// given).
func matchNominalBounds(l layout.Layout, pos geom.Polar, azRange, elRange [2]float64) (int, bool) {
	hasRange := azRange != [2]float64{} || elRange != [2]float64{}
	best := -1
	bestDist := 1e18
	for i, c := range l.Channels {
		if c.IsLFE {
			continue
		}
		if hasRange {
			if !inBounds(c.Nominal.Azimuth, azRange) || !inBounds(c.Nominal.Elevation, elRange) {
				continue
			}
		}
		dAz := pos.Azimuth - c.Nominal.Azimuth
		dEl := pos.Elevation - c.Nominal.Elevation
		d := dAz*dAz + dEl*dEl
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best == -1 {
		return -1, false
	}
	if !hasRange && bestDist > 1 {
		// No explicit range and the nearest nominal position is far away:
		// this isn't a meaningful bounds match, defer to the downmix path.
		return -1, false
	}
	return best, true
}

func inBounds(v float64, r [2]float64) bool {
	if r == [2]float64{} {
		return true
	}
	lo, hi := r[0], r[1]
	if lo <= hi {
		return v >= lo && v <= hi
	}
	return v >= lo || v <= hi
}

// downmixRule is one common-definitions layout-aware downmix/upmix entry,
// spec §4.4's "M+SC → nearest of M±{30..45} with gain compensation".
type downmixRule struct {
	label        string
	candidates   []string
	compensation float64
}

// downmixRules is a small, representative slice of the BS.2051 common-
// definitions downmix table covering the screen-centre speaker labels this
// renderer's supported layouts can encounter; the full common-definitions
// catalogue tabulates many more nonstandard labels than this renderer's
// BS.2051 layout set (§3) can ever target.
var downmixRules = []downmixRule{
	{label: "M+SC", candidates: []string{"M+030", "M+045"}, compensation: 0.7071067811865476},
	{label: "M-SC", candidates: []string{"M-030", "M-045"}, compensation: 0.7071067811865476},
}

// downmixMatch implements decision (iii): a fixed label-to-candidate-list
// rule, routing to the first candidate present in the layout.
func downmixMatch(l layout.Layout, labels []string) (idx int, gain float64, ok bool) {
	for _, label := range labels {
		for _, rule := range downmixRules {
			if !strings.EqualFold(label, rule.label) {
				continue
			}
			for _, cand := range rule.candidates {
				if i, found := l.ByName(cand); found {
					return i, rule.compensation, true
				}
			}
		}
	}
	return -1, 0, false
}

// scaleLayoutGains multiplies each output by that channel's layout gain, for
// the allocentric path; the label, bounds and downmix paths fold it in
// inline instead.
func scaleLayoutGains(l layout.Layout, gains []float64) {
	for i := range gains {
		gains[i] *= l.Channels[i].Gain
	}
}
