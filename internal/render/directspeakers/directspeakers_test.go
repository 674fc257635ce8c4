package directspeakers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/geom"
	"github.com/ebu/ebu-adm-renderer/internal/layout"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

func fivePointZero(t *testing.T) layout.Layout {
	l, ok := layout.Named("0+5+0")
	require.True(t, ok)
	return l
}

func baseParams(t *testing.T) Params {
	return Params{Layout: fivePointZero(t), Warnings: rendererrors.NewWarnings(), ItemPath: "test"}
}

func blockWithLabel(label string) admmodel.BlockFormat {
	return admmodel.BlockFormat{
		Type:     admmodel.PackDirectSpeakers,
		Duration: 1,
		DirectSpeaker: &admmodel.DirectSpeakersBlock{
			SpeakerLabels: []string{label},
			Gain:          1,
		},
	}
}

func TestRenderExactLabelMatchIsIdentity(t *testing.T) {
	p := baseParams(t)
	tl, err := Render(p, []admmodel.BlockFormat{blockWithLabel("M+030")}, 48000)
	require.NoError(t, err)

	idx, _ := p.Layout.ByName("M+030")
	g := tl.GainAt(100)
	assert.Equal(t, 1.0, g.At(0, idx))
	for o := 0; o < p.Layout.NumChannels(); o++ {
		if o != idx {
			assert.Equal(t, 0.0, g.At(0, o))
		}
	}
}

func TestRenderNominalBoundsMatch(t *testing.T) {
	p := baseParams(t)
	bf := admmodel.BlockFormat{
		Type:     admmodel.PackDirectSpeakers,
		Duration: 1,
		DirectSpeaker: &admmodel.DirectSpeakersBlock{
			SpeakerLabels: []string{"Unlabelled"},
			PositionPolar: &geom.Polar{Azimuth: 29, Elevation: 1, Distance: 1},
			AzRange:       [2]float64{20, 40},
			ElRange:       [2]float64{-5, 5},
			Gain:          1,
		},
	}
	tl, err := Render(p, []admmodel.BlockFormat{bf}, 48000)
	require.NoError(t, err)

	idx, _ := p.Layout.ByName("M+030")
	g := tl.GainAt(100)
	assert.Equal(t, 1.0, g.At(0, idx))
}

func TestRenderDownmixMatchAppliesCompensation(t *testing.T) {
	p := baseParams(t)
	tl, err := Render(p, []admmodel.BlockFormat{blockWithLabel("M+SC")}, 48000)
	require.NoError(t, err)

	idx, ok := p.Layout.ByName("M+030")
	require.True(t, ok)
	g := tl.GainAt(100)
	assert.InDelta(t, 0.7071067811865476, g.At(0, idx), 1e-9)
}

func TestRenderUnmatchedLabelWarnsAndIsSilent(t *testing.T) {
	p := baseParams(t)
	tl, err := Render(p, []admmodel.BlockFormat{blockWithLabel("NoSuchSpeaker")}, 48000)
	require.NoError(t, err)

	g := tl.GainAt(100)
	for o := 0; o < p.Layout.NumChannels(); o++ {
		assert.Equal(t, 0.0, g.At(0, o))
	}
	assert.False(t, p.Warnings.Empty())
}

func TestRenderLFELabelWithoutFlagWarns(t *testing.T) {
	p := baseParams(t)
	bf := blockWithLabel("LFE1")
	_, err := Render(p, []admmodel.BlockFormat{bf}, 48000)
	require.NoError(t, err)
	assert.False(t, p.Warnings.Empty())
}

func TestRenderCartesianUsesAllocentricPanner(t *testing.T) {
	p := baseParams(t)
	bf := admmodel.BlockFormat{
		Type:     admmodel.PackDirectSpeakers,
		Duration: 1,
		DirectSpeaker: &admmodel.DirectSpeakersBlock{
			PositionCartesian: &geom.Cartesian{X: 0.5, Y: 0.87, Z: 0},
			Gain:              1,
		},
	}
	tl, err := Render(p, []admmodel.BlockFormat{bf}, 48000)
	require.NoError(t, err)
	g := tl.GainAt(100)
	var power float64
	for o := 0; o < p.Layout.NumChannels(); o++ {
		power += g.At(0, o) * g.At(0, o)
	}
	assert.Greater(t, power, 0.0)
}
