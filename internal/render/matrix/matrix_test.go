package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/trackspec"
)

func TestBuildTrackSpecSumsCoefficients(t *testing.T) {
	mb := admmodel.MatrixBlock{
		Coefficients: []admmodel.MatrixCoefficient{
			{InputChannelFormat: "AC_1", Gain: 0.5},
			{InputChannelFormat: "AC_2", Gain: 0.25, PhaseFlip: true},
		},
	}
	resolve := func(id string) (trackspec.TrackSpec, bool) {
		switch id {
		case "AC_1":
			return trackspec.Direct(0), true
		case "AC_2":
			return trackspec.Direct(1), true
		default:
			return trackspec.TrackSpec{}, false
		}
	}
	spec, err := BuildTrackSpec(mb, resolve)
	require.NoError(t, err)
	assert.Equal(t, trackspec.KindMix, spec.Kind)
	require.Len(t, spec.Inputs, 2)
	assert.Equal(t, 0.5, spec.Inputs[0].Coeff.Gain)
	assert.True(t, spec.Inputs[1].Coeff.PhaseFlip)
}

func TestBuildTrackSpecUnknownReferenceErrors(t *testing.T) {
	mb := admmodel.MatrixBlock{Coefficients: []admmodel.MatrixCoefficient{{InputChannelFormat: "AC_missing", Gain: 1}}}
	_, err := BuildTrackSpec(mb, func(string) (trackspec.TrackSpec, bool) { return trackspec.TrackSpec{}, false })
	assert.Error(t, err)
}

func TestBuildTrackSpecUsesFinalGainVaryingValue(t *testing.T) {
	mb := admmodel.MatrixBlock{
		Coefficients: []admmodel.MatrixCoefficient{
			{InputChannelFormat: "AC_1", GainVarying: []admmodel.TimedGain{{Time: 0, Gain: 0.1}, {Time: 1, Gain: 0.9}}},
		},
	}
	spec, err := BuildTrackSpec(mb, func(string) (trackspec.TrackSpec, bool) { return trackspec.Direct(0), true })
	require.NoError(t, err)
	assert.InDelta(t, 0.9, spec.Coeff.Gain, 1e-9)
}

func TestRenderDirectProducesPToOneGainColumn(t *testing.T) {
	blocks := []admmodel.BlockFormat{
		{
			Type:     admmodel.PackMatrix,
			Duration: 1,
			Matrix: &admmodel.MatrixBlock{
				Coefficients: []admmodel.MatrixCoefficient{{Gain: 1}, {Gain: 0.5}},
			},
		},
	}
	tl, err := RenderDirect(blocks, 48000)
	require.NoError(t, err)
	require.Equal(t, 2, tl.NIn)
	require.Equal(t, 1, tl.NOut)
	g := tl.GainAt(100)
	assert.Equal(t, 1.0, g.At(0, 0))
	assert.Equal(t, 0.5, g.At(1, 0))
}

func TestRenderDirectRejectsChangingCoefficientCount(t *testing.T) {
	blocks := []admmodel.BlockFormat{
		{Type: admmodel.PackMatrix, Duration: 1, Matrix: &admmodel.MatrixBlock{Coefficients: []admmodel.MatrixCoefficient{{Gain: 1}}}},
		{Type: admmodel.PackMatrix, RTime: 1, Duration: 1, Matrix: &admmodel.MatrixBlock{Coefficients: []admmodel.MatrixCoefficient{{Gain: 1}, {Gain: 1}}}},
	}
	_, err := RenderDirect(blocks, 48000)
	assert.Error(t, err)
}
