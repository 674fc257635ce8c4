// Package matrix implements the Matrix type renderer, spec §4.6: encode,
// decode and direct sub-types, all built from MatrixCoefficient chains.
//
// Encode/decode channel formats are virtual: each of their own
// audioBlockFormats is synthesised into its own trackspec.MatrixCoefficient/
// Mix chain (BuildTrackSpec), and internal/render switches between these
// per-block TrackSpecs over time with the same block.Timeline mechanism it
// uses for direct matrices. Direct matrices instead compose their
// coefficients straight into a per-block gain matrix over a shared physical
// input basis (RenderDirect), since a direct matrix has no virtual channel
// formats of its own to synthesise.
package matrix

import (
	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/block"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
	"github.com/ebu/ebu-adm-renderer/internal/trackspec"
)

// Resolver looks up the already-built TrackSpec for another channel
// format's input, by ID, so a coefficient chain can reference it.
type Resolver func(channelFormatID string) (trackspec.TrackSpec, bool)

// BuildTrackSpec synthesises the virtual input track for one block of an
// encode or decode channel format: the sum of each coefficient's referenced
// input, scaled by its gain/delay/phase-flip. The caller (selection's
// matrixItem) calls this once per audioBlockFormat, not just the channel
// format's first block, so that block-to-block coefficient changes are
// captured; within one block, a time-varying coefficient still collapses
// to its final tabulated gain (GainVarying's last entry) rather than
// interpolating intra-block, which remains a scope limit shared with
// RenderDirect below.
func BuildTrackSpec(mb admmodel.MatrixBlock, resolve Resolver) (trackspec.TrackSpec, error) {
	if len(mb.Coefficients) == 0 {
		return trackspec.Silent(), nil
	}
	inputs := make([]trackspec.TrackSpec, 0, len(mb.Coefficients))
	for _, c := range mb.Coefficients {
		in, ok := resolve(c.InputChannelFormat)
		if !ok {
			return trackspec.TrackSpec{}, rendererrors.New(rendererrors.AdmReferenceError,
				"matrix coefficient references unknown channel format %q", c.InputChannelFormat)
		}
		inputs = append(inputs, trackspec.MatrixCoefficient(in, trackspec.Coefficient{
			Gain:      finalGain(c),
			Delay:     c.Delay,
			PhaseFlip: c.PhaseFlip,
		}))
	}
	if len(inputs) == 1 {
		return inputs[0], nil
	}
	return trackspec.Mix(inputs...), nil
}

func finalGain(c admmodel.MatrixCoefficient) float64 {
	if len(c.GainVarying) == 0 {
		return c.Gain
	}
	return c.GainVarying[len(c.GainVarying)-1].Gain
}

// RenderDirect implements the direct sub-type, spec §4.6: each block
// composes its coefficients into one static column vector (P inputs, 1
// output), switched at each block boundary (a jump, no interpolation) by
// the usual block.Timeline mechanism. P is fixed across blocks (the coefficient count of the first
// block); a later block with a different count is an error.
func RenderDirect(blocks []admmodel.BlockFormat, sampleRate int) (block.Timeline, error) {
	var outputs []block.RendererOutput
	nIn := 0
	for _, bf := range blocks {
		if bf.Matrix == nil {
			continue
		}
		if nIn == 0 {
			nIn = len(bf.Matrix.Coefficients)
		}
		if len(bf.Matrix.Coefficients) != nIn {
			return block.Timeline{}, rendererrors.New(rendererrors.RenderError,
				"direct matrix block has %d coefficients, expected %d", len(bf.Matrix.Coefficients), nIn)
		}

		g := block.NewGainMatrix(nIn, 1)
		for i, c := range bf.Matrix.Coefficients {
			g.Set(i, 0, finalGain(c))
		}

		outputs = append(outputs, block.RendererOutput{
			StartSample:   secondsToSamples(bf.RTime, sampleRate),
			EndSample:     secondsToSamples(bf.End(), sampleRate),
			Gain:          g,
			InterpSamples: 0,
			Jump:          true,
		})
	}
	return block.BuildTimeline(outputs, nIn, 1), nil
}

func secondsToSamples(t float64, sampleRate int) int {
	return int(t*float64(sampleRate) + 0.5)
}
