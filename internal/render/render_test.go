package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/geom"
	"github.com/ebu/ebu-adm-renderer/internal/layout"
	"github.com/ebu/ebu-adm-renderer/internal/monitor"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
	"github.com/ebu/ebu-adm-renderer/internal/trackspec"
)

// constSource is a trackspec.SampleSource returning a fixed value on every
// physical track, for exercising the driver without a real BW64 file.
type constSource struct {
	value      float64
	sampleRate int
}

func (s constSource) Block(track, n int) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = s.value
	}
	return row
}

func (s constSource) SampleRate() int { return s.sampleRate }

func objectsGraph(az float64) *admmodel.Graph {
	g := &admmodel.Graph{
		Programmes:  map[string]admmodel.Programme{"APR_1": {ID: "APR_1", Contents: []string{"ACO_1"}}},
		Contents:    map[string]admmodel.Content{"ACO_1": {ID: "ACO_1", Objects: []string{"AO_1"}}},
		Objects: map[string]admmodel.Object{
			"AO_1": {ID: "AO_1", PackFormat: "AP_1", TrackUIDs: []string{"ATU_1"}},
		},
		PackFormats: map[string]admmodel.PackFormat{
			"AP_1": {ID: "AP_1", Type: admmodel.PackObjects, ChannelFormats: []string{"AC_1"}},
		},
		ChannelFormats: map[string]admmodel.ChannelFormat{
			"AC_1": {
				ID:   "AC_1",
				Type: admmodel.PackObjects,
				BlockFormats: []admmodel.BlockFormat{
					{
						ID: "AB_1", Type: admmodel.PackObjects, RTime: 0, Duration: 1,
						Objects: &admmodel.ObjectsBlock{
							PositionPolar: &geom.Polar{Azimuth: az, Elevation: 0, Distance: 1},
							Gain:          1,
							JumpPosition:  true,
						},
					},
				},
			},
		},
		TrackUIDs: map[string]admmodel.TrackUID{
			"ATU_1": {ID: "ATU_1", TrackIndex: 1, PackFormat: "AP_1", ChannelFormat: "AC_1"},
		},
	}
	return g
}

func TestPlanAndRunObjectsItemRoutesToNearestSpeaker(t *testing.T) {
	l, ok := layout.Named("0+5+0")
	require.True(t, ok)

	g := objectsGraph(0) // dead ahead: M+000
	warnings := rendererrors.NewWarnings()
	plans, err := Plan(g, l, 48000, Options{RefScreen: defaultScreen(), ReproScreen: defaultScreen()}, warnings)
	require.NoError(t, err)
	require.Len(t, plans, 1)

	source := constSource{value: 1, sampleRate: 48000}
	proc := &trackspec.Processor{Source: source}
	mon := monitor.New(0, false)

	var produced []float64
	err = Run(plans, proc, mon, l.NumChannels(), 10, 10, func(chunk []float64) error {
		produced = append(produced, chunk...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, produced, 10*l.NumChannels())

	// M+000 is channel index 2 in the 0+5+0 catalogue order.
	frame := produced[:l.NumChannels()]
	for i, v := range frame {
		if i == 2 {
			assert.InDelta(t, 1.0, v, 1e-6)
		} else {
			assert.InDelta(t, 0.0, v, 1e-6)
		}
	}
}

func TestRunAppliesOutputGainAndDetectsOverload(t *testing.T) {
	l, ok := layout.Named("0+2+0")
	require.True(t, ok)

	g := objectsGraph(30)
	warnings := rendererrors.NewWarnings()
	plans, err := Plan(g, l, 48000, Options{RefScreen: defaultScreen(), ReproScreen: defaultScreen()}, warnings)
	require.NoError(t, err)

	source := constSource{value: 1, sampleRate: 48000}
	proc := &trackspec.Processor{Source: source}
	mon := monitor.New(20, true) // +20dB guarantees overload on a unity-gain speaker feed

	err = Run(plans, proc, mon, l.NumChannels(), 4, 4, func(chunk []float64) error { return nil })
	require.Error(t, err)
	assert.True(t, rendererrors.Is(err, rendererrors.OverloadError))
}

func defaultScreen() geom.Screen {
	return geom.Screen{CentreAzimuth: 0, CentreElevation: 0, HalfWidth: 30, AspectRatio: 1}
}

func directMatrixGraph() *admmodel.Graph {
	g := admmodel.NewGraph()
	g.Programmes["APR_1"] = admmodel.Programme{ID: "APR_1", Contents: []string{"ACO_1"}}
	g.Contents["ACO_1"] = admmodel.Content{ID: "ACO_1", Objects: []string{"AO_MTX"}}
	g.Objects["AO_MTX"] = admmodel.Object{ID: "AO_MTX", PackFormat: "AP_MTX"}
	g.PackFormats["AP_MTX"] = admmodel.PackFormat{
		ID: "AP_MTX", Type: admmodel.PackMatrix, ChannelFormats: []string{"AC_OUT1", "AC_OUT2"},
	}
	coeffs := func(gains ...float64) *admmodel.MatrixBlock {
		cs := make([]admmodel.MatrixCoefficient, len(gains))
		for i, gg := range gains {
			cs[i] = admmodel.MatrixCoefficient{InputChannelFormat: "AC_SRC1", Gain: gg}
		}
		return &admmodel.MatrixBlock{Coefficients: cs}
	}
	g.ChannelFormats["AC_OUT1"] = admmodel.ChannelFormat{
		ID: "AC_OUT1", Type: admmodel.PackMatrix,
		BlockFormats: []admmodel.BlockFormat{{ID: "AB1", Type: admmodel.PackMatrix, Duration: 1, Matrix: coeffs(1)}},
	}
	g.ChannelFormats["AC_OUT2"] = admmodel.ChannelFormat{
		ID: "AC_OUT2", Type: admmodel.PackMatrix,
		BlockFormats: []admmodel.BlockFormat{{ID: "AB2", Type: admmodel.PackMatrix, Duration: 1, Matrix: coeffs(0.5)}},
	}
	g.TrackUIDs["ATU_SRC1"] = admmodel.TrackUID{ID: "ATU_SRC1", TrackIndex: 1, ChannelFormat: "AC_SRC1"}
	return g
}

func TestPlanAndRunDirectMatrixRoutesGainToEachOutput(t *testing.T) {
	l, ok := layout.Named("0+2+0")
	require.True(t, ok)

	g := directMatrixGraph()
	warnings := rendererrors.NewWarnings()
	plans, err := Plan(g, l, 48000, Options{RefScreen: defaultScreen(), ReproScreen: defaultScreen()}, warnings)
	require.NoError(t, err)
	require.Len(t, plans, 1)

	source := constSource{value: 1, sampleRate: 48000}
	proc := &trackspec.Processor{Source: source}
	mon := monitor.New(0, false)

	var produced []float64
	err = Run(plans, proc, mon, l.NumChannels(), 4, 4, func(chunk []float64) error {
		produced = append(produced, chunk...)
		return nil
	})
	require.NoError(t, err)

	frame := produced[:l.NumChannels()]
	assert.InDelta(t, 1.0, frame[0], 1e-6)
	assert.InDelta(t, 0.5, frame[1], 1e-6)
}
