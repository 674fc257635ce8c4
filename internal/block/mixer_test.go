package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantGainTimeline(nIn, nOut int, g GainMatrix, n int) Timeline {
	return Timeline{
		NIn:  nIn,
		NOut: nOut,
		Events: []GainEvent{
			{StartSample: 0, EndSample: n, GPrev: g, GThis: g, InterpSamples: 0, Jump: true},
		},
	}
}

func TestMixerSingleItemPassthrough(t *testing.T) {
	g := GainVector([]float64{1, 0})
	tl := constantGainTimeline(1, 2, g, 4)
	item := ItemStream{
		Input:    [][]float64{{0.5, -0.5, 1.0, 0.0}},
		Timeline: tl,
	}

	m := NewMixer(2)
	out := m.MixChunk([]ItemStream{item}, 4)
	require.Len(t, out, 8)
	for s := 0; s < 4; s++ {
		assert.InDelta(t, item.Input[0][s], out[s*2], 1e-9)
		assert.Equal(t, 0.0, out[s*2+1])
	}
	assert.Equal(t, 4, m.Cursor())
}

func TestMixerSumsMultipleItems(t *testing.T) {
	gA := GainVector([]float64{1, 0})
	gB := GainVector([]float64{0, 1})
	itemA := ItemStream{Input: [][]float64{{1, 1}}, Timeline: constantGainTimeline(1, 2, gA, 2)}
	itemB := ItemStream{Input: [][]float64{{2, 2}}, Timeline: constantGainTimeline(1, 2, gB, 2)}

	m := NewMixer(2)
	out := m.MixChunk([]ItemStream{itemA, itemB}, 2)
	assert.InDelta(t, 1.0, out[0], 1e-9)
	assert.InDelta(t, 2.0, out[1], 1e-9)
	assert.InDelta(t, 1.0, out[2], 1e-9)
	assert.InDelta(t, 2.0, out[3], 1e-9)
}

func TestMixerAdvancesCursorAcrossChunks(t *testing.T) {
	g := GainVector([]float64{1})
	tl := constantGainTimeline(1, 1, g, 10)
	item := ItemStream{Input: [][]float64{{1, 2, 3, 4}}, Timeline: tl}

	m := NewMixer(1)
	_ = m.MixChunk([]ItemStream{item}, 2)
	assert.Equal(t, 2, m.Cursor())
	out := m.MixChunk([]ItemStream{{Input: [][]float64{{3, 4}}, Timeline: tl}}, 2)
	assert.InDelta(t, 3.0, out[0], 1e-9)
	assert.InDelta(t, 4.0, out[1], 1e-9)
}

func TestBuildTimelineChainsGPrev(t *testing.T) {
	g1 := GainVector([]float64{1, 0})
	g2 := GainVector([]float64{0, 1})
	tl := BuildTimeline([]RendererOutput{
		{StartSample: 0, EndSample: 10, Gain: g1, InterpSamples: 0, Jump: true},
		{StartSample: 10, EndSample: 20, Gain: g2, InterpSamples: 5, Jump: false},
	}, 1, 2)

	require.Len(t, tl.Events, 2)
	assert.Equal(t, g1, tl.Events[1].GPrev)
	at := tl.GainAt(12)
	assert.Greater(t, at.At(0, 1), 0.0)
	assert.Less(t, at.At(0, 1), 1.0)
}

func TestTimelineGapIsSilent(t *testing.T) {
	g := GainVector([]float64{1})
	tl := Timeline{NIn: 1, NOut: 1, Events: []GainEvent{
		{StartSample: 5, EndSample: 10, GPrev: g, GThis: g, Jump: true},
	}}
	at := tl.GainAt(2)
	assert.Equal(t, 0.0, at.At(0, 0))
}
