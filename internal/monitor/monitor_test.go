package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

func TestProcessAppliesLinearGain(t *testing.T) {
	m := New(-6.020599913279624, false) // -6.02 dB ~= half
	samples := []float64{1, 0.5, -1}
	require.NoError(t, m.Process(samples))
	assert.InDelta(t, 0.5, samples[0], 1e-3)
	assert.InDelta(t, 0.25, samples[1], 1e-3)
	assert.InDelta(t, -0.5, samples[2], 1e-3)
}

func TestProcessTracksPeak(t *testing.T) {
	m := New(0, false)
	_ = m.Process([]float64{0.1, -0.9, 0.3})
	assert.InDelta(t, 0.9, m.Peak(), 1e-9)
}

func TestProcessFailsOnOverloadWhenEnabled(t *testing.T) {
	m := New(0, true)
	err := m.Process([]float64{0.5, 1.5, 0.1})
	require.Error(t, err)
	assert.True(t, rendererrors.Is(err, rendererrors.OverloadError))
}

func TestProcessToleratesOverloadWhenDisabled(t *testing.T) {
	m := New(0, false)
	err := m.Process([]float64{1.5})
	assert.NoError(t, err)
	assert.InDelta(t, 1.5, m.Peak(), 1e-9)
}
