// Package monitor implements the output-gain and overload stage of spec
// §2 step 7: applying a global linear gain to the mixer's output bus and
// optionally aborting the render the first time any sample exceeds full
// scale.
package monitor

import (
	"math"

	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

// Monitor applies OutputGain to every sample of a chunk and, when
// FailOnOverload is set, reports the first |sample| > 1 as an
// OverloadError (spec §7's OverloadError, spec §6's --fail-on-overload).
type Monitor struct {
	OutputGain     float64 // linear
	FailOnOverload bool

	peak float64
}

// New builds a Monitor applying outputGainDB (converted to linear) to every
// sample, failing on the first overload when failOnOverload is set.
func New(outputGainDB float64, failOnOverload bool) *Monitor {
	return &Monitor{
		OutputGain:     math.Pow(10, outputGainDB/20),
		FailOnOverload: failOnOverload,
	}
}

// Process scales a row-major (n x nChannels) interleaved chunk in place and
// tracks the running peak absolute sample value. It returns an
// OverloadError as soon as FailOnOverload is set and a sample exceeds unity
// magnitude, leaving every sample up to and including the offending one
// scaled.
func (m *Monitor) Process(samples []float64) error {
	for i, s := range samples {
		v := s * m.OutputGain
		samples[i] = v
		abs := math.Abs(v)
		if abs > m.peak {
			m.peak = abs
		}
		if m.FailOnOverload && abs > 1 {
			return rendererrors.New(rendererrors.OverloadError, "output sample %d exceeds full scale (%.6f)", i, v)
		}
	}
	return nil
}

// Peak reports the largest absolute sample value seen so far, across every
// Process call, post output-gain.
func (m *Monitor) Peak() float64 {
	return m.peak
}
