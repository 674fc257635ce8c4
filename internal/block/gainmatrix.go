// Package block implements the block processor / interpolator & mixer of
// spec §4.7: scheduling gain transitions across sample boundaries and
// accumulating per-item gain-matrix-weighted samples into the output bus.
package block

import "fmt"

// GainMatrix is a dense (NIn x NOut) gain matrix, row-major by input, the
// shape every type renderer emits per spec §3 ("shape (n_inputs x
// n_outputs)").
type GainMatrix struct {
	NIn, NOut int
	Data      []float64
}

// NewGainMatrix allocates a zeroed NIn x NOut matrix.
func NewGainMatrix(nIn, nOut int) GainMatrix {
	return GainMatrix{NIn: nIn, NOut: nOut, Data: make([]float64, nIn*nOut)}
}

// GainVector builds a 1 x NOut matrix from a single gain vector, the shape
// the Objects and DirectSpeakers renderers produce (one input track).
func GainVector(g []float64) GainMatrix {
	return GainMatrix{NIn: 1, NOut: len(g), Data: append([]float64(nil), g...)}
}

func (m GainMatrix) At(in, out int) float64 {
	return m.Data[in*m.NOut+out]
}

func (m GainMatrix) Set(in, out int, v float64) {
	m.Data[in*m.NOut+out] = v
}

func (m GainMatrix) String() string {
	return fmt.Sprintf("GainMatrix(%dx%d)", m.NIn, m.NOut)
}

// Lerp linearly interpolates between a and b (same shape) by t in [0,1].
func Lerp(a, b GainMatrix, t float64) GainMatrix {
	out := NewGainMatrix(a.NIn, a.NOut)
	for i := range out.Data {
		out.Data[i] = a.Data[i] + (b.Data[i]-a.Data[i])*t
	}
	return out
}

// Apply multiplies a frame of NIn input samples by the matrix, producing
// NOut output samples: out[o] = sum_i in[i] * m[i][o].
func (m GainMatrix) Apply(in []float64, out []float64) {
	for o := 0; o < m.NOut; o++ {
		var acc float64
		for i := 0; i < m.NIn; i++ {
			acc += in[i] * m.At(i, o)
		}
		out[o] = acc
	}
}
