package block

// ItemStream pairs one selected item's per-sample input feed (already
// evaluated by a trackspec.Processor, one row per TrackSpec input) with the
// Timeline of gain matrices a type renderer scheduled for it. NIn must equal
// len(Input); NOut must equal the render's total output channel count.
type ItemStream struct {
	Input    [][]float64 // NIn rows, each of length >= chunk length
	Timeline Timeline
}

// Mixer accumulates g(s)*x(s) across items into a shared output bus, spec
// §4.7's block aligner and mixer collapsed into a single pull-based stage:
// the top-level driver asks for one chunk of absolute output samples at a
// time and Mixer advances every item's read cursor in lockstep.
type Mixer struct {
	NOut   int
	cursor int // absolute sample index of the next sample to produce
}

// NewMixer creates a mixer for an output bus of nOut channels, starting at
// absolute sample 0.
func NewMixer(nOut int) *Mixer {
	return &Mixer{NOut: nOut}
}

// Cursor reports the absolute sample index of the next sample this mixer
// will produce.
func (m *Mixer) Cursor() int {
	return m.cursor
}

// MixChunk renders n absolute samples starting at the mixer's cursor,
// summing every item's gain-weighted contribution into a freshly allocated
// (n x NOut) row-major buffer, and advances the cursor by n.
//
// Each ItemStream's Input rows are indexed from 0 at the chunk's start, not
// from the absolute sample index: callers are expected to have already
// asked their SampleSource for exactly the samples covering [cursor,
// cursor+n) before calling MixChunk, matching the chunked pull model a
// BW64 reader would drive.
func (m *Mixer) MixChunk(items []ItemStream, n int) []float64 {
	out := make([]float64, n*m.NOut)
	frame := make([]float64, 0, 8)
	contrib := make([]float64, 0, 8)

	for _, item := range items {
		nIn := item.Timeline.NIn
		if cap(frame) < nIn {
			frame = make([]float64, nIn)
		}
		frame = frame[:nIn]
		if cap(contrib) < m.NOut {
			contrib = make([]float64, m.NOut)
		}
		contrib = contrib[:m.NOut]

		for s := 0; s < n; s++ {
			abs := m.cursor + s
			for i := 0; i < nIn; i++ {
				if i < len(item.Input) && s < len(item.Input[i]) {
					frame[i] = item.Input[i][s]
				} else {
					frame[i] = 0
				}
			}
			g := item.Timeline.GainAt(abs)
			g.Apply(frame, contrib)
			base := s * m.NOut
			for o := 0; o < m.NOut; o++ {
				out[base+o] += contrib[o]
			}
		}
	}

	m.cursor += n
	return out
}
