package hoa

// Filter applies per-order near-field compensation to one ambisonic
// component channel, spec §4.5: "nfcRefDist > 0 applies per-order
// near-field compensation filters". BS.2127's reference design tabulates
// exact IIR section coefficients per order derived from the appendix; those
// coefficients require the published reference tables this renderer cannot
// fetch offline (DESIGN.md records the deviation). This implementation
// instead uses a single one-pole low-pass section per component, with
// cutoff order*c/(2*pi*refDist) (c = 343 m/s): higher order and closer
// refDist both raise the cutoff. The section has unity gain at DC and does
// not boost low frequencies.
type Filter struct {
	Order   int
	RefDist float64

	// state
	prevOut float64
}

// NewFilter builds an NFC filter for the given ambisonic order and
// reference distance (metres). RefDist <= 0 disables compensation (Process
// becomes an identity copy), matching an absent nfcRefDist.
func NewFilter(order int, refDist float64) *Filter {
	return &Filter{Order: order, RefDist: refDist}
}

// Process filters in in place conceptually, returning a new slice of the
// same length; state carries across calls so successive blocks of the same
// item filter continuously.
func (f *Filter) Process(in []float64, sampleRate int) []float64 {
	out := make([]float64, len(in))
	if f.RefDist <= 0 || f.Order <= 0 || sampleRate <= 0 {
		copy(out, in)
		return out
	}

	const speedOfSound = 343.0
	cutoffHz := float64(f.Order) * speedOfSound / (2 * 3.141592653589793 * f.RefDist)
	dt := 1.0 / float64(sampleRate)
	rc := 1.0 / (2 * 3.141592653589793 * cutoffHz)
	alpha := dt / (rc + dt)

	for i, x := range in {
		y := f.prevOut + alpha*(x-f.prevOut)
		out[i] = y
		f.prevOut = y
	}
	return out
}
