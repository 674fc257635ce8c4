package trackspec

// SampleSource supplies raw input-track samples, the out-of-scope BW64
// collaborator interface spec §6 describes as iter_sample_blocks.
type SampleSource interface {
	// Block returns n samples (or fewer, at end of stream) for the given
	// 0-based physical track index.
	Block(track, n int) []float64
	SampleRate() int
}

// Processor evaluates TrackSpecs against a SampleSource, producing one row
// of samples per spec (n_specs x n_samples), per spec §4.2. A fresh cache is used per
// Process call since Mix caching is only valid within one block's
// evaluation (TrackSpecs are pure functions of (source, block range)).
type Processor struct {
	Source SampleSource
}

// Process evaluates each of specs over n samples starting at the source's
// current read position, returning one []float64 of length n per spec, in
// the same order as specs.
func (p *Processor) Process(specs []TrackSpec, n int) [][]float64 {
	cache := make(map[string][]float64)
	out := make([][]float64, len(specs))
	for i, spec := range specs {
		out[i] = p.eval(spec, n, cache)
	}
	return out
}

func (p *Processor) eval(spec TrackSpec, n int, cache map[string][]float64) []float64 {
	key := spec.key()
	if cached, ok := cache[key]; ok {
		return cached
	}

	var result []float64
	switch spec.Kind {
	case KindDirect:
		result = p.Source.Block(spec.Index, n)
	case KindSilent:
		result = make([]float64, n)
	case KindMatrixCoefficient:
		in := p.eval(*spec.Input, n, cache)
		result = applyCoefficient(in, spec.Coeff, p.Source.SampleRate())
	case KindMix:
		result = make([]float64, n)
		for _, sub := range spec.Inputs {
			subSamples := p.eval(sub, n, cache)
			for i := range result {
				if i < len(subSamples) {
					result[i] += subSamples[i]
				}
			}
		}
	default:
		result = make([]float64, n)
	}

	cache[key] = result
	return result
}

func applyCoefficient(in []float64, c Coefficient, sampleRate int) []float64 {
	out := make([]float64, len(in))
	delaySamples := int(c.Delay * float64(sampleRate))
	sign := 1.0
	if c.PhaseFlip {
		sign = -1.0
	}
	for i := range out {
		src := i - delaySamples
		if src < 0 || src >= len(in) {
			continue
		}
		out[i] = sign * c.Gain * in[src]
	}
	return out
}
