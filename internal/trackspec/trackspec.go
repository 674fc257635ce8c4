// Package trackspec implements the TrackSpec tagged union and the track
// processor of spec §4.2: resolving a rendering item's input description
// (a physical track, silence, a matrix-coefficient chain, or a mix of
// other specs) into per-block sample buffers.
//
// Per design note §9, TrackSpec is a closed set of variants and is modelled
// as a tagged union with an exhaustive type switch in Processor.eval, not as an
// interface hierarchy with virtual dispatch.
package trackspec

import "fmt"

// Kind tags the TrackSpec variant.
type Kind int

const (
	KindDirect Kind = iota
	KindSilent
	KindMatrixCoefficient
	KindMix
)

// Coefficient describes a fixed, optionally delayed and phase-flipped matrix
// gain applied to an input TrackSpec, per spec §4.2/§4.6.
type Coefficient struct {
	Gain      float64
	Delay     float64 // seconds
	PhaseFlip bool
}

// TrackSpec is the tagged union over the four track-source variants.
// Exactly the fields relevant to Kind are populated.
type TrackSpec struct {
	Kind Kind

	// KindDirect
	Index int

	// KindMatrixCoefficient
	Input *TrackSpec
	Coeff Coefficient

	// KindMix
	Inputs []TrackSpec
}

// Direct builds a TrackSpec selecting one physical wave track (0-based).
func Direct(index int) TrackSpec { return TrackSpec{Kind: KindDirect, Index: index} }

// Silent builds a TrackSpec producing a track of zeros.
func Silent() TrackSpec { return TrackSpec{Kind: KindSilent} }

// MatrixCoefficient builds a TrackSpec applying coeff to input.
func MatrixCoefficient(input TrackSpec, coeff Coefficient) TrackSpec {
	return TrackSpec{Kind: KindMatrixCoefficient, Input: &input, Coeff: coeff}
}

// Mix builds a TrackSpec summing a list of TrackSpecs.
func Mix(inputs ...TrackSpec) TrackSpec {
	return TrackSpec{Kind: KindMix, Inputs: inputs}
}

// key returns a structural-equality key for caching repeated Mix
// sub-evaluations (spec §4.2: "caches intermediate Mix results when the
// same sub-spec repeats").
func (t TrackSpec) key() string {
	switch t.Kind {
	case KindDirect:
		return fmt.Sprintf("d:%d", t.Index)
	case KindSilent:
		return "s"
	case KindMatrixCoefficient:
		return fmt.Sprintf("mc:%s:%v", t.Input.key(), t.Coeff)
	case KindMix:
		keys := make([]string, len(t.Inputs))
		for i, in := range t.Inputs {
			keys[i] = in.key()
		}
		return fmt.Sprintf("mix:%v", keys)
	default:
		return "?"
	}
}
