package block

// RendererOutput is what a type renderer emits per metadata block, spec
// §4.3's "Output contract per block": a time interval, a gain matrix, an
// interpolation length starting at Start, and the jumpPosition flag.
type RendererOutput struct {
	StartSample, EndSample int
	Gain                   GainMatrix
	InterpSamples          int
	Jump                   bool
}

// BuildTimeline chains a renderer's per-block outputs into a Timeline,
// threading each event's g_prev from the previous event's g_this (spec
// §4.7: "the previous block's final g becomes the next block's g_prev;
// this chaining is per-item"). The initial g_prev is the zero matrix.
func BuildTimeline(outputs []RendererOutput, nIn, nOut int) Timeline {
	tl := Timeline{NIn: nIn, NOut: nOut}
	prev := NewGainMatrix(nIn, nOut)
	for _, o := range outputs {
		ev := GainEvent{
			StartSample:   o.StartSample,
			EndSample:     o.EndSample,
			GPrev:         prev,
			GThis:         o.Gain,
			InterpSamples: o.InterpSamples,
			Jump:          o.Jump,
		}
		tl.Events = append(tl.Events, ev)
		prev = o.Gain
	}
	return tl
}
