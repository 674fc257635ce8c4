package block

// GainEvent is one scheduled gain transition for an item, spec §4.7:
// "(t_start, t_end, g_prev, g_this, t_interp, jump)". Samples are absolute
// indices from the start of the render.
type GainEvent struct {
	StartSample   int
	EndSample     int // exclusive
	GPrev, GThis  GainMatrix
	InterpSamples int
	Jump          bool
}

// GainAt computes g(s) for sample index s (absolute), per spec §4.7:
//
//	jump=false: g(s) = g_prev + (g_this-g_prev) * clip((s-start)/t_interp, 0, 1)
//	jump=true:  g(s) = g_prev for s < start+t_interp, else g_this
//
// A zero-duration block (StartSample == EndSample) and t_interp=0 with
// jump=false both resolve to an instantaneous step at StartSample, matching
// spec §4.7's edge cases.
func (e GainEvent) GainAt(s int) GainMatrix {
	if e.Jump || e.InterpSamples <= 0 {
		if s < e.StartSample+e.InterpSamples {
			return e.GPrev
		}
		return e.GThis
	}
	t := float64(s-e.StartSample) / float64(e.InterpSamples)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return Lerp(e.GPrev, e.GThis, t)
}

// Timeline is the ordered, non-overlapping, contiguous sequence of gain
// events for one item. Gaps before the first event (rtime > 0 for the
// first metadata block) render as silence, per spec §4.7.
type Timeline struct {
	Events    []GainEvent
	NIn, NOut int
}

// GainAt returns the gain matrix active at absolute sample s, or an all-
// zero matrix if s falls in a gap (including before the first event).
func (tl Timeline) GainAt(s int) GainMatrix {
	for _, e := range tl.Events {
		if s >= e.StartSample && s < e.EndSample {
			return e.GainAt(s)
		}
	}
	return NewGainMatrix(tl.NIn, tl.NOut)
}
