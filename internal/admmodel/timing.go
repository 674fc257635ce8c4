package admmodel

import (
	"sort"

	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

// ValidateBlockTiming enforces spec §3's blockFormat timing invariant:
// strictly non-decreasing rtime, and duration-fix (disabled by default).
// When fix is true, gaps/overlaps are closed by stretching block i's
// duration to the next block's rtime, forming a contiguous timeline,
// matching the --enable-block-duration-fix CLI flag (spec §6, scenario F).
func ValidateBlockTiming(blocks []BlockFormat, fix bool) ([]BlockFormat, error) {
	if len(blocks) == 0 {
		return blocks, nil
	}
	out := make([]BlockFormat, len(blocks))
	copy(out, blocks)

	for i := 1; i < len(out); i++ {
		if out[i].RTime < out[i-1].RTime {
			return nil, rendererrors.New(rendererrors.AdmTimingError,
				"block %d rtime %.6f precedes block %d rtime %.6f", i, out[i].RTime, i-1, out[i-1].RTime)
		}
	}

	for i := 0; i < len(out)-1; i++ {
		gap := out[i+1].RTime - out[i].End()
		if gap != 0 {
			if !fix {
				return nil, rendererrors.New(rendererrors.AdmTimingError,
					"block %d ends at %.6f but block %d starts at %.6f", i, out[i].End(), i+1, out[i+1].RTime)
			}
			out[i].Duration = out[i+1].RTime - out[i].RTime
		}
	}

	for i, b := range out {
		if b.Objects != nil && b.Objects.InterpolationLength > b.Duration {
			return nil, rendererrors.New(rendererrors.AdmTimingError,
				"block %d interpolationLength %.6f exceeds duration %.6f", i, b.Objects.InterpolationLength, b.Duration)
		}
	}

	return out, nil
}

// SortedByRTime returns blocks ordered by rtime, stable on ties. Readers
// should already emit blocks in document order (which is rtime order), but
// this gives downstream code one place to rely on the ordering invariant.
func SortedByRTime(blocks []BlockFormat) []BlockFormat {
	out := make([]BlockFormat, len(blocks))
	copy(out, blocks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RTime < out[j].RTime })
	return out
}
