package panner

import (
	"math"

	"github.com/ebu/ebu-adm-renderer/internal/layout"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

// ZoneExclusion zeroes the gains of loudspeakers marked in excluded (see
// ExclusionMask), then redistributes the removed power equally
// across the remaining non-excluded loudspeakers sharing that channel's
// nominal elevation layer (spec §4.3 step 7). It fails if every non-LFE
// loudspeaker ends up excluded.
func ZoneExclusion(l layout.Layout, gains []float64, excluded []bool) ([]float64, error) {
	out := append([]float64(nil), gains...)
	nonLFE := l.WithoutLFE()

	allExcluded := true
	for _, idx := range nonLFE {
		if !excluded[idx] {
			allExcluded = false
			break
		}
	}
	if allExcluded {
		return nil, rendererrors.New(rendererrors.RenderError, "zoneExclusion removed every non-LFE loudspeaker")
	}

	layers := groupByLayer(l)
	for _, members := range layers {
		var removedPower float64
		var survivors []int
		for _, idx := range members {
			if excluded[idx] {
				removedPower += out[idx] * out[idx]
				out[idx] = 0
			} else {
				survivors = append(survivors, idx)
			}
		}
		if removedPower == 0 {
			continue
		}
		if len(survivors) == 0 {
			// No survivor in this layer: spread across every other
			// non-excluded, non-LFE speaker in the layout instead.
			for _, idx := range nonLFE {
				if !excluded[idx] {
					survivors = append(survivors, idx)
				}
			}
		}
		if len(survivors) == 0 {
			continue
		}
		add := removedPower / float64(len(survivors))
		for _, idx := range survivors {
			out[idx] = math.Sqrt(out[idx]*out[idx] + add)
		}
	}
	return out, nil
}

// groupByLayer buckets channel indices by rounded nominal elevation,
// approximating BS.2051's ring/layer structure (bottom, mid, upper, top).
func groupByLayer(l layout.Layout) map[int][]int {
	layers := make(map[int][]int)
	for i, c := range l.Channels {
		if c.IsLFE {
			continue
		}
		bucket := int(math.Round(c.Nominal.Elevation/10)) * 10
		layers[bucket] = append(layers[bucket], i)
	}
	return layers
}
