// Package objects implements the Objects type renderer, spec §4.3: turning
// a channel format's ordered audioBlockFormats into a block.Timeline of
// output gain matrices over a BS.2051 layout.
//
// The pipeline follows spec §4.3 steps 1-10 in order: position conversion,
// screen scaling, divergence, the point-source/extent panner, zone
// exclusion, channel lock, diffuse split, then the block's own gain and
// headLocked flag. Screen-edge lock (step 3) is not applied: ObjectsBlock
// carries no screen-edge setting, and geom.LockToScreenEdge has no caller
// here. Each step is a small pure function in
// internal/geom or internal/panner; this package is the fixed sequencing
// and per-block bookkeeping around them.
package objects

import (
	"github.com/golang/geo/s2"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/block"
	"github.com/ebu/ebu-adm-renderer/internal/geom"
	"github.com/ebu/ebu-adm-renderer/internal/layout"
	"github.com/ebu/ebu-adm-renderer/internal/panner"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

// Params bundles the render-wide inputs that are constant across every
// block of one object: the target layout, the active screens (reference and
// reproduction, spec §4.3 step 2), and the warning sink.
type Params struct {
	Layout   layout.Layout
	RefScreen, ReproScreen geom.Screen
	Warnings *rendererrors.Warnings
	ItemPath string // for diagnostic context on any error
}

// Render converts one channel format's block sequence into a timeline of
// output gain events, spec §4.7's renderer contract. sampleRate converts
// the block formats' rtime/duration/interpolationLength (seconds) to sample
// indices.
func Render(p Params, blocks []admmodel.BlockFormat, sampleRate int) (block.Timeline, error) {
	points := p.Layout.Points()
	nOut := p.Layout.NumChannels()

	var outputs []block.RendererOutput
	for _, bf := range blocks {
		if bf.Objects == nil {
			continue
		}
		gains, err := renderBlock(p, points, *bf.Objects)
		if err != nil {
			ctx := rendererrors.Context{ItemPath: p.ItemPath, Rtime: bf.RTime}
			return block.Timeline{}, ctx.Attach(err)
		}

		start := secondsToSamples(bf.RTime, sampleRate)
		end := secondsToSamples(bf.End(), sampleRate)
		interp := secondsToSamples(bf.Objects.InterpolationLength, sampleRate)
		outputs = append(outputs, block.RendererOutput{
			StartSample:   start,
			EndSample:     end,
			Gain:          block.GainVector(gains),
			InterpSamples: interp,
			Jump:          bf.Objects.JumpPosition,
		})
	}

	return block.BuildTimeline(outputs, 1, nOut), nil
}

func secondsToSamples(t float64, sampleRate int) int {
	return int(t*float64(sampleRate) + 0.5)
}

// renderBlock runs the full step 1-10 pipeline for a single block format,
// producing one N-output gain vector.
func renderBlock(p Params, points []s2.Point, ob admmodel.ObjectsBlock) ([]float64, error) {
	pos, err := resolvePosition(p, ob)
	if err != nil {
		return nil, err
	}

	div, divGains := divergencePositions(ob, pos)

	nOut := p.Layout.NumChannels()
	acc := make([]float64, nOut)
	for i, dp := range div {
		g := extentGains(points, dp, ob)
		g, err := applyZoneExclusion(p, g, ob.ZoneExclusions)
		if err != nil {
			return nil, err
		}
		g = applyChannelLock(p, points, dp, ob.ChannelLock, g)
		for c, v := range g {
			acc[c] += divGains[i] * v
		}
	}

	if ob.Diffuse > 0 {
		diffusePattern := panner.Extent(points, pos.Point(), panner.ExtentParams{Width: 360, Height: 180})
		direct, diffuse := panner.DiffuseSplit(acc, diffusePattern, ob.Diffuse)
		acc = panner.Combine(direct, diffuse)
	}

	for i := range acc {
		acc[i] *= ob.Gain
	}
	return acc, nil
}

// resolvePosition runs spec §4.3 steps 1-2: Cartesian/polar normalisation
// and screen scaling (screen-edge lock is not applied), in polar space since
// the point-source and extent panners work on unit-sphere directions.
func resolvePosition(p Params, ob admmodel.ObjectsBlock) (geom.Polar, error) {
	var pos geom.Polar
	switch {
	case ob.PositionCartesian != nil:
		pos = ob.PositionCartesian.ToPolar()
	case ob.PositionPolar != nil:
		pos = *ob.PositionPolar
	default:
		return geom.Polar{}, rendererrors.New(rendererrors.RenderError, "objects block has no position")
	}

	if ob.ScreenRef && !ob.HeadLocked {
		scaled, err := geom.ScaleToScreen(pos, p.RefScreen, p.ReproScreen)
		if err != nil {
			return geom.Polar{}, rendererrors.Wrap(rendererrors.RenderError, err, "screenRef position could not be scaled")
		}
		pos = scaled
	}
	return pos, nil
}

// divergencePositions expands pos into the divergence triangle (or a single
// position when divergence is absent), spec §4.3 step 4, returning the
// positions alongside their blend weights.
func divergencePositions(ob admmodel.ObjectsBlock, pos geom.Polar) ([]geom.Polar, []float64) {
	if ob.Divergence == nil || ob.Divergence.Value <= 0 {
		return []geom.Polar{pos}, []float64{1}
	}
	positions := panner.Divergence(pos, ob.Divergence.Value, ob.Divergence.AzimuthRange)
	weights := panner.DivergenceGains(ob.Divergence.Value)
	return positions, weights[:]
}

// extentGains runs spec §4.3 steps 5-6: point-source panning, widened by
// width/height/depth when the block specifies an extent.
func extentGains(points []s2.Point, pos geom.Polar, ob admmodel.ObjectsBlock) []float64 {
	dir := pos.Point()
	if ob.Width <= 0 && ob.Height <= 0 && ob.Depth <= 0 {
		return panner.PointSource(points, dir)
	}
	return panner.Extent(points, dir, panner.ExtentParams{Width: ob.Width, Height: ob.Height, Depth: ob.Depth})
}

// applyZoneExclusion runs spec §4.3 step 7, failing the block if the
// exclusion mask removes every non-LFE loudspeaker.
func applyZoneExclusion(p Params, g []float64, zones []admmodel.Zone) ([]float64, error) {
	if len(zones) == 0 {
		return g, nil
	}
	nominal := p.Layout.NominalPositions()
	mask := panner.ExclusionMask(nominal, zones)
	out, err := panner.ZoneExclusion(p.Layout, g, mask)
	if err != nil {
		return nil, rendererrors.Wrap(rendererrors.RenderError, err, "zoneExclusion")
	}
	return out, nil
}

// applyChannelLock runs spec §4.3 step 8, replacing g with a one-hot vector
// when a loudspeaker is within range.
func applyChannelLock(p Params, points []s2.Point, pos geom.Polar, cl *admmodel.ChannelLock, g []float64) []float64 {
	if cl == nil {
		return g
	}
	locked, ok := panner.ChannelLock(p.Layout, pos.Point(), cl.MaxDistance)
	if !ok {
		return g
	}
	return locked
}
