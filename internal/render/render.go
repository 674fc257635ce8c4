// Package render is the top-level driver of spec §2's data flow: it runs
// item selection, builds each rendering item's Timeline through the right
// type renderer, pulls sample chunks from a trackspec.SampleSource, mixes
// them through internal/block, and applies internal/monitor's output gain
// and overload check.
package render

import (
	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/block"
	"github.com/ebu/ebu-adm-renderer/internal/geom"
	"github.com/ebu/ebu-adm-renderer/internal/layout"
	"github.com/ebu/ebu-adm-renderer/internal/monitor"
	"github.com/ebu/ebu-adm-renderer/internal/render/directspeakers"
	"github.com/ebu/ebu-adm-renderer/internal/render/hoa"
	"github.com/ebu/ebu-adm-renderer/internal/render/matrix"
	"github.com/ebu/ebu-adm-renderer/internal/render/objects"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
	"github.com/ebu/ebu-adm-renderer/internal/selection"
	"github.com/ebu/ebu-adm-renderer/internal/trackspec"
)

// Options configures one render pass: the selection options, screens, and
// monitor behaviour (spec §6's render subcommand flags).
type Options struct {
	Selection      selection.Options
	RefScreen      geom.Screen
	ReproScreen    geom.Screen
	OutputGainDB   float64
	FailOnOverload bool
}

// itemPlan is one selected item's precomputed timeline plus the TrackSpecs
// whose evaluated samples it gain-weights, built once before the sample
// loop starts (the graph, layout and metadata are immutable during
// rendering, spec §3 "Lifecycle").
type itemPlan struct {
	timeline  block.Timeline
	specs     []trackspec.TrackSpec
	nfcFilter *hoa.Decoder // non-nil only for HOA items, for per-chunk NFC filtering
	sampleRt  int
}

// ValidateTiming enforces spec §8 scenario F: every channel format's block
// sequence must be contiguous (each block's rtime equal to the previous
// block's end), returning an AdmTimingError naming the first gap found.
// Callers that pass --enable-block-duration-fix close gaps before calling
// Plan instead of calling this.
func ValidateTiming(g *admmodel.Graph) error {
	for id, cf := range g.ChannelFormats {
		for i := 0; i+1 < len(cf.BlockFormats); i++ {
			gap := cf.BlockFormats[i+1].RTime - cf.BlockFormats[i].End()
			if gap > 1e-9 {
				return rendererrors.New(rendererrors.AdmTimingError,
					"audioChannelFormat %q: gap of %.6fs between block %q (ends %.6fs) and block %q (starts %.6fs)",
					id, gap, cf.BlockFormats[i].ID, cf.BlockFormats[i].End(), cf.BlockFormats[i+1].ID, cf.BlockFormats[i+1].RTime)
			}
		}
	}
	return nil
}

// FixBlockGaps extends each block's duration to meet the next block's rtime,
// closing any timing gap in place (spec §6's --enable-block-duration-fix).
func FixBlockGaps(g *admmodel.Graph) {
	for id, cf := range g.ChannelFormats {
		blocks := cf.BlockFormats
		for i := 0; i+1 < len(blocks); i++ {
			gap := blocks[i+1].RTime - blocks[i].End()
			if gap > 0 {
				blocks[i].Duration += gap
			}
		}
		cf.BlockFormats = blocks
		g.ChannelFormats[id] = cf
	}
}

// Plan builds every selected item's Timeline up front: spec §4.1-4.6's
// output, ready to be pulled chunk by chunk by Run.
func Plan(g *admmodel.Graph, l layout.Layout, sampleRate int, opts Options, warnings *rendererrors.Warnings) ([]itemPlan, error) {
	items, err := selection.Select(g, opts.Selection)
	if err != nil {
		return nil, err
	}

	var plans []itemPlan
	for _, item := range items {
		p, err := planItem(g, l, sampleRate, opts, warnings, item)
		if err != nil {
			return nil, err
		}
		if p != nil {
			plans = append(plans, *p)
		}
	}
	return plans, nil
}

func planItem(g *admmodel.Graph, l layout.Layout, sampleRate int, opts Options, warnings *rendererrors.Warnings, item selection.Item) (*itemPlan, error) {
	switch item.Kind {
	case selection.KindObjects:
		return planObjects(g, l, sampleRate, opts, warnings, item)
	case selection.KindDirectSpeakers:
		return planDirectSpeakers(g, l, sampleRate, warnings, item)
	case selection.KindHOA:
		return planHOA(g, l, sampleRate, item)
	case selection.KindMatrix:
		return planMatrix(g, l, sampleRate, item)
	default:
		return nil, rendererrors.New(rendererrors.RenderError, "unsupported rendering item kind %v", item.Kind)
	}
}

func blocksFor(g *admmodel.Graph, channelFormatID string) ([]admmodel.BlockFormat, error) {
	cf, err := g.ChannelFormatByID(channelFormatID)
	if err != nil {
		return nil, err
	}
	return cf.BlockFormats, nil
}

func planObjects(g *admmodel.Graph, l layout.Layout, sampleRate int, opts Options, warnings *rendererrors.Warnings, item selection.Item) (*itemPlan, error) {
	blocks, err := blocksFor(g, item.ChannelFormat)
	if err != nil {
		return nil, err
	}
	tl, err := objects.Render(objects.Params{
		Layout: l, RefScreen: opts.RefScreen, ReproScreen: opts.ReproScreen,
		Warnings: warnings, ItemPath: item.Extra.ADMPath,
	}, blocks, sampleRate)
	if err != nil {
		return nil, err
	}
	return &itemPlan{timeline: tl, specs: []trackspec.TrackSpec{item.TrackSpec}, sampleRt: sampleRate}, nil
}

func planDirectSpeakers(g *admmodel.Graph, l layout.Layout, sampleRate int, warnings *rendererrors.Warnings, item selection.Item) (*itemPlan, error) {
	blocks, err := blocksFor(g, item.ChannelFormat)
	if err != nil {
		return nil, err
	}
	tl, err := directspeakers.Render(directspeakers.Params{Layout: l, Warnings: warnings, ItemPath: item.Extra.ADMPath}, blocks, sampleRate)
	if err != nil {
		return nil, err
	}
	return &itemPlan{timeline: tl, specs: []trackspec.TrackSpec{item.TrackSpec}, sampleRt: sampleRate}, nil
}

func planHOA(g *admmodel.Graph, l layout.Layout, sampleRate int, item selection.Item) (*itemPlan, error) {
	components := make([]hoa.Component, len(item.HOAChannelFormats))
	for i, cfID := range item.HOAChannelFormats {
		cf, err := g.ChannelFormatByID(cfID)
		if err != nil {
			return nil, err
		}
		if len(cf.BlockFormats) == 0 || cf.BlockFormats[0].HOA == nil {
			return nil, rendererrors.New(rendererrors.AdmReferenceError, "HOA channel format %q has no block format", cfID)
		}
		hb := cf.BlockFormats[0].HOA
		components[i] = hoa.Component{Order: hb.Order, Degree: hb.Degree, Normalization: hb.Normalization, NFCRefDist: hb.NFCRefDist}
	}

	dec, err := hoa.BuildDecoder(components, l)
	if err != nil {
		return nil, err
	}

	// The decoder is constant for the item's lifetime, spec §4.5: emit one
	// event spanning the whole file. The caller (Run) clips chunk ranges
	// against the real stream length, so an arbitrarily large EndSample is
	// fine here.
	const effectivelyForever = 1 << 31
	tl := block.Timeline{
		NIn: len(components), NOut: l.NumChannels(),
		Events: []block.GainEvent{{StartSample: 0, EndSample: effectivelyForever, GPrev: dec.Gain, GThis: dec.Gain, Jump: true}},
	}
	return &itemPlan{timeline: tl, specs: item.HOATrackSpecs, nfcFilter: dec, sampleRt: sampleRate}, nil
}

// planMatrix handles all three Matrix sub-types (spec §4.6). A direct
// matrix's channel formats each become one output column over the item's
// shared input basis, rendered per block via matrix.RenderDirect and
// merged into the output bus; an encode or decode matrix's channel formats
// were already resolved into one gain-baked virtual TrackSpec per block
// at selection time (selection.matrixItem), so this instead builds a
// one-hot routing column per block that switches between them, merged the
// same way. Either way, a channel format's output channel is identified by
// its ordinal position within the owning pack format's channel list, which
// this driver assumes matches the target layout's channel order.
func planMatrix(g *admmodel.Graph, l layout.Layout, sampleRate int, item selection.Item) (*itemPlan, error) {
	if item.MatrixSubType == admmodel.MatrixDirect {
		return planDirectMatrix(g, l, sampleRate, item)
	}
	return planEncodeDecodeMatrix(g, l, sampleRate, item)
}

func planDirectMatrix(g *admmodel.Graph, l layout.Layout, sampleRate int, item selection.Item) (*itemPlan, error) {
	nOut := l.NumChannels()
	tls := make([]block.Timeline, 0, len(item.MatrixChannelFormats))
	outIdxs := make([]int, 0, len(item.MatrixChannelFormats))
	for _, cfID := range item.MatrixChannelFormats {
		outIdx, err := channelOrdinal(g, item.PackFormat, cfID)
		if err != nil {
			return nil, err
		}
		if outIdx >= nOut {
			return nil, rendererrors.New(rendererrors.RenderError,
				"direct matrix channel format %q maps to output %d, beyond the %d-channel layout", cfID, outIdx, nOut)
		}
		blocks, err := blocksFor(g, cfID)
		if err != nil {
			return nil, err
		}
		tl, err := matrix.RenderDirect(blocks, sampleRate)
		if err != nil {
			return nil, err
		}
		tls = append(tls, tl)
		outIdxs = append(outIdxs, outIdx)
	}
	tl, err := mergeDirectColumns(tls, outIdxs, nOut)
	if err != nil {
		return nil, err
	}
	return &itemPlan{timeline: tl, specs: item.MatrixTrackSpecs, sampleRt: sampleRate}, nil
}

// mergeDirectColumns combines one (NIn x 1) timeline per direct-matrix
// output channel format into a single (NIn x nOut) timeline, placing each
// at its target output index. All inputs must share identical event
// boundaries, true whenever a direct matrix pack's channel formats were
// authored with synchronised block timing, the common case.
func mergeDirectColumns(tls []block.Timeline, outIdxs []int, nOut int) (block.Timeline, error) {
	if len(tls) == 0 {
		return block.Timeline{NOut: nOut}, nil
	}
	nIn := tls[0].NIn
	nEvents := len(tls[0].Events)
	for _, tl := range tls {
		if tl.NIn != nIn || len(tl.Events) != nEvents {
			return block.Timeline{}, rendererrors.New(rendererrors.RenderError,
				"direct matrix pack: channel formats have inconsistent block timing")
		}
	}

	events := make([]block.GainEvent, nEvents)
	for k := 0; k < nEvents; k++ {
		gPrev := block.NewGainMatrix(nIn, nOut)
		gThis := block.NewGainMatrix(nIn, nOut)
		for ti, tl := range tls {
			ev := tl.Events[k]
			for i := 0; i < nIn; i++ {
				gPrev.Set(i, outIdxs[ti], ev.GPrev.At(i, 0))
				gThis.Set(i, outIdxs[ti], ev.GThis.At(i, 0))
			}
		}
		first := tls[0].Events[k]
		events[k] = block.GainEvent{
			StartSample: first.StartSample, EndSample: first.EndSample,
			GPrev: gPrev, GThis: gThis, InterpSamples: first.InterpSamples, Jump: first.Jump,
		}
	}
	return block.Timeline{NIn: nIn, NOut: nOut, Events: events}, nil
}

// planEncodeDecodeMatrix routes each output channel format to a sequence of
// already gain-baked virtual TrackSpecs, one per the channel format's own
// audioBlockFormat (selection.matrixItem's per-block calls to
// matrix.BuildTrackSpec), switching between them over a real per-block
// Timeline exactly as planDirectMatrix does for the direct sub-type: each
// block is a one-hot routing column selecting that block's resolved
// TrackSpec, so block-to-block coefficient changes are rendered instead of
// only the channel format's first block ever being used. Intra-block
// gainVar ramps still collapse to each coefficient's final tabulated gain
// (matrix.BuildTrackSpec's finalGain), matching the direct sub-type's own
// scope limit.
func planEncodeDecodeMatrix(g *admmodel.Graph, l layout.Layout, sampleRate int, item selection.Item) (*itemPlan, error) {
	nOut := l.NumChannels()
	nIn := len(item.MatrixTrackSpecs)

	tls := make([]block.Timeline, 0, len(item.MatrixChannelFormats))
	outIdxs := make([]int, 0, len(item.MatrixChannelFormats))
	for _, cfID := range item.MatrixChannelFormats {
		outIdx, err := channelOrdinal(g, item.PackFormat, cfID)
		if err != nil {
			return nil, err
		}
		if outIdx >= nOut {
			return nil, rendererrors.New(rendererrors.RenderError,
				"matrix channel format %q maps to output %d, beyond the %d-channel layout", cfID, outIdx, nOut)
		}

		blocks, err := blocksFor(g, cfID)
		if err != nil {
			return nil, err
		}
		specIdxs := item.MatrixBlockSpecIndex[cfID]
		if len(specIdxs) != len(blocks) {
			return nil, rendererrors.New(rendererrors.RenderError,
				"matrix channel format %q has %d blocks but %d resolved track specs", cfID, len(blocks), len(specIdxs))
		}

		var outputs []block.RendererOutput
		for i, bf := range blocks {
			gThis := block.NewGainMatrix(nIn, 1)
			gThis.Set(specIdxs[i], 0, 1)
			outputs = append(outputs, block.RendererOutput{
				StartSample:   secondsToSamplesMatrix(bf.RTime, sampleRate),
				EndSample:     secondsToSamplesMatrix(bf.End(), sampleRate),
				Gain:          gThis,
				InterpSamples: 0,
				Jump:          true,
			})
		}
		tls = append(tls, block.BuildTimeline(outputs, nIn, 1))
		outIdxs = append(outIdxs, outIdx)
	}

	tl, err := mergeDirectColumns(tls, outIdxs, nOut)
	if err != nil {
		return nil, err
	}
	return &itemPlan{timeline: tl, specs: item.MatrixTrackSpecs, sampleRt: sampleRate}, nil
}

func secondsToSamplesMatrix(t float64, sampleRate int) int {
	return int(t*float64(sampleRate) + 0.5)
}

// channelOrdinal returns channelFormatID's position within packID's channel
// list, the output channel index a matrix channel format's column targets.
func channelOrdinal(g *admmodel.Graph, packID, channelFormatID string) (int, error) {
	pack, err := g.PackFormatByID(packID)
	if err != nil {
		return 0, err
	}
	for i, id := range pack.ChannelFormats {
		if id == channelFormatID {
			return i, nil
		}
	}
	return 0, rendererrors.New(rendererrors.AdmReferenceError, "channel format %q not found in pack %q", channelFormatID, packID)
}

// Run drives the full pull-based chunked render (spec §5): repeatedly
// asking source for the next chunkSize samples of every item's inputs,
// mixing them, applying the monitor, and handing the resulting frames to
// sink until totalSamples have been produced.
func Run(plans []itemPlan, proc *trackspec.Processor, mon *monitor.Monitor, nOut int, totalSamples, chunkSize int, sink func([]float64) error) error {
	mixer := block.NewMixer(nOut)
	for produced := 0; produced < totalSamples; produced += chunkSize {
		n := chunkSize
		if produced+n > totalSamples {
			n = totalSamples - produced
		}

		items := make([]block.ItemStream, 0, len(plans))
		for _, p := range plans {
			if len(p.specs) == 0 {
				continue
			}
			rows := proc.Process(p.specs, n)
			if p.nfcFilter != nil {
				rows = p.nfcFilter.FilterInputs(rows, p.sampleRt)
			}
			items = append(items, block.ItemStream{Input: rows, Timeline: p.timeline})
		}

		chunk := mixer.MixChunk(items, n)
		if err := mon.Process(chunk); err != nil {
			return err
		}
		if err := sink(chunk); err != nil {
			return err
		}
	}
	return nil
}
