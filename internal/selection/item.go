// Package selection implements item selection (spec §4.1): flattening the
// ADM reference graph, for a chosen programme, into an ordered list of
// rendering items bound to TrackSpecs and lazy metadata sources.
package selection

import (
	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/trackspec"
)

// ItemKind tags the RenderingItem tagged union (spec §3's four type paths).
type ItemKind int

const (
	KindObjects ItemKind = iota
	KindDirectSpeakers
	KindHOA
	KindMatrix
)

// ExtraData is diagnostic metadata carried alongside a rendering item,
// spec §3.
type ExtraData struct {
	ObjectImportance int
	PackImportance   int
	ADMPath          string
}

// Item is a flattened rendering item: ownership node produced by selection,
// spec §3's tagged union {Objects, DirectSpeakers, HOA, Matrix}.
type Item struct {
	Kind          ItemKind
	TrackSpec     trackspec.TrackSpec
	ChannelFormat string // audioChannelFormat ID(s) this item renders from
	PackFormat    string
	Extra         ExtraData

	// For HOA items, all channel formats grouped under the pack (one per
	// ambisonic component), and their per-channel TrackSpecs, in pack order;
	// nil for the other kinds.
	HOAChannelFormats []string
	HOATrackSpecs     []trackspec.TrackSpec

	// For Matrix items, the pack's output-bearing channel formats in pack
	// order, and the sub-type they came from. For MatrixDirect,
	// MatrixTrackSpecs is the matrix's shared input basis (one TrackSpec per
	// coefficient column, resolved from the pack's own sibling channel
	// formats) and the renderer switches per-block coefficient gains across
	// it at block boundaries; for MatrixEncode/MatrixDecode, MatrixTrackSpecs holds one
	// gain-baked TrackSpec per (output channel format, block format) pair,
	// synthesised once at selection time from that block's own
	// coefficients, so that block-to-block coefficient changes survive into
	// rendering. MatrixBlockSpecIndex maps each MatrixEncode/MatrixDecode
	// output channel format ID to the ordered list of indices into
	// MatrixTrackSpecs, one per its own audioBlockFormat, that the renderer
	// switches between as a block.Timeline (nil/unused for MatrixDirect).
	MatrixSubType        admmodel.MatrixSubType
	MatrixChannelFormats []string
	MatrixTrackSpecs     []trackspec.TrackSpec
	MatrixBlockSpecIndex map[string][]int
}

func (k ItemKind) String() string {
	switch k {
	case KindObjects:
		return "Objects"
	case KindDirectSpeakers:
		return "DirectSpeakers"
	case KindHOA:
		return "HOA"
	case KindMatrix:
		return "Matrix"
	default:
		return "Unknown"
	}
}

func packTypeToKind(t admmodel.PackType) (ItemKind, bool) {
	switch t {
	case admmodel.PackObjects:
		return KindObjects, true
	case admmodel.PackDirectSpeakers:
		return KindDirectSpeakers, true
	case admmodel.PackHOA:
		return KindHOA, true
	case admmodel.PackMatrix:
		return KindMatrix, true
	default:
		return 0, false
	}
}
