// Package admmodel is the read-side ADM object graph (spec §3): programmes,
// contents, objects, pack formats, channel formats and block formats, plus
// the trackUID bindings to physical wave tracks.
//
// Per design note §9, the graph is modelled as an arena of nodes keyed by
// stable string IDs with typed indices rather than as a reference-counted
// object graph — after XML resolution (out of scope; see internal/admxml)
// it is a DAG, so plain ID maps are enough and avoid any cycle-by-pointer
// bugs entirely.
package admmodel

import "github.com/ebu/ebu-adm-renderer/internal/geom"

// PackType is the ADM audioPackFormat.type enumeration.
type PackType int

const (
	PackDirectSpeakers PackType = iota + 1
	PackMatrix
	PackObjects
	PackHOA
	PackBinaural
)

func (t PackType) String() string {
	switch t {
	case PackDirectSpeakers:
		return "DirectSpeakers"
	case PackMatrix:
		return "Matrix"
	case PackObjects:
		return "Objects"
	case PackHOA:
		return "HOA"
	case PackBinaural:
		return "Binaural"
	default:
		return "Unknown"
	}
}

// HOANormalization is the ADM audioPackFormat HOA normalization scheme.
type HOANormalization int

const (
	NormSN3D HOANormalization = iota
	NormN3D
	NormFuMa
)

// Programme is the root selection node: audioProgramme.
type Programme struct {
	ID       string
	Name     string
	Contents []string // audioContent IDs
}

// Content is audioContent: a grouping of objects under one programme.
type Content struct {
	ID      string
	Name    string
	Objects []string // audioObject IDs
}

// Object is audioObject: may nest other objects, references a pack format
// and a set of trackUIDs, and may belong to a complementary-object group.
type Object struct {
	ID                string
	Name              string
	PackFormat        string // audioPackFormat ID, may be empty for a pure group node
	TrackUIDs         []string
	ChildObjects      []string
	ComplementaryIDs  []string // sibling IDs in the same complementary group
	Importance        int      // 0-10, default 10
	Disabled          bool
	Interact          bool
}

// PackFormat is audioPackFormat.
type PackFormat struct {
	ID              string
	Type            PackType
	ChannelFormats  []string // audioChannelFormat IDs
	NestedPacks     []string // audioPackFormat IDs (nested pack structures)
	Normalization   HOANormalization
	NFCRefDist      float64
	ScreenRef       bool
	Importance      int

	// EncodePackFormat/DecodePackFormat link a Matrix pack to its paired
	// encode or decode pack format (audioPackFormat's encodePackFormatIDRef/
	// decodePackFormatIDRef). A Matrix pack with neither set is a direct
	// matrix, spec §4.6's MatrixDirect sub-type.
	EncodePackFormat string
	DecodePackFormat string
}

// MatrixSubTypeOf reports which Matrix sub-type p is, valid only when
// p.Type == PackMatrix.
func (p PackFormat) MatrixSubTypeOf() MatrixSubType {
	switch {
	case p.EncodePackFormat != "":
		return MatrixEncode
	case p.DecodePackFormat != "":
		return MatrixDecode
	default:
		return MatrixDirect
	}
}

// ChannelFormat is audioChannelFormat: an ordered sequence of block formats.
type ChannelFormat struct {
	ID           string
	Name         string
	Type         PackType
	BlockFormats []BlockFormat
}

// BlockFormat is the tagged union over the four audioBlockFormat variants
// (spec §3). Exactly one of Objects/DirectSpeakers/HOA/Matrix is set,
// selected by Type.
type BlockFormat struct {
	ID       string
	Type     PackType
	RTime    float64 // seconds
	Duration float64 // seconds

	Objects       *ObjectsBlock
	DirectSpeaker *DirectSpeakersBlock
	HOA           *HOABlock
	Matrix        *MatrixBlock
}

// End returns rtime+duration.
func (b BlockFormat) End() float64 { return b.RTime + b.Duration }

// ObjectsBlock is audioBlockFormat for an Objects channel format.
type ObjectsBlock struct {
	PositionPolar     *geom.Polar
	PositionCartesian *geom.Cartesian
	Width, Height, Depth float64
	Diffuse              float64
	Divergence           *Divergence
	ChannelLock          *ChannelLock
	ZoneExclusions       []Zone
	JumpPosition         bool
	InterpolationLength  float64 // seconds
	ScreenRef            bool
	Importance           int
	Gain                 float64 // linear
	HeadLocked           bool
}

// Divergence is the ADM objectDivergence parameter set.
type Divergence struct {
	Value       float64 // 0..1
	AzimuthRange float64 // degrees, polar path
	PositionRange float64 // Cartesian path, along X
}

// ChannelLock is the ADM channelLock parameter set.
type ChannelLock struct {
	MaxDistance float64
}

// Zone is a zoneExclusion region, either a polar sector or a Cartesian box.
type Zone struct {
	IsCartesian bool
	MinAz, MaxAz, MinEl, MaxEl float64
	MinX, MaxX, MinY, MaxY, MinZ, MaxZ float64
}

// DirectSpeakersBlock is audioBlockFormat for a DirectSpeakers channel
// format.
type DirectSpeakersBlock struct {
	SpeakerLabels     []string
	PositionPolar     *geom.Polar
	PositionCartesian *geom.Cartesian
	AzRange, ElRange  [2]float64
	IsLFE             bool
	Gain              float64 // linear
}

// HOABlock is audioBlockFormat for an HOA channel format (one per ambisonic
// component channel).
type HOABlock struct {
	Order         int
	Degree        int
	Normalization HOANormalization
	NFCRefDist    float64
	ScreenRef     bool
}

// MatrixBlock is audioBlockFormat for a Matrix channel format: a list of
// coefficients, each referencing another channel format.
type MatrixBlock struct {
	Coefficients []MatrixCoefficient
}

// MatrixCoefficient is one entry of a MatrixBlock: gain applied from the
// referenced input channel format, with optional delay/phase-flip/frequency
// banding.
type MatrixCoefficient struct {
	InputChannelFormat string
	Gain               float64
	GainVarying        []TimedGain // empty when the coefficient is static
	Delay              float64     // seconds
	PhaseFlip          bool
}

// TimedGain is one (time, gain) sample of a time-varying matrix coefficient.
type TimedGain struct {
	Time float64
	Gain float64
}

// MatrixSubType distinguishes Matrix channel formats' role.
type MatrixSubType int

const (
	MatrixEncode MatrixSubType = iota
	MatrixDecode
	MatrixDirect
)

// TrackUID is audioTrackUID: binds a 1-based CHNA track index to a pack
// format and channel format, or marks the track silent.
type TrackUID struct {
	ID            string // e.g. "ATU_00000001", or "ATU_00000000" for silent
	TrackIndex    int    // 1-based; 0 when silent
	Silent        bool
	PackFormat    string
	ChannelFormat string
}

// SilentTrackUID is the reserved ID for a deliberately silent track.
const SilentTrackUID = "ATU_00000000"
