// Package admxml is the out-of-scope ADM XML parsing collaborator (spec
// §1: "ADM XML parsing and writing... only their interfaces appear"). It
// decodes the subset of the ADM schema spec §3 names into an
// admmodel.Graph using encoding/xml struct tags, the same declarative
// approach the rest of this codebase's ecosystem favours over a hand-rolled
// token scanner.
package admxml

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/geom"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

type document struct {
	XMLName xml.Name    `xml:"ebuCoreMain"`
	Format  coreFormat  `xml:"coreMetadata>format"`
}

type coreFormat struct {
	Programmes     []xProgramme     `xml:"audioFormatExtended>audioProgramme"`
	Contents       []xContent       `xml:"audioFormatExtended>audioContent"`
	Objects        []xObject        `xml:"audioFormatExtended>audioObject"`
	PackFormats    []xPackFormat    `xml:"audioFormatExtended>audioPackFormat"`
	ChannelFormats []xChannelFormat `xml:"audioFormatExtended>audioChannelFormat"`
	TrackUIDs      []xTrackUID      `xml:"audioFormatExtended>audioTrackUID"`
}

type idRef struct {
	Ref string `xml:",chardata"`
}

type xProgramme struct {
	ID       string  `xml:"audioProgrammeID,attr"`
	Name     string  `xml:"audioProgrammeName,attr"`
	Contents []idRef `xml:"audioContentIDRef"`
}

type xContent struct {
	ID      string  `xml:"audioContentID,attr"`
	Name    string  `xml:"audioContentName,attr"`
	Objects []idRef `xml:"audioObjectIDRef"`
}

type xObject struct {
	ID            string  `xml:"audioObjectID,attr"`
	Name          string  `xml:"audioObjectName,attr"`
	Importance    *int    `xml:"importance"`
	Disabled      bool    `xml:"disabled"`
	Interact      bool    `xml:"interact"`
	PackFormatRef idRef   `xml:"audioPackFormatIDRef"`
	TrackUIDRefs  []idRef `xml:"audioTrackUIDRef"`
	ChildRefs     []idRef `xml:"audioObjectIDRef"`
	Complementary []idRef `xml:"audioComplementaryObjectIDRef"`
}

type xPackFormat struct {
	ID               string  `xml:"audioPackFormatID,attr"`
	TypeLabel        string  `xml:"typeLabel"`
	ChannelFormats   []idRef `xml:"audioChannelFormatIDRef"`
	NestedPacks      []idRef `xml:"audioPackFormatIDRef"`
	Normalization    string  `xml:"normalization"`
	NFCRefDist       float64 `xml:"nfcRefDist"`
	ScreenRef        bool    `xml:"screenRef"`
	Importance       *int    `xml:"importance"`
	EncodePackFormat idRef   `xml:"encodePackFormatIDRef"`
	DecodePackFormat idRef   `xml:"decodePackFormatIDRef"`
}

type xChannelFormat struct {
	ID           string         `xml:"audioChannelFormatID,attr"`
	Name         string         `xml:"audioChannelFormatName,attr"`
	TypeLabel    string         `xml:"typeLabel"`
	BlockFormats []xBlockFormat `xml:"audioBlockFormat"`
}

type xBlockFormat struct {
	ID       string  `xml:"audioBlockFormatID,attr"`
	RTime    string  `xml:"rtime"`
	Duration string  `xml:"duration"`

	// Objects
	Position        []xPosition `xml:"position"`
	Width           float64     `xml:"width"`
	Height          float64     `xml:"height"`
	Depth           float64     `xml:"depth"`
	Diffuse         float64     `xml:"diffuse"`
	Gain            *float64    `xml:"gain"`
	JumpPosition    *xJump      `xml:"jumpPosition"`
	InterpLength    float64     `xml:"interpolationLength"`
	ScreenRef       bool        `xml:"screenRef"`
	Importance      *int        `xml:"importance"`
	HeadLocked      bool        `xml:"headLocked"`
	ChannelLock     *xChannelLock `xml:"channelLock"`
	ObjectDivergence *xDivergence `xml:"objectDivergence"`
	ZoneExclusion   *xZoneExclusion `xml:"zoneExclusion"`

	// DirectSpeakers
	SpeakerLabel []string `xml:"speakerLabel"`
	Frequency    *xFrequency `xml:"frequency"`

	// HOA
	Order         *int   `xml:"order"`
	Degree        *int   `xml:"degree"`
	Normalization string `xml:"normalization"`
	NFCRefDist    float64 `xml:"nfcRefDist"`

	// Matrix
	Coefficients []xCoefficient `xml:"matrix>coefficient"`
}

type xJump struct {
	Value          bool    `xml:",chardata"`
	InterpLength   float64 `xml:"interpolationLength,attr"`
}

type xPosition struct {
	Coordinate string  `xml:"coordinate,attr"`
	Value      float64 `xml:",chardata"`
}

type xChannelLock struct {
	MaxDistance float64 `xml:"maxDistance,attr"`
}

type xDivergence struct {
	Value        float64 `xml:",chardata"`
	AzimuthRange float64 `xml:"azimuthRange,attr"`
	PositionRange float64 `xml:"positionRange,attr"`
}

type xZoneExclusion struct {
	Zones []xZone `xml:"zone"`
}

type xZone struct {
	MinAz float64 `xml:"minAzimuth,attr"`
	MaxAz float64 `xml:"maxAzimuth,attr"`
	MinEl float64 `xml:"minElevation,attr"`
	MaxEl float64 `xml:"maxElevation,attr"`
	MinX  float64 `xml:"minX,attr"`
	MaxX  float64 `xml:"maxX,attr"`
	MinY  float64 `xml:"minY,attr"`
	MaxY  float64 `xml:"maxY,attr"`
	MinZ  float64 `xml:"minZ,attr"`
	MaxZ  float64 `xml:"maxZ,attr"`

	Positions []xPosition `xml:"position"`
}

type xFrequency struct {
	TypeDefinition string  `xml:"typeDefinition,attr"`
	Value          float64 `xml:",chardata"`
}

type xCoefficient struct {
	ChannelFormatRef idRef   `xml:"audioChannelFormatIDRef"`
	Gain             float64 `xml:"gain"`
	Delay            float64 `xml:"delay"`
	PhaseFlip        bool    `xml:"phaseFlip"`
}

// xTrackUID carries only the reference IDs from the AXML document; the
// 1-based sample track index is a CHNA-chunk fact, supplied separately to
// Parse (see chnaIndex).
type xTrackUID struct {
	ID               string `xml:"UID,attr"`
	PackFormatRef    idRef  `xml:"audioPackFormatIDRef"`
	ChannelFormatRef idRef  `xml:"audioChannelFormatIDRef"`
}

// Parse decodes an AXML chunk's bytes into an admmodel.Graph. chnaIndex
// maps audioTrackUID IDs to their 1-based CHNA track index, since that
// binding lives in the separate CHNA chunk, not the AXML document (spec
// §3: "track index (1-based from CHNA)").
func Parse(axml []byte, chnaIndex map[string]int) (*admmodel.Graph, error) {
	var doc document
	if err := xml.Unmarshal(axml, &doc); err != nil {
		return nil, rendererrors.Wrap(rendererrors.AdmParseError, err, "parsing AXML document")
	}

	g := admmodel.NewGraph()

	for _, p := range doc.Format.Programmes {
		g.Programmes[p.ID] = admmodel.Programme{ID: p.ID, Name: p.Name, Contents: refs(p.Contents)}
	}
	for _, c := range doc.Format.Contents {
		g.Contents[c.ID] = admmodel.Content{ID: c.ID, Name: c.Name, Objects: refs(c.Objects)}
	}
	for _, o := range doc.Format.Objects {
		g.Objects[o.ID] = admmodel.Object{
			ID:               o.ID,
			Name:             o.Name,
			PackFormat:       o.PackFormatRef.Ref,
			TrackUIDs:        refs(o.TrackUIDRefs),
			ChildObjects:     refs(o.ChildRefs),
			ComplementaryIDs: refs(o.Complementary),
			Importance:       intOrDefault(o.Importance, 10),
			Disabled:         o.Disabled,
			Interact:         o.Interact,
		}
	}
	for _, pf := range doc.Format.PackFormats {
		packType, err := parsePackType(pf.TypeLabel)
		if err != nil {
			return nil, err
		}
		g.PackFormats[pf.ID] = admmodel.PackFormat{
			ID:             pf.ID,
			Type:           packType,
			ChannelFormats: refs(pf.ChannelFormats),
			NestedPacks:    refs(pf.NestedPacks),
			Normalization:  parseNormalization(pf.Normalization),
			NFCRefDist:     pf.NFCRefDist,
			ScreenRef:      pf.ScreenRef,
			Importance:     intOrDefault(pf.Importance, 10),
			EncodePackFormat: pf.EncodePackFormat.Ref,
			DecodePackFormat: pf.DecodePackFormat.Ref,
		}
	}
	for _, cf := range doc.Format.ChannelFormats {
		channelType, err := parsePackType(cf.TypeLabel)
		if err != nil {
			return nil, err
		}
		blocks := make([]admmodel.BlockFormat, len(cf.BlockFormats))
		for i, bf := range cf.BlockFormats {
			b, err := parseBlockFormat(channelType, bf)
			if err != nil {
				return nil, err
			}
			blocks[i] = b
		}
		g.ChannelFormats[cf.ID] = admmodel.ChannelFormat{
			ID: cf.ID, Name: cf.Name, Type: channelType, BlockFormats: blocks,
		}
	}
	for _, t := range doc.Format.TrackUIDs {
		idx := chnaIndex[t.ID]
		g.TrackUIDs[t.ID] = admmodel.TrackUID{
			ID:            t.ID,
			TrackIndex:    idx,
			Silent:        t.ID == admmodel.SilentTrackUID,
			PackFormat:    t.PackFormatRef.Ref,
			ChannelFormat: t.ChannelFormatRef.Ref,
		}
	}

	return g, nil
}

func refs(in []idRef) []string {
	out := make([]string, len(in))
	for i, r := range in {
		out[i] = strings.TrimSpace(r.Ref)
	}
	return out
}

func intOrDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func parsePackType(label string) (admmodel.PackType, error) {
	switch strings.TrimSpace(label) {
	case "0001":
		return admmodel.PackDirectSpeakers, nil
	case "0002":
		return admmodel.PackMatrix, nil
	case "0003":
		return admmodel.PackObjects, nil
	case "0004":
		return admmodel.PackHOA, nil
	case "0005":
		return admmodel.PackBinaural, nil
	default:
		return 0, rendererrors.New(rendererrors.AdmParseError, "unknown typeLabel %q", label)
	}
}

func parseNormalization(s string) admmodel.HOANormalization {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N3D":
		return admmodel.NormN3D
	case "FUMA":
		return admmodel.NormFuMa
	default:
		return admmodel.NormSN3D
	}
}

func parseBlockFormat(channelType admmodel.PackType, bf xBlockFormat) (admmodel.BlockFormat, error) {
	rtime, err := parseTimecode(bf.RTime)
	if err != nil {
		return admmodel.BlockFormat{}, err
	}
	duration, err := parseTimecode(bf.Duration)
	if err != nil {
		return admmodel.BlockFormat{}, err
	}

	out := admmodel.BlockFormat{ID: bf.ID, Type: channelType, RTime: rtime, Duration: duration}

	switch channelType {
	case admmodel.PackObjects:
		out.Objects = parseObjectsBlock(bf)
	case admmodel.PackDirectSpeakers:
		out.DirectSpeaker = parseDirectSpeakersBlock(bf)
	case admmodel.PackHOA:
		out.HOA = parseHOABlock(bf)
	case admmodel.PackMatrix:
		out.Matrix = parseMatrixBlock(bf)
	}
	return out, nil
}

func parseObjectsBlock(bf xBlockFormat) *admmodel.ObjectsBlock {
	ob := &admmodel.ObjectsBlock{
		Width: bf.Width, Height: bf.Height, Depth: bf.Depth, Diffuse: bf.Diffuse,
		InterpolationLength: bf.InterpLength, ScreenRef: bf.ScreenRef,
		Importance: intOrDefault(bf.Importance, 10), Gain: floatOrDefault(bf.Gain, 1),
		HeadLocked: bf.HeadLocked,
	}
	if bf.JumpPosition != nil {
		ob.JumpPosition = bf.JumpPosition.Value
	}
	if polar, cart, ok := parsePosition(bf.Position); ok {
		if cart != nil {
			ob.PositionCartesian = cart
		} else {
			ob.PositionPolar = polar
		}
	}
	if bf.ChannelLock != nil {
		ob.ChannelLock = &admmodel.ChannelLock{MaxDistance: bf.ChannelLock.MaxDistance}
	}
	if bf.ObjectDivergence != nil {
		ob.Divergence = &admmodel.Divergence{
			Value: bf.ObjectDivergence.Value, AzimuthRange: bf.ObjectDivergence.AzimuthRange, PositionRange: bf.ObjectDivergence.PositionRange,
		}
	}
	if bf.ZoneExclusion != nil {
		for _, z := range bf.ZoneExclusion.Zones {
			ob.ZoneExclusions = append(ob.ZoneExclusions, parseZone(z))
		}
	}
	return ob
}

func parseZone(z xZone) admmodel.Zone {
	if len(z.Positions) > 0 {
		return admmodel.Zone{IsCartesian: true, MinX: z.MinX, MaxX: z.MaxX, MinY: z.MinY, MaxY: z.MaxY, MinZ: z.MinZ, MaxZ: z.MaxZ}
	}
	return admmodel.Zone{MinAz: z.MinAz, MaxAz: z.MaxAz, MinEl: z.MinEl, MaxEl: z.MaxEl}
}

func parseDirectSpeakersBlock(bf xBlockFormat) *admmodel.DirectSpeakersBlock {
	db := &admmodel.DirectSpeakersBlock{SpeakerLabels: bf.SpeakerLabel, Gain: floatOrDefault(bf.Gain, 1)}
	if polar, cart, ok := parsePosition(bf.Position); ok {
		if cart != nil {
			db.PositionCartesian = cart
		} else {
			db.PositionPolar = polar
		}
	}
	if bf.Frequency != nil && strings.EqualFold(bf.Frequency.TypeDefinition, "lowPass") {
		db.IsLFE = true
	}
	return db
}

func parseHOABlock(bf xBlockFormat) *admmodel.HOABlock {
	return &admmodel.HOABlock{
		Order: intOrDefault(bf.Order, 0), Degree: intOrDefault(bf.Degree, 0),
		Normalization: parseNormalization(bf.Normalization), NFCRefDist: bf.NFCRefDist, ScreenRef: bf.ScreenRef,
	}
}

func parseMatrixBlock(bf xBlockFormat) *admmodel.MatrixBlock {
	coeffs := make([]admmodel.MatrixCoefficient, len(bf.Coefficients))
	for i, c := range bf.Coefficients {
		coeffs[i] = admmodel.MatrixCoefficient{
			InputChannelFormat: c.ChannelFormatRef.Ref, Gain: c.Gain, Delay: c.Delay, PhaseFlip: c.PhaseFlip,
		}
	}
	return &admmodel.MatrixBlock{Coefficients: coeffs}
}

// parsePosition resolves the three-or-more <position> elements of a block
// into either a polar or Cartesian position, per their coordinate
// attributes (azimuth/elevation/distance vs. X/Y/Z).
func parsePosition(positions []xPosition) (*geom.Polar, *geom.Cartesian, bool) {
	if len(positions) == 0 {
		return nil, nil, false
	}
	vals := make(map[string]float64, len(positions))
	for _, p := range positions {
		vals[strings.ToLower(p.Coordinate)] = p.Value
	}
	if _, ok := vals["x"]; ok {
		c := &geom.Cartesian{X: vals["x"], Y: vals["y"], Z: vals["z"]}
		return nil, c, true
	}
	dist := vals["distance"]
	if dist == 0 {
		dist = 1
	}
	return &geom.Polar{Azimuth: vals["azimuth"], Elevation: vals["elevation"], Distance: dist}, nil, true
}

func floatOrDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// parseTimecode parses an ADM "HH:MM:SS.ffffff" timecode (or a bare
// seconds value) into seconds.
func parseTimecode(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) == 1 {
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, rendererrors.Wrap(rendererrors.AdmParseError, err, "parsing timecode %q", s)
		}
		return v, nil
	}
	if len(parts) != 3 {
		return 0, rendererrors.New(rendererrors.AdmParseError, "malformed timecode %q", s)
	}
	h, err1 := strconv.ParseFloat(parts[0], 64)
	m, err2 := strconv.ParseFloat(parts[1], 64)
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, rendererrors.New(rendererrors.AdmParseError, "malformed timecode %q", s)
	}
	return h*3600 + m*60 + sec, nil
}
