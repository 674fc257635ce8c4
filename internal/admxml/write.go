package admxml

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/geom"
)

// Write serialises a resolved admmodel.Graph back into AXML chunk bytes, the
// inverse of Parse. It is exercised by the admrender-regenerate tool (spec
// §9's "emit canonical (both directions)" rule for the audioTrackFormat/
// audioStreamFormat reference): since admmodel.Graph does not itself model
// that layer (spec §1 scopes ADM XML parsing/writing as an external
// collaborator; only the fields the renderer needs are resolved), Write
// synthesises one audioTrackFormat/audioStreamFormat pair per referenced
// channelFormat and always links them in both directions, rather than
// picking one direction the way a lossless round-trip parser would have to
// disambiguate from the original document.
func Write(g *admmodel.Graph) ([]byte, error) {
	doc := document{}
	doc.Format.Programmes = writeProgrammes(g)
	doc.Format.Contents = writeContents(g)
	doc.Format.Objects = writeObjects(g)
	doc.Format.PackFormats = writePackFormats(g)
	doc.Format.ChannelFormats = writeChannelFormats(g)
	doc.Format.TrackUIDs = writeTrackUIDs(g)

	trackFormats, streamFormats := trackAndStreamFormats(g)

	out, err := xml.MarshalIndent(withTrackFormats{
		document:       doc,
		TrackFormats:   trackFormats,
		StreamFormats:  streamFormats,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("admxml: regenerating AXML: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// withTrackFormats re-shapes document's audioFormatExtended children to also
// carry the synthesised audioTrackFormat/audioStreamFormat elements, without
// disturbing document's read path (Parse never looks at these fields).
type withTrackFormats struct {
	document
	TrackFormats  []xTrackFormat  `xml:"-"`
	StreamFormats []xStreamFormat `xml:"-"`
}

// MarshalXML flattens withTrackFormats into the same ebuCoreMain shape Parse
// expects to read, with the synthesised trackFormat/streamFormat elements
// interleaved into audioFormatExtended.
func (w withTrackFormats) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "ebuCoreMain"}
	type formatExtended struct {
		Programmes     []xProgramme     `xml:"audioProgramme"`
		Contents       []xContent       `xml:"audioContent"`
		Objects        []xObject        `xml:"audioObject"`
		PackFormats    []xPackFormat    `xml:"audioPackFormat"`
		ChannelFormats []xChannelFormat `xml:"audioChannelFormat"`
		TrackFormats   []xTrackFormat   `xml:"audioTrackFormat"`
		StreamFormats  []xStreamFormat  `xml:"audioStreamFormat"`
		TrackUIDs      []xTrackUID      `xml:"audioTrackUID"`
	}
	type coreMetadata struct {
		Format formatExtended `xml:"format>audioFormatExtended"`
	}
	type ebuCoreMain struct {
		XMLName xml.Name     `xml:"ebuCoreMain"`
		Core    coreMetadata `xml:"coreMetadata"`
	}
	wrapped := ebuCoreMain{
		Core: coreMetadata{
			Format: formatExtended{
				Programmes:     w.document.Format.Programmes,
				Contents:       w.document.Format.Contents,
				Objects:        w.document.Format.Objects,
				PackFormats:    w.document.Format.PackFormats,
				ChannelFormats: w.document.Format.ChannelFormats,
				TrackFormats:   w.TrackFormats,
				StreamFormats:  w.StreamFormats,
				TrackUIDs:      w.document.Format.TrackUIDs,
			},
		},
	}
	return e.EncodeElement(wrapped, start)
}

// xTrackFormat/xStreamFormat are the minimal synthesised audioTrackFormat/
// audioStreamFormat elements Write emits, each referencing the other (spec
// §9's "canonical both directions" rule).
type xTrackFormat struct {
	ID               string `xml:"audioTrackFormatID,attr"`
	Name             string `xml:"audioTrackFormatName,attr"`
	FormatLabel      string `xml:"formatLabel"`
	StreamFormatRef  idRef  `xml:"audioStreamFormatIDRef"`
}

type xStreamFormat struct {
	ID               string `xml:"audioStreamFormatID,attr"`
	Name             string `xml:"audioStreamFormatName,attr"`
	FormatLabel      string `xml:"formatLabel"`
	ChannelFormatRef idRef  `xml:"audioChannelFormatIDRef"`
	TrackFormatRef   idRef  `xml:"audioTrackFormatIDRef"`
}

// trackAndStreamFormats synthesises one audioTrackFormat/audioStreamFormat
// pair per channelFormat actually referenced by a trackUID, in deterministic
// (sorted) ID order so regenerated output is byte-stable across runs.
func trackAndStreamFormats(g *admmodel.Graph) ([]xTrackFormat, []xStreamFormat) {
	var channelFormatIDs []string
	seen := make(map[string]bool)
	for _, t := range g.TrackUIDs {
		if t.Silent || t.ChannelFormat == "" || seen[t.ChannelFormat] {
			continue
		}
		seen[t.ChannelFormat] = true
		channelFormatIDs = append(channelFormatIDs, t.ChannelFormat)
	}
	sort.Strings(channelFormatIDs)

	trackFormats := make([]xTrackFormat, 0, len(channelFormatIDs))
	streamFormats := make([]xStreamFormat, 0, len(channelFormatIDs))
	for _, cfID := range channelFormatIDs {
		trackID := "AT_" + cfID[len("AC_"):] + "_01"
		streamID := "AS_" + cfID[len("AC_"):]
		trackFormats = append(trackFormats, xTrackFormat{
			ID:              trackID,
			FormatLabel:     "0001",
			StreamFormatRef: idRef{Ref: streamID},
		})
		streamFormats = append(streamFormats, xStreamFormat{
			ID:               streamID,
			FormatLabel:      "0001",
			ChannelFormatRef: idRef{Ref: cfID},
			TrackFormatRef:   idRef{Ref: trackID},
		})
	}
	return trackFormats, streamFormats
}

func writeProgrammes(g *admmodel.Graph) []xProgramme {
	ids := sortedKeys(g.Programmes)
	out := make([]xProgramme, 0, len(ids))
	for _, id := range ids {
		p := g.Programmes[id]
		out = append(out, xProgramme{ID: p.ID, Name: p.Name, Contents: idRefs(p.Contents)})
	}
	return out
}

func writeContents(g *admmodel.Graph) []xContent {
	ids := sortedKeys(g.Contents)
	out := make([]xContent, 0, len(ids))
	for _, id := range ids {
		c := g.Contents[id]
		out = append(out, xContent{ID: c.ID, Name: c.Name, Objects: idRefs(c.Objects)})
	}
	return out
}

func writeObjects(g *admmodel.Graph) []xObject {
	ids := sortedKeys(g.Objects)
	out := make([]xObject, 0, len(ids))
	for _, id := range ids {
		o := g.Objects[id]
		importance := o.Importance
		out = append(out, xObject{
			ID:            o.ID,
			Name:          o.Name,
			Importance:    &importance,
			Disabled:      o.Disabled,
			Interact:      o.Interact,
			PackFormatRef: idRef{Ref: o.PackFormat},
			TrackUIDRefs:  idRefs(o.TrackUIDs),
			ChildRefs:     idRefs(o.ChildObjects),
			Complementary: idRefs(o.ComplementaryIDs),
		})
	}
	return out
}

func writePackFormats(g *admmodel.Graph) []xPackFormat {
	ids := sortedKeys(g.PackFormats)
	out := make([]xPackFormat, 0, len(ids))
	for _, id := range ids {
		p := g.PackFormats[id]
		importance := p.Importance
		out = append(out, xPackFormat{
			ID:               p.ID,
			TypeLabel:        packTypeLabel(p.Type),
			ChannelFormats:   idRefs(p.ChannelFormats),
			NestedPacks:      idRefs(p.NestedPacks),
			Normalization:    normalizationLabel(p.Normalization),
			NFCRefDist:       p.NFCRefDist,
			ScreenRef:        p.ScreenRef,
			Importance:       &importance,
			EncodePackFormat: idRef{Ref: p.EncodePackFormat},
			DecodePackFormat: idRef{Ref: p.DecodePackFormat},
		})
	}
	return out
}

func writeChannelFormats(g *admmodel.Graph) []xChannelFormat {
	ids := sortedKeys(g.ChannelFormats)
	out := make([]xChannelFormat, 0, len(ids))
	for _, id := range ids {
		cf := g.ChannelFormats[id]
		blocks := make([]xBlockFormat, len(cf.BlockFormats))
		for i, bf := range cf.BlockFormats {
			blocks[i] = writeBlockFormat(bf)
		}
		out = append(out, xChannelFormat{
			ID: cf.ID, Name: cf.Name, TypeLabel: packTypeLabel(cf.Type), BlockFormats: blocks,
		})
	}
	return out
}

func writeTrackUIDs(g *admmodel.Graph) []xTrackUID {
	ids := sortedKeys(g.TrackUIDs)
	out := make([]xTrackUID, 0, len(ids))
	for _, id := range ids {
		t := g.TrackUIDs[id]
		out = append(out, xTrackUID{
			ID:               t.ID,
			PackFormatRef:    idRef{Ref: t.PackFormat},
			ChannelFormatRef: idRef{Ref: t.ChannelFormat},
		})
	}
	return out
}

func writeBlockFormat(bf admmodel.BlockFormat) xBlockFormat {
	out := xBlockFormat{
		ID:       bf.ID,
		RTime:    formatTimecode(bf.RTime),
		Duration: formatTimecode(bf.Duration),
	}
	switch bf.Type {
	case admmodel.PackObjects:
		writeObjectsBlock(&out, bf.Objects)
	case admmodel.PackDirectSpeakers:
		writeDirectSpeakersBlock(&out, bf.DirectSpeaker)
	case admmodel.PackHOA:
		writeHOABlock(&out, bf.HOA)
	case admmodel.PackMatrix:
		writeMatrixBlock(&out, bf.Matrix)
	}
	return out
}

func writeObjectsBlock(out *xBlockFormat, ob *admmodel.ObjectsBlock) {
	if ob == nil {
		return
	}
	out.Width, out.Height, out.Depth, out.Diffuse = ob.Width, ob.Height, ob.Depth, ob.Diffuse
	out.InterpLength = ob.InterpolationLength
	out.ScreenRef = ob.ScreenRef
	importance := ob.Importance
	out.Importance = &importance
	gain := ob.Gain
	out.Gain = &gain
	out.HeadLocked = ob.HeadLocked
	out.JumpPosition = &xJump{Value: ob.JumpPosition, InterpLength: ob.InterpolationLength}
	out.Position = writePosition(ob.PositionPolar, ob.PositionCartesian)
	if ob.ChannelLock != nil {
		out.ChannelLock = &xChannelLock{MaxDistance: ob.ChannelLock.MaxDistance}
	}
	if ob.Divergence != nil {
		out.ObjectDivergence = &xDivergence{
			Value: ob.Divergence.Value, AzimuthRange: ob.Divergence.AzimuthRange, PositionRange: ob.Divergence.PositionRange,
		}
	}
	if len(ob.ZoneExclusions) > 0 {
		out.ZoneExclusion = &xZoneExclusion{Zones: make([]xZone, len(ob.ZoneExclusions))}
		for i, z := range ob.ZoneExclusions {
			out.ZoneExclusion.Zones[i] = writeZone(z)
		}
	}
}

func writeZone(z admmodel.Zone) xZone {
	if z.IsCartesian {
		return xZone{
			MinX: z.MinX, MaxX: z.MaxX, MinY: z.MinY, MaxY: z.MaxY, MinZ: z.MinZ, MaxZ: z.MaxZ,
			Positions: []xPosition{{Coordinate: "X", Value: z.MinX}},
		}
	}
	return xZone{MinAz: z.MinAz, MaxAz: z.MaxAz, MinEl: z.MinEl, MaxEl: z.MaxEl}
}

func writeDirectSpeakersBlock(out *xBlockFormat, db *admmodel.DirectSpeakersBlock) {
	if db == nil {
		return
	}
	out.SpeakerLabel = db.SpeakerLabels
	gain := db.Gain
	out.Gain = &gain
	out.Position = writePosition(db.PositionPolar, db.PositionCartesian)
	if db.IsLFE {
		out.Frequency = &xFrequency{TypeDefinition: "lowPass", Value: 120}
	}
}

func writeHOABlock(out *xBlockFormat, hb *admmodel.HOABlock) {
	if hb == nil {
		return
	}
	order, degree := hb.Order, hb.Degree
	out.Order, out.Degree = &order, &degree
	out.Normalization = normalizationLabel(hb.Normalization)
	out.NFCRefDist = hb.NFCRefDist
	out.ScreenRef = hb.ScreenRef
}

func writeMatrixBlock(out *xBlockFormat, mb *admmodel.MatrixBlock) {
	if mb == nil {
		return
	}
	out.Coefficients = make([]xCoefficient, len(mb.Coefficients))
	for i, c := range mb.Coefficients {
		out.Coefficients[i] = xCoefficient{
			ChannelFormatRef: idRef{Ref: c.InputChannelFormat},
			Gain:             c.Gain,
			Delay:            c.Delay,
			PhaseFlip:        c.PhaseFlip,
		}
	}
}

func writePosition(polar *geom.Polar, cart *geom.Cartesian) []xPosition {
	switch {
	case cart != nil:
		return []xPosition{
			{Coordinate: "X", Value: cart.X},
			{Coordinate: "Y", Value: cart.Y},
			{Coordinate: "Z", Value: cart.Z},
		}
	case polar != nil:
		return []xPosition{
			{Coordinate: "azimuth", Value: polar.Azimuth},
			{Coordinate: "elevation", Value: polar.Elevation},
			{Coordinate: "distance", Value: polar.Distance},
		}
	default:
		return nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func idRefs(ids []string) []idRef {
	out := make([]idRef, len(ids))
	for i, id := range ids {
		out[i] = idRef{Ref: id}
	}
	return out
}

func packTypeLabel(t admmodel.PackType) string {
	switch t {
	case admmodel.PackDirectSpeakers:
		return "0001"
	case admmodel.PackMatrix:
		return "0002"
	case admmodel.PackObjects:
		return "0003"
	case admmodel.PackHOA:
		return "0004"
	case admmodel.PackBinaural:
		return "0005"
	default:
		return "0003"
	}
}

func normalizationLabel(n admmodel.HOANormalization) string {
	switch n {
	case admmodel.NormN3D:
		return "N3D"
	case admmodel.NormFuMa:
		return "FuMa"
	default:
		return "SN3D"
	}
}

// formatTimecode renders seconds as ADM's "HH:MM:SS.ffffff" timecode.
func formatTimecode(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := seconds - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%09.6f", h, m, s)
}
