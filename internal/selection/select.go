package selection

import (
	"sort"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/render/matrix"
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
	"github.com/ebu/ebu-adm-renderer/internal/trackspec"
)

// Options configures item selection: the programme to render and the
// complementary-object choice per group (spec §4.1).
type Options struct {
	ProgrammeID   string            // empty selects the default (first) programme
	Complementary map[string]string // complementary group ID -> chosen object ID
}

// Select walks programme -> contents -> objects (recursively), pruning
// unselected complementary objects and disabled objects, and emits the
// ordered rendering-item list, spec §4.1. Selection is deterministic for a
// given graph and Options (testable property 7).
func Select(g *admmodel.Graph, opts Options) ([]Item, error) {
	prog, err := resolveProgramme(g, opts.ProgrammeID)
	if err != nil {
		return nil, err
	}

	var items []Item
	visitedObjects := make(map[string]bool)

	contentIDs := append([]string(nil), prog.Contents...)
	sort.Strings(contentIDs)

	for _, contentID := range contentIDs {
		content, ok := g.Contents[contentID]
		if !ok {
			return nil, rendererrors.New(rendererrors.AdmReferenceError, "dangling audioContent %q", contentID)
		}
		objectIDs := append([]string(nil), content.Objects...)
		sort.Strings(objectIDs)
		for _, objID := range objectIDs {
			objItems, err := selectObject(g, objID, opts, visitedObjects, map[string]bool{})
			if err != nil {
				return nil, err
			}
			items = append(items, objItems...)
		}
	}
	return items, nil
}

func resolveProgramme(g *admmodel.Graph, id string) (admmodel.Programme, error) {
	if id == "" {
		return g.DefaultProgramme()
	}
	return g.Programme(id)
}

// selectObject recurses into object, emitting items for its own trackUIDs
// and for every reachable (non-pruned) child object. ancestors guards
// against cycles in the object-nesting graph.
func selectObject(g *admmodel.Graph, objID string, opts Options, seen map[string]bool, ancestors map[string]bool) ([]Item, error) {
	if ancestors[objID] {
		return nil, rendererrors.New(rendererrors.AdmReferenceError, "cycle in audioObject nesting at %q", objID)
	}
	obj, ok := g.Objects[objID]
	if !ok {
		return nil, rendererrors.New(rendererrors.AdmReferenceError, "dangling audioObject %q", objID)
	}
	if obj.Disabled {
		return nil, nil
	}
	if !isComplementarySelected(obj, opts) {
		return nil, nil
	}
	if seen[objID] {
		return nil, nil
	}
	seen[objID] = true

	ancestors[objID] = true
	defer delete(ancestors, objID)

	var items []Item

	if obj.PackFormat != "" {
		packItems, err := itemsForObject(g, obj)
		if err != nil {
			return nil, err
		}
		items = append(items, packItems...)
	}

	childIDs := append([]string(nil), obj.ChildObjects...)
	sort.Strings(childIDs)
	for _, childID := range childIDs {
		childItems, err := selectObject(g, childID, opts, seen, ancestors)
		if err != nil {
			return nil, err
		}
		items = append(items, childItems...)
	}

	return items, nil
}

func isComplementarySelected(obj admmodel.Object, opts Options) bool {
	if len(obj.ComplementaryIDs) == 0 {
		return true
	}
	groupKey := complementaryGroupKey(obj)
	chosen, ok := opts.Complementary[groupKey]
	if !ok {
		// No explicit choice: default to the lexicographically-first member,
		// matching the deterministic-default spirit of "default: the first"
		// already used for programme selection.
		all := append([]string{obj.ID}, obj.ComplementaryIDs...)
		sort.Strings(all)
		return all[0] == obj.ID
	}
	return chosen == obj.ID
}

func complementaryGroupKey(obj admmodel.Object) string {
	all := append([]string{obj.ID}, obj.ComplementaryIDs...)
	sort.Strings(all)
	return all[0]
}

// ResolveComplementaryChoices turns a flat list of chosen audioObject IDs
// (one per desired complementary group, in any order — the CLI's repeated
// `--comp-object ID` flag) into the group-key-keyed map Options.Complementary
// expects, by locating each chosen object's group key.
func ResolveComplementaryChoices(g *admmodel.Graph, chosenIDs []string) (map[string]string, error) {
	chosen := make(map[string]bool, len(chosenIDs))
	for _, id := range chosenIDs {
		chosen[id] = true
	}

	out := make(map[string]string, len(chosenIDs))
	for _, obj := range g.Objects {
		if len(obj.ComplementaryIDs) == 0 || !chosen[obj.ID] {
			continue
		}
		out[complementaryGroupKey(obj)] = obj.ID
	}
	for _, id := range chosenIDs {
		found := false
		for _, v := range out {
			if v == id {
				found = true
				break
			}
		}
		if !found {
			return nil, rendererrors.New(rendererrors.AdmReferenceError,
				"--comp-object %q does not name a complementary audioObject", id)
		}
	}
	return out, nil
}

// itemsForObject enumerates obj's trackUIDs, checks each non-silent one's
// pack path, and emits one item per trackUID (DirectSpeakers/Objects) or
// one item per pack (HOA, Matrix), spec §4.1. Every item carries obj's own
// pack format; trackUIDs are not regrouped by the minimal nested pack that
// covers their channel formats.
func itemsForObject(g *admmodel.Graph, obj admmodel.Object) ([]Item, error) {
	pack, err := g.PackFormatByID(obj.PackFormat)
	if err != nil {
		return nil, err
	}
	kind, ok := packTypeToKind(pack.Type)
	if !ok {
		return nil, rendererrors.New(rendererrors.AdmReferenceError, "audioPackFormat %q has unsupported type", pack.ID)
	}

	trackUIDs := make([]admmodel.TrackUID, 0, len(obj.TrackUIDs))
	for _, tid := range obj.TrackUIDs {
		t, err := g.TrackUIDByID(tid)
		if err != nil {
			return nil, err
		}
		if !t.Silent && t.ID != admmodel.SilentTrackUID {
			if err := g.ValidateTrackUIDPackPath(t); err != nil {
				return nil, err
			}
		}
		trackUIDs = append(trackUIDs, t)
	}

	if kind == KindHOA {
		return []Item{hoaItem(pack, obj, trackUIDs)}, nil
	}
	if kind == KindMatrix {
		item, err := matrixItem(g, pack, obj)
		if err != nil {
			return nil, err
		}
		return []Item{item}, nil
	}

	items := make([]Item, 0, len(trackUIDs))
	for _, t := range trackUIDs {
		item, err := itemForTrackUID(g, pack, obj, kind, t)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// matrixItem builds the single rendering item for a Matrix pack format,
// spec §4.6's three sub-types. A direct matrix's channel formats are each
// one output column over a shared input basis (its own sibling channel
// formats' physical tracks), switched per block by the renderer; an
// encode or decode matrix's channel formats are each resolved here into one
// gain-baked virtual TrackSpec per their own audioBlockFormat, since their
// coefficients reference other Matrix channel formats rather than physical
// tracks directly (spec §4.6's encode/decode pairing), and the renderer
// switches between these per-block specs over a Timeline the same way it
// does the direct sub-type's per-block gains.
func matrixItem(g *admmodel.Graph, pack admmodel.PackFormat, obj admmodel.Object) (Item, error) {
	channelFormats := append([]string(nil), pack.ChannelFormats...)
	subType := pack.MatrixSubTypeOf()

	extra := ExtraData{
		ObjectImportance: importanceOrDefault(obj.Importance),
		PackImportance:   importanceOrDefault(pack.Importance),
		ADMPath:          obj.ID + "/" + pack.ID,
	}

	if subType == admmodel.MatrixDirect {
		inputs, err := directMatrixInputSpecs(g, channelFormats)
		if err != nil {
			return Item{}, err
		}
		return Item{
			Kind: KindMatrix, PackFormat: pack.ID, MatrixSubType: subType,
			MatrixChannelFormats: channelFormats, MatrixTrackSpecs: inputs, Extra: extra,
		}, nil
	}

	var specs []trackspec.TrackSpec
	blockSpecIndex := make(map[string][]int, len(channelFormats))
	for _, cfID := range channelFormats {
		blockSpecs, err := matrixChannelFormatBlockSpecs(g, cfID)
		if err != nil {
			return Item{}, err
		}
		indices := make([]int, len(blockSpecs))
		for i, ts := range blockSpecs {
			indices[i] = len(specs)
			specs = append(specs, ts)
		}
		blockSpecIndex[cfID] = indices
	}
	return Item{
		Kind: KindMatrix, PackFormat: pack.ID, MatrixSubType: subType,
		MatrixChannelFormats: channelFormats, MatrixTrackSpecs: specs,
		MatrixBlockSpecIndex: blockSpecIndex, Extra: extra,
	}, nil
}

// directMatrixInputSpecs resolves a direct matrix's shared input basis from
// its first channel format's coefficient list, assuming (as is conventional
// for a direct matrix) that every channel format in the pack lists its
// coefficients against the same ordered set of input channel formats.
func directMatrixInputSpecs(g *admmodel.Graph, channelFormats []string) ([]trackspec.TrackSpec, error) {
	if len(channelFormats) == 0 {
		return nil, nil
	}
	cf, err := g.ChannelFormatByID(channelFormats[0])
	if err != nil {
		return nil, err
	}
	if len(cf.BlockFormats) == 0 || cf.BlockFormats[0].Matrix == nil {
		return nil, rendererrors.New(rendererrors.AdmReferenceError, "direct matrix channel format %q has no matrix block", channelFormats[0])
	}
	coeffs := cf.BlockFormats[0].Matrix.Coefficients
	specs := make([]trackspec.TrackSpec, len(coeffs))
	for i, c := range coeffs {
		ts, ok := physicalTrackSpecByChannelFormat(g, c.InputChannelFormat)
		if !ok {
			return nil, rendererrors.New(rendererrors.AdmReferenceError, "direct matrix coefficient references unbound channel format %q", c.InputChannelFormat)
		}
		specs[i] = ts
	}
	return specs, nil
}

// matrixChannelFormatBlockSpecs resolves one virtual TrackSpec per block
// format of an encode/decode channel format (spec §4.6), so that a
// coefficient that changes from one audioBlockFormat to the next actually
// produces a different rendered signal instead of only the channel
// format's first block ever being used.
func matrixChannelFormatBlockSpecs(g *admmodel.Graph, cfID string) ([]trackspec.TrackSpec, error) {
	if ts, ok := physicalTrackSpecByChannelFormat(g, cfID); ok {
		return []trackspec.TrackSpec{ts}, nil
	}
	cf, err := g.ChannelFormatByID(cfID)
	if err != nil {
		return nil, err
	}
	if len(cf.BlockFormats) == 0 {
		return nil, rendererrors.New(rendererrors.AdmReferenceError,
			"channel format %q has no physical track and no matrix blocks to synthesise one", cfID)
	}
	specs := make([]trackspec.TrackSpec, len(cf.BlockFormats))
	for i, bf := range cf.BlockFormats {
		if bf.Matrix == nil {
			return nil, rendererrors.New(rendererrors.AdmReferenceError, "channel format %q block %d is not a matrix block", cfID, i)
		}
		ts, err := resolveMatrixChannelFormatBlock(g, cfID, i, map[string]bool{})
		if err != nil {
			return nil, err
		}
		specs[i] = ts
	}
	return specs, nil
}

// resolveMatrixChannelFormatBlock synthesises one channel format's
// blockIdx'th block into a virtual TrackSpec, resolving recursively through
// other Matrix channel formats (an encode pack's outputs feeding a decode
// pack's coefficients) down to a physical trackUID binding at the leaves.
// A referenced channel format is read at the same blockIdx, clamped to its
// own last block if it has fewer blocks, assuming (as spec §4.6's
// encode/decode pairing conventionally is authored) that the chain's block
// boundaries line up across the pack. visiting guards against reference
// cycles.
func resolveMatrixChannelFormatBlock(g *admmodel.Graph, cfID string, blockIdx int, visiting map[string]bool) (trackspec.TrackSpec, error) {
	if ts, ok := physicalTrackSpecByChannelFormat(g, cfID); ok {
		return ts, nil
	}
	key := cfID
	if visiting[key] {
		return trackspec.TrackSpec{}, rendererrors.New(rendererrors.AdmReferenceError, "cycle in matrix coefficient references at %q", cfID)
	}
	cf, err := g.ChannelFormatByID(cfID)
	if err != nil {
		return trackspec.TrackSpec{}, err
	}
	if len(cf.BlockFormats) == 0 {
		return trackspec.TrackSpec{}, rendererrors.New(rendererrors.AdmReferenceError,
			"channel format %q has no physical track and no matrix block to synthesise one", cfID)
	}
	bi := blockIdx
	if bi >= len(cf.BlockFormats) {
		bi = len(cf.BlockFormats) - 1
	}
	if cf.BlockFormats[bi].Matrix == nil {
		return trackspec.TrackSpec{}, rendererrors.New(rendererrors.AdmReferenceError, "channel format %q block %d has no matrix block", cfID, bi)
	}

	visiting[key] = true
	defer delete(visiting, key)
	resolver := func(inputID string) (trackspec.TrackSpec, bool) {
		ts, err := resolveMatrixChannelFormatBlock(g, inputID, blockIdx, visiting)
		if err != nil {
			return trackspec.TrackSpec{}, false
		}
		return ts, true
	}
	return matrix.BuildTrackSpec(*cf.BlockFormats[bi].Matrix, resolver)
}

// physicalTrackSpecByChannelFormat finds the trackUID bound directly to
// cfID, if any, scanning in ID order for a deterministic pick when more
// than one trackUID names the same channel format.
func physicalTrackSpecByChannelFormat(g *admmodel.Graph, cfID string) (trackspec.TrackSpec, bool) {
	ids := make([]string, 0, len(g.TrackUIDs))
	for id := range g.TrackUIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		t := g.TrackUIDs[id]
		if t.ChannelFormat == cfID {
			return trackSpecForTrackUID(t), true
		}
	}
	return trackspec.TrackSpec{}, false
}

func itemForTrackUID(g *admmodel.Graph, pack admmodel.PackFormat, obj admmodel.Object, kind ItemKind, t admmodel.TrackUID) (Item, error) {
	ts := trackSpecForTrackUID(t)
	channelFormat := t.ChannelFormat

	return Item{
		Kind:          kind,
		TrackSpec:     ts,
		ChannelFormat: channelFormat,
		PackFormat:    pack.ID,
		Extra: ExtraData{
			ObjectImportance: importanceOrDefault(obj.Importance),
			PackImportance:   importanceOrDefault(pack.Importance),
			ADMPath:          obj.ID + "/" + pack.ID,
		},
	}, nil
}

func hoaItem(pack admmodel.PackFormat, obj admmodel.Object, trackUIDs []admmodel.TrackUID) Item {
	channelFormats := make([]string, len(trackUIDs))
	specs := make([]trackspec.TrackSpec, len(trackUIDs))
	for i, t := range trackUIDs {
		channelFormats[i] = t.ChannelFormat
		specs[i] = trackSpecForTrackUID(t)
	}
	return Item{
		Kind:              KindHOA,
		PackFormat:        pack.ID,
		HOAChannelFormats: channelFormats,
		HOATrackSpecs:     specs,
		Extra: ExtraData{
			ObjectImportance: importanceOrDefault(obj.Importance),
			PackImportance:   importanceOrDefault(pack.Importance),
			ADMPath:          obj.ID + "/" + pack.ID,
		},
	}
}

func trackSpecForTrackUID(t admmodel.TrackUID) trackspec.TrackSpec {
	if t.Silent || t.ID == admmodel.SilentTrackUID {
		return trackspec.Silent()
	}
	return trackspec.Direct(t.TrackIndex - 1)
}

func importanceOrDefault(v int) int {
	if v == 0 {
		return 10
	}
	return v
}
