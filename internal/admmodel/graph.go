package admmodel

import (
	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

// Graph is the resolved, immutable ADM object graph consumed by the core
// renderer. Nodes are addressed by stable ID through the maps below; there
// is no pointer-chasing, so there is nothing for a parse-time cycle
// artefact to corrupt once the graph is built (design note §9).
type Graph struct {
	Programmes     map[string]Programme
	Contents       map[string]Content
	Objects        map[string]Object
	PackFormats    map[string]PackFormat
	ChannelFormats map[string]ChannelFormat
	TrackUIDs      map[string]TrackUID
}

// NewGraph builds an empty, ready-to-populate graph.
func NewGraph() *Graph {
	return &Graph{
		Programmes:     make(map[string]Programme),
		Contents:       make(map[string]Content),
		Objects:        make(map[string]Object),
		PackFormats:    make(map[string]PackFormat),
		ChannelFormats: make(map[string]ChannelFormat),
		TrackUIDs:      make(map[string]TrackUID),
	}
}

// DefaultProgramme returns the first programme in ID order, matching spec
// §4.1's "default: the first".
func (g *Graph) DefaultProgramme() (Programme, error) {
	if len(g.Programmes) == 0 {
		return Programme{}, rendererrors.New(rendererrors.AdmReferenceError, "ADM document has no audioProgramme")
	}
	var best Programme
	found := false
	for _, p := range g.Programmes {
		if !found || p.ID < best.ID {
			best = p
			found = true
		}
	}
	return best, nil
}

// Programme looks up a programme by ID.
func (g *Graph) Programme(id string) (Programme, error) {
	p, ok := g.Programmes[id]
	if !ok {
		return Programme{}, rendererrors.New(rendererrors.AdmReferenceError, "no such audioProgramme %q", id)
	}
	return p, nil
}

func (g *Graph) content(id string) (Content, error) {
	c, ok := g.Contents[id]
	if !ok {
		return Content{}, rendererrors.New(rendererrors.AdmReferenceError, "dangling audioContent reference %q", id)
	}
	return c, nil
}

func (g *Graph) object(id string) (Object, error) {
	o, ok := g.Objects[id]
	if !ok {
		return Object{}, rendererrors.New(rendererrors.AdmReferenceError, "dangling audioObject reference %q", id)
	}
	return o, nil
}

// PackFormatByID looks up a pack format by ID.
func (g *Graph) PackFormatByID(id string) (PackFormat, error) {
	p, ok := g.PackFormats[id]
	if !ok {
		return PackFormat{}, rendererrors.New(rendererrors.AdmReferenceError, "dangling audioPackFormat reference %q", id)
	}
	return p, nil
}

// ChannelFormatByID looks up a channel format by ID.
func (g *Graph) ChannelFormatByID(id string) (ChannelFormat, error) {
	c, ok := g.ChannelFormats[id]
	if !ok {
		return ChannelFormat{}, rendererrors.New(rendererrors.AdmReferenceError, "dangling audioChannelFormat reference %q", id)
	}
	return c, nil
}

// TrackUIDByID looks up a trackUID by ID.
func (g *Graph) TrackUIDByID(id string) (TrackUID, error) {
	t, ok := g.TrackUIDs[id]
	if !ok {
		return TrackUID{}, rendererrors.New(rendererrors.AdmReferenceError, "dangling audioTrackUID reference %q", id)
	}
	return t, nil
}

// PackContainsChannel reports whether channelFormatID is reachable from
// packID, directly or through nested packs, and returns the path of pack
// IDs from packID down to (and including) the leaf pack that owns the
// channel format directly. It returns an error if a cycle is found.
func (g *Graph) PackContainsChannel(packID, channelFormatID string) (path []string, ok bool, err error) {
	visited := make(map[string]bool)
	var walk func(id string, acc []string) ([]string, bool, error)
	walk = func(id string, acc []string) ([]string, bool, error) {
		if visited[id] {
			return nil, false, rendererrors.New(rendererrors.AdmReferenceError, "cycle in audioPackFormat nesting at %q", id)
		}
		visited[id] = true
		pack, perr := g.PackFormatByID(id)
		if perr != nil {
			return nil, false, perr
		}
		acc = append(acc, id)
		for _, cf := range pack.ChannelFormats {
			if cf == channelFormatID {
				return acc, true, nil
			}
		}
		for _, nested := range pack.NestedPacks {
			if p, found, nerr := walk(nested, acc); nerr != nil {
				return nil, false, nerr
			} else if found {
				return p, true, nil
			}
		}
		return nil, false, nil
	}
	return walk(packID, nil)
}

// ValidateTrackUIDPackPath enforces the spec §3 invariant: a non-silent
// trackUID's packFormat must lie on the path from some root pack to the
// pack that directly owns the trackUID's channelFormat.
func (g *Graph) ValidateTrackUIDPackPath(t TrackUID) error {
	if t.Silent || t.ID == SilentTrackUID {
		return nil
	}
	_, ok, err := g.PackContainsChannel(t.PackFormat, t.ChannelFormat)
	if err != nil {
		return err
	}
	if !ok {
		return rendererrors.New(rendererrors.AdmReferenceError,
			"audioTrackUID %q: packFormat %q does not contain channelFormat %q", t.ID, t.PackFormat, t.ChannelFormat)
	}
	return nil
}
