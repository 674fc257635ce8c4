package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/trackspec"
)

func simpleGraph() *admmodel.Graph {
	g := admmodel.NewGraph()
	g.Programmes["APR_1001"] = admmodel.Programme{ID: "APR_1001", Contents: []string{"ACO_1001"}}
	g.Contents["ACO_1001"] = admmodel.Content{ID: "ACO_1001", Objects: []string{"AO_1001"}}
	g.Objects["AO_1001"] = admmodel.Object{
		ID:         "AO_1001",
		PackFormat: "AP_00010001",
		TrackUIDs:  []string{"ATU_00000001"},
	}
	g.PackFormats["AP_00010001"] = admmodel.PackFormat{
		ID:             "AP_00010001",
		Type:           admmodel.PackObjects,
		ChannelFormats: []string{"AC_00010001"},
	}
	g.ChannelFormats["AC_00010001"] = admmodel.ChannelFormat{ID: "AC_00010001", Type: admmodel.PackObjects}
	g.TrackUIDs["ATU_00000001"] = admmodel.TrackUID{
		ID: "ATU_00000001", TrackIndex: 1, PackFormat: "AP_00010001", ChannelFormat: "AC_00010001",
	}
	return g
}

func TestSelectSingleObjectsItem(t *testing.T) {
	g := simpleGraph()
	items, err := Select(g, Options{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, KindObjects, items[0].Kind)
	assert.Equal(t, "AC_00010001", items[0].ChannelFormat)
}

func TestSelectIsDeterministic(t *testing.T) {
	g := simpleGraph()
	first, err := Select(g, Options{})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Select(g, Options{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSelectSkipsDisabledObject(t *testing.T) {
	g := simpleGraph()
	obj := g.Objects["AO_1001"]
	obj.Disabled = true
	g.Objects["AO_1001"] = obj

	items, err := Select(g, Options{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSelectDanglingReferenceFails(t *testing.T) {
	g := simpleGraph()
	g.Objects["AO_1001"] = admmodel.Object{ID: "AO_1001", PackFormat: "AP_MISSING"}
	_, err := Select(g, Options{})
	assert.Error(t, err)
}

func TestSelectCycleFails(t *testing.T) {
	g := simpleGraph()
	obj := g.Objects["AO_1001"]
	obj.ChildObjects = []string{"AO_1001"}
	g.Objects["AO_1001"] = obj

	_, err := Select(g, Options{})
	assert.Error(t, err)
}

func matrixGraph() *admmodel.Graph {
	g := admmodel.NewGraph()
	g.Programmes["APR_1"] = admmodel.Programme{ID: "APR_1", Contents: []string{"ACO_1"}}
	g.Contents["ACO_1"] = admmodel.Content{ID: "ACO_1", Objects: []string{"AO_MTX"}}
	g.Objects["AO_MTX"] = admmodel.Object{ID: "AO_MTX", PackFormat: "AP_MTX"}
	g.PackFormats["AP_MTX"] = admmodel.PackFormat{
		ID: "AP_MTX", Type: admmodel.PackMatrix, ChannelFormats: []string{"AC_OUT1"},
	}
	g.ChannelFormats["AC_OUT1"] = admmodel.ChannelFormat{
		ID: "AC_OUT1", Type: admmodel.PackMatrix,
		BlockFormats: []admmodel.BlockFormat{{
			ID: "AB_OUT1", Type: admmodel.PackMatrix, Duration: 1,
			Matrix: &admmodel.MatrixBlock{Coefficients: []admmodel.MatrixCoefficient{
				{InputChannelFormat: "AC_SRC1", Gain: 1},
				{InputChannelFormat: "AC_SRC2", Gain: 0.5},
			}},
		}},
	}
	g.TrackUIDs["ATU_SRC1"] = admmodel.TrackUID{ID: "ATU_SRC1", TrackIndex: 1, ChannelFormat: "AC_SRC1"}
	g.TrackUIDs["ATU_SRC2"] = admmodel.TrackUID{ID: "ATU_SRC2", TrackIndex: 2, ChannelFormat: "AC_SRC2"}
	return g
}

func TestSelectDirectMatrixResolvesInputBasis(t *testing.T) {
	g := matrixGraph()
	items, err := Select(g, Options{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, KindMatrix, item.Kind)
	assert.Equal(t, admmodel.MatrixDirect, item.MatrixSubType)
	assert.Equal(t, []string{"AC_OUT1"}, item.MatrixChannelFormats)
	require.Len(t, item.MatrixTrackSpecs, 2)
	assert.Equal(t, 0, item.MatrixTrackSpecs[0].Index)
	assert.Equal(t, 1, item.MatrixTrackSpecs[1].Index)
}

func TestSelectDecodeMatrixResolvesThroughEncodePack(t *testing.T) {
	g := matrixGraph()
	// Reclassify AP_MTX as the decode half of an encode/decode pair, whose
	// coefficients reference a separate encode pack's virtual channel,
	// itself bound to a physical track.
	decodePack := g.PackFormats["AP_MTX"]
	decodePack.DecodePackFormat = "AP_ENC"
	g.PackFormats["AP_MTX"] = decodePack
	outCF := g.ChannelFormats["AC_OUT1"]
	outCF.BlockFormats[0].Matrix = &admmodel.MatrixBlock{
		Coefficients: []admmodel.MatrixCoefficient{{InputChannelFormat: "AC_ENC1", Gain: 2}},
	}
	g.ChannelFormats["AC_OUT1"] = outCF

	g.PackFormats["AP_ENC"] = admmodel.PackFormat{
		ID: "AP_ENC", Type: admmodel.PackMatrix, ChannelFormats: []string{"AC_ENC1"},
		EncodePackFormat: "", // leaf: a real encode pack would set this on its own decode pair
	}
	g.ChannelFormats["AC_ENC1"] = admmodel.ChannelFormat{
		ID: "AC_ENC1", Type: admmodel.PackMatrix,
		BlockFormats: []admmodel.BlockFormat{{
			ID: "AB_ENC1", Type: admmodel.PackMatrix, Duration: 1,
			Matrix: &admmodel.MatrixBlock{Coefficients: []admmodel.MatrixCoefficient{
				{InputChannelFormat: "AC_SRC1", Gain: 1},
			}},
		}},
	}

	items, err := Select(g, Options{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, admmodel.MatrixDecode, item.MatrixSubType)
	require.Len(t, item.MatrixTrackSpecs, 1)
	spec := item.MatrixTrackSpecs[0]
	assert.Equal(t, trackspec.KindMatrixCoefficient, spec.Kind)
	assert.Equal(t, 2.0, spec.Coeff.Gain)
	assert.Equal(t, trackspec.KindMatrixCoefficient, spec.Input.Kind)
	assert.Equal(t, 0, spec.Input.Input.Index)
}

func TestSelectEncodeDecodeMatrixResolvesEveryBlock(t *testing.T) {
	g := matrixGraph()
	decodePack := g.PackFormats["AP_MTX"]
	decodePack.DecodePackFormat = "AP_ENC"
	g.PackFormats["AP_MTX"] = decodePack
	outCF := g.ChannelFormats["AC_OUT1"]
	outCF.BlockFormats = []admmodel.BlockFormat{
		{
			ID: "AB_OUT1", Type: admmodel.PackMatrix, RTime: 0, Duration: 1,
			Matrix: &admmodel.MatrixBlock{Coefficients: []admmodel.MatrixCoefficient{
				{InputChannelFormat: "AC_SRC1", Gain: 1},
			}},
		},
		{
			ID: "AB_OUT2", Type: admmodel.PackMatrix, RTime: 1, Duration: 1,
			Matrix: &admmodel.MatrixBlock{Coefficients: []admmodel.MatrixCoefficient{
				{InputChannelFormat: "AC_SRC1", Gain: 0.25},
			}},
		},
	}
	g.ChannelFormats["AC_OUT1"] = outCF

	items, err := Select(g, Options{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, admmodel.MatrixDecode, item.MatrixSubType)
	require.Len(t, item.MatrixTrackSpecs, 2)
	assert.Equal(t, 1.0, item.MatrixTrackSpecs[0].Coeff.Gain)
	assert.Equal(t, 0.25, item.MatrixTrackSpecs[1].Coeff.Gain)

	indices := item.MatrixBlockSpecIndex["AC_OUT1"]
	require.Len(t, indices, 2)
	assert.Equal(t, []int{0, 1}, indices)
}
