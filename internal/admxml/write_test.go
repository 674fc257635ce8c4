package admxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
	"github.com/ebu/ebu-adm-renderer/internal/geom"
)

func TestWriteParseRoundTrip(t *testing.T) {
	g := admmodel.NewGraph()
	g.Programmes["APR_1001"] = admmodel.Programme{ID: "APR_1001", Name: "Test", Contents: []string{"ACO_1001"}}
	g.Contents["ACO_1001"] = admmodel.Content{ID: "ACO_1001", Name: "Content", Objects: []string{"AO_1001"}}
	g.Objects["AO_1001"] = admmodel.Object{
		ID: "AO_1001", Name: "Object", PackFormat: "AP_00031001",
		TrackUIDs: []string{"ATU_00000001"}, Importance: 10,
	}
	g.PackFormats["AP_00031001"] = admmodel.PackFormat{
		ID: "AP_00031001", Type: admmodel.PackObjects, ChannelFormats: []string{"AC_00031001"}, Importance: 10,
	}
	g.ChannelFormats["AC_00031001"] = admmodel.ChannelFormat{
		ID: "AC_00031001", Name: "Chan", Type: admmodel.PackObjects,
		BlockFormats: []admmodel.BlockFormat{{
			ID: "AB_00031001_00000001", Type: admmodel.PackObjects, RTime: 0, Duration: 1,
			Objects: &admmodel.ObjectsBlock{
				PositionPolar: &geom.Polar{Azimuth: 30, Elevation: 0, Distance: 1},
				Gain:          1, Importance: 10,
			},
		}},
	}
	g.TrackUIDs["ATU_00000001"] = admmodel.TrackUID{
		ID: "ATU_00000001", TrackIndex: 1, PackFormat: "AP_00031001", ChannelFormat: "AC_00031001",
	}

	out, err := Write(g)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<ebuCoreMain>")
	assert.Contains(t, string(out), "AP_00031001")
	assert.Contains(t, string(out), "audioTrackFormat")
	assert.Contains(t, string(out), "audioStreamFormat")

	g2, err := Parse(out, map[string]int{"ATU_00000001": 1})
	require.NoError(t, err)

	require.Contains(t, g2.Objects, "AO_1001")
	require.Equal(t, admmodel.PackObjects, g2.PackFormats["AP_00031001"].Type)
	cf := g2.ChannelFormats["AC_00031001"]
	require.Len(t, cf.BlockFormats, 1)
	require.NotNil(t, cf.BlockFormats[0].Objects)
	require.NotNil(t, cf.BlockFormats[0].Objects.PositionPolar)
	assert.InDelta(t, 30, cf.BlockFormats[0].Objects.PositionPolar.Azimuth, 1e-9)
	assert.InDelta(t, 1.0, cf.BlockFormats[0].Duration, 1e-9)
}

func TestWriteParseRoundTripPreservesZoneExclusion(t *testing.T) {
	g := admmodel.NewGraph()
	g.ChannelFormats["AC_00031001"] = admmodel.ChannelFormat{
		ID: "AC_00031001", Type: admmodel.PackObjects,
		BlockFormats: []admmodel.BlockFormat{{
			ID: "AB_00031001_00000001", Type: admmodel.PackObjects, RTime: 0, Duration: 1,
			Objects: &admmodel.ObjectsBlock{
				PositionPolar: &geom.Polar{Azimuth: 0, Elevation: 0, Distance: 1},
				Gain:          1,
				ZoneExclusions: []admmodel.Zone{
					{MinAz: -45, MaxAz: 45, MinEl: -10, MaxEl: 10},
				},
			},
		}},
	}

	out, err := Write(g)
	require.NoError(t, err)

	g2, err := Parse(out, nil)
	require.NoError(t, err)

	bf := g2.ChannelFormats["AC_00031001"].BlockFormats[0]
	require.Len(t, bf.Objects.ZoneExclusions, 1)
	z := bf.Objects.ZoneExclusions[0]
	assert.InDelta(t, -45, z.MinAz, 1e-9)
	assert.InDelta(t, 45, z.MaxAz, 1e-9)
	assert.InDelta(t, -10, z.MinEl, 1e-9)
	assert.InDelta(t, 10, z.MaxEl, 1e-9)
}

func TestTrackAndStreamFormatsBothDirections(t *testing.T) {
	g := admmodel.NewGraph()
	g.TrackUIDs["ATU_00000001"] = admmodel.TrackUID{ID: "ATU_00000001", TrackIndex: 1, ChannelFormat: "AC_00031001"}

	tracks, streams := trackAndStreamFormats(g)
	require.Len(t, tracks, 1)
	require.Len(t, streams, 1)
	assert.Equal(t, streams[0].ID, tracks[0].StreamFormatRef.Ref)
	assert.Equal(t, tracks[0].ID, streams[0].TrackFormatRef.Ref)
	assert.Equal(t, "AC_00031001", streams[0].ChannelFormatRef.Ref)
}

func TestFormatTimecode(t *testing.T) {
	assert.Equal(t, "00:00:01.500000", formatTimecode(1.5))
	assert.Equal(t, "00:01:00.000000", formatTimecode(60))
	assert.Equal(t, "01:00:00.000000", formatTimecode(3600))
}

func TestWriteCHNAParseRoundTrip(t *testing.T) {
	entries := []CHNAEntry{
		{TrackIndex: 1, UID: "ATU_00000001", TrackFormatID: "AT_00031001_01", PackFormatID: "AP_00031001"},
		{TrackIndex: 2, UID: "ATU_00000002", TrackFormatID: "AT_00031002_01", PackFormatID: "AP_00031001"},
	}
	data := WriteCHNA(entries)
	index, err := ParseCHNA(data)
	require.NoError(t, err)
	assert.Equal(t, 1, index["ATU_00000001"])
	assert.Equal(t, 2, index["ATU_00000002"])
}
