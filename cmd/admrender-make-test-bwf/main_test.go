package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
)

func TestBuildGraphBindsOneTrackPerSpeaker(t *testing.T) {
	g, chna := buildGraph([]string{"M+030", "M-030"})

	require.Len(t, chna, 2)
	assert.Equal(t, 1, chna[0].TrackIndex)
	assert.Equal(t, 2, chna[1].TrackIndex)

	obj := g.Objects["AO_1001"]
	require.Len(t, obj.TrackUIDs, 2)

	pack := g.PackFormats["AP_00010001"]
	assert.Equal(t, admmodel.PackDirectSpeakers, pack.Type)
	require.Len(t, pack.ChannelFormats, 2)

	cf := g.ChannelFormats[pack.ChannelFormats[0]]
	require.NotNil(t, cf.BlockFormats[0].DirectSpeaker)
	assert.Equal(t, []string{"M+030"}, cf.BlockFormats[0].DirectSpeaker.SpeakerLabels)
	require.NotNil(t, cf.BlockFormats[0].DirectSpeaker.PositionPolar)
	assert.InDelta(t, 30, cf.BlockFormats[0].DirectSpeaker.PositionPolar.Azimuth, 1e-9)
}
