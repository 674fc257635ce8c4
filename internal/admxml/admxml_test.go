package admxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebu/ebu-adm-renderer/internal/admmodel"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<ebuCoreMain>
  <coreMetadata>
    <format>
      <audioFormatExtended>
        <audioProgramme audioProgrammeID="APR_1001" audioProgrammeName="Test">
          <audioContentIDRef>ACO_1001</audioContentIDRef>
        </audioProgramme>
        <audioContent audioContentID="ACO_1001" audioContentName="Content">
          <audioObjectIDRef>AO_1001</audioObjectIDRef>
        </audioContent>
        <audioObject audioObjectID="AO_1001" audioObjectName="Object">
          <audioPackFormatIDRef>AP_00031001</audioPackFormatIDRef>
          <audioTrackUIDRef>ATU_00000001</audioTrackUIDRef>
        </audioObject>
        <audioPackFormat audioPackFormatID="AP_00031001">
          <typeLabel>0003</typeLabel>
          <audioChannelFormatIDRef>AC_00031001</audioChannelFormatIDRef>
        </audioPackFormat>
        <audioChannelFormat audioChannelFormatID="AC_00031001" audioChannelFormatName="Chan">
          <typeLabel>0003</typeLabel>
          <audioBlockFormat audioBlockFormatID="AB_00031001_00000001">
            <rtime>00:00:00.000000</rtime>
            <duration>00:00:01.000000</duration>
            <position coordinate="azimuth">30</position>
            <position coordinate="elevation">0</position>
            <position coordinate="distance">1</position>
            <gain>1</gain>
          </audioBlockFormat>
        </audioChannelFormat>
        <audioTrackUID UID="ATU_00000001">
          <audioPackFormatIDRef>AP_00031001</audioPackFormatIDRef>
          <audioChannelFormatIDRef>AC_00031001</audioChannelFormatIDRef>
        </audioTrackUID>
      </audioFormatExtended>
    </format>
  </coreMetadata>
</ebuCoreMain>`

func TestParseBuildsGraph(t *testing.T) {
	g, err := Parse([]byte(sampleDoc), map[string]int{"ATU_00000001": 1})
	require.NoError(t, err)

	require.Contains(t, g.Programmes, "APR_1001")
	require.Contains(t, g.Objects, "AO_1001")
	require.Contains(t, g.PackFormats, "AP_00031001")
	require.Equal(t, admmodel.PackObjects, g.PackFormats["AP_00031001"].Type)

	cf := g.ChannelFormats["AC_00031001"]
	require.Len(t, cf.BlockFormats, 1)
	bf := cf.BlockFormats[0]
	require.NotNil(t, bf.Objects)
	require.NotNil(t, bf.Objects.PositionPolar)
	assert.InDelta(t, 30, bf.Objects.PositionPolar.Azimuth, 1e-9)
	assert.InDelta(t, 1.0, bf.Duration, 1e-9)

	tu := g.TrackUIDs["ATU_00000001"]
	assert.Equal(t, 1, tu.TrackIndex)
	assert.False(t, tu.Silent)
}

const zoneExclusionDoc = `<?xml version="1.0" encoding="UTF-8"?>
<ebuCoreMain>
  <coreMetadata>
    <format>
      <audioFormatExtended>
        <audioChannelFormat audioChannelFormatID="AC_00031001" audioChannelFormatName="Chan">
          <typeLabel>0003</typeLabel>
          <audioBlockFormat audioBlockFormatID="AB_00031001_00000001">
            <rtime>00:00:00.000000</rtime>
            <duration>00:00:01.000000</duration>
            <position coordinate="azimuth">0</position>
            <position coordinate="elevation">0</position>
            <position coordinate="distance">1</position>
            <gain>1</gain>
            <zoneExclusion>
              <zone minAzimuth="-45" maxAzimuth="45" minElevation="-10" maxElevation="10"/>
            </zoneExclusion>
          </audioBlockFormat>
        </audioChannelFormat>
      </audioFormatExtended>
    </format>
  </coreMetadata>
</ebuCoreMain>`

func TestParseZoneExclusionReadsAttributeBounds(t *testing.T) {
	g, err := Parse([]byte(zoneExclusionDoc), nil)
	require.NoError(t, err)

	bf := g.ChannelFormats["AC_00031001"].BlockFormats[0]
	require.Len(t, bf.Objects.ZoneExclusions, 1)
	z := bf.Objects.ZoneExclusions[0]
	assert.False(t, z.IsCartesian)
	assert.InDelta(t, -45, z.MinAz, 1e-9)
	assert.InDelta(t, 45, z.MaxAz, 1e-9)
	assert.InDelta(t, -10, z.MinEl, 1e-9)
	assert.InDelta(t, 10, z.MaxEl, 1e-9)
}

func TestParseTimecodeVariants(t *testing.T) {
	v, err := parseTimecode("00:00:01.500000")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, v, 1e-9)

	v2, err := parseTimecode("2.5")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, v2, 1e-9)
}

func TestParseRejectsUnknownTypeLabel(t *testing.T) {
	bad := `<ebuCoreMain><coreMetadata><format><audioFormatExtended>
<audioPackFormat audioPackFormatID="AP_1"><typeLabel>9999</typeLabel></audioPackFormat>
</audioFormatExtended></format></coreMetadata></ebuCoreMain>`
	_, err := Parse([]byte(bad), nil)
	assert.Error(t, err)
}
