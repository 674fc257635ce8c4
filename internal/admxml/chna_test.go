package admxml

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCHNA(t *testing.T, entries map[string]uint16) []byte {
	t.Helper()
	buf := make([]byte, 4+len(entries)*chnaRecordSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(entries)))
	offset := 4
	for uid, idx := range entries {
		binary.LittleEndian.PutUint16(buf[offset:offset+2], idx)
		copy(buf[offset+2:offset+14], uid)
		offset += chnaRecordSize
	}
	return buf
}

func TestParseCHNA(t *testing.T) {
	data := buildCHNA(t, map[string]uint16{"ATU_00000001": 1, "ATU_00000002": 2})
	idx, err := ParseCHNA(data)
	require.NoError(t, err)
	assert.Equal(t, 1, idx["ATU_00000001"])
	assert.Equal(t, 2, idx["ATU_00000002"])
}

func TestParseCHNARejectsTruncated(t *testing.T) {
	_, err := ParseCHNA([]byte{1, 0})
	assert.Error(t, err)
}
