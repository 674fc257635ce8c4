package admxml

import (
	"encoding/binary"
	"strings"

	"github.com/ebu/ebu-adm-renderer/internal/rendererrors"
)

// chnaRecord is one fixed-width CHNA table entry per ITU-R BS.2088: a
// 1-based track index and the ASCII audioTrackUID/audioTrackFormat/
// audioPackFormat identifiers it binds to that track.
type chnaRecord struct {
	TrackIndex    uint16
	UID           [12]byte
	TrackFormatID [14]byte
	PackFormatID  [11]byte
}

const chnaRecordSize = 2 + 12 + 14 + 11

// ParseCHNA decodes a CHNA chunk's raw bytes (bw64.Reader.CHNA) into a map
// from audioTrackUID ID to its 1-based physical track index, the shape
// Parse's chnaIndex parameter expects.
func ParseCHNA(data []byte) (map[string]int, error) {
	if len(data) < 4 {
		return nil, rendererrors.New(rendererrors.AdmParseError, "CHNA chunk too short")
	}
	numUIDs := binary.LittleEndian.Uint16(data[0:2])
	// data[2:4] is reserved.
	offset := 4

	out := make(map[string]int, numUIDs)
	for i := 0; i < int(numUIDs); i++ {
		if offset+chnaRecordSize > len(data) {
			return nil, rendererrors.New(rendererrors.AdmParseError, "CHNA chunk truncated at record %d", i)
		}
		var rec chnaRecord
		rec.TrackIndex = binary.LittleEndian.Uint16(data[offset : offset+2])
		copy(rec.UID[:], data[offset+2:offset+14])
		copy(rec.TrackFormatID[:], data[offset+14:offset+28])
		copy(rec.PackFormatID[:], data[offset+28:offset+39])
		offset += chnaRecordSize

		uid := trimNulls(rec.UID[:])
		out[uid] = int(rec.TrackIndex)
	}
	return out, nil
}

func trimNulls(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}

// CHNAEntry is one outgoing CHNA table row, the inverse of what ParseCHNA
// decodes: a 1-based physical track index bound to the trackUID/trackFormat/
// packFormat triple that occupies it.
type CHNAEntry struct {
	TrackIndex    int
	UID           string
	TrackFormatID string
	PackFormatID  string
}

// WriteCHNA encodes entries into a CHNA chunk's raw bytes, the format
// ParseCHNA reads back. Used by the admrender-make-test-bwf and
// admrender-ambix-to-bwf tools to produce a CHNA chunk alongside a
// synthesised AXML document.
func WriteCHNA(entries []CHNAEntry) []byte {
	out := make([]byte, 4+len(entries)*chnaRecordSize)
	binary.LittleEndian.PutUint16(out[0:2], uint16(len(entries)))
	offset := 4
	for _, e := range entries {
		binary.LittleEndian.PutUint16(out[offset:offset+2], uint16(e.TrackIndex))
		copy(out[offset+2:offset+14], e.UID)
		copy(out[offset+14:offset+28], e.TrackFormatID)
		copy(out[offset+28:offset+39], e.PackFormatID)
		offset += chnaRecordSize
	}
	return out
}
