package bw64

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seekWriter adapts a bytes.Buffer into io.WriteSeeker for the writer test
// by buffering fully in memory and tracking a virtual write cursor.
type seekWriter struct {
	data []byte
	pos  int64
}

func (s *seekWriter) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	copy(s.data[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekWriter) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		s.pos = offset
	case 1:
		s.pos += offset
	case 2:
		s.pos = int64(len(s.data)) + offset
	}
	return s.pos, nil
}

func TestWriterRoundTripsThroughReader(t *testing.T) {
	sw := &seekWriter{}
	w, err := Create(sw, 2, 48000)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrames([]float64{0.5, -0.5, 1, -1}))
	require.NoError(t, w.Close())

	reader := bytes.NewReader(sw.data)
	rd, err := Open(reader)
	require.NoError(t, err)
	assert.Equal(t, 2, rd.NumTracks())
	assert.Equal(t, 48000, rd.SampleRate())

	left := rd.Block(0, 2)
	right := rd.Block(1, 2)
	assert.InDelta(t, 0.5, left[0], 1e-3)
	assert.InDelta(t, 1.0, left[1], 1e-3)
	assert.InDelta(t, -0.5, right[0], 1e-3)
	assert.InDelta(t, -1.0, right[1], 1e-3)
}

func TestOpenRejectsNonRIFF(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("not a riff file at all............")))
	assert.Error(t, err)
}

func TestDataBytesAndWriteRawBytesRoundTrip(t *testing.T) {
	sw := &seekWriter{}
	w, err := Create(sw, 1, 48000)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrames([]float64{0.5, -0.5, 1, -1}))
	require.NoError(t, w.Close())

	rd, err := Open(bytes.NewReader(sw.data))
	require.NoError(t, err)
	assert.Equal(t, 4, rd.TotalFrames())

	raw, err := rd.DataBytes()
	require.NoError(t, err)
	assert.Len(t, raw, 8) // 4 frames x 1 channel x 2 bytes

	sw2 := &seekWriter{}
	w2, err := Create(sw2, 1, 48000)
	require.NoError(t, err)
	require.NoError(t, w2.WriteRawBytes(raw))
	require.NoError(t, w2.Close())

	rd2, err := Open(bytes.NewReader(sw2.data))
	require.NoError(t, err)
	samples := rd2.Block(0, 4)
	assert.InDelta(t, 0.5, samples[0], 1e-3)
	assert.InDelta(t, -1.0, samples[3], 1e-3)
}

func TestCreateFullRoundTripsAXMLAndCHNA(t *testing.T) {
	sw := &seekWriter{}
	axml := []byte("<ebuCoreMain/>") // even length, no pad byte
	chna := []byte{1, 2, 3}          // odd length, exercises the pad byte
	w, err := CreateFull(sw, 1, 44100, axml, chna)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrames([]float64{0.25}))
	require.NoError(t, w.Close())

	rd, err := Open(bytes.NewReader(sw.data))
	require.NoError(t, err)
	assert.Equal(t, axml, rd.AXML)
	assert.Equal(t, chna, rd.CHNA)
	assert.Equal(t, 44100, rd.SampleRate())
}
