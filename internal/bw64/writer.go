package bw64

import (
	"encoding/binary"
	"io"
)

// Writer emits a canonical 16-bit PCM WAVE file for the renderer's output
// bus. BW64's only difference from plain WAVE is the ds64 chunk for files
// over 4GiB; this renderer's offline batch scope never needs it (spec §1
// scopes container I/O out; this is the minimal real implementation that
// exercises it).
type Writer struct {
	w          io.WriteSeeker
	numChans   int
	sampleRate int
	dataStart  int64
	dataBytes  int64
}

// Create writes the RIFF/WAVE/fmt header and positions for streamed PCM
// writes via WriteFrames. The data chunk's size field is backpatched by
// Close.
func Create(w io.WriteSeeker, numChannels, sampleRate int) (*Writer, error) {
	return CreateFull(w, numChannels, sampleRate, nil, nil)
}

// CreateFull is Create plus optional axml/chna chunk payloads, written
// immediately after the fmt chunk and before data, matching the chunk order
// Open expects. Either may be nil to omit that chunk.
func CreateFull(w io.WriteSeeker, numChannels, sampleRate int, axml, chna []byte) (*Writer, error) {
	blockAlign := uint16(numChannels * 2)
	fmtChunk := FmtChunk{
		AudioFormat:   1,
		NumChannels:   uint16(numChannels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(blockAlign),
		BlockAlign:    blockAlign,
		BitsPerSample: 16,
	}

	if err := writeChunkHeader(w, "RIFF", 0); err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte("WAVE")); err != nil {
		return nil, err
	}
	if err := writeChunkHeader(w, "fmt ", 16); err != nil {
		return nil, err
	}
	if err := binary.Write(w, binary.LittleEndian, fmtChunk); err != nil {
		return nil, err
	}
	if axml != nil {
		if err := writePaddedChunk(w, "axml", axml); err != nil {
			return nil, err
		}
	}
	if chna != nil {
		if err := writePaddedChunk(w, "chna", chna); err != nil {
			return nil, err
		}
	}
	if err := writeChunkHeader(w, "data", 0); err != nil {
		return nil, err
	}
	dataStart, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	return &Writer{w: w, numChans: numChannels, sampleRate: sampleRate, dataStart: dataStart}, nil
}

// writePaddedChunk writes one id+size+data chunk, with a trailing zero pad
// byte when data has odd length, per RIFF's word-alignment rule.
func writePaddedChunk(w io.Writer, id string, data []byte) error {
	if err := writeChunkHeader(w, id, uint32(len(data))); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data)%2 == 1 {
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}
	return nil
}

func writeChunkHeader(w io.Writer, id string, size uint32) error {
	var h ChunkHeader
	copy(h.ID[:], id)
	h.Size = size
	return binary.Write(w, binary.LittleEndian, h)
}

// WriteFrames appends n interleaved frames (row-major, n x numChans,
// clamped to [-1, 1] and quantised to 16-bit PCM).
func (w *Writer) WriteFrames(samples []float64) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(v))
	}
	if _, err := w.w.Write(buf); err != nil {
		return err
	}
	w.dataBytes += int64(len(buf))
	return nil
}

// WriteRawBytes appends already-quantised PCM bytes verbatim, for tools that
// splice an existing file's audio payload through unchanged (e.g.
// admrender-replace-axml) rather than resampling it through WriteFrames.
func (w *Writer) WriteRawBytes(data []byte) error {
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	w.dataBytes += int64(len(data))
	return nil
}

// Close backpatches the RIFF and data chunk sizes now that the total byte
// count is known.
func (w *Writer) Close() error {
	riffSize := uint32(w.dataStart + w.dataBytes - 8) // everything after the RIFF id+size fields
	if _, err := w.w.Seek(4, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(w.w, binary.LittleEndian, riffSize); err != nil {
		return err
	}
	if _, err := w.w.Seek(w.dataStart-4, io.SeekStart); err != nil {
		return err
	}
	return binary.Write(w.w, binary.LittleEndian, uint32(w.dataBytes))
}
