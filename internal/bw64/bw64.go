// Package bw64 is the out-of-scope BW64/RIFF chunked file I/O collaborator
// (spec §1: "BW64/RIFF chunked file I/O and the AXML/CHNA byte layout" is
// named only as an external interface). It provides just enough of a real
// reader/writer to drive the renderer end to end: chunk headers, the fmt
// chunk, streamed PCM data access, and raw AXML/CHNA byte extraction.
//
// Chunk headers are read the way the teacher's AGWPE code reads its fixed
// binary.Read headers (cmd/samoyed-appserver/agwlib.go): a small fixed-size
// struct decoded with encoding/binary, little-endian, one chunk at a time.
package bw64

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ChunkHeader is a RIFF chunk's 8-byte id+size prefix.
type ChunkHeader struct {
	ID   [4]byte
	Size uint32
}

// FmtChunk is the canonical PCM/IEEE-float "fmt " chunk (WAVE_FORMAT_PCM or
// WAVE_FORMAT_IEEE_FLOAT; BW64 axml/chna coexist with either).
type FmtChunk struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Reader streams a BW64/WAVE file's chunks: the fmt chunk, the raw axml/chna
// bytes (read fully, since metadata is small relative to audio), and the
// data chunk accessed as a block-based SampleSource (trackspec.SampleSource
// matches this shape exactly: Block(track, n) + SampleRate()).
type Reader struct {
	Format   FmtChunk
	AXML     []byte // raw, unparsed AXML chunk bytes; internal/admxml parses these
	CHNA     []byte // raw, unparsed CHNA chunk bytes
	dataSize uint32

	r      io.ReadSeeker
	dataAt int64 // file offset of the first data byte
	cursor int64 // current read offset in samples-per-channel, from dataAt
}

// Open reads every chunk header up front, capturing the fmt/axml/chna
// payloads and the data chunk's extent, leaving the read cursor positioned
// at the start of the data chunk for subsequent Block calls.
func Open(r io.ReadSeeker) (*Reader, error) {
	var riffHeader ChunkHeader
	if err := binary.Read(r, binary.LittleEndian, &riffHeader); err != nil {
		return nil, fmt.Errorf("bw64: reading RIFF header: %w", err)
	}
	if string(riffHeader.ID[:]) != "RIFF" {
		return nil, fmt.Errorf("bw64: not a RIFF file (got %q)", riffHeader.ID)
	}
	var wave [4]byte
	if _, err := io.ReadFull(r, wave[:]); err != nil {
		return nil, fmt.Errorf("bw64: reading WAVE id: %w", err)
	}
	if string(wave[:]) != "WAVE" {
		return nil, fmt.Errorf("bw64: not a WAVE file (got %q)", wave)
	}

	rd := &Reader{r: r}
	for {
		var h ChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("bw64: reading chunk header: %w", err)
		}
		id := string(h.ID[:])
		switch id {
		case "fmt ":
			if err := binary.Read(r, binary.LittleEndian, &rd.Format); err != nil {
				return nil, fmt.Errorf("bw64: reading fmt chunk: %w", err)
			}
			if err := skipPad(r, h.Size-16); err != nil {
				return nil, err
			}
		case "axml":
			buf := make([]byte, h.Size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("bw64: reading axml chunk: %w", err)
			}
			rd.AXML = buf
			if err := skipPad(r, 0); err != nil {
				return nil, err
			}
		case "chna":
			buf := make([]byte, h.Size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("bw64: reading chna chunk: %w", err)
			}
			rd.CHNA = buf
		case "data":
			pos, err := r.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, fmt.Errorf("bw64: locating data chunk: %w", err)
			}
			rd.dataAt = pos
			rd.dataSize = h.Size
			if _, err := r.Seek(int64(h.Size), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("bw64: skipping data chunk: %w", err)
			}
		default:
			if _, err := r.Seek(int64(h.Size), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("bw64: skipping chunk %q: %w", id, err)
			}
		}
		if h.Size%2 == 1 {
			if _, err := r.Seek(1, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("bw64: skipping chunk pad: %w", err)
			}
		}
	}

	if _, err := r.Seek(rd.dataAt, io.SeekStart); err != nil {
		return nil, fmt.Errorf("bw64: rewinding to data chunk: %w", err)
	}
	return rd, nil
}

func skipPad(r io.ReadSeeker, n uint32) error {
	if n == 0 {
		return nil
	}
	_, err := r.Seek(int64(n), io.SeekCurrent)
	return err
}

// SampleRate implements trackspec.SampleSource.
func (r *Reader) SampleRate() int { return int(r.Format.SampleRate) }

// NumTracks is the physical track count (channel count) of the input file.
func (r *Reader) NumTracks() int { return int(r.Format.NumChannels) }

// Block implements trackspec.SampleSource: reads n frames from the given
// physical track (0-based), starting at the shared read cursor (shared
// across all tracks, since BW64 PCM data is interleaved). Block does not
// move the cursor; Advance does. Frames past the end of the stream are
// returned as zeros.
func (r *Reader) Block(track, n int) []float64 {
	nCh := r.NumTracks()
	if track < 0 || track >= nCh || r.Format.BitsPerSample != 16 {
		return make([]float64, n)
	}

	frameBytes := int64(r.Format.BlockAlign)
	if frameBytes == 0 {
		frameBytes = int64(nCh) * 2
	}
	totalFrames := int64(r.dataSize) / frameBytes
	start := r.cursor
	end := start + int64(n)
	if end > totalFrames {
		end = totalFrames
	}
	count := int(end - start)
	out := make([]float64, n)
	if count <= 0 {
		return out
	}

	buf := make([]byte, count*int(frameBytes))
	offset := r.dataAt + start*frameBytes
	if _, err := r.r.Seek(offset, io.SeekStart); err != nil {
		return out
	}
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return out
	}
	for i := 0; i < count; i++ {
		sampleOffset := i*int(frameBytes) + track*2
		v := int16(binary.LittleEndian.Uint16(buf[sampleOffset : sampleOffset+2]))
		out[i] = float64(v) / 32768.0
	}
	return out
}

// Advance moves the shared read cursor forward by n frames, called by the
// top-level driver once per chunk after every track's Block has been read
// for that chunk (spec §5's pull-based chunked model).
func (r *Reader) Advance(n int) {
	r.cursor += int64(n)
}

// TotalFrames is the data chunk's frame count, derived from its byte size
// and the fmt chunk's block alignment.
func (r *Reader) TotalFrames() int {
	frameBytes := int64(r.Format.BlockAlign)
	if frameBytes == 0 {
		frameBytes = int64(r.NumTracks()) * 2
	}
	if frameBytes == 0 {
		return 0
	}
	return int(int64(r.dataSize) / frameBytes)
}

// DataBytes reads the entire data chunk's raw bytes, uninterpreted. Used by
// tools (admrender-replace-axml) that splice a new axml/chna chunk into an
// existing file without touching or re-quantising the audio payload.
func (r *Reader) DataBytes() ([]byte, error) {
	buf := make([]byte, r.dataSize)
	if _, err := r.r.Seek(r.dataAt, io.SeekStart); err != nil {
		return nil, fmt.Errorf("bw64: seeking to data chunk: %w", err)
	}
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, fmt.Errorf("bw64: reading data chunk: %w", err)
	}
	if _, err := r.r.Seek(r.dataAt, io.SeekStart); err != nil {
		return nil, fmt.Errorf("bw64: rewinding after data chunk read: %w", err)
	}
	return buf, nil
}
