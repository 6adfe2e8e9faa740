// Package wavutil decodes, concatenates, and encodes RIFF/WAVE audio.
//
// The stitcher uses it to join per-chunk synthesis results by straight
// sample-buffer concatenation: PCM payloads are appended as-is under a
// single new header, with no cross-fade and no inserted silence.
package wavutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Canonical header sizes.
const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
	fmtChunkSize    = 16
	bitsPerByte     = 8
)

// Static errors.
var (
	// ErrNotWAV indicates data without a RIFF/WAVE signature.
	ErrNotWAV = errors.New("data is not a RIFF/WAVE stream")
	// ErrTruncated indicates a stream that ends inside a chunk.
	ErrTruncated = errors.New("wav stream truncated")
	// ErrMissingChunk indicates a stream without fmt or data chunks.
	ErrMissingChunk = errors.New("wav stream missing required chunk")
	// ErrFormatMismatch indicates segments whose formats differ.
	ErrFormatMismatch = errors.New("wav segments have different formats")
	// ErrNoSegments indicates a concatenation of zero segments.
	ErrNoSegments = errors.New("no wav segments to concatenate")
)

// Format describes the sample format of a PCM stream.
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// byteRate returns the number of payload bytes per second of audio.
func (f Format) byteRate() uint32 {
	return f.SampleRate * uint32(f.Channels) * uint32(f.BitsPerSample) / bitsPerByte
}

// blockAlign returns the size of one sample frame in bytes.
func (f Format) blockAlign() uint16 {
	return f.Channels * f.BitsPerSample / bitsPerByte
}

// Segment is decoded WAV audio: the sample format plus the raw PCM payload.
type Segment struct {
	Format Format
	Data   []byte
}

// Duration returns the playback time of the segment.
func (s *Segment) Duration() time.Duration {
	rate := s.Format.byteRate()
	if rate == 0 {
		return 0
	}

	return time.Duration(float64(len(s.Data)) / float64(rate) * float64(time.Second))
}

// Decode parses a RIFF/WAVE byte stream. Chunks other than fmt and data are
// skipped, so streams with LIST or fact chunks decode fine.
func Decode(data []byte) (*Segment, error) {
	if len(data) < riffHeaderSize ||
		string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		format   *Format
		payload  []byte
		sawData  bool
		position = riffHeaderSize
	)

	for position+chunkHeaderSize <= len(data) {
		chunkID := string(data[position : position+4])
		chunkLen := int(binary.LittleEndian.Uint32(data[position+4 : position+8]))
		body := position + chunkHeaderSize

		if body+chunkLen > len(data) {
			// Tolerate a short final data chunk: streamed writers
			// often leave a placeholder size in the header.
			if chunkID == "data" {
				chunkLen = len(data) - body
			} else {
				return nil, fmt.Errorf("%w: chunk %q", ErrTruncated, chunkID)
			}
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < fmtChunkSize {
				return nil, fmt.Errorf("%w: fmt chunk too short", ErrTruncated)
			}

			format = &Format{
				AudioFormat:   binary.LittleEndian.Uint16(data[body : body+2]),
				Channels:      binary.LittleEndian.Uint16(data[body+2 : body+4]),
				SampleRate:    binary.LittleEndian.Uint32(data[body+4 : body+8]),
				BitsPerSample: binary.LittleEndian.Uint16(data[body+14 : body+16]),
			}
		case "data":
			payload = data[body : body+chunkLen]
			sawData = true
		}

		// Chunks are word-aligned; odd sizes carry a pad byte.
		position = body + chunkLen + chunkLen%2
	}

	if format == nil {
		return nil, fmt.Errorf("%w: fmt", ErrMissingChunk)
	}

	if !sawData {
		return nil, fmt.Errorf("%w: data", ErrMissingChunk)
	}

	return &Segment{Format: *format, Data: payload}, nil
}

// Concat joins segments in order into a single segment. All segments must
// share an identical sample format.
func Concat(segments []*Segment) (*Segment, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	format := segments[0].Format
	total := 0

	for i, segment := range segments {
		if segment.Format != format {
			return nil, fmt.Errorf(
				"%w: segment %d is %+v, want %+v",
				ErrFormatMismatch, i+1, segment.Format, format,
			)
		}

		total += len(segment.Data)
	}

	joined := make([]byte, 0, total)
	for _, segment := range segments {
		joined = append(joined, segment.Data...)
	}

	return &Segment{Format: format, Data: joined}, nil
}

// Encode serializes a segment as a canonical 44-byte-header WAV stream.
func Encode(segment *Segment) []byte {
	format := segment.Format
	dataLen := len(segment.Data)

	out := make([]byte, 0, riffHeaderSize+chunkHeaderSize+fmtChunkSize+chunkHeaderSize+dataLen)
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(4+chunkHeaderSize+fmtChunkSize+chunkHeaderSize+dataLen))
	out = append(out, "WAVE"...)

	out = append(out, "fmt "...)
	out = binary.LittleEndian.AppendUint32(out, fmtChunkSize)
	out = binary.LittleEndian.AppendUint16(out, format.AudioFormat)
	out = binary.LittleEndian.AppendUint16(out, format.Channels)
	out = binary.LittleEndian.AppendUint32(out, format.SampleRate)
	out = binary.LittleEndian.AppendUint32(out, format.byteRate())
	out = binary.LittleEndian.AppendUint16(out, format.blockAlign())
	out = binary.LittleEndian.AppendUint16(out, format.BitsPerSample)

	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(dataLen))
	out = append(out, segment.Data...)

	return out
}
