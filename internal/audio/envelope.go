// Package audio implements the Hermes audio envelope: a little-endian
// RIFF/WAVE frame that carries PCM data together with optional correlation
// metadata chunks (capture timestamp, replay id, remaining replay frames).
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Chunk identifiers.
const (
	chunkRIFF = "RIFF"
	chunkWAVE = "WAVE"
	chunkFmt  = "fmt "
	chunkData = "data"
	chunkTime = "time"
	chunkRPID = "rpid"
	chunkRPRF = "rprf"
)

const (
	// HeaderSize is the size of the canonical header without metadata chunks.
	HeaderSize = 44

	// FormatPCM is the WAVE format code for linear PCM.
	FormatPCM uint16 = 1

	// UnknownLength marks a data chunk (and RIFF size) of unbounded length,
	// used when streaming.
	UnknownLength uint32 = 0xFFFFFFFF

	fmtChunkSize   = 16
	chunkHeaderLen = 8
)

// ErrFormat is the sentinel matched by every decode failure.
var ErrFormat = errors.New("invalid audio envelope")

// FormatError describes why an envelope could not be decoded.
type FormatError struct {
	Offset int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", ErrFormat, e.Offset, e.Reason)
}

// Is lets errors.Is(err, ErrFormat) match.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Envelope is one decoded audio frame.
type Envelope struct {
	Channels   uint16
	SampleRate uint32
	BitDepth   uint16
	Format     uint16

	// Optional metadata; nil/empty when the chunk is absent.
	TimeMS          *uint64
	ReplayID        string
	RemainingFrames *uint32

	// Streaming reports that the data chunk carried the unknown-length sentinel.
	Streaming bool

	Data []byte
}

// Options configures Encode.
type Options struct {
	Channels   uint16
	SampleRate uint32
	BitDepth   uint16

	TimeMS          *uint64
	ReplayID        string
	RemainingFrames *uint32

	// Streaming writes the unknown-length sentinel instead of len(data).
	Streaming bool
}

// DefaultOptions is the format used by the Hermes audio server: 16 kHz mono 16-bit PCM.
func DefaultOptions() Options {
	return Options{Channels: 1, SampleRate: 16000, BitDepth: 16}
}

// Uint64 and Uint32 are helpers for filling the optional metadata fields.
func Uint64(v uint64) *uint64 { return &v }
func Uint32(v uint32) *uint32 { return &v }

// Timestamp converts t to the millisecond epoch value stored in the time chunk.
func Timestamp(t time.Time) *uint64 {
	return Uint64(uint64(t.UnixMilli()))
}

// Encode wraps data in an envelope.
func Encode(data []byte, opts Options) ([]byte, error) {
	if opts.Channels == 0 {
		return nil, fmt.Errorf("encode audio envelope: channels must be positive")
	}
	if opts.SampleRate == 0 {
		return nil, fmt.Errorf("encode audio envelope: sample rate must be positive")
	}
	if opts.BitDepth == 0 || opts.BitDepth%8 != 0 {
		return nil, fmt.Errorf("encode audio envelope: bit depth %d is not a whole number of bytes", opts.BitDepth)
	}
	align := uint64(opts.Channels) * uint64(opts.BitDepth) / 8
	if align > math.MaxUint16 {
		return nil, fmt.Errorf("encode audio envelope: block align %d exceeds %d", align, math.MaxUint16)
	}
	if byteRate := uint64(opts.SampleRate) * align; byteRate > math.MaxUint32 {
		return nil, fmt.Errorf("encode audio envelope: byte rate %d exceeds %d", byteRate, uint64(math.MaxUint32))
	}

	size := HeaderSize + len(data)
	if opts.TimeMS != nil {
		size += chunkHeaderLen + 8
	}
	if opts.ReplayID != "" {
		size += chunkHeaderLen + len(opts.ReplayID)
	}
	if opts.RemainingFrames != nil {
		size += chunkHeaderLen + 4
	}

	riffSize, dataSize := UnknownLength, UnknownLength
	if !opts.Streaming {
		var err error
		if riffSize, dataSize, err = chunkSizes(size, len(data)); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, 0, size)
	le := binary.LittleEndian

	buf = append(buf, chunkRIFF...)
	buf = le.AppendUint32(buf, riffSize)
	buf = append(buf, chunkWAVE...)

	blockAlign := uint16(align)
	buf = append(buf, chunkFmt...)
	buf = le.AppendUint32(buf, fmtChunkSize)
	buf = le.AppendUint16(buf, FormatPCM)
	buf = le.AppendUint16(buf, opts.Channels)
	buf = le.AppendUint32(buf, opts.SampleRate)
	buf = le.AppendUint32(buf, opts.SampleRate*uint32(blockAlign))
	buf = le.AppendUint16(buf, blockAlign)
	buf = le.AppendUint16(buf, opts.BitDepth)

	if opts.TimeMS != nil {
		buf = append(buf, chunkTime...)
		buf = le.AppendUint32(buf, 8)
		buf = le.AppendUint64(buf, *opts.TimeMS)
	}
	if opts.ReplayID != "" {
		buf = append(buf, chunkRPID...)
		buf = le.AppendUint32(buf, uint32(len(opts.ReplayID)))
		buf = append(buf, opts.ReplayID...)
	}
	if opts.RemainingFrames != nil {
		buf = append(buf, chunkRPRF...)
		buf = le.AppendUint32(buf, 4)
		buf = le.AppendUint32(buf, *opts.RemainingFrames)
	}

	buf = append(buf, chunkData...)
	buf = le.AppendUint32(buf, dataSize)
	buf = append(buf, data...)

	return buf, nil
}

// chunkSizes returns the RIFF and data chunk sizes for a frame of size bytes
// holding dataLen bytes of audio. Both must fit below the streaming sentinel.
func chunkSizes(size, dataLen int) (riff, data uint32, err error) {
	if uint64(size-8) >= uint64(UnknownLength) {
		return 0, 0, fmt.Errorf("encode audio envelope: %d bytes of audio do not fit in a RIFF frame", dataLen)
	}
	return uint32(size - 8), uint32(dataLen), nil
}

// Decode parses an envelope. Unknown chunks are skipped; truncated input, bad
// magic and out-of-range lengths yield a *FormatError.
func Decode(b []byte) (*Envelope, error) {
	if len(b) < 12 {
		return nil, &FormatError{Offset: 0, Reason: fmt.Sprintf("truncated header: %d bytes", len(b))}
	}
	if string(b[0:4]) != chunkRIFF {
		return nil, &FormatError{Offset: 0, Reason: fmt.Sprintf("bad magic %q", b[0:4])}
	}
	if string(b[8:12]) != chunkWAVE {
		return nil, &FormatError{Offset: 8, Reason: fmt.Sprintf("bad format magic %q", b[8:12])}
	}

	le := binary.LittleEndian
	env := &Envelope{}
	haveFmt := false
	off := 12

	for {
		if len(b)-off < chunkHeaderLen {
			return nil, &FormatError{Offset: off, Reason: "truncated chunk header before data chunk"}
		}
		id := string(b[off : off+4])
		length := le.Uint32(b[off+4 : off+8])
		body := off + chunkHeaderLen
		remaining := len(b) - body

		if id == chunkData {
			if !haveFmt {
				return nil, &FormatError{Offset: off, Reason: "data chunk before fmt chunk"}
			}
			if length == UnknownLength {
				env.Streaming = true
				env.Data = b[body:]
				return env, nil
			}
			if uint64(length) > uint64(remaining) {
				return nil, &FormatError{Offset: off, Reason: fmt.Sprintf("data length %d exceeds remaining %d bytes", length, remaining)}
			}
			env.Data = b[body : body+int(length)]
			return env, nil
		}

		if uint64(length) > uint64(remaining) {
			return nil, &FormatError{Offset: off, Reason: fmt.Sprintf("chunk %q length %d exceeds remaining %d bytes", id, length, remaining)}
		}
		chunk := b[body : body+int(length)]

		switch id {
		case chunkFmt:
			if len(chunk) < fmtChunkSize {
				return nil, &FormatError{Offset: off, Reason: fmt.Sprintf("fmt chunk too short: %d bytes", len(chunk))}
			}
			env.Format = le.Uint16(chunk[0:2])
			env.Channels = le.Uint16(chunk[2:4])
			env.SampleRate = le.Uint32(chunk[4:8])
			env.BitDepth = le.Uint16(chunk[14:16])
			haveFmt = true
		case chunkTime:
			if len(chunk) != 8 {
				return nil, &FormatError{Offset: off, Reason: fmt.Sprintf("time chunk must be 8 bytes, got %d", len(chunk))}
			}
			env.TimeMS = Uint64(le.Uint64(chunk))
		case chunkRPID:
			env.ReplayID = string(chunk)
		case chunkRPRF:
			if len(chunk) != 4 {
				return nil, &FormatError{Offset: off, Reason: fmt.Sprintf("rprf chunk must be 4 bytes, got %d", len(chunk))}
			}
			env.RemainingFrames = Uint32(le.Uint32(chunk))
		}

		off = body + int(length)
	}
}

// IsEnvelope reports whether b starts with the RIFF/WAVE magic.
func IsEnvelope(b []byte) bool {
	return len(b) >= 12 && string(b[0:4]) == chunkRIFF && string(b[8:12]) == chunkWAVE
}

// Options returns the encoding options that reproduce this envelope.
func (e *Envelope) Options() Options {
	return Options{
		Channels:        e.Channels,
		SampleRate:      e.SampleRate,
		BitDepth:        e.BitDepth,
		TimeMS:          e.TimeMS,
		ReplayID:        e.ReplayID,
		RemainingFrames: e.RemainingFrames,
		Streaming:       e.Streaming,
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (e *Envelope) MarshalBinary() ([]byte, error) {
	return Encode(e.Data, e.Options())
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The data slice is copied.
func (e *Envelope) UnmarshalBinary(b []byte) error {
	decoded, err := Decode(b)
	if err != nil {
		return err
	}
	*e = *decoded
	e.Data = append([]byte(nil), decoded.Data...)
	return nil
}

// Time returns the capture timestamp, if present.
func (e *Envelope) Time() (time.Time, bool) {
	if e.TimeMS == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(*e.TimeMS)), true
}

// Duration returns the playback length of the data.
func (e *Envelope) Duration() time.Duration {
	bytesPerSecond := uint64(e.SampleRate) * uint64(e.Channels) * uint64(e.BitDepth) / 8
	if bytesPerSecond == 0 {
		return 0
	}
	return time.Duration(uint64(len(e.Data)) * uint64(time.Second) / bytesPerSecond)
}
