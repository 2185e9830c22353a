/*
DESCRIPTION
  header.go decodes the packed bit-field header of a logical buffer into a
  typed record, and applies the configured bit/byte reversals to both the
  header and payload regions.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package header decodes the declarative, bit-packed buffer header that
// precedes every payload in the miniscope bitstream. The field set is driven
// entirely by config.HeaderFormat: three fields (FrameNum, BufferCount,
// FrameBufferCount) are promoted to named struct fields since the Grouper
// and Frame Assembler depend on them structurally; everything else is
// carried through as an ordered name/value map, following option (b) of
// SPEC_FULL.md's DESIGN.md decision on the source's runtime-typed header
// record.
package header

import (
	"fmt"

	"github.com/ausocean/miniscope/internal/config"
)

// Header is the decoded buffer header. Extra holds every declared field
// (including the three promoted ones, for uniform lookup) in declaration
// order.
type Header struct {
	FrameNum         uint64
	BufferCount      uint64
	FrameBufferCount int

	// Extra holds every header field by name, in the order declared by the
	// HeaderFormat, for device-specific telemetry (timestamps, battery
	// voltages, etc.) that the pipeline itself does not interpret.
	Extra    map[string]uint64
	Names    []string // Preserves declaration order for CSV column headers.
}

// Field looks up a decoded header field by name.
func (h Header) Field(name string) (uint64, bool) {
	v, ok := h.Extra[name]
	return v, ok
}

// ErrShortBuffer indicates a buffer too short to contain a full header.
type ErrShortBuffer struct {
	Got, Want int
}

func (e ErrShortBuffer) Error() string {
	return fmt.Sprintf("header: buffer too short: got %d bytes, need at least %d", e.Got, e.Want)
}

// Decode splits buf into a decoded Header and a payload byte slice. buf is
// the raw logical buffer as emitted by the Framer, which may still carry its
// leading preamble (preambleLenBytes skips over it before the header region
// is read).
func Decode(buf []byte, fmtSpec config.HeaderFormat, preambleLenBytes, headerLenBits int,
	reverseHeaderBits, reverseHeaderBytes, reversePayloadBits, reversePayloadBytes bool) (Header, []byte, error) {

	if len(buf) < preambleLenBytes {
		return Header{}, nil, ErrShortBuffer{Got: len(buf), Want: preambleLenBytes}
	}
	buf = buf[preambleLenBytes:]

	headerBytes := headerLenBits / 8
	if len(buf) < headerBytes {
		return Header{}, nil, ErrShortBuffer{Got: len(buf) + preambleLenBytes, Want: headerBytes + preambleLenBytes}
	}

	hdrRegion := append([]byte(nil), buf[:headerBytes]...)
	payload := append([]byte(nil), buf[headerBytes:]...)

	if reverseHeaderBits {
		for i := range hdrRegion {
			hdrRegion[i] = reverseByte(hdrRegion[i])
		}
	}
	if reverseHeaderBytes {
		reverseBytes(hdrRegion)
	}
	if reversePayloadBits {
		for i := range payload {
			payload[i] = reverseByte(payload[i])
		}
	}
	if reversePayloadBytes {
		reverseBytes(payload)
	}

	h := Header{
		Extra: make(map[string]uint64, len(fmtSpec)),
		Names: make([]string, 0, len(fmtSpec)),
	}
	for _, f := range fmtSpec {
		v := extractBits(hdrRegion, f.BitStart, f.BitLength)
		h.Extra[f.Name] = v
		h.Names = append(h.Names, f.Name)
		switch f.Name {
		case config.FieldFrameNum:
			h.FrameNum = v
		case config.FieldBufferCount:
			h.BufferCount = v
		case config.FieldFrameBufferCount:
			h.FrameBufferCount = int(v)
		}
	}

	return h, payload, nil
}

// reverseByte reverses the bit order within a single byte.
func reverseByte(b byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// reverseBytes reverses the byte order of buf in place.
func reverseBytes(buf []byte) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}

// extractBits reads a bitLen-bit, big-endian-within-field unsigned value
// starting at bit offset bitStart of buf (bit 0 is the MSB of buf[0]),
// matching the manual mask-and-shift extraction style used by the teacher's
// container/mts/psi package for other packed binary structures.
func extractBits(buf []byte, bitStart, bitLen int) uint64 {
	var v uint64
	for i := 0; i < bitLen; i++ {
		bitIdx := bitStart + i
		byteIdx := bitIdx / 8
		if byteIdx >= len(buf) {
			break
		}
		shift := 7 - uint(bitIdx%8)
		bit := (buf[byteIdx] >> shift) & 1
		v = (v << 1) | uint64(bit)
	}
	return v
}
