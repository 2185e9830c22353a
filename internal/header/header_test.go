/*
DESCRIPTION
  header_test.go tests packed bit-field decoding, including reversal flags
  and short-buffer errors.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package header

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ausocean/miniscope/internal/config"
)

func testFormat() config.HeaderFormat {
	return config.HeaderFormat{
		{Name: config.FieldFrameNum, BitStart: 0, BitLength: 16},
		{Name: config.FieldBufferCount, BitStart: 16, BitLength: 8},
		{Name: config.FieldFrameBufferCount, BitStart: 24, BitLength: 8},
	}
}

func TestDecodeExtractsLoadBearingFields(t *testing.T) {
	// frame_num=0x0102, buffer_count=0x03, frame_buffer_count=0x04, then payload.
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0xAA, 0xBB}

	h, payload, err := Decode(buf, testFormat(), 0, 32, false, false, false, false)
	require.NoError(t, err)

	if diff := cmp.Diff([]byte{0xAA, 0xBB}, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, uint64(0x0102), h.FrameNum)
	require.Equal(t, uint64(0x03), h.BufferCount)
	require.Equal(t, 0x04, h.FrameBufferCount)
}

func TestDecodeSkipsPreamble(t *testing.T) {
	buf := append([]byte{0xAA, 0x55}, []byte{0x00, 0x01, 0x00, 0x00, 0xFF}...)
	h, payload, err := Decode(buf, testFormat(), 2, 32, false, false, false, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1), h.FrameNum)
	require.Equal(t, []byte{0xFF}, payload)
}

func TestDecodeShortBufferError(t *testing.T) {
	_, _, err := Decode([]byte{0x00, 0x01}, testFormat(), 0, 32, false, false, false, false)
	var shortErr ErrShortBuffer
	require.ErrorAs(t, err, &shortErr)
}

func TestDecodeReverseHeaderBytes(t *testing.T) {
	forward := []byte{0x01, 0x02, 0x03, 0x04}
	reversed := []byte{0x04, 0x03, 0x02, 0x01}

	h1, _, err := Decode(forward, testFormat(), 0, 32, false, false, false, false)
	require.NoError(t, err)
	h2, _, err := Decode(reversed, testFormat(), 0, 32, false, true, false, false)
	require.NoError(t, err)

	require.Equal(t, h1.FrameNum, h2.FrameNum)
	require.Equal(t, h1.FrameBufferCount, h2.FrameBufferCount)
}

func TestDecodeReversePayloadBits(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x00, 0b10000000}
	_, payload, err := Decode(buf, testFormat(), 0, 32, false, false, true, false)
	require.NoError(t, err)
	require.Equal(t, byte(0b00000001), payload[0])
}
