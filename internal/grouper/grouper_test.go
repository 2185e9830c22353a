/*
DESCRIPTION
  grouper_test.go tests buffer-to-frame grouping, trim/pad, and the
  preserved double-warning and first-frame-drop edge cases.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package grouper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ausocean/miniscope/internal/config"
)

// twoBufferConfig describes a frame whose first two buffers hold 2 payload
// bytes each; buffer_npix works out to [2, 2, 0] since BufferNPix always
// appends a trailing remainder entry, here a zero-length one because the
// geometry divides evenly. Tests exercise only buffer indices 0 and 1.
func twoBufferConfig() config.Config {
	return config.Config{
		Preamble:          []byte{0xAA},
		HeaderLenBits:     32,
		PixDepth:          8,
		FrameWidth:        4,
		FrameHeight:       1,
		BufferBlockLength: 1,
		BlockSize:         6,
		HeaderFormat: config.HeaderFormat{
			{Name: config.FieldFrameNum, BitStart: 0, BitLength: 16},
			{Name: config.FieldBufferCount, BitStart: 16, BitLength: 8},
			{Name: config.FieldFrameBufferCount, BitStart: 24, BitLength: 8},
		},
	}
}

// rawBuf builds a preamble + header + payload buffer for the given fields.
func rawBuf(preamble []byte, frameNum, bufCount, frameBufCount uint16, payload []byte) []byte {
	buf := append([]byte(nil), preamble...)
	buf = append(buf, byte(frameNum>>8), byte(frameNum), byte(bufCount), byte(frameBufCount))
	buf = append(buf, payload...)
	return buf
}

func TestGrouperEmitsCompletedFrameOnFrameNumChange(t *testing.T) {
	cfg := twoBufferConfig()
	in := make(chan []byte, 8)
	g := New(cfg, in, 4, nil)

	in <- rawBuf(cfg.Preamble, 0, 0, 0, []byte{1, 2})
	in <- rawBuf(cfg.Preamble, 0, 1, 1, []byte{3, 4})
	in <- rawBuf(cfg.Preamble, 1, 2, 0, []byte{5, 6})
	close(in)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var frames []FrameSlots
	done := make(chan struct{})
	go func() {
		for f := range g.Out {
			frames = append(frames, f)
		}
		close(done)
	}()

	g.Run(ctx, cancel)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}

	// The very first valid frame_num transition (from the -1 sentinel)
	// unconditionally pushes the preallocated, still-empty frame slot array
	// before any payload is ever written into it; the populated frame only
	// appears on the *next* transition. See grouper.go's push-then-reset
	// ordering.
	require.Len(t, frames, 2)
	require.Equal(t, []byte{0, 0}, frames[0][0])
	require.Equal(t, []byte{1, 2}, frames[1][0])
	require.Equal(t, []byte{3, 4}, frames[1][1])
}

func TestGrouperDropsFirstFrameNotStartingAtZero(t *testing.T) {
	cfg := twoBufferConfig()
	in := make(chan []byte, 8)
	g := New(cfg, in, 4, nil)

	in <- rawBuf(cfg.Preamble, 0, 0, 1, []byte{1, 2})
	in <- rawBuf(cfg.Preamble, 1, 1, 0, []byte{3, 4})
	in <- rawBuf(cfg.Preamble, 1, 2, 1, []byte{5, 6})
	in <- rawBuf(cfg.Preamble, 2, 3, 0, []byte{7, 8})
	close(in)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var frames []FrameSlots
	done := make(chan struct{})
	go func() {
		for f := range g.Out {
			frames = append(frames, f)
		}
		close(done)
	}()

	g.Run(ctx, cancel)
	<-done

	require.True(t, g.FirstFrameDropped)
	require.Len(t, frames, 2)
	require.Equal(t, []byte{0, 0}, frames[0][0])
	require.Equal(t, []byte{3, 4}, frames[1][0])
	require.Equal(t, []byte{5, 6}, frames[1][1])
}

func TestGrouperDropsOutOfRangeFrameBufferCount(t *testing.T) {
	cfg := twoBufferConfig()
	in := make(chan []byte, 8)
	g := New(cfg, in, 4, nil)

	in <- rawBuf(cfg.Preamble, 0, 0, 0, []byte{1, 2})
	in <- rawBuf(cfg.Preamble, 0, 1, 9, []byte{9, 9}) // out of range, dropped.
	in <- rawBuf(cfg.Preamble, 1, 2, 0, []byte{5, 6})
	close(in)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var frames []FrameSlots
	done := make(chan struct{})
	go func() {
		for f := range g.Out {
			frames = append(frames, f)
		}
		close(done)
	}()

	g.Run(ctx, cancel)
	<-done

	require.Len(t, frames, 2)
	require.Equal(t, []byte{1, 2}, frames[1][0])
	require.Equal(t, []byte{0, 0}, frames[1][1]) // never filled, since its buffer was dropped.
}

func TestGrouperPadsShortPayload(t *testing.T) {
	cfg := twoBufferConfig()
	in := make(chan []byte, 8)
	g := New(cfg, in, 4, nil)

	in <- rawBuf(cfg.Preamble, 0, 0, 0, []byte{1}) // short by one byte.
	in <- rawBuf(cfg.Preamble, 1, 1, 0, []byte{9, 9})
	close(in)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var frames []FrameSlots
	done := make(chan struct{})
	go func() {
		for f := range g.Out {
			frames = append(frames, f)
		}
		close(done)
	}()

	g.Run(ctx, cancel)
	<-done

	require.Len(t, frames, 2)
	require.Equal(t, []byte{1, 0}, frames[1][0])
}
