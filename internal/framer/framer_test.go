/*
DESCRIPTION
  framer_test.go tests preamble-delimited buffer extraction and capture
  sink fan-out.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package framer

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// chunkDevice replays a fixed sequence of fixed-size reads then io.EOF.
type chunkDevice struct {
	data   []byte
	chunk  int
	offset int
}

func (d *chunkDevice) UploadBitfile(string) error { return nil }
func (d *chunkDevice) Close() error                { return nil }

func (d *chunkDevice) ReadData(ctx context.Context, n int) ([]byte, error) {
	if d.offset >= len(d.data) {
		return nil, io.EOF
	}
	end := d.offset + n
	if end > len(d.data) {
		end = len(d.data)
	}
	out := d.data[d.offset:end]
	d.offset = end
	return out, nil
}

type recordingSink struct {
	mu     sync.Mutex
	chunks [][]byte
}

func (s *recordingSink) Write(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]byte(nil), chunk...)
	s.chunks = append(s.chunks, cp)
	return nil
}

func TestFramerExtractsBuffersBetweenPreambles(t *testing.T) {
	preamble := []byte{0xAA}
	// preamble, 1 payload byte, preamble, 1 payload byte, preamble (trailing, incomplete).
	data := []byte{0xAA, 0x11, 0xAA, 0x33, 0xAA}

	dev := &chunkDevice{data: data, chunk: len(data)}
	f := New(dev, preamble, len(data), true, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	var got [][]byte
	go func() {
		for buf := range f.Out {
			got = append(got, buf)
		}
		close(done)
	}()

	f.Run(ctx, cancel)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for framer output to drain")
	}

	require.Len(t, got, 2)
	require.Equal(t, []byte{0xAA, 0x11}, got[0])
	require.Equal(t, []byte{0xAA, 0x33}, got[1])
}

func TestFramerFansOutToCaptureSink(t *testing.T) {
	preamble := []byte{0xAA}
	data := []byte{0xAA, 0x11, 0xAA, 0x22, 0xAA}

	dev := &chunkDevice{data: data}
	f := New(dev, preamble, len(data), true, 4, nil)
	cap := &recordingSink{}
	f.Capture = cap

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for range f.Out {
		}
	}()
	f.Run(ctx, cancel)

	require.NotEmpty(t, cap.chunks)
}
