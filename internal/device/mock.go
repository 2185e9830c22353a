/*
DESCRIPTION
  mock.go implements a Device that replays a previously captured binary file
  chunk by chunk, for tests and for substitution when a testing harness or
  MINISCOPE_MOCKRUN is active.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package device

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// MockDevice replays a recorded binary capture file, grounded on
// ausocean/av/device/file.AVFile's file-backed AVDevice, generalised to the
// Device interface's explicit-EOF ReadData method instead of io.Reader.
type MockDevice struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// NewMockDevice opens path for replay.
func NewMockDevice(path string) (*MockDevice, error) {
	if path == "" {
		return nil, fmt.Errorf("device: mock device requires a replay file path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("device: could not open mock replay file: %w", err)
	}
	return &MockDevice{f: f, path: path}, nil
}

// UploadBitfile is a no-op for the mock device.
func (m *MockDevice) UploadBitfile(path string) error { return nil }

// ReadData reads up to n bytes from the replay file, returning io.EOF once
// the file is exhausted.
func (m *MockDevice) ReadData(ctx context.Context, n int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	buf := make([]byte, n)
	read, err := io.ReadFull(m.f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("device: mock read error: %w", err)
	}
	if read == 0 {
		return nil, io.EOF
	}
	return buf[:read], nil
}

// Close releases the replay file.
func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.f.Close()
}
