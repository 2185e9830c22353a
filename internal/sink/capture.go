/*
DESCRIPTION
  capture.go implements a sink that appends every raw device chunk to a
  binary file verbatim, for later replay through a MockDevice.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sink

import (
	"fmt"
	"os"
	"sync"
)

// CaptureSink appends raw byte chunks to a file opened in append mode,
// giving a round-trippable recording that device.MockDevice can later
// replay. It is safe for concurrent Write calls, though the Framer only
// ever calls it from its own goroutine.
type CaptureSink struct {
	mu sync.Mutex
	f  *os.File
}

// NewCaptureSink opens path for appending, creating it if necessary.
func NewCaptureSink(path string) (*CaptureSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("sink: could not open capture file: %w", err)
	}
	return &CaptureSink{f: f}, nil
}

// Write appends chunk verbatim.
func (s *CaptureSink) Write(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(chunk); err != nil {
		return fmt.Errorf("sink: capture write failed: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *CaptureSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
