/*
DESCRIPTION
  console.go implements a MetadataSink that prints each decoded header to an
  io.Writer, one line per buffer, for interactive -show-metadata use.

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
	"io"

	"github.com/ausocean/miniscope/internal/header"
)

// ConsoleSink writes one line per header to w.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink returns a ConsoleSink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Append writes a summary line for h.
func (s *ConsoleSink) Append(h header.Header) error {
	_, err := fmt.Fprintf(s.w, "frame=%d buffer=%d frame_buffer=%d\n",
		h.FrameNum, h.BufferCount, h.FrameBufferCount)
	return err
}
