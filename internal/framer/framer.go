/*
DESCRIPTION
  framer.go reads fixed-size byte chunks from a device and splits the
  resulting continuous bitstream into logical buffers by scanning for a
  bit-aligned preamble, emitting one byte sequence per buffer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package framer implements the bitstream-to-logical-buffer stage of the
// acquisition pipeline. It is the Go-idiomatic reshaping of the teacher's
// codecutil.ByteScanner reload/scan loop, generalised to bit-aligned
// preamble matching instead of a single delimiter byte.
package framer

import (
	"context"
	"io"

	"github.com/ausocean/miniscope/internal/daqlog"
	"github.com/ausocean/miniscope/internal/device"
)

// ChunkSink receives every raw device chunk verbatim, in arrival order,
// before preamble scanning. sink.CaptureSink is the production
// implementation; tests may substitute their own.
type ChunkSink interface {
	Write(chunk []byte) error
}

// Framer locates preamble-delimited logical buffers in a continuous device
// bitstream and emits them on Out.
type Framer struct {
	dev      device.Device
	preamble []byte // Possibly bit-reversed, as matched against the stream.
	readLen  int
	preFirst bool

	// Capture, if non-nil, receives every raw device chunk verbatim, for
	// later round-trip replay through device.MockDevice.
	Capture ChunkSink

	log daqlog.Logger

	// Out is the Framer's output queue (Q1). The Framer closes it exactly
	// once, on end-of-stream, device error, or cancellation.
	Out chan []byte
}

// New returns a Framer reading from dev, matching preamble (already
// reversed by the caller if config.ReverseHeaderBits is set), using readLen
// as the device chunk size, with pre-first inclusion behaviour as preFirst,
// and emitting into a channel of the given capacity.
func New(dev device.Device, preamble []byte, readLen int, preFirst bool, queueSize int, log daqlog.Logger) *Framer {
	if log == nil {
		log = daqlog.Discard
	}
	return &Framer{
		dev:      dev,
		preamble: preamble,
		readLen:  readLen,
		preFirst: preFirst,
		log:      log,
		Out:      make(chan []byte, queueSize),
	}
}

// Run pulls chunks from the device until end-of-stream, a fatal read error,
// or ctx is cancelled, pushing one logical buffer per matched preamble pair
// to Out. It closes Out before returning and calls cancel on any terminal
// condition so downstream stages and sibling stages unwind together.
func (f *Framer) Run(ctx context.Context, cancel context.CancelFunc) {
	defer close(f.Out)

	preambleBits := bitLen(f.preamble)
	var rolling []byte

	for {
		select {
		case <-ctx.Done():
			f.log.Debug("framer: cancelled")
			return
		default:
		}

		chunk, err := f.dev.ReadData(ctx, f.readLen)
		if err == io.EOF {
			f.log.Info("framer: end of stream")
			cancel()
			return
		}
		if err != nil {
			f.log.Error("framer: read error", "error", err.Error())
			cancel()
			return
		}

		if f.Capture != nil {
			if werr := f.Capture.Write(chunk); werr != nil {
				f.log.Warning("framer: capture write failed, disabling capture", "error", werr.Error())
				f.Capture = nil
			}
		}

		rolling = append(rolling, chunk...)

		positions := findAll(rolling, f.preamble, preambleBits)
		for i := 0; i+1 < len(positions); i++ {
			start, stop := positions[i], positions[i+1]
			if !f.preFirst {
				start += preambleBits
				stop += preambleBits
			}
			buf := sliceBits(rolling, start, stop)
			select {
			case f.Out <- buf:
			case <-ctx.Done():
				return
			}
		}
		if len(positions) > 0 {
			// Cut at the byte holding the last preamble, so no padding bits
			// are inserted before the next chunk; the few bits ahead of the
			// preamble are ignored as the next scan's leading fragment.
			last := positions[len(positions)-1]
			rolling = rolling[last/8:]
		}
	}
}
