/*
DESCRIPTION
  grouper.go routes decoded buffer payloads into per-frame slot arrays keyed
  by header fields, emitting a completed frame slot array whenever a header
  with a new frame_num arrives, and fans header records out to the metadata
  sinks.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package grouper implements the buffer-to-frame grouping stage: header
// decoding, trim/pad of payloads to their expected size, and edge-triggered
// emission of completed frame slot arrays.
package grouper

import (
	"context"

	"github.com/ausocean/miniscope/internal/config"
	"github.com/ausocean/miniscope/internal/daqlog"
	"github.com/ausocean/miniscope/internal/header"
)

// FrameSlots is an ordered sequence of per-buffer-index payloads for one
// frame. Ownership is exclusive to the Grouper until it is sent on Out, at
// which point the Frame Assembler owns it.
type FrameSlots [][]byte

// MetadataSink receives every decoded header in arrival order. Append must
// not block the Grouper for long; a slow sink should buffer internally.
type MetadataSink interface {
	Append(h header.Header) error
}

// Grouper consumes (Header, Payload) pairs decoded from In and publishes
// completed FrameSlots to Out.
type Grouper struct {
	cfg       config.Config
	bufferNPix []int
	log       daqlog.Logger

	In  <-chan []byte
	Out chan FrameSlots

	Metadata MetadataSink // optional

	// FirstFrameDropped records whether the very first observed frame was
	// discarded because it did not begin at frame_buffer_count == 0,
	// addressing SPEC_FULL.md's note on off-by-one frame-count accounting.
	FirstFrameDropped bool
}

// New returns a Grouper reading decoded buffers from in and writing
// completed frame slot arrays to a channel of the given capacity.
func New(cfg config.Config, in <-chan []byte, queueSize int, log daqlog.Logger) *Grouper {
	if log == nil {
		log = daqlog.Discard
	}
	return &Grouper{
		cfg:        cfg,
		bufferNPix: cfg.BufferNPix(),
		log:        log,
		In:         in,
		Out:        make(chan FrameSlots, queueSize),
	}
}

// newSlots returns a freshly allocated, pre-sized frame slot array.
func (g *Grouper) newSlots() FrameSlots {
	s := make(FrameSlots, len(g.bufferNPix))
	for i, n := range g.bufferNPix {
		s[i] = make([]byte, n)
	}
	return s
}

// Run decodes each raw buffer from In, groups payloads into frame slots, and
// pushes completed frames to Out. It closes Out before returning, on input
// channel close or ctx cancellation.
func (g *Grouper) Run(ctx context.Context, cancel context.CancelFunc) {
	defer close(g.Out)

	const curFrameNumInitial = -1
	curFrameNum := int64(curFrameNumInitial)
	frameBuf := g.newSlots()

	preambleLenBytes := len(g.cfg.Preamble)
	headerLenBits := g.cfg.HeaderLenBits

	for {
		var raw []byte
		var ok bool
		select {
		case raw, ok = <-g.In:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}

		h, payload, err := header.Decode(raw, g.cfg.HeaderFormat, preambleLenBytes, headerLenBits,
			g.cfg.ReverseHeaderBits, g.cfg.ReverseHeaderBytes, g.cfg.ReversePayloadBits, g.cfg.ReversePayloadBytes)
		if err != nil {
			g.log.Warning("grouper: dropping malformed buffer", "error", err.Error())
			continue
		}

		if g.Metadata != nil {
			if err := g.Metadata.Append(h); err != nil {
				g.log.Warning("grouper: metadata sink append failed", "error", err.Error())
			}
		}

		if h.FrameBufferCount < 0 || h.FrameBufferCount >= len(g.bufferNPix) {
			g.log.Warning("grouper: frame_buffer_count out of range, dropping buffer",
				"frame", h.FrameNum, "buffer", h.BufferCount, "frame_buffer_count", h.FrameBufferCount,
				"nbuffer_per_fm", len(g.bufferNPix))
			continue
		}

		payload = g.trimPad(payload, h)

		if int64(h.FrameNum) != curFrameNum {
			if curFrameNum == curFrameNumInitial && h.FrameBufferCount != 0 {
				g.FirstFrameDropped = true
				continue
			}

			select {
			case g.Out <- frameBuf:
			case <-ctx.Done():
				return
			}
			frameBuf = g.newSlots()
			curFrameNum = int64(h.FrameNum)

			if h.FrameBufferCount != 0 {
				g.log.Warning("grouper: frame did not start at buffer index 0",
					"frame", curFrameNum, "frame_buffer_count", h.FrameBufferCount)
			}
		}

		frameBuf[h.FrameBufferCount] = payload
	}
}

// trimPad trims or zero-pads payload to the expected size for its position
// in the frame, preserving the source's double-warning quirk: a size
// mismatch against buffer_npix[0] is always warned about, even on the
// (legitimately shorter) final buffer of a frame. See SPEC_FULL.md §9 Open
// Question (2) — this is deliberately not "fixed".
func (g *Grouper) trimPad(payload []byte, h header.Header) []byte {
	expectedFirst := g.bufferNPix[0]
	expected := g.bufferNPix[h.FrameBufferCount]

	if len(payload) != expectedFirst {
		g.log.Warning("grouper: payload size mismatch against first-buffer size",
			"frame", h.FrameNum, "buffer", h.BufferCount, "frame_buffer_count", h.FrameBufferCount,
			"expected", expectedFirst, "got", len(payload))
	}

	if len(payload) == expected {
		return payload
	}
	if len(payload) > expected {
		return payload[:expected]
	}
	padded := make([]byte, expected)
	copy(padded, payload)
	return padded
}
