/*
DESCRIPTION
  assembler.go concatenates a completed frame's slot array and reshapes it
  into a 2-D pixel grid, emitting an all-zero frame of the correct shape if
  the total length disagrees with the configured frame geometry.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package assembler implements the frame-assembly stage: concatenation of a
// frame's buffer payloads and reshaping into a (height x width) pixel grid.
package assembler

import (
	"context"

	"github.com/ausocean/miniscope/internal/config"
	"github.com/ausocean/miniscope/internal/daqlog"
	"github.com/ausocean/miniscope/internal/grouper"
)

// Frame is a 2-D grayscale pixel grid, row-major, shape (Height, Width).
type Frame struct {
	Width, Height int
	Pix           []byte // len(Pix) == Width*Height
}

// At returns the pixel at (row, col).
func (f Frame) At(row, col int) byte {
	return f.Pix[row*f.Width+col]
}

// Assembler consumes completed frame slot arrays and produces reshaped
// frames.
type Assembler struct {
	width, height int
	log           daqlog.Logger

	In  <-chan grouper.FrameSlots
	Out chan Frame
}

// New returns an Assembler reading frame slot arrays from in.
func New(cfg config.Config, in <-chan grouper.FrameSlots, queueSize int, log daqlog.Logger) *Assembler {
	if log == nil {
		log = daqlog.Discard
	}
	return &Assembler{
		width:  cfg.FrameWidth,
		height: cfg.FrameHeight,
		log:    log,
		In:     in,
		Out:    make(chan Frame, queueSize),
	}
}

// Run concatenates and reshapes each frame slot array from In, pushing the
// result to Out. It closes Out before returning, on input channel close or
// ctx cancellation.
func (a *Assembler) Run(ctx context.Context) {
	defer close(a.Out)

	for {
		var slots grouper.FrameSlots
		var ok bool
		select {
		case slots, ok = <-a.In:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}

		if len(slots) == 0 {
			continue
		}

		frame := a.assemble(slots)

		select {
		case a.Out <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func (a *Assembler) assemble(slots grouper.FrameSlots) Frame {
	expected := a.width * a.height

	total := 0
	for _, s := range slots {
		total += len(s)
	}

	if total != expected {
		a.log.Error("assembler: frame size mismatch, emitting zero frame",
			"expected", expected, "got", total)
		return Frame{Width: a.width, Height: a.height, Pix: make([]byte, expected)}
	}

	pix := make([]byte, 0, expected)
	for _, s := range slots {
		pix = append(pix, s...)
	}
	return Frame{Width: a.width, Height: a.height, Pix: pix}
}
