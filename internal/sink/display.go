//go:build withcv
// +build withcv

/*
DESCRIPTION
  display.go implements a debug frame sink that shows assembled frames in a
  live gocv window, mirroring the window/imshow loop in the teacher's
  exp/gocv-exp motion-detection example.

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

	"gocv.io/x/gocv"

	"github.com/ausocean/miniscope/internal/assembler"
)

// escKeyCode is the waitKey() return value for the Escape key, as used by
// the teacher's gocv examples to end a display loop.
const escKeyCode = 27

// DisplaySink shows assembled frames in a named window and reports when the
// user presses Escape.
type DisplaySink struct {
	win           *gocv.Window
	width, height int

	// Closed is set once the user has pressed Escape in the window; the
	// caller should check it after each Show call and cancel the pipeline.
	Closed bool
}

// NewDisplaySink opens a window titled name.
func NewDisplaySink(name string, width, height int) *DisplaySink {
	return &DisplaySink{
		win:    gocv.NewWindow(name),
		width:  width,
		height: height,
	}
}

// Show renders f and polls for the Escape key.
func (s *DisplaySink) Show(f assembler.Frame) error {
	gray, err := gocv.NewMatFromBytes(s.height, s.width, gocv.MatTypeCV8UC1, f.Pix)
	if err != nil {
		return fmt.Errorf("sink: could not load frame into mat: %w", err)
	}
	defer gray.Close()

	s.win.IMShow(gray)
	if s.win.WaitKey(1) == escKeyCode {
		s.Closed = true
	}
	return nil
}

// Close closes the window.
func (s *DisplaySink) Close() error {
	return s.win.Close()
}
