//go:build withcv
// +build withcv

/*
DESCRIPTION
  video.go implements a frame sink that writes assembled grayscale frames to
  a video file via gocv's VideoWriter, matching the optional-build-tag
  pattern the teacher uses to keep the cgo-backed OpenCV binding out of
  default builds.

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

// VideoSink encodes assembled frames to a video file. Grayscale pixels are
// converted to BGR before writing, since gocv.VideoWriter expects a 3-channel
// Mat regardless of source fidelity.
type VideoSink struct {
	w      *gocv.VideoWriter
	width  int
	height int
	bgr    gocv.Mat
}

// NewVideoSink opens path for writing at the given frame size and rate,
// using the "mp4v" fourcc, matching the codec the teacher's gocv-exp example
// leaves as gocv's package default for file output.
func NewVideoSink(path string, width, height int, fps float64) (*VideoSink, error) {
	w, err := gocv.VideoWriterFile(path, "mp4v", fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("sink: could not open video writer: %w", err)
	}
	return &VideoSink{
		w:      w,
		width:  width,
		height: height,
		bgr:    gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3),
	}, nil
}

// Write converts f to BGR and appends it to the video file.
func (s *VideoSink) Write(f assembler.Frame) error {
	gray, err := gocv.NewMatFromBytes(s.height, s.width, gocv.MatTypeCV8UC1, f.Pix)
	if err != nil {
		return fmt.Errorf("sink: could not load frame into mat: %w", err)
	}
	defer gray.Close()

	gocv.CvtColor(gray, &s.bgr, gocv.ColorGrayToBGR)
	if err := s.w.Write(s.bgr); err != nil {
		return fmt.Errorf("sink: video write failed: %w", err)
	}
	return nil
}

// Close releases the writer and scratch mat.
func (s *VideoSink) Close() error {
	s.bgr.Close()
	return s.w.Close()
}
