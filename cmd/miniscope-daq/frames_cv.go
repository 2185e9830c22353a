//go:build withcv
// +build withcv

/*
DESCRIPTION
  frames_cv.go wires assembled frames into the optional gocv-backed video
  writer and live display window when the binary is built with the withcv
  tag.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"github.com/ausocean/miniscope/internal/assembler"
	"github.com/ausocean/miniscope/internal/config"
	"github.com/ausocean/miniscope/internal/daqlog"
	"github.com/ausocean/miniscope/internal/sink"
)

func setupFrameSinks(cfg config.Config, videoPath string, showVideo bool, log daqlog.Logger) (func(assembler.Frame), func(), error) {
	var (
		video   *sink.VideoSink
		display *sink.DisplaySink
		err     error
	)

	if videoPath != "" {
		video, err = sink.NewVideoSink(videoPath, cfg.FrameWidth, cfg.FrameHeight, cfg.FrameRate)
		if err != nil {
			return nil, nil, err
		}
	}
	if showVideo {
		display = sink.NewDisplaySink("miniscope-daq", cfg.FrameWidth, cfg.FrameHeight)
	}

	consume := func(f assembler.Frame) {
		if video != nil {
			if err := video.Write(f); err != nil {
				log.Warning("miniscope-daq: video write failed", "error", err.Error())
			}
		}
		if display != nil {
			if err := display.Show(f); err != nil {
				log.Warning("miniscope-daq: display show failed", "error", err.Error())
			}
		}
	}
	closeFn := func() {
		if video != nil {
			video.Close()
		}
		if display != nil {
			display.Close()
		}
	}
	return consume, closeFn, nil
}
