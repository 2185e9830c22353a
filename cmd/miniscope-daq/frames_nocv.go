//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  frames_nocv.go is the default frame-sink wiring when the binary is built
  without the withcv tag: video and display output are unavailable, and
  assembled frames are simply discarded after telemetry has been recorded.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"fmt"

	"github.com/ausocean/miniscope/internal/assembler"
	"github.com/ausocean/miniscope/internal/config"
	"github.com/ausocean/miniscope/internal/daqlog"
)

func setupFrameSinks(cfg config.Config, videoPath string, showVideo bool, log daqlog.Logger) (func(assembler.Frame), func(), error) {
	if videoPath != "" || showVideo {
		return nil, nil, fmt.Errorf("miniscope-daq: -video and -show-video require a binary built with -tags withcv")
	}
	return func(assembler.Frame) {}, func() {}, nil
}
