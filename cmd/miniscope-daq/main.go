/*
DESCRIPTION
  miniscope-daq is a command-line data-acquisition client that reads a raw
  miniscope bitstream from an FPGA, UART, or recorded file source, and
  reconstructs grayscale video frames and header telemetry.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main is the miniscope-daq command-line client.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/miniscope/internal/config"
	"github.com/ausocean/miniscope/internal/daqlog"
	"github.com/ausocean/miniscope/internal/device"
	"github.com/ausocean/miniscope/internal/grouper"
	"github.com/ausocean/miniscope/internal/header"
	"github.com/ausocean/miniscope/internal/pipeline"
	"github.com/ausocean/miniscope/internal/sink"
)

// Logging configuration, matching rv's rotation policy.
const (
	logPath      = "miniscope-daq.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

// Exit codes.
const (
	exitOK = iota
	exitConfigError
	exitDeviceError
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfgPath      = flag.String("config", "", "path to device configuration yaml (required)")
		source       = flag.String("source", "fpga", "device source: fpga, uart, or mock")
		mockPath     = flag.String("replay", "", "recorded binary file to replay (source=mock)")
		capturePath  = flag.String("capture", "", "path to append raw device chunks for later replay")
		csvPath      = flag.String("csv", "", "path to write decoded header telemetry as csv")
		plotPath     = flag.String("plot", "", "path to write a periodically-updated metadata chart png")
		videoPath    = flag.String("video", "", "path to write assembled frames as video (requires withcv build tag)")
		showVideo    = flag.Bool("show-video", false, "display assembled frames in a window (requires withcv build tag)")
		showMetadata = flag.Bool("show-metadata", false, "print each decoded header to stderr as it arrives")
		verbose      = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	defer fileLog.Close()

	level := daqlog.Info
	if *verbose {
		level = daqlog.Debug
	}
	log := daqlog.New(level, io.MultiWriter(fileLog, os.Stderr))

	if *cfgPath == "" {
		log.Error("miniscope-daq: -config is required")
		return exitConfigError
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Error("miniscope-daq: could not load config", "error", err.Error())
		return exitConfigError
	}
	if err := cfg.Validate(); err != nil {
		log.Error("miniscope-daq: invalid config", "error", err.Error())
		return exitConfigError
	}

	dev, err := device.Select(device.Source(*source), cfg, *mockPath)
	if err != nil {
		log.Error("miniscope-daq: could not select device", "error", err.Error())
		return exitDeviceError
	}
	defer dev.Close()

	if err := dev.UploadBitfile(cfg.BitfilePath); err != nil {
		log.Error("miniscope-daq: could not upload bitfile", "error", err.Error())
		return exitDeviceError
	}

	var metadata metadataMultiSink
	if *csvPath != "" {
		csv, err := sink.NewCSVSink(*csvPath, cfg.HeaderFormat, cfg.Runtime.CSVFlushDepth)
		if err != nil {
			log.Error("miniscope-daq: could not open csv sink", "error", err.Error())
			return exitConfigError
		}
		defer csv.Close()
		metadata = append(metadata, csv)
	}
	if *plotPath != "" {
		metadata = append(metadata, sink.NewPlotSink(*plotPath, cfg.Runtime.PlotFields,
			cfg.Runtime.PlotHistory, time.Duration(cfg.Runtime.PlotUpdateMS)*time.Millisecond))
	}
	if *showMetadata {
		metadata = append(metadata, sink.NewConsoleSink(os.Stderr))
	}

	p, err := pipeline.New(cfg, dev, *capturePath, metadata, log)
	if err != nil {
		log.Error("miniscope-daq: could not construct pipeline", "error", err.Error())
		return exitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frames, closeFrames, err := setupFrameSinks(cfg, *videoPath, *showVideo, log)
	if err != nil {
		log.Error("miniscope-daq: could not set up frame sinks", "error", err.Error())
		return exitConfigError
	}
	defer closeFrames()

	go func() {
		for frame := range p.Out {
			frames(frame)
		}
	}()

	log.Info("miniscope-daq: starting acquisition", "source", *source)
	p.Run(ctx)
	log.Info("miniscope-daq: acquisition finished")

	return exitOK
}

// metadataMultiSink fans every decoded header out to each sub-sink,
// aggregating failures rather than stopping at the first, matching
// config.MultiError's aggregate-then-report style.
type metadataMultiSink []grouper.MetadataSink

func (m metadataMultiSink) Append(h header.Header) error {
	var errs config.MultiError
	for _, s := range m {
		if err := s.Append(h); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) != 0 {
		return errs
	}
	return nil
}
