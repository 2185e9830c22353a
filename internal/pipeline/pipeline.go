/*
DESCRIPTION
  pipeline.go wires the Framer, Grouper and Frame Assembler stages together
  behind bounded queues and a shared cancellation context, and performs
  graceful startup and shutdown.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipeline provides the Controller that starts the acquisition
// stages as independent goroutines, owns the bounded queues between them,
// and drives graceful shutdown. It is the Go-native reshaping of revid's
// Revid/reset/setupPipeline orchestration (github.com/ausocean/av/revid),
// generalised from transcoding sinks to the miniscope frame pipeline.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ausocean/miniscope/internal/assembler"
	"github.com/ausocean/miniscope/internal/config"
	"github.com/ausocean/miniscope/internal/daqlog"
	"github.com/ausocean/miniscope/internal/device"
	"github.com/ausocean/miniscope/internal/framer"
	"github.com/ausocean/miniscope/internal/grouper"
	"github.com/ausocean/miniscope/internal/sink"
)

// shutdownTimeout bounds how long the controller waits for stages to finish
// after cancellation before giving up and logging a stuck-stage warning.
// Go goroutines cannot be force-terminated the way the source's
// multiprocessing.Process.terminate() kills an OS process (SPEC_FULL.md
// §10); exceeding the timeout is reported, not enforced.
const shutdownTimeout = 5 * time.Second

// Controller orchestrates the acquisition pipeline: Device Source ->
// Framer -> Header Decoder (inline in Grouper) -> Grouper -> Frame
// Assembler -> Out.
type Controller struct {
	cfg config.Config
	log daqlog.Logger

	framer    *framer.Framer
	grouper   *grouper.Grouper
	assembler *assembler.Assembler
	capture   *sink.CaptureSink

	// Out is Q3: the caller drains this to feed the video writer, display
	// and any other frame sinks.
	Out chan assembler.Frame

	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shutdownOnce sync.Once

	// Err is a buffered error channel allocated by New. No stage sends on
	// it and the controller does not read from it: a stage that hits a
	// terminal condition (the Framer on a device read error) logs it and
	// cancels the pipeline itself.
	Err chan error
}

// New constructs a Controller for dev and cfg. capturePath, if non-empty, is
// where the Framer appends every raw device chunk (binary capture).
func New(cfg config.Config, dev device.Device, capturePath string, metadata grouper.MetadataSink, log daqlog.Logger) (*Controller, error) {
	if log == nil {
		log = daqlog.Discard
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: invalid config: %w", err)
	}

	preamble := cfg.Preamble
	if cfg.ReverseHeaderBits {
		preamble = reversedPreamble(preamble)
	}

	readLen := cfg.ReadLength()

	f := framer.New(dev, preamble, readLen, true, cfg.Runtime.Q1Size, log)

	var capture *sink.CaptureSink
	if capturePath != "" {
		var err error
		capture, err = sink.NewCaptureSink(capturePath)
		if err != nil {
			log.Error("pipeline: could not open capture sink, continuing without capture", "error", err.Error())
		} else {
			f.Capture = capture
		}
	}

	g := grouper.New(cfg, f.Out, cfg.Runtime.Q2Size, log)
	g.Metadata = metadata

	a := assembler.New(cfg, g.Out, cfg.Runtime.Q3Size, log)

	return &Controller{
		cfg:       cfg,
		log:       log,
		framer:    f,
		grouper:   g,
		assembler: a,
		capture:   capture,
		Out:       a.Out,
		Err:       make(chan error, 8),
	}, nil
}

// reversedPreamble reverses the bit order of the preamble pattern, matching
// the Framer's preamble-matching convention when header bits are reversed.
func reversedPreamble(p []byte) []byte {
	out := make([]byte, len(p))
	n := len(p) * 8
	for i := 0; i < n; i++ {
		srcBit := n - 1 - i
		if (p[srcBit/8]>>(7-uint(srcBit%8)))&1 != 0 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

// Run starts the three core stages and blocks until the pipeline has
// drained following cancellation (from end-of-stream, a stage error, or the
// parent context). The caller is responsible for draining Out. Run calls
// Shutdown internally once ctx is done, so callers don't normally need to
// call it themselves — it is exported for callers that want to force an
// early, bounded-timeout stop (e.g. a second SIGINT while already
// shutting down).
func (c *Controller) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	defer cancel()

	c.wg.Add(3)
	go func() { defer c.wg.Done(); c.framer.Run(ctx, cancel) }()
	go func() { defer c.wg.Done(); c.grouper.Run(ctx, cancel) }()
	go func() { defer c.wg.Done(); c.assembler.Run(ctx) }()

	<-ctx.Done()
	c.Shutdown(context.Background())
}

// Shutdown triggers cancellation (as if the device had reached
// end-of-stream, if not already cancelled) and waits up to shutdownTimeout
// for all three stages to exit cooperatively. Go has no equivalent of the
// source's multiprocessing.Process.terminate(), so a stage that exceeds the
// timeout is logged as a stuck-stage warning rather than force-killed.
func (c *Controller) Shutdown(ctx context.Context) {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(shutdownTimeout):
		c.log.Warning("pipeline: stage shutdown exceeded timeout, abandoning wait",
			"timeout", shutdownTimeout.String())
	}

	c.shutdownOnce.Do(func() {
		if c.capture != nil {
			if err := c.capture.Close(); err != nil {
				c.log.Warning("pipeline: capture sink close failed", "error", err.Error())
			}
		}
	})
}

// FirstFrameDropped reports whether the very first observed frame was
// discarded because it did not begin at frame_buffer_count == 0.
func (c *Controller) FirstFrameDropped() bool {
	return c.grouper.FirstFrameDropped
}
