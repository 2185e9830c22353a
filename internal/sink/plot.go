/*
DESCRIPTION
  plot.go implements a MetadataSink that keeps a fixed-length ring buffer of
  recent values per tracked header field and periodically renders them to a
  PNG line chart via gonum/plot.

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
	"sync"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/miniscope/internal/header"
)

// ring is a fixed-capacity FIFO of float64 samples.
type ring struct {
	buf   []float64
	start int
	n     int
}

func newRing(cap int) *ring {
	return &ring{buf: make([]float64, cap)}
}

func (r *ring) push(v float64) {
	idx := (r.start + r.n) % len(r.buf)
	r.buf[idx] = v
	if r.n < len(r.buf) {
		r.n++
	} else {
		r.start = (r.start + 1) % len(r.buf)
	}
}

func (r *ring) values() []float64 {
	out := make([]float64, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// PlotSink tracks a fixed set of header fields over a bounded history and
// renders them as a multi-series line chart on demand, matching the
// bounded-telemetry-history approach used across the pack's metadata
// sinks rather than an unbounded in-memory log.
type PlotSink struct {
	mu        sync.Mutex
	fields    []string
	rings     map[string]*ring
	outPath   string
	lastDraw  time.Time
	minPeriod time.Duration
}

// NewPlotSink tracks the given header fields with a history ring of the
// given length, rendering at most once per minPeriod to outPath on each
// Append call.
func NewPlotSink(outPath string, fields []string, historyLen int, minPeriod time.Duration) *PlotSink {
	rings := make(map[string]*ring, len(fields))
	for _, f := range fields {
		rings[f] = newRing(historyLen)
	}
	return &PlotSink{
		fields:    fields,
		rings:     rings,
		outPath:   outPath,
		minPeriod: minPeriod,
	}
}

// Append records h's tracked fields and redraws the chart if minPeriod has
// elapsed since the last render.
func (s *PlotSink) Append(h header.Header) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.fields {
		v, ok := h.Field(f)
		if !ok {
			continue
		}
		s.rings[f].push(float64(v))
	}

	now := s.now()
	if now.Sub(s.lastDraw) < s.minPeriod {
		return nil
	}
	s.lastDraw = now
	return s.render()
}

// nowFunc is overridable in tests to avoid depending on wall-clock time.
var nowFunc = time.Now

func (s *PlotSink) now() time.Time { return nowFunc() }

func (s *PlotSink) render() error {
	p := plot.New()
	p.Title.Text = "miniscope header telemetry"
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "value"

	for _, f := range s.fields {
		vals := s.rings[f].values()
		pts := make(plotter.XYs, len(vals))
		for i, v := range vals {
			pts[i].X = float64(i)
			pts[i].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("sink: could not build plot line for %q: %w", f, err)
		}
		p.Add(line)
		p.Legend.Add(f, line)
	}

	if err := p.Save(8*vg.Inch, 4*vg.Inch, s.outPath); err != nil {
		return fmt.Errorf("sink: could not save plot: %w", err)
	}
	return nil
}
