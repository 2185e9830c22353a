/*
DESCRIPTION
  csv.go implements a MetadataSink that writes every decoded header as a row
  of a CSV file, flushing periodically rather than after every row.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sink provides the ambient output endpoints fed by the Assembler's
// Out queue and the Grouper's metadata stream: CSV telemetry, binary video,
// a live metadata plot, and a debug display window.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/ausocean/miniscope/internal/config"
	"github.com/ausocean/miniscope/internal/header"
)

// CSVSink appends one row per decoded header to a CSV file, with a header
// row derived from the configured HeaderFormat field names in declaration
// order. It flushes every flushDepth rows, matching the teacher's batched
// I/O pattern in container/mts/meta, rather than syncing on every write.
type CSVSink struct {
	mu         sync.Mutex
	f          *os.File
	w          *csv.Writer
	fields     []string
	flushDepth int
	unflushed  int
}

// NewCSVSink creates or truncates the file at path and writes the header
// row derived from fmtSpec.
func NewCSVSink(path string, fmtSpec config.HeaderFormat, flushDepth int) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: could not create csv file: %w", err)
	}
	fields := make([]string, len(fmtSpec))
	for i, bf := range fmtSpec {
		fields[i] = bf.Name
	}
	w := csv.NewWriter(f)
	if err := w.Write(fields); err != nil {
		f.Close()
		return nil, fmt.Errorf("sink: could not write csv header row: %w", err)
	}
	if flushDepth <= 0 {
		flushDepth = 1
	}
	return &CSVSink{f: f, w: w, fields: fields, flushDepth: flushDepth}, nil
}

// Append writes one row for h, in the sink's configured field order.
func (s *CSVSink) Append(h header.Header) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := make([]string, len(s.fields))
	for i, name := range s.fields {
		switch name {
		case config.FieldFrameNum:
			row[i] = fmt.Sprintf("%d", h.FrameNum)
		case config.FieldBufferCount:
			row[i] = fmt.Sprintf("%d", h.BufferCount)
		case config.FieldFrameBufferCount:
			row[i] = fmt.Sprintf("%d", h.FrameBufferCount)
		default:
			row[i] = fmt.Sprintf("%d", h.Extra[name])
		}
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("sink: csv write failed: %w", err)
	}
	s.unflushed++
	if s.unflushed >= s.flushDepth {
		s.w.Flush()
		s.unflushed = 0
		if err := s.w.Error(); err != nil {
			return fmt.Errorf("sink: csv flush failed: %w", err)
		}
	}
	return nil
}

// Close flushes any buffered rows and closes the underlying file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return fmt.Errorf("sink: csv final flush failed: %w", err)
	}
	return s.f.Close()
}
