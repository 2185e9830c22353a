/*
DESCRIPTION
  config.go defines the declarative device configuration, runtime tuning
  parameters and header bit-field layout for a miniscope acquisition session,
  and the derived quantities computed once at startup.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config provides the declarative device configuration for the
// miniscope acquisition pipeline: the preamble pattern, the packed header
// bit-field layout, frame geometry, and runtime queue sizing. It is loaded
// once from YAML and is immutable for the lifetime of a capture.
package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// BitField describes one named field packed into the buffer header, by its
// bit offset and width within the header region. This is the declarative
// schema referenced by spec.md's Non-goals: header layout is configured,
// never hard-coded, but the set of runtime-typed schemas is not arbitrary
// beyond this (name, bit_start, bit_length) triple.
type BitField struct {
	Name      string `yaml:"name"`
	BitStart  int    `yaml:"bit_start"`
	BitLength int    `yaml:"bit_length"`
}

// HeaderFormat is the ordered list of bit-fields making up a buffer header.
// Three fields are load-bearing for the pipeline itself (FrameNum,
// BufferCount, FrameBufferCount); any others are device-specific telemetry
// and are carried through as an ordered name/value map (see internal/header).
type HeaderFormat []BitField

// Names of the fields the Grouper and Frame Assembler rely on structurally.
// A HeaderFormat must declare all three.
const (
	FieldFrameNum         = "frame_num"
	FieldBufferCount      = "buffer_count"
	FieldFrameBufferCount = "frame_buffer_count"
)

// RuntimeConfig holds tuning parameters that affect pipeline plumbing but not
// the bitstream format: queue depths and sink buffering.
type RuntimeConfig struct {
	// Q1Size, Q2Size and Q3Size are the capacities of the Framer->Grouper,
	// Grouper->Assembler and Assembler->sinks queues respectively.
	Q1Size int `yaml:"q1_size"`
	Q2Size int `yaml:"q2_size"`
	Q3Size int `yaml:"q3_size"`

	// CSVFlushDepth is the number of buffered rows between CSV flushes.
	CSVFlushDepth int `yaml:"csv_flush_depth"`

	// PlotHistory is the ring-buffer length kept per tracked header field
	// for the metadata plot sink.
	PlotHistory int `yaml:"plot_history"`

	// PlotFields names the header fields tracked by the metadata plot sink.
	PlotFields []string `yaml:"plot_fields"`

	// PlotUpdateMS is the interval between plot redraws, in milliseconds.
	PlotUpdateMS int `yaml:"plot_update_ms"`
}

// Default runtime tuning, used when a loaded config omits RuntimeConfig
// fields (a zero value for any one of these is almost never intentional).
const (
	DefaultQ1Size         = 32
	DefaultQ2Size         = 8
	DefaultQ3Size         = 8
	DefaultCSVFlushDepth  = 100
	DefaultPlotHistory    = 500
	DefaultPlotUpdateMS   = 200
)

// Config is the full, immutable device configuration for a capture session.
type Config struct {
	// Preamble is the bit-aligned synchronisation pattern emitted before
	// every logical buffer, given as a byte slice in the config file; its
	// effective length in bits is len(Preamble)*8.
	Preamble []byte `yaml:"preamble"`

	// HeaderLenBits is the length, in bits, of the packed header region that
	// follows the preamble in every buffer.
	HeaderLenBits int `yaml:"header_len"`

	// PixDepth is the number of bits per pixel produced by the device.
	PixDepth int `yaml:"pix_depth"`

	FrameWidth  int `yaml:"frame_width"`
	FrameHeight int `yaml:"frame_height"`

	// BufferBlockLength and BlockSize together give the total size in bytes
	// of one logical buffer: BufferBlockLength * BlockSize.
	BufferBlockLength int `yaml:"buffer_block_length"`
	BlockSize         int `yaml:"block_size"`

	// Reversal flags, independent of one another.
	ReverseHeaderBits   bool `yaml:"reverse_header_bits"`
	ReverseHeaderBytes  bool `yaml:"reverse_header_bytes"`
	ReversePayloadBits  bool `yaml:"reverse_payload_bits"`
	ReversePayloadBytes bool `yaml:"reverse_payload_bytes"`

	// HeaderFormat is the declarative bit-field layout of the buffer header.
	HeaderFormat HeaderFormat `yaml:"header_format"`

	// FrameRate is used to parameterise the video sink.
	FrameRate float64 `yaml:"fs"`

	// Device-specific parameters.
	BitfilePath string `yaml:"bitfile"`
	Port        string `yaml:"port"`
	Baudrate    int    `yaml:"baudrate"`

	Runtime RuntimeConfig `yaml:"runtime"`
}

// Load reads and parses a YAML configuration file at path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "could not read config file")
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, errors.Wrap(err, "could not parse config yaml")
	}
	c.applyRuntimeDefaults()
	return c, nil
}

func (c *Config) applyRuntimeDefaults() {
	if c.Runtime.Q1Size <= 0 {
		c.Runtime.Q1Size = DefaultQ1Size
	}
	if c.Runtime.Q2Size <= 0 {
		c.Runtime.Q2Size = DefaultQ2Size
	}
	if c.Runtime.Q3Size <= 0 {
		c.Runtime.Q3Size = DefaultQ3Size
	}
	if c.Runtime.CSVFlushDepth <= 0 {
		c.Runtime.CSVFlushDepth = DefaultCSVFlushDepth
	}
	if c.Runtime.PlotHistory <= 0 {
		c.Runtime.PlotHistory = DefaultPlotHistory
	}
	if c.Runtime.PlotUpdateMS <= 0 {
		c.Runtime.PlotUpdateMS = DefaultPlotUpdateMS
	}
}

// MultiError collects several independent validation failures, matching the
// aggregate-then-report style used by device.MultiError in revid's device
// implementations.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("config: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}

// Validate checks structural validity of the configuration, aggregating all
// problems found rather than stopping at the first.
func (c Config) Validate() error {
	var errs MultiError

	if len(c.Preamble) == 0 {
		errs = append(errs, errors.New("preamble must not be empty"))
	}
	if c.HeaderLenBits <= 0 || c.HeaderLenBits%8 != 0 {
		errs = append(errs, errors.New("header_len must be a positive multiple of 8"))
	}
	if c.PixDepth <= 0 {
		errs = append(errs, errors.New("pix_depth must be positive"))
	}
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		errs = append(errs, errors.New("frame_width and frame_height must be positive"))
	}
	if c.BufferBlockLength <= 0 || c.BlockSize <= 0 {
		errs = append(errs, errors.New("buffer_block_length and block_size must be positive"))
	}
	if len(c.HeaderFormat) == 0 {
		errs = append(errs, errors.New("header_format must declare at least one field"))
	}
	if c.BitfilePath == "" && c.Port == "" {
		errs = append(errs, errors.New("config must set either bitfile (fpga source) or port (uart source)"))
	}

	seen := map[string]bool{}
	for _, f := range c.HeaderFormat {
		if f.BitLength <= 0 {
			errs = append(errs, errors.Errorf("header field %q has non-positive bit_length", f.Name))
		}
		if f.BitStart < 0 {
			errs = append(errs, errors.Errorf("header field %q has negative bit_start", f.Name))
		}
		if f.BitStart+f.BitLength > c.HeaderLenBits {
			errs = append(errs, errors.Errorf("header field %q (bits [%d,%d)) exceeds header_len %d",
				f.Name, f.BitStart, f.BitStart+f.BitLength, c.HeaderLenBits))
		}
		seen[f.Name] = true
	}
	for _, required := range []string{FieldFrameNum, FieldBufferCount, FieldFrameBufferCount} {
		if !seen[required] {
			errs = append(errs, errors.Errorf("header_format is missing required field %q", required))
		}
	}

	if len(errs) != 0 {
		return errs
	}
	return nil
}

// PxPerBuffer returns the number of payload bytes carried by one full-size
// buffer: buffer_block_length*block_size - header_len/8.
func (c Config) PxPerBuffer() int {
	return c.BufferBlockLength*c.BlockSize - c.HeaderLenBits/8
}

// BufferNPix returns the ordered sequence of expected payload sizes, in
// bytes, for each buffer-index within a frame. All but the last entry equal
// PxPerBuffer(); the last is the remainder of frame_width*frame_height divided
// by PxPerBuffer(). The remainder entry is always appended, so when the
// division is exact the last entry is zero (divmod-then-append-remainder
// semantics).
func (c Config) BufferNPix() []int {
	perBuf := c.PxPerBuffer()
	total := c.FrameWidth * c.FrameHeight
	quotient, remainder := total/perBuf, total%perBuf

	npix := make([]int, 0, quotient+1)
	for i := 0; i < quotient; i++ {
		npix = append(npix, perBuf)
	}
	npix = append(npix, remainder)
	return npix
}

// NBufferPerFrame returns len(BufferNPix()).
func (c Config) NBufferPerFrame() int {
	return len(c.BufferNPix())
}

// ReadLength computes the Framer's device read-length policy: the largest
// multiple of 16 bytes not exceeding max(BufferNPix())*PixDepth/8.
func (c Config) ReadLength() int {
	max := 0
	for _, n := range c.BufferNPix() {
		if n > max {
			max = n
		}
	}
	bytesPerMax := max * c.PixDepth / 8
	return (bytesPerMax / 16) * 16
}
