/*
DESCRIPTION
  device.go defines the Device interface used by the Framer to pull raw byte
  chunks from a physical or mock acquisition device, and the constructor
  dispatch that selects an implementation from configuration and environment.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides the Device interface and its implementations: an
// FPGA (OpalKelly-style FrontPanel) reader, a UART reader, and a mock reader
// that replays a captured binary file. This is the narrow-interface seam
// spec.md §6 describes as an external collaborator; the physical driver
// itself is out of scope.
package device

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/ausocean/miniscope/internal/config"
)

// Device is a pull-based source of raw byte chunks. ReadData returns
// (nil, io.EOF) at end-of-stream, the Go-idiomatic replacement for the
// source's EndOfRecordingException-based control flow (SPEC_FULL.md §9).
type Device interface {
	// UploadBitfile configures the device with a bitfile, where applicable.
	// Implementations that don't need one (UART, mock) treat this as a no-op.
	UploadBitfile(path string) error

	// ReadData reads up to n bytes, or returns an error, including io.EOF
	// at clean end-of-stream.
	ReadData(ctx context.Context, n int) ([]byte, error)

	// Close releases the underlying device connection.
	Close() error
}

// Source names the selectable device backends.
type Source string

const (
	SourceFPGA Source = "fpga"
	SourceUART Source = "uart"
	SourceMock Source = "mock"
)

// mockRunEnvVar selects the mock device regardless of the requested source,
// mirroring the source's STREAMDAQ_MOCKRUN / PYTEST_CURRENT_TEST substitution.
const mockRunEnvVar = "MINISCOPE_MOCKRUN"

// Select constructs a Device for the given source and configuration. If the
// MINISCOPE_MOCKRUN environment variable is set, or the calling binary is a
// go test binary, a MockDevice replaying mockPath is returned regardless of
// source, so tests never need to touch a physical device.
func Select(src Source, cfg config.Config, mockPath string) (Device, error) {
	if os.Getenv(mockRunEnvVar) != "" || testing.Testing() {
		return NewMockDevice(mockPath)
	}

	switch src {
	case SourceFPGA:
		return NewFPGADevice(cfg.BitfilePath)
	case SourceUART:
		return NewUARTDevice(cfg.Port, cfg.Baudrate)
	case SourceMock:
		return NewMockDevice(mockPath)
	default:
		return nil, fmt.Errorf("device: unrecognised source: %q", src)
	}
}
