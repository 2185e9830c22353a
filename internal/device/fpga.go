/*
DESCRIPTION
  fpga.go implements Device over an OpalKelly-style FPGA FrontPanel handle.
  The concrete transport is kept behind the narrow frontPanel interface so
  that the real vendor SDK can be swapped in without touching the pipeline,
  the same seam ausocean/av/device/geovision uses for its RTSP camera.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package device

import (
	"context"
	"errors"
	"fmt"
)

// frontPanel is the minimal surface the FPGA device needs from a vendor SDK:
// upload a configuration bitfile, set a control wire, and read a block of
// data from the device's pipe-out endpoint. No such SDK ships in this
// module's dependency set (it is a proprietary vendor library), so
// frontPanel exists purely as the seam a concrete driver plugs into.
type frontPanel interface {
	UploadBitfile(path string) error
	SetWire(addr int, value uint32) error
	ReadData(n int) ([]byte, error)
	Close() error
}

// ErrNoFrontPanel is returned by FPGA device operations when no frontPanel
// implementation has been wired in.
var ErrNoFrontPanel = errors.New("device: no FPGA front panel driver available")

// FPGADevice reads from an OpalKelly-style FPGA device over a frontPanel.
type FPGADevice struct {
	bitfile string
	fp      frontPanel
}

// NewFPGADevice returns an FPGADevice configured to upload bitfile on
// connection. Without a concrete frontPanel wired in via SetFrontPanel,
// ReadData and UploadBitfile return ErrNoFrontPanel.
func NewFPGADevice(bitfile string) (*FPGADevice, error) {
	if bitfile == "" {
		return nil, fmt.Errorf("device: fpga device requires a bitfile path")
	}
	return &FPGADevice{bitfile: bitfile}, nil
}

// SetFrontPanel wires a concrete vendor driver into the device.
func (d *FPGADevice) SetFrontPanel(fp frontPanel) {
	d.fp = fp
}

// UploadBitfile uploads the configured bitfile to the device and pulses the
// reset/start wires, mirroring the source's _init_okdev sequence.
func (d *FPGADevice) UploadBitfile(path string) error {
	if d.fp == nil {
		return ErrNoFrontPanel
	}
	if path == "" {
		path = d.bitfile
	}
	if err := d.fp.UploadBitfile(path); err != nil {
		return fmt.Errorf("device: could not upload bitfile: %w", err)
	}
	const (
		wireReset = 0x00
		resetHigh = 0b0010
		resetLow  = 0b0000
		startHigh = 0b1000
	)
	for _, v := range []uint32{resetHigh, resetLow, startHigh, resetLow} {
		if err := d.fp.SetWire(wireReset, v); err != nil {
			return fmt.Errorf("device: could not set control wire: %w", err)
		}
	}
	return nil
}

// ReadData reads n bytes from the device's pipe-out endpoint.
func (d *FPGADevice) ReadData(ctx context.Context, n int) ([]byte, error) {
	if d.fp == nil {
		return nil, ErrNoFrontPanel
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	buf, err := d.fp.ReadData(n)
	if err != nil {
		return nil, fmt.Errorf("device: fpga read error: %w", err)
	}
	return buf, nil
}

// Close releases the underlying front panel connection, if any.
func (d *FPGADevice) Close() error {
	if d.fp == nil {
		return nil
	}
	return d.fp.Close()
}
