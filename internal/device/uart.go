/*
DESCRIPTION
  uart.go implements Device over a serial port, for miniscope devices that
  stream over UART rather than an FPGA FrontPanel connection.

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
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// serialPort abstracts tarm/serial for testability, grounded on
// kstaniek-go-ampio-server/internal/serial.Port.
type serialPort interface {
	Read(p []byte) (int, error)
	Close() error
}

// readTimeout bounds each serial read so the UART device can periodically
// recheck ctx, even though (per the known limitation below) it cannot abort
// a read already in flight.
const readTimeout = 5 * time.Second

// UARTDevice reads from a serial port.
//
// Known limitation, preserved from the source's _uart_recv: a read already
// in progress cannot be cancelled mid-flight, since the underlying serial
// driver has no cancellation primitive. Closing the device unblocks it, but
// ReadData will not observe ctx cancellation until its current Read
// returns. This is not re-invented here; it is documented, not fixed.
type UARTDevice struct {
	port serialPort
}

// NewUARTDevice opens the named serial port at the given baud rate.
func NewUARTDevice(name string, baud int) (*UARTDevice, error) {
	if name == "" {
		return nil, fmt.Errorf("device: uart device requires a port name")
	}
	cfg := &serial.Config{Name: name, Baud: baud, ReadTimeout: readTimeout}
	p, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("device: could not open serial port %q: %w", name, err)
	}
	return &UARTDevice{port: p}, nil
}

// UploadBitfile is a no-op for UART devices; they have no reconfigurable
// fabric to program.
func (d *UARTDevice) UploadBitfile(path string) error { return nil }

// ReadData reads up to n bytes from the serial port.
func (d *UARTDevice) ReadData(ctx context.Context, n int) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	buf := make([]byte, n)
	read, err := d.port.Read(buf)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("device: uart read error: %w", err)
	}
	return buf[:read], nil
}

// Close closes the serial port.
func (d *UARTDevice) Close() error {
	return d.port.Close()
}
