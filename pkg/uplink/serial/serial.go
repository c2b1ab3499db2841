// Cerberus Console
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Cerberus Console.
//
// Cerberus Console is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Cerberus Console is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Cerberus Console.  If not, see <http://www.gnu.org/licenses/>.

// Package serial implements the uplink over a serial port.
package serial

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/helpers"
	"github.com/ZaparooProject/cerberus-console/pkg/helpers/syncutil"
	"github.com/ZaparooProject/cerberus-console/pkg/uplink"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

const (
	DefaultBaud = 9600
	readTimeout = 100 * time.Millisecond
)

// Port is the subset of serial.Port used by the link.
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// PortFactory opens a port.
type PortFactory func(path string, mode *serial.Mode) (Port, error)

// PortLister enumerates candidate ports.
type PortLister func() ([]string, error)

// DefaultPortFactory opens real serial ports.
func DefaultPortFactory(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// ErrNoPorts is returned when no path is configured and none is found.
var ErrNoPorts = errors.New("no serial ports found")

// Connector opens the configured serial port. Only one channel may be open
// at a time.
type Connector struct {
	open   PortFactory
	list   PortLister
	active *Channel
	path   string
	baud   int
	mu     syncutil.Mutex
}

// Option customizes a Connector.
type Option func(*Connector)

// WithPortFactory replaces the port opener.
func WithPortFactory(f PortFactory) Option {
	return func(c *Connector) { c.open = f }
}

// WithPortLister replaces the port enumerator.
func WithPortLister(f PortLister) Option {
	return func(c *Connector) { c.list = f }
}

// NewConnector returns a connector for path at baud. An empty path picks
// the first enumerated port when connecting.
func NewConnector(path string, baud int, opts ...Option) *Connector {
	if baud <= 0 {
		baud = DefaultBaud
	}
	c := &Connector{
		path: path,
		baud: baud,
		open: DefaultPortFactory,
		list: helpers.GetSerialDeviceList,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check reports KindUnsupported when no path is configured and the host
// has no serial ports to pick from.
func (c *Connector) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return uplink.NewConnectError(uplink.KindUserCancelled, err)
	}
	if c.path != "" {
		return nil
	}
	ports, err := c.list()
	if err != nil {
		return classify(fmt.Errorf("failed to list serial ports: %w", err))
	}
	if len(ports) == 0 {
		return uplink.NewConnectError(uplink.KindUnsupported, ErrNoPorts)
	}
	return nil
}

// Connect opens the port.
func (c *Connector) Connect(ctx context.Context) (uplink.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, uplink.NewConnectError(uplink.KindUserCancelled, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, uplink.NewConnectError(uplink.KindAlreadyOpen, nil)
	}

	path := c.path
	if path == "" {
		ports, err := c.list()
		if err != nil {
			return nil, classify(fmt.Errorf("failed to list serial ports: %w", err))
		}
		if len(ports) == 0 {
			return nil, uplink.NewConnectError(uplink.KindUnknown, ErrNoPorts)
		}
		path = ports[0]
	}

	port, err := c.open(path, &serial.Mode{BaudRate: c.baud})
	if err != nil {
		return nil, classify(err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, uplink.NewConnectError(
			uplink.KindUnknown,
			fmt.Errorf("failed to set read timeout: %w", err),
		)
	}

	log.Info().Str("path", path).Int("baud", c.baud).Msg("serial uplink opened")

	ch := &Channel{
		port:   port,
		owner:  c,
		label:  strconv.Itoa(c.baud) + " BAUD",
		closed: make(chan struct{}),
	}
	c.active = ch
	return ch, nil
}

func (c *Connector) release(ch *Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == ch {
		c.active = nil
	}
}

// KindForCode maps a serial library error code to an uplink error kind.
func KindForCode(code serial.PortErrorCode) uplink.ErrorKind {
	switch code {
	case serial.PortBusy:
		return uplink.KindBusy
	case serial.PermissionDenied:
		return uplink.KindPermissionDenied
	case serial.FunctionNotImplemented, serial.ErrorEnumeratingPorts:
		return uplink.KindUnsupported
	case serial.PortNotFound, serial.InvalidSerialPort, serial.PortClosed,
		serial.InvalidSpeed, serial.InvalidDataBits, serial.InvalidParity,
		serial.InvalidStopBits, serial.InvalidTimeoutValue:
		return uplink.KindUnknown
	default:
		return uplink.KindUnknown
	}
}

func classify(err error) *uplink.ConnectError {
	var ptr *serial.PortError
	if errors.As(err, &ptr) {
		return uplink.NewConnectError(KindForCode(ptr.Code()), err)
	}
	var val serial.PortError
	if errors.As(err, &val) {
		return uplink.NewConnectError(KindForCode(val.Code()), err)
	}
	return uplink.Classify(err)
}

// Channel is an open serial link.
type Channel struct {
	port      Port
	owner     *Connector
	closed    chan struct{}
	label     string
	closeOnce sync.Once
	mu        syncutil.Mutex
}

// Label implements uplink.Channel.
func (ch *Channel) Label() string {
	return ch.label
}

// Send writes one uppercased, newline-terminated line.
func (ch *Channel) Send(line string) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	select {
	case <-ch.closed:
		return uplink.ErrClosed
	default:
	}

	if _, err := ch.port.Write([]byte(uplink.FormatLine(line))); err != nil {
		return fmt.Errorf("failed to write to serial port: %w", err)
	}
	return nil
}

// Receive starts the read loop. The port is released when the loop ends
// on a read error.
func (ch *Channel) Receive(ctx context.Context) <-chan string {
	out := make(chan string, 16)

	go func() {
		defer close(out)
		var pending []byte
		buf := make([]byte, 256)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ch.closed:
				return
			default:
			}

			n, err := ch.port.Read(buf)
			if err != nil {
				select {
				case <-ch.closed:
				default:
					log.Error().Err(err).Msg("failed to read from serial port")
					if cerr := ch.Close(); cerr != nil {
						log.Debug().Err(cerr).Msg("error closing serial port")
					}
				}
				return
			}
			if n == 0 {
				continue
			}

			for _, line := range uplink.SplitLines(&pending, buf[:n]) {
				select {
				case out <- line:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Close releases the port.
func (ch *Channel) Close() error {
	var err error
	ch.closeOnce.Do(func() {
		close(ch.closed)
		ch.mu.Lock()
		err = ch.port.Close()
		ch.mu.Unlock()
		ch.owner.release(ch)
		log.Info().Msg("serial uplink closed")
	})
	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}
