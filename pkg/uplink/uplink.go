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

// Package uplink defines the output channel that mirrors console commands
// to an external device, and the structured errors raised when the
// channel cannot be opened.
package uplink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
)

// Channel is an open link to a device.
type Channel interface {
	// Send writes one command line. Lines are uppercased and terminated
	// with a newline by the driver.
	Send(line string) error
	// Receive streams complete lines from the device. The returned channel
	// is closed when ctx is done or the link ends.
	Receive(ctx context.Context) <-chan string
	// Close releases the link. It is safe to call more than once.
	Close() error
	// Label describes the link for the operator, e.g. "9600 BAUD".
	Label() string
}

// Connector opens channels.
type Connector interface {
	Connect(ctx context.Context) (Channel, error)
}

// Checker is implemented by connectors that can tell before connecting
// whether their transport exists on this host. Check returns a
// ConnectError when it does not.
type Checker interface {
	Check(ctx context.Context) error
}

// ErrorKind classifies why a channel could not be opened.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnsupported
	KindUserCancelled
	KindPermissionDenied
	KindBusy
	KindAlreadyOpen
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindUserCancelled:
		return "user_cancelled"
	case KindPermissionDenied:
		return "permission_denied"
	case KindBusy:
		return "busy"
	case KindAlreadyOpen:
		return "already_open"
	default:
		return "unknown"
	}
}

// Message is the operator-facing log line for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case KindUnsupported:
		return "SERIAL UNSUPPORTED"
	case KindUserCancelled:
		return "PORT SELECTION CANCELLED"
	case KindPermissionDenied:
		return "ACCESS BLOCKED"
	case KindBusy:
		return "PORT BUSY"
	case KindAlreadyOpen:
		return "PORT ALREADY OPEN"
	default:
		return "ACCESS DENIED"
	}
}

// Hint is the follow-up suggestion for the kind, or "" when none applies.
func (k ErrorKind) Hint() string {
	switch k {
	case KindUnsupported:
		return "USE A HOST WITH SERIAL PORTS"
	case KindUserCancelled:
		return ""
	case KindPermissionDenied:
		return "CHECK PORT PERMISSIONS"
	case KindBusy:
		return "CLOSE SERIAL MONITOR?"
	case KindAlreadyOpen:
		return "DISCONNECT FIRST"
	default:
		return "CHECK USB CONNECTION"
	}
}

// ConnectError is returned by Connector.Connect.
type ConnectError struct {
	Err  error
	Kind ErrorKind
}

func (e *ConnectError) Error() string {
	if e.Err == nil {
		return "connect failed: " + e.Kind.String()
	}
	return fmt.Sprintf("connect failed (%s): %v", e.Kind, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// NewConnectError wraps err with kind.
func NewConnectError(kind ErrorKind, err error) *ConnectError {
	return &ConnectError{Kind: kind, Err: err}
}

// Classify returns err as a ConnectError. Context cancellation maps to
// KindUserCancelled and anything unrecognized to KindUnknown.
func Classify(err error) *ConnectError {
	if err == nil {
		return nil
	}
	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.Canceled) {
		return NewConnectError(KindUserCancelled, err)
	}
	return NewConnectError(KindUnknown, err)
}

// ErrClosed is returned when sending on a closed channel.
var ErrClosed = errors.New("uplink closed")

// FormatLine prepares a command for the wire.
func FormatLine(line string) string {
	return strings.ToUpper(line) + "\n"
}

// SplitLines feeds data into buf and returns the complete, trimmed,
// non-empty lines it contains. The unterminated tail stays in buf.
func SplitLines(buf *[]byte, data []byte) []string {
	*buf = append(*buf, data...)
	var lines []string
	for {
		i := bytes.IndexByte(*buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(strings.Trim(string((*buf)[:i]), "\r"))
		*buf = (*buf)[i+1:]
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
