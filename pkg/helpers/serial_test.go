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

package helpers

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func TestSerialDevicesOrdersUSBFirst(t *testing.T) {
	t.Parallel()

	native := "/dev/ttyACM9"
	switch runtime.GOOS {
	case "windows":
		native = "COM9"
	case "darwin":
		native = "/dev/cu.usbmodem9"
	}

	list := func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: native},
			{Name: "/dev/ttyUSB1", IsUSB: true, VID: "2341", PID: "0043"},
			{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1A86", PID: "7523"},
			{Name: "/dev/ttyUSB2", IsUSB: true, VID: "16C0", PID: "0F38"},
			nil,
			{Name: ""},
		}, nil
	}

	got, err := SerialDevices(list)
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1", native}, got)
}

func TestSerialDevicesSkipsBuiltinUART(t *testing.T) {
	t.Parallel()
	if runtime.GOOS != "linux" {
		t.Skip("linux only")
	}

	got, err := SerialDevices(func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{{Name: "/dev/ttyS0"}}, nil
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSerialDevicesError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	_, err := SerialDevices(func() ([]*enumerator.PortDetails, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}
