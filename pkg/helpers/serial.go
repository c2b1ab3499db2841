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
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial/enumerator"
)

// usbID identifies a USB device by vendor and product.
type usbID struct {
	Vid string
	Pid string
}

// Adapters that enumerate as serial ports but never speak the console
// protocol.
var ignoreDevices = []usbID{
	// Sinden Lightgun
	{Vid: "16c0", Pid: "0f38"},
	{Vid: "16c0", Pid: "0f39"},
	{Vid: "16d0", Pid: "0f38"},
	{Vid: "16d0", Pid: "0f39"},
}

// PortLister enumerates serial ports with their USB details.
type PortLister func() ([]*enumerator.PortDetails, error)

// SerialDevices picks usable ports from list, USB adapters first.
func SerialDevices(list PortLister) ([]string, error) {
	ports, err := list()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	var usb, other []string
	for _, p := range ports {
		if p == nil || p.Name == "" {
			continue
		}
		if p.IsUSB {
			if ignoredDevice(p.VID, p.PID) {
				log.Debug().Str("port", p.Name).Msg("ignoring serial device")
				continue
			}
			usb = append(usb, p.Name)
			continue
		}
		if nativePort(p.Name) {
			other = append(other, p.Name)
		}
	}

	slices.Sort(usb)
	slices.Sort(other)
	return append(usb, other...), nil
}

// GetSerialDeviceList enumerates the host's serial ports.
func GetSerialDeviceList() ([]string, error) {
	return SerialDevices(enumerator.GetDetailedPortsList)
}

func ignoredDevice(vid, pid string) bool {
	vid = strings.ToLower(vid)
	pid = strings.ToLower(pid)
	return slices.Contains(ignoreDevices, usbID{Vid: vid, Pid: pid})
}

// Built-in UARTs are listed on every Linux box whether wired or not, so
// only USB adapters count there.
func nativePort(name string) bool {
	switch runtime.GOOS {
	case "linux":
		return strings.HasPrefix(name, "/dev/ttyACM") || strings.HasPrefix(name, "/dev/ttyUSB")
	case "darwin":
		return strings.HasPrefix(name, "/dev/tty.usbserial") || strings.HasPrefix(name, "/dev/cu.usbmodem")
	case "windows":
		return strings.HasPrefix(name, "COM")
	default:
		return true
	}
}
