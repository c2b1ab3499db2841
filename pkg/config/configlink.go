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

package config

const (
	LinkDriverSerial = "serial"
	LinkDriverMQTT   = "mqtt"
	LinkDriverNone   = "none"

	DefaultBaud = 9600
)

// Link selects the uplink the console mirrors commands to.
type Link struct {
	Driver      string `toml:"driver" validate:"oneof=serial mqtt none"`
	Path        string `toml:"path,omitempty"`
	Broker      string `toml:"broker,omitempty" validate:"required_if=Driver mqtt"`
	Topic       string `toml:"topic,omitempty" validate:"required_if=Driver mqtt"`
	Baud        int    `toml:"baud" validate:"min=300,max=4000000"`
	EchoRX      bool   `toml:"echo_rx"`
	AutoConnect bool   `toml:"auto_connect"`
}

func (c *Instance) Link() Link {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Link
}

func (c *Instance) SetLink(link Link) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Link = link
}
