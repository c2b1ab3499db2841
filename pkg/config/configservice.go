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

import (
	"path/filepath"
	"strconv"
)

const (
	DefaultAPIPort   = 7497
	DefaultRateLimit = 20
)

type Service struct {
	APIPort        *int      `toml:"api_port,omitempty" validate:"omitempty,min=1,max=65535"`
	RateLimit      *int      `toml:"rate_limit,omitempty" validate:"omitempty,min=1"`
	Discovery      Discovery `toml:"discovery,omitempty"`
	DeviceID       string    `toml:"device_id"`
	APIListen      string    `toml:"api_listen,omitempty"`
	ExportDir      string    `toml:"export_dir,omitempty"`
	AllowedOrigins []string  `toml:"allowed_origins,omitempty"`
	AllowedIPs     []string  `toml:"allowed_ips,omitempty" validate:"dive,cidr|ip"`
}

type Discovery struct {
	Enabled      *bool  `toml:"enabled,omitempty"`
	InstanceName string `toml:"instance_name,omitempty"`
}

func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiPortLocked()
}

// caller must hold mu
func (c *Instance) apiPortLocked() int {
	if c.vals.Service.APIPort == nil {
		return DefaultAPIPort
	}
	return *c.vals.Service.APIPort
}

func (c *Instance) SetAPIPort(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Service.APIPort = &port
}

// APIListen returns the listen address, defaulting to all interfaces on
// the API port.
func (c *Instance) APIListen() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.APIListen == "" {
		return ":" + strconv.Itoa(c.apiPortLocked())
	}
	return c.vals.Service.APIListen
}

// RateLimit is the number of API requests allowed per second per client.
func (c *Instance) RateLimit() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.RateLimit == nil {
		return DefaultRateLimit
	}
	return *c.vals.Service.RateLimit
}

func (c *Instance) AllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.AllowedOrigins
}

func (c *Instance) AllowedIPs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.AllowedIPs
}

func (c *Instance) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.DeviceID
}

// ExportDir is where log exports are written. Relative paths resolve
// against the config file directory.
func (c *Instance) ExportDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dir := c.vals.Service.ExportDir
	if dir == "" {
		dir = ExportDirName
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(filepath.Dir(c.cfgPath), dir)
}

func (c *Instance) DiscoveryEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.Discovery.Enabled == nil {
		return true
	}
	return *c.vals.Service.Discovery.Enabled
}

func (c *Instance) DiscoveryInstanceName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.Discovery.InstanceName
}
