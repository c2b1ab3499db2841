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

import "maps"

const (
	PolicyPreempt = "preempt"
	PolicyLegacy  = "legacy"

	DefaultThermalSeconds = 35
	DefaultSleepSeconds   = 40
	DefaultLogCapacity    = 50
)

// Words overrides the console vocabulary. Empty fields keep the stock word.
type Words struct {
	QuickMessages map[string]string `toml:"quick_messages,omitempty"`
	Erase         string            `toml:"erase,omitempty"`
	Awake         string            `toml:"awake,omitempty"`
	SOS           string            `toml:"sos,omitempty"`
	Farewell      string            `toml:"farewell,omitempty"`
	Lockdown      string            `toml:"lockdown,omitempty"`
	SOSAliases    []string          `toml:"sos_aliases,omitempty"`
}

type Console struct {
	Words          Words  `toml:"words,omitempty"`
	AdminPassword  string `toml:"admin_password,omitempty"`
	GuestPassword  string `toml:"guest_password,omitempty"`
	Operator       string `toml:"operator,omitempty"`
	Banner         string `toml:"banner,omitempty" validate:"max=32"`
	Policy         string `toml:"policy" validate:"oneof=preempt legacy"`
	ThermalSeconds int    `toml:"thermal_seconds" validate:"min=1"`
	SleepSeconds   int    `toml:"sleep_seconds" validate:"min=1,gtefield=ThermalSeconds"`
	LogCapacity    int    `toml:"log_capacity" validate:"min=1,max=10000"`
}

func DefaultConsole() Console {
	return Console{
		Policy:         PolicyPreempt,
		ThermalSeconds: DefaultThermalSeconds,
		SleepSeconds:   DefaultSleepSeconds,
		LogCapacity:    DefaultLogCapacity,
	}
}

// Console returns a copy of the console section.
func (c *Instance) Console() Console {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.vals.Console
	out.Words.QuickMessages = maps.Clone(out.Words.QuickMessages)
	out.Words.SOSAliases = append([]string(nil), out.Words.SOSAliases...)
	return out
}

func (c *Instance) SetPolicy(policy string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Console.Policy = policy
}
