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

package session

import (
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/console/schedule"
)

type output int

const (
	outputLight output = iota
	outputSound
)

func (o output) group() schedule.Group {
	if o == outputLight {
		return groupLight
	}
	return groupSound
}

func (m *Machine) setLight(on bool) {
	if m.alarms.Light == on {
		return
	}
	m.alarms.Light = on
	m.sinks.Light.Set(on)
}

func (m *Machine) setSound(on bool) {
	if m.alarms.Sound == on {
		return
	}
	m.alarms.Sound = on
	m.sinks.Sound.Set(on)
}

func (m *Machine) set(o output, on bool) {
	if o == outputLight {
		m.setLight(on)
		return
	}
	m.setSound(on)
}

// pulse switches o on and back off after d. A new pulse on the same
// output replaces the pending switch-off, so the output stays on until
// the latest pulse ends.
func (m *Machine) pulse(o output, d time.Duration) {
	m.sched.CancelGroup(o.group())
	m.set(o, true)
	m.sched.After(d, o.group(), func(time.Time) {
		m.set(o, false)
	})
}
