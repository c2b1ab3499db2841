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

// Package watchdog drives the console's automatic transitions: the thermal
// warning after a period of inactivity while unlocked, and the idle sleep.
package watchdog

import (
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/ZaparooProject/cerberus-console/pkg/console/schedule"
)

const (
	DefaultTick         = time.Second
	DefaultThermalAfter = 35 * time.Second
	DefaultSleepAfter   = 40 * time.Second

	// Group is the scheduler group of the watchdog tick.
	Group schedule.Group = "watchdog"
)

// Target is the session the watchdog inspects and acts on.
type Target interface {
	State() models.SessionState
	LastActivity() time.Time
	ThermalLatched() bool
	// ThermalWarning shows the warning and sets the thermal latch.
	ThermalWarning()
	// IdleSleep puts the console to sleep awaiting the wake word.
	IdleSleep()
}

// Config holds the watchdog timings. Zero values use the defaults.
type Config struct {
	Tick         time.Duration
	ThermalAfter time.Duration
	SleepAfter   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	if c.ThermalAfter <= 0 {
		c.ThermalAfter = DefaultThermalAfter
	}
	if c.SleepAfter <= 0 {
		c.SleepAfter = DefaultSleepAfter
	}
	return c
}

// Result reports what a single check did.
type Result struct {
	Thermal bool
	Slept   bool
}

// Watchdog periodically checks a target for inactivity.
type Watchdog struct {
	target Target
	sched  *schedule.Scheduler
	cfg    Config
	id     schedule.TaskID
}

// New returns a stopped watchdog for target.
func New(cfg Config, target Target) *Watchdog {
	return &Watchdog{
		cfg:    cfg.withDefaults(),
		target: target,
	}
}

// Config returns the effective timings.
func (w *Watchdog) Config() Config {
	return w.cfg
}

// Check runs both inactivity rules once at now. The thermal rule is
// evaluated first; both may fire on the same tick.
func (w *Watchdog) Check(now time.Time) Result {
	var res Result
	elapsed := now.Sub(w.target.LastActivity())

	if w.target.State() == models.StateUnlocked &&
		elapsed > w.cfg.ThermalAfter &&
		!w.target.ThermalLatched() {
		w.target.ThermalWarning()
		res.Thermal = true
	}

	if CanSleep(w.target.State()) && elapsed > w.cfg.SleepAfter {
		w.target.IdleSleep()
		res.Slept = true
	}

	return res
}

// CanSleep reports whether the idle timeout applies in state.
func CanSleep(state models.SessionState) bool {
	switch state {
	case models.StateSleep, models.StateSOS, models.StateEncrypting, models.StateBooting:
		return false
	default:
		return true
	}
}

// Start begins ticking on sched. Calling Start on a running watchdog
// restarts it.
func (w *Watchdog) Start(sched *schedule.Scheduler) {
	w.Stop()
	w.sched = sched
	w.id = sched.Every(w.cfg.Tick, Group, func(now time.Time) bool {
		w.Check(now)
		return true
	})
}

// Stop halts ticking.
func (w *Watchdog) Stop() {
	if w.sched == nil {
		return
	}
	w.sched.Cancel(w.id)
	w.sched = nil
}

// Running reports whether the watchdog is ticking.
func (w *Watchdog) Running() bool {
	return w.sched != nil
}
