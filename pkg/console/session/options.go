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
	"github.com/ZaparooProject/cerberus-console/pkg/console/commands"
	"github.com/ZaparooProject/cerberus-console/pkg/console/eventlog"
	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/ZaparooProject/cerberus-console/pkg/console/watchdog"
)

// Policy decides what happens to timed sequences still in flight when the
// console is forced into sleep, lockdown or SOS.
type Policy string

const (
	// PolicyPreempt cancels in-flight sequences and resets both alarm
	// outputs before the new mode takes over.
	PolicyPreempt Policy = "preempt"
	// PolicyLegacy lets in-flight sequences complete, even when their
	// frames overwrite the new mode's.
	PolicyLegacy Policy = "legacy"
)

const (
	DefaultAdminPassword = "SAGAR"
	DefaultGuestPassword = "SAGAR*"
	DefaultOperator      = "SAGAR"
	DefaultBanner        = "CERBERUS V3.1 ONLINE"
)

// Options configures a Machine. Zero values fall back to the stock console.
type Options struct {
	Words         *commands.Words
	AdminPassword string
	GuestPassword string
	Operator      string
	Banner        string
	Policy        Policy
	Watchdog      watchdog.Config
	LogCapacity   int
}

func (o Options) withDefaults() Options {
	if o.Words == nil {
		w := commands.DefaultWords()
		o.Words = &w
	}
	if o.AdminPassword == "" {
		o.AdminPassword = DefaultAdminPassword
	}
	if o.GuestPassword == "" {
		o.GuestPassword = DefaultGuestPassword
	}
	if o.Operator == "" {
		o.Operator = DefaultOperator
	}
	if o.Banner == "" {
		o.Banner = DefaultBanner
	}
	if o.Policy == "" {
		o.Policy = PolicyPreempt
	}
	if o.LogCapacity <= 0 {
		o.LogCapacity = eventlog.DefaultCapacity
	}
	o.AdminPassword = commands.Normalize(o.AdminPassword)
	o.GuestPassword = commands.Normalize(o.GuestPassword)
	o.Operator = commands.Normalize(o.Operator)
	return o
}

// Display is a sink for the two simulated screens.
type Display interface {
	SetCharacterDisplay(line1, line2 string)
	SetGraphicDisplay(text string, icon models.Icon)
}

// Actuator is a binary alarm output.
type Actuator interface {
	Set(on bool)
}

// ActuatorFunc adapts a function to Actuator.
type ActuatorFunc func(on bool)

func (f ActuatorFunc) Set(on bool) { f(on) }

// Uplink mirrors accepted commands to an external device.
type Uplink interface {
	Connected() bool
	Send(line string) error
	// Drop force-disconnects after a failed send.
	Drop()
}

// Observer receives state and log changes.
type Observer interface {
	StateChanged(from, to models.SessionState)
	LogAdded(entry models.LogEntry)
	LogCleared()
	LinkChanged(connected bool)
}

// NopObserver ignores every event. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) StateChanged(models.SessionState, models.SessionState) {}
func (NopObserver) LogAdded(models.LogEntry)                              {}
func (NopObserver) LogCleared()                                           {}
func (NopObserver) LinkChanged(bool)                                      {}

type nopDisplay struct{}

func (nopDisplay) SetCharacterDisplay(string, string)    {}
func (nopDisplay) SetGraphicDisplay(string, models.Icon) {}

type offlineUplink struct{}

func (offlineUplink) Connected() bool   { return false }
func (offlineUplink) Send(string) error { return nil }
func (offlineUplink) Drop()             {}

// Sinks are the collaborators a Machine drives. Nil members are ignored.
type Sinks struct {
	Display  Display
	Light    Actuator
	Sound    Actuator
	Uplink   Uplink
	Observer Observer
}

func (s Sinks) withDefaults() Sinks {
	if s.Display == nil {
		s.Display = nopDisplay{}
	}
	if s.Light == nil {
		s.Light = ActuatorFunc(func(bool) {})
	}
	if s.Sound == nil {
		s.Sound = ActuatorFunc(func(bool) {})
	}
	if s.Uplink == nil {
		s.Uplink = offlineUplink{}
	}
	if s.Observer == nil {
		s.Observer = NopObserver{}
	}
	return s
}
