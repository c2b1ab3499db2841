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

// Package session implements the console's lock state machine and the
// runtime that drives it from real input, a real clock and a live link.
package session

import (
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/console/commands"
	"github.com/ZaparooProject/cerberus-console/pkg/console/eventlog"
	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/ZaparooProject/cerberus-console/pkg/console/schedule"
	"github.com/ZaparooProject/cerberus-console/pkg/console/watchdog"
	"github.com/rs/zerolog/log"
)

// Scheduler groups of the timed sequences.
const (
	groupSend     schedule.Group = "send"
	groupAnim     schedule.Group = "send.anim"
	groupWelcome  schedule.Group = "welcome"
	groupErase    schedule.Group = "erase"
	groupFarewell schedule.Group = "farewell"
	groupSOS      schedule.Group = "sos"
	groupLight    schedule.Group = "pulse.light"
	groupSound    schedule.Group = "pulse.sound"
	groupLink     schedule.Group = "link"
)

// preemptable are the sequences cancelled by a forced transition under
// PolicyPreempt.
var preemptable = []schedule.Group{
	groupSend, groupAnim, groupWelcome, groupErase, groupFarewell, groupLight, groupSound,
}

// Machine is the session context: it owns the state, activity clock,
// pending wake flag, event log, display frames and alarm outputs. All
// methods must be called from a single goroutine.
type Machine struct {
	lastActivity time.Time
	sinks        Sinks
	sched        *schedule.Scheduler
	log          *eventlog.Buffer
	parser       *commands.Parser
	watchdog     *watchdog.Watchdog
	graphic      models.GraphicFrame
	character    models.CharacterFrame
	opts         Options
	alarms       models.AlarmOutputs
	state        models.SessionState
	pendingWake  bool
	thermalLatch bool
}

// NewMachine returns a machine in the BOOTING state whose virtual clock
// starts at start.
func NewMachine(opts Options, sinks Sinks, start time.Time) *Machine {
	opts = opts.withDefaults()
	m := &Machine{
		opts:         opts,
		sinks:        sinks.withDefaults(),
		sched:        schedule.New(start),
		log:          eventlog.New(opts.LogCapacity),
		parser:       commands.NewParser(*opts.Words),
		state:        models.StateBooting,
		lastActivity: start,
	}
	m.log.OnAppend(m.sinks.Observer.LogAdded)
	m.log.OnClear(m.sinks.Observer.LogCleared)
	m.watchdog = watchdog.New(opts.Watchdog, m)
	return m
}

// Boot logs the banner, shows the password prompt, enters LOCKED and
// starts the watchdog. Booting twice has no effect.
func (m *Machine) Boot() {
	if m.state != models.StateBooting {
		return
	}
	m.lastActivity = m.sched.Now()
	m.Log(models.SourceSystem, m.opts.Banner, models.SeveritySuccess)
	m.setCharacter("ENTER PASSWORD:", "")
	m.setGraphic("LOCKED", models.IconLock)
	m.setState(models.StateLocked)
	m.watchdog.Start(m.sched)
}

// Now returns the machine's virtual time.
func (m *Machine) Now() time.Time {
	return m.sched.Now()
}

// AdvanceTo runs every timed stage and watchdog tick due up to t.
func (m *Machine) AdvanceTo(t time.Time) {
	m.sched.AdvanceTo(t)
}

// Advance moves the virtual clock forward by d.
func (m *Machine) Advance(d time.Duration) {
	m.sched.Advance(d)
}

// NextDue returns when the next timed stage or tick falls due.
func (m *Machine) NextDue() (time.Time, bool) {
	return m.sched.Next()
}

// After schedules fn on the machine's clock. It is used by the runtime for
// link follow-ups so they interleave with the session's own stages.
func (m *Machine) After(d time.Duration, fn func(now time.Time)) {
	m.sched.After(d, groupLink, fn)
}

// Log appends an entry stamped with the virtual time.
func (m *Machine) Log(source models.Source, message string, severity models.Severity) models.LogEntry {
	return m.log.Append(m.sched.Now(), source, message, severity)
}

// Logs returns the log entries, oldest first.
func (m *Machine) Logs() []models.LogEntry {
	return m.log.Entries()
}

// State returns the current session state.
func (m *Machine) State() models.SessionState {
	return m.state
}

// LastActivity returns when the last command was accepted.
func (m *Machine) LastActivity() time.Time {
	return m.lastActivity
}

// ThermalLatched reports whether the thermal warning was shown since the
// last command.
func (m *Machine) ThermalLatched() bool {
	return m.thermalLatch
}

// PendingWake reports whether the console is asleep awaiting the wake word.
func (m *Machine) PendingWake() bool {
	return m.pendingWake
}

// Snapshot returns a copy of everything a sink can render.
func (m *Machine) Snapshot() models.Snapshot {
	return models.Snapshot{
		State:          m.state,
		LastActivity:   m.lastActivity,
		PendingWake:    m.pendingWake,
		ThermalLatched: m.thermalLatch,
		Character:      m.character,
		Graphic:        m.graphic,
		Alarms:         m.alarms,
		LinkConnected:  m.sinks.Uplink.Connected(),
	}
}

// Words returns the effective command vocabulary.
func (m *Machine) Words() commands.Words {
	return *m.opts.Words
}

// Policy returns the effective preemption policy.
func (m *Machine) Policy() Policy {
	return m.opts.Policy
}

// ThermalWarning shows the overheat warning and sets the latch.
func (m *Machine) ThermalWarning() {
	m.setGraphic("WARNING", models.IconFire)
	m.thermalLatch = true
	m.Log(models.SourceSystem, "THERMAL WARNING DETECTED", models.SeverityWarn)
}

// IdleSleep puts the console to sleep after the inactivity timeout.
func (m *Machine) IdleSleep() {
	m.enterSleep()
	m.pulse(outputSound, 500*time.Millisecond)
	m.Log(models.SourceSystem, "TIMEOUT. ENTROPY MODE ENGAGED.", models.SeverityInfo)
}

func (m *Machine) setState(s models.SessionState) {
	if s == m.state {
		return
	}
	from := m.state
	m.state = s
	log.Debug().
		Stringer("from", from).
		Stringer("to", s).
		Msg("session state changed")
	m.sinks.Observer.StateChanged(from, s)
}

func (m *Machine) setCharacter(line1, line2 string) {
	m.character = models.CharacterFrame{Line1: line1, Line2: line2}
	m.sinks.Display.SetCharacterDisplay(line1, line2)
}

func (m *Machine) setGraphic(text string, icon models.Icon) {
	m.graphic = models.GraphicFrame{Text: text, Icon: icon}
	m.sinks.Display.SetGraphicDisplay(text, icon)
}

func (m *Machine) setGraphicText(text string) {
	m.setGraphic(text, m.graphic.Icon)
}

func (m *Machine) setGraphicIcon(icon models.Icon) {
	m.setGraphic(m.graphic.Text, icon)
}

func (m *Machine) blank() {
	m.setCharacter("", "")
	m.setGraphic("", models.IconNone)
}

// preempt clears in-flight sequences ahead of a forced transition. It is
// a no-op under PolicyLegacy.
func (m *Machine) preempt() {
	if m.opts.Policy != PolicyPreempt {
		return
	}
	n := 0
	for _, g := range preemptable {
		n += m.sched.CancelGroup(g)
	}
	if n > 0 {
		log.Debug().Int("tasks", n).Msg("preempted in-flight sequences")
	}
	m.setLight(false)
	m.setSound(false)
}

func (m *Machine) enterSleep() {
	m.preempt()
	m.setState(models.StateSleep)
	m.pendingWake = true
	m.blank()
}
