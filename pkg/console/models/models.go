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

// Package models holds the value types shared by the console state machine,
// its sinks and the API.
package models

import (
	"fmt"
	"time"
)

// SessionState is the console's current mode.
type SessionState int

const (
	StateBooting SessionState = iota
	StateLocked
	StateUnlocked
	StateSOS
	StateSleep
	StateEncrypting
)

func (s SessionState) String() string {
	switch s {
	case StateBooting:
		return "BOOTING"
	case StateLocked:
		return "LOCKED"
	case StateUnlocked:
		return "UNLOCKED"
	case StateSOS:
		return "SOS"
	case StateSleep:
		return "SLEEP"
	case StateEncrypting:
		return "ENCRYPTING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SessionState) UnmarshalText(text []byte) error {
	for c := StateBooting; c <= StateEncrypting; c++ {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown session state: %q", text)
}

// Icon is a glyph shown above the graphic display text.
type Icon string

const (
	IconNone  Icon = ""
	IconLock  Icon = "LOCK"
	IconMail  Icon = "MAIL"
	IconHappy Icon = "HAPPY"
	IconFire  Icon = "FIRE"
	IconSOS   Icon = "SOS"
)

// Source identifies who produced a log entry.
type Source string

const (
	SourceSystem   Source = "SYS"
	SourceUser     Source = "USR"
	SourceHardware Source = "HW"
)

// Severity classifies a log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
	SeverityWarn    Severity = "warn"
)

// LogEntry is one immutable line of the console log.
type LogEntry struct {
	Time     time.Time `json:"time" csv:"time"`
	Source   Source    `json:"source" csv:"source"`
	Message  string    `json:"message" csv:"message"`
	Severity Severity  `json:"severity" csv:"severity"`
	ID       uint64    `json:"id" csv:"id"`
}

// Stamp formats the entry time the way the console log shows it.
func (e *LogEntry) Stamp() string {
	return e.Time.Format("15:04:05")
}

// CharacterFrame is the content of the two-row character LCD.
type CharacterFrame struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// GraphicFrame is the content of the graphic OLED.
type GraphicFrame struct {
	Text string `json:"text"`
	Icon Icon   `json:"icon"`
}

// AlarmOutputs holds the current level of both alarm actuators.
type AlarmOutputs struct {
	Light bool `json:"light"`
	Sound bool `json:"sound"`
}

// Snapshot is a point-in-time copy of everything a sink can render.
type Snapshot struct {
	LastActivity   time.Time      `json:"lastActivity"`
	Graphic        GraphicFrame   `json:"graphic"`
	Character      CharacterFrame `json:"character"`
	State          SessionState   `json:"state"`
	Alarms         AlarmOutputs   `json:"alarms"`
	PendingWake    bool           `json:"pendingWake"`
	ThermalLatched bool           `json:"thermalLatched"`
	LinkConnected  bool           `json:"linkConnected"`
}
