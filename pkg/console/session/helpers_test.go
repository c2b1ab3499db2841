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
	"errors"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
)

var epoch = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

// recorder captures everything a machine drives.
type recorder struct {
	NopObserver
	states     []models.SessionState
	lights     []bool
	sounds     []bool
	character  models.CharacterFrame
	graphic    models.GraphicFrame
	logCleared int
}

func (r *recorder) SetCharacterDisplay(line1, line2 string) {
	r.character = models.CharacterFrame{Line1: line1, Line2: line2}
}

func (r *recorder) SetGraphicDisplay(text string, icon models.Icon) {
	r.graphic = models.GraphicFrame{Text: text, Icon: icon}
}

func (r *recorder) StateChanged(_, to models.SessionState) {
	r.states = append(r.states, to)
}

func (r *recorder) LogCleared() {
	r.logCleared++
}

func (r *recorder) sinks() Sinks {
	return Sinks{
		Display:  r,
		Observer: r,
		Light:    ActuatorFunc(func(on bool) { r.lights = append(r.lights, on) }),
		Sound:    ActuatorFunc(func(on bool) { r.sounds = append(r.sounds, on) }),
	}
}

// fakeUplink records mirrored lines.
type fakeUplink struct {
	sendErr   error
	sent      []string
	connected bool
	dropped   int
}

func (f *fakeUplink) Connected() bool { return f.connected }

func (f *fakeUplink) Send(line string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, line)
	return nil
}

func (f *fakeUplink) Drop() {
	f.connected = false
	f.dropped++
}

var errWrite = errors.New("write failed")

func newBooted(opts Options) (*Machine, *recorder) {
	rec := &recorder{}
	m := NewMachine(opts, rec.sinks(), epoch)
	m.Boot()
	return m, rec
}

func newUnlocked(opts Options) (*Machine, *recorder) {
	m, rec := newBooted(opts)
	m.Submit("SAGAR")
	m.Advance(welcomeHold)
	return m, rec
}

func messages(entries []models.LogEntry) []string {
	out := make([]string, 0, len(entries))
	for i := range entries {
		out = append(out, entries[i].Message)
	}
	return out
}
