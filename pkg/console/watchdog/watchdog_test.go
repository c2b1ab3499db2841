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

package watchdog

import (
	"testing"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/ZaparooProject/cerberus-console/pkg/console/schedule"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var start = time.Date(2026, 5, 6, 7, 0, 0, 0, time.UTC)

type fakeTarget struct {
	last     time.Time
	state    models.SessionState
	latched  bool
	warnings int
	sleeps   int
}

func (f *fakeTarget) State() models.SessionState { return f.state }
func (f *fakeTarget) LastActivity() time.Time    { return f.last }
func (f *fakeTarget) ThermalLatched() bool       { return f.latched }

func (f *fakeTarget) ThermalWarning() {
	f.latched = true
	f.warnings++
}

func (f *fakeTarget) IdleSleep() {
	f.state = models.StateSleep
	f.sleeps++
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		state   models.SessionState
		elapsed time.Duration
		latched bool
		want    Result
	}{
		{name: "unlocked fresh", state: models.StateUnlocked, elapsed: 10 * time.Second},
		{name: "unlocked at threshold", state: models.StateUnlocked, elapsed: 35 * time.Second},
		{
			name:    "unlocked thermal",
			state:   models.StateUnlocked,
			elapsed: 36 * time.Second,
			want:    Result{Thermal: true},
		},
		{name: "unlocked latched", state: models.StateUnlocked, elapsed: 36 * time.Second, latched: true},
		{
			name:    "unlocked both",
			state:   models.StateUnlocked,
			elapsed: 41 * time.Second,
			want:    Result{Thermal: true, Slept: true},
		},
		{name: "locked no thermal", state: models.StateLocked, elapsed: 38 * time.Second},
		{name: "locked sleeps", state: models.StateLocked, elapsed: 41 * time.Second, want: Result{Slept: true}},
		{name: "sleep ignored", state: models.StateSleep, elapsed: time.Hour},
		{name: "sos ignored", state: models.StateSOS, elapsed: time.Hour},
		{name: "encrypting ignored", state: models.StateEncrypting, elapsed: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target := &fakeTarget{state: tt.state, last: start, latched: tt.latched}
			w := New(Config{}, target)

			assert.Equal(t, tt.want, w.Check(start.Add(tt.elapsed)))
		})
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	w := New(Config{Tick: 2 * time.Second}, &fakeTarget{})
	cfg := w.Config()
	assert.Equal(t, 2*time.Second, cfg.Tick)
	assert.Equal(t, DefaultThermalAfter, cfg.ThermalAfter)
	assert.Equal(t, DefaultSleepAfter, cfg.SleepAfter)
}

func TestTickingSleepsAfterTimeout(t *testing.T) {
	t.Parallel()

	sched := schedule.New(start)
	target := &fakeTarget{state: models.StateUnlocked, last: start}
	w := New(Config{}, target)
	w.Start(sched)
	assert.True(t, w.Running())

	sched.Advance(35 * time.Second)
	assert.Equal(t, 0, target.warnings)

	sched.Advance(time.Second)
	assert.Equal(t, 1, target.warnings)
	assert.Equal(t, models.StateUnlocked, target.state)

	sched.Advance(4 * time.Second)
	assert.Equal(t, 0, target.sleeps)

	sched.Advance(time.Second)
	assert.Equal(t, 1, target.sleeps)
	assert.Equal(t, models.StateSleep, target.state)

	sched.Advance(time.Minute)
	assert.Equal(t, 1, target.warnings)
	assert.Equal(t, 1, target.sleeps)
}

func TestStop(t *testing.T) {
	t.Parallel()

	sched := schedule.New(start)
	target := &fakeTarget{state: models.StateLocked, last: start}
	w := New(Config{}, target)
	w.Start(sched)
	w.Stop()
	w.Stop()

	assert.False(t, w.Running())
	sched.Advance(time.Hour)
	assert.Equal(t, 0, target.sleeps)
	assert.Equal(t, 0, sched.Pending())
}

// TestPropertySleepNeverBeforeTimeout checks that no check sleeps the
// target while the inactivity is within the sleep threshold.
func TestPropertySleepNeverBeforeTimeout(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		ms := rapid.Int64Range(0, DefaultSleepAfter.Milliseconds()).Draw(t, "elapsed")
		state := rapid.SampledFrom([]models.SessionState{
			models.StateLocked, models.StateUnlocked,
		}).Draw(t, "state")

		target := &fakeTarget{state: state, last: start}
		res := New(Config{}, target).Check(start.Add(time.Duration(ms) * time.Millisecond))
		if res.Slept {
			t.Fatalf("slept after %dms", ms)
		}
	})
}
