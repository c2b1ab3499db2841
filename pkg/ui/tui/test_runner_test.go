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

package tui

import (
	"testing"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/helpers/syncutil"
	"github.com/rivo/tview"
)

// appRunner runs a tview app against a simulation screen in the background.
type appRunner struct {
	app     *tview.Application
	screen  *testScreen
	done    chan struct{}
	stopMu  syncutil.Mutex
	stopped bool
}

func newAppRunner(t *testing.T, width, height int) *appRunner {
	t.Helper()
	screen := newTestScreen(t, width, height)
	app := tview.NewApplication()
	app.SetScreen(screen.SimulationScreen)
	r := &appRunner{
		app:    app,
		screen: screen,
		done:   make(chan struct{}),
	}
	t.Cleanup(r.stop)
	return r
}

func (r *appRunner) start(root tview.Primitive) {
	r.app.SetRoot(root, true)
	go func() {
		defer close(r.done)
		_ = r.app.Run()
	}()
	time.Sleep(20 * time.Millisecond)
}

// stop ends the app. tview.Application.Stop finalizes the screen itself.
func (r *appRunner) stop() {
	r.stopMu.Lock()
	already := r.stopped
	r.stopped = true
	r.stopMu.Unlock()
	if already {
		return
	}
	r.app.Stop()
	select {
	case <-r.done:
	case <-time.After(time.Second):
	}
}

func (r *appRunner) draw() {
	r.app.QueueUpdateDraw(func() {})
	time.Sleep(10 * time.Millisecond)
}

func (r *appRunner) waitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func (r *appRunner) waitForText(text string, timeout time.Duration) bool {
	return r.waitFor(func() bool {
		r.draw()
		return r.screen.contains(text)
	}, timeout)
}
