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
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"
)

// testScreen wraps a SimulationScreen with input and readback helpers.
type testScreen struct {
	tcell.SimulationScreen
}

func newTestScreen(t *testing.T, width, height int) *testScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NotNil(t, sim, "failed to create simulation screen")
	require.NoError(t, sim.Init(), "failed to initialize simulation screen")
	sim.SetSize(width, height)
	return &testScreen{SimulationScreen: sim}
}

func (s *testScreen) pressKey(key tcell.Key) {
	s.InjectKey(key, 0, tcell.ModNone)
}

func (s *testScreen) typeText(str string) {
	for _, r := range str {
		s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
	}
}

// text returns the whole screen, one line per row.
func (s *testScreen) text() string {
	cells, width, height := s.GetContents()
	var sb strings.Builder
	for y := range height {
		for x := range width {
			cell := cells[y*width+x]
			if len(cell.Runes) > 0 {
				sb.WriteRune(cell.Runes[0])
			} else {
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}

func (s *testScreen) contains(text string) bool {
	return strings.Contains(s.text(), text)
}
