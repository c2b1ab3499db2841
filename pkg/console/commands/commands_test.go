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

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Parallel()

	p := NewParser(DefaultWords())

	tests := []struct {
		name    string
		input   string
		raw     string
		message string
		kind    Kind
	}{
		{name: "empty", input: "", kind: KindEmpty},
		{name: "whitespace only", input: "  \t ", kind: KindEmpty},
		{name: "erase", input: "erased", raw: "ERASED", kind: KindErase},
		{name: "awake padded", input: "  Awake ", raw: "AWAKE", kind: KindAwake},
		{name: "sos word", input: "sos", raw: "SOS", kind: KindSOS},
		{name: "sos alias", input: "1", raw: "1", kind: KindSOS},
		{name: "farewell", input: "sagar bye", raw: "SAGAR BYE", kind: KindFarewell},
		{name: "lockdown", input: "hidden*", raw: "HIDDEN*", kind: KindLockdown},
		{
			name:    "quick confirm",
			input:   "2",
			raw:     "2",
			message: "MISSION CONFIRMED",
			kind:    KindQuickMessage,
		},
		{
			name:    "quick abort",
			input:   " 3",
			raw:     "3",
			message: "NEGATIVE ABORT",
			kind:    KindQuickMessage,
		},
		{name: "free text", input: "hello", raw: "HELLO", message: "HELLO", kind: KindFreeText},
		{name: "password is free text", input: "sagar", raw: "SAGAR", message: "SAGAR", kind: KindFreeText},
		{name: "near miss", input: "ERASE", raw: "ERASE", message: "ERASE", kind: KindFreeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd := p.Parse(tt.input)
			assert.Equal(t, tt.kind, cmd.Kind)
			assert.Equal(t, tt.raw, cmd.Raw)
			assert.Equal(t, tt.message, cmd.Message)
		})
	}
}

func TestNormalizeComposes(t *testing.T) {
	t.Parallel()

	// "e" followed by a combining acute accent composes to U+00C9.
	assert.Equal(t, "\u00c9T\u00c9", Normalize(" e\u0301te\u0301 "))
}

func TestCustomWords(t *testing.T) {
	t.Parallel()

	p := NewParser(Words{
		Erase:         "wipe",
		Awake:         "wake up",
		SOS:           "mayday",
		Farewell:      "goodbye",
		Lockdown:      "vanish",
		QuickMessages: map[string]string{"9": "all clear"},
	})

	assert.Equal(t, KindErase, p.Parse("WIPE").Kind)
	assert.Equal(t, KindAwake, p.Parse("wake up").Kind)
	assert.Equal(t, KindSOS, p.Parse("Mayday").Kind)
	assert.Equal(t, KindFreeText, p.Parse("1").Kind)
	assert.Equal(t, KindFarewell, p.Parse("goodbye").Kind)
	assert.Equal(t, KindLockdown, p.Parse("vanish").Kind)

	quick := p.Parse("9")
	assert.Equal(t, KindQuickMessage, quick.Kind)
	assert.Equal(t, "ALL CLEAR", quick.Message)
}

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "quick_message", KindQuickMessage.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
