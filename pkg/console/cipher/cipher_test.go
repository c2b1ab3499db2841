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

package cipher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "empty", message: "", want: ""},
		{name: "single letter", message: "A", want: "@1*"},
		{name: "lowercase is uppercased", message: "sos", want: "111 3@ 111"},
		{name: "digits", message: "2024", want: "*31% @1 *31% 1"},
		{
			name:    "quick message two",
			message: "MISSION CONFIRMED",
			want:    "## 11 111 111 11 3@ #1   *31 3@ #1 *121 11 @11 ## 107 #11",
		},
		{
			name:    "quick message three",
			message: "NEGATIVE ABORT",
			want:    "#1 107 ##3 @1* 3 11 1@% 107   @1* #21 3@ @11 3",
		},
		{name: "unmapped runes pass through", message: "HI!", want: "11& 11 !"},
		{name: "punctuation only", message: "?*", want: "? *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Encode(tt.message))
		})
	}
}

func TestSharedTokens(t *testing.T) {
	t.Parallel()

	// the table is not injective and must stay that way
	d, _ := Token('D')
	z, _ := Token('Z')
	f, _ := Token('F')
	five, _ := Token('5')
	assert.Equal(t, d, z)
	assert.Equal(t, f, five)
}

func TestSupported(t *testing.T) {
	t.Parallel()

	for _, r := range "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 " {
		assert.True(t, Supported(r), "rune %q should be supported", r)
	}
	for _, r := range "!?*#@\\\t" {
		assert.False(t, Supported(r), "rune %q should not be supported", r)
	}
}

func TestPropertyEncodeDeterministic(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.String().Draw(t, "msg")
		if Encode(msg) != Encode(msg) {
			t.Fatalf("Encode not deterministic for %q", msg)
		}
	})
}

func TestPropertyTokenCountMatchesRuneCount(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.StringMatching(`[A-Za-z0-9 ]{0,40}`).Draw(t, "msg")
		tokens := Tokens(msg)
		if len(tokens) != len([]rune(msg)) {
			t.Fatalf("got %d tokens for %d runes in %q", len(tokens), len([]rune(msg)), msg)
		}
		for _, r := range strings.ToUpper(msg) {
			if !Supported(r) {
				t.Fatalf("generated unsupported rune %q", r)
			}
		}
	})
}

func TestPropertyEncodeIsJoinedTokens(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.String().Draw(t, "msg")
		if got, want := Encode(msg), strings.Join(Tokens(msg), " "); got != want {
			t.Fatalf("Encode(%q) = %q, want %q", msg, got, want)
		}
	})
}

func TestPropertyCaseInsensitive(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.StringMatching(`[a-z0-9 ]{0,30}`).Draw(t, "msg")
		if Encode(msg) != Encode(strings.ToUpper(msg)) {
			t.Fatalf("case changed encoding of %q", msg)
		}
	})
}
