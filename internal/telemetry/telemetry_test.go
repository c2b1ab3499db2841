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

package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{
			name:     "no username",
			input:    "/usr/local/bin/cerberus",
			expected: "/usr/local/bin/cerberus",
		},
		{
			name:     "linux home",
			input:    "/home/operator/.config/cerberus/config.toml",
			expected: "/home/<user>/.config/cerberus/config.toml",
		},
		{
			name:     "macos users",
			input:    "/users/operator/Library/cerberus.log",
			expected: "/Users/<user>/Library/cerberus.log",
		},
		{
			name:     "windows other drive",
			input:    "d:\\Users\\operator\\cerberus\\logs",
			expected: "C:\\Users\\<user>\\cerberus\\logs",
		},
		{
			name:     "two paths in a message",
			input:    "export /home/a/x.csv to /home/b/y.csv",
			expected: "export /home/<user>/x.csv to /home/<user>/y.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sanitizePath(tt.input))
		})
	}
}

// Mutates package secrets, so not parallel.
func TestSanitizeEventRedactsSecrets(t *testing.T) {
	prev := secrets
	t.Cleanup(func() { secrets = prev })
	secrets = []string{"12345", "guest"}

	event := &sentry.Event{
		ServerName: "bunker-7",
		Message:    "rejected password 12345 from /home/op/log",
		Exception: []sentry.Exception{{
			Value: "guest login failed",
			Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{{
				AbsPath:  "/home/op/src/session.go",
				Filename: "/home/op/src/session.go",
			}}},
		}},
		Extra: map[string]any{"line": "12345", "count": 3},
	}

	out := sanitizeEvent(event)
	require.NotNil(t, out)
	assert.Empty(t, out.ServerName)
	assert.Equal(t, "rejected password <redacted> from /home/<user>/log", out.Message)
	assert.Equal(t, "<redacted> login failed", out.Exception[0].Value)
	assert.Equal(t, "/home/<user>/src/session.go", out.Exception[0].Stacktrace.Frames[0].AbsPath)
	assert.Equal(t, "<redacted>", out.Extra["line"])
	assert.Equal(t, 3, out.Extra["count"])
}

func TestInitDisabled(t *testing.T) {
	t.Parallel()
	require.NoError(t, Init(Options{Enabled: false, DSN: "https://k@example.invalid/1"}))
	assert.False(t, Enabled())
}

// Reads the environment, so not parallel.
func TestInitWithoutDSN(t *testing.T) {
	t.Setenv(DSNEnv, "")
	err := Init(Options{Enabled: true})
	require.ErrorIs(t, err, ErrNoDSN)
	assert.False(t, Enabled())
}

func TestCloseAndFlushWhenDisabled(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		Flush()
		Close()
		Close()
	})
}
