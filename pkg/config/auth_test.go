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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAuthFromData(t *testing.T) {
	t.Parallel()
	data := []byte(`
["mqtt://broker.local:1883"]
username = "root"
password = "one"

[creds."broker.lan:8883"]
username = "ops"
password = "two"
`)
	creds := LoadAuthFromData(data)
	require.Len(t, creds, 2)
	assert.Equal(t, "root", creds["mqtt://broker.local:1883"].Username)
	assert.Equal(t, "two", creds["broker.lan:8883"].Password)
}

func TestLookupAuth(t *testing.T) {
	t.Parallel()
	creds := map[string]CredentialEntry{
		"mqtt://broker.local:1883":  {Username: "plain"},
		"mqtts://broker.local:8883": {Username: "secure"},
		"broker.lan:1883":           {Username: "bare"},
	}

	tests := []struct {
		target string
		want   string
	}{
		{target: "mqtt://broker.local:1883", want: "plain"},
		{target: "tcp://broker.local:1883", want: "plain"},
		{target: "ssl://broker.local:8883", want: "secure"},
		{target: "tls://BROKER.local:8883", want: "secure"},
		{target: "tcp://broker.lan:1883", want: "bare"},
		{target: "tcp://elsewhere:1883", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()
			got := LookupAuth(creds, tt.target)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Username)
		})
	}
}

func TestLookupAuthEmpty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, LookupAuth(nil, "mqtt://x:1"))
}

func TestAuthFileLoadedWithConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, AuthFile),
		[]byte("[\"mqtt://b:1883\"]\nusername = \"u\"\npassword = \"p\"\n"),
		0o600,
	))

	_, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	entry := LookupAuth(GetAuthCfg(), "tcp://b:1883")
	require.NotNil(t, entry)
	assert.Equal(t, "p", entry.Password)
}
