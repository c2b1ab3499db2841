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

package helpers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRoot(t *testing.T) {
	t.Parallel()
	p := WithRoot("/opt/cerberus")
	assert.Equal(t, filepath.Join("/opt/cerberus", "config"), p.ConfigDir)
	assert.Equal(t, filepath.Join("/opt/cerberus", "logs", "cerberus.log"), p.LogPath())
}

func TestEnsureCreatesDirectories(t *testing.T) {
	t.Parallel()
	p := WithRoot(t.TempDir())
	require.NoError(t, p.Ensure())
	assert.DirExists(t, p.ConfigDir)
	assert.DirExists(t, p.DataDir)
	assert.DirExists(t, p.LogDir)
}

// Swaps the global logger, so not parallel.
func TestInitLogging(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	prevWriter := logWriter
	t.Cleanup(func() {
		log.Logger = prevLogger
		logWriter = prevWriter
		zerolog.SetGlobalLevel(prevLevel)
	})

	p := WithRoot(t.TempDir())
	var buf bytes.Buffer
	closer, err := InitLogging(p, true, &buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	log.Debug().Msg("link check")

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.Contains(t, buf.String(), "link check")
	assert.FileExists(t, p.LogPath())

	_, err = LogWriter().Write([]byte("raw line\n"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "raw line")
	data, err := os.ReadFile(p.LogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "link check")
	assert.Contains(t, string(data), "raw line")
}
