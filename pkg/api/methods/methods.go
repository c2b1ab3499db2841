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

// Package methods implements the API's JSON-RPC handlers.
package methods

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/ZaparooProject/cerberus-console/pkg/api/models"
	"github.com/ZaparooProject/cerberus-console/pkg/api/models/requests"
	"github.com/ZaparooProject/cerberus-console/pkg/api/validation"
	"github.com/ZaparooProject/cerberus-console/pkg/config"
	"github.com/ZaparooProject/cerberus-console/pkg/console/eventlog"
	"github.com/ZaparooProject/cerberus-console/pkg/console/session"
	"github.com/rs/zerolog/log"
)

// ErrNoExportDir is returned when logs.export runs without a config.
var ErrNoExportDir = errors.New("no export directory configured")

//nolint:gocritic // single-use parameter in API handler
func HandleCommand(env requests.RequestEnv) (any, error) {
	var params models.CommandParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	log.Debug().Str("text", params.Text).Msg("received command request")
	if err := env.Console.Submit(env.Context, params.Text); err != nil {
		return nil, fmt.Errorf("failed to submit command: %w", err)
	}
	return nil, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleAction(env requests.RequestEnv) (any, error) {
	var params models.ActionParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	if err := env.Console.Trigger(env.Context, session.Action(params.Action)); err != nil {
		return nil, fmt.Errorf("failed to trigger action: %w", err)
	}
	return nil, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleState(env requests.RequestEnv) (any, error) {
	snap, err := env.Console.Snapshot(env.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	return snap, nil
}

// HandleLogs returns the log, oldest first. An optional limit keeps only
// the newest entries.
//
//nolint:gocritic // single-use parameter in API handler
func HandleLogs(env requests.RequestEnv) (any, error) {
	var params models.LogsParams
	if len(env.Params) > 0 {
		if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
			return nil, err
		}
	}
	entries, err := env.Console.Logs(env.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	if params.Limit > 0 && len(entries) > params.Limit {
		entries = entries[len(entries)-params.Limit:]
	}
	return models.LogsResponse{Entries: entries}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleLogsExport(env requests.RequestEnv) (any, error) {
	if env.Config == nil {
		return nil, ErrNoExportDir
	}
	entries, err := env.Console.Logs(env.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	path, err := eventlog.Export(env.Fs, env.Config.ExportDir(), env.Clock.Now(), entries)
	if err != nil {
		return nil, fmt.Errorf("failed to export logs: %w", err)
	}
	log.Info().Str("path", path).Int("entries", len(entries)).Msg("exported console log")
	return models.LogsExportResponse{Path: path, Count: len(entries)}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleLinkToggle(env requests.RequestEnv) (any, error) {
	if err := env.Console.ToggleLink(env.Context); err != nil {
		return nil, fmt.Errorf("failed to toggle link: %w", err)
	}
	return nil, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleVersion(_ requests.RequestEnv) (any, error) {
	return models.VersionResponse{
		Version:  config.AppVersion,
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}, nil
}
