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

package requests

import (
	"context"
	"encoding/json"

	"github.com/ZaparooProject/cerberus-console/pkg/config"
	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/ZaparooProject/cerberus-console/pkg/console/session"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
)

// Console is the part of session.Console the API drives.
type Console interface {
	Submit(ctx context.Context, input string) error
	Trigger(ctx context.Context, a session.Action) error
	Snapshot(ctx context.Context) (models.Snapshot, error)
	Logs(ctx context.Context) ([]models.LogEntry, error)
	ToggleLink(ctx context.Context) error
}

type RequestEnv struct {
	Context context.Context //nolint:containedctx // request scoped
	Console Console
	Config  *config.Instance
	Fs      afero.Fs
	Clock   clockwork.Clock
	Params  json.RawMessage
	ID      uuid.UUID
}
