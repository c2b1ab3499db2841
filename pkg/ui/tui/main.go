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

// Package tui is the terminal front panel of the console: both displays,
// the alarm indicators, the log and the command prompt.
package tui

import (
	"context"

	apimodels "github.com/ZaparooProject/cerberus-console/pkg/api/models"
	"github.com/ZaparooProject/cerberus-console/pkg/config"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

// BuildMain creates the application and a panel loaded with the console's
// current state. notifs must already be subscribed: anything published
// while the snapshot is read waits there and is applied once Run starts.
func BuildMain(
	ctx context.Context,
	cfg *config.Instance,
	opts Options,
	notifs <-chan apimodels.Notification,
) (*tview.Application, *Panel, error) {
	tuiCfg := cfg.TUI()
	if !SetCurrentTheme(tuiCfg.Theme) {
		log.Warn().Str("theme", tuiCfg.Theme).Msg("unknown tui theme, using default")
		SetCurrentTheme(ThemeDefault.Name)
	}
	if opts.ExportDir == "" {
		opts.ExportDir = cfg.ExportDir()
	}
	if opts.LogCapacity == 0 {
		opts.LogCapacity = cfg.Console().LogCapacity
	}
	if opts.Version == "" {
		opts.Version = config.AppVersion
	}

	app := tview.NewApplication().EnableMouse(tuiCfg.Mouse)
	panel := NewPanel(ctx, app, opts)
	panel.notifs = notifs

	loadCtx, cancel := requestContext(ctx)
	defer cancel()
	if err := panel.Load(loadCtx); err != nil {
		return nil, nil, err
	}

	app.SetRoot(panel.Root(), true)
	return app, panel, nil
}

// Run drives the panel from its notifications until the operator quits or
// ctx ends.
func Run(ctx context.Context, app *tview.Application, panel *Panel) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go panel.Listen(ctx, panel.notifs)
	go func() {
		<-ctx.Done()
		app.Stop()
	}()

	return app.Run()
}
