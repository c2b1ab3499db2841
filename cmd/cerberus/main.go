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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/cerberus-console/internal/telemetry"
	"github.com/ZaparooProject/cerberus-console/pkg/api/models"
	"github.com/ZaparooProject/cerberus-console/pkg/cli"
	"github.com/ZaparooProject/cerberus-console/pkg/config"
	"github.com/ZaparooProject/cerberus-console/pkg/service"
	"github.com/ZaparooProject/cerberus-console/pkg/ui/tui"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags()
	flags.Pre(os.Args[1:])

	var logWriters []io.Writer
	if *flags.Daemon {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg, logCloser := flags.Setup(config.BaseDefaults, logWriters)
	defer func() {
		telemetry.Close()
		_ = logCloser.Close()
	}()

	defer func() {
		if err := recover(); err != nil {
			telemetry.Flush()
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flags.Post(ctx, cfg)

	svc, err := service.Start(ctx, service.Options{Config: cfg})
	if err != nil {
		log.Error().Err(err).Msg("error starting service")
		return fmt.Errorf("error starting service: %w", err)
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			log.Error().Err(err).Msg("error stopping service")
		}
	}()

	if *flags.Daemon {
		log.Info().Msg("started in daemon mode")
		select {
		case <-ctx.Done():
		case <-svc.Done():
		}
		return nil
	}

	notifs, id := svc.Subscribe(
		service.SubscriberBuffer,
		models.NotificationCharacterDisplay,
		models.NotificationGraphicDisplay,
		models.NotificationAlarmLight,
		models.NotificationAlarmSound,
		models.NotificationStateChanged,
		models.NotificationLogAdded,
		models.NotificationLogCleared,
		models.NotificationLinkChanged,
	)
	defer svc.Unsubscribe(id)

	app, panel, err := tui.BuildMain(ctx, cfg, tui.Options{Console: svc.Console()}, notifs)
	if err != nil {
		log.Error().Err(err).Msg("error building UI")
		return fmt.Errorf("error building UI: %w", err)
	}

	if err := tui.Run(ctx, app, panel); err != nil {
		log.Error().Err(err).Msg("error running UI")
		return fmt.Errorf("error running UI: %w", err)
	}
	return nil
}
