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

// Package cli holds the command line flags shared by every console binary.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/ZaparooProject/cerberus-console/internal/telemetry"
	"github.com/ZaparooProject/cerberus-console/pkg/api/client"
	"github.com/ZaparooProject/cerberus-console/pkg/api/models"
	"github.com/ZaparooProject/cerberus-console/pkg/config"
	"github.com/ZaparooProject/cerberus-console/pkg/console/session"
	"github.com/ZaparooProject/cerberus-console/pkg/helpers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrMissingValue = errors.New("flag requires a value")

type Flags struct {
	set     *flag.FlagSet
	API     *string
	Send    *string
	Action  *string
	Root    *string
	State   *bool
	Watch   *bool
	Export  *bool
	Version *bool
	Debug   *bool
	Daemon  *bool
}

// SetupFlags defines the common flags on the global flag set.
func SetupFlags() *Flags {
	return NewFlags(flag.CommandLine)
}

// NewFlags defines the common flags on fs.
func NewFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		set: fs,
		API: fs.String(
			"api",
			"",
			"send method:params to the running console and print the response",
		),
		Send: fs.String(
			"send",
			"",
			"submit text to the running console as if typed",
		),
		Action: fs.String(
			"action",
			"",
			"trigger a quick action (wake, force_lock, sos, wipe)",
		),
		Root: fs.String(
			"root",
			"",
			"keep config, data and logs under this directory",
		),
		State: fs.Bool(
			"state",
			false,
			"print the console snapshot and exit",
		),
		Watch: fs.Bool(
			"watch",
			false,
			"print console notifications until interrupted",
		),
		Export: fs.Bool(
			"export",
			false,
			"export the event log to CSV and print its path",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Debug: fs.Bool(
			"debug",
			false,
			"enable debug logging",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"run the console in the foreground with no UI",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// VersionString is printed by -version.
func VersionString() string {
	return fmt.Sprintf("Cerberus Console v%s (%s/%s)", config.AppVersion, runtime.GOOS, runtime.GOARCH)
}

// Pre parses flags and handles the ones that need no environment. Add
// custom flags before calling it.
func (f *Flags) Pre(args []string) {
	if err := f.set.Parse(args); err != nil {
		os.Exit(2)
	}

	if *f.Version {
		_, _ = fmt.Println(VersionString())
		os.Exit(0)
	}
}

// Paths returns the directories selected by -root.
func (f *Flags) Paths() helpers.Paths {
	if *f.Root != "" {
		return helpers.WithRoot(*f.Root)
	}
	return helpers.DefaultPaths()
}

// SplitAPI splits a method:params flag value.
func SplitAPI(value string) (method, params string) {
	method, params, _ = strings.Cut(value, ":")
	return strings.TrimSpace(method), params
}

func call(ctx context.Context, cfg *config.Instance, out io.Writer, method string, params any) error {
	encoded := ""
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
		encoded = string(data)
	}

	resp, err := client.LocalClient(ctx, cfg, method, encoded)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, resp)
	return nil
}

// Dispatch runs the client flags against a console already running on
// this machine. It reports whether any client flag was handled.
func (f *Flags) Dispatch(ctx context.Context, cfg *config.Instance, out io.Writer) (bool, error) {
	switch {
	case f.isFlagPassed("api"):
		method, params := SplitAPI(*f.API)
		if method == "" {
			return true, fmt.Errorf("api: %w", ErrMissingValue)
		}
		resp, err := client.LocalClient(ctx, cfg, method, params)
		if err != nil {
			return true, err
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	case f.isFlagPassed("send"):
		if *f.Send == "" {
			return true, fmt.Errorf("send: %w", ErrMissingValue)
		}
		return true, call(ctx, cfg, out, models.MethodCommand, models.CommandParams{Text: *f.Send})
	case f.isFlagPassed("action"):
		if *f.Action == "" {
			return true, fmt.Errorf("action: %w", ErrMissingValue)
		}
		return true, call(ctx, cfg, out, models.MethodAction, models.ActionParams{Action: *f.Action})
	case *f.State:
		return true, call(ctx, cfg, out, models.MethodState, nil)
	case *f.Export:
		return true, call(ctx, cfg, out, models.MethodLogsExport, nil)
	case *f.Watch:
		err := client.Watch(ctx, client.LocalURL(cfg), nil, func(n models.Notification) error {
			_, err := fmt.Fprintf(out, "%s %s\n", n.Method, n.Params)
			return err
		})
		return true, err
	}
	return false, nil
}

// Post handles the client flags that need config and logging, exiting when
// one was given.
func (f *Flags) Post(ctx context.Context, cfg *config.Instance) {
	handled, err := f.Dispatch(ctx, cfg, os.Stdout)
	if !handled {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("error calling console")
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// TelemetryOptions builds the error reporting options for cfg. Console
// passwords are passed as secrets so they never leave the machine.
func TelemetryOptions(cfg *config.Instance) telemetry.Options {
	cons := cfg.Console()
	secrets := []string{session.DefaultAdminPassword, session.DefaultGuestPassword}
	if cons.AdminPassword != "" {
		secrets = append(secrets, cons.AdminPassword)
	}
	if cons.GuestPassword != "" {
		secrets = append(secrets, cons.GuestPassword)
	}
	return telemetry.Options{
		Enabled:    cfg.ErrorReporting(),
		DeviceID:   cfg.DeviceID(),
		Version:    config.AppVersion,
		LinkDriver: cfg.Link().Driver,
		Secrets:    secrets,
	}
}

// Load initializes logging and the user config.
//
//nolint:gocritic // config struct copied for immutability
func Load(paths helpers.Paths, defaults config.Values, debug bool, writers []io.Writer) (*config.Instance, io.Closer, error) {
	closer, err := helpers.InitLogging(paths, debug, writers...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.NewConfig(paths.ConfigDir, defaults)
	if err != nil {
		_ = closer.Close()
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if debug || cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return cfg, closer, nil
}

// Setup initializes logging, the user config and opt-in error reporting,
// exiting on failure.
//
//nolint:gocritic // config struct copied for immutability
func (f *Flags) Setup(defaults config.Values, writers []io.Writer) (*config.Instance, io.Closer) {
	cfg, closer, err := Load(f.Paths(), defaults, *f.Debug, writers)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := telemetry.Init(TelemetryOptions(cfg)); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, closer
}
