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

package service

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/config"
	"github.com/ZaparooProject/cerberus-console/pkg/console/commands"
	"github.com/ZaparooProject/cerberus-console/pkg/console/session"
	"github.com/ZaparooProject/cerberus-console/pkg/console/watchdog"
	"github.com/ZaparooProject/cerberus-console/pkg/uplink"
	"github.com/ZaparooProject/cerberus-console/pkg/uplink/mqtt"
	"github.com/ZaparooProject/cerberus-console/pkg/uplink/serial"
	"github.com/rs/zerolog/log"
)

var ErrUnknownLinkDriver = errors.New("unknown link driver")

// Words layers configured vocabulary over the stock words.
func Words(w config.Words) commands.Words {
	out := commands.DefaultWords()
	if w.Erase != "" {
		out.Erase = w.Erase
	}
	if w.Awake != "" {
		out.Awake = w.Awake
	}
	if w.SOS != "" {
		out.SOS = w.SOS
	}
	if w.Farewell != "" {
		out.Farewell = w.Farewell
	}
	if w.Lockdown != "" {
		out.Lockdown = w.Lockdown
	}
	if len(w.SOSAliases) > 0 {
		out.SOSAliases = append([]string(nil), w.SOSAliases...)
	}
	maps.Copy(out.QuickMessages, w.QuickMessages)
	return out
}

// ConsoleOptions converts the console and link config sections.
func ConsoleOptions(cfg *config.Instance) session.ConsoleOptions {
	c := cfg.Console()
	words := Words(c.Words)
	return session.ConsoleOptions{
		Options: session.Options{
			Words:         &words,
			AdminPassword: c.AdminPassword,
			GuestPassword: c.GuestPassword,
			Operator:      c.Operator,
			Banner:        c.Banner,
			Policy:        session.Policy(c.Policy),
			Watchdog: watchdog.Config{
				ThermalAfter: time.Duration(c.ThermalSeconds) * time.Second,
				SleepAfter:   time.Duration(c.SleepSeconds) * time.Second,
			},
			LogCapacity: c.LogCapacity,
		},
		EchoRX: cfg.Link().EchoRX,
	}
}

// NewConnector builds the uplink driver for link. The none driver returns
// a nil connector and the console reports the link as unavailable.
func NewConnector(link config.Link, creds map[string]config.CredentialEntry) (uplink.Connector, error) {
	switch link.Driver {
	case config.LinkDriverSerial:
		return serial.NewConnector(link.Path, link.Baud), nil
	case config.LinkDriverMQTT:
		path := link.Broker + "/" + link.Topic
		target, err := mqtt.ParseTarget(path)
		if err != nil {
			return nil, fmt.Errorf("invalid mqtt link: %w", err)
		}
		var opts []mqtt.Option
		if cred := config.LookupAuth(creds, target.BrokerURL()); cred != nil {
			log.Debug().Str("broker", target.Broker).Msg("using stored mqtt credentials")
			opts = append(opts, mqtt.WithCredentials(cred.Username, cred.Password))
		}
		return mqtt.NewConnector(path, opts...), nil
	case config.LinkDriverNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownLinkDriver, link.Driver)
	}
}
