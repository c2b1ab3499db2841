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

package session

import (
	"context"
	"errors"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/ZaparooProject/cerberus-console/pkg/uplink"
	"github.com/rs/zerolog/log"
)

var errNoConnector = errors.New("no uplink driver configured")

func (c *Console) toggleLink() {
	switch {
	case c.connecting:
		if c.connectCancel != nil {
			c.connectCancel()
		}
	case c.link != nil:
		c.disconnect()
	default:
		c.startConnect()
	}
}

func (c *Console) startConnect() {
	if c.connector == nil {
		c.reportConnectError(uplink.NewConnectError(uplink.KindUnsupported, errNoConnector))
		return
	}

	c.machine.Log(models.SourceSystem, "TARGET ACQUIRED. OPENING...", models.SeverityInfo)
	c.connecting = true

	ctx, cancel := context.WithCancel(c.runCtx)
	c.connectCancel = cancel
	connector := c.connector

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ch, err := connector.Connect(ctx)
		posted := c.post(func() { c.finishConnect(ch, err) })
		if !posted && ch != nil {
			if cerr := ch.Close(); cerr != nil {
				log.Debug().Err(cerr).Msg("error closing uplink after shutdown")
			}
		}
	}()
}

func (c *Console) finishConnect(ch uplink.Channel, err error) {
	c.connecting = false
	if c.connectCancel != nil {
		c.connectCancel()
		c.connectCancel = nil
	}

	if err != nil {
		c.reportConnectError(err)
		return
	}

	c.linkGen++
	gen := c.linkGen
	ctx, cancel := context.WithCancel(c.runCtx)
	c.link = ch
	c.linkCancel = cancel

	log.Info().Str("link", ch.Label()).Msg("uplink established")
	c.observer.LinkChanged(true)
	c.machine.Log(models.SourceHardware, "UPLINK ESTABLISHED: "+ch.Label(), models.SeveritySuccess)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for line := range ch.Receive(ctx) {
			if !c.post(func() { c.received(gen, line) }) {
				return
			}
		}
		c.post(func() { c.linkEnded(gen) })
	}()
}

func (c *Console) reportConnectError(err error) {
	ce := uplink.Classify(err)
	log.Warn().Err(err).Str("kind", ce.Kind.String()).Msg("failed to open uplink")

	severity := models.SeverityError
	if ce.Kind == uplink.KindUserCancelled {
		severity = models.SeverityWarn
	}
	c.machine.Log(models.SourceSystem, ce.Kind.Message(), severity)

	if hint := ce.Kind.Hint(); hint != "" {
		c.machine.After(hintDelay, func(time.Time) {
			c.machine.Log(models.SourceSystem, "HINT: "+hint, models.SeverityWarn)
		})
	}
}

// checkLink asks the connector whether its transport exists at all and,
// if not, raises an alert shortly after boot.
func (c *Console) checkLink(ctx context.Context, booted time.Time) {
	checker, ok := c.connector.(uplink.Checker)
	if !ok {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := checker.Check(ctx)
		if err == nil {
			return
		}
		ce := uplink.Classify(err)
		if ce.Kind == uplink.KindUserCancelled {
			return
		}
		log.Warn().Err(err).Str("kind", ce.Kind.String()).Msg("uplink unavailable on this host")
		c.post(func() {
			wait := max(bootAlertDelay-c.clock.Since(booted), 0)
			c.machine.After(wait, func(time.Time) {
				c.machine.Log(models.SourceSystem, "ALERT: "+ce.Kind.Message(), models.SeverityError)
				if hint := ce.Kind.Hint(); hint != "" {
					c.machine.Log(models.SourceSystem, "HINT: "+hint, models.SeverityWarn)
				}
			})
		})
	}()
}

func (c *Console) received(gen uint64, line string) {
	if gen != c.linkGen || c.link == nil {
		return
	}
	log.Debug().Str("line", line).Msg("uplink rx")
	if c.echoRX {
		c.machine.Log(models.SourceHardware, "RX: "+line, models.SeverityInfo)
	}
}

// linkEnded handles the read loop stopping on its own, e.g. when the
// device is unplugged.
func (c *Console) linkEnded(gen uint64) {
	if gen != c.linkGen || c.link == nil {
		return
	}
	log.Warn().Msg("uplink read loop ended")
	c.closeLink()
	c.machine.Log(models.SourceHardware, "LINK SEVERED", models.SeverityWarn)
}

func (c *Console) disconnect() {
	c.machine.Log(models.SourceSystem, "TERMINATING UPLINK...", models.SeverityInfo)
	c.closeLink()
	c.machine.Log(models.SourceHardware, "LINK SEVERED", models.SeverityWarn)
}

func (c *Console) closeLink() {
	if c.link == nil {
		return
	}
	if c.linkCancel != nil {
		c.linkCancel()
		c.linkCancel = nil
	}
	if err := c.link.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing uplink")
	}
	c.link = nil
	c.linkGen++
	c.observer.LinkChanged(false)
}

// shutdown releases the link without logging to the console.
func (c *Console) shutdown() {
	if c.connectCancel != nil {
		c.connectCancel()
		c.connectCancel = nil
	}
	c.closeLink()
}
