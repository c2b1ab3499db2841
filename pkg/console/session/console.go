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
	"sync"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/ZaparooProject/cerberus-console/pkg/uplink"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrStopped is returned by Console calls made after the event loop exits.
var ErrStopped = errors.New("console stopped")

const (
	hintDelay      = 200 * time.Millisecond
	bootAlertDelay = 1500 * time.Millisecond
)

// ConsoleOptions configures a Console.
type ConsoleOptions struct {
	Clock     clockwork.Clock
	Connector uplink.Connector
	Options
	// EchoRX logs every line received from the device.
	EchoRX bool
}

// Console runs a Machine on its own event loop goroutine. Operator input,
// queries, timed stages and link events are all serialized through the
// loop, and the machine's virtual clock follows the console clock.
type Console struct {
	clock         clockwork.Clock
	connector     uplink.Connector
	link          uplink.Channel
	observer      Observer
	machine       *Machine
	events        chan func()
	done          chan struct{}
	started       chan struct{}
	runCtx        context.Context //nolint:containedctx // lifetime of the event loop
	linkCancel    context.CancelFunc
	connectCancel context.CancelFunc
	wg            sync.WaitGroup
	linkGen       uint64
	echoRX        bool
	connecting    bool
	startOnce     sync.Once
}

// NewConsole builds a console. sinks.Uplink is ignored: the console itself
// is the machine's uplink.
func NewConsole(opts ConsoleOptions, sinks Sinks) *Console {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	sinks = sinks.withDefaults()

	c := &Console{
		clock:     opts.Clock,
		connector: opts.Connector,
		observer:  sinks.Observer,
		echoRX:    opts.EchoRX,
		events:    make(chan func()),
		done:      make(chan struct{}),
		started:   make(chan struct{}),
	}
	sinks.Uplink = c
	c.machine = NewMachine(opts.Options, sinks, opts.Clock.Now())
	return c
}

// Run boots the machine and processes events until ctx is done. It may
// only be called once.
func (c *Console) Run(ctx context.Context) error {
	err := errors.New("console already running")
	c.startOnce.Do(func() {
		err = c.run(ctx)
	})
	return err
}

func (c *Console) run(ctx context.Context) error {
	c.runCtx = ctx
	defer func() {
		c.shutdown()
		close(c.done)
		c.wg.Wait()
	}()

	c.machine.AdvanceTo(c.clock.Now())
	c.machine.Boot()
	close(c.started)
	log.Info().Msg("console booted")
	c.checkLink(ctx, c.clock.Now())

	for {
		c.machine.AdvanceTo(c.clock.Now())

		var timer clockwork.Timer
		var fire <-chan time.Time
		if due, ok := c.machine.NextDue(); ok {
			timer = c.clock.NewTimer(max(due.Sub(c.clock.Now()), 0))
			fire = timer.Chan()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case fn := <-c.events:
			if timer != nil {
				timer.Stop()
			}
			c.machine.AdvanceTo(c.clock.Now())
			fn()
		case <-fire:
		}
	}
}

// Started is closed once the machine has booted.
func (c *Console) Started() <-chan struct{} {
	return c.started
}

// Done is closed when the event loop has exited.
func (c *Console) Done() <-chan struct{} {
	return c.done
}

// post queues fn without waiting for it. It reports false when the loop
// has already exited.
func (c *Console) post(fn func()) bool {
	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	}
}

// do runs fn on the loop and waits for it to finish.
func (c *Console) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case c.events <- wrapped:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrStopped
	}
}

// Submit handles one line of operator input.
func (c *Console) Submit(ctx context.Context, input string) error {
	return c.do(ctx, func() { c.machine.Submit(input) })
}

// Trigger runs a quick action.
func (c *Console) Trigger(ctx context.Context, a Action) error {
	var err error
	if doErr := c.do(ctx, func() { err = c.machine.Trigger(a) }); doErr != nil {
		return doErr
	}
	return err
}

// Snapshot returns the current session snapshot.
func (c *Console) Snapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	err := c.do(ctx, func() { snap = c.machine.Snapshot() })
	return snap, err
}

// Logs returns the current log entries, oldest first.
func (c *Console) Logs(ctx context.Context) ([]models.LogEntry, error) {
	var entries []models.LogEntry
	err := c.do(ctx, func() { entries = c.machine.Logs() })
	return entries, err
}

// ToggleLink opens the link when offline, closes it when online and
// cancels an attempt still in progress.
func (c *Console) ToggleLink(ctx context.Context) error {
	return c.do(ctx, c.toggleLink)
}

// Connect opens the link unless it is already open or opening.
func (c *Console) Connect(ctx context.Context) error {
	return c.do(ctx, func() {
		if c.link == nil && !c.connecting {
			c.startConnect()
		}
	})
}

// Connected implements Uplink. It must only be called on the loop.
func (c *Console) Connected() bool {
	return c.link != nil
}

// Send implements Uplink. It must only be called on the loop.
func (c *Console) Send(line string) error {
	if c.link == nil {
		return uplink.ErrClosed
	}
	//nolint:wrapcheck // driver errors are already wrapped
	return c.link.Send(line)
}

// Drop implements Uplink. It must only be called on the loop.
func (c *Console) Drop() {
	c.closeLink()
}
