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

// Package broker fans console notifications out to every interested
// consumer without letting a slow one hold up the rest.
package broker

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/api/models"
	"github.com/ZaparooProject/cerberus-console/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// retryInterval is how often frames held back from a full subscriber are
// offered again.
const retryInterval = 20 * time.Millisecond

// latestWins lists the methods that describe current state rather than an
// event. Only the newest one matters, so they are held for a full
// subscriber instead of being dropped.
var latestWins = []string{
	models.NotificationCharacterDisplay,
	models.NotificationGraphicDisplay,
	models.NotificationAlarmLight,
	models.NotificationAlarmSound,
	models.NotificationStateChanged,
	models.NotificationLinkChanged,
}

type subscriber struct {
	ch      chan models.Notification
	pending map[string]models.Notification
	methods []string
	order   []string
}

func (s *subscriber) wants(method string) bool {
	return len(s.methods) == 0 || slices.Contains(s.methods, method)
}

// hold keeps notif as the newest pending frame for its method.
func (s *subscriber) hold(notif models.Notification) {
	if s.pending == nil {
		s.pending = make(map[string]models.Notification)
	}
	if _, ok := s.pending[notif.Method]; !ok {
		s.order = append(s.order, notif.Method)
	}
	s.pending[notif.Method] = notif
}

// flush sends held frames in the order they were first held and reports
// whether any are still waiting.
func (s *subscriber) flush() bool {
	for len(s.order) > 0 {
		method := s.order[0]
		select {
		case s.ch <- s.pending[method]:
			delete(s.pending, method)
			s.order = s.order[1:]
		default:
			return true
		}
	}
	return false
}

// Broker reads notifications from a source channel and copies each one to
// its subscribers. A full subscriber buffer drops events such as log lines
// but keeps the newest display, alarm, state and link frame until there is
// room for it.
type Broker struct {
	ctx         context.Context //nolint:containedctx // broker lifetime
	source      <-chan models.Notification
	subscribers map[int]*subscriber
	done        chan struct{}
	mu          syncutil.RWMutex
	nextID      int
	startOnce   sync.Once
}

func NewBroker(ctx context.Context, source <-chan models.Notification) *Broker {
	return &Broker{
		ctx:         ctx,
		source:      source,
		subscribers: make(map[int]*subscriber),
		done:        make(chan struct{}),
	}
}

// Start runs the broadcast loop until the source closes or the context is
// cancelled, then closes every subscriber channel.
func (b *Broker) Start() {
	b.startOnce.Do(func() {
		go b.run()
	})
}

func (b *Broker) run() {
	defer close(b.done)
	defer b.closeAllSubscribers()
	retry := time.NewTicker(retryInterval)
	defer retry.Stop()
	for {
		select {
		case notif, ok := <-b.source:
			if !ok {
				log.Debug().Msg("broker: source channel closed")
				return
			}
			b.broadcast(notif)
		case <-retry.C:
			b.flushPending()
		case <-b.ctx.Done():
			log.Debug().Msg("broker: context cancelled, shutting down")
			return
		}
	}
}

// Done is closed once the broadcast loop has exited.
func (b *Broker) Done() <-chan struct{} {
	return b.done
}

func (b *Broker) broadcast(notif models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	coalesce := slices.Contains(latestWins, notif.Method)
	for id, sub := range b.subscribers {
		if !sub.wants(notif.Method) {
			continue
		}
		if sub.flush() && coalesce {
			sub.hold(notif)
			continue
		}
		select {
		case sub.ch <- notif:
		default:
			if coalesce {
				sub.hold(notif)
				continue
			}
			log.Warn().
				Int("subscriber_id", id).
				Str("method", notif.Method).
				Msg("subscriber channel full, dropping notification")
		}
	}
}

func (b *Broker) flushPending() {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		sub.flush()
	}
}

// Subscribe registers a consumer. With no methods it receives every
// notification, otherwise only the listed ones.
func (b *Broker) Subscribe(bufferSize int, methods ...string) (notifChan <-chan models.Notification, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id = b.nextID
	b.nextID++

	ch := make(chan models.Notification, bufferSize)
	b.subscribers[id] = &subscriber{ch: ch, methods: methods}

	log.Debug().
		Int("subscriber_id", id).
		Int("buffer_size", bufferSize).
		Strs("methods", methods).
		Msg("new subscriber registered")

	return ch, id
}

// Unsubscribe closes the subscriber's channel. Unknown ids are ignored.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(sub.ch)
		log.Debug().Int("subscriber_id", id).Msg("subscriber unsubscribed")
	}
}

// Subscribers reports how many consumers are registered.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Broker) closeAllSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subscribers {
		close(sub.ch)
		log.Debug().Int("subscriber_id", id).Msg("closed subscriber channel on shutdown")
	}
	b.subscribers = make(map[int]*subscriber)
}
