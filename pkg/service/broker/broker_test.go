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

package broker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func notif(method string) models.Notification {
	return models.Notification{Method: method}
}

func receive(t *testing.T, ch <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		require.True(t, ok, "channel closed")
		return n
	case <-time.After(time.Second):
		require.FailNow(t, "timed out waiting for notification")
		return models.Notification{}
	}
}

func TestSubscribeAssignsIDs(t *testing.T) {
	t.Parallel()
	b := NewBroker(context.Background(), make(chan models.Notification))

	_, id1 := b.Subscribe(1)
	_, id2 := b.Subscribe(1)

	assert.Equal(t, 0, id1)
	assert.Equal(t, 1, id2)
	assert.Equal(t, 2, b.Subscribers())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	b := NewBroker(context.Background(), make(chan models.Notification))

	ch, id := b.Subscribe(1)
	b.Unsubscribe(id)
	b.Unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, b.Subscribers())
}

func TestBroadcastToAll(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan models.Notification)
	b := NewBroker(ctx, source)
	a, _ := b.Subscribe(4)
	c, _ := b.Subscribe(4)
	b.Start()

	source <- notif(models.NotificationLogAdded)

	assert.Equal(t, models.NotificationLogAdded, receive(t, a).Method)
	assert.Equal(t, models.NotificationLogAdded, receive(t, c).Method)

	cancel()
	<-b.Done()
}

func TestMethodFilter(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan models.Notification)
	b := NewBroker(ctx, source)
	sound, _ := b.Subscribe(4, models.NotificationAlarmSound)
	b.Start()

	source <- notif(models.NotificationAlarmLight)
	source <- notif(models.NotificationAlarmSound)

	assert.Equal(t, models.NotificationAlarmSound, receive(t, sound).Method)
	assert.Empty(t, sound)

	cancel()
	<-b.Done()
}

func TestSlowConsumerDoesNotBlock(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan models.Notification)
	b := NewBroker(ctx, source)
	slow, _ := b.Subscribe(1)
	fast, _ := b.Subscribe(10)
	b.Start()

	for range 5 {
		source <- notif(models.NotificationLogAdded)
	}
	for range 5 {
		receive(t, fast)
	}
	assert.Len(t, slow, 1)

	cancel()
	<-b.Done()
}

func TestSlowConsumerGetsLatestFrame(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan models.Notification)
	b := NewBroker(ctx, source)
	slow, _ := b.Subscribe(1)
	b.Start()

	frame := func(text string) models.Notification {
		return models.Notification{
			Method: models.NotificationGraphicDisplay,
			Params: json.RawMessage(`{"text":"` + text + `"}`),
		}
	}
	source <- frame("LOCKED")
	source <- notif(models.NotificationLogAdded)
	source <- frame("ACCESS GRANTED")
	source <- frame("MISSION CONFIRMED")
	source <- notif(models.NotificationLinkChanged)

	assert.JSONEq(t, `{"text":"LOCKED"}`, string(receive(t, slow).Params))
	assert.JSONEq(t, `{"text":"MISSION CONFIRMED"}`, string(receive(t, slow).Params))
	assert.Equal(t, models.NotificationLinkChanged, receive(t, slow).Method)

	select {
	case n := <-slow:
		assert.Fail(t, "unexpected notification", n.Method)
	case <-time.After(5 * retryInterval):
	}

	cancel()
	<-b.Done()
}

func TestOrderPreserved(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan models.Notification)
	b := NewBroker(ctx, source)
	ch, _ := b.Subscribe(10)
	b.Start()

	methods := []string{
		models.NotificationStateChanged,
		models.NotificationCharacterDisplay,
		models.NotificationGraphicDisplay,
		models.NotificationLogAdded,
	}
	for _, m := range methods {
		source <- notif(m)
	}
	for _, m := range methods {
		assert.Equal(t, m, receive(t, ch).Method)
	}

	cancel()
	<-b.Done()
}

func TestSourceCloseStops(t *testing.T) {
	t.Parallel()
	source := make(chan models.Notification)
	b := NewBroker(context.Background(), source)
	ch, _ := b.Subscribe(1)
	b.Start()

	close(source)
	<-b.Done()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestConcurrentSubscribe(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan models.Notification, 100)
	b := NewBroker(ctx, source)
	b.Start()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, id := b.Subscribe(1)
			source <- notif(models.NotificationLogAdded)
			b.Unsubscribe(id)
		}()
	}
	wg.Wait()

	cancel()
	<-b.Done()
	assert.Zero(t, b.Subscribers())
}
