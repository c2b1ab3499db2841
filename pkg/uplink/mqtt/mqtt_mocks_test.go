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

package mqtt

import (
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/helpers/syncutil"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type published struct {
	payload any
	topic   string
}

// mockClient implements mqtt.Client for testing.
type mockClient struct {
	connectError    error
	subscribeError  error
	publishError    error
	handler         mqtt.MessageHandler
	opts            *mqtt.ClientOptions
	subscribed      string
	published       []published
	disconnectCalls int
	mu              syncutil.Mutex
	connected       bool
	connectTimeout  bool
}

func (m *mockClient) factory(opts *mqtt.ClientOptions) mqtt.Client {
	m.opts = opts
	return m
}

func (m *mockClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockClient) IsConnectionOpen() bool {
	return m.IsConnected()
}

func (m *mockClient) Connect() mqtt.Token {
	if m.connectTimeout {
		return &mockToken{}
	}
	if m.connectError != nil {
		return &mockToken{err: m.connectError, complete: true}
	}
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	return &mockToken{complete: true}
}

func (m *mockClient) Disconnect(_ uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.disconnectCalls++
}

func (m *mockClient) Publish(topic string, _ byte, _ bool, payload any) mqtt.Token {
	if m.publishError != nil {
		return &mockToken{err: m.publishError, complete: true}
	}
	m.mu.Lock()
	m.published = append(m.published, published{topic: topic, payload: payload})
	m.mu.Unlock()
	return &mockToken{complete: true}
}

func (m *mockClient) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	if m.subscribeError != nil {
		return &mockToken{err: m.subscribeError, complete: true}
	}
	m.subscribed = topic
	m.handler = callback
	return &mockToken{complete: true}
}

func (*mockClient) SubscribeMultiple(_ map[string]byte, _ mqtt.MessageHandler) mqtt.Token {
	return &mockToken{complete: true}
}

func (*mockClient) Unsubscribe(_ ...string) mqtt.Token {
	return &mockToken{complete: true}
}

func (m *mockClient) AddRoute(_ string, callback mqtt.MessageHandler) {
	m.handler = callback
}

func (*mockClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

type mockToken struct {
	err      error
	complete bool
}

func (*mockToken) Wait() bool {
	return true
}

func (t *mockToken) WaitTimeout(_ time.Duration) bool {
	return t.complete
}

// Done never closes for a token that does not complete.
func (t *mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.complete {
		close(ch)
	}
	return ch
}

func (t *mockToken) Error() error {
	return t.err
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (*mockMessage) Duplicate() bool   { return false }
func (*mockMessage) Qos() byte         { return 1 }
func (*mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string   { return m.topic }
func (*mockMessage) MessageID() uint16 { return 1 }
func (m *mockMessage) Payload() []byte { return m.payload }
func (*mockMessage) Ack()              {}
