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

// Package publishers mirrors console notifications to external brokers.
package publishers

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/api/models"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 2 * time.Second
)

// ClientFactory builds a client from options.
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

// retained notifications describe current state, so late subscribers get
// the last value.
var retained = map[string]bool{
	models.NotificationCharacterDisplay: true,
	models.NotificationGraphicDisplay:   true,
	models.NotificationAlarmLight:       true,
	models.NotificationAlarmSound:       true,
	models.NotificationStateChanged:     true,
	models.NotificationLinkChanged:      true,
}

// MQTTPublisher publishes each notification to <topic>/<method>.
type MQTTPublisher struct {
	client   mqtt.Client
	factory  ClientFactory
	stopCh   chan struct{}
	done     chan struct{}
	broker   string
	topic    string
	username string
	password string
	filter   []string
	retain   bool
}

type Option func(*MQTTPublisher)

func WithClientFactory(f ClientFactory) Option {
	return func(p *MQTTPublisher) { p.factory = f }
}

func WithCredentials(username, password string) Option {
	return func(p *MQTTPublisher) {
		p.username = username
		p.password = password
	}
}

// WithRetain keeps state notifications on the broker.
func WithRetain(retain bool) Option {
	return func(p *MQTTPublisher) { p.retain = retain }
}

// NewMQTTPublisher creates a publisher. An empty filter publishes every
// notification.
func NewMQTTPublisher(broker, topic string, filter []string, opts ...Option) *MQTTPublisher {
	p := &MQTTPublisher{
		broker:  broker,
		topic:   strings.TrimSuffix(topic, "/"),
		filter:  filter,
		factory: mqtt.NewClient,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BrokerURL returns the URL paho dials. A bare host:port means plain tcp.
func (p *MQTTPublisher) BrokerURL() string {
	if strings.Contains(p.broker, "://") {
		return p.broker
	}
	return "tcp://" + p.broker
}

// Filter is the method list to subscribe with.
func (p *MQTTPublisher) Filter() []string {
	return p.filter
}

// Start connects to the broker and forwards notifications until Stop or
// until the channel closes.
func (p *MQTTPublisher) Start(notifications <-chan models.Notification) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.BrokerURL())
	opts.SetClientID("cerberus-publisher-" + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	if p.username != "" {
		opts.SetUsername(p.username)
		opts.SetPassword(p.password)
	}
	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Msgf("mqtt publisher: connected to %s", p.broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt publisher: connection lost")
	}

	p.client = p.factory(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		close(p.done)
		return fmt.Errorf("timed out connecting to MQTT broker %s", p.broker)
	}
	if err := token.Error(); err != nil {
		close(p.done)
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	log.Info().Msgf("mqtt publisher: publishing to %s (topic: %s)", p.broker, p.topic)
	go p.publishNotifications(notifications)
	return nil
}

// Stop disconnects from the broker and waits for the publish loop.
func (p *MQTTPublisher) Stop() {
	select {
	case <-p.stopCh:
		return
	default:
		close(p.stopCh)
	}

	if p.client == nil {
		return
	}
	<-p.done
	if p.client.IsConnected() {
		log.Debug().Msg("mqtt publisher: disconnecting")
		p.client.Disconnect(250)
	}
}

func (p *MQTTPublisher) publishNotifications(notifications <-chan models.Notification) {
	defer close(p.done)
	for {
		select {
		case <-p.stopCh:
			return
		case notif, ok := <-notifications:
			if !ok {
				log.Debug().Msg("mqtt publisher: notification channel closed")
				return
			}
			if !p.matchesFilter(notif.Method) {
				continue
			}
			p.publish(notif)
		}
	}
}

func (p *MQTTPublisher) publish(notif models.Notification) {
	payload := []byte(notif.Params)
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	topic := p.topic + "/" + notif.Method
	token := p.client.Publish(topic, 0, p.retain && retained[notif.Method], payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Warn().Str("topic", topic).Msg("mqtt publisher: publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("mqtt publisher: failed to publish message")
		return
	}
	log.Debug().Msgf("mqtt publisher: published %s", topic)
}

func (p *MQTTPublisher) matchesFilter(method string) bool {
	if len(p.filter) == 0 {
		return true
	}
	return slices.Contains(p.filter, method)
}
