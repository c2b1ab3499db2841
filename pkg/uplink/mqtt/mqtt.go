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

// Package mqtt implements the uplink over an MQTT broker. Commands are
// published on "<topic>/tx" and device lines are read from "<topic>/rx".
package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/helpers/syncutil"
	"github.com/ZaparooProject/cerberus-console/pkg/uplink"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
	clientIDPrefix = "cerberus-"
)

var errTimeout = errors.New("timed out waiting for broker")

// ClientFactory builds a client from options.
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

// DefaultClientFactory builds a real paho client.
func DefaultClientFactory(opts *mqtt.ClientOptions) mqtt.Client {
	return mqtt.NewClient(opts)
}

// Target is a parsed link path.
type Target struct {
	Broker string
	Topic  string
	UseTLS bool
}

// BrokerURL returns the URL paho dials.
func (t Target) BrokerURL() string {
	if t.UseTLS {
		return "ssl://" + t.Broker
	}
	return "tcp://" + t.Broker
}

// ParseTarget parses "[mqtt|mqtts]://host:port/topic". The scheme is
// optional and defaults to plain mqtt.
func ParseTarget(path string) (Target, error) {
	if path == "" {
		return Target{}, errors.New("path cannot be empty")
	}

	raw := path
	if !strings.Contains(path, "://") {
		raw = "mqtt://" + path
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("failed to parse MQTT URL: %w", err)
	}
	if u.Host == "" {
		return Target{}, errors.New("broker address (host:port) is required")
	}

	topic := strings.Trim(u.Path, "/")
	if topic == "" {
		return Target{}, errors.New("topic is required")
	}

	return Target{
		Broker: u.Host,
		Topic:  topic,
		UseTLS: u.Scheme == "mqtts" || u.Scheme == "ssl",
	}, nil
}

// Connector dials the broker.
type Connector struct {
	factory  ClientFactory
	active   *Channel
	path     string
	username string
	password string
	timeout  time.Duration
	mu       syncutil.Mutex
}

// Option customizes a Connector.
type Option func(*Connector)

// WithClientFactory replaces the client constructor.
func WithClientFactory(f ClientFactory) Option {
	return func(c *Connector) { c.factory = f }
}

// WithCredentials sets the broker username and password.
func WithCredentials(username, password string) Option {
	return func(c *Connector) {
		c.username = username
		c.password = password
	}
}

// WithConnectTimeout bounds how long Connect waits for the broker.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Connector) { c.timeout = d }
}

// NewConnector returns a connector for path.
func NewConnector(path string, opts ...Option) *Connector {
	c := &Connector{
		path:    path,
		factory: DefaultClientFactory,
		timeout: connectTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Connector) clientOptions(t Target) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(t.BrokerURL())
	opts.SetClientID(clientIDPrefix + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(c.timeout)
	opts.SetOrderMatters(false)
	if c.username != "" {
		opts.SetUsername(c.username)
		opts.SetPassword(c.password)
	}
	if t.UseTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt uplink: connection lost")
	}
	return opts
}

// Connect dials the broker and subscribes to the receive topic.
func (c *Connector) Connect(ctx context.Context) (uplink.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, uplink.NewConnectError(uplink.KindUserCancelled, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, uplink.NewConnectError(uplink.KindAlreadyOpen, nil)
	}

	target, err := ParseTarget(c.path)
	if err != nil {
		return nil, uplink.NewConnectError(uplink.KindUnsupported, err)
	}

	client := c.factory(c.clientOptions(target))
	if err := waitToken(ctx, client.Connect(), c.timeout); err != nil {
		client.Disconnect(0)
		return nil, connectFailure(err)
	}

	ch := &Channel{
		client:   client,
		owner:    c,
		txTopic:  target.Topic + "/tx",
		incoming: make(chan string, 16),
		closed:   make(chan struct{}),
	}

	rxTopic := target.Topic + "/rx"
	sub := client.Subscribe(rxTopic, 1, ch.handleMessage)
	if err := waitToken(ctx, sub, c.timeout); err != nil {
		client.Disconnect(0)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, uplink.NewConnectError(uplink.KindUserCancelled, err)
		}
		return nil, uplink.NewConnectError(
			uplink.KindPermissionDenied,
			fmt.Errorf("failed to subscribe to %s: %w", rxTopic, err),
		)
	}

	log.Info().
		Str("broker", target.Broker).
		Str("topic", target.Topic).
		Msg("mqtt uplink opened")

	c.active = ch
	return ch, nil
}

func (c *Connector) release(ch *Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == ch {
		c.active = nil
	}
}

// waitToken waits for token to complete, ctx to end or timeout to pass,
// whichever is first.
func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errTimeout
	}
}

func connectFailure(err error) *uplink.ConnectError {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return uplink.NewConnectError(uplink.KindUserCancelled, err)
	case errors.Is(err, errTimeout):
		return uplink.NewConnectError(
			uplink.KindBusy,
			errors.New("failed to connect to MQTT broker: connection timeout"),
		)
	}
	return classify(fmt.Errorf("failed to connect to MQTT broker: %w", err))
}

func classify(err error) *uplink.ConnectError {
	switch {
	case errors.Is(err, packets.ErrorRefusedNotAuthorised),
		errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword):
		return uplink.NewConnectError(uplink.KindPermissionDenied, err)
	case errors.Is(err, packets.ErrorRefusedServerUnavailable):
		return uplink.NewConnectError(uplink.KindBusy, err)
	default:
		return uplink.Classify(err)
	}
}

// Channel is an open MQTT link.
type Channel struct {
	client    mqtt.Client
	owner     *Connector
	incoming  chan string
	closed    chan struct{}
	txTopic   string
	closeOnce sync.Once
	mu        syncutil.Mutex
}

func (ch *Channel) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var pending []byte
	data := make([]byte, 0, len(msg.Payload())+1)
	data = append(data, msg.Payload()...)
	data = append(data, '\n')
	for _, line := range uplink.SplitLines(&pending, data) {
		select {
		case ch.incoming <- line:
		case <-ch.closed:
			return
		default:
			log.Warn().Str("line", line).Msg("mqtt uplink: receive buffer full, dropping line")
		}
	}
}

// Label implements uplink.Channel.
func (*Channel) Label() string {
	return "MQTT"
}

// Send publishes one uppercased, newline-terminated line.
func (ch *Channel) Send(line string) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	select {
	case <-ch.closed:
		return uplink.ErrClosed
	default:
	}

	token := ch.client.Publish(ch.txTopic, 1, false, uplink.FormatLine(line))
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("failed to publish: timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}
	return nil
}

// Receive streams lines published on the receive topic.
func (ch *Channel) Receive(ctx context.Context) <-chan string {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch.closed:
				return
			case line := <-ch.incoming:
				select {
				case out <- line:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Close disconnects from the broker.
func (ch *Channel) Close() error {
	ch.closeOnce.Do(func() {
		close(ch.closed)
		ch.mu.Lock()
		if ch.client.IsConnected() {
			ch.client.Disconnect(250)
		}
		ch.mu.Unlock()
		ch.owner.release(ch)
		log.Info().Msg("mqtt uplink closed")
	})
	return nil
}
