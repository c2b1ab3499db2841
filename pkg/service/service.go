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

// Package service wires the console to its sinks, the API and the
// optional extras, and owns their lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaparooProject/cerberus-console/pkg/api"
	"github.com/ZaparooProject/cerberus-console/pkg/api/models"
	"github.com/ZaparooProject/cerberus-console/pkg/api/notifications"
	"github.com/ZaparooProject/cerberus-console/pkg/audio"
	"github.com/ZaparooProject/cerberus-console/pkg/config"
	"github.com/ZaparooProject/cerberus-console/pkg/console/session"
	"github.com/ZaparooProject/cerberus-console/pkg/service/broker"
	"github.com/ZaparooProject/cerberus-console/pkg/service/discovery"
	"github.com/ZaparooProject/cerberus-console/pkg/service/publishers"
	"github.com/ZaparooProject/cerberus-console/pkg/uplink"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	notificationQueueSize = 256
	SubscriberBuffer      = 100
)

type Options struct {
	Config *config.Instance
	Clock  clockwork.Clock
	Fs     afero.Fs
	// Connector replaces the uplink built from the link config.
	Connector uplink.Connector
	// AudioOutput replaces the system audio device for the buzzer.
	AudioOutput      audio.Output
	PublisherFactory publishers.ClientFactory
	DiscoveryOptions []discovery.Option
	DisableAPI       bool
	DisableDiscovery bool
}

// Service is a running console with everything attached to it.
type Service struct {
	console    *session.Console
	broker     *broker.Broker
	discovery  *discovery.Service
	buzzer     *audio.Buzzer
	cancel     context.CancelFunc
	done       chan struct{}
	err        error
	publishers []*publishers.MQTTPublisher
}

// Start boots the console and attaches its consumers. The service runs
// until ctx is cancelled or Stop is called.
func Start(ctx context.Context, opts Options) (*Service, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("service requires a config")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	log.Info().Msgf("version: %s", config.AppVersion)

	consoleOpts := ConsoleOptions(cfg)
	consoleOpts.Clock = opts.Clock
	consoleOpts.Connector = opts.Connector
	if consoleOpts.Connector == nil {
		conn, err := NewConnector(cfg.Link(), config.GetAuthCfg())
		if err != nil {
			return nil, err
		}
		consoleOpts.Connector = conn
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Service{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	ns := make(chan models.Notification, notificationQueueSize)
	s.broker = broker.NewBroker(ctx, ns)
	s.broker.Start()

	sinks := notifications.NewSinks(ns)
	s.console = session.NewConsole(consoleOpts, session.Sinks{
		Display:  sinks,
		Light:    session.ActuatorFunc(sinks.Light),
		Sound:    session.ActuatorFunc(sinks.Sound),
		Observer: sinks,
	})

	g, gctx := errgroup.WithContext(ctx)

	if audioCfg := cfg.Audio(); audioCfg.Buzzer {
		log.Info().Msg("starting buzzer")
		out := opts.AudioOutput
		if out == nil {
			out = audio.MalgoOutput{}
		}
		s.buzzer = audio.NewBuzzer(out, audioCfg.ToneHz, audioCfg.Volume)
		alarms, _ := s.broker.Subscribe(16, models.NotificationAlarmSound)
		g.Go(func() error {
			s.buzzer.Listen(gctx, alarms)
			return nil
		})
	}

	s.startPublishers(cfg, opts.PublisherFactory)

	if !opts.DisableAPI {
		log.Info().Msg("starting API service")
		apiNotifications, _ := s.broker.Subscribe(SubscriberBuffer)
		apiOpts := &api.Options{
			Config:        cfg,
			Console:       s.console,
			Clock:         opts.Clock,
			Fs:            opts.Fs,
			Notifications: apiNotifications,
		}
		g.Go(func() error {
			if err := api.Start(gctx, apiOpts); err != nil {
				log.Error().Err(err).Msg("api server stopped")
			}
			return nil
		})
	}

	g.Go(func() error {
		return s.console.Run(gctx)
	})

	select {
	case <-s.console.Started():
	case <-s.console.Done():
		cancel()
		_ = g.Wait()
		return nil, errors.New("console exited during boot")
	}

	if link := cfg.Link(); link.AutoConnect && consoleOpts.Connector != nil {
		log.Info().Str("driver", link.Driver).Msg("auto-connecting link")
		if err := s.console.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("auto-connect failed")
		}
	}

	if !opts.DisableAPI && !opts.DisableDiscovery {
		log.Info().Msg("starting mDNS discovery service")
		s.discovery = discovery.New(cfg, cfg.Link().Driver, opts.DiscoveryOptions...)
		if err := s.discovery.Start(); err != nil {
			log.Error().Err(err).Msg("mDNS discovery failed to start (continuing without discovery)")
		}
	}

	go func() {
		err := g.Wait()
		log.Info().Msg("service context cancelled, running cleanup")
		s.cleanup()
		s.err = err
		close(s.done)
	}()

	return s, nil
}

func (s *Service) startPublishers(cfg *config.Instance, factory publishers.ClientFactory) {
	creds := config.GetAuthCfg()
	for _, pubCfg := range cfg.MQTTPublishers() {
		if !pubCfg.IsEnabled() {
			continue
		}

		var pubOpts []publishers.Option
		if factory != nil {
			pubOpts = append(pubOpts, publishers.WithClientFactory(factory))
		}
		pubOpts = append(pubOpts, publishers.WithRetain(pubCfg.Retain))
		pub := publishers.NewMQTTPublisher(pubCfg.Broker, pubCfg.Topic, pubCfg.Filter, pubOpts...)
		if cred := config.LookupAuth(creds, pub.BrokerURL()); cred != nil {
			publishers.WithCredentials(cred.Username, cred.Password)(pub)
		}

		log.Info().Msgf("starting MQTT publisher: %s (topic: %s)", pubCfg.Broker, pubCfg.Topic)
		sub, id := s.broker.Subscribe(SubscriberBuffer, pub.Filter()...)
		if err := pub.Start(sub); err != nil {
			log.Error().Err(err).Msgf("failed to start MQTT publisher for %s", pubCfg.Broker)
			s.broker.Unsubscribe(id)
			continue
		}
		s.publishers = append(s.publishers, pub)
	}
}

func (s *Service) cleanup() {
	if s.discovery != nil {
		s.discovery.Stop()
	}
	for _, pub := range s.publishers {
		pub.Stop()
	}
	if s.buzzer != nil {
		s.buzzer.Close()
	}
	<-s.broker.Done()
	log.Info().Msg("service cleanup completed")
}

// Console is the running console.
func (s *Service) Console() *session.Console {
	return s.console
}

// Subscribe returns a feed of console notifications, limited to methods
// when any are given.
func (s *Service) Subscribe(buffer int, methods ...string) (<-chan models.Notification, int) {
	return s.broker.Subscribe(buffer, methods...)
}

func (s *Service) Unsubscribe(id int) {
	s.broker.Unsubscribe(id)
}

// Done is closed once the service has fully stopped.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Stop shuts everything down and waits for it.
func (s *Service) Stop() error {
	s.cancel()
	<-s.done
	if s.err != nil && !errors.Is(s.err, context.Canceled) {
		return fmt.Errorf("service stopped with error: %w", s.err)
	}
	return nil
}
