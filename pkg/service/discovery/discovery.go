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

// Package discovery advertises the console API over mDNS so clients on the
// local network can find it.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/config"
	"github.com/ZaparooProject/cerberus-console/pkg/helpers/syncutil"
	"github.com/grandcat/zeroconf"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const ServiceType = "_cerberus._tcp"

const (
	retryInterval    = 30 * time.Second
	maxRetryDuration = 5 * time.Minute
)

var virtualInterfacePrefixes = []string{
	"docker", "br-", "veth", "virbr", "lxc", "lxd",
	"cni", "flannel", "cali", "tunl", "wg",
}

// Advertisement is a live registration.
type Advertisement interface {
	Shutdown()
}

// RegisterFunc publishes a service record.
type RegisterFunc func(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (Advertisement, error)

func zeroconfRegister(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (Advertisement, error) {
	server, err := zeroconf.Register(instance, service, domain, port, text, ifaces)
	if err != nil {
		return nil, fmt.Errorf("zeroconf register: %w", err)
	}
	return server, nil
}

// Settings is the subset of config the advertiser reads.
type Settings interface {
	DiscoveryEnabled() bool
	DiscoveryInstanceName() string
	DeviceID() string
	APIPort() int
}

// filterInterfaces keeps interfaces that are up, multicast capable and
// neither loopback nor virtual.
func filterInterfaces(ifaces []net.Interface) []net.Interface {
	var preferred []net.Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagLoopback != 0 ||
			iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if isVirtualInterface(iface.Name) {
			continue
		}
		preferred = append(preferred, iface)
	}
	return preferred
}

func isVirtualInterface(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Service advertises the API. When the network is not ready at start it
// keeps retrying in the background for a while.
type Service struct {
	cfg          Settings
	clock        clockwork.Clock
	register     RegisterFunc
	interfaces   func() ([]net.Interface, error)
	ad           Advertisement
	cancelFunc   context.CancelFunc
	done         chan struct{}
	linkDriver   string
	instanceName string
	stopped      bool
	mu           syncutil.Mutex
}

type Option func(*Service)

func WithRegister(fn RegisterFunc) Option {
	return func(s *Service) { s.register = fn }
}

func WithInterfaces(fn func() ([]net.Interface, error)) Option {
	return func(s *Service) { s.interfaces = fn }
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// New creates an advertiser. linkDriver is published in the TXT record.
func New(cfg Settings, linkDriver string, opts ...Option) *Service {
	s := &Service{
		cfg:        cfg,
		linkDriver: linkDriver,
		clock:      clockwork.NewRealClock(),
		register:   zeroconfRegister,
		interfaces: net.Interfaces,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the service, falling back to a retry loop when the
// first attempt fails. It only errors on permanent failures.
func (s *Service) Start() error {
	if !s.cfg.DiscoveryEnabled() {
		log.Info().Msg("mDNS discovery disabled by configuration")
		return nil
	}

	s.mu.Lock()
	s.instanceName = s.resolveInstanceName()
	s.mu.Unlock()

	if s.tryRegister() {
		return nil
	}

	log.Info().
		Dur("retryInterval", retryInterval).
		Dur("maxDuration", maxRetryDuration).
		Msg("mDNS registration failed, retrying in background")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.mu.Lock()
	s.cancelFunc = cancel
	s.done = done
	s.mu.Unlock()

	ticker := s.clock.NewTicker(retryInterval)
	deadline := s.clock.Now().Add(maxRetryDuration)
	go s.retryLoop(ctx, ticker, deadline, done)

	return nil
}

func (s *Service) txtRecords() []string {
	return []string{
		"id=" + s.cfg.DeviceID(),
		"version=" + config.AppVersion,
		"link=" + s.linkDriver,
	}
}

func (s *Service) tryRegister() bool {
	all, err := s.interfaces()
	if err != nil {
		log.Debug().Err(err).Msg("failed to list network interfaces")
		return false
	}
	ifaces := filterInterfaces(all)
	if len(ifaces) == 0 {
		log.Debug().Msg("no suitable network interfaces found for mDNS")
		return false
	}

	names := make([]string, len(ifaces))
	for i, iface := range ifaces {
		names[i] = iface.Name
	}

	port := s.cfg.APIPort()
	ad, err := s.register(s.InstanceName(), ServiceType, "local.", port, s.txtRecords(), ifaces)
	if err != nil {
		log.Debug().Err(err).Msg("mDNS registration attempt failed")
		return false
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		ad.Shutdown()
		return false
	}
	s.ad = ad
	s.mu.Unlock()

	log.Info().
		Str("instance", s.InstanceName()).
		Int("port", port).
		Str("type", ServiceType).
		Strs("interfaces", names).
		Msg("mDNS service advertising started")
	return true
}

func (s *Service) retryLoop(ctx context.Context, ticker clockwork.Ticker, deadline time.Time, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.Chan():
			if s.tryRegister() {
				log.Info().Msg("mDNS registration succeeded after retry")
				return
			}
			if !now.Before(deadline) {
				log.Warn().Msg("mDNS registration retry timed out, discovery will not be available")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Advertising reports whether a registration is live.
func (s *Service) Advertising() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ad != nil
}

// Stop withdraws the advertisement and ends any retry loop. Safe to call
// more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel, done := s.cancelFunc, s.done
	s.cancelFunc = nil
	ad := s.ad
	s.ad = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if ad != nil {
		log.Debug().Msg("stopping mDNS service advertising")
		ad.Shutdown()
	}
}

func (s *Service) InstanceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instanceName
}

// resolveInstanceName prefers the configured name, then the hostname.
func (s *Service) resolveInstanceName() string {
	if name := s.cfg.DiscoveryInstanceName(); name != "" {
		return name
	}
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		log.Warn().Err(err).Msg("failed to get hostname, using fallback")
		id := s.cfg.DeviceID()
		if len(id) >= 8 {
			return config.AppName + "-" + id[:8]
		}
		return config.AppName
	}
	return hostname
}
