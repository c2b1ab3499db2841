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

package config

import (
	"maps"
	"net/url"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// CredentialEntry holds broker credentials for a link target.
type CredentialEntry struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// mqtt brokers are reachable under several equivalent schemes.
var schemeAliases = map[string]string{
	"tcp": "mqtt",
	"ssl": "mqtts",
	"tls": "mqtts",
}

type authFile struct {
	Creds map[string]CredentialEntry `toml:"creds"`
}

// LoadAuthFromData parses auth.toml data. Entries may be written at the
// root level or under a [creds."url"] table, and both are merged.
func LoadAuthFromData(data []byte) map[string]CredentialEntry {
	result := make(map[string]CredentialEntry)

	var root map[string]CredentialEntry
	if err := toml.Unmarshal(data, &root); err == nil {
		for k, v := range root {
			if k != "creds" {
				result[k] = v
			}
		}
	}

	var wrapped authFile
	if err := toml.Unmarshal(data, &wrapped); err == nil {
		maps.Copy(result, wrapped.Creds)
	}

	return result
}

func canonicalScheme(scheme string) string {
	lower := strings.ToLower(scheme)
	if c, ok := schemeAliases[lower]; ok {
		return c
	}
	return lower
}

// LookupAuth finds credentials for a broker URL. Keys match on
// canonical scheme and host first, then on a bare host:port key.
func LookupAuth(creds map[string]CredentialEntry, target string) *CredentialEntry {
	if len(creds) == 0 {
		return nil
	}

	u, err := url.Parse(target)
	if err != nil {
		log.Warn().Msgf("invalid auth target url: %s", target)
		return nil
	}
	scheme := canonicalScheme(u.Scheme)

	var hostOnly *CredentialEntry
	for k, v := range creds {
		if !strings.Contains(k, "://") {
			if hostOnly == nil && strings.EqualFold(k, u.Host) {
				entry := v
				hostOnly = &entry
			}
			continue
		}
		keyURL, err := url.Parse(k)
		if err != nil {
			log.Error().Msgf("invalid auth config url: %s", k)
			continue
		}
		if canonicalScheme(keyURL.Scheme) == scheme && strings.EqualFold(keyURL.Host, u.Host) {
			entry := v
			return &entry
		}
	}

	return hostOnly
}
