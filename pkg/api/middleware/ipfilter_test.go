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

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPFilterIsAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		allowed    []string
		want       bool
	}{
		{name: "empty list allows all", allowed: nil, remoteAddr: "8.8.8.8:1234", want: true},
		{name: "exact ip", allowed: []string{"192.168.1.10"}, remoteAddr: "192.168.1.10:5000", want: true},
		{name: "other ip", allowed: []string{"192.168.1.10"}, remoteAddr: "192.168.1.11:5000", want: false},
		{name: "cidr", allowed: []string{"10.0.0.0/8"}, remoteAddr: "10.20.30.40:80", want: true},
		{name: "unmasked cidr", allowed: []string{"10.1.2.3/16"}, remoteAddr: "10.1.9.9:80", want: true},
		{name: "pasted port", allowed: []string{"192.168.1.10:7497"}, remoteAddr: "192.168.1.10:1", want: true},
		{name: "ipv6", allowed: []string{"::1"}, remoteAddr: "[::1]:7497", want: true},
		{name: "mapped ipv4", allowed: []string{"127.0.0.1"}, remoteAddr: "[::ffff:127.0.0.1]:1", want: true},
		{name: "invalid entry skipped", allowed: []string{"bogus"}, remoteAddr: "1.1.1.1:1", want: false},
		{name: "unparsable remote", allowed: []string{"1.1.1.1"}, remoteAddr: "nope", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := NewIPFilter(tt.allowed)
			assert.Equal(t, tt.want, f.IsAllowed(tt.remoteAddr))
		})
	}
}

func TestHTTPIPFilterMiddleware(t *testing.T) {
	t.Parallel()
	handler := HTTPIPFilterMiddleware(NewIPFilter([]string{"127.0.0.1"}))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/state", http.NoBody)
	req.RemoteAddr = "127.0.0.1:4000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/state", http.NoBody)
	req.RemoteAddr = "192.168.0.9:4000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestParseRemoteIP(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "192.168.1.1", ParseRemoteIP("192.168.1.1:80").String())
	assert.Equal(t, "192.168.1.1", ParseRemoteIP("192.168.1.1").String())
	assert.Equal(t, "::1", ParseRemoteIP("[::1]:80").String())
	assert.False(t, ParseRemoteIP("garbage").IsValid())
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()
	assert.True(t, IsLoopbackAddr("127.0.0.1:1"))
	assert.True(t, IsLoopbackAddr("[::1]:1"))
	assert.False(t, IsLoopbackAddr("10.0.0.1:1"))
	assert.False(t, IsLoopbackAddr(""))
}
