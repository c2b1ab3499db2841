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

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/api/models"
	"github.com/ZaparooProject/cerberus-console/pkg/config"
	console "github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/ZaparooProject/cerberus-console/pkg/console/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsole struct {
	submitted []string
	mu        sync.Mutex
	toggles   int
}

func (f *fakeConsole) Submit(_ context.Context, input string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, input)
	return nil
}

func (f *fakeConsole) Trigger(_ context.Context, a session.Action) error {
	return f.Submit(context.Background(), "action:"+string(a))
}

func (*fakeConsole) Snapshot(context.Context) (console.Snapshot, error) {
	return console.Snapshot{
		State:     console.StateLocked,
		Character: console.CharacterFrame{Line1: "ENTER PASSWORD:"},
		Graphic:   console.GraphicFrame{Text: "LOCKED", Icon: console.IconLock},
	}, nil
}

func (*fakeConsole) Logs(context.Context) ([]console.LogEntry, error) {
	return []console.LogEntry{{ID: 1, Source: console.SourceSystem, Message: "CERBERUS V3.1 ONLINE"}}, nil
}

func (f *fakeConsole) ToggleLink(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	return nil
}

func (f *fakeConsole) inputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submitted...)
}

type harness struct {
	server  *httptest.Server
	console *fakeConsole
	notifs  chan models.Notification
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{
		console: &fakeConsole{},
		notifs:  make(chan models.Notification, 10),
	}
	handler, _ := NewRouter(ctx, &Options{
		Config:        cfg,
		Console:       h.console,
		Clock:         clockwork.NewFakeClock(),
		Fs:            afero.NewMemMapFs(),
		Notifications: h.notifs,
	})
	h.server = httptest.NewServer(handler)
	t.Cleanup(h.server.Close)
	return h
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/api"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type rpcReply struct {
	Result json.RawMessage     `json:"result"`
	Error  *models.ErrorObject `json:"error"`
	Method string              `json:"method"`
	Params json.RawMessage     `json:"params"`
	ID     uuid.UUID           `json:"id"`
}

func call(t *testing.T, conn *websocket.Conn, method string, params any) rpcReply {
	t.Helper()
	id := uuid.New()
	req := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		req["params"] = params
	}
	require.NoError(t, conn.WriteJSON(req))
	return read(t, conn)
}

func read(t *testing.T, conn *websocket.Conn) rpcReply {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply rpcReply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestWebSocketCommand(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	conn := h.dial(t)

	reply := call(t, conn, models.MethodCommand, map[string]string{"text": "sagar"})
	require.Nil(t, reply.Error)
	assert.Equal(t, []string{"sagar"}, h.console.inputs())
}

func TestWebSocketState(t *testing.T) {
	t.Parallel()
	conn := newHarness(t).dial(t)

	reply := call(t, conn, models.MethodState, nil)
	require.Nil(t, reply.Error)
	var snap console.Snapshot
	require.NoError(t, json.Unmarshal(reply.Result, &snap))
	assert.Equal(t, "ENTER PASSWORD:", snap.Character.Line1)
	assert.Equal(t, console.IconLock, snap.Graphic.Icon)
}

func TestWebSocketErrors(t *testing.T) {
	t.Parallel()
	conn := newHarness(t).dial(t)

	reply := call(t, conn, "launch", nil)
	require.NotNil(t, reply.Error)
	assert.Equal(t, JSONRPCErrorMethodNotFound.Code, reply.Error.Code)

	reply = call(t, conn, models.MethodAction, map[string]string{"action": "detonate"})
	require.NotNil(t, reply.Error)
	assert.Equal(t, JSONRPCErrorInvalidParams.Code, reply.Error.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	reply = read(t, conn)
	require.NotNil(t, reply.Error)
	assert.Equal(t, JSONRPCErrorParseError.Code, reply.Error.Code)

	require.NoError(t, conn.WriteJSON(map[string]any{"jsonrpc": "1.0", "id": uuid.New(), "method": "state"}))
	reply = read(t, conn)
	require.NotNil(t, reply.Error)
	assert.Equal(t, JSONRPCErrorInvalidRequest.Code, reply.Error.Code)
}

func TestWebSocketPing(t *testing.T) {
	t.Parallel()
	conn := newHarness(t).dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(data))
}

func TestNotificationsBroadcast(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	conn := h.dial(t)

	// a round trip guarantees the session is registered before broadcasting
	call(t, conn, models.MethodVersion, nil)

	h.notifs <- models.Notification{
		Method: models.NotificationStateChanged,
		Params: json.RawMessage(`{"from":"LOCKED","to":"UNLOCKED"}`),
	}

	reply := read(t, conn)
	assert.Equal(t, models.NotificationStateChanged, reply.Method)
	assert.JSONEq(t, `{"from":"LOCKED","to":"UNLOCKED"}`, string(reply.Params))
}

func TestRESTState(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, err := http.Get(h.server.URL + "/api/state")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var snap console.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, console.StateLocked, snap.State)
}

func TestRESTCommand(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, err := http.Post(h.server.URL+"/api/command", "application/json", strings.NewReader(`{"text":"2"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, err = http.Post(h.server.URL+"/api/command", "application/json", strings.NewReader(`{"text":"\u0000"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, []string{"2"}, h.console.inputs())
}
