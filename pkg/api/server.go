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

// Package api serves the console over a JSON-RPC websocket and a small
// REST surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/api/methods"
	apimiddleware "github.com/ZaparooProject/cerberus-console/pkg/api/middleware"
	"github.com/ZaparooProject/cerberus-console/pkg/api/models"
	"github.com/ZaparooProject/cerberus-console/pkg/api/models/requests"
	"github.com/ZaparooProject/cerberus-console/pkg/api/validation"
	"github.com/ZaparooProject/cerberus-console/pkg/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	JSONRPCErrorParseError = models.ErrorObject{
		Code:    -32700,
		Message: "Parse error",
	}
	JSONRPCErrorInvalidRequest = models.ErrorObject{
		Code:    -32600,
		Message: "Invalid Request",
	}
	JSONRPCErrorMethodNotFound = models.ErrorObject{
		Code:    -32601,
		Message: "Method not found",
	}
	JSONRPCErrorInvalidParams = models.ErrorObject{
		Code:    -32602,
		Message: "Invalid params",
	}
	JSONRPCErrorServerError = models.ErrorObject{
		Code:    -32000,
		Message: "Server error",
	}
)

const shutdownTimeout = 5 * time.Second

var methodMap = map[string]func(requests.RequestEnv) (any, error){
	models.MethodCommand:    methods.HandleCommand,
	models.MethodAction:     methods.HandleAction,
	models.MethodState:      methods.HandleState,
	models.MethodLogs:       methods.HandleLogs,
	models.MethodLogsExport: methods.HandleLogsExport,
	models.MethodLinkToggle: methods.HandleLinkToggle,
	models.MethodVersion:    methods.HandleVersion,
}

// Options are the collaborators the API serves.
type Options struct {
	Config        *config.Instance
	Console       requests.Console
	Clock         clockwork.Clock
	Fs            afero.Fs
	Notifications <-chan models.Notification
}

func (o *Options) env(ctx context.Context) requests.RequestEnv {
	return requests.RequestEnv{
		Context: ctx,
		Console: o.Console,
		Config:  o.Config,
		Fs:      o.Fs,
		Clock:   o.Clock,
	}
}

// rpcError maps a handler error to the JSON-RPC error sent back.
func rpcError(err error) models.ErrorObject {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return models.ErrorObject{Code: JSONRPCErrorInvalidParams.Code, Message: verr.Error()}
	case errors.Is(err, validation.ErrMissingParams), errors.Is(err, validation.ErrInvalidParams):
		return models.ErrorObject{Code: JSONRPCErrorInvalidParams.Code, Message: err.Error()}
	}
	return models.ErrorObject{Code: JSONRPCErrorServerError.Code, Message: err.Error()}
}

func handleRequest(env requests.RequestEnv, req models.RequestObject) (any, *models.ErrorObject) {
	log.Debug().Str("method", req.Method).Msg("received request")

	fn, ok := methodMap[strings.ToLower(req.Method)]
	if !ok {
		log.Warn().Str("method", req.Method).Msg("unknown method")
		return nil, &JSONRPCErrorMethodNotFound
	}

	env.ID = *req.ID
	env.Params = req.Params

	resp, err := fn(env)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Msg("error handling request")
		rpcErr := rpcError(err)
		return nil, &rpcErr
	}
	return resp, nil
}

func sendResponse(session *melody.Session, id uuid.UUID, result any) error {
	data, err := json.Marshal(models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
	if err != nil {
		return fmt.Errorf("error marshalling response: %w", err)
	}
	if err := session.Write(data); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	return nil
}

func sendError(session *melody.Session, id uuid.UUID, rpcErr models.ErrorObject) error {
	log.Debug().Int("code", rpcErr.Code).Str("message", rpcErr.Message).Msg("sending error")
	data, err := json.Marshal(models.ResponseErrorObject{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcErr,
	})
	if err != nil {
		return fmt.Errorf("error marshalling error response: %w", err)
	}
	if err := session.Write(data); err != nil {
		return fmt.Errorf("error writing error response: %w", err)
	}
	return nil
}

func handleWSMessage(ctx context.Context, opts *Options) func(*melody.Session, []byte) {
	return func(session *melody.Session, msg []byte) {
		// heartbeat
		if bytes.Equal(msg, []byte("ping")) {
			if err := session.Write([]byte("pong")); err != nil {
				log.Error().Err(err).Msg("sending pong")
			}
			return
		}

		var req models.RequestObject
		if !json.Valid(msg) || json.Unmarshal(msg, &req) != nil {
			log.Error().Msg("data not valid json")
			if err := sendError(session, uuid.Nil, JSONRPCErrorParseError); err != nil {
				log.Error().Err(err).Msg("error sending error response")
			}
			return
		}

		if req.JSONRPC != "2.0" || req.Method == "" {
			id := uuid.Nil
			if req.ID != nil {
				id = *req.ID
			}
			if err := sendError(session, id, JSONRPCErrorInvalidRequest); err != nil {
				log.Error().Err(err).Msg("error sending error response")
			}
			return
		}

		if req.ID == nil {
			log.Debug().Str("method", req.Method).Msg("received notification, ignoring")
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
		defer cancel()

		resp, rpcErr := handleRequest(opts.env(reqCtx), req)
		if rpcErr != nil {
			if err := sendError(session, *req.ID, *rpcErr); err != nil {
				log.Error().Err(err).Msg("error sending error response")
			}
			return
		}
		if err := sendResponse(session, *req.ID, resp); err != nil {
			log.Error().Err(err).Msg("error sending response")
		}
	}
}

func broadcastNotifications(
	ctx context.Context,
	session *melody.Melody,
	notifications <-chan models.Notification,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(models.RequestObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification request")
				continue
			}
			if err := session.Broadcast(data); err != nil && !errors.Is(err, melody.ErrClosed) {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("error writing json response")
	}
}

func handleRESTState(opts *Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := opts.Console.Snapshot(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, rpcError(err))
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleRESTCommand(opts *Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		if _, err := body.ReadFrom(http.MaxBytesReader(w, r.Body, 4096)); err != nil {
			writeJSON(w, http.StatusBadRequest, JSONRPCErrorInvalidRequest)
			return
		}
		env := opts.env(r.Context())
		env.Params = body.Bytes()
		if _, err := methods.HandleCommand(env); err != nil {
			rpcErr := rpcError(err)
			status := http.StatusServiceUnavailable
			if rpcErr.Code == JSONRPCErrorInvalidParams.Code {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, rpcErr)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// NewRouter builds the HTTP handler. Notifications are broadcast to
// websocket clients until ctx is cancelled.
func NewRouter(ctx context.Context, opts *Options) (http.Handler, *melody.Melody) {
	limiter := apimiddleware.NewIPRateLimiter(opts.Clock, opts.Config.RateLimit())
	limiter.StartCleanup(ctx)
	ipFilter := apimiddleware.NewIPFilter(opts.Config.AllowedIPs())

	origins := opts.Config.AllowedOrigins()
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.HTTPIPFilterMiddleware(ipFilter))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	session := melody.New()
	session.Upgrader.CheckOrigin = func(*http.Request) bool { return true }
	session.HandleMessage(apimiddleware.WebSocketRateLimitHandler(limiter, handleWSMessage(ctx, opts)))
	session.HandleConnect(func(s *melody.Session) {
		log.Info().Str("addr", s.Request.RemoteAddr).Msg("api client connected")
	})
	if opts.Notifications != nil {
		go broadcastNotifications(ctx, session, opts.Notifications)
	}

	r.Get("/api", func(w http.ResponseWriter, r *http.Request) {
		if err := session.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Use(middleware.Timeout(config.RequestTimeout))
		r.Use(apimiddleware.HTTPRateLimitMiddleware(limiter))
		r.Get("/api/state", handleRESTState(opts))
		r.Post("/api/command", handleRESTCommand(opts))
	})

	return r, session
}

// Start serves the API on the configured address until ctx is cancelled.
func Start(ctx context.Context, opts *Options) error {
	handler, session := NewRouter(ctx, opts)

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", opts.Config.APIListen())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", opts.Config.APIListen(), err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := session.Close(); err != nil && !errors.Is(err, melody.ErrClosed) {
		log.Warn().Err(err).Msg("error closing websocket sessions")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}
