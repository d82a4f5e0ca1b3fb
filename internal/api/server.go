// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// shutdownGrace bounds graceful drain on shutdown.
const shutdownGrace = 10 * time.Second

// Server runs the HTTP API as a suture service.
type Server struct {
	handler *Handler
}

// NewServer wraps a handler for supervision.
func NewServer(h *Handler) *Server {
	return &Server{handler: h}
}

// Serve implements suture.Service: it listens until the context is
// cancelled, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.handler.cfg.Host, s.handler.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.handler.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// String names the service in supervisor logs.
func (s *Server) String() string {
	return "http-server"
}
