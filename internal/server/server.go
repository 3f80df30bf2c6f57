// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"grokchat/internal/chat"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// termination signal.
const shutdownTimeout = 10 * time.Second

// ApiResponse is the envelope on every JSON body the API returns.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ok wraps data in a success envelope.
func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, ApiResponse{Success: true, Data: data})
}

// fail wraps an error message in a failure envelope.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, ApiResponse{Success: false, Error: msg})
}

// Server exposes the chat service over HTTP.
type Server struct {
	svc  *chat.Service
	echo *echo.Echo
}

// New creates the HTTP server and registers its routes.
func New(svc *chat.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{svc: svc, echo: e}

	e.GET("/health", s.handleHealth)
	e.GET("/sessions", s.handleListSessions)
	e.POST("/sessions", s.handleCreateSession)
	e.GET("/sessions/:session_id", s.handleGetSession)
	e.DELETE("/sessions/:session_id", s.handleDeleteSession)
	e.GET("/sessions/:session_id/messages", s.handleGetMessages)
	e.POST("/sessions/:session_id/messages", s.handleSendMessage)
	e.GET("/sessions/:session_id/export", s.handleExportSession)
	e.GET("/models", s.handleListModels)

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until SIGINT/SIGTERM, then drains in-flight
// requests before returning.
func (s *Server) Start(addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(ctx)
}
