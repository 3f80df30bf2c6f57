// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"grokchat/internal/export"
	"grokchat/internal/model"
	"grokchat/internal/store"
	"grokchat/internal/xai"
)

// createSessionRequest is the POST /sessions body.
type createSessionRequest struct {
	Model string  `json:"model"`
	Title *string `json:"title"`
}

// sendMessageRequest is the POST /sessions/:session_id/messages body.
type sendMessageRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// sendMessageResponse pairs both persisted transcript entries for one
// exchange.
type sendMessageResponse struct {
	SessionID        string         `json:"session_id"`
	UserMessage      *model.Message `json:"user_message"`
	AssistantMessage *model.Message `json:"assistant_message"`
}

// handleHealth reports liveness.
// GET /health
func (s *Server) handleHealth(c echo.Context) error {
	return ok(c, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListSessions returns a page of sessions, most recently active
// first. Defaults to the first 50.
// GET /sessions?limit=50&offset=0
func (s *Server) handleListSessions(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	sessions, err := s.svc.Store().ListSessions(c.Request().Context(), limit, offset)
	if err != nil {
		log.Printf("ERROR: list sessions: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to list sessions")
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return ok(c, http.StatusOK, sessions)
}

// handleCreateSession creates an empty session.
// POST /sessions
func (s *Server) handleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Model == "" {
		req.Model = s.svc.Client().DefaultModel()
	}

	session := model.NewSession(req.Model, req.Title)
	if err := s.svc.Store().CreateSession(c.Request().Context(), session); err != nil {
		log.Printf("ERROR: create session: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to create session")
	}
	return ok(c, http.StatusCreated, session)
}

// handleGetSession returns one session.
// GET /sessions/:session_id
func (s *Server) handleGetSession(c echo.Context) error {
	session, err := s.svc.Store().GetSession(c.Request().Context(), c.Param("session_id"))
	if errors.Is(err, store.ErrSessionNotFound) {
		return fail(c, http.StatusNotFound, "session not found")
	}
	if err != nil {
		log.Printf("ERROR: get session: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to get session")
	}
	return ok(c, http.StatusOK, session)
}

// handleDeleteSession removes a session and its messages.
// DELETE /sessions/:session_id
func (s *Server) handleDeleteSession(c echo.Context) error {
	err := s.svc.Store().DeleteSession(c.Request().Context(), c.Param("session_id"))
	if errors.Is(err, store.ErrSessionNotFound) {
		return fail(c, http.StatusNotFound, "session not found")
	}
	if err != nil {
		log.Printf("ERROR: delete session: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to delete session")
	}
	return ok(c, http.StatusOK, map[string]string{"deleted": c.Param("session_id")})
}

// handleGetMessages returns a session's transcript in order.
// GET /sessions/:session_id/messages
func (s *Server) handleGetMessages(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	if _, err := s.svc.Store().GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return fail(c, http.StatusNotFound, "session not found")
		}
		log.Printf("ERROR: get session: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to get session")
	}

	messages, err := s.svc.History(ctx, sessionID)
	if err != nil {
		log.Printf("ERROR: get messages: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to get messages")
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return ok(c, http.StatusOK, messages)
}

// handleSendMessage runs one exchange against the session. The user
// message is persisted before the upstream call; a failed call leaves it
// in place and surfaces the upstream status through a 502.
// POST /sessions/:session_id/messages
func (s *Server) handleSendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return fail(c, http.StatusBadRequest, "message must not be empty")
	}

	ex, err := s.svc.Send(c.Request().Context(), c.Param("session_id"), req.Model, req.Message)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return fail(c, http.StatusNotFound, "session not found")
		}
		if upErr, isUp := xai.IsUpstream(err); isUp {
			log.Printf("ERROR: upstream returned %d: %s", upErr.Status, upErr.Body)
			return fail(c, http.StatusBadGateway, upErr.Error())
		}
		if xai.IsTimeout(err) {
			log.Printf("ERROR: upstream timeout: %v", err)
			return fail(c, http.StatusGatewayTimeout, "upstream timed out")
		}
		log.Printf("ERROR: send message: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to send message")
	}

	return ok(c, http.StatusOK, sendMessageResponse{
		SessionID:        ex.Session.ID,
		UserMessage:      ex.UserMessage,
		AssistantMessage: ex.AssistantMessage,
	})
}

// handleExportSession returns the conversation as a downloadable
// document. The body is the raw export, not the JSON envelope.
// GET /sessions/:session_id/export?format=markdown|json
func (s *Server) handleExportSession(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	exporter, err := export.ForFormat(c.QueryParam("format"))
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	session, err := s.svc.Store().GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return fail(c, http.StatusNotFound, "session not found")
	}
	if err != nil {
		log.Printf("ERROR: get session: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to get session")
	}

	messages, err := s.svc.History(ctx, sessionID)
	if err != nil {
		log.Printf("ERROR: get messages: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to get messages")
	}

	data, err := exporter.Export(session, messages)
	if err != nil {
		log.Printf("ERROR: export session: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to export session")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+export.Filename(session, exporter)+`"`)
	return c.Blob(http.StatusOK, exporter.MimeType(), data)
}

// handleListModels returns the text models available to the configured
// key.
// GET /models
func (s *Server) handleListModels(c echo.Context) error {
	models, err := s.svc.Client().ListModels(c.Request().Context())
	if err != nil {
		if upErr, isUp := xai.IsUpstream(err); isUp {
			log.Printf("ERROR: upstream returned %d listing models", upErr.Status)
			return fail(c, http.StatusBadGateway, upErr.Error())
		}
		log.Printf("ERROR: list models: %v", err)
		return fail(c, http.StatusInternalServerError, "failed to list models")
	}
	return ok(c, http.StatusOK, models)
}
