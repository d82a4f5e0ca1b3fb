// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/melodex-app/melodex/internal/recommend"
)

// errorResponse is the JSON envelope for failures.
type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("encoding response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps engine sentinel errors to HTTP statuses.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrNoSnapshot):
		h.writeError(w, http.StatusServiceUnavailable, "recommendations not generated yet, try again shortly")
	case errors.Is(err, recommend.ErrUnknownStrategy), errors.Is(err, recommend.ErrUnknownTrack):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, recommend.ErrRunInProgress):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, recommend.ErrNoCatalog), errors.Is(err, recommend.ErrInsufficientData):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error().Err(err).Msg("request failed")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
