// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tejzpr/memorybook/internal/auth"
	"github.com/tejzpr/memorybook/internal/memory"
)

// maxBodyBytes bounds JSON and markdown request bodies
const maxBodyBytes = 1 << 20

var errBadID = errors.New("invalid id")

func (h *HTTPServer) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *HTTPServer) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses
func (h *HTTPServer) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, memory.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, memory.ErrUnauthorized):
		h.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, memory.ErrInvalidInput), errors.Is(err, errBadID):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrAccountExists):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.respondError(w, http.StatusUnauthorized, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads and validates a JSON request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, memory.ErrInvalidInput)
	}
	if err := validateStruct(dst); err != nil {
		return fmt.Errorf("%v: %w", err, memory.ErrInvalidInput)
	}
	return nil
}

func pathID(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w %q", errBadID, raw)
	}
	return uint(id), nil
}

// currentUser returns the authenticated user id set by auth.RequireAuth
func currentUser(r *http.Request) uint {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	return userID
}
