// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tejzpr/memorybook/internal/database"
	"github.com/tejzpr/memorybook/internal/memory"
)

type signupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    uint      `json:"userId"`
	Username  string    `json:"username"`
}

type shareRequest struct {
	Type        string   `json:"type"`
	Title       string   `json:"title" validate:"required,max=500"`
	Description string   `json:"description"`
	TextContent string   `json:"textContent"`
	URL         string   `json:"url" validate:"omitempty,url"`
	Source      string   `json:"source"`
	Tags        []string `json:"tags" validate:"omitempty,dive,max=64"`
}

type shareResponse struct {
	ContentID        uint             `json:"contentId"`
	Memory           *database.Memory `json:"memory"`
	NewMemory        bool             `json:"newMemory"`
	ExtractedContext string           `json:"extractedContext"`
	Suggestions      string           `json:"suggestions"`
	Summary          string           `json:"summary"`
}

type memoryRequest struct {
	Context        string   `json:"context"`
	Type           string   `json:"type"`
	Content        string   `json:"content"`
	Keywords       string   `json:"keywords"`
	RelevanceScore int      `json:"relevanceScore" validate:"gte=0"`
	Tags           []string `json:"tags" validate:"omitempty,dive,max=64"`
}

func (req memoryRequest) input() memory.MemoryInput {
	return memory.MemoryInput{
		Context:        req.Context,
		Type:           req.Type,
		Content:        req.Content,
		Keywords:       req.Keywords,
		RelevanceScore: req.RelevanceScore,
		Tags:           req.Tags,
	}
}

// HandleSignup registers a password account
func (h *HTTPServer) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, user)
}

// HandleLogin exchanges credentials for an access token
func (h *HTTPServer) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Username:  user.Username,
	})
}

// HandleShare saves content and folds it into the user's memories
func (h *HTTPServer) HandleShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared, err := h.service.ShareContent(r.Context(), currentUser(r), memory.ShareRequest{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		TextContent: req.TextContent,
		URL:         req.URL,
		Source:      req.Source,
		Tags:        req.Tags,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, shareResponse{
		ContentID:        shared.Content.ID,
		Memory:           shared.Memory,
		NewMemory:        shared.IsNew(),
		ExtractedContext: shared.Content.ExtractedContext,
		Suggestions:      shared.Memory.Suggestions,
		Summary:          shared.Memory.Summary,
	})
}

// HandleListContent lists the user's content, newest first
func (h *HTTPServer) HandleListContent(w http.ResponseWriter, r *http.Request) {
	contents, err := h.service.ListContent(r.Context(), currentUser(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, nonNil(contents))
}

// HandleListContentByType lists the user's content of one type
func (h *HTTPServer) HandleListContentByType(w http.ResponseWriter, r *http.Request) {
	contents, err := h.service.ListContentByType(r.Context(), currentUser(r), chi.URLParam(r, "type"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, nonNil(contents))
}

// HandleSearchContent searches the user's content
func (h *HTTPServer) HandleSearchContent(w http.ResponseWriter, r *http.Request) {
	contents, err := h.service.SearchContent(r.Context(), currentUser(r), r.URL.Query().Get("q"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, nonNil(contents))
}

// HandleGetContent returns one content item
func (h *HTTPServer) HandleGetContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	content, err := h.service.GetContent(r.Context(), currentUser(r), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, content)
}

// HandleListMemories lists the user's memories
func (h *HTTPServer) HandleListMemories(w http.ResponseWriter, r *http.Request) {
	memories, err := h.service.ListMemories(r.Context(), currentUser(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, nonNil(memories))
}

// HandleSearchMemories searches the user's memories
func (h *HTTPServer) HandleSearchMemories(w http.ResponseWriter, r *http.Request) {
	memories, err := h.service.SearchMemories(r.Context(), currentUser(r), r.URL.Query().Get("q"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, nonNil(memories))
}

// HandleMemoriesByContext returns memories whose context matches exactly
func (h *HTTPServer) HandleMemoriesByContext(w http.ResponseWriter, r *http.Request) {
	memories, err := h.service.MemoriesByContext(r.Context(), currentUser(r), r.URL.Query().Get("context"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, nonNil(memories))
}

// HandleGetMemory returns one memory
func (h *HTTPServer) HandleGetMemory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	mem, err := h.service.GetMemory(r.Context(), currentUser(r), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mem)
}

// HandleCreateMemory creates a memory directly
func (h *HTTPServer) HandleCreateMemory(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	mem, err := h.service.AddMemory(r.Context(), currentUser(r), req.input())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mem)
}

// HandleUpdateMemory replaces a memory's content, context, type and tags
func (h *HTTPServer) HandleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	var req memoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	mem, err := h.service.UpdateMemory(r.Context(), currentUser(r), id, req.input())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mem)
}

// HandleDeleteMemory deletes a memory
func (h *HTTPServer) HandleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if err := h.service.DeleteMemory(r.Context(), currentUser(r), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExportMemory downloads a memory as markdown
func (h *HTTPServer) HandleExportMemory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	markdown, filename, err := h.service.ExportMemory(r.Context(), currentUser(r), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, markdown)
}

// HandleImportMemory creates a memory from an exported markdown document
// sent as the raw request body
func (h *HTTPServer) HandleImportMemory(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.respondServiceError(w, r, fmt.Errorf("failed to read body: %w", err))
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		h.respondError(w, http.StatusBadRequest, "request body is empty")
		return
	}

	mem, err := h.service.ImportMemory(r.Context(), currentUser(r), string(body))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mem)
}

// nonNil keeps empty lists encoding as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
