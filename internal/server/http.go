// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/tejzpr/memorybook/internal/auth"
	"github.com/tejzpr/memorybook/internal/memory"
)

// HTTPServer handles HTTP routes
type HTTPServer struct {
	service        *memory.Service
	accounts       *auth.Accounts
	tokens         *auth.TokenManager
	authMiddleware *auth.Middleware
	mcpServer      *MCPServer
	logger         *zap.Logger
}

// NewHTTPServer creates a new HTTP server. mcpServer may be nil, in which
// case /mcp is not mounted.
func NewHTTPServer(svc *memory.Service, accounts *auth.Accounts, tokens *auth.TokenManager, mcpServer *MCPServer, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPServer{
		service:        svc,
		accounts:       accounts,
		tokens:         tokens,
		authMiddleware: auth.NewMiddleware(tokens),
		mcpServer:      mcpServer,
		logger:         logger,
	}
}

// Routes builds the router
func (h *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(AccessLogger(h.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.HandleSignup)
			r.Post("/login", h.HandleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.RequireAuth)

			r.Route("/content", func(r chi.Router) {
				r.Post("/share", h.HandleShare)
				r.Get("/my-content", h.HandleListContent)
				r.Get("/type/{type}", h.HandleListContentByType)
				r.Get("/search", h.HandleSearchContent)
				r.Get("/{id}", h.HandleGetContent)
			})

			r.Route("/memories", func(r chi.Router) {
				r.Get("/", h.HandleListMemories)
				r.Post("/", h.HandleCreateMemory)
				r.Get("/search", h.HandleSearchMemories)
				r.Get("/context", h.HandleMemoriesByContext)
				r.Post("/import", h.HandleImportMemory)
				r.Get("/{id}", h.HandleGetMemory)
				r.Put("/{id}", h.HandleUpdateMemory)
				r.Delete("/{id}", h.HandleDeleteMemory)
				r.Get("/{id}/export", h.HandleExportMemory)
			})
		})
	})

	// MCP over streamable HTTP, tools resolve the user per request
	if h.mcpServer != nil {
		h.mcpServer.RegisterToolsForRequestUser()
		streamable := mcpserver.NewStreamableHTTPServer(h.mcpServer.GetMCPServer())
		r.With(h.authMiddleware.RequireAuth).Handle("/mcp", streamable)
	}

	return r
}

// HandleHealth reports liveness
func (h *HTTPServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
