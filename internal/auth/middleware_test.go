// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiddlewareTest(t *testing.T) (*Middleware, *TokenManager) {
	tm := newTestTokenManager(t)
	return NewMiddleware(tm), tm
}

func TestRequireAuth_ValidToken(t *testing.T) {
	middleware, tm := setupMiddlewareTest(t)

	token, _, err := tm.GenerateToken(7, "alice")
	require.NoError(t, err)

	handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		extractedUserID, ok := GetUserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, uint(7), extractedUserID)

		extractedToken, ok := GetTokenFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, token, extractedToken)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("authenticated"))
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "authenticated", rec.Body.String())
}

func TestRequireAuth_MissingToken(t *testing.T) {
	middleware, _ := setupMiddlewareTest(t)

	handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"error":"unauthorized: missing token"`)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	middleware, _ := setupMiddlewareTest(t)

	handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestRequireAuth_QueryParameter(t *testing.T) {
	middleware, tm := setupMiddlewareTest(t)

	token, _, err := tm.GenerateToken(3, "carol")
	require.NoError(t, err)

	handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, uint(3), userID)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test?access_token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	middleware, tm := setupMiddlewareTest(t)

	token, _, err := tm.GenerateToken(9, "dave")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantUser bool
	}{
		{name: "no token", header: "", wantUser: false},
		{name: "invalid token", header: "Bearer nope", wantUser: false},
		{name: "valid token", header: "Bearer " + token, wantUser: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := middleware.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				_, ok := GetUserIDFromContext(r.Context())
				assert.Equal(t, tt.wantUser, ok)
			}))

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.True(t, called)
		})
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{name: "bearer header", header: "Bearer abc", want: "abc"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "basic scheme ignored", header: "Basic abc", want: ""},
		{name: "query fallback", query: "xyz", want: "xyz"},
		{name: "none", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/test"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest("GET", target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, extractToken(req))
		})
	}
}

func TestWithUserID(t *testing.T) {
	ctx := WithUserID(context.Background(), 11)

	userID, ok := GetUserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint(11), userID)

	_, ok = GetUserIDFromContext(context.Background())
	assert.False(t, ok)
}
