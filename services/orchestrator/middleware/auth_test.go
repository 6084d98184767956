// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func authTestRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", APIKeyAuth(apiKey), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func getWithAuth(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestAPIKeyAuth covers token matching, including the RFC 7235
// case-insensitive scheme.
func TestAPIKeyAuth(t *testing.T) {
	router := authTestRouter("secret-key")

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"correct key", "Bearer secret-key", http.StatusOK},
		{"lowercase scheme", "bearer secret-key", http.StatusOK},
		{"wrong key", "Bearer wrong", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret-key", http.StatusUnauthorized},
		{"bare token", "secret-key", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, getWithAuth(router, tc.header).Code)
		})
	}
}

// TestAPIKeyAuth_DisabledWithoutKey verifies local-development mode.
func TestAPIKeyAuth_DisabledWithoutKey(t *testing.T) {
	router := authTestRouter("")
	assert.Equal(t, http.StatusOK, getWithAuth(router, "").Code)
}
