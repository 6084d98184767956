// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AleutianAI/colreg-assistant/services/orchestrator/datatypes"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/observability"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/workflow"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

type stubRunner struct{}

func (stubRunner) Run(ctx context.Context, req datatypes.ChatRequest, em workflow.Emitter) error {
	return em.Text("stub answer")
}

func newTestRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	metrics := observability.NewChatMetrics(prometheus.NewRegistry())
	SetupRoutes(router, stubRunner{}, metrics, apiKey, "")
	return router
}

// TestRoutes_OpenEndpoints verifies health and metrics need no auth.
func TestRoutes_OpenEndpoints(t *testing.T) {
	router := newTestRouter("secret")

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

// TestRoutes_ChatRequiresAPIKey verifies /v1 is gated.
func TestRoutes_ChatRequiresAPIKey(t *testing.T) {
	router := newTestRouter("secret")
	body := `{"message":"what is rule 5?"}`

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stub answer")
}
