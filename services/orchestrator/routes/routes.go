// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes wires the orchestrator's HTTP surface.
package routes

import (
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/handlers"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/middleware"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers all endpoints. Health and metrics are open;
// everything under /v1 requires the API key.
func SetupRoutes(router *gin.Engine, pipeline handlers.ChatRunner,
	metrics *observability.ChatMetrics, apiKey, ingestURL string) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.APIKeyAuth(apiKey))
	{
		v1.POST("/chat", handlers.HandleChatStream(pipeline, metrics))
		v1.POST("/ingest", handlers.HandleIngest(ingestURL))
	}
}
