// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the orchestrator's HTTP endpoints.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/colreg-assistant/services/orchestrator/datatypes"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/observability"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/visuals"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/workflow"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("colreg.orchestrator.handlers")

// keepAliveInterval spaces SSE ping comments to stay under common load
// balancer idle timeouts (AWS ALB, Nginx default 60s).
const keepAliveInterval = 15 * time.Second

// ChatRunner is the pipeline surface the handler needs. Satisfied by
// *workflow.Pipeline; tests substitute scripted runners.
type ChatRunner interface {
	Run(ctx context.Context, req datatypes.ChatRequest, em workflow.Emitter) error
}

// sseEmitter adapts an SSEWriter to the pipeline's Emitter, counting
// visuals and extraction outcomes as they pass through.
type sseEmitter struct {
	writer  SSEWriter
	metrics *observability.ChatMetrics
	routed  bool
}

func (e *sseEmitter) Text(text string) error {
	return e.writer.WriteMessage(text)
}

func (e *sseEmitter) Visual(record visuals.Record) error {
	if err := e.writer.WriteVisual(record); err != nil {
		return err
	}
	e.metrics.VisualsEmittedTotal.Inc()
	return nil
}

func (e *sseEmitter) Metadata(payload any) error {
	if route, ok := payload.(workflow.RouteMetadata); ok {
		e.routed = true
		e.metrics.ExtractionTotal.WithLabelValues(route.ExtractionMethod).Inc()
	}
	return e.writer.WriteMetadata(payload)
}

// HandleChatStream serves POST /v1/chat: validates the request, opens an
// SSE stream with heartbeats, and runs the chat pipeline into it.
//
// # Description
//
// The stream always terminates with a done event on success or an error
// event with a sanitized message on failure. Client disconnects cancel
// the request context, which stops generation upstream.
func HandleChatStream(pipeline ChatRunner, metrics *observability.ChatMetrics) gin.HandlerFunc {
	if pipeline == nil {
		panic("handlers: chat pipeline must not be nil")
	}
	if metrics == nil {
		panic("handlers: chat metrics must not be nil")
	}
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleChatStream")
		defer span.End()

		var req datatypes.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.EnsureDefaults()
		span.SetAttributes(attribute.String("session.id", req.SessionID))

		SetSSEHeaders(c.Writer)
		writer, err := NewSSEWriter(c.Writer)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
			return
		}

		metrics.ActiveStreams.Inc()
		defer metrics.ActiveStreams.Dec()
		start := time.Now()

		// Heartbeat keeps intermediaries from dropping the connection
		// while classification and extraction run before first token.
		heartbeatDone := make(chan struct{})
		defer close(heartbeatDone)
		go func() {
			ticker := time.NewTicker(keepAliveInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := writer.WriteKeepAlive(); err != nil {
						return
					}
				case <-heartbeatDone:
					return
				}
			}
		}()

		emitter := &sseEmitter{writer: writer, metrics: metrics}
		runErr := pipeline.Run(ctx, req, emitter)
		status := observability.StatusSuccess
		switch {
		case runErr == nil:
			// A run that never routed is the fixed refusal path.
			if !emitter.routed {
				status = observability.StatusRefused
			}
			if err := writer.WriteDone(req.SessionID); err != nil {
				slog.Debug("Client gone before done event", "session_id", req.SessionID)
			}
		case errors.Is(runErr, context.Canceled):
			status = observability.StatusDisconnect
			slog.Info("Chat stream client disconnected", "session_id", req.SessionID)
		default:
			status = observability.StatusError
			span.RecordError(runErr)
			span.SetStatus(codes.Error, runErr.Error())
			slog.Error("Chat pipeline failed", "session_id", req.SessionID, "error", runErr)
			// SEC-005: internal details stay server-side.
			if err := writer.WriteError("The assistant is temporarily unavailable. Please retry."); err != nil {
				status = observability.StatusDisconnect
			}
		}

		metrics.RequestsTotal.WithLabelValues(status).Inc()
		metrics.StreamDurationSeconds.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}
