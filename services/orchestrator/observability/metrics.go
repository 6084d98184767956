// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the chat
// pipeline, exposed on /metrics.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "colreg"
	chatSubsystem    = "chat"
)

// ChatMetrics holds the Prometheus instruments for streaming chat.
// Initialize once at startup via NewChatMetrics.
type ChatMetrics struct {
	// RequestsTotal counts chat requests.
	// Labels: status (success, refused, error, disconnect)
	RequestsTotal *prometheus.CounterVec

	// ExtractionTotal counts rule extraction outcomes.
	// Labels: method (llm, fallback)
	ExtractionTotal *prometheus.CounterVec

	// VisualsEmittedTotal counts resolved visual events delivered.
	VisualsEmittedTotal prometheus.Counter

	// StreamDurationSeconds measures total request duration.
	// Labels: status (success, refused, error, disconnect)
	StreamDurationSeconds *prometheus.HistogramVec

	// ActiveStreams tracks currently open chat streams.
	ActiveStreams prometheus.Gauge
}

// Request status label values.
const (
	StatusSuccess    = "success"
	StatusRefused    = "refused"
	StatusError      = "error"
	StatusDisconnect = "disconnect"
)

// NewChatMetrics registers the chat metrics with the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh
// registry to avoid duplicate registration panics.
func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	factory := promauto.With(reg)
	return &ChatMetrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: chatSubsystem,
			Name:      "requests_total",
			Help:      "Chat requests by terminal status.",
		}, []string{"status"}),

		ExtractionTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: chatSubsystem,
			Name:      "extraction_total",
			Help:      "Rule extraction outcomes by method.",
		}, []string{"method"}),

		VisualsEmittedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: chatSubsystem,
			Name:      "visuals_emitted_total",
			Help:      "Resolved visual events delivered to clients.",
		}),

		StreamDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: chatSubsystem,
			Name:      "stream_duration_seconds",
			Help:      "Total chat stream duration.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"status"}),

		ActiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: chatSubsystem,
			Name:      "active_streams",
			Help:      "Currently open chat streams.",
		}),
	}
}
