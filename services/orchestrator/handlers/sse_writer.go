// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/AleutianAI/colreg-assistant/services/orchestrator/datatypes"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// SSEWriter writes chat stream events in SSE wire format
// (event: type\ndata: json\n\n), flushing after each event.
//
// # Description
//
// Each event is assigned a UUID, a Unix-millisecond timestamp, a SHA-256
// content hash, and the hash of the previous event, forming an integrity
// chain across the whole stream. Keepalive comments are outside the
// chain.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use: the heartbeat
// goroutine and the pipeline goroutine write to the same stream.
type SSEWriter interface {
	// WriteMessage writes one message event carrying answer text.
	WriteMessage(content string) error

	// WriteVisual writes a visual event carrying a resolved catalog
	// record. The payload must be JSON-serializable.
	WriteVisual(payload any) error

	// WriteMetadata writes a metadata event (routing info, suggestions).
	WriteMetadata(payload any) error

	// WriteError writes an error event. The message must already be
	// sanitized; internal details never reach the client.
	WriteError(errMsg string) error

	// WriteDone writes the terminal done event with the session ID.
	WriteDone(sessionID string) error

	// WriteKeepAlive sends a ": ping" comment to hold the connection
	// open through load balancer idle timeouts.
	WriteKeepAlive() error
}

// =============================================================================
// Implementation
// =============================================================================

// Compile-time interface check.
var _ SSEWriter = (*sseWriter)(nil)

type sseWriter struct {
	writer   http.ResponseWriter
	flusher  http.Flusher
	prevHash string
	mu       sync.Mutex
}

// NewSSEWriter wraps a ResponseWriter for SSE output. The caller must
// have applied SetSSEHeaders first. Fails if the writer cannot flush.
func NewSSEWriter(w http.ResponseWriter) (SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("ResponseWriter does not support http.Flusher")
	}
	return &sseWriter{writer: w, flusher: flusher}, nil
}

func (w *sseWriter) writeEvent(event datatypes.StreamEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	event.Id = uuid.New().String()
	event.CreatedAt = time.Now().UnixMilli()
	event.PrevHash = w.prevHash
	event.Hash = computeEventHash(event)
	w.prevHash = event.Hash

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w.writer, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// computeEventHash hashes all content fields. Called before the Hash
// field is set.
func computeEventHash(event datatypes.StreamEvent) string {
	hashInput := fmt.Sprintf("%s|%s|%d|%s|%s|%s|%s|%s|%s",
		event.Id,
		event.Type,
		event.CreatedAt,
		event.PrevHash,
		event.Content,
		string(event.Visual),
		string(event.Metadata),
		event.Error,
		event.SessionId,
	)
	hash := sha256.Sum256([]byte(hashInput))
	return hex.EncodeToString(hash[:])
}

func (w *sseWriter) WriteMessage(content string) error {
	return w.writeEvent(datatypes.StreamEvent{
		Type:    datatypes.EventMessage,
		Content: content,
	})
}

func (w *sseWriter) WriteVisual(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal visual payload: %w", err)
	}
	return w.writeEvent(datatypes.StreamEvent{
		Type:   datatypes.EventVisual,
		Visual: data,
	})
}

func (w *sseWriter) WriteMetadata(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal metadata payload: %w", err)
	}
	return w.writeEvent(datatypes.StreamEvent{
		Type:     datatypes.EventMetadata,
		Metadata: data,
	})
}

func (w *sseWriter) WriteError(errMsg string) error {
	return w.writeEvent(datatypes.StreamEvent{
		Type:  datatypes.EventError,
		Error: errMsg,
	})
}

func (w *sseWriter) WriteDone(sessionID string) error {
	return w.writeEvent(datatypes.StreamEvent{
		Type:      datatypes.EventDone,
		SessionId: sessionID,
	})
}

func (w *sseWriter) WriteKeepAlive() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprintf(w.writer, ": ping\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// SetSSEHeaders configures the response for SSE streaming. Must run
// before the first body write.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}
