// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "encoding/json"

// SSE event types emitted on /v1/chat.
const (
	EventMessage  = "message"
	EventVisual   = "visual"
	EventMetadata = "metadata"
	EventError    = "error"
	EventDone     = "done"
)

// StreamEvent is the SSE envelope for all chat stream events.
//
// # Description
//
// Every event carries integrity metadata: a UUID, a creation timestamp,
// a SHA-256 hash of its content, and the hash of the previous event.
// The hash chain gives clients chain-of-custody over streamed answers
// and rendered visuals.
//
// # Fields
//
//   - Id: UUID v4, set by the writer.
//   - Type: One of the Event* constants.
//   - CreatedAt: Unix milliseconds, set by the writer.
//   - Hash: SHA-256 over the event content, hex-encoded.
//   - PrevHash: Hash of the previous event; empty on the first event.
//   - Content: Literal answer text (message events).
//   - Visual: Resolved visual record (visual events).
//   - Metadata: Routing or suggestion payload (metadata events).
//   - Error: Sanitized failure description (error events).
//   - SessionId: Session identifier (done events).
type StreamEvent struct {
	Id        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt int64           `json:"created_at"`
	Hash      string          `json:"hash"`
	PrevHash  string          `json:"prev_hash"`
	Content   string          `json:"content,omitempty"`
	Visual    json.RawMessage `json:"visual,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Error     string          `json:"error,omitempty"`
	SessionId string          `json:"session_id,omitempty"`
}
