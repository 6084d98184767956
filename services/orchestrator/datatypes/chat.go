// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the orchestrator service.
//
// This file contains the chat request type for the streaming COLREG chat
// endpoint. For rule extraction types, see extraction.go; for persisted
// conversation types, see conversation.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants for Security Compliance
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single message content.
	// Per SEC-003: Unbounded message input mitigation.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxSessionIDLength bounds caller-supplied session identifiers.
	MaxSessionIDLength = 128
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()

	// Register custom validator for message content size (SEC-003)
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes validates that a string field does not exceed
// MaxMessageContentBytes. Checks byte length (not rune count) to prevent
// memory exhaustion with large payloads.
func validateMaxBytes(fl validator.FieldLevel) bool {
	content := fl.Field().String()
	return len(content) <= MaxMessageContentBytes
}

// =============================================================================
// Chat Message Types
// =============================================================================

// Message roles accepted by every LLM backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// =============================================================================
// Chat Request Types
// =============================================================================

// ChatRequest represents the body of POST /v1/chat.
//
// # Description
//
// ChatRequest carries one user question and an optional session identifier.
// When SessionID is empty, EnsureDefaults assigns a timestamp-derived one so
// that a session always exists for history persistence.
//
// # Fields
//
//   - Message: Required. The user's question. Limited to 32KB (SEC-003).
//   - SessionID: Optional. Conversation continuity key, max 128 chars.
//
// # Examples
//
//	req := ChatRequest{
//	    Message:   "Who gives way in a crossing situation?",
//	    SessionID: "bridge-sim-042",
//	}
//
// # Limitations
//
//   - One question per request; history is loaded server-side.
type ChatRequest struct {
	Message   string `json:"message" validate:"required,maxbytes"`
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
}

// Validate checks the request against its validation tags.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// EnsureDefaults fills in a timestamp-derived session ID when the caller
// did not supply one.
func (r *ChatRequest) EnsureDefaults() {
	if r.SessionID == "" {
		r.SessionID = time.Now().UTC().Format("20060102150405")
	}
}

// IngestResponse summarizes an accepted document upload. Heavy processing
// (parsing, chunking, embedding) happens in the ingestion service; this is
// the passthrough summary returned to the caller.
type IngestResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks,omitempty"`
}
