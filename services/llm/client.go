// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm abstracts the LLM providers used by the orchestrator.
//
// Two backends are supported, selected by LLM_BACKEND_TYPE: "openai"
// (hosted, via the official REST API) and "ollama" (local). Both expose
// the same four operations: plain generation, chat over message history,
// token streaming, and schema-constrained structured output.
package llm

import (
	"context"
	"encoding/json"

	"github.com/AleutianAI/colreg-assistant/services/orchestrator/datatypes"
)

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// StructuredSchema constrains a completion to a fixed JSON schema.
//
// Name is the schema identifier sent to the provider; Schema is the raw
// JSON Schema document. OpenAI receives it in strict json_schema mode,
// Ollama through its "format" field.
type StructuredSchema struct {
	Name   string
	Schema json.RawMessage
}

// StreamEventType distinguishes the kinds of events a streaming
// completion can emit.
type StreamEventType string

const (
	StreamEventToken    StreamEventType = "token"
	StreamEventThinking StreamEventType = "thinking"
	StreamEventError    StreamEventType = "error"
)

// StreamEvent is one unit of a streaming completion.
type StreamEvent struct {
	Type    StreamEventType
	Content string
	Error   error
}

// StreamCallback receives streaming events in emission order. Returning
// a non-nil error aborts the stream.
type StreamCallback func(event StreamEvent) error

// LLMClient defines the standard interface for any LLM backend.
//
// # Description
//
// All methods are blocking and honor context cancellation. Streaming
// delivery happens through the callback on the caller's goroutine.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type LLMClient interface {
	// Generate produces text from a single prompt.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// Chat conducts a conversation over ordered message history.
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)

	// ChatStream streams a conversation response token-by-token through
	// the callback. The returned error is the terminal stream status.
	ChatStream(ctx context.Context, messages []datatypes.Message,
		params GenerationParams, callback StreamCallback) error

	// GenerateStructured produces output constrained to the given JSON
	// schema and returns the raw JSON text. Callers own unmarshalling
	// and validation of the result.
	GenerateStructured(ctx context.Context, prompt string, schema StructuredSchema,
		params GenerationParams) (string, error)
}
