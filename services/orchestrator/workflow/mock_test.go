// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/AleutianAI/colreg-assistant/services/llm"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/datatypes"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/visuals"
)

// mockLLM is a scriptable LLMClient for pipeline tests.
type mockLLM struct {
	generateResult   string
	generateErr      error
	structuredResult string
	structuredErr    error
	// structuredResults, when set, is consumed one entry per call so
	// retry behavior can be scripted. An empty string entry means error.
	structuredResults []string
	streamFragments   []string
	streamErr         error

	mu              sync.Mutex
	structuredCalls int
	generateCalls   int
	lastPrompt      string
	sawDeadline     bool
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	m.mu.Lock()
	m.generateCalls++
	m.lastPrompt = prompt
	_, m.sawDeadline = ctx.Deadline()
	m.mu.Unlock()
	return m.generateResult, m.generateErr
}

func (m *mockLLM) Chat(ctx context.Context, messages []datatypes.Message, params llm.GenerationParams) (string, error) {
	return m.generateResult, m.generateErr
}

func (m *mockLLM) ChatStream(ctx context.Context, messages []datatypes.Message,
	params llm.GenerationParams, callback llm.StreamCallback) error {

	if m.streamErr != nil {
		return m.streamErr
	}
	for _, fragment := range m.streamFragments {
		if err := callback(llm.StreamEvent{Type: llm.StreamEventToken, Content: fragment}); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockLLM) GenerateStructured(ctx context.Context, prompt string,
	schema llm.StructuredSchema, params llm.GenerationParams) (string, error) {

	m.mu.Lock()
	call := m.structuredCalls
	m.structuredCalls++
	m.lastPrompt = prompt
	_, m.sawDeadline = ctx.Deadline()
	m.mu.Unlock()

	if m.structuredResults != nil {
		if call >= len(m.structuredResults) || m.structuredResults[call] == "" {
			return "", fmt.Errorf("scripted structured failure on call %d", call+1)
		}
		return m.structuredResults[call], nil
	}
	return m.structuredResult, m.structuredErr
}

// capturingLLM records the messages handed to ChatStream before
// streaming fixed fragments.
type capturingLLM struct {
	mockLLM
	fragments []string
	capture   func([]datatypes.Message)
}

func (c *capturingLLM) ChatStream(ctx context.Context, messages []datatypes.Message,
	params llm.GenerationParams, callback llm.StreamCallback) error {

	if c.capture != nil {
		c.capture(messages)
	}
	for _, fragment := range c.fragments {
		if err := callback(llm.StreamEvent{Type: llm.StreamEventToken, Content: fragment}); err != nil {
			return err
		}
	}
	return nil
}

// collectEmitter records everything the pipeline emits, optionally
// failing after a fixed number of text chunks to simulate a disconnect.
type collectEmitter struct {
	texts     []string
	visuals   []visuals.Record
	metadata  []any
	failAfter int // fail on text emit once len(texts) reaches this; 0 disables
}

func (c *collectEmitter) Text(text string) error {
	if c.failAfter > 0 && len(c.texts) >= c.failAfter {
		return fmt.Errorf("client disconnected")
	}
	c.texts = append(c.texts, text)
	return nil
}

func (c *collectEmitter) Visual(record visuals.Record) error {
	c.visuals = append(c.visuals, record)
	return nil
}

func (c *collectEmitter) Metadata(payload any) error {
	c.metadata = append(c.metadata, payload)
	return nil
}

func (c *collectEmitter) fullText() string {
	var out string
	for _, t := range c.texts {
		out += t
	}
	return out
}

// recordStore captures history saves in memory.
type recordStore struct {
	mu    sync.Mutex
	saved []savedTurn
	turns []datatypes.ConversationTurn
}

type savedTurn struct {
	SessionID string
	Role      string
	Content   string
	Kind      string
}

func (s *recordStore) Load(ctx context.Context, sessionID string, limit int) ([]datatypes.ConversationTurn, error) {
	return s.turns, nil
}

func (s *recordStore) Save(ctx context.Context, sessionID, role, content, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, savedTurn{sessionID, role, content, kind})
}

// fixedRetriever returns a constant ranked id list.
type fixedRetriever struct {
	ids []string
}

func (r fixedRetriever) Retrieve(ctx context.Context, query string, topK int) []string {
	return r.ids
}
