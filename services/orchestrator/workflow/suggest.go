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
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/colreg-assistant/services/llm"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/datatypes"
)

const suggestionTimeout = 15 * time.Second

// Suggester proposes follow-up questions after a completed answer. One
// structured attempt, strictly best-effort: any failure yields an empty
// list and the response is already complete by then.
type Suggester struct {
	client llm.LLMClient
}

func NewSuggester(client llm.LLMClient) *Suggester {
	if client == nil {
		panic("workflow: suggester client must not be nil")
	}
	return &Suggester{client: client}
}

// Suggest returns up to three follow-up questions grounded in the
// compiled rule context alongside the question and answer.
func (s *Suggester) Suggest(ctx context.Context, ruleContext, question, answer string) []string {
	ctx, span := tracer.Start(ctx, "Suggester.Suggest")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, suggestionTimeout)
	defer cancel()

	raw, err := s.client.GenerateStructured(ctx,
		fmt.Sprintf(suggestionsPrompt, ruleContext, question, answer),
		llm.StructuredSchema{Name: "suggested_questions", Schema: datatypes.SuggestedQuestionsSchema},
		llm.GenerationParams{})
	if err != nil {
		span.RecordError(err)
		slog.Debug("Follow-up suggestion generation failed", "error", err)
		return nil
	}

	var suggestions datatypes.SuggestedQuestions
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil {
		slog.Debug("Follow-up suggestion output is not valid JSON", "error", err)
		return nil
	}
	suggestions.Clamp()
	return suggestions.Questions
}
