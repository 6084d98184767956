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
	"log/slog"
	"strings"
	"time"

	"github.com/AleutianAI/colreg-assistant/services/llm"
	"go.opentelemetry.io/otel/attribute"
)

const (
	classifierMaxTokens = 10
	classifierTimeout   = 10 * time.Second
)

// Classifier decides whether a query belongs to the maritime domain.
//
// The check fails open: if the backing model errors or answers with
// anything other than an explicit INVALID verdict, the query proceeds.
// A flaky classifier must degrade to extra answered questions, never to
// refused legitimate ones.
type Classifier struct {
	client llm.LLMClient
}

func NewClassifier(client llm.LLMClient) *Classifier {
	if client == nil {
		panic("workflow: classifier client must not be nil")
	}
	return &Classifier{client: client}
}

// Classify reports whether the query should be answered.
func (c *Classifier) Classify(ctx context.Context, query string) bool {
	ctx, span := tracer.Start(ctx, "Classifier.Classify")
	defer span.End()

	// A stalled classifier must not stall the whole request.
	ctx, cancel := context.WithTimeout(ctx, classifierTimeout)
	defer cancel()

	maxTokens := classifierMaxTokens
	result, err := c.client.Generate(ctx, fmt.Sprintf(classifierPrompt, query),
		llm.GenerationParams{MaxTokens: &maxTokens})
	if err != nil {
		span.RecordError(err)
		slog.Warn("Query classification failed, allowing query through", "error", err)
		return true
	}

	verdict := strings.ToUpper(strings.TrimSpace(result))
	valid := !strings.Contains(verdict, "INVALID")
	span.SetAttributes(attribute.Bool("classifier.valid", valid))
	slog.Debug("Classified query", "verdict", verdict, "valid", valid)
	return valid
}
