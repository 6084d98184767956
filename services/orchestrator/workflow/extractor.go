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
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/rules"
	"go.opentelemetry.io/otel/attribute"
)

const (
	extractionAttempts       = 3
	extractionTemperature    = float32(0.3)
	extractionAttemptTimeout = 20 * time.Second
)

// Extractor maps a query to the rule identifiers that should shape the
// answer. Structured LLM extraction is attempted a fixed number of
// times; if every attempt fails to produce valid JSON, a deterministic
// keyword matcher over the rule catalog takes over, so extraction as a
// whole cannot fail.
type Extractor struct {
	client  llm.LLMClient
	catalog *rules.Catalog
}

func NewExtractor(client llm.LLMClient, catalog *rules.Catalog) *Extractor {
	if client == nil {
		panic("workflow: extractor client must not be nil")
	}
	if catalog == nil {
		panic("workflow: rule catalog must not be nil")
	}
	return &Extractor{client: client, catalog: catalog}
}

// Extract returns the extraction result and the method that produced it
// ("llm" or "fallback").
func (e *Extractor) Extract(ctx context.Context, query string) (datatypes.RuleExtraction, string) {
	ctx, span := tracer.Start(ctx, "Extractor.Extract")
	defer span.End()

	temperature := extractionTemperature
	schema := llm.StructuredSchema{
		Name:   "rule_extraction",
		Schema: datatypes.RuleExtractionSchema,
	}

	for attempt := 1; attempt <= extractionAttempts; attempt++ {
		extraction, err := e.tryStructured(ctx, query, schema, temperature)
		if err != nil {
			span.RecordError(err)
			slog.Warn("Structured rule extraction attempt failed",
				"attempt", attempt, "error", err)
			continue
		}
		span.SetAttributes(
			attribute.Int("extraction.attempt", attempt),
			attribute.Int("extraction.rules", len(extraction.Rules)))
		slog.Debug("Extracted rules via LLM",
			"attempt", attempt, "query_type", extraction.QueryType,
			"rules", extraction.Rules, "include_general", extraction.IncludeGeneral)
		return extraction, datatypes.ExtractionMethodLLM
	}

	slog.Warn("All structured extraction attempts failed, using keyword fallback")
	extraction := e.fallback(query)
	span.SetAttributes(
		attribute.Bool("extraction.fallback", true),
		attribute.Int("extraction.rules", len(extraction.Rules)))
	return extraction, datatypes.ExtractionMethodFallback
}

func (e *Extractor) tryStructured(ctx context.Context, query string,
	schema llm.StructuredSchema, temperature float32) (datatypes.RuleExtraction, error) {

	// Per attempt, so a hung call burns one retry rather than the request.
	ctx, cancel := context.WithTimeout(ctx, extractionAttemptTimeout)
	defer cancel()

	raw, err := e.client.GenerateStructured(ctx, fmt.Sprintf(extractionPrompt, query),
		schema, llm.GenerationParams{Temperature: &temperature})
	if err != nil {
		return datatypes.RuleExtraction{}, fmt.Errorf("structured generation failed: %w", err)
	}

	var extraction datatypes.RuleExtraction
	if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
		return datatypes.RuleExtraction{}, fmt.Errorf("extraction output is not valid JSON: %w", err)
	}
	if err := extraction.Validate(); err != nil {
		return datatypes.RuleExtraction{}, fmt.Errorf("extraction output rejected: %w", err)
	}
	return extraction, nil
}

// fallback scores catalog keywords against the query. It always includes
// the general overview so an empty match set still yields a grounded
// answer.
func (e *Extractor) fallback(query string) datatypes.RuleExtraction {
	ids, includeGeneral := e.catalog.FallbackExtract(query, rules.DefaultFallbackTopK)

	queryType := datatypes.QueryTypeSpecific
	if len(ids) == 0 {
		queryType = datatypes.QueryTypeGeneral
	}
	return datatypes.RuleExtraction{
		QueryType:      queryType,
		Rules:          ids,
		IncludeGeneral: includeGeneral,
		Reasoning:      "keyword similarity fallback",
	}
}
