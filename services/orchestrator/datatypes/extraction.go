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

import (
	"encoding/json"
	"fmt"
)

// Query types produced by rule extraction.
const (
	QueryTypeSpecific   = "specific"
	QueryTypeGeneral    = "general"
	QueryTypeComparison = "comparison"
	QueryTypeScenario   = "scenario"
)

// Extraction methods reported in metadata.
const (
	ExtractionMethodLLM      = "llm"
	ExtractionMethodFallback = "fallback"
)

// RuleExtraction is the structured output of the rule extraction step.
//
// # Description
//
// Produced per request and discarded afterwards. Rules may reference
// identifiers that do not exist in the catalog; resolving and dropping
// unknown ids is the context compiler's job, not the extractor's.
//
// # Fields
//
//   - QueryType: One of specific, general, comparison, scenario.
//   - Rules: Ordered rule identifiers (e.g. "rule_14", "annex_i").
//   - IncludeGeneral: Whether to prepend the COLREG overview block.
//   - Reasoning: The model's short justification, kept for tracing only.
type RuleExtraction struct {
	QueryType      string   `json:"query_type"`
	Rules          []string `json:"rules"`
	IncludeGeneral bool     `json:"include_general"`
	Reasoning      string   `json:"reasoning"`
}

// Validate checks the shape of a parsed extraction. Schema-constrained
// decoding should already enforce this; a violation counts against the
// extractor's retry budget.
func (e *RuleExtraction) Validate() error {
	switch e.QueryType {
	case QueryTypeSpecific, QueryTypeGeneral, QueryTypeComparison, QueryTypeScenario:
	default:
		return fmt.Errorf("invalid query_type %q", e.QueryType)
	}
	if e.Rules == nil {
		return fmt.Errorf("rules list missing")
	}
	return nil
}

// RuleExtractionSchema is the JSON schema sent with structured extraction
// requests.
var RuleExtractionSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "query_type": {
      "type": "string",
      "enum": ["specific", "general", "comparison", "scenario"]
    },
    "rules": {
      "type": "array",
      "items": {"type": "string"}
    },
    "include_general": {"type": "boolean"},
    "reasoning": {"type": "string"}
  },
  "required": ["query_type", "rules", "include_general", "reasoning"],
  "additionalProperties": false
}`)

// SuggestedQuestions is the structured output of the follow-up suggestion
// step: at most three brief questions (ten words or fewer each).
type SuggestedQuestions struct {
	Questions []string `json:"questions"`
}

// Clamp truncates the list to three entries and drops empties.
func (s *SuggestedQuestions) Clamp() {
	out := s.Questions[:0]
	for _, q := range s.Questions {
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == 3 {
			break
		}
	}
	s.Questions = out
}

// SuggestedQuestionsSchema is the JSON schema sent with suggestion
// requests.
var SuggestedQuestionsSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "questions": {
      "type": "array",
      "items": {"type": "string"},
      "maxItems": 3
    }
  },
  "required": ["questions"],
  "additionalProperties": false
}`)
