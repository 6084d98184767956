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
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/rules"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/visuals"
)

// MatchedRule is the client-facing summary of one rule routed into the
// generation context. Full normative text stays server-side.
type MatchedRule struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Part    string `json:"part"`
	Section string `json:"section,omitempty"`
	Summary string `json:"summary"`
}

// RouteMetadata is emitted once per request, before the first generation
// token, so clients can render routing info while tokens stream.
type RouteMetadata struct {
	SessionID        string        `json:"session_id"`
	QueryType        string        `json:"query_type"`
	ExtractionMethod string        `json:"extraction_method"`
	IncludeGeneral   bool          `json:"include_general"`
	RetrievalUsed    bool          `json:"retrieval_used"`
	Rules            []MatchedRule `json:"rules"`
}

// AdditionalRulesMetadata is emitted after generation when the response
// cites rules beyond the routed set, so clients can link every citation.
type AdditionalRulesMetadata struct {
	Rules []MatchedRule `json:"additional_rules"`
}

// SuggestionsMetadata is emitted after generation completes. Best-effort:
// an empty list is a valid outcome.
type SuggestionsMetadata struct {
	Suggestions []string `json:"suggestions"`
}

// Emitter delivers pipeline output to the client. The SSE handler is the
// production implementation; tests supply in-memory collectors.
//
// A non-nil error from any method means the client is gone; the pipeline
// stops generating and persists what was delivered as a partial turn.
type Emitter interface {
	Text(text string) error
	Visual(record visuals.Record) error
	Metadata(payload any) error
}

func matchedRule(r rules.Record) MatchedRule {
	return MatchedRule{
		ID:      r.ID,
		Title:   r.Title,
		Part:    r.Part,
		Section: r.Section,
		Summary: r.Summary,
	}
}
