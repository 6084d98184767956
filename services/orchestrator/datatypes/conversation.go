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

// ConversationClass is the Weaviate class holding persisted turns.
const ConversationClass = "Conversation"

// Turn kinds. Refusal turns are stored for audit but filtered out of the
// history handed to the LLM, so refusal boilerplate never pollutes context.
const (
	TurnKindExchange = "exchange"
	TurnKindRefusal  = "refusal"
	TurnKindPartial  = "partial"
)

// ConversationTurn is one role-tagged message loaded from the history
// store. Timestamp is Unix milliseconds, used only for ordering.
type ConversationTurn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Kind      string `json:"kind"`
	Timestamp int64  `json:"timestamp"`
}

type ConversationProperties struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Kind      string `json:"kind"`
	Timestamp int64  `json:"timestamp"`
}

func (p *ConversationProperties) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"session_id": p.SessionID,
		"role":       p.Role,
		"content":    p.Content,
		"kind":       p.Kind,
		"timestamp":  p.Timestamp,
	}
}

// ConversationQueryResponse represents the response from querying the
// Conversation class.
type ConversationQueryResponse struct {
	Get struct {
		Conversation []ConversationResult `json:"Conversation"`
	} `json:"Get"`
}

// ConversationResult represents a single conversation turn from a query.
type ConversationResult struct {
	SessionID  string `json:"session_id"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	Kind       string `json:"kind"`
	Timestamp  int64  `json:"timestamp"`
	Additional struct {
		ID string `json:"id"`
	} `json:"_additional"`
}
