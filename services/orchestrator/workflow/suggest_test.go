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
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSuggester_ReturnsClampedQuestions verifies overlong lists are cut
// to three and empties are dropped.
func TestSuggester_ReturnsClampedQuestions(t *testing.T) {
	client := &mockLLM{structuredResult: `{"questions":["a?","","b?","c?","d?"]}`}
	s := NewSuggester(client)

	got := s.Suggest(context.Background(), "rule context", "q", "answer")
	assert.Equal(t, []string{"a?", "b?", "c?"}, got)
}

// TestSuggester_BestEffort verifies any failure yields an empty list.
func TestSuggester_BestEffort(t *testing.T) {
	t.Run("model error", func(t *testing.T) {
		s := NewSuggester(&mockLLM{structuredErr: fmt.Errorf("timeout")})
		assert.Empty(t, s.Suggest(context.Background(), "ctx", "q", "a"))
	})
	t.Run("bad json", func(t *testing.T) {
		s := NewSuggester(&mockLLM{structuredResult: "oops"})
		assert.Empty(t, s.Suggest(context.Background(), "ctx", "q", "a"))
	})
}

// TestSuggester_PromptCarriesRuleContext verifies suggestions are grounded
// in the same compiled context the answer was generated from.
func TestSuggester_PromptCarriesRuleContext(t *testing.T) {
	client := &mockLLM{structuredResult: `{"questions":["a?"]}`}
	s := NewSuggester(client)

	s.Suggest(context.Background(), "## Crossing situation (Rule 15)\ntext", "q", "answer")

	assert.Contains(t, client.lastPrompt, "(Rule 15)")
	assert.Contains(t, client.lastPrompt, "q")
	assert.Contains(t, client.lastPrompt, "answer")
}

// TestSuggester_BoundsCallDuration verifies the upstream call carries a
// deadline, so a stalled provider cannot hold the finished stream open.
func TestSuggester_BoundsCallDuration(t *testing.T) {
	client := &mockLLM{structuredResult: `{"questions":["a?"]}`}
	s := NewSuggester(client)

	s.Suggest(context.Background(), "ctx", "q", "a")
	assert.True(t, client.sawDeadline)
}
