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

// TestClassifier_Verdicts covers the verdict parsing, including sloppy
// model output around the keyword.
func TestClassifier_Verdicts(t *testing.T) {
	tests := []struct {
		name   string
		result string
		valid  bool
	}{
		{"plain valid", "VALID", true},
		{"plain invalid", "INVALID", false},
		{"lowercase invalid", "invalid", false},
		{"invalid in sentence", "The query is INVALID.", false},
		{"whitespace valid", "  VALID \n", true},
		{"unexpected chatter", "Sure! This looks fine to me.", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClassifier(&mockLLM{generateResult: tc.result})
			assert.Equal(t, tc.valid, c.Classify(context.Background(), "query"))
		})
	}
}

// TestClassifier_FailsOpen verifies a broken classifier model lets the
// query through rather than refusing it.
func TestClassifier_FailsOpen(t *testing.T) {
	c := NewClassifier(&mockLLM{generateErr: fmt.Errorf("model unavailable")})
	assert.True(t, c.Classify(context.Background(), "who gives way in a crossing?"))
}

// TestClassifier_BoundsCallDuration verifies the verdict call carries a
// deadline; combined with fail-open, a hung model costs at most the
// timeout before the query proceeds.
func TestClassifier_BoundsCallDuration(t *testing.T) {
	client := &mockLLM{generateResult: "VALID"}
	c := NewClassifier(client)

	c.Classify(context.Background(), "query")
	assert.True(t, client.sawDeadline)
}
