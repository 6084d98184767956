// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFallbackExtract_Deterministic verifies repeated calls with the same
// catalog and query produce identical ordered output.
func TestFallbackExtract_Deterministic(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	query := "What should I do in a crossing situation with another power vessel?"
	first, gen1 := cat.FallbackExtract(query, DefaultFallbackTopK)
	second, gen2 := cat.FallbackExtract(query, DefaultFallbackTopK)

	assert.Equal(t, first, second)
	assert.True(t, gen1)
	assert.True(t, gen2)
}

// TestFallbackExtract_CrossingSituation verifies the canonical crossing
// query surfaces the crossing and give-way rules.
func TestFallbackExtract_CrossingSituation(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	ids, includeGeneral := cat.FallbackExtract(
		"What should I do in a crossing situation with another power vessel?", 5)

	assert.True(t, includeGeneral)
	assert.NotEmpty(t, ids)
	assert.Contains(t, ids, "rule_15")
}

// TestFallbackExtract_TopKBound verifies the result never exceeds topK.
func TestFallbackExtract_TopKBound(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	ids, _ := cat.FallbackExtract("vessel lights signals fog anchor sailing overtaking", 3)
	assert.LessOrEqual(t, len(ids), 3)
}

// TestFallbackExtract_NoMatch verifies off-domain queries below the
// acceptance threshold yield an empty list, with include_general still
// set (fallback mode is precautionary).
func TestFallbackExtract_NoMatch(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	ids, includeGeneral := cat.FallbackExtract("zzzzqqqq", 5)
	assert.Empty(t, ids)
	assert.True(t, includeGeneral)
}

// TestFallbackExtract_EmptyQuery verifies blank input short-circuits.
func TestFallbackExtract_EmptyQuery(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	ids, includeGeneral := cat.FallbackExtract("   ", 5)
	assert.Empty(t, ids)
	assert.True(t, includeGeneral)
}

// TestFallbackExtract_DefaultTopK verifies a non-positive topK falls back
// to the default bound.
func TestFallbackExtract_DefaultTopK(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	ids, _ := cat.FallbackExtract("lights for fishing vessels and trawlers at night", 0)
	assert.LessOrEqual(t, len(ids), DefaultFallbackTopK)
}
