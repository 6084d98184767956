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
	"strings"
	"testing"

	"github.com/AleutianAI/colreg-assistant/services/orchestrator/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadRules(t *testing.T) *rules.Catalog {
	t.Helper()
	catalog, err := rules.Load()
	require.NoError(t, err)
	return catalog
}

// TestMergeRuleIDs_OrderedUnion verifies extraction order wins and
// retrieval appends only what is new.
func TestMergeRuleIDs_OrderedUnion(t *testing.T) {
	merged := MergeRuleIDs(
		[]string{"rule_15", "rule_16", "rule_17"},
		[]string{"rule_16", "rule_7", "rule_15", "rule_8"})
	assert.Equal(t, []string{"rule_15", "rule_16", "rule_17", "rule_7", "rule_8"}, merged)
}

// TestMergeRuleIDs_Normalizes verifies case and whitespace noise from
// model output collapses to canonical ids.
func TestMergeRuleIDs_Normalizes(t *testing.T) {
	merged := MergeRuleIDs([]string{" Rule_14 ", "RULE_14", ""}, nil)
	assert.Equal(t, []string{"rule_14"}, merged)
}

// TestMergeRuleIDs_Idempotent verifies merging a merged list changes
// nothing.
func TestMergeRuleIDs_Idempotent(t *testing.T) {
	once := MergeRuleIDs([]string{"rule_5", "rule_6"}, []string{"rule_6", "annex_iv"})
	twice := MergeRuleIDs(once, once)
	assert.Equal(t, once, twice)
}

// TestCompileContext_HeadingFormat verifies each block renders as
// "## {title} ({Rule N})" over the normative content.
func TestCompileContext_HeadingFormat(t *testing.T) {
	catalog := loadRules(t)
	text, resolved := CompileContext(catalog, []string{"rule_14"}, false)

	require.Len(t, resolved, 1)
	record := resolved[0]
	assert.True(t, strings.HasPrefix(text, "## "+record.Title+" (Rule 14)\n"))
	assert.Contains(t, text, record.Content)
}

// TestCompileContext_UnknownIDsDropped verifies hallucinated ids never
// reach the prompt or the resolved rule list.
func TestCompileContext_UnknownIDsDropped(t *testing.T) {
	catalog := loadRules(t)
	text, resolved := CompileContext(catalog, []string{"rule_99", "rule_15", "annex_ix"}, false)

	require.Len(t, resolved, 1)
	assert.Equal(t, "rule_15", resolved[0].ID)
	assert.NotContains(t, text, "rule_99")
	assert.NotContains(t, text, "annex_ix")
}

// TestCompileContext_GeneralPrepended verifies the overview block leads
// when requested.
func TestCompileContext_GeneralPrepended(t *testing.T) {
	catalog := loadRules(t)
	text, _ := CompileContext(catalog, []string{"rule_5"}, true)

	assert.True(t, strings.HasPrefix(text, "## COLREG Overview\n"))
	assert.Contains(t, text, "\n\n---\n\n")
}

// TestCompileContext_EmptyFallsBackToOverview verifies generation always
// gets grounding even when nothing resolves.
func TestCompileContext_EmptyFallsBackToOverview(t *testing.T) {
	catalog := loadRules(t)
	text, resolved := CompileContext(catalog, []string{"bogus"}, false)

	assert.Empty(t, resolved)
	assert.True(t, strings.HasPrefix(text, "## COLREG Overview\n"))
}

// TestAdditionalRules_FindsUncitedRules verifies rule numbers cited in
// the response beyond the routed set resolve in first-mention order.
func TestAdditionalRules_FindsUncitedRules(t *testing.T) {
	catalog := loadRules(t)
	_, routed := CompileContext(catalog, []string{"rule_15", "rule_16"}, false)

	extra := AdditionalRules(catalog,
		"Under Rule 15 you give way; also see rule 8 and Rule 7 on avoiding action.", routed)

	ids := make([]string, 0, len(extra))
	for _, r := range extra {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"rule_8", "rule_7"}, ids)
}

// TestAdditionalRules_IgnoresRoutedAndUnknown verifies already-routed
// citations, repeats, and numbers without a catalog entry are dropped.
func TestAdditionalRules_IgnoresRoutedAndUnknown(t *testing.T) {
	catalog := loadRules(t)
	_, routed := CompileContext(catalog, []string{"rule_15"}, false)

	extra := AdditionalRules(catalog,
		"Rule 15 applies. Rule 99 does not exist. Rule 5, again Rule 5.", routed)

	require.Len(t, extra, 1)
	assert.Equal(t, "rule_5", extra[0].ID)
}

// TestAdditionalRules_NoCitations verifies a citation-free answer yields
// nothing to emit.
func TestAdditionalRules_NoCitations(t *testing.T) {
	catalog := loadRules(t)
	extra := AdditionalRules(catalog, "Keep a proper lookout at all times.", nil)
	assert.Empty(t, extra)
}

// TestCompileContext_PreservesOrder verifies blocks follow the merged id
// order, not catalog order.
func TestCompileContext_PreservesOrder(t *testing.T) {
	catalog := loadRules(t)
	text, resolved := CompileContext(catalog, []string{"rule_17", "rule_15"}, false)

	require.Len(t, resolved, 2)
	assert.Equal(t, "rule_17", resolved[0].ID)
	assert.Equal(t, "rule_15", resolved[1].ID)
	assert.Less(t, strings.Index(text, "(Rule 17)"), strings.Index(text, "(Rule 15)"))
}
