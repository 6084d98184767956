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
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/AleutianAI/colreg-assistant/services/orchestrator/rules"
)

const contextBlockSeparator = "\n\n---\n\n"

// ruleMentionPattern matches prose citations like "Rule 14" in generated
// responses.
var ruleMentionPattern = regexp.MustCompile(`(?i)\brule\s+(\d{1,2})\b`)

// MergeRuleIDs unions two ranked id lists, primary order first, duplicates
// dropped on later occurrence. Used to combine LLM extraction with
// semantic retrieval results.
func MergeRuleIDs(primary, secondary []string) []string {
	merged := make([]string, 0, len(primary)+len(secondary))
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	for _, ids := range [][]string{primary, secondary} {
		for _, id := range ids {
			id = strings.ToLower(strings.TrimSpace(id))
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}

// CompileContext renders the rule context injected into the system
// prompt and returns the catalog records that resolved, in order.
//
// Identifiers missing from the catalog are dropped with a warning; they
// come from model output and are expected occasionally. Records flagged
// not visible in prompts resolve for metadata but contribute no text.
// If nothing resolves and the overview was not requested, the overview
// is used anyway so generation always has grounding.
func CompileContext(catalog *rules.Catalog, ids []string, includeGeneral bool) (string, []rules.Record) {
	var blocks []string
	resolved := make([]rules.Record, 0, len(ids))

	for _, id := range ids {
		record, ok := catalog.Get(id)
		if !ok {
			slog.Warn("Dropping unknown rule id from compiled context", "rule_id", id)
			continue
		}
		resolved = append(resolved, record)
		if !record.VisibleInPrompt {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("## %s (%s)\n%s",
			record.Title, record.DisplayName(), record.Content))
	}

	if includeGeneral || len(blocks) == 0 {
		overview := fmt.Sprintf("## COLREG Overview\n%s", catalog.General().Overview)
		blocks = append([]string{overview}, blocks...)
	}

	slog.Debug("Compiled rule context",
		"requested", len(ids), "resolved", len(resolved), "blocks", len(blocks))
	return strings.Join(blocks, contextBlockSeparator), resolved
}

// AdditionalRules scans a completed response for rule citations beyond
// the routed set, in first-mention order. The model is instructed to
// cite rule numbers, so answers regularly reference rules the router
// never selected; surfacing them lets clients link every citation.
// Numbers with no catalog entry are ignored.
func AdditionalRules(catalog *rules.Catalog, responseText string, routed []rules.Record) []rules.Record {
	seen := make(map[string]struct{}, len(routed))
	for _, r := range routed {
		seen[r.ID] = struct{}{}
	}

	var extra []rules.Record
	for _, match := range ruleMentionPattern.FindAllStringSubmatch(responseText, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		record, ok := catalog.ByNumber(n)
		if !ok {
			continue
		}
		if _, dup := seen[record.ID]; dup {
			continue
		}
		seen[record.ID] = struct{}{}
		extra = append(extra, record)
	}
	return extra
}
