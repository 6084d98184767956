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
	"log/slog"
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

const (
	// DefaultFallbackTopK bounds how many rules keyword matching returns.
	DefaultFallbackTopK = 5

	// fallbackScoreThreshold is the minimum accepted score on the 0-100
	// fuzzy-ratio scale. Entries at or below it are discarded.
	fallbackScoreThreshold = 40.0

	keywordWeight = 0.6
	titleWeight   = 0.4
)

// FallbackMatch is one scored catalog entry from keyword extraction.
type FallbackMatch struct {
	RuleID string
	Score  float64
}

// FallbackExtract scores every catalog entry against the query with
// fuzzy partial-ratio matching and returns the top-K rule ids above the
// acceptance threshold, ranked by descending score.
//
// # Description
//
// This is the deterministic degradation path used when structured LLM
// extraction exhausts its retry budget. Score per entry:
//
//	0.6 * mean(PartialRatio(query, keyword)) + 0.4 * PartialRatio(query, title)
//
// Ties keep catalog order, so repeated calls with the same catalog and
// query always produce identical output. No I/O, fully unit-testable.
//
// # Outputs
//
//   - []string: Ranked rule ids, at most topK entries, possibly empty.
//   - bool: include_general, always true in fallback mode (cheap to
//     include, expensive to omit).
func (c *Catalog) FallbackExtract(query string, topK int) ([]string, bool) {
	if topK <= 0 {
		topK = DefaultFallbackTopK
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, true
	}

	matches := make([]FallbackMatch, 0, len(c.records))
	for _, rec := range c.records {
		score := fallbackScore(q, rec)
		if score > fallbackScoreThreshold {
			matches = append(matches, FallbackMatch{RuleID: rec.ID, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.RuleID)
	}
	slog.Debug("Keyword fallback extraction complete", "query_len", len(query), "matched", len(ids))
	return ids, true
}

func fallbackScore(query string, rec Record) float64 {
	var keywordScore float64
	if len(rec.Keywords) > 0 {
		var sum float64
		for _, kw := range rec.Keywords {
			sum += float64(fuzzy.PartialRatio(query, strings.ToLower(kw)))
		}
		keywordScore = sum / float64(len(rec.Keywords))
	}
	titleScore := float64(fuzzy.PartialRatio(query, strings.ToLower(rec.Title)))
	return keywordWeight*keywordScore + titleWeight*titleScore
}
