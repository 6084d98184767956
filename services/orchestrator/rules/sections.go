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
	"regexp"
	"strings"
)

// Section is one top-level labelled block of rule content.
type Section struct {
	Label string // "(a)", "(b)", ... or "" for unlabelled content
	Text  string
}

// topLevelMarker matches subsection markers (a)..(z) at the start of the
// content or of a line, excluding the letters i, v, x so that roman
// numeral sub-items like (i), (ii), (v) stay inside their parent section.
var topLevelMarker = regexp.MustCompile(`(?:^|\n)\(([a-hj-uw-z])\)`)

// SplitSections splits rule content into ordered top-level subsections.
//
// # Description
//
// Pure text transform used by ingestion tooling to chunk rule text for
// embedding. Roman-numeral sub-items are kept within their parent
// section. Content without any top-level markers comes back as a single
// unlabelled section; content before the first marker is prepended to
// each section for retrieval context, mirroring how the chunks were
// originally indexed.
func SplitSections(content string) []Section {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return []Section{{Label: "", Text: content}}
	}

	locs := topLevelMarker.FindAllStringSubmatchIndex(trimmed, -1)
	if len(locs) == 0 {
		return []Section{{Label: "", Text: trimmed}}
	}

	intro := strings.TrimSpace(trimmed[:locs[0][0]])

	sections := make([]Section, 0, len(locs))
	for i, loc := range locs {
		label := "(" + trimmed[loc[2]:loc[3]] + ")"
		start := loc[1]
		end := len(trimmed)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(trimmed[start:end])
		if body == "" {
			continue
		}
		text := label + " " + body
		if intro != "" {
			text = intro + "\n\n" + text
		}
		sections = append(sections, Section{Label: label, Text: text})
	}

	if len(sections) == 0 {
		return []Section{{Label: "", Text: trimmed}}
	}
	return sections
}
