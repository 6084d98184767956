// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rules holds the curated COLREG rule corpus.
//
// # Description
//
// The catalog is embedded YAML parsed once at load into immutable typed
// records: all 35 rules plus Annexes I-IV, each with title, part, optional
// section, summary, full normative content, and the keyword list used by
// the deterministic fallback matcher. Identifiers ("rule_14", "annex_i")
// are globally unique; the catalog is never mutated after Load.
//
// # Thread Safety
//
// A loaded Catalog is read-only and safe for concurrent use.
package rules

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var catalogYAML []byte

// General holds the overview blocks prepended to prompts when a query
// warrants a whole-regulation introduction.
type General struct {
	Overview  string `yaml:"overview"`
	Structure string `yaml:"structure"`
	Hierarchy string `yaml:"hierarchy"`
}

// Record is one immutable catalog entry.
//
// # Fields
//
//   - ID: Unique identifier, e.g. "rule_14" or "annex_i".
//   - Title: Human title, e.g. "Head-on Situation".
//   - Part: "A" through "E", or "Annex".
//   - Section: Optional Part B section ("I", "II", "III").
//   - Summary: One-paragraph description, used in fallback scoring context.
//   - Content: Full normative text with (a), (b), ... subsections.
//   - Keywords: Fallback matcher inputs.
//   - VisibleInPrompt: Records with false contribute metadata but never
//     prompt text.
type Record struct {
	ID              string   `yaml:"id"`
	Title           string   `yaml:"title"`
	Part            string   `yaml:"part"`
	Section         string   `yaml:"section"`
	Summary         string   `yaml:"summary"`
	Content         string   `yaml:"content"`
	Keywords        []string `yaml:"keywords"`
	VisibleInPrompt bool     `yaml:"visible_in_prompt"`
}

// DisplayName renders the reference used in compiled context headings,
// e.g. "Rule 14" or "Annex I".
func (r Record) DisplayName() string {
	id := r.ID
	switch {
	case strings.HasPrefix(id, "rule_"):
		return "Rule " + strings.TrimPrefix(id, "rule_")
	case strings.HasPrefix(id, "annex_"):
		return "Annex " + strings.ToUpper(strings.TrimPrefix(id, "annex_"))
	default:
		return id
	}
}

// Catalog is the process-wide, read-only rule table.
type Catalog struct {
	general General
	records []Record
	byID    map[string]int
}

type catalogFile struct {
	General General  `yaml:"general"`
	Rules   []Record `yaml:"rules"`
}

// Load parses the embedded catalog. Call once at startup and share the
// result; loading cannot fail at runtime unless the embedded data was
// corrupted at build time.
func Load() (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse embedded rule catalog: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("embedded rule catalog is empty")
	}

	byID := make(map[string]int, len(file.Rules))
	for i, r := range file.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule catalog entry %d has no id", i)
		}
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q in catalog", r.ID)
		}
		byID[r.ID] = i
	}
	return &Catalog{general: file.General, records: file.Rules, byID: byID}, nil
}

// Get resolves an identifier case-insensitively. The second return is
// false for unknown ids; callers decide how to degrade.
func (c *Catalog) Get(id string) (Record, bool) {
	i, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// ByNumber resolves "rule_N".
func (c *Catalog) ByNumber(n int) (Record, bool) {
	return c.Get(fmt.Sprintf("rule_%d", n))
}

var romanNumerals = map[int]string{1: "i", 2: "ii", 3: "iii", 4: "iv"}

// AnnexByNumber resolves "annex_<roman>" for annexes 1-4.
func (c *Catalog) AnnexByNumber(n int) (Record, bool) {
	roman, ok := romanNumerals[n]
	if !ok {
		return Record{}, false
	}
	return c.Get("annex_" + roman)
}

// All returns the records in catalog order. The returned slice is shared;
// callers must not modify it.
func (c *Catalog) All() []Record {
	return c.records
}

// General returns the overview blocks.
func (c *Catalog) General() General {
	return c.general
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.records)
}
