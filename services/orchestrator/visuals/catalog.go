// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package visuals holds the catalog of renderable diagrams and signal
// descriptors the model can reference through inline markers.
//
// Identifiers are "<namespace>:<key>" (e.g. "vessel-lights:power-driven")
// and match the frontend component configs directly, so a resolved entry
// streams to the client without further translation. The catalog is
// embedded YAML, loaded once, immutable afterwards.
package visuals

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed visuals.yaml
var catalogYAML []byte

// Record is one immutable visual catalog entry.
//
// # Fields
//
//   - ID: "<namespace>:<key>", lower-case canonical form.
//   - Type: Render family (vessel-lights, day-shapes, sound-signal,
//     morse-signal).
//   - Data: Component config handed to the frontend verbatim.
//   - Caption: Short human caption shown under the rendered visual.
//   - UseWhen: Guidance line included in the system prompt reference.
//   - Rule: The COLREG rule the visual illustrates, informational only.
type Record struct {
	ID      string         `yaml:"id" json:"id"`
	Type    string         `yaml:"type" json:"type"`
	Data    map[string]any `yaml:"data" json:"data"`
	Caption string         `yaml:"caption" json:"caption"`
	UseWhen string         `yaml:"use_when" json:"-"`
	Rule    string         `yaml:"rule" json:"rule,omitempty"`
}

// Catalog is the process-wide, read-only visual table.
type Catalog struct {
	records []Record
	byID    map[string]int
}

type catalogFile struct {
	Visuals []Record `yaml:"visuals"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse embedded visual catalog: %w", err)
	}
	if len(file.Visuals) == 0 {
		return nil, fmt.Errorf("embedded visual catalog is empty")
	}
	byID := make(map[string]int, len(file.Visuals))
	for i, v := range file.Visuals {
		key := strings.ToLower(v.ID)
		if _, dup := byID[key]; dup {
			return nil, fmt.Errorf("duplicate visual id %q in catalog", v.ID)
		}
		byID[key] = i
	}
	return &Catalog{records: file.Visuals, byID: byID}, nil
}

// Get resolves a marker identifier case-insensitively. Unknown ids return
// ok=false; the stream parser degrades them to literal text.
func (c *Catalog) Get(id string) (Record, bool) {
	i, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// All returns the records in catalog order. The returned slice is shared;
// callers must not modify it.
func (c *Catalog) All() []Record {
	return c.records
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Reference renders the compact grouped listing embedded in the system
// prompt so the model knows which marker ids exist.
func (c *Catalog) Reference() string {
	var b strings.Builder
	currentType := ""
	for _, v := range c.records {
		if v.Type != currentType {
			currentType = v.Type
			fmt.Fprintf(&b, "\n**%s:**\n", titleCase(v.Type))
		}
		fmt.Fprintf(&b, "- `%s` - %s\n", v.ID, v.UseWhen)
	}
	return strings.TrimRight(b.String(), "\n")
}

// titleCase renders a hyphenated type id as a heading, e.g.
// "vessel-lights" -> "Vessel Lights".
func titleCase(s string) string {
	words := strings.Split(s, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
