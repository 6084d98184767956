// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package streamparse re-segments an LLM token stream into text and
// visual chunks by recognizing inline [[VISUAL:ns:key]] markers.
//
// # Description
//
// Upstream tokens arrive in arbitrary-sized fragments, so a marker's open
// bracket, body, and close bracket may be split across fragments. The
// parser keeps one running buffer: complete markers are resolved against
// the visual catalog, an unterminated trailing "[[" is retained until the
// next fragment, and whatever remains at stream end is flushed as literal
// text so trailing content is never dropped.
//
// Feeding the full marker-laden output as a single fragment produces the
// same chunk sequence as feeding it split at every character boundary.
//
// # Thread Safety
//
// A Parser instance belongs to one request goroutine. Not safe for
// concurrent use.
package streamparse

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/AleutianAI/colreg-assistant/services/orchestrator/visuals"
)

// markerPattern matches [[VISUAL:ns:key]] where ns:key forms the catalog
// id. Case-insensitive; alphanumeric, hyphen, and underscore only.
var markerPattern = regexp.MustCompile(`(?i)\[\[VISUAL:([a-zA-Z0-9\-_]+:[a-zA-Z0-9\-_]+)\]\]`)

// ChunkType distinguishes parsed stream chunks.
type ChunkType string

const (
	ChunkText   ChunkType = "text"
	ChunkVisual ChunkType = "visual"
)

// Chunk is one parsed unit of the generation stream. Text chunks carry
// literal output; visual chunks carry the resolved catalog record.
// Passthrough marks unknown-marker text shown to the client but excluded
// from the canonical response text.
type Chunk struct {
	Type        ChunkType
	Text        string
	Visual      visuals.Record
	Passthrough bool
}

// Resolver resolves marker identifiers. *visuals.Catalog satisfies it.
type Resolver interface {
	Get(id string) (visuals.Record, bool)
}

// Parser consumes raw stream fragments and emits ordered chunks. The
// caller owns the canonical response text: concatenating the text chunks
// it actually delivered, minus pass-throughs, yields persisted history
// with no marker syntax in it.
type Parser struct {
	catalog Resolver
	buffer  string
}

// NewParser builds a parser over the given catalog.
func NewParser(catalog Resolver) *Parser {
	if catalog == nil {
		panic("streamparse: catalog must not be nil")
	}
	return &Parser{catalog: catalog}
}

// Feed appends one fragment and returns every chunk that is complete so
// far, in stream order.
func (p *Parser) Feed(fragment string) []Chunk {
	p.buffer += fragment
	chunks, remaining := p.parseBuffer(p.buffer)
	p.buffer = remaining
	return chunks
}

// Flush drains the buffer at end of stream. An incomplete trailing
// marker surfaces verbatim as text rather than being silently dropped.
func (p *Parser) Flush() []Chunk {
	buffer := p.buffer
	p.buffer = ""
	if buffer == "" {
		return nil
	}

	if strings.Contains(buffer, "[[") && !strings.Contains(buffer, "]]") {
		return []Chunk{{Type: ChunkText, Text: buffer}}
	}

	chunks, leftover := p.parseBuffer(buffer)
	if leftover != "" {
		chunks = append(chunks, Chunk{Type: ChunkText, Text: leftover})
	}
	return chunks
}

// parseBuffer scans for complete markers and returns parsed chunks plus
// the retained tail (an unterminated potential marker, or empty).
func (p *Parser) parseBuffer(buffer string) ([]Chunk, string) {
	var chunks []Chunk

	// A trailing "[[" without a following "]]" may be the prefix of a
	// marker still arriving. Process only up to it. A single trailing "["
	// gets the same treatment: the second bracket may be in the next
	// fragment.
	processable := buffer
	remaining := ""
	if open := strings.LastIndex(buffer, "[["); open != -1 && !strings.Contains(buffer[open:], "]]") {
		processable = buffer[:open]
		remaining = buffer[open:]
	} else if strings.HasSuffix(buffer, "[") && !strings.HasSuffix(buffer, "[[") {
		processable = buffer[:len(buffer)-1]
		remaining = "["
	}
	if processable == "" {
		return chunks, remaining
	}

	lastEnd := 0
	for _, loc := range markerPattern.FindAllStringSubmatchIndex(processable, -1) {
		if loc[0] > lastEnd {
			chunks = append(chunks, Chunk{Type: ChunkText, Text: processable[lastEnd:loc[0]]})
		}

		visualID := strings.ToLower(processable[loc[2]:loc[3]])
		if record, ok := p.catalog.Get(visualID); ok {
			slog.Debug("Parsed visual marker", "visual_id", visualID)
			chunks = append(chunks, Chunk{Type: ChunkVisual, Visual: record})
		} else {
			// Unknown visual id: pass the raw marker through as visible
			// text, but keep it out of the persisted response text.
			slog.Warn("Unknown visual ID in marker", "visual_id", visualID)
			chunks = append(chunks, Chunk{Type: ChunkText, Text: processable[loc[0]:loc[1]], Passthrough: true})
		}
		lastEnd = loc[1]
	}

	if lastEnd < len(processable) {
		chunks = append(chunks, Chunk{Type: ChunkText, Text: processable[lastEnd:]})
	}
	return chunks, remaining
}
