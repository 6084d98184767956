// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package streamparse

import (
	"strings"
	"testing"

	"github.com/AleutianAI/colreg-assistant/services/orchestrator/visuals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCatalog(t *testing.T) *visuals.Catalog {
	t.Helper()
	cat, err := visuals.Load()
	require.NoError(t, err)
	return cat
}

// collect runs the full parse cycle over the given fragments.
func collect(p *Parser, fragments []string) []Chunk {
	var chunks []Chunk
	for _, f := range fragments {
		chunks = append(chunks, p.Feed(f)...)
	}
	return append(chunks, p.Flush()...)
}

// canonicalText concatenates text the way the pipeline persists it:
// text chunks only, marker pass-throughs excluded.
func canonicalText(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		if c.Type == ChunkText && !c.Passthrough {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// normalize merges adjacent text chunks of the same passthrough flag so
// chunk sequences can be compared independently of how the input was
// fragmented.
func normalize(chunks []Chunk) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if c.Type == ChunkText && len(out) > 0 &&
			out[len(out)-1].Type == ChunkText && out[len(out)-1].Passthrough == c.Passthrough {
			out[len(out)-1].Text += c.Text
			continue
		}
		out = append(out, c)
	}
	return out
}

// TestParser_FragmentationInvariance verifies the central property:
// feeding marker-laden text as one fragment yields the same normalized
// chunk sequence as splitting it at every possible character boundary.
func TestParser_FragmentationInvariance(t *testing.T) {
	cat := loadCatalog(t)
	input := "When at anchor show these lights: [[VISUAL:vessel-lights:anchored]] and by day " +
		"[[VISUAL:day-shapes:anchored]]. An unknown one [[VISUAL:foo:bar]] passes through. " +
		"Literal [[ brackets survive too."

	reference := normalize(collect(NewParser(cat), []string{input}))

	for split := 1; split < len(input); split++ {
		got := normalize(collect(NewParser(cat), []string{input[:split], input[split:]}))
		require.Equal(t, reference, got, "split at byte %d diverged", split)
	}
}

// TestParser_MarkerSplitAfterOpenBracket covers the split exactly between
// "[[" and the rest of the marker.
func TestParser_MarkerSplitAfterOpenBracket(t *testing.T) {
	cat := loadCatalog(t)
	chunks := collect(NewParser(cat), []string{"[[", "VISUAL:vessel-lights:power-driven]]"})

	require.Len(t, chunks, 1)
	assert.Equal(t, ChunkVisual, chunks[0].Type)
	assert.Equal(t, "vessel-lights:power-driven", chunks[0].Visual.ID)
}

// TestParser_MarkerSplitInsideBody covers scenario B from the end-to-end
// suite: the marker split inside the namespace/key body emits exactly one
// visual chunk and no stray partial-bracket text.
func TestParser_MarkerSplitInsideBody(t *testing.T) {
	cat := loadCatalog(t)
	chunks := collect(NewParser(cat), []string{"[[VISUAL:vessel-lights:", "power-driven]]"})

	require.Len(t, chunks, 1)
	assert.Equal(t, ChunkVisual, chunks[0].Type)
	assert.Equal(t, "vessel-lights:power-driven", chunks[0].Visual.ID)
	for _, c := range chunks {
		if c.Type == ChunkText {
			assert.NotContains(t, c.Text, "[[")
		}
	}
}

// TestParser_AdjacentMarkers verifies two back-to-back markers with no
// text between them emit two visual chunks in order.
func TestParser_AdjacentMarkers(t *testing.T) {
	cat := loadCatalog(t)
	chunks := normalize(collect(NewParser(cat),
		[]string{"[[VISUAL:vessel-lights:anchored]][[VISUAL:day-shapes:anchored]]"}))

	require.Len(t, chunks, 2)
	assert.Equal(t, ChunkVisual, chunks[0].Type)
	assert.Equal(t, "vessel-lights:anchored", chunks[0].Visual.ID)
	assert.Equal(t, ChunkVisual, chunks[1].Type)
	assert.Equal(t, "day-shapes:anchored", chunks[1].Visual.ID)
}

// TestParser_UnknownMarkerPassthrough verifies an unrecognized id
// surfaces as literal text (graceful degradation) while staying out of
// the canonical response text.
func TestParser_UnknownMarkerPassthrough(t *testing.T) {
	cat := loadCatalog(t)
	chunks := normalize(collect(NewParser(cat), []string{"see [[VISUAL:nope:missing]] here"}))

	require.Len(t, chunks, 3)
	assert.Equal(t, "see ", chunks[0].Text)
	assert.Equal(t, "[[VISUAL:nope:missing]]", chunks[1].Text)
	assert.True(t, chunks[1].Passthrough)
	assert.Equal(t, " here", chunks[2].Text)

	assert.Equal(t, "see  here", canonicalText(chunks))
}

// TestParser_CaseInsensitiveMarker verifies marker syntax and catalog
// lookup both tolerate arbitrary case.
func TestParser_CaseInsensitiveMarker(t *testing.T) {
	cat := loadCatalog(t)
	chunks := collect(NewParser(cat), []string{"[[visual:MORSE-SIGNAL:u]]"})

	require.Len(t, chunks, 1)
	assert.Equal(t, ChunkVisual, chunks[0].Type)
	assert.Equal(t, "morse-signal:U", chunks[0].Visual.ID)
}

// TestParser_TrailingUnterminatedMarker verifies literal text ending in
// an unmatched "[[..." is flushed verbatim at stream end, never dropped.
func TestParser_TrailingUnterminatedMarker(t *testing.T) {
	cat := loadCatalog(t)
	p := NewParser(cat)

	chunks := p.Feed("sound two blasts [[VISUAL:sound-sig")
	assert.Empty(t, findText(chunks, "[["))

	flushed := p.Flush()
	require.NotEmpty(t, flushed)
	var all strings.Builder
	for _, c := range append(chunks, flushed...) {
		if c.Type == ChunkText {
			all.WriteString(c.Text)
		}
	}
	assert.Equal(t, "sound two blasts [[VISUAL:sound-sig", all.String())
}

// TestParser_CanonicalTextExcludesMarkers verifies the persisted response
// text carries surrounding prose but no marker syntax, for recognized and
// unrecognized markers alike.
func TestParser_CanonicalTextExcludesMarkers(t *testing.T) {
	cat := loadCatalog(t)
	chunks := collect(NewParser(cat), []string{
		"A power-driven vessel shows ", "[[VISUAL:vessel-lights:", "power-driven]]",
		" and an unknown [[VISUAL:x:y]] marker.",
	})

	text := canonicalText(chunks)
	assert.Equal(t, "A power-driven vessel shows  and an unknown  marker.", text)
	assert.NotContains(t, text, "[[VISUAL:")
}

// TestParser_PlainTextPassthrough verifies marker-free streams pass
// through untouched.
func TestParser_PlainTextPassthrough(t *testing.T) {
	cat := loadCatalog(t)
	chunks := normalize(collect(NewParser(cat), []string{"Keep a proper ", "look-out at all times."}))

	require.Len(t, chunks, 1)
	assert.Equal(t, ChunkText, chunks[0].Type)
	assert.Equal(t, "Keep a proper look-out at all times.", chunks[0].Text)
	assert.Equal(t, "Keep a proper look-out at all times.", canonicalText(chunks))
}

func findText(chunks []Chunk, substr string) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if c.Type == ChunkText && strings.Contains(c.Text, substr) {
			out = append(out, c)
		}
	}
	return out
}
