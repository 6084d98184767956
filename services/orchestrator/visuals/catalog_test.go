// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package visuals

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_CatalogParses verifies the embedded visual catalog loads and
// every entry carries an id, a type, and render data.
func TestLoad_CatalogParses(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)
	assert.Greater(t, cat.Len(), 40)

	for _, v := range cat.All() {
		assert.NotEmpty(t, v.ID)
		assert.NotEmpty(t, v.Type)
		assert.NotEmpty(t, v.Data, "visual %s has no render data", v.ID)
		assert.Contains(t, v.ID, ":")
	}
}

// TestGet_CaseInsensitive verifies marker resolution lower-cases ids, as
// markers arrive from the model in arbitrary case.
func TestGet_CaseInsensitive(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	rec, ok := cat.Get("VESSEL-LIGHTS:POWER-DRIVEN")
	require.True(t, ok)
	assert.Equal(t, "vessel-lights:power-driven", rec.ID)
	assert.Equal(t, "vessel-lights", rec.Type)
}

// TestGet_Unknown verifies unknown ids resolve to ok=false.
func TestGet_Unknown(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	_, ok := cat.Get("vessel-lights:submarine")
	assert.False(t, ok)
}

// TestReference_GroupedByType verifies the prompt reference groups
// entries under per-type headings with backticked ids.
func TestReference_GroupedByType(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	ref := cat.Reference()
	assert.Contains(t, ref, "**Vessel Lights:**")
	assert.Contains(t, ref, "**Morse Signal:**")
	assert.Contains(t, ref, "`vessel-lights:power-driven`")

	// One heading per type, not per entry.
	assert.Equal(t, 1, strings.Count(ref, "**Vessel Lights:**"))
}
