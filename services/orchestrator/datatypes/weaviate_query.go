// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// ParseGraphQLResponse unmarshals a Weaviate GraphQL response into a typed
// structure via a marshal/unmarshal round trip. Weaviate returns
// map[string]interface{} data; this gives callers compile-time field
// access instead of type assertions.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// RuleChunkClass is the Weaviate class holding embedded rule chunks for
// semantic retrieval. Each rule may be split into several chunks sharing
// the same rule_id.
const RuleChunkClass = "RuleChunk"

// RuleChunkQueryResponse represents the response from a nearVector query
// against the RuleChunk class.
type RuleChunkQueryResponse struct {
	Get struct {
		RuleChunk []RuleChunkResult `json:"RuleChunk"`
	} `json:"Get"`
}

// RuleChunkResult is a single scored chunk from a nearVector query.
type RuleChunkResult struct {
	RuleID     string `json:"rule_id"`
	Content    string `json:"content"`
	Additional struct {
		Certainty float64 `json:"certainty"`
	} `json:"_additional"`
}

// AggregateCountResponse represents a meta count aggregate over the
// Conversation class, used for turn numbering.
type AggregateCountResponse struct {
	Aggregate struct {
		Conversation []struct {
			Meta struct {
				Count int `json:"count"`
			} `json:"meta"`
		} `json:"Conversation"`
	} `json:"Aggregate"`
}
