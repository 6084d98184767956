// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval implements the optional semantic rule retriever.
//
// # Description
//
// The query is embedded and matched against a chunk-level Weaviate index
// keyed by rule id. Several chunks of the same rule collapse to one id,
// first occurrence winning for order. This path is additive: any failure
// (embedding error, index unavailable) degrades to an empty result so the
// pipeline continues on LLM extraction alone.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/AleutianAI/colreg-assistant/services/orchestrator/datatypes"
	"github.com/sashabaranov/go-openai"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("colreg.orchestrator.retrieval")

const (
	// DefaultTopK bounds how many distinct rule ids retrieval returns.
	DefaultTopK = 5

	// DefaultCertaintyThreshold is the minimum Weaviate certainty for a
	// chunk to count as a match.
	DefaultCertaintyThreshold = 0.4

	// chunkFetchFactor over-fetches chunks so that deduplication by rule
	// id still fills topK distinct rules.
	chunkFetchFactor = 3
)

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns rule ids ranked by descending similarity.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) []string
}

// =============================================================================
// OpenAI Embedder
// =============================================================================

// Compile-time interface implementation check.
var _ Embedder = (*OpenAIEmbedder)(nil)

type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder() (*OpenAIEmbedder, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err != nil {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
	}
	model := os.Getenv("EMBEDDING_MODEL")
	if model == "" {
		model = string(openai.SmallEmbedding3)
		slog.Warn("EMBEDDING_MODEL not set, defaulting to text-embedding-3-small")
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "OpenAIEmbedder.Embed")
	defer span.End()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response carried no vectors")
	}
	return resp.Data[0].Embedding, nil
}

// =============================================================================
// Weaviate Retriever
// =============================================================================

// Compile-time interface implementation check.
var _ Retriever = (*WeaviateRetriever)(nil)

// WeaviateRetriever runs nearVector queries over the RuleChunk class.
type WeaviateRetriever struct {
	client    *weaviate.Client
	embedder  Embedder
	threshold float64
}

func NewWeaviateRetriever(client *weaviate.Client, embedder Embedder) *WeaviateRetriever {
	if client == nil {
		panic("retrieval: weaviate client must not be nil")
	}
	if embedder == nil {
		panic("retrieval: embedder must not be nil")
	}
	return &WeaviateRetriever{client: client, embedder: embedder, threshold: DefaultCertaintyThreshold}
}

// Retrieve implements Retriever. Failures are absorbed to an empty list.
func (r *WeaviateRetriever) Retrieve(ctx context.Context, query string, topK int) []string {
	ctx, span := tracer.Start(ctx, "WeaviateRetriever.Retrieve")
	defer span.End()

	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		slog.Warn("Query embedding failed, skipping semantic retrieval", "error", err)
		return nil
	}

	nearVector := r.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector).
		WithCertainty(float32(r.threshold))

	resp, err := r.client.GraphQL().Get().
		WithClassName(datatypes.RuleChunkClass).
		WithFields(
			graphql.Field{Name: "rule_id"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
		).
		WithNearVector(nearVector).
		WithLimit(topK * chunkFetchFactor).
		Do(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Warn("Semantic retrieval query failed, continuing without RAG rules", "error", err)
		return nil
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.RuleChunkQueryResponse](resp)
	if err != nil {
		slog.Warn("Semantic retrieval parse failed, continuing without RAG rules", "error", err)
		return nil
	}

	chunkIDs := make([]string, 0, len(parsed.Get.RuleChunk))
	for _, chunk := range parsed.Get.RuleChunk {
		chunkIDs = append(chunkIDs, chunk.RuleID)
	}
	ids := dedupeRuleIDs(chunkIDs, topK)
	span.SetAttributes(attribute.Int("retrieval.rules", len(ids)))
	slog.Debug("Semantic retrieval complete", "chunks", len(chunkIDs), "rules", len(ids))
	return ids
}

// dedupeRuleIDs collapses chunk-level hits to distinct rule ids,
// preserving similarity order, capped to topK.
func dedupeRuleIDs(chunkIDs []string, topK int) []string {
	seen := make(map[string]struct{}, len(chunkIDs))
	ids := make([]string, 0, topK)
	for _, id := range chunkIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if len(ids) == topK {
			break
		}
	}
	return ids
}

// NopRetriever is used when the vector index is not configured.
type NopRetriever struct{}

var _ Retriever = NopRetriever{}

func (NopRetriever) Retrieve(ctx context.Context, query string, topK int) []string {
	return nil
}
