// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history persists conversation turns in Weaviate.
//
// # Description
//
// One durable Conversation class keyed by session_id holds role-tagged
// turns, insert-only with server-assigned timestamps. Object IDs are
// derived deterministically from turn content, so a replayed save is
// idempotent at the store level. Chat continuity is best-effort by
// contract: load failures degrade to an empty history and save failures
// are logged and swallowed, never blocking response delivery.
package history

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/colreg-assistant/services/orchestrator/datatypes"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("colreg.orchestrator.history")

// DefaultHistoryLimit caps how many turns a load returns.
const DefaultHistoryLimit = 10

// Store is the history adapter contract.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; sessions are
// append-only so no read-modify-write locking is needed.
type Store interface {
	// Load returns the most recent turns for the session in ascending
	// timestamp order, refusal and partial turns excluded. Query
	// failures degrade to an empty list with a logged warning; the
	// returned error is always nil for availability reasons and exists
	// for future implementations with stricter needs.
	Load(ctx context.Context, sessionID string, limit int) ([]datatypes.ConversationTurn, error)

	// Save appends one turn. Failures are logged and swallowed.
	Save(ctx context.Context, sessionID, role, content, kind string)
}

// Compile-time interface implementation check.
var _ Store = (*WeaviateStore)(nil)

// WeaviateStore persists turns in the Conversation class.
type WeaviateStore struct {
	client *weaviate.Client
}

// NewWeaviateStore builds a store over an initialized Weaviate client.
func NewWeaviateStore(client *weaviate.Client) *WeaviateStore {
	if client == nil {
		panic("history: weaviate client must not be nil")
	}
	return &WeaviateStore{client: client}
}

// Load implements Store.
func (s *WeaviateStore) Load(ctx context.Context, sessionID string,
	limit int) ([]datatypes.ConversationTurn, error) {

	ctx, span := tracer.Start(ctx, "WeaviateStore.Load")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	// The window must hold the most recent exchange turns: audit turns
	// are excluded in the query itself so they never consume the limit,
	// and the newest rows are fetched first, then put back in
	// chronological order for replay.
	where := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"session_id"}).
				WithOperator(filters.Equal).
				WithValueString(sessionID),
			filters.Where().
				WithPath([]string{"kind"}).
				WithOperator(filters.Equal).
				WithValueString(datatypes.TurnKindExchange),
		})

	fields := []graphql.Field{
		{Name: "session_id"},
		{Name: "role"},
		{Name: "content"},
		{Name: "kind"},
		{Name: "timestamp"},
	}

	newestFirst := graphql.Sort{Path: []string{"timestamp"}, Order: graphql.Desc}

	resp, err := s.client.GraphQL().Get().
		WithClassName(datatypes.ConversationClass).
		WithFields(fields...).
		WithWhere(where).
		WithSort(newestFirst).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		slog.Warn("History load failed, continuing with empty history",
			"session_id", sessionID, "error", err)
		return nil, nil
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.ConversationQueryResponse](resp)
	if err != nil {
		slog.Warn("History response parse failed, continuing with empty history",
			"session_id", sessionID, "error", err)
		return nil, nil
	}

	turns := make([]datatypes.ConversationTurn, 0, len(parsed.Get.Conversation))
	for _, r := range parsed.Get.Conversation {
		turn := datatypes.ConversationTurn{
			Role:      r.Role,
			Content:   r.Content,
			Kind:      r.Kind,
			Timestamp: r.Timestamp,
		}
		if !isLoadableTurn(turn) {
			continue
		}
		turns = append(turns, turn)
	}
	turns = chronological(turns)
	slog.Debug("Loaded session history", "session_id", sessionID, "turns", len(turns))
	return turns, nil
}

// chronological reverses a newest-first result page in place so callers
// replay turns oldest to newest.
func chronological(turns []datatypes.ConversationTurn) []datatypes.ConversationTurn {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns
}

// Save implements Store.
func (s *WeaviateStore) Save(ctx context.Context, sessionID, role, content, kind string) {
	ctx, span := tracer.Start(ctx, "WeaviateStore.Save")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("turn.role", role),
		attribute.String("turn.kind", kind))

	turnNumber := s.turnCount(ctx, sessionID)

	props := datatypes.ConversationProperties{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Kind:      kind,
		Timestamp: time.Now().UnixMilli(),
	}

	turnID, err := turnUUID(sessionID, turnNumber, role, content)
	if err != nil {
		slog.Error("Failed to derive turn UUID, skipping save",
			"session_id", sessionID, "error", err)
		return
	}

	_, err = s.client.Data().Creator().
		WithClassName(datatypes.ConversationClass).
		WithID(turnID).
		WithProperties(props.ToMap()).
		Do(ctx)
	if err != nil {
		slog.Warn("History save failed, response already delivered",
			"session_id", sessionID, "role", role, "error", err)
		return
	}
	slog.Debug("Persisted conversation turn",
		"session_id", sessionID, "role", role, "kind", kind, "turn", turnNumber)
}

// turnCount returns the number of stored turns for the session via a
// meta count aggregate. Failures degrade to zero; the count only feeds
// the deterministic turn ID.
func (s *WeaviateStore) turnCount(ctx context.Context, sessionID string) int {
	where := filters.Where().
		WithPath([]string{"session_id"}).
		WithOperator(filters.Equal).
		WithValueString(sessionID)

	resp, err := s.client.GraphQL().Aggregate().
		WithClassName(datatypes.ConversationClass).
		WithWhere(where).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		slog.Warn("Turn count aggregate failed, defaulting to 0",
			"session_id", sessionID, "error", err)
		return 0
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.AggregateCountResponse](resp)
	if err != nil || len(parsed.Aggregate.Conversation) == 0 {
		return 0
	}
	return parsed.Aggregate.Conversation[0].Meta.Count
}

// turnUUID derives a deterministic object ID from turn content so that a
// retried save overwrites the same object instead of duplicating it.
func turnUUID(sessionID string, turnNumber int, role, content string) (string, error) {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s|%s", sessionID, turnNumber, role, content)))
	id, err := uuid.FromBytes(sum[:16])
	if err != nil {
		return "", fmt.Errorf("failed to build UUID from digest: %w", err)
	}
	return id.String(), nil
}

// isLoadableTurn guards what gets handed back as LLM context. The load
// query already excludes audit turns server-side; this keeps malformed
// rows and any row that slipped past the filter out as well.
func isLoadableTurn(t datatypes.ConversationTurn) bool {
	if t.Role == "" || t.Content == "" {
		return false
	}
	if t.Role != datatypes.RoleUser && t.Role != datatypes.RoleAssistant {
		return false
	}
	// Legacy rows have no kind; treat them as normal exchanges.
	return t.Kind == "" || t.Kind == datatypes.TurnKindExchange
}

// NopStore is the lightweight-mode store used when Weaviate is not
// configured: loads are always empty and saves are dropped.
type NopStore struct{}

var _ Store = NopStore{}

func (NopStore) Load(ctx context.Context, sessionID string, limit int) ([]datatypes.ConversationTurn, error) {
	return nil, nil
}

func (NopStore) Save(ctx context.Context, sessionID, role, content, kind string) {}
