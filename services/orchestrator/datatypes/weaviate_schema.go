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
	"context"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// EnsureWeaviateSchema creates the Conversation class if it does not
// exist. Best-effort at startup: failures are logged and the service
// continues, since history is non-blocking by contract.
//
// The RuleChunk class is owned by the ingest service, which creates it
// with its vectorizer settings when documents are first ingested.
func EnsureWeaviateSchema(client *weaviate.Client) {
	ctx := context.Background()

	exists, err := client.Schema().ClassExistenceChecker().
		WithClassName(ConversationClass).Do(ctx)
	if err != nil {
		slog.Warn("Failed to check Conversation class existence", "error", err)
		return
	}
	if exists {
		return
	}

	class := &models.Class{
		Class:       ConversationClass,
		Description: "One conversation turn per object, keyed by session_id",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "session_id", DataType: []string{"text"}},
			{Name: "role", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "kind", DataType: []string{"text"}},
			{Name: "timestamp", DataType: []string{"int"}},
		},
	}
	if err := client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		slog.Warn("Failed to create Conversation class", "error", err)
		return
	}
	slog.Info("Created Weaviate Conversation class")
}
