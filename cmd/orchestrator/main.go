// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command orchestrator starts the COLREG assistant HTTP server.
//
// It reads configuration from environment variables and runs until the
// server stops.
//
// # Environment Variables
//
//   - ORCHESTRATOR_PORT: HTTP server port (default: 12210)
//   - API_KEY: Shared bearer key for /v1 routes (empty disables auth)
//   - LLM_BACKEND_TYPE: LLM provider - openai, ollama (default: ollama)
//   - CLASSIFIER_MODEL: Optional smaller model for classification and suggestions
//   - EXTRACTOR_MODEL: Optional model override for rule extraction
//   - OPENAI_API_KEY / OPENAI_MODEL: OpenAI backend settings
//   - OLLAMA_BASE_URL / OLLAMA_MODEL: Ollama backend settings
//   - EMBEDDING_MODEL: Embedding model for semantic retrieval
//   - WEAVIATE_SERVICE_URL: Weaviate vector DB URL (optional)
//   - INGEST_SERVICE_URL: Ingest service base URL for /v1/ingest
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: otel-collector:4317)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// # Usage
//
//	go build -o orchestrator ./cmd/orchestrator
//	./orchestrator
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/AleutianAI/colreg-assistant/services/orchestrator"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevelFromEnv(),
	}))
	slog.SetDefault(logger)

	cfg := orchestrator.Config{
		Port:            getEnvInt("ORCHESTRATOR_PORT", 12210),
		APIKey:          os.Getenv("API_KEY"),
		LLMBackend:      getEnvString("LLM_BACKEND_TYPE", "ollama"),
		ClassifierModel: os.Getenv("CLASSIFIER_MODEL"),
		ExtractorModel:  os.Getenv("EXTRACTOR_MODEL"),
		WeaviateURL:     os.Getenv("WEAVIATE_SERVICE_URL"),
		IngestURL:       os.Getenv("INGEST_SERVICE_URL"),
		OTelEndpoint:    getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
	}

	slog.Info("Starting orchestrator",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"weaviate_url", cfg.WeaviateURL,
		"ingest_url", cfg.IngestURL)

	svc, err := orchestrator.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize orchestrator: %v", err)
	}
	if err := svc.Run(); err != nil {
		log.Fatalf("Orchestrator server error: %v", err)
	}
}

func logLevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer environment variable, using fallback",
			"key", key, "value", value, "fallback", fallback)
		return fallback
	}
	return parsed
}
