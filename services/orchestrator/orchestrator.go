// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator assembles and runs the COLREG assistant service.
//
// # Description
//
// The orchestrator wires the rule and visual catalogs, the LLM backend,
// conversation history, semantic retrieval, and the streaming chat
// pipeline behind an HTTP API. Weaviate is optional: without it the
// service runs in lightweight mode with stateless sessions and
// LLM-extraction-only rule routing.
//
// # Architecture
//
//	HTTP (gin + otelgin)
//	   │
//	   ├── POST /v1/chat ──► workflow.Pipeline ──► llm / rules / visuals
//	   │                          │
//	   │                          ├── history.Store (Weaviate)
//	   │                          └── retrieval.Retriever (Weaviate)
//	   ├── POST /v1/ingest ──► ingest service proxy
//	   ├── GET  /health
//	   └── GET  /metrics (Prometheus)
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/AleutianAI/colreg-assistant/services/llm"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/datatypes"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/history"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/observability"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/retrieval"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/routes"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/rules"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/visuals"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/workflow"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Service is the runnable orchestrator.
type Service interface {
	// Run starts the HTTP server and blocks until it stops.
	Run() error

	// Router exposes the configured engine for integration tests.
	Router() *gin.Engine
}

// Config holds service configuration, normally read from the
// environment by cmd/orchestrator.
//
// # Fields
//
//   - Port: HTTP listen port. Defaults to 12210.
//   - APIKey: Shared bearer key for /v1 routes. Empty disables auth.
//   - LLMBackend: "openai" or "ollama".
//   - ClassifierModel: Optional cheaper model for query classification.
//   - ExtractorModel: Optional model override for rule extraction.
//   - WeaviateURL: Vector store URL; empty enables lightweight mode.
//   - IngestURL: Ingest service base URL for /v1/ingest forwarding.
//   - OTelEndpoint: OTLP gRPC collector endpoint.
type Config struct {
	Port            int
	APIKey          string
	LLMBackend      string
	ClassifierModel string
	ExtractorModel  string
	WeaviateURL     string
	IngestURL       string
	OTelEndpoint    string
}

type service struct {
	config         Config
	weaviateClient *weaviate.Client
	llmClient      llm.LLMClient
	pipeline       *workflow.Pipeline
	metrics        *observability.ChatMetrics
	router         *gin.Engine
	tracerCleanup  func(context.Context)
}

// Compile-time interface check.
var _ Service = (*service)(nil)

// New builds a fully wired service. Weaviate failures degrade to
// lightweight mode; catalog or LLM failures are fatal.
func New(cfg Config) (Service, error) {
	s := &service{config: applyConfigDefaults(cfg)}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	s.metrics = observability.NewChatMetrics(prometheus.DefaultRegisterer)

	if err := s.initWeaviate(); err != nil {
		slog.Warn("Weaviate initialization failed, running in lightweight mode",
			"error", err)
	}

	if err := s.initLLMClient(); err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	if err := s.initPipeline(); err != nil {
		return nil, fmt.Errorf("failed to initialize chat pipeline: %w", err)
	}

	s.initRouter()
	return s, nil
}

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting orchestrator server", "port", s.config.Port,
		"backend", s.config.LLMBackend, "lightweight", s.weaviateClient == nil)
	return s.router.Run(addr)
}

func (s *service) Router() *gin.Engine {
	return s.router
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12210
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "ollama"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "otel-collector:4317"
	}
	return cfg
}

// initTracer sets up the OTLP trace exporter over insecure gRPC,
// appropriate for internal networks.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("colreg-orchestrator")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}
	return cleanup, nil
}

// initWeaviate connects the optional vector store. URLs arrive from
// container env files and may carry stray quotes.
func (s *service) initWeaviate() error {
	weaviateURL := strings.Trim(s.config.WeaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("Weaviate URL not configured, running in lightweight mode")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("invalid Weaviate URL: %s", weaviateURL)
	}

	s.weaviateClient, err = weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		return fmt.Errorf("failed to create Weaviate client: %w", err)
	}

	datatypes.EnsureWeaviateSchema(s.weaviateClient)
	slog.Info("Weaviate client initialized", "url", weaviateURL)
	return nil
}

func (s *service) initLLMClient() error {
	var err error

	switch s.config.LLMBackend {
	case "openai":
		s.llmClient, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "ollama":
		s.llmClient, err = llm.NewOllamaClient()
		slog.Info("Using Ollama LLM backend")
	default:
		slog.Warn("Unknown LLM backend, defaulting to ollama", "backend", s.config.LLMBackend)
		s.llmClient, err = llm.NewOllamaClient()
	}
	return err
}

// roleClient returns the base client rebound to a role-specific model,
// or the base client when no override is configured.
func (s *service) roleClient(model string) llm.LLMClient {
	if model == "" {
		return s.llmClient
	}
	switch client := s.llmClient.(type) {
	case *llm.OpenAIClient:
		return client.WithModel(model)
	case *llm.OllamaClient:
		return client.WithModel(model)
	default:
		return s.llmClient
	}
}

func (s *service) initPipeline() error {
	ruleCatalog, err := rules.Load()
	if err != nil {
		return fmt.Errorf("failed to load rule catalog: %w", err)
	}
	visualCatalog, err := visuals.Load()
	if err != nil {
		return fmt.Errorf("failed to load visual catalog: %w", err)
	}
	slog.Info("Loaded catalogs", "rules", ruleCatalog.Len(), "visuals", visualCatalog.Len())

	var store history.Store = history.NopStore{}
	var retriever retrieval.Retriever = retrieval.NopRetriever{}
	if s.weaviateClient != nil {
		store = history.NewWeaviateStore(s.weaviateClient)

		// Semantic retrieval needs an embedder; only OpenAI provides one
		// today. Without it, extraction alone routes the rules.
		if embedder, err := retrieval.NewOpenAIEmbedder(); err != nil {
			slog.Warn("Embedder unavailable, semantic retrieval disabled", "error", err)
		} else {
			retriever = retrieval.NewWeaviateRetriever(s.weaviateClient, embedder)
		}
	}

	s.pipeline = workflow.NewPipeline(workflow.PipelineConfig{
		Classifier: s.roleClient(s.config.ClassifierModel),
		Extractor:  s.roleClient(s.config.ExtractorModel),
		Generator:  s.llmClient,
		Suggester:  s.roleClient(s.config.ClassifierModel),
		Rules:      ruleCatalog,
		Visuals:    visualCatalog,
		History:    store,
		Retriever:  retriever,
	})
	return nil
}

func (s *service) initRouter() {
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("colreg-orchestrator"))

	routes.SetupRoutes(s.router, s.pipeline, s.metrics,
		s.config.APIKey, strings.TrimRight(s.config.IngestURL, "/"))
}

func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
