// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workflow runs the chat pipeline: classify, load history,
// extract rules and retrieve semantically in parallel, compile the rule
// context, stream generation through the visual-marker parser, suggest
// follow-ups, and persist the exchange.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/colreg-assistant/services/llm"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/datatypes"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/history"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/retrieval"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/rules"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/streamparse"
	"github.com/AleutianAI/colreg-assistant/services/orchestrator/visuals"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("colreg.orchestrator.workflow")

const (
	generationTemperature = float32(0.6)
	generationMaxTokens   = 800
)

// Pipeline holds the per-process dependencies of the chat workflow. All
// fields are required except Retriever, which may be a NopRetriever in
// lightweight mode.
//
// # Thread Safety
//
// A Pipeline is immutable after construction and safe for concurrent
// requests; per-request state lives on the stack of Run.
type Pipeline struct {
	classifier *Classifier
	extractor  *Extractor
	generator  llm.LLMClient
	suggester  *Suggester
	rules      *rules.Catalog
	visuals    *visuals.Catalog
	history    history.Store
	retriever  retrieval.Retriever
}

// PipelineConfig wires the pipeline dependencies.
type PipelineConfig struct {
	// Classifier, Extractor, and Suggester run cheap auxiliary calls and
	// may be the Generator client or a smaller per-role model.
	Classifier llm.LLMClient
	Extractor  llm.LLMClient
	Generator  llm.LLMClient
	Suggester  llm.LLMClient

	Rules     *rules.Catalog
	Visuals   *visuals.Catalog
	History   history.Store
	Retriever retrieval.Retriever
}

// NewPipeline builds a Pipeline, panicking on missing dependencies.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Generator == nil {
		panic("workflow: generator client must not be nil")
	}
	if cfg.Rules == nil {
		panic("workflow: rule catalog must not be nil")
	}
	if cfg.Visuals == nil {
		panic("workflow: visual catalog must not be nil")
	}
	if cfg.History == nil {
		panic("workflow: history store must not be nil")
	}
	retriever := cfg.Retriever
	if retriever == nil {
		retriever = retrieval.NopRetriever{}
	}
	return &Pipeline{
		classifier: NewClassifier(cfg.Classifier),
		extractor:  NewExtractor(cfg.Extractor, cfg.Rules),
		generator:  cfg.Generator,
		suggester:  NewSuggester(cfg.Suggester),
		rules:      cfg.Rules,
		visuals:    cfg.Visuals,
		history:    cfg.History,
		retriever:  retriever,
	}
}

// Run executes the pipeline for one validated request, delivering output
// through the emitter. The returned error reports delivery failures
// (client gone, generation error); refusals are a normal completion.
func (p *Pipeline) Run(ctx context.Context, req datatypes.ChatRequest, em Emitter) error {
	ctx, span := tracer.Start(ctx, "Pipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", req.SessionID))

	if !p.classifier.Classify(ctx, req.Message) {
		return p.refuse(ctx, req, em)
	}

	turns, _ := p.history.Load(ctx, req.SessionID, history.DefaultHistoryLimit)

	// Rule extraction and semantic retrieval are independent reads; run
	// them concurrently. Neither can fail the request.
	var (
		extraction datatypes.RuleExtraction
		method     string
		retrieved  []string
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		extraction, method = p.extractor.Extract(groupCtx, req.Message)
		return nil
	})
	group.Go(func() error {
		retrieved = p.retriever.Retrieve(groupCtx, req.Message, retrieval.DefaultTopK)
		return nil
	})
	_ = group.Wait()

	ruleIDs := MergeRuleIDs(extraction.Rules, retrieved)
	ruleContext, resolved := CompileContext(p.rules, ruleIDs, extraction.IncludeGeneral)

	meta := RouteMetadata{
		SessionID:        req.SessionID,
		QueryType:        extraction.QueryType,
		ExtractionMethod: method,
		IncludeGeneral:   extraction.IncludeGeneral,
		RetrievalUsed:    len(retrieved) > 0,
		Rules:            make([]MatchedRule, 0, len(resolved)),
	}
	for _, r := range resolved {
		meta.Rules = append(meta.Rules, matchedRule(r))
	}
	if err := em.Metadata(meta); err != nil {
		return fmt.Errorf("client disconnected before generation: %w", err)
	}

	responseText, err := p.generate(ctx, req, turns, ruleContext, em)
	if err != nil {
		// Persist what the client received so a resumed session reflects
		// reality, tagged partial so it never re-enters LLM context.
		if responseText != "" {
			p.history.Save(ctx, req.SessionID, datatypes.RoleUser, req.Message, datatypes.TurnKindPartial)
			p.history.Save(ctx, req.SessionID, datatypes.RoleAssistant, responseText, datatypes.TurnKindPartial)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if extra := AdditionalRules(p.rules, responseText, resolved); len(extra) > 0 {
		additional := AdditionalRulesMetadata{Rules: make([]MatchedRule, 0, len(extra))}
		for _, r := range extra {
			additional.Rules = append(additional.Rules, matchedRule(r))
		}
		if err := em.Metadata(additional); err != nil {
			slog.Debug("Client gone before additional-rules delivery", "error", err)
		}
	}

	if suggestions := p.suggester.Suggest(ctx, ruleContext, req.Message, responseText); len(suggestions) > 0 {
		if err := em.Metadata(SuggestionsMetadata{Suggestions: suggestions}); err != nil {
			slog.Debug("Client gone before suggestions delivery", "error", err)
		}
	}

	p.history.Save(ctx, req.SessionID, datatypes.RoleUser, req.Message, datatypes.TurnKindExchange)
	p.history.Save(ctx, req.SessionID, datatypes.RoleAssistant, responseText, datatypes.TurnKindExchange)
	return nil
}

// refuse delivers the fixed fallback response. The exchange is persisted
// tagged refusal: auditable, but excluded from future LLM context.
func (p *Pipeline) refuse(ctx context.Context, req datatypes.ChatRequest, em Emitter) error {
	slog.Info("Query refused as off-topic", "session_id", req.SessionID)
	if err := em.Text(FallbackResponse); err != nil {
		return fmt.Errorf("failed to deliver refusal: %w", err)
	}
	p.history.Save(ctx, req.SessionID, datatypes.RoleUser, req.Message, datatypes.TurnKindRefusal)
	p.history.Save(ctx, req.SessionID, datatypes.RoleAssistant, FallbackResponse, datatypes.TurnKindRefusal)
	return nil
}

// generate streams the model response through the marker parser to the
// emitter and returns the canonical response text delivered so far.
func (p *Pipeline) generate(ctx context.Context, req datatypes.ChatRequest,
	turns []datatypes.ConversationTurn, ruleContext string, em Emitter) (string, error) {

	ctx, span := tracer.Start(ctx, "Pipeline.generate")
	defer span.End()

	messages := p.buildMessages(req, turns, ruleContext)
	parser := streamparse.NewParser(p.visuals)

	// delivered tracks canonical text the client actually received; on a
	// mid-stream failure the partial save must not overstate it.
	var delivered strings.Builder

	temperature := generationTemperature
	maxTokens := generationMaxTokens
	params := llm.GenerationParams{Temperature: &temperature, MaxTokens: &maxTokens}

	streamErr := p.generator.ChatStream(ctx, messages, params, func(event llm.StreamEvent) error {
		switch event.Type {
		case llm.StreamEventToken:
			return emitChunks(em, parser.Feed(event.Content), &delivered)
		case llm.StreamEventError:
			return event.Error
		default:
			// Thinking events are provider-internal; never shown.
			return nil
		}
	})
	if streamErr != nil {
		span.RecordError(streamErr)
		return delivered.String(), fmt.Errorf("generation stream failed: %w", streamErr)
	}

	if err := emitChunks(em, parser.Flush(), &delivered); err != nil {
		return delivered.String(), err
	}
	span.SetAttributes(attribute.Int("generation.chars", delivered.Len()))
	return delivered.String(), nil
}

func (p *Pipeline) buildMessages(req datatypes.ChatRequest,
	turns []datatypes.ConversationTurn, ruleContext string) []datatypes.Message {

	messages := make([]datatypes.Message, 0, len(turns)+2)
	messages = append(messages, datatypes.Message{
		Role:    datatypes.RoleSystem,
		Content: fmt.Sprintf(systemPrompt, p.visuals.Reference(), ruleContext),
	})
	for _, t := range turns {
		messages = append(messages, datatypes.Message{Role: t.Role, Content: t.Content})
	}
	return append(messages, datatypes.Message{Role: datatypes.RoleUser, Content: req.Message})
}

func emitChunks(em Emitter, chunks []streamparse.Chunk, delivered *strings.Builder) error {
	for _, chunk := range chunks {
		switch chunk.Type {
		case streamparse.ChunkVisual:
			if err := em.Visual(chunk.Visual); err != nil {
				return err
			}
		default:
			if err := em.Text(chunk.Text); err != nil {
				return err
			}
			// Unknown-marker passthrough is shown but never persisted.
			if !chunk.Passthrough {
				delivered.WriteString(chunk.Text)
			}
		}
	}
	return nil
}
