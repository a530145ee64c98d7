// Package pipeline wires recall, confidence, and decision into the full
// invoice-processing flow.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerline/recall/internal/confidence"
	"github.com/ledgerline/recall/internal/decision"
	"github.com/ledgerline/recall/internal/model"
	"github.com/ledgerline/recall/internal/recall"
	"github.com/ledgerline/recall/internal/service"
)

// Pipeline runs the full flow for one invoice: recall memories, compute
// overall confidence, decide. Each run works on an immutable snapshot of
// retrieved memories, so concurrent invocations need no coordination.
type Pipeline struct {
	store      service.MemoryStore
	recall     *recall.Engine
	confidence *confidence.Manager
	decision   *decision.Engine
}

// New assembles a pipeline from its three engines.
func New(store service.MemoryStore, rec *recall.Engine, conf *confidence.Manager, dec *decision.Engine) *Pipeline {
	return &Pipeline{
		store:      store,
		recall:     rec,
		confidence: conf,
		decision:   dec,
	}
}

// Outcome is everything one invoice run produced.
type Outcome struct {
	Recall     *recall.RecallResult         `json:"recall"`
	Confidence confidence.OverallConfidence `json:"confidence"`
	Decision   model.Decision               `json:"decision"`
}

// Process runs one invoice through recall, confidence, and decision.
func (p *Pipeline) Process(ctx context.Context, invoice model.InvoiceContext, issues []model.ValidationIssue) (*Outcome, error) {
	for i := range issues {
		if err := issues[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid validation issue: %w", err)
		}
	}

	recallResult, err := p.recall.RecallMemories(ctx, invoice)
	if err != nil {
		return nil, fmt.Errorf("memory recall failed: %w", err)
	}

	applied := make([]model.Memory, len(recallResult.Memories))
	for i, rm := range recallResult.Memories {
		applied[i] = rm.Memory
	}
	overall := p.confidence.CalculateOverallConfidence(applied, invoice)

	dec := p.decision.MakeDecision(ctx, model.DecisionContext{
		Invoice:          invoice,
		Confidence:       overall.Final,
		AppliedMemories:  recallResult.Memories,
		ValidationIssues: issues,
	})

	return &Outcome{
		Recall:     recallResult,
		Confidence: overall,
		Decision:   dec,
	}, nil
}

// Reinforce applies an outcome to every memory that was used for an
// invoice and persists the updated scores. Failures on individual
// memories are logged and skipped so one bad record cannot block the rest.
func (p *Pipeline) Reinforce(ctx context.Context, memoryIDs []string, event model.ReinforcementEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	for _, id := range memoryIDs {
		memory, err := p.store.GetMemory(ctx, id)
		if err != nil {
			slog.Warn("skipping reinforcement, memory not loadable", "memory", id, "error", err)
			continue
		}

		delta, err := p.confidence.ReinforceMemory(memory, event)
		if err != nil {
			return err
		}
		memory.UsageCount++

		if err := p.store.UpdateMemoryScores(ctx, memory); err != nil {
			slog.Warn("failed to persist reinforced memory", "memory", id, "error", err)
			continue
		}
		slog.Debug("reinforced memory", "memory", id, "outcome", event.Outcome, "delta", delta)
	}
	return nil
}
