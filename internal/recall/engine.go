// Package recall implements the memory recall engine: candidate retrieval,
// context-match scoring, weighted ranking, and conflict resolution.
package recall

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgerline/recall/internal/model"
	"github.com/ledgerline/recall/internal/service"
)

// Config holds the tunable knobs for memory recall.
type Config struct {
	ConflictStrategy      model.ResolutionStrategy
	MaxMemoriesPerQuery   int
	MinRelevanceThreshold float64
	ConfidenceWeight      float64
	RelevanceWeight       float64
	RecencyWeight         float64
	VendorPrioritization  bool
}

// DefaultConfig returns the default recall configuration.
func DefaultConfig() Config {
	return Config{
		MaxMemoriesPerQuery:   50,
		MinRelevanceThreshold: 0.1,
		ConfidenceWeight:      0.4,
		RelevanceWeight:       0.4,
		RecencyWeight:         0.2,
		VendorPrioritization:  true,
		ConflictStrategy:      model.StrategyHighestConfidence,
	}
}

// Engine retrieves and ranks candidate memories for a processing context.
type Engine struct {
	store service.MemoryStore
	now   func() time.Time
	cfg   Config
}

// NewEngine creates a recall engine backed by the given store.
func NewEngine(store service.MemoryStore, cfg Config) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// ContextMatchStats aggregates match quality over the selected memories.
type ContextMatchStats struct {
	TypeDistribution   map[model.MemoryType]int `json:"type_distribution"`
	ExactVendorMatches int                      `json:"exact_vendor_matches"`
	PatternMatches     int                      `json:"pattern_matches"`
	LanguageMatches    int                      `json:"language_matches"`
	MeanSimilarity     float64                  `json:"mean_similarity"`
}

// RecallResult is the outcome of one memory recall query.
type RecallResult struct {
	Reasoning         string                 `json:"reasoning"`
	Memories          []model.RankedMemory   `json:"memories"`
	Conflicts         []model.MemoryConflict `json:"conflicts,omitempty"`
	Stats             ContextMatchStats      `json:"stats"`
	TotalConsidered   int                    `json:"total_considered"`
	FilteredOut       int                    `json:"filtered_out"`
	ConflictsResolved int                    `json:"conflicts_resolved"`
}

// scoredCandidate pairs a candidate with its context match during ranking.
type scoredCandidate struct {
	memory model.Memory
	match  model.ContextMatchDetails
}

// RecallMemories retrieves and ranks memories for an invoice context using
// default query parameters.
func (e *Engine) RecallMemories(ctx context.Context, invoice model.InvoiceContext) (*RecallResult, error) {
	return e.QueryMemories(ctx, model.MemoryQuery{Context: invoice})
}

// QueryMemories runs the full recall pipeline for an explicit query:
// gather, filter, match, rank, truncate, resolve conflicts, summarize.
func (e *Engine) QueryMemories(ctx context.Context, query model.MemoryQuery) (*RecallResult, error) {
	if query.Context.VendorID == "" && len(query.Types) == 0 {
		slog.Debug("recall query has no vendor scope, falling back to full scan")
	}

	candidates, err := e.gatherCandidates(ctx, query)
	if err != nil {
		return nil, err
	}
	total := len(candidates)

	filtered := e.applyFilters(candidates, query)

	matched := make([]scoredCandidate, 0, len(filtered))
	memoryCtx := query.Context.MemoryContext()
	for _, m := range filtered {
		match := CalculateContextMatch(&m, memoryCtx)
		if match.Similarity < e.cfg.MinRelevanceThreshold {
			continue
		}
		matched = append(matched, scoredCandidate{memory: m, match: match})
	}

	ranked := e.rankMemories(matched, e.now())
	if len(ranked) > e.cfg.MaxMemoriesPerQuery {
		ranked = ranked[:e.cfg.MaxMemoriesPerQuery]
	}

	conflicts := e.detectConflicts(ranked, query.Context.VendorID)

	result := &RecallResult{
		Memories:          ranked,
		Conflicts:         conflicts,
		TotalConsidered:   total,
		FilteredOut:       total - len(ranked),
		ConflictsResolved: len(conflicts),
		Stats:             e.computeStats(ranked),
	}
	result.Reasoning = e.summarize(result, query)

	slog.Debug("memory recall complete",
		"vendor", query.Context.VendorID,
		"considered", total,
		"selected", len(ranked),
		"conflicts", len(conflicts))

	return result, nil
}

// gatherCandidates collects memories vendor-first (when prioritization is
// on), then by type filter or full scan, de-duplicating by id while
// preserving retrieval order.
func (e *Engine) gatherCandidates(ctx context.Context, query model.MemoryQuery) ([]model.Memory, error) {
	var candidates []model.Memory
	seen := make(map[string]bool)

	add := func(memories []model.Memory) {
		for _, m := range memories {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			candidates = append(candidates, m)
		}
	}

	if e.cfg.VendorPrioritization && query.Context.VendorID != "" {
		vendorMemories, err := e.store.FindMemoriesByVendor(ctx, query.Context.VendorID)
		if err != nil {
			return nil, fmt.Errorf("vendor memory lookup failed: %w", err)
		}
		add(vendorMemories)
	}

	if len(query.Types) > 0 {
		for _, t := range query.Types {
			typed, err := e.store.FindMemoriesByType(ctx, t)
			if err != nil {
				return nil, fmt.Errorf("typed memory lookup failed: %w", err)
			}
			add(typed)
		}
	} else {
		all, err := e.store.GetAllMemories(ctx)
		if err != nil {
			return nil, fmt.Errorf("memory scan failed: %w", err)
		}
		add(all)
	}

	return candidates, nil
}

// applyFilters drops candidates below the minimum confidence, older than
// the maximum age, or outside the pattern-type allow-list.
func (e *Engine) applyFilters(candidates []model.Memory, query model.MemoryQuery) []model.Memory {
	var allowedPatterns map[string]bool
	if len(query.PatternTypes) > 0 {
		allowedPatterns = make(map[string]bool, len(query.PatternTypes))
		for _, pt := range query.PatternTypes {
			allowedPatterns[pt] = true
		}
	}

	now := e.now()
	kept := candidates[:0:0]
	for _, m := range candidates {
		if query.MinConfidence != nil && m.Confidence < *query.MinConfidence {
			continue
		}
		if query.MaxAge != nil && now.Sub(m.CreatedAt) > *query.MaxAge {
			continue
		}
		if allowedPatterns != nil && !allowedPatterns[m.Pattern.Type] {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// computeStats aggregates match statistics over the selected memories.
func (e *Engine) computeStats(selected []model.RankedMemory) ContextMatchStats {
	stats := ContextMatchStats{
		TypeDistribution: make(map[model.MemoryType]int),
	}
	if len(selected) == 0 {
		return stats
	}

	var similaritySum float64
	for _, rm := range selected {
		if rm.ContextMatch.VendorMatch {
			stats.ExactVendorMatches++
		}
		if rm.ContextMatch.PatternMatch {
			stats.PatternMatches++
		}
		if rm.ContextMatch.LanguageMatch {
			stats.LanguageMatches++
		}
		similaritySum += rm.ContextMatch.Similarity
		stats.TypeDistribution[rm.Memory.Type]++
	}
	stats.MeanSimilarity = similaritySum / float64(len(selected))
	return stats
}

// summarize produces the human-readable recall explanation.
func (e *Engine) summarize(result *RecallResult, query model.MemoryQuery) string {
	var b strings.Builder

	if len(result.Memories) == 0 {
		fmt.Fprintf(&b, "No applicable memories found for vendor %q: considered %d, all filtered out by confidence, age, or relevance thresholds.",
			query.Context.VendorID, result.TotalConsidered)
		return b.String()
	}

	fmt.Fprintf(&b, "Selected %d of %d candidate memories for vendor %q. ",
		len(result.Memories), result.TotalConsidered, query.Context.VendorID)
	fmt.Fprintf(&b, "%d match the vendor exactly, %d match the invoice language; mean context similarity %.2f. ",
		result.Stats.ExactVendorMatches, result.Stats.LanguageMatches, result.Stats.MeanSimilarity)

	if len(result.Conflicts) > 0 {
		fmt.Fprintf(&b, "Resolved %d conflicts between overlapping memories. ", len(result.Conflicts))
	}

	first := result.Memories[0]
	fmt.Fprintf(&b, "Top memory: %s", first.SelectionReason)
	return b.String()
}
