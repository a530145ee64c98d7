package recall

import (
	"fmt"
	"sort"

	"github.com/ledgerline/recall/internal/model"
)

// detectConflicts runs the four independent conflict detectors over the
// selected memories. Grouping always goes through explicit composed string
// keys in a map, never dynamic field access, so data-controlled names
// cannot collide with anything structural.
func (e *Engine) detectConflicts(selected []model.RankedMemory, queryVendorID string) []model.MemoryConflict {
	memories := make([]model.Memory, len(selected))
	for i, rm := range selected {
		memories[i] = rm.Memory
	}

	var conflicts []model.MemoryConflict
	conflicts = append(conflicts, e.detectFieldMappingConflicts(memories, queryVendorID)...)
	conflicts = append(conflicts, e.detectCorrectionConflicts(memories, queryVendorID)...)
	conflicts = append(conflicts, e.detectResolutionConflicts(memories, queryVendorID)...)
	conflicts = append(conflicts, e.detectVendorVsGenericConflicts(memories)...)
	return conflicts
}

// detectFieldMappingConflicts flags multiple vendor memories mapping the
// same source field to the same target field.
func (e *Engine) detectFieldMappingConflicts(memories []model.Memory, queryVendorID string) []model.MemoryConflict {
	groups := make(map[string][]model.Memory)
	var keys []string

	for _, m := range memories {
		if m.Type != model.MemoryTypeVendor || m.Vendor == nil {
			continue
		}
		seen := make(map[string]bool)
		for _, fm := range m.Vendor.FieldMappings {
			key := fm.SourceField + "\x1f" + fm.TargetField
			if seen[key] {
				continue
			}
			seen[key] = true
			if _, ok := groups[key]; !ok {
				keys = append(keys, key)
			}
			groups[key] = append(groups[key], m)
		}
	}

	var conflicts []model.MemoryConflict
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		resolved, how := e.resolve(group, queryVendorID)
		conflicts = append(conflicts, model.MemoryConflict{
			Type:      model.ConflictFieldMapping,
			Memories:  group,
			Resolved:  resolved,
			Strategy:  e.cfg.ConflictStrategy,
			Reasoning: fmt.Sprintf("%d vendor memories map the same field; %s", len(group), how),
		})
	}
	return conflicts
}

// detectCorrectionConflicts flags multiple correction memories targeting
// the same field.
func (e *Engine) detectCorrectionConflicts(memories []model.Memory, queryVendorID string) []model.MemoryConflict {
	groups := make(map[string][]model.Memory)
	var fields []string

	for _, m := range memories {
		if m.Type != model.MemoryTypeCorrection || m.Correction == nil {
			continue
		}
		field := m.Correction.TargetField
		if _, ok := groups[field]; !ok {
			fields = append(fields, field)
		}
		groups[field] = append(groups[field], m)
	}

	var conflicts []model.MemoryConflict
	for _, field := range fields {
		group := groups[field]
		if len(group) < 2 {
			continue
		}
		resolved, how := e.resolve(group, queryVendorID)
		conflicts = append(conflicts, model.MemoryConflict{
			Type:      model.ConflictCorrection,
			Memories:  group,
			Resolved:  resolved,
			Strategy:  e.cfg.ConflictStrategy,
			Reasoning: fmt.Sprintf("%d corrections target field %q; %s", len(group), field, how),
		})
	}
	return conflicts
}

// detectResolutionConflicts flags resolution memories for the same
// discrepancy type only when they disagree on the resolution action. The
// same action repeated is agreement, not conflict.
func (e *Engine) detectResolutionConflicts(memories []model.Memory, queryVendorID string) []model.MemoryConflict {
	groups := make(map[string][]model.Memory)
	var types []string

	for _, m := range memories {
		if m.Type != model.MemoryTypeResolution || m.Resolution == nil {
			continue
		}
		dt := m.Resolution.DiscrepancyType
		if _, ok := groups[dt]; !ok {
			types = append(types, dt)
		}
		groups[dt] = append(groups[dt], m)
	}

	var conflicts []model.MemoryConflict
	for _, dt := range types {
		group := groups[dt]
		if len(group) < 2 {
			continue
		}

		actions := make(map[string]bool)
		for _, m := range group {
			actions[m.Resolution.ResolutionAction] = true
		}
		if len(actions) < 2 {
			continue
		}

		resolved, how := e.resolve(group, queryVendorID)
		conflicts = append(conflicts, model.MemoryConflict{
			Type:      model.ConflictResolution,
			Memories:  group,
			Resolved:  resolved,
			Strategy:  e.cfg.ConflictStrategy,
			Reasoning: fmt.Sprintf("%d distinct resolution actions for discrepancy %q; %s", len(actions), dt, how),
		})
	}
	return conflicts
}

// detectVendorVsGenericConflicts flags generic memories that overlap a
// vendor-scoped memory on (type, pattern type). Vendor-specific memories
// always win here, regardless of the configured strategy.
func (e *Engine) detectVendorVsGenericConflicts(memories []model.Memory) []model.MemoryConflict {
	vendorScoped := make(map[string][]model.Memory)
	genericScoped := make(map[string][]model.Memory)
	var keys []string

	for _, m := range memories {
		key := string(m.Type) + "\x1f" + m.Pattern.Type
		target := genericScoped
		if m.Context.VendorID != "" {
			target = vendorScoped
		}
		if _, seenV := vendorScoped[key]; !seenV {
			if _, seenG := genericScoped[key]; !seenG {
				keys = append(keys, key)
			}
		}
		target[key] = append(target[key], m)
	}

	var conflicts []model.MemoryConflict
	for _, key := range keys {
		vendor := vendorScoped[key]
		generic := genericScoped[key]
		if len(vendor) == 0 || len(generic) == 0 {
			continue
		}

		group := make([]model.Memory, 0, len(vendor)+len(generic))
		group = append(group, vendor...)
		group = append(group, generic...)

		winner := highestConfidence(vendor)
		conflicts = append(conflicts, model.MemoryConflict{
			Type:     model.ConflictVendorVsGeneric,
			Memories: group,
			Resolved: winner,
			Strategy: model.StrategyVendorPriority,
			Reasoning: fmt.Sprintf(
				"%d generic memories overlap %d vendor-scoped memories; vendor-specific memory %s wins",
				len(generic), len(vendor), winner.ID),
		})
	}
	return conflicts
}

// resolve picks the winning memory from a conflicting group using the
// configured strategy and explains the choice.
func (e *Engine) resolve(group []model.Memory, queryVendorID string) (model.Memory, string) {
	switch e.cfg.ConflictStrategy {
	case model.StrategyMostRecent:
		winner := group[0]
		for _, m := range group[1:] {
			if m.LastUsed.After(winner.LastUsed) {
				winner = m
			}
		}
		return winner, fmt.Sprintf("most recently used memory %s selected", winner.ID)

	case model.StrategyHighestUsage:
		winner := group[0]
		for _, m := range group[1:] {
			if m.UsageCount > winner.UsageCount {
				winner = m
			}
		}
		return winner, fmt.Sprintf("most used memory %s selected (%d uses)", winner.ID, winner.UsageCount)

	case model.StrategyVendorPriority:
		for _, m := range group {
			if m.Context.VendorID != "" && m.Context.VendorID == queryVendorID {
				return m, fmt.Sprintf("vendor-scoped memory %s selected for vendor %s", m.ID, queryVendorID)
			}
		}
		return group[0], fmt.Sprintf("no vendor-scoped memory in group, first candidate %s selected", group[0].ID)

	case model.StrategyWeightedCombination:
		// Named but not implemented: falls back to highest confidence.
		winner := highestConfidence(group)
		return winner, fmt.Sprintf("weighted combination not implemented, highest-confidence memory %s selected", winner.ID)

	default: // StrategyHighestConfidence
		winner := highestConfidence(group)
		return winner, fmt.Sprintf("highest-confidence memory %s selected (%.2f)", winner.ID, winner.Confidence)
	}
}

// highestConfidence returns the memory with the greatest confidence,
// breaking ties by id for determinism.
func highestConfidence(group []model.Memory) model.Memory {
	sorted := make([]model.Memory, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0]
}
