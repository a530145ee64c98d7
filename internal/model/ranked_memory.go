package model

// ContextMatchDetails records how a memory's learned context compares to
// the current invoice, dimension by dimension.
type ContextMatchDetails struct {
	MatchingFactors []string `json:"matching_factors,omitempty"`
	Similarity      float64  `json:"similarity"`
	VendorMatch     bool     `json:"vendor_match"`
	PatternMatch    bool     `json:"pattern_match"`
	LanguageMatch   bool     `json:"language_match"`
	ComplexityMatch bool     `json:"complexity_match"`
	QualityMatch    bool     `json:"quality_match"`
}

// RankedMemory is a memory scored against a specific query. Produced
// per-query and never persisted.
type RankedMemory struct {
	Memory          Memory              `json:"memory"`
	ContextMatch    ContextMatchDetails `json:"context_match"`
	SelectionReason string              `json:"selection_reason"`
	RankingScore    float64             `json:"ranking_score"`
	RelevanceScore  float64             `json:"relevance_score"`
	ConfidenceScore float64             `json:"confidence_score"`
	RecencyScore    float64             `json:"recency_score"`
}

// ConflictType names the kind of disagreement found between memories.
type ConflictType string

// Conflict types.
const (
	ConflictFieldMapping    ConflictType = "FIELD_MAPPING"
	ConflictCorrection      ConflictType = "CORRECTION"
	ConflictResolution      ConflictType = "RESOLUTION"
	ConflictVendorVsGeneric ConflictType = "VENDOR_VS_GENERIC"
)

// ResolutionStrategy selects which memory wins a conflict.
type ResolutionStrategy string

// Conflict resolution strategies.
const (
	StrategyHighestConfidence ResolutionStrategy = "HIGHEST_CONFIDENCE"
	StrategyMostRecent        ResolutionStrategy = "MOST_RECENT"
	StrategyHighestUsage      ResolutionStrategy = "HIGHEST_USAGE"
	StrategyVendorPriority    ResolutionStrategy = "VENDOR_PRIORITY"
	// StrategyWeightedCombination currently resolves identically to
	// StrategyHighestConfidence. The combining behavior is named but not
	// implemented; callers relying on a true weighted blend should not
	// select it yet.
	StrategyWeightedCombination ResolutionStrategy = "WEIGHTED_COMBINATION"
)

// MemoryConflict records two or more memories proposing contradictory
// actions, plus which one was chosen and why. Ephemeral.
type MemoryConflict struct {
	Type      ConflictType       `json:"type"`
	Memories  []Memory           `json:"memories"`
	Resolved  Memory             `json:"resolved"`
	Strategy  ResolutionStrategy `json:"strategy"`
	Reasoning string             `json:"reasoning"`
}
