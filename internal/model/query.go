package model

import "time"

// MemoryQuery describes an explicit memory lookup with optional filters.
// A zero filter field means "no restriction".
type MemoryQuery struct {
	Context       InvoiceContext `json:"context"`
	Types         []MemoryType   `json:"types,omitempty"`
	PatternTypes  []string       `json:"pattern_types,omitempty"`
	MinConfidence *float64       `json:"min_confidence,omitempty"`
	MaxAge        *time.Duration `json:"max_age,omitempty"`
}
