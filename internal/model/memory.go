// Package model defines the core data structures for the recall application.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MemoryType discriminates the learned-pattern variants.
type MemoryType string

// Memory type constants.
const (
	MemoryTypeVendor     MemoryType = "VENDOR"
	MemoryTypeCorrection MemoryType = "CORRECTION"
	MemoryTypeResolution MemoryType = "RESOLUTION"
)

// Pattern describes the trigger pattern a memory was learned against.
// Data is opaque to the core; only its serialized size influences scoring.
type Pattern struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Threshold float64         `json:"threshold"`
}

// MemoryContext captures the circumstances a memory was learned under.
type MemoryContext struct {
	VendorID             string            `json:"vendor_id,omitempty"`
	Complexity           ComplexityLevel   `json:"complexity"`
	Language             string            `json:"language,omitempty"`
	DocumentFormat       string            `json:"document_format,omitempty"`
	ExtractionQuality    ExtractionQuality `json:"extraction_quality"`
	HistoricalFactors    []string          `json:"historical_factors,omitempty"`
	EnvironmentalFactors []string          `json:"environmental_factors,omitempty"`
}

// FieldMapping maps a source invoice field to a normalized target field.
type FieldMapping struct {
	SourceField string `json:"source_field"`
	TargetField string `json:"target_field"`
}

// VendorData is the payload for vendor memories: learned field mappings
// and VAT handling for a specific supplier.
type VendorData struct {
	FieldMappings []FieldMapping `json:"field_mappings"`
	VATBehavior   string         `json:"vat_behavior,omitempty"`
}

// CorrectionData is the payload for correction memories: what triggered the
// human correction and what action fixes it.
type CorrectionData struct {
	TriggerConditions []string `json:"trigger_conditions,omitempty"`
	CorrectionAction  string   `json:"correction_action"`
	TargetField       string   `json:"target_field"`
}

// ResolutionData is the payload for resolution memories: how a discrepancy
// was resolved and what the human decided.
type ResolutionData struct {
	DiscrepancyType  string `json:"discrepancy_type"`
	ResolutionAction string `json:"resolution_action"`
	Outcome          string `json:"outcome,omitempty"`
	HumanDecision    string `json:"human_decision,omitempty"`
}

// Memory is a learned correction pattern. Exactly one of the variant
// payloads (Vendor, Correction, Resolution) is set, matching Type.
// Confidence and SuccessRate stay clamped to [0,1] after every mutation.
type Memory struct {
	CreatedAt   time.Time       `json:"created_at"`
	LastUsed    time.Time       `json:"last_used"`
	Vendor      *VendorData     `json:"vendor,omitempty"`
	Correction  *CorrectionData `json:"correction,omitempty"`
	Resolution  *ResolutionData `json:"resolution,omitempty"`
	ID          string          `json:"id"`
	Type        MemoryType      `json:"type"`
	Pattern     Pattern         `json:"pattern"`
	Context     MemoryContext   `json:"context"`
	Confidence  float64         `json:"confidence"`
	SuccessRate float64         `json:"success_rate"`
	UsageCount  int             `json:"usage_count"`
}

// Validate rejects malformed or out-of-range memory records. It is the
// boundary check: records coming from the store or external callers must
// pass before any scoring runs.
func (m *Memory) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("memory requires an id")
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return fmt.Errorf("memory %s: confidence must be between 0 and 1, got %.4f", m.ID, m.Confidence)
	}
	if m.SuccessRate < 0 || m.SuccessRate > 1 {
		return fmt.Errorf("memory %s: success rate must be between 0 and 1, got %.4f", m.ID, m.SuccessRate)
	}
	if m.UsageCount < 0 {
		return fmt.Errorf("memory %s: usage count cannot be negative", m.ID)
	}
	if m.CreatedAt.IsZero() {
		return fmt.Errorf("memory %s: missing creation time", m.ID)
	}

	switch m.Type {
	case MemoryTypeVendor:
		if m.Vendor == nil {
			return fmt.Errorf("memory %s: vendor memory requires vendor payload", m.ID)
		}
		if m.Correction != nil || m.Resolution != nil {
			return fmt.Errorf("memory %s: vendor memory carries extra payloads", m.ID)
		}
	case MemoryTypeCorrection:
		if m.Correction == nil {
			return fmt.Errorf("memory %s: correction memory requires correction payload", m.ID)
		}
		if m.Correction.TargetField == "" {
			return fmt.Errorf("memory %s: correction memory requires a target field", m.ID)
		}
		if m.Vendor != nil || m.Resolution != nil {
			return fmt.Errorf("memory %s: correction memory carries extra payloads", m.ID)
		}
	case MemoryTypeResolution:
		if m.Resolution == nil {
			return fmt.Errorf("memory %s: resolution memory requires resolution payload", m.ID)
		}
		if m.Resolution.DiscrepancyType == "" {
			return fmt.Errorf("memory %s: resolution memory requires a discrepancy type", m.ID)
		}
		if m.Vendor != nil || m.Correction != nil {
			return fmt.Errorf("memory %s: resolution memory carries extra payloads", m.ID)
		}
	default:
		return fmt.Errorf("memory %s: unknown memory type %q", m.ID, m.Type)
	}

	return nil
}

// ClampScores forces confidence and success rate back into [0,1].
// Called after every mutation so the clamping invariant always holds.
func (m *Memory) ClampScores() {
	m.Confidence = Clamp01(m.Confidence)
	m.SuccessRate = Clamp01(m.SuccessRate)
}

// IsApplicable reports whether the memory can be applied under the given
// invoice context. Vendor memories are scoped to their vendor; correction
// and resolution memories apply to invoices at or above the complexity
// they were learned at.
func (m *Memory) IsApplicable(ctx MemoryContext) bool {
	switch m.Type {
	case MemoryTypeVendor:
		return m.Context.VendorID == "" || m.Context.VendorID == ctx.VendorID
	case MemoryTypeCorrection, MemoryTypeResolution:
		return m.Context.Complexity.Rank() <= ctx.Complexity.Rank() || !ctx.Complexity.Valid()
	default:
		return false
	}
}

// CalculateRelevance gives a coarse, variant-specific relevance estimate.
// The recall engine layers full context matching on top of this.
func (m *Memory) CalculateRelevance(ctx MemoryContext) float64 {
	score := 0.0
	if m.Context.VendorID != "" && m.Context.VendorID == ctx.VendorID {
		score += 0.5
	}
	if m.Context.Language != "" && m.Context.Language == ctx.Language {
		score += 0.25
	}
	if m.Context.DocumentFormat != "" && m.Context.DocumentFormat == ctx.DocumentFormat {
		score += 0.25
	}
	return score
}

// Description returns a short human-readable summary of what the memory does.
func (m *Memory) Description() string {
	switch m.Type {
	case MemoryTypeVendor:
		return fmt.Sprintf("vendor mapping for %s (%d field mappings)",
			m.Context.VendorID, len(m.Vendor.FieldMappings))
	case MemoryTypeCorrection:
		return fmt.Sprintf("correction %q on field %s",
			m.Correction.CorrectionAction, m.Correction.TargetField)
	case MemoryTypeResolution:
		return fmt.Sprintf("resolution %q for discrepancy %s",
			m.Resolution.ResolutionAction, m.Resolution.DiscrepancyType)
	default:
		return fmt.Sprintf("memory %s", m.ID)
	}
}

// Clamp01 constrains a value to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
