package testutil

import (
	"time"

	"github.com/ledgerline/recall/internal/model"
)

// MemoryBuilder builds memory fixtures with sensible defaults: a vendor
// memory for "acme" created on a fixed date with one field mapping.
type MemoryBuilder struct {
	m model.Memory
}

// NewMemory starts a builder for a vendor memory with the given id.
func NewMemory(id string) *MemoryBuilder {
	return &MemoryBuilder{
		m: model.Memory{
			ID:        id,
			Type:      model.MemoryTypeVendor,
			CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			Vendor: &model.VendorData{
				FieldMappings: []model.FieldMapping{{SourceField: "inv_no", TargetField: "invoice_number"}},
			},
			Context: model.MemoryContext{
				VendorID:          "acme",
				Complexity:        model.ComplexitySimple,
				ExtractionQuality: model.QualityGood,
			},
			Confidence:  0.7,
			SuccessRate: 0.6,
		},
	}
}

// AsCorrection turns the fixture into a correction memory.
func (b *MemoryBuilder) AsCorrection(targetField string) *MemoryBuilder {
	b.m.Type = model.MemoryTypeCorrection
	b.m.Vendor = nil
	b.m.Resolution = nil
	b.m.Correction = &model.CorrectionData{CorrectionAction: "normalize", TargetField: targetField}
	return b
}

// AsResolution turns the fixture into a resolution memory.
func (b *MemoryBuilder) AsResolution(discrepancyType, action string) *MemoryBuilder {
	b.m.Type = model.MemoryTypeResolution
	b.m.Vendor = nil
	b.m.Correction = nil
	b.m.Resolution = &model.ResolutionData{DiscrepancyType: discrepancyType, ResolutionAction: action}
	return b
}

// Vendor sets the learned vendor scope; empty means generic.
func (b *MemoryBuilder) Vendor(vendorID string) *MemoryBuilder {
	b.m.Context.VendorID = vendorID
	return b
}

// Confidence sets the memory's confidence score.
func (b *MemoryBuilder) Confidence(v float64) *MemoryBuilder {
	b.m.Confidence = v
	return b
}

// SuccessRate sets the memory's success rate.
func (b *MemoryBuilder) SuccessRate(v float64) *MemoryBuilder {
	b.m.SuccessRate = v
	return b
}

// UsageCount sets how often the memory has been applied.
func (b *MemoryBuilder) UsageCount(n int) *MemoryBuilder {
	b.m.UsageCount = n
	return b
}

// CreatedAt sets the creation time.
func (b *MemoryBuilder) CreatedAt(t time.Time) *MemoryBuilder {
	b.m.CreatedAt = t
	return b
}

// LastUsed sets the last-used time.
func (b *MemoryBuilder) LastUsed(t time.Time) *MemoryBuilder {
	b.m.LastUsed = t
	return b
}

// PatternType sets the trigger pattern type.
func (b *MemoryBuilder) PatternType(patternType string) *MemoryBuilder {
	b.m.Pattern.Type = patternType
	return b
}

// Language sets the learned document language.
func (b *MemoryBuilder) Language(language string) *MemoryBuilder {
	b.m.Context.Language = language
	return b
}

// Build returns the finished memory.
func (b *MemoryBuilder) Build() model.Memory {
	return b.m
}
