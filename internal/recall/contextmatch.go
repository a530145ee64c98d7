package recall

import (
	"github.com/ledgerline/recall/internal/model"
)

// Context match term weights. Additive, capped at 1.0.
const (
	vendorMatchWeight     = 0.4
	patternMatchWeight    = 0.2
	languageMatchWeight   = 0.15
	complexityMatchWeight = 0.15
	qualityMatchWeight    = 0.1
)

// CalculateContextMatch scores how well a memory's learned context fits
// the current invoice. Each satisfied dimension adds its weight; the total
// is capped at 1.0.
func CalculateContextMatch(memory *model.Memory, ctx model.MemoryContext) model.ContextMatchDetails {
	details := model.ContextMatchDetails{}
	score := 0.0

	if memory.Context.VendorID != "" && memory.Context.VendorID == ctx.VendorID {
		details.VendorMatch = true
		details.MatchingFactors = append(details.MatchingFactors, "vendor")
		score += vendorMatchWeight
	}

	if patternTypeCompatible(memory, ctx) {
		details.PatternMatch = true
		details.MatchingFactors = append(details.MatchingFactors, "pattern_type")
		score += patternMatchWeight
	}

	if memory.Context.Language != "" && memory.Context.Language == ctx.Language {
		details.LanguageMatch = true
		details.MatchingFactors = append(details.MatchingFactors, "language")
		score += languageMatchWeight
	}

	if complexityCompatible(memory.Context.Complexity, ctx.Complexity) {
		details.ComplexityMatch = true
		details.MatchingFactors = append(details.MatchingFactors, "complexity")
		score += complexityMatchWeight
	}

	if qualityCompatible(memory.Context.ExtractionQuality, ctx.ExtractionQuality) {
		details.QualityMatch = true
		details.MatchingFactors = append(details.MatchingFactors, "extraction_quality")
		score += qualityMatchWeight
	}

	if score > 1.0 {
		score = 1.0
	}
	details.Similarity = score
	return details
}

// patternTypeCompatible currently treats every pattern type as compatible.
// It exists as the hook where pattern-type restrictions would plug in; the
// observed contract is "always true" and we keep it that way rather than
// guess at a restriction.
func patternTypeCompatible(_ *model.Memory, _ model.MemoryContext) bool {
	return true
}

// complexityCompatible: a memory applies to invoices at its own complexity
// level or higher.
func complexityCompatible(memoryLevel, contextLevel model.ComplexityLevel) bool {
	mr, cr := memoryLevel.Rank(), contextLevel.Rank()
	if mr < 0 || cr < 0 {
		return false
	}
	return mr <= cr
}

// qualityCompatible: a memory learned at quality Q applies to contexts of
// quality Q or lower.
func qualityCompatible(memoryQuality, contextQuality model.ExtractionQuality) bool {
	mr, cr := memoryQuality.Rank(), contextQuality.Rank()
	if mr < 0 || cr < 0 {
		return false
	}
	return cr <= mr
}
