package confidence

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ledgerline/recall/internal/model"
)

// OverallConfidence is the component breakdown of the confidence score for
// an entire invoice, given the memories applied to it.
type OverallConfidence struct {
	Reasoning            string  `json:"reasoning"`
	BaseConfidence       float64 `json:"base_confidence"`
	ReinforcementFactor  float64 `json:"reinforcement_factor"`
	DecayFactor          float64 `json:"decay_factor"`
	ReliabilityBonus     float64 `json:"reliability_bonus"`
	ContextualAdjustment float64 `json:"contextual_adjustment"`
	Final                float64 `json:"final"`
}

// CalculateOverallConfidence combines the applied memories into one
// processing confidence for the invoice. An empty memory set yields zero
// components with reasoning stating that no memories were available.
func (m *Manager) CalculateOverallConfidence(memories []model.Memory, ctx model.InvoiceContext) OverallConfidence {
	if len(memories) == 0 {
		return OverallConfidence{
			Reasoning: "no memories available for this invoice; overall confidence is zero",
		}
	}

	now := m.now()

	var (
		weightedSum     float64
		totalWeight     float64
		successSum      float64
		idleDaysSum     float64
		reliabilitySum  float64
		vendorMatches   int
		languageMatches int
	)

	for i := range memories {
		mem := &memories[i]

		weight := float64(mem.UsageCount + 1)
		weightedSum += mem.Confidence * weight
		totalWeight += weight

		successSum += mem.SuccessRate
		idleDaysSum += idleDays(mem, now)
		reliabilitySum += m.EvaluateMemoryReliability(mem).Score

		if mem.Context.VendorID != "" && mem.Context.VendorID == ctx.VendorID {
			vendorMatches++
		}
		if mem.Context.Language != "" && mem.Context.Language == ctx.Language {
			languageMatches++
		}
	}

	count := float64(len(memories))
	base := weightedSum / totalWeight

	reinforcement := (successSum/count - 0.5) * 0.2
	decay := math.Max(-0.2, -(idleDaysSum/count)*0.01)
	reliabilityBonus := (reliabilitySum/count - 0.5) * 0.1
	contextual := math.Min(0.2,
		(float64(vendorMatches)/count)*0.1+(float64(languageMatches)/count)*0.05)

	final := model.Clamp01(base + reinforcement + decay + reliabilityBonus + contextual)

	result := OverallConfidence{
		BaseConfidence:       base,
		ReinforcementFactor:  reinforcement,
		DecayFactor:          decay,
		ReliabilityBonus:     reliabilityBonus,
		ContextualAdjustment: contextual,
		Final:                final,
	}
	result.Reasoning = overallReasoning(result, len(memories), vendorMatches, languageMatches)
	return result
}

// idleDays measures time since last use without the one-day floor that
// per-day rates need: a memory used minutes ago contributes almost no
// decay. Never-used memories fall back to their creation time.
func idleDays(mem *model.Memory, now time.Time) float64 {
	last := mem.LastUsed
	if last.IsZero() {
		last = mem.CreatedAt
	}
	if last.IsZero() || !now.After(last) {
		return 0
	}
	return now.Sub(last).Hours() / 24
}

func overallReasoning(c OverallConfidence, memoryCount, vendorMatches, languageMatches int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall confidence %.3f from %d applied memories. ", c.Final, memoryCount)
	fmt.Fprintf(&b, "Usage-weighted base confidence is %.3f. ", c.BaseConfidence)

	if c.ReinforcementFactor >= 0 {
		fmt.Fprintf(&b, "Success history adds %.3f. ", c.ReinforcementFactor)
	} else {
		fmt.Fprintf(&b, "Weak success history subtracts %.3f. ", -c.ReinforcementFactor)
	}

	fmt.Fprintf(&b, "Idle-time decay contributes %.3f. ", c.DecayFactor)

	if c.ReliabilityBonus >= 0 {
		fmt.Fprintf(&b, "Reliability adds %.3f. ", c.ReliabilityBonus)
	} else {
		fmt.Fprintf(&b, "Low reliability subtracts %.3f. ", -c.ReliabilityBonus)
	}

	fmt.Fprintf(&b, "Context fit adds %.3f (%d vendor matches, %d language matches).",
		c.ContextualAdjustment, vendorMatches, languageMatches)
	return b.String()
}
