package recall

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ledgerline/recall/internal/model"
)

// rankMemories scores and orders candidates by the weighted combination of
// relevance, confidence, and recency. The sort is stable: candidates with
// equal scores keep their retrieval order, so identical inputs always
// produce identical output.
func (e *Engine) rankMemories(candidates []scoredCandidate, now time.Time) []model.RankedMemory {
	ranked := make([]model.RankedMemory, 0, len(candidates))

	for _, c := range candidates {
		recency := recencyScore(c.memory, now)

		score := c.match.Similarity*e.cfg.RelevanceWeight +
			c.memory.Confidence*e.cfg.ConfidenceWeight +
			recency*e.cfg.RecencyWeight

		ranked = append(ranked, model.RankedMemory{
			Memory:          c.memory,
			ContextMatch:    c.match,
			RankingScore:    score,
			RelevanceScore:  c.match.Similarity,
			ConfidenceScore: c.memory.Confidence,
			RecencyScore:    recency,
			SelectionReason: selectionReason(c.memory, c.match, score),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RankingScore > ranked[j].RankingScore
	})

	return ranked
}

// recencyScore decays with a 30-day scale: e^(-daysSinceLastUse/30).
// A never-used memory is aged from its creation time so it cannot outrank
// memories that were actually applied recently.
func recencyScore(memory model.Memory, now time.Time) float64 {
	ref := memory.LastUsed
	if ref.IsZero() {
		ref = memory.CreatedAt
	}
	if ref.IsZero() || !now.After(ref) {
		return 1.0
	}
	days := now.Sub(ref).Hours() / 24
	return math.Exp(-days / 30)
}

func selectionReason(memory model.Memory, match model.ContextMatchDetails, score float64) string {
	factors := "no matching context factors"
	if len(match.MatchingFactors) > 0 {
		factors = "matched on "
		for i, f := range match.MatchingFactors {
			if i > 0 {
				factors += ", "
			}
			factors += f
		}
	}
	return fmt.Sprintf("%s: %s (similarity %.2f, confidence %.2f, ranking %.3f)",
		memory.Description(), factors, match.Similarity, memory.Confidence, score)
}
