// Package confidence scores, reinforces, and decays trust in learned memories.
package confidence

import (
	"fmt"
	"math"
	"time"

	"github.com/ledgerline/recall/internal/model"
	"github.com/ledgerline/recall/internal/service"
)

// Config holds the tunable knobs for confidence management.
type Config struct {
	BaseConfidence    float64
	MaxReinforcement  float64
	DecayRatePerDay   float64
	MinimumConfidence float64
	MaximumConfidence float64
	LearningRate      float64
	ContextWeight     float64
	SuccessRateWeight float64
	RecencyWeight     float64
}

// DefaultConfig returns the default confidence configuration.
func DefaultConfig() Config {
	return Config{
		BaseConfidence:    0.5,
		MaxReinforcement:  0.1,
		DecayRatePerDay:   0.01,
		MinimumConfidence: 0.1,
		MaximumConfidence: 1.0,
		LearningRate:      0.1,
		ContextWeight:     0.3,
		SuccessRateWeight: 0.4,
		RecencyWeight:     0.3,
	}
}

// Manager computes and maintains memory confidence scores. All methods are
// pure computations except the threshold operations, which go through the
// injected store.
type Manager struct {
	store service.MemoryStore
	now   func() time.Time
	cfg   Config
}

// NewManager creates a confidence manager backed by the given store.
func NewManager(store service.MemoryStore, cfg Config) *Manager {
	return &Manager{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Variant base priors for initial confidence.
const (
	vendorBaseConfidence     = 0.6
	correctionBaseConfidence = 0.4
	resolutionBaseConfidence = 0.7
)

// CalculateInitialConfidence computes the starting confidence for a newly
// learned memory from its variant prior, the context it was learned in,
// and the size of its pattern payload.
func (m *Manager) CalculateInitialConfidence(memory *model.Memory) (float64, error) {
	if err := memory.Validate(); err != nil {
		return 0, fmt.Errorf("cannot score memory: %w", err)
	}

	var base float64
	switch memory.Type {
	case model.MemoryTypeVendor:
		base = vendorBaseConfidence
	case model.MemoryTypeCorrection:
		base = correctionBaseConfidence
	case model.MemoryTypeResolution:
		base = resolutionBaseConfidence
	}

	confidence := base * (1 + contextAdjustment(memory.Context))
	confidence *= 1 + payloadSizeAdjustment(memory.Pattern)

	return m.clamp(confidence), nil
}

// contextAdjustment sums the extraction-quality and complexity terms.
func contextAdjustment(ctx model.MemoryContext) float64 {
	adjustment := 0.0

	switch ctx.ExtractionQuality {
	case model.QualityExcellent:
		adjustment += 0.10
	case model.QualityGood:
		adjustment += 0.05
	case model.QualityFair:
		adjustment -= 0.05
	case model.QualityPoor:
		adjustment -= 0.10
	}

	switch ctx.Complexity {
	case model.ComplexitySimple:
		adjustment += 0.05
	case model.ComplexityModerate:
		adjustment += 0.02
	case model.ComplexityComplex:
		adjustment -= 0.02
	case model.ComplexityVeryComplex:
		adjustment -= 0.05
	}

	return adjustment
}

// payloadSizeAdjustment derives a reliability term from the serialized
// pattern payload size: smaller patterns are more reliable.
func payloadSizeAdjustment(pattern model.Pattern) float64 {
	size := len(pattern.Data)
	switch {
	case size < 100:
		return 0.05
	case size < 500:
		return 0.02
	case size < 1000:
		return -0.02
	default:
		return -0.05
	}
}

// ReinforceMemory applies an outcome to a memory's confidence and returns
// the applied delta. The memory is mutated in place; persistence is the
// caller's concern.
func (m *Manager) ReinforceMemory(memory *model.Memory, event model.ReinforcementEvent) (float64, error) {
	if err := event.Validate(); err != nil {
		return 0, err
	}

	var base float64
	switch event.Outcome {
	case model.OutcomeSuccessAuto:
		base = m.cfg.MaxReinforcement
	case model.OutcomeSuccessHumanReview:
		base = 0.7 * m.cfg.MaxReinforcement
	case model.OutcomeEscalated:
		base = -0.5 * m.cfg.MaxReinforcement
	case model.OutcomeFailedValidation:
		base = -1.5 * m.cfg.MaxReinforcement
	case model.OutcomeRejected:
		base = -2.0 * m.cfg.MaxReinforcement
	}

	if event.Feedback != nil {
		base *= float64(event.Feedback.SatisfactionRating) / 5.0
	}

	reinforcement := base * m.cfg.LearningRate
	memory.Confidence = m.clamp(memory.Confidence + reinforcement)
	memory.ClampScores()
	return reinforcement, nil
}

// DecayMemory applies exponential idle decay to a memory's confidence.
// Decay is multiplicative, so long-idle memories approach the minimum
// confidence floor asymptotically rather than crossing zero.
func (m *Manager) DecayMemory(memory *model.Memory, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return memory.Confidence
	}

	days := elapsed.Hours() / 24
	factor := math.Exp(-days * m.cfg.DecayRatePerDay)

	decayed := memory.Confidence * factor
	if decayed < m.cfg.MinimumConfidence {
		decayed = m.cfg.MinimumConfidence
	}
	memory.Confidence = decayed
	memory.ClampScores()
	return memory.Confidence
}

// ReliabilityReport is the outcome of evaluating a single memory's track
// record.
type ReliabilityReport struct {
	Classification  string   `json:"classification"`
	Recommendations []string `json:"recommendations,omitempty"`
	Score           float64  `json:"score"`
}

// EvaluateMemoryReliability scores how dependable a memory has proven,
// from its success rate, usage frequency, and recency of use.
func (m *Manager) EvaluateMemoryReliability(memory *model.Memory) ReliabilityReport {
	now := m.now()

	successImpact := (memory.SuccessRate - 0.5) * 2

	daysSinceCreation := daysBetween(memory.CreatedAt, now)
	usageImpact := math.Min(1, (float64(memory.UsageCount)/daysSinceCreation)/10)

	daysSinceLastUse := daysBetween(memory.LastUsed, now)
	recencyImpact := math.Max(-1, 1-daysSinceLastUse/30)

	mean := (successImpact + usageImpact + recencyImpact) / 3
	score := model.Clamp01((mean + 1) / 2)

	report := ReliabilityReport{
		Score:          score,
		Classification: classifyReliability(score),
	}

	if memory.SuccessRate < 0.7 {
		report.Recommendations = append(report.Recommendations,
			"success rate is low: refine the memory's trigger patterns")
	}
	if daysSinceLastUse > 30 {
		report.Recommendations = append(report.Recommendations,
			"memory has been idle for over a month: verify it still applies")
	}
	if memory.UsageCount == 0 {
		report.Recommendations = append(report.Recommendations,
			"memory has never been applied: consider validating it against recent invoices")
	}

	return report
}

func classifyReliability(score float64) string {
	switch {
	case score >= 0.9:
		return "very_high"
	case score >= 0.7:
		return "high"
	case score >= 0.5:
		return "moderate"
	case score >= 0.3:
		return "low"
	default:
		return "very_low"
	}
}

// daysBetween returns the elapsed days between two instants, floored at
// one day to keep per-day rates well-defined for fresh memories.
func daysBetween(from, to time.Time) float64 {
	if from.IsZero() || !to.After(from) {
		return 1
	}
	days := to.Sub(from).Hours() / 24
	if days < 1 {
		return 1
	}
	return days
}

func (m *Manager) clamp(v float64) float64 {
	if v < m.cfg.MinimumConfidence {
		return m.cfg.MinimumConfidence
	}
	if v > m.cfg.MaximumConfidence {
		return m.cfg.MaximumConfidence
	}
	return v
}
