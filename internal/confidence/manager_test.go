package confidence

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/recall/internal/model"
)

func testMemory(memType model.MemoryType) model.Memory {
	m := model.Memory{
		ID:        "mem-1",
		Type:      memType,
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Context: model.MemoryContext{
			VendorID:          "acme",
			Complexity:        model.ComplexityModerate,
			ExtractionQuality: model.QualityGood,
		},
		Confidence:  0.5,
		SuccessRate: 0.5,
	}
	switch memType {
	case model.MemoryTypeVendor:
		m.Vendor = &model.VendorData{
			FieldMappings: []model.FieldMapping{{SourceField: "inv_no", TargetField: "invoice_number"}},
		}
	case model.MemoryTypeCorrection:
		m.Correction = &model.CorrectionData{CorrectionAction: "normalize date", TargetField: "invoice_date"}
	case model.MemoryTypeResolution:
		m.Resolution = &model.ResolutionData{DiscrepancyType: "amount_mismatch", ResolutionAction: "accept_po"}
	}
	return m
}

func rawPayload(size int) json.RawMessage {
	return json.RawMessage(strings.Repeat("x", size))
}

func TestCalculateInitialConfidence(t *testing.T) {
	manager := NewManager(nil, DefaultConfig())

	tests := []struct {
		name        string
		memType     model.MemoryType
		quality     model.ExtractionQuality
		complexity  model.ComplexityLevel
		payloadSize int
		want        float64
	}{
		{
			name:        "vendor with excellent simple context and tiny payload",
			memType:     model.MemoryTypeVendor,
			quality:     model.QualityExcellent,
			complexity:  model.ComplexitySimple,
			payloadSize: 50,
			want:        0.6 * 1.15 * 1.05,
		},
		{
			name:        "correction with good moderate context and small payload",
			memType:     model.MemoryTypeCorrection,
			quality:     model.QualityGood,
			complexity:  model.ComplexityModerate,
			payloadSize: 200,
			want:        0.4 * 1.07 * 1.02,
		},
		{
			name:        "resolution with poor very complex context and large payload",
			memType:     model.MemoryTypeResolution,
			quality:     model.QualityPoor,
			complexity:  model.ComplexityVeryComplex,
			payloadSize: 1200,
			want:        0.7 * 0.85 * 0.95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMemory(tt.memType)
			m.Context.ExtractionQuality = tt.quality
			m.Context.Complexity = tt.complexity
			m.Pattern.Data = rawPayload(tt.payloadSize)

			got, err := manager.CalculateInitialConfidence(&m)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCalculateInitialConfidenceClampsToConfiguredMaximum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaximumConfidence = 0.7
	manager := NewManager(nil, cfg)

	m := testMemory(model.MemoryTypeResolution)
	m.Context.ExtractionQuality = model.QualityExcellent
	m.Context.Complexity = model.ComplexitySimple
	m.Pattern.Data = rawPayload(10)

	got, err := manager.CalculateInitialConfidence(&m)
	require.NoError(t, err)
	assert.Equal(t, 0.7, got)
}

func TestCalculateInitialConfidenceRejectsInvalidMemory(t *testing.T) {
	manager := NewManager(nil, DefaultConfig())
	m := testMemory(model.MemoryTypeVendor)
	m.ID = ""
	_, err := manager.CalculateInitialConfidence(&m)
	require.Error(t, err)
}

func TestReinforceMemory(t *testing.T) {
	tests := []struct {
		name      string
		event     model.ReinforcementEvent
		start     float64
		wantDelta float64
	}{
		{
			name:      "automated success with top rating",
			event:     model.ReinforcementEvent{Outcome: model.OutcomeSuccessAuto, Feedback: &model.HumanFeedback{SatisfactionRating: 5}},
			start:     0.8,
			wantDelta: 0.01,
		},
		{
			name:      "automated success without feedback",
			event:     model.ReinforcementEvent{Outcome: model.OutcomeSuccessAuto},
			start:     0.5,
			wantDelta: 0.01,
		},
		{
			name:      "human-review success",
			event:     model.ReinforcementEvent{Outcome: model.OutcomeSuccessHumanReview},
			start:     0.5,
			wantDelta: 0.007,
		},
		{
			name:      "escalation",
			event:     model.ReinforcementEvent{Outcome: model.OutcomeEscalated},
			start:     0.5,
			wantDelta: -0.005,
		},
		{
			name:      "failed validation",
			event:     model.ReinforcementEvent{Outcome: model.OutcomeFailedValidation},
			start:     0.5,
			wantDelta: -0.015,
		},
		{
			name:      "rejection",
			event:     model.ReinforcementEvent{Outcome: model.OutcomeRejected},
			start:     0.5,
			wantDelta: -0.02,
		},
		{
			name:      "rejection softened by a low rating",
			event:     model.ReinforcementEvent{Outcome: model.OutcomeRejected, Feedback: &model.HumanFeedback{SatisfactionRating: 1}},
			start:     0.5,
			wantDelta: -0.004,
		},
	}

	manager := NewManager(nil, DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMemory(model.MemoryTypeVendor)
			m.Confidence = tt.start

			delta, err := manager.ReinforceMemory(&m, tt.event)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantDelta, delta, 1e-9)
			assert.InDelta(t, tt.start+tt.wantDelta, m.Confidence, 1e-9)
		})
	}
}

func TestReinforceMemoryClampsAtMinimum(t *testing.T) {
	manager := NewManager(nil, DefaultConfig())
	m := testMemory(model.MemoryTypeVendor)
	m.Confidence = 0.105

	_, err := manager.ReinforceMemory(&m, model.ReinforcementEvent{Outcome: model.OutcomeRejected})
	require.NoError(t, err)
	assert.Equal(t, 0.1, m.Confidence)
}

func TestReinforceMemorySuccessNeverDecreases(t *testing.T) {
	manager := NewManager(nil, DefaultConfig())
	for _, start := range []float64{0.1, 0.5, 0.95, 1.0} {
		m := testMemory(model.MemoryTypeVendor)
		m.Confidence = start
		_, err := manager.ReinforceMemory(&m, model.ReinforcementEvent{Outcome: model.OutcomeSuccessAuto})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, m.Confidence, start)
	}
}

func TestReinforceMemoryRejectsInvalidEvent(t *testing.T) {
	manager := NewManager(nil, DefaultConfig())
	m := testMemory(model.MemoryTypeVendor)
	_, err := manager.ReinforceMemory(&m, model.ReinforcementEvent{Outcome: "SHRUG"})
	require.Error(t, err)
}

func TestDecayMemory(t *testing.T) {
	manager := NewManager(nil, DefaultConfig())

	t.Run("thirty idle days", func(t *testing.T) {
		m := testMemory(model.MemoryTypeVendor)
		m.Confidence = 0.9
		got := manager.DecayMemory(&m, 30*24*time.Hour)
		assert.InDelta(t, 0.6667, got, 1e-4)
	})

	t.Run("no elapsed time leaves confidence untouched", func(t *testing.T) {
		m := testMemory(model.MemoryTypeVendor)
		m.Confidence = 0.9
		got := manager.DecayMemory(&m, 0)
		assert.Equal(t, 0.9, got)
	})

	t.Run("long idle periods floor at the minimum", func(t *testing.T) {
		m := testMemory(model.MemoryTypeVendor)
		m.Confidence = 0.5
		got := manager.DecayMemory(&m, 1000*24*time.Hour)
		assert.Equal(t, 0.1, got)
	})

	t.Run("decay is monotonic in idle time", func(t *testing.T) {
		short := testMemory(model.MemoryTypeVendor)
		short.Confidence = 0.8
		long := testMemory(model.MemoryTypeVendor)
		long.Confidence = 0.8

		manager.DecayMemory(&short, 10*24*time.Hour)
		manager.DecayMemory(&long, 20*24*time.Hour)
		assert.Greater(t, short.Confidence, long.Confidence)
	})
}

func TestEvaluateMemoryReliability(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	manager := NewManager(nil, DefaultConfig())
	manager.now = func() time.Time { return now }

	t.Run("heavily used successful memory scores very high", func(t *testing.T) {
		m := testMemory(model.MemoryTypeVendor)
		m.SuccessRate = 1.0
		m.UsageCount = 100
		m.CreatedAt = now.Add(-10 * 24 * time.Hour)
		m.LastUsed = now.Add(-24 * time.Hour)

		report := manager.EvaluateMemoryReliability(&m)
		assert.Equal(t, "very_high", report.Classification)
		assert.InDelta(t, 0.9944, report.Score, 1e-3)
		assert.Empty(t, report.Recommendations)
	})

	t.Run("stale failing memory scores very low with recommendations", func(t *testing.T) {
		m := testMemory(model.MemoryTypeVendor)
		m.SuccessRate = 0.2
		m.UsageCount = 0
		m.CreatedAt = now.Add(-100 * 24 * time.Hour)
		m.LastUsed = now.Add(-100 * 24 * time.Hour)

		report := manager.EvaluateMemoryReliability(&m)
		assert.Equal(t, "very_low", report.Classification)
		assert.InDelta(t, 0.2333, report.Score, 1e-3)
		assert.Len(t, report.Recommendations, 3)
	})
}

func TestClassifyReliability(t *testing.T) {
	assert.Equal(t, "very_high", classifyReliability(0.9))
	assert.Equal(t, "high", classifyReliability(0.7))
	assert.Equal(t, "moderate", classifyReliability(0.5))
	assert.Equal(t, "low", classifyReliability(0.3))
	assert.Equal(t, "very_low", classifyReliability(0.29))
}

func TestDaysBetween(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1.0, daysBetween(time.Time{}, now))
	assert.Equal(t, 1.0, daysBetween(now.Add(time.Hour), now))
	assert.Equal(t, 1.0, daysBetween(now.Add(-12*time.Hour), now))
	assert.InDelta(t, 2.0, daysBetween(now.Add(-48*time.Hour), now), 1e-9)
}
