package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/recall/internal/model"
)

func TestAssessRiskNoFactors(t *testing.T) {
	engine := NewEngine(fixedThreshold(0.7), DefaultConfig())

	risk := engine.AssessRisk(model.DecisionContext{
		Confidence:      0.9,
		AppliedMemories: trustedMemories(),
		Invoice:         model.InvoiceContext{Amount: 500},
	})

	assert.Equal(t, model.RiskVeryLow, risk.Level)
	assert.Empty(t, risk.Factors)
	assert.Empty(t, risk.Mitigations)
}

func TestAssessRiskFinancialSeverityScalesWithAmount(t *testing.T) {
	engine := NewEngine(fixedThreshold(0.7), DefaultConfig())

	tests := []struct {
		name         string
		amount       float64
		wantSeverity float64
	}{
		{"just above threshold", 12000, 0.6},
		{"double the threshold caps at one", 25000, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := engine.AssessRisk(model.DecisionContext{
				Confidence:      0.9,
				AppliedMemories: trustedMemories(),
				Invoice:         model.InvoiceContext{Amount: tt.amount},
			})
			require.Len(t, risk.Factors, 1)
			assert.Equal(t, model.RiskFinancial, risk.Factors[0].Type)
			assert.InDelta(t, tt.wantSeverity, risk.Factors[0].Severity, 1e-9)
		})
	}
}

func TestAssessRiskCollectsAllApplicableFactors(t *testing.T) {
	engine := NewEngine(fixedThreshold(0.7), DefaultConfig())

	risk := engine.AssessRisk(model.DecisionContext{
		Confidence: 0.3,
		Invoice:    model.InvoiceContext{Amount: 25000},
		ValidationIssues: []model.ValidationIssue{
			{Severity: model.SeverityError, Field: "total", Message: "sum mismatch"},
			{Severity: model.SeverityWarning, Field: "date", Message: "ambiguous format"},
		},
	})

	// financial, low confidence, no memories, compliance
	require.Len(t, risk.Factors, 4)
	assert.Equal(t, model.RiskFinancial, risk.Factors[0].Type)
	assert.Equal(t, model.RiskOperational, risk.Factors[1].Type)
	assert.InDelta(t, 0.4, risk.Factors[1].Severity, 1e-9)
	assert.Equal(t, model.RiskOperational, risk.Factors[2].Type)
	assert.Equal(t, model.RiskCompliance, risk.Factors[3].Type)
	assert.InDelta(t, 0.4, risk.Factors[3].Severity, 1e-9)

	assert.Equal(t, model.RiskVeryHigh, risk.Level)

	// Two operational factors still yield a single operational mitigation.
	assert.Len(t, risk.Mitigations, 3)
}

func TestAssessRiskFlagsLowConfidenceMemories(t *testing.T) {
	engine := NewEngine(fixedThreshold(0.7), DefaultConfig())

	risk := engine.AssessRisk(model.DecisionContext{
		Confidence: 0.9,
		AppliedMemories: []model.RankedMemory{
			appliedMemory("mem-good", 0.9),
			appliedMemory("mem-shaky", 0.4),
		},
		Invoice: model.InvoiceContext{Amount: 500},
	})

	require.Len(t, risk.Factors, 1)
	assert.Equal(t, model.RiskTechnical, risk.Factors[0].Type)
	assert.InDelta(t, 0.5, risk.Factors[0].Severity, 1e-9)
}

func TestBucketRiskLevel(t *testing.T) {
	tests := []struct {
		name       string
		severities []float64
		want       model.RiskLevel
	}{
		{"no factors", nil, model.RiskVeryLow},
		{"single tiny factor", []float64{0.1}, model.RiskVeryLow},
		{"low", []float64{0.2}, model.RiskLow},
		{"medium", []float64{0.45}, model.RiskMedium},
		{"high", []float64{0.65}, model.RiskHigh},
		{"very high", []float64{0.85}, model.RiskVeryHigh},
		{"max dominates a low mean", []float64{0.9, 0.1, 0.1}, model.RiskVeryHigh},
		{"mean dominates when no single factor is extreme", []float64{0.5, 0.5, 0.5}, model.RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factors := make([]model.RiskFactor, len(tt.severities))
			for i, s := range tt.severities {
				factors[i] = model.RiskFactor{Type: model.RiskOperational, Severity: s}
			}
			assert.Equal(t, tt.want, bucketRiskLevel(factors))
		})
	}
}

func TestCountErrorIssues(t *testing.T) {
	issues := []model.ValidationIssue{
		{Severity: model.SeverityInfo, Message: "fyi"},
		{Severity: model.SeverityWarning, Message: "hm"},
		{Severity: model.SeverityError, Message: "bad"},
		{Severity: model.SeverityCritical, Message: "very bad"},
	}
	assert.Equal(t, 2, countErrorIssues(issues))
	assert.True(t, hasCriticalIssue(issues))
	assert.False(t, hasCriticalIssue(issues[:3]))
}
