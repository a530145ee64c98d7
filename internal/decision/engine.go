// Package decision turns confidence, risk, and policy into a processing
// decision with auditable reasoning.
package decision

import (
	"context"
	"log/slog"

	"github.com/ledgerline/recall/internal/model"
)

// ThresholdSource provides the current escalation threshold. The
// confidence manager implements it; tests substitute a fixed value.
type ThresholdSource interface {
	EscalationThreshold(ctx context.Context) float64
}

// Config holds the decision policy knobs.
type Config struct {
	AutoApprovalThreshold         float64
	RejectionThreshold            float64
	HighValueThreshold            float64
	ConservativeModeForNewVendors bool
}

// DefaultConfig returns the default decision policy.
func DefaultConfig() Config {
	return Config{
		AutoApprovalThreshold:         0.85,
		RejectionThreshold:            0.3,
		HighValueThreshold:            10000,
		ConservativeModeForNewVendors: true,
	}
}

// Engine evaluates the decision table for invoices.
type Engine struct {
	thresholds ThresholdSource
	cfg        Config
}

// NewEngine creates a decision engine using the given threshold source.
func NewEngine(thresholds ThresholdSource, cfg Config) *Engine {
	return &Engine{
		thresholds: thresholds,
		cfg:        cfg,
	}
}

// Decision confidence multipliers per risk level.
var riskConfidenceFactors = map[model.RiskLevel]float64{
	model.RiskVeryLow:  1.10,
	model.RiskLow:      1.05,
	model.RiskMedium:   1.00,
	model.RiskHigh:     0.90,
	model.RiskVeryHigh: 0.80,
}

// MakeDecision evaluates the ordered decision table and always returns a
// complete Decision. Internal failures are converted into a conservative
// human-review decision rather than propagated.
func (e *Engine) MakeDecision(ctx context.Context, dc model.DecisionContext) (decision model.Decision) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("decision evaluation failed, falling back to human review", "panic", r)
			decision = e.safeFallback()
		}
	}()

	threshold := e.thresholds.EscalationThreshold(ctx)
	risk := e.AssessRisk(dc)

	decisionType, rationale := e.evaluateRules(dc, risk, threshold)

	decision = model.Decision{
		Type:               decisionType,
		Confidence:         decisionConfidence(dc.Confidence, risk.Level, countErrorIssues(dc.ValidationIssues)),
		RiskAssessment:     risk,
		RecommendedActions: e.GenerateRecommendedActions(dc, decisionType),
	}
	decision.Reasoning = buildReasoning(dc, decision, risk, threshold, e.cfg, rationale)

	slog.Info("invoice decision",
		"invoice", dc.Invoice.InvoiceID,
		"vendor", dc.Invoice.VendorID,
		"decision", decision.Type,
		"confidence", decision.Confidence,
		"risk", risk.Level)

	return decision
}

// evaluateRules walks the decision table in order; the first matching rule
// wins. Returns the decision and the matched-rule rationale.
func (e *Engine) evaluateRules(dc model.DecisionContext, risk model.RiskAssessment, threshold float64) (model.DecisionType, string) {
	// Rule 1: critical validation failures are terminal.
	if hasCriticalIssue(dc.ValidationIssues) {
		return model.DecisionRejectInvoice,
			"a critical validation issue was found, which rejects the invoice regardless of confidence"
	}

	// Rule 2: too little confidence to act at all.
	if dc.Confidence < e.cfg.RejectionThreshold {
		return model.DecisionRequestInfo,
			"confidence is below the rejection threshold, so more information is needed before any processing"
	}

	// Rule 3: severe risk goes straight to an expert.
	if risk.Level == model.RiskVeryHigh && anySeverityAbove(risk.Factors, 0.8) {
		return model.DecisionEscalateToExpert,
			"risk is very high with at least one severe factor, requiring expert judgment"
	}

	// Rule 4: confident and acceptably risky.
	if dc.Confidence >= e.cfg.AutoApprovalThreshold && risk.Level.AtMost(model.RiskMedium) {
		return model.DecisionAutoApprove,
			"confidence clears the auto-approval threshold and risk is no worse than medium"
	}

	// Rule 5: conservative handling of vendors we know nothing about.
	if e.cfg.ConservativeModeForNewVendors && len(dc.AppliedMemories) == 0 &&
		dc.Confidence < e.cfg.AutoApprovalThreshold {
		return model.DecisionHumanReview,
			"no learned memories apply and conservative mode routes unfamiliar vendors to a human"
	}

	// Rule 6: above the escalation threshold, approve unless the invoice
	// is both high-value and high-risk.
	if dc.Confidence >= threshold {
		if dc.Invoice.Amount > e.cfg.HighValueThreshold && risk.Level.AtLeast(model.RiskHigh) {
			return model.DecisionHumanReview,
				"confidence clears the escalation threshold but the invoice is high-value and high-risk"
		}
		return model.DecisionAutoApprove,
			"confidence clears the escalation threshold and the invoice is not both high-value and high-risk"
	}

	// Rule 7: default conservative branch.
	return model.DecisionHumanReview,
		"confidence is below the escalation threshold, defaulting to human review"
}

// decisionConfidence derives the decision's own confidence from the
// processing confidence, the risk level, and validation errors.
func decisionConfidence(processingConfidence float64, level model.RiskLevel, errorCount int) float64 {
	factor, ok := riskConfidenceFactors[level]
	if !ok {
		factor = 1.0
	}

	confidence := processingConfidence * factor

	errorPenalty := 1 - float64(errorCount)*0.1
	if errorPenalty < 0.5 {
		errorPenalty = 0.5
	}
	confidence *= errorPenalty

	return model.Clamp01(confidence)
}

// anySeverityAbove reports whether any factor exceeds the given severity.
func anySeverityAbove(factors []model.RiskFactor, severity float64) bool {
	for _, f := range factors {
		if f.Severity > severity {
			return true
		}
	}
	return false
}

// safeFallback builds the conservative decision returned when evaluation
// itself fails.
func (e *Engine) safeFallback() model.Decision {
	return model.Decision{
		Type:       model.DecisionHumanReview,
		Confidence: 0,
		Reasoning: "Decision evaluation failed internally; routing to human review as the safe default. " +
			"The failure has been logged for investigation.",
		RecommendedActions: []model.RecommendedAction{
			{
				Type:        model.ActionEscalateIssue,
				Description: "review this invoice manually; the automated decision pipeline encountered an internal error",
			},
		},
		RiskAssessment: model.RiskAssessment{
			Level: model.RiskVeryHigh,
			Factors: []model.RiskFactor{
				{
					Type:        model.RiskTechnical,
					Severity:    1.0,
					Description: "decision pipeline failure",
				},
			},
			Mitigations: []string{"process manually until the pipeline error is resolved"},
		},
	}
}
