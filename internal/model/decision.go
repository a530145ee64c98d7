package model

import "fmt"

// DecisionType is the final routing outcome for an invoice.
type DecisionType string

// Decision types.
const (
	DecisionAutoApprove      DecisionType = "AUTO_APPROVE"
	DecisionHumanReview      DecisionType = "HUMAN_REVIEW_REQUIRED"
	DecisionEscalateToExpert DecisionType = "ESCALATE_TO_EXPERT"
	DecisionRejectInvoice    DecisionType = "REJECT_INVOICE"
	DecisionRequestInfo      DecisionType = "REQUEST_ADDITIONAL_INFO"
)

// RiskType names a category of risk contributing to the overall level.
type RiskType string

// Risk factor categories.
const (
	RiskFinancial    RiskType = "financial"
	RiskOperational  RiskType = "operational"
	RiskCompliance   RiskType = "compliance"
	RiskTechnical    RiskType = "technical"
	RiskReputational RiskType = "reputational"
)

// RiskFactor is one severity-scored contributor to overall risk.
type RiskFactor struct {
	Type        RiskType `json:"type"`
	Severity    float64  `json:"severity"`
	Description string   `json:"description"`
}

// RiskAssessment combines individual risk factors into an overall level
// with deterministic mitigation suggestions.
type RiskAssessment struct {
	Level       RiskLevel    `json:"level"`
	Factors     []RiskFactor `json:"factors"`
	Mitigations []string     `json:"mitigations"`
}

// ActionType classifies a recommended follow-up action.
type ActionType string

// Recommended action types.
const (
	ActionApplyCorrection ActionType = "APPLY_CORRECTION"
	ActionEscalateIssue   ActionType = "ESCALATE_ISSUE"
	ActionContactVendor   ActionType = "CONTACT_VENDOR"
	ActionValidateField   ActionType = "VALIDATE_FIELD"
	ActionUpdateMemory    ActionType = "UPDATE_MEMORY"
)

// RecommendedAction is a concrete follow-up attached to a decision.
type RecommendedAction struct {
	Type        ActionType `json:"type"`
	Description string     `json:"description"`
	Field       string     `json:"field,omitempty"`
}

// Decision is the final, immutable outcome for one invoice. Reasoning and
// RecommendedActions are always non-empty.
type Decision struct {
	Type               DecisionType        `json:"type"`
	Confidence         float64             `json:"confidence"`
	Reasoning          string              `json:"reasoning"`
	RecommendedActions []RecommendedAction `json:"recommended_actions"`
	RiskAssessment     RiskAssessment      `json:"risk_assessment"`
}

// Validate ensures the decision satisfies its structural contract.
func (d *Decision) Validate() error {
	switch d.Type {
	case DecisionAutoApprove, DecisionHumanReview, DecisionEscalateToExpert,
		DecisionRejectInvoice, DecisionRequestInfo:
	default:
		return fmt.Errorf("unknown decision type: %q", d.Type)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("decision confidence must be between 0 and 1, got %.4f", d.Confidence)
	}
	if d.Reasoning == "" {
		return fmt.Errorf("decision requires reasoning")
	}
	if len(d.RecommendedActions) == 0 {
		return fmt.Errorf("decision requires at least one recommended action")
	}
	return nil
}

// InvoiceContext describes the invoice being processed, as consumed by
// recall, confidence, and decision components.
type InvoiceContext struct {
	InvoiceID         string            `json:"invoice_id,omitempty"`
	VendorID          string            `json:"vendor_id"`
	Amount            float64           `json:"amount"`
	Language          string            `json:"language,omitempty"`
	DocumentFormat    string            `json:"document_format,omitempty"`
	Complexity        ComplexityLevel   `json:"complexity"`
	ExtractionQuality ExtractionQuality `json:"extraction_quality"`
}

// MemoryContext converts the invoice view into the context shape memories
// are matched against.
func (ic InvoiceContext) MemoryContext() MemoryContext {
	return MemoryContext{
		VendorID:          ic.VendorID,
		Complexity:        ic.Complexity,
		Language:          ic.Language,
		DocumentFormat:    ic.DocumentFormat,
		ExtractionQuality: ic.ExtractionQuality,
	}
}

// DecisionContext bundles everything the decision engine needs for one
// invoice: the overall processing confidence, the memories that were
// applied, and any validation issues found upstream.
type DecisionContext struct {
	Invoice          InvoiceContext    `json:"invoice"`
	AppliedMemories  []RankedMemory    `json:"applied_memories,omitempty"`
	ValidationIssues []ValidationIssue `json:"validation_issues,omitempty"`
	Confidence       float64           `json:"confidence"`
}

// ReinforcementOutcome describes how an applied memory worked out.
type ReinforcementOutcome string

// Reinforcement outcomes.
const (
	OutcomeSuccessAuto        ReinforcementOutcome = "SUCCESS_AUTO"
	OutcomeSuccessHumanReview ReinforcementOutcome = "SUCCESS_HUMAN_REVIEW"
	OutcomeEscalated          ReinforcementOutcome = "ESCALATED"
	OutcomeFailedValidation   ReinforcementOutcome = "FAILED_VALIDATION"
	OutcomeRejected           ReinforcementOutcome = "REJECTED"
)

// HumanFeedback carries an optional satisfaction rating (1-5) attached to
// a reinforcement outcome.
type HumanFeedback struct {
	SatisfactionRating int `json:"satisfaction_rating"`
}

// ReinforcementEvent pairs an outcome with optional human feedback.
type ReinforcementEvent struct {
	Outcome  ReinforcementOutcome `json:"outcome"`
	Feedback *HumanFeedback       `json:"feedback,omitempty"`
}

// Validate checks the outcome and the feedback rating range.
func (e *ReinforcementEvent) Validate() error {
	switch e.Outcome {
	case OutcomeSuccessAuto, OutcomeSuccessHumanReview, OutcomeEscalated,
		OutcomeFailedValidation, OutcomeRejected:
	default:
		return fmt.Errorf("unknown reinforcement outcome: %q", e.Outcome)
	}
	if e.Feedback != nil {
		if e.Feedback.SatisfactionRating < 1 || e.Feedback.SatisfactionRating > 5 {
			return fmt.Errorf("satisfaction rating must be between 1 and 5, got %d", e.Feedback.SatisfactionRating)
		}
	}
	return nil
}
