package decision

import (
	"fmt"
	"math"

	"github.com/ledgerline/recall/internal/model"
)

// AssessRisk collects risk factors for the invoice and buckets them into
// an overall risk level. Factors are gathered in a fixed order and
// mitigations are deduplicated, so the assessment is deterministic.
func (e *Engine) AssessRisk(dc model.DecisionContext) model.RiskAssessment {
	var factors []model.RiskFactor

	// Financial: high-value invoices scale with amount.
	if dc.Invoice.Amount > e.cfg.HighValueThreshold {
		severity := math.Min(1, dc.Invoice.Amount/(2*e.cfg.HighValueThreshold))
		factors = append(factors, model.RiskFactor{
			Type:        model.RiskFinancial,
			Severity:    severity,
			Description: fmt.Sprintf("invoice amount %.2f exceeds high-value threshold %.2f", dc.Invoice.Amount, e.cfg.HighValueThreshold),
		})
	}

	// Operational: low processing confidence.
	if dc.Confidence < 0.5 {
		factors = append(factors, model.RiskFactor{
			Type:        model.RiskOperational,
			Severity:    (0.5 - dc.Confidence) * 2,
			Description: fmt.Sprintf("processing confidence %.2f is below 0.50", dc.Confidence),
		})
	}

	// Operational: no learned memories for this vendor.
	if len(dc.AppliedMemories) == 0 {
		factors = append(factors, model.RiskFactor{
			Type:        model.RiskOperational,
			Severity:    0.4,
			Description: "no learned memories apply to this invoice (effectively a new vendor)",
		})
	}

	// Compliance: validation errors on the invoice.
	errorCount := countErrorIssues(dc.ValidationIssues)
	if errorCount > 0 {
		factors = append(factors, model.RiskFactor{
			Type:        model.RiskCompliance,
			Severity:    math.Min(1, float64(errorCount)*0.4),
			Description: fmt.Sprintf("%d validation issues of error severity or worse", errorCount),
		})
	}

	// Technical: applied memories we do not trust much.
	if len(dc.AppliedMemories) > 0 {
		lowConfidence := 0
		for _, rm := range dc.AppliedMemories {
			if rm.Memory.Confidence < 0.6 {
				lowConfidence++
			}
		}
		if lowConfidence > 0 {
			fraction := float64(lowConfidence) / float64(len(dc.AppliedMemories))
			factors = append(factors, model.RiskFactor{
				Type:        model.RiskTechnical,
				Severity:    fraction,
				Description: fmt.Sprintf("%d of %d applied memories have confidence below 0.60", lowConfidence, len(dc.AppliedMemories)),
			})
		}
	}

	return model.RiskAssessment{
		Level:       bucketRiskLevel(factors),
		Factors:     factors,
		Mitigations: mitigationsFor(factors),
	}
}

// bucketRiskLevel maps the blended severity, max(maxSeverity, meanSeverity),
// into the ordered risk levels.
func bucketRiskLevel(factors []model.RiskFactor) model.RiskLevel {
	if len(factors) == 0 {
		return model.RiskVeryLow
	}

	var maxSeverity, sum float64
	for _, f := range factors {
		if f.Severity > maxSeverity {
			maxSeverity = f.Severity
		}
		sum += f.Severity
	}
	score := math.Max(maxSeverity, sum/float64(len(factors)))

	switch {
	case score >= 0.8:
		return model.RiskVeryHigh
	case score >= 0.6:
		return model.RiskHigh
	case score >= 0.4:
		return model.RiskMedium
	case score >= 0.2:
		return model.RiskLow
	default:
		return model.RiskVeryLow
	}
}

// mitigationsFor attaches one canonical mitigation per risk type present.
func mitigationsFor(factors []model.RiskFactor) []string {
	mitigationByType := map[model.RiskType]string{
		model.RiskFinancial:    "require secondary approval for high-value amounts",
		model.RiskOperational:  "route to a human reviewer familiar with this vendor",
		model.RiskCompliance:   "re-validate flagged fields against the source document",
		model.RiskTechnical:    "re-train or retire low-confidence memories before reuse",
		model.RiskReputational: "notify the vendor relationship owner before acting",
	}

	// Fixed iteration order over the factor list keeps output deterministic.
	seen := make(map[model.RiskType]bool)
	var mitigations []string
	for _, f := range factors {
		if seen[f.Type] {
			continue
		}
		seen[f.Type] = true
		if m, ok := mitigationByType[f.Type]; ok {
			mitigations = append(mitigations, m)
		}
	}
	return mitigations
}

// countErrorIssues counts validation issues at ERROR or CRITICAL severity.
func countErrorIssues(issues []model.ValidationIssue) int {
	count := 0
	for _, issue := range issues {
		if issue.Severity == model.SeverityError || issue.Severity == model.SeverityCritical {
			count++
		}
	}
	return count
}

// hasCriticalIssue reports whether any validation issue is CRITICAL.
func hasCriticalIssue(issues []model.ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Severity == model.SeverityCritical {
			return true
		}
	}
	return false
}
