package decision

import (
	"fmt"
	"strings"

	"github.com/ledgerline/recall/internal/model"
)

// buildReasoning assembles the auditable explanation for a decision:
// confidence versus thresholds, the risk picture, the memory evidence, the
// validation findings, and why the matched rule beat the alternatives.
func buildReasoning(dc model.DecisionContext, d model.Decision, risk model.RiskAssessment, threshold float64, cfg Config, rationale string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Decision: %s (decision confidence %.3f). ", d.Type, d.Confidence)

	// Confidence vs thresholds.
	fmt.Fprintf(&b, "Processing confidence %.3f against escalation threshold %.2f, auto-approval threshold %.2f, rejection threshold %.2f. ",
		dc.Confidence, threshold, cfg.AutoApprovalThreshold, cfg.RejectionThreshold)

	// Risk breakdown.
	if len(risk.Factors) == 0 {
		fmt.Fprintf(&b, "Risk level %s with no contributing factors. ", risk.Level)
	} else {
		byType := make(map[model.RiskType]int)
		order := make([]model.RiskType, 0, len(risk.Factors))
		for _, f := range risk.Factors {
			if byType[f.Type] == 0 {
				order = append(order, f.Type)
			}
			byType[f.Type]++
		}
		parts := make([]string, 0, len(order))
		for _, t := range order {
			parts = append(parts, fmt.Sprintf("%s x%d", t, byType[t]))
		}
		fmt.Fprintf(&b, "Risk level %s from %d factors (%s). ",
			risk.Level, len(risk.Factors), strings.Join(parts, ", "))
	}

	// Memory evidence.
	if len(dc.AppliedMemories) == 0 {
		b.WriteString("No learned memories were applied. ")
	} else {
		lowConfidence := 0
		for _, rm := range dc.AppliedMemories {
			if rm.Memory.Confidence < 0.6 {
				lowConfidence++
			}
		}
		fmt.Fprintf(&b, "%d learned memories were applied", len(dc.AppliedMemories))
		if lowConfidence > 0 {
			fmt.Fprintf(&b, ", %d of them below 0.60 confidence", lowConfidence)
		}
		b.WriteString(". ")
	}

	// Validation findings.
	if len(dc.ValidationIssues) == 0 {
		b.WriteString("No validation issues were reported. ")
	} else {
		critical, errors := 0, 0
		for _, issue := range dc.ValidationIssues {
			switch issue.Severity {
			case model.SeverityCritical:
				critical++
			case model.SeverityError:
				errors++
			}
		}
		fmt.Fprintf(&b, "%d validation issues reported (%d critical, %d error). ",
			len(dc.ValidationIssues), critical, errors)
	}

	// Matched rule and rejected alternatives.
	fmt.Fprintf(&b, "Rationale: %s. ", rationale)
	b.WriteString(alternativesNote(d.Type, dc, risk, threshold, cfg))

	return b.String()
}

// alternativesNote explains why the other plausible decisions were not
// taken, given which one was.
func alternativesNote(chosen model.DecisionType, dc model.DecisionContext, risk model.RiskAssessment, threshold float64, cfg Config) string {
	switch chosen {
	case model.DecisionAutoApprove:
		return fmt.Sprintf(
			"Not escalated because risk stayed at %s; not rejected because no critical issues were found and confidence %.3f is well above the rejection threshold.",
			risk.Level, dc.Confidence)
	case model.DecisionHumanReview:
		return fmt.Sprintf(
			"Not auto-approved because the confidence/risk combination did not clear the approval rules; not rejected because no critical validation issue was found; not escalated because risk %s did not reach the expert threshold.",
			risk.Level)
	case model.DecisionEscalateToExpert:
		return "Not auto-approved or routed to ordinary review because a severe risk factor requires expert judgment; not rejected because the invoice itself passed critical validation."
	case model.DecisionRejectInvoice:
		return "No other decision was considered: a critical validation issue is terminal regardless of confidence or risk."
	case model.DecisionRequestInfo:
		return fmt.Sprintf(
			"Not reviewed or approved because confidence %.3f is below the rejection threshold %.2f; the invoice needs more information before any routing makes sense.",
			dc.Confidence, cfg.RejectionThreshold)
	default:
		return fmt.Sprintf("Escalation threshold at decision time was %.2f.", threshold)
	}
}
