package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ledgerline/recall/internal/model"
	"github.com/ledgerline/recall/internal/pipeline"
)

// decisionStyle picks the style matching a decision's tone.
func decisionStyle(decisionType model.DecisionType) lipgloss.Style {
	switch decisionType {
	case model.DecisionAutoApprove:
		return ApproveStyle
	case model.DecisionRejectInvoice, model.DecisionEscalateToExpert:
		return RejectStyle
	default:
		return ReviewStyle
	}
}

// RenderOutcome renders a full pipeline outcome as a terminal card.
func RenderOutcome(outcome *pipeline.Outcome) string {
	var b strings.Builder

	d := outcome.Decision
	b.WriteString(decisionStyle(d.Type).Render(string(d.Type)))
	fmt.Fprintf(&b, "  %s\n\n", SubtleStyle.Render(fmt.Sprintf("confidence %.3f, risk %s", d.Confidence, d.RiskAssessment.Level)))

	b.WriteString(LabelStyle.Render("Memories:"))
	fmt.Fprintf(&b, " %d applied, %d conflicts resolved\n",
		len(outcome.Recall.Memories), outcome.Recall.ConflictsResolved)

	b.WriteString(LabelStyle.Render("Reasoning:"))
	b.WriteString(" " + d.Reasoning + "\n")

	if len(d.RiskAssessment.Factors) > 0 {
		b.WriteString(LabelStyle.Render("Risk factors:"))
		b.WriteString("\n")
		for _, f := range d.RiskAssessment.Factors {
			fmt.Fprintf(&b, "  - %s (%.2f): %s\n", f.Type, f.Severity, f.Description)
		}
	}

	b.WriteString(LabelStyle.Render("Actions:"))
	b.WriteString("\n")
	for _, a := range d.RecommendedActions {
		fmt.Fprintf(&b, "  - [%s] %s\n", a.Type, a.Description)
	}

	return RenderBox("Invoice Decision", strings.TrimRight(b.String(), "\n"))
}

// RenderMemoryList renders memories as a compact listing.
func RenderMemoryList(memories []model.Memory) string {
	if len(memories) == 0 {
		return SubtleStyle.Render("no memories stored")
	}

	var b strings.Builder
	for _, m := range memories {
		fmt.Fprintf(&b, "%s  %s\n", decorateConfidence(m.Confidence), m.ID)
		fmt.Fprintf(&b, "     %s\n", SubtleStyle.Render(m.Description()))
		fmt.Fprintf(&b, "     %s\n", SubtleStyle.Render(
			fmt.Sprintf("type %s, used %d times, success rate %.2f", m.Type, m.UsageCount, m.SuccessRate)))
	}
	return b.String()
}

func decorateConfidence(confidence float64) string {
	label := fmt.Sprintf("%.2f", confidence)
	switch {
	case confidence >= 0.7:
		return ApproveStyle.Render(label)
	case confidence >= 0.4:
		return ReviewStyle.Render(label)
	default:
		return RejectStyle.Render(label)
	}
}
