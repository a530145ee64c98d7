package decision

import (
	"fmt"

	"github.com/ledgerline/recall/internal/model"
)

// GenerateRecommendedActions builds the follow-up actions for a decision:
// one canonical action per decision type, a validate-field action per
// error-grade issue when the invoice is being reviewed, and an
// update-memory action when any applied memory is poorly trusted.
// Every decision carries at least one action.
func (e *Engine) GenerateRecommendedActions(dc model.DecisionContext, decisionType model.DecisionType) []model.RecommendedAction {
	var actions []model.RecommendedAction

	switch decisionType {
	case model.DecisionAutoApprove:
		actions = append(actions, model.RecommendedAction{
			Type:        model.ActionApplyCorrection,
			Description: "apply the matched correction patterns and post the invoice automatically",
		})
	case model.DecisionHumanReview, model.DecisionEscalateToExpert, model.DecisionRejectInvoice:
		actions = append(actions, model.RecommendedAction{
			Type:        model.ActionEscalateIssue,
			Description: fmt.Sprintf("route the invoice to a reviewer (%s)", decisionType),
		})
	case model.DecisionRequestInfo:
		actions = append(actions, model.RecommendedAction{
			Type:        model.ActionContactVendor,
			Description: "contact the vendor for the missing or ambiguous invoice details",
		})
	}

	if decisionType == model.DecisionHumanReview || decisionType == model.DecisionEscalateToExpert {
		for _, issue := range dc.ValidationIssues {
			if issue.Severity != model.SeverityError && issue.Severity != model.SeverityCritical {
				continue
			}
			actions = append(actions, model.RecommendedAction{
				Type:        model.ActionValidateField,
				Field:       issue.Field,
				Description: fmt.Sprintf("verify field %q: %s", issue.Field, issue.Message),
			})
		}
	}

	for _, rm := range dc.AppliedMemories {
		if rm.Memory.Confidence < 0.5 {
			actions = append(actions, model.RecommendedAction{
				Type:        model.ActionUpdateMemory,
				Description: fmt.Sprintf("memory %s has low confidence (%.2f); confirm or correct it during review", rm.Memory.ID, rm.Memory.Confidence),
			})
			break
		}
	}

	return actions
}
