package confidence

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/ledgerline/recall/internal/service"
)

// DefaultEscalationThreshold is used whenever the config store cannot be
// read, so decision-making never halts on a storage blip.
const DefaultEscalationThreshold = 0.7

// Threshold adjustment bounds and step sizes.
const (
	thresholdFloor     = 0.3
	thresholdCeiling   = 0.9
	minPersistedDelta  = 0.02
	lowAutomationStep  = 0.05
	overAutomationStep = 0.05
	highReviewStep     = 0.03
	lowAccuracyStep    = 0.10
)

// EscalationThreshold returns the current escalation threshold, falling
// back to the default when the store is unavailable.
func (m *Manager) EscalationThreshold(ctx context.Context) float64 {
	value, err := m.store.GetConfigValue(ctx, service.ConfigKeyEscalationThreshold)
	if err != nil {
		slog.Warn("could not read escalation threshold, using default",
			"default", DefaultEscalationThreshold,
			"error", err)
		return DefaultEscalationThreshold
	}
	return value
}

// ThresholdAdjustment reports the outcome of one tuning pass.
type ThresholdAdjustment struct {
	Triggers []string `json:"triggers,omitempty"`
	Previous float64  `json:"previous"`
	New      float64  `json:"new"`
	Applied  bool     `json:"applied"`
}

// AdjustEscalationThreshold tunes the global escalation threshold from
// aggregate pipeline metrics. The new value is persisted, with an audit
// entry, only when the change is at least minPersistedDelta.
func (m *Manager) AdjustEscalationThreshold(ctx context.Context, metrics service.ProcessingMetrics) (ThresholdAdjustment, error) {
	current := m.EscalationThreshold(ctx)
	proposed := current
	var triggers []string

	if metrics.AutomationRate < 0.6 {
		proposed = math.Max(thresholdFloor, proposed-lowAutomationStep)
		triggers = append(triggers, fmt.Sprintf("automation rate %.2f below 0.60: lowering threshold", metrics.AutomationRate))
	}
	if metrics.AutomationRate > 0.9 && metrics.SuccessRate < 0.8 {
		proposed = math.Min(thresholdCeiling, proposed+overAutomationStep)
		triggers = append(triggers, fmt.Sprintf("automation rate %.2f with success rate %.2f: raising threshold", metrics.AutomationRate, metrics.SuccessRate))
	}
	if metrics.HumanReviewRate > 0.5 {
		proposed -= highReviewStep
		triggers = append(triggers, fmt.Sprintf("human review rate %.2f above 0.50: lowering threshold further", metrics.HumanReviewRate))
	}
	if metrics.MemoryAccuracy < 0.7 {
		proposed += lowAccuracyStep
		triggers = append(triggers, fmt.Sprintf("memory accuracy %.2f below 0.70: raising threshold", metrics.MemoryAccuracy))
	}

	adjustment := ThresholdAdjustment{
		Previous: current,
		New:      proposed,
		Triggers: triggers,
	}

	if math.Abs(proposed-current) < minPersistedDelta {
		slog.Debug("threshold change below persistence delta, skipping",
			"current", current, "proposed", proposed)
		adjustment.New = current
		return adjustment, nil
	}

	if err := m.store.SetConfigValue(ctx, service.ConfigKeyEscalationThreshold, proposed); err != nil {
		return adjustment, fmt.Errorf("failed to persist escalation threshold: %w", err)
	}

	audit := &service.ThresholdAudit{
		AdjustedAt: m.now(),
		Previous:   current,
		New:        proposed,
		Triggers:   triggers,
		Metrics:    metrics,
	}
	if err := m.store.SaveThresholdAudit(ctx, audit); err != nil {
		// The new threshold is already live; a missing audit row is worth
		// a warning but not a rollback.
		slog.Warn("failed to record threshold audit entry", "error", err)
	}

	adjustment.Applied = true
	slog.Info("adjusted escalation threshold",
		"previous", current,
		"new", proposed,
		"triggers", len(triggers))
	return adjustment, nil
}
