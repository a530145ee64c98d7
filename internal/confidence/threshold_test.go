package confidence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/recall/internal/service"
	"github.com/ledgerline/recall/internal/testutil"
)

// healthyMetrics trips none of the adjustment rules.
func healthyMetrics() service.ProcessingMetrics {
	return service.ProcessingMetrics{
		AutomationRate:  0.8,
		SuccessRate:     0.9,
		HumanReviewRate: 0.2,
		MemoryAccuracy:  0.9,
	}
}

func TestEscalationThresholdDefaultsWhenStoreFails(t *testing.T) {
	store := testutil.NewStore()
	store.GetConfigErr = errors.New("disk on fire")
	manager := NewManager(store, DefaultConfig())

	got := manager.EscalationThreshold(context.Background())
	assert.Equal(t, DefaultEscalationThreshold, got)
}

func TestEscalationThresholdReadsStoredValue(t *testing.T) {
	store := testutil.NewStore()
	store.Config[service.ConfigKeyEscalationThreshold] = 0.65
	manager := NewManager(store, DefaultConfig())

	assert.Equal(t, 0.65, manager.EscalationThreshold(context.Background()))
}

func TestAdjustEscalationThreshold(t *testing.T) {
	tests := []struct {
		name        string
		current     float64
		mutate      func(*service.ProcessingMetrics)
		want        float64
		wantApplied bool
	}{
		{
			name:        "healthy metrics leave the threshold alone",
			current:     0.7,
			mutate:      func(*service.ProcessingMetrics) {},
			want:        0.7,
			wantApplied: false,
		},
		{
			name:        "low automation lowers the threshold",
			current:     0.7,
			mutate:      func(m *service.ProcessingMetrics) { m.AutomationRate = 0.5 },
			want:        0.65,
			wantApplied: true,
		},
		{
			name:    "over-automation with poor success raises the threshold",
			current: 0.7,
			mutate: func(m *service.ProcessingMetrics) {
				m.AutomationRate = 0.95
				m.SuccessRate = 0.7
			},
			want:        0.75,
			wantApplied: true,
		},
		{
			name:        "heavy human review lowers the threshold",
			current:     0.7,
			mutate:      func(m *service.ProcessingMetrics) { m.HumanReviewRate = 0.6 },
			want:        0.67,
			wantApplied: true,
		},
		{
			name:        "low memory accuracy raises the threshold",
			current:     0.7,
			mutate:      func(m *service.ProcessingMetrics) { m.MemoryAccuracy = 0.6 },
			want:        0.8,
			wantApplied: true,
		},
		{
			name:        "lowering stops at the floor",
			current:     0.3,
			mutate:      func(m *service.ProcessingMetrics) { m.AutomationRate = 0.5 },
			want:        0.3,
			wantApplied: false,
		},
		{
			name:    "raising stops at the ceiling",
			current: 0.9,
			mutate: func(m *service.ProcessingMetrics) {
				m.AutomationRate = 0.95
				m.SuccessRate = 0.7
			},
			want:        0.9,
			wantApplied: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewStore()
			store.Config[service.ConfigKeyEscalationThreshold] = tt.current
			manager := NewManager(store, DefaultConfig())

			metrics := healthyMetrics()
			tt.mutate(&metrics)

			adjustment, err := manager.AdjustEscalationThreshold(context.Background(), metrics)
			require.NoError(t, err)

			assert.Equal(t, tt.current, adjustment.Previous)
			assert.InDelta(t, tt.want, adjustment.New, 1e-9)
			assert.Equal(t, tt.wantApplied, adjustment.Applied)

			if tt.wantApplied {
				assert.InDelta(t, tt.want, store.Config[service.ConfigKeyEscalationThreshold], 1e-9)
				require.Len(t, store.Audits, 1)
				assert.Equal(t, tt.current, store.Audits[0].Previous)
				assert.InDelta(t, tt.want, store.Audits[0].New, 1e-9)
				assert.NotEmpty(t, store.Audits[0].Triggers)
			} else {
				assert.Equal(t, tt.current, store.Config[service.ConfigKeyEscalationThreshold])
				assert.Empty(t, store.Audits)
			}
		})
	}
}

func TestAdjustEscalationThresholdAuditFailureIsNotFatal(t *testing.T) {
	store := testutil.NewStore()
	store.Config[service.ConfigKeyEscalationThreshold] = 0.7
	store.AuditErr = errors.New("audit table missing")
	manager := NewManager(store, DefaultConfig())

	metrics := healthyMetrics()
	metrics.AutomationRate = 0.5

	adjustment, err := manager.AdjustEscalationThreshold(context.Background(), metrics)
	require.NoError(t, err)
	assert.True(t, adjustment.Applied)
	assert.InDelta(t, 0.65, store.Config[service.ConfigKeyEscalationThreshold], 1e-9)
}

func TestAdjustEscalationThresholdPersistFailure(t *testing.T) {
	store := testutil.NewStore()
	store.Config[service.ConfigKeyEscalationThreshold] = 0.7
	store.SetConfigErr = errors.New("read-only database")
	manager := NewManager(store, DefaultConfig())

	metrics := healthyMetrics()
	metrics.AutomationRate = 0.5

	adjustment, err := manager.AdjustEscalationThreshold(context.Background(), metrics)
	require.Error(t, err)
	assert.False(t, adjustment.Applied)
}
