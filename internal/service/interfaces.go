// Package service defines the interfaces for the application's collaborators.
package service

import (
	"context"
	"time"

	"github.com/ledgerline/recall/internal/model"
)

// ConfigKeyEscalationThreshold is the config key holding the globally
// tunable escalation threshold.
const ConfigKeyEscalationThreshold = "escalation_threshold"

// MemoryStore defines the contract for the persistence layer. Store calls
// fail fast with a typed error; retry policy belongs to the caller.
type MemoryStore interface {
	// Memory lookups
	FindMemoriesByVendor(ctx context.Context, vendorID string) ([]model.Memory, error)
	FindMemoriesByType(ctx context.Context, memoryType model.MemoryType) ([]model.Memory, error)
	GetAllMemories(ctx context.Context) ([]model.Memory, error)
	GetMemory(ctx context.Context, id string) (*model.Memory, error)

	// Memory persistence
	SaveMemory(ctx context.Context, memory *model.Memory) error
	// UpdateMemoryScores persists confidence/success-rate/usage mutations.
	// Last-writer-wins under concurrent reinforcement; scores are
	// probabilistic, not ledger-exact.
	UpdateMemoryScores(ctx context.Context, memory *model.Memory) error

	// Config values (escalation threshold)
	GetConfigValue(ctx context.Context, key string) (float64, error)
	SetConfigValue(ctx context.Context, key string, value float64) error

	// Audit trail for threshold adjustments
	SaveThresholdAudit(ctx context.Context, audit *ThresholdAudit) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ThresholdAudit records one escalation-threshold adjustment with the
// metrics that triggered it.
type ThresholdAudit struct {
	AdjustedAt time.Time         `json:"adjusted_at"`
	Previous   float64           `json:"previous"`
	New        float64           `json:"new"`
	Triggers   []string          `json:"triggers"`
	Metrics    ProcessingMetrics `json:"metrics"`
}

// ProcessingMetrics aggregates recent pipeline performance, used to tune
// the escalation threshold.
type ProcessingMetrics struct {
	AutomationRate  float64 `json:"automation_rate"`
	SuccessRate     float64 `json:"success_rate"`
	HumanReviewRate float64 `json:"human_review_rate"`
	MemoryAccuracy  float64 `json:"memory_accuracy"`
}

// RetryOptions configures retry behavior for store operations wrapped by
// the caller.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
