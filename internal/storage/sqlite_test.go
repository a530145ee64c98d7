package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/recall/internal/common"
	"github.com/ledgerline/recall/internal/model"
	"github.com/ledgerline/recall/internal/service"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "recall-test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return store
}

func storedVendorMemory(id, vendorID string) *model.Memory {
	return &model.Memory{
		ID:        id,
		Type:      model.MemoryTypeVendor,
		CreatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Vendor: &model.VendorData{
			FieldMappings: []model.FieldMapping{{SourceField: "inv_no", TargetField: "invoice_number"}},
			VATBehavior:   "reverse_charge",
		},
		Pattern: model.Pattern{Type: "header", Threshold: 0.5},
		Context: model.MemoryContext{
			VendorID:          vendorID,
			Complexity:        model.ComplexityModerate,
			Language:          "de",
			ExtractionQuality: model.QualityGood,
		},
		Confidence:  0.72,
		SuccessRate: 0.8,
		UsageCount:  3,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := createTestStore(t)
	require.NoError(t, store.Migrate(context.Background()))

	var version int
	err := store.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestSaveAndGetMemoryRoundTrip(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	original := storedVendorMemory("mem-1", "acme")
	original.LastUsed = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.SaveMemory(ctx, original))

	got, err := store.GetMemory(ctx, "mem-1")
	require.NoError(t, err)

	assert.Equal(t, original.ID, got.ID)
	assert.Equal(t, original.Type, got.Type)
	require.NotNil(t, got.Vendor)
	assert.Equal(t, original.Vendor.FieldMappings, got.Vendor.FieldMappings)
	assert.Equal(t, "reverse_charge", got.Vendor.VATBehavior)
	assert.Nil(t, got.Correction)
	assert.Nil(t, got.Resolution)
	assert.Equal(t, original.Context, got.Context)
	assert.Equal(t, original.Confidence, got.Confidence)
	assert.Equal(t, original.SuccessRate, got.SuccessRate)
	assert.Equal(t, original.UsageCount, got.UsageCount)
	assert.True(t, original.LastUsed.Equal(got.LastUsed))
}

func TestSaveMemoryVariantPayloads(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	correction := &model.Memory{
		ID:        "mem-corr",
		Type:      model.MemoryTypeCorrection,
		CreatedAt: time.Now().UTC(),
		Correction: &model.CorrectionData{
			TriggerConditions: []string{"date format dd.mm.yyyy"},
			CorrectionAction:  "normalize to ISO-8601",
			TargetField:       "invoice_date",
		},
		Context: model.MemoryContext{Complexity: model.ComplexitySimple, ExtractionQuality: model.QualityGood},
	}
	require.NoError(t, store.SaveMemory(ctx, correction))

	resolution := &model.Memory{
		ID:        "mem-res",
		Type:      model.MemoryTypeResolution,
		CreatedAt: time.Now().UTC(),
		Resolution: &model.ResolutionData{
			DiscrepancyType:  "amount_mismatch",
			ResolutionAction: "accept_po",
			HumanDecision:    "approved by finance",
		},
		Context: model.MemoryContext{Complexity: model.ComplexitySimple, ExtractionQuality: model.QualityGood},
	}
	require.NoError(t, store.SaveMemory(ctx, resolution))

	gotCorrection, err := store.GetMemory(ctx, "mem-corr")
	require.NoError(t, err)
	require.NotNil(t, gotCorrection.Correction)
	assert.Equal(t, "invoice_date", gotCorrection.Correction.TargetField)

	gotResolution, err := store.GetMemory(ctx, "mem-res")
	require.NoError(t, err)
	require.NotNil(t, gotResolution.Resolution)
	assert.Equal(t, "accept_po", gotResolution.Resolution.ResolutionAction)
}

func TestGetMemoryNotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.GetMemory(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMemoryNotFound)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNotFoundErrorsWrapCommonSentinel(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	_, err := store.GetConfigValue(ctx, "missing_key")
	assert.ErrorIs(t, err, common.ErrNotFound)

	ghost := storedVendorMemory("mem-ghost", "acme")
	assert.ErrorIs(t, store.UpdateMemoryScores(ctx, ghost), common.ErrNotFound)
}

func TestNewSQLiteStoreUnusableFileIsRetryable(t *testing.T) {
	// A directory at the database path makes the open fail.
	_, err := NewSQLiteStore(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.True(t, common.IsRetryable(err))
}

func TestSaveMemoryRejectsInvalidRecords(t *testing.T) {
	store := createTestStore(t)

	invalid := storedVendorMemory("mem-bad", "acme")
	invalid.Vendor = nil
	require.Error(t, store.SaveMemory(context.Background(), invalid))

	require.Error(t, store.SaveMemory(context.Background(), nil))
}

func TestUpdateMemoryScores(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	memory := storedVendorMemory("mem-1", "acme")
	require.NoError(t, store.SaveMemory(ctx, memory))

	memory.Confidence = 0.81
	memory.SuccessRate = 0.85
	memory.UsageCount = 4
	memory.LastUsed = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateMemoryScores(ctx, memory))

	got, err := store.GetMemory(ctx, "mem-1")
	require.NoError(t, err)
	assert.Equal(t, 0.81, got.Confidence)
	assert.Equal(t, 0.85, got.SuccessRate)
	assert.Equal(t, 4, got.UsageCount)
	assert.True(t, memory.LastUsed.Equal(got.LastUsed))
}

func TestUpdateMemoryScoresMissingMemory(t *testing.T) {
	store := createTestStore(t)

	ghost := storedVendorMemory("mem-ghost", "acme")
	err := store.UpdateMemoryScores(context.Background(), ghost)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMemoryNotFound)
}

func TestFindMemoriesByVendorOrdering(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	older := storedVendorMemory("mem-older", "acme")
	older.LastUsed = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	newer := storedVendorMemory("mem-newer", "acme")
	newer.LastUsed = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	other := storedVendorMemory("mem-other", "globex")

	for _, m := range []*model.Memory{older, newer, other} {
		require.NoError(t, store.SaveMemory(ctx, m))
	}

	got, err := store.FindMemoriesByVendor(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mem-newer", got[0].ID)
	assert.Equal(t, "mem-older", got[1].ID)
}

func TestFindMemoriesByType(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMemory(ctx, storedVendorMemory("mem-vendor", "acme")))
	correction := &model.Memory{
		ID:         "mem-corr",
		Type:       model.MemoryTypeCorrection,
		CreatedAt:  time.Now().UTC(),
		Correction: &model.CorrectionData{CorrectionAction: "fix", TargetField: "total"},
	}
	require.NoError(t, store.SaveMemory(ctx, correction))

	vendors, err := store.FindMemoriesByType(ctx, model.MemoryTypeVendor)
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, "mem-vendor", vendors[0].ID)

	all, err := store.GetAllMemories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConfigValues(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	_, err := store.GetConfigValue(ctx, service.ConfigKeyEscalationThreshold)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)

	require.NoError(t, store.SetConfigValue(ctx, service.ConfigKeyEscalationThreshold, 0.65))
	got, err := store.GetConfigValue(ctx, service.ConfigKeyEscalationThreshold)
	require.NoError(t, err)
	assert.Equal(t, 0.65, got)

	// Upsert overwrites.
	require.NoError(t, store.SetConfigValue(ctx, service.ConfigKeyEscalationThreshold, 0.7))
	got, err = store.GetConfigValue(ctx, service.ConfigKeyEscalationThreshold)
	require.NoError(t, err)
	assert.Equal(t, 0.7, got)
}

func TestThresholdAuditTrail(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	first := &service.ThresholdAudit{
		AdjustedAt: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
		Previous:   0.7,
		New:        0.65,
		Triggers:   []string{"automation rate 0.50 below 0.60: lowering threshold"},
		Metrics:    service.ProcessingMetrics{AutomationRate: 0.5, SuccessRate: 0.9},
	}
	second := &service.ThresholdAudit{
		AdjustedAt: time.Date(2026, 7, 2, 10, 0, 0, 0, time.UTC),
		Previous:   0.65,
		New:        0.75,
		Triggers:   []string{"memory accuracy 0.60 below 0.70: raising threshold"},
		Metrics:    service.ProcessingMetrics{MemoryAccuracy: 0.6},
	}
	require.NoError(t, store.SaveThresholdAudit(ctx, first))
	require.NoError(t, store.SaveThresholdAudit(ctx, second))

	audits, err := store.ThresholdAudits(ctx, 0)
	require.NoError(t, err)
	require.Len(t, audits, 2)
	assert.Equal(t, 0.75, audits[0].New)
	assert.Equal(t, first.Triggers, audits[1].Triggers)
	assert.Equal(t, 0.5, audits[1].Metrics.AutomationRate)

	limited, err := store.ThresholdAudits(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 0.75, limited[0].New)
}

func TestValidationHelpers(t *testing.T) {
	require.Error(t, validateString("", "key"))
	require.Error(t, validateString("   ", "key"))
	require.NoError(t, validateString("ok", "key"))

	var nilCtx context.Context
	require.Error(t, validateContext(nilCtx))
	require.NoError(t, validateContext(context.Background()))

	require.True(t, errors.Is(validateMemory(nil), ErrNilParameter))
}
