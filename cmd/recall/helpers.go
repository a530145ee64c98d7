package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/ledgerline/recall/internal/common"
	"github.com/ledgerline/recall/internal/confidence"
	"github.com/ledgerline/recall/internal/config"
	"github.com/ledgerline/recall/internal/decision"
	"github.com/ledgerline/recall/internal/model"
	"github.com/ledgerline/recall/internal/pipeline"
	"github.com/ledgerline/recall/internal/recall"
	"github.com/ledgerline/recall/internal/storage"
)

// openStore opens the SQLite memory store at the configured path and
// brings its schema up to date.
func openStore() (*storage.SQLiteStore, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("cannot open the memory database at %s", dbPath), err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		return nil, common.NewUserError("cannot migrate the memory database", err)
	}
	return store, nil
}

// confidenceConfig builds the confidence manager config from viper.
func confidenceConfig() confidence.Config {
	return confidence.Config{
		BaseConfidence:    viper.GetFloat64("confidence.base"),
		MaxReinforcement:  viper.GetFloat64("confidence.max_reinforcement"),
		DecayRatePerDay:   viper.GetFloat64("confidence.decay_rate_per_day"),
		MinimumConfidence: viper.GetFloat64("confidence.minimum"),
		MaximumConfidence: viper.GetFloat64("confidence.maximum"),
		LearningRate:      viper.GetFloat64("confidence.learning_rate"),
		ContextWeight:     viper.GetFloat64("confidence.context_weight"),
		SuccessRateWeight: viper.GetFloat64("confidence.success_rate_weight"),
		RecencyWeight:     viper.GetFloat64("confidence.recency_weight"),
	}
}

// recallConfig builds the recall engine config from viper.
func recallConfig() recall.Config {
	return recall.Config{
		MaxMemoriesPerQuery:   viper.GetInt("recall.max_memories_per_query"),
		MinRelevanceThreshold: viper.GetFloat64("recall.min_relevance_threshold"),
		ConfidenceWeight:      viper.GetFloat64("recall.confidence_weight"),
		RelevanceWeight:       viper.GetFloat64("recall.relevance_weight"),
		RecencyWeight:         viper.GetFloat64("recall.recency_weight"),
		VendorPrioritization:  viper.GetBool("recall.vendor_prioritization"),
		ConflictStrategy:      model.ResolutionStrategy(viper.GetString("recall.conflict_strategy")),
	}
}

// decisionConfig builds the decision engine config from viper.
func decisionConfig() decision.Config {
	return decision.Config{
		AutoApprovalThreshold:         viper.GetFloat64("decision.auto_approval_threshold"),
		RejectionThreshold:            viper.GetFloat64("decision.rejection_threshold"),
		HighValueThreshold:            viper.GetFloat64("decision.high_value_invoice_threshold"),
		ConservativeModeForNewVendors: viper.GetBool("decision.conservative_mode_for_new_vendors"),
	}
}

// buildPipeline wires the full processing pipeline over a store.
func buildPipeline(store *storage.SQLiteStore) *pipeline.Pipeline {
	manager := confidence.NewManager(store, confidenceConfig())
	engine := recall.NewEngine(store, recallConfig())
	decider := decision.NewEngine(manager, decisionConfig())
	return pipeline.New(store, engine, manager, decider)
}
