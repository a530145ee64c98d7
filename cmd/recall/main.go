package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ledgerline/recall/internal/common"
	"github.com/ledgerline/recall/internal/config"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "recall",
		Short: "Confidence-weighted invoice decision engine",
		Long: `recall decides which learned correction patterns apply to an incoming
invoice and whether it can be processed automatically or needs a human.

Memories earn and lose trust over time; decisions come with auditable reasoning.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/recall/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "", "path to the memory database")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(decideCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(memoriesCmd())
	rootCmd.AddCommand(thresholdCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received interrupt signal, shutting down")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", userErr.UserMessage)
			slog.Debug("command failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/recall", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("RECALL")
	viper.AutomaticEnv()

	setScoringDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is fine, defaults apply
	}

	if viper.GetString("database.path") == "" {
		viper.Set("database.path", config.DefaultDatabasePath())
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

// setScoringDefaults registers every tunable scoring knob with viper so
// config files and RECALL_* env vars can override any of them.
func setScoringDefaults() {
	viper.SetDefault("confidence.base", 0.5)
	viper.SetDefault("confidence.max_reinforcement", 0.1)
	viper.SetDefault("confidence.decay_rate_per_day", 0.01)
	viper.SetDefault("confidence.minimum", 0.1)
	viper.SetDefault("confidence.maximum", 1.0)
	viper.SetDefault("confidence.learning_rate", 0.1)
	viper.SetDefault("confidence.context_weight", 0.3)
	viper.SetDefault("confidence.success_rate_weight", 0.4)
	viper.SetDefault("confidence.recency_weight", 0.3)

	viper.SetDefault("recall.max_memories_per_query", 50)
	viper.SetDefault("recall.min_relevance_threshold", 0.1)
	viper.SetDefault("recall.confidence_weight", 0.4)
	viper.SetDefault("recall.relevance_weight", 0.4)
	viper.SetDefault("recall.recency_weight", 0.2)
	viper.SetDefault("recall.vendor_prioritization", true)
	viper.SetDefault("recall.conflict_strategy", "HIGHEST_CONFIDENCE")

	viper.SetDefault("decision.auto_approval_threshold", 0.85)
	viper.SetDefault("decision.rejection_threshold", 0.3)
	viper.SetDefault("decision.high_value_invoice_threshold", 10000.0)
	viper.SetDefault("decision.conservative_mode_for_new_vendors", true)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("recall version %s\n", version)
		},
	}
}
