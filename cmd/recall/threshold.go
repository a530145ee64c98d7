package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/recall/internal/cli"
	"github.com/ledgerline/recall/internal/confidence"
	"github.com/ledgerline/recall/internal/service"
)

func thresholdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threshold",
		Short: "Inspect and tune the escalation threshold",
	}

	cmd.AddCommand(thresholdShowCmd())
	cmd.AddCommand(thresholdAdjustCmd())

	return cmd
}

func thresholdShowCmd() *cobra.Command {
	var auditCount int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current threshold and recent adjustments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			manager := confidence.NewManager(store, confidenceConfig())
			current := manager.EscalationThreshold(cmd.Context())

			fmt.Println(cli.FormatTitle("Escalation Threshold"))
			fmt.Printf("current: %.3f\n", current)

			audits, err := store.ThresholdAudits(cmd.Context(), auditCount)
			if err != nil {
				return err
			}
			if len(audits) == 0 {
				fmt.Println("no adjustments recorded")
				return nil
			}

			fmt.Printf("\nrecent adjustments:\n")
			for _, audit := range audits {
				fmt.Printf("  %s  %.3f -> %.3f\n",
					audit.AdjustedAt.Format("2006-01-02 15:04"), audit.Previous, audit.New)
				for _, trigger := range audit.Triggers {
					fmt.Printf("    - %s\n", trigger)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&auditCount, "audits", 10, "number of audit entries to show")
	return cmd
}

func thresholdAdjustCmd() *cobra.Command {
	var metrics service.ProcessingMetrics

	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Adjust the threshold from aggregate pipeline metrics",
		Long: `Feeds aggregate processing metrics into the threshold tuning rules.
Small changes are reported but not persisted; persisted changes leave an
audit entry.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			manager := confidence.NewManager(store, confidenceConfig())
			adjustment, err := manager.AdjustEscalationThreshold(cmd.Context(), metrics)
			if err != nil {
				return err
			}

			if !adjustment.Applied {
				fmt.Printf("threshold unchanged at %.3f\n", adjustment.Previous)
				return nil
			}

			fmt.Printf("threshold adjusted %.3f -> %.3f\n", adjustment.Previous, adjustment.New)
			for _, trigger := range adjustment.Triggers {
				fmt.Printf("  - %s\n", trigger)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&metrics.AutomationRate, "automation-rate", 0, "fraction of invoices decided automatically")
	cmd.Flags().Float64Var(&metrics.SuccessRate, "success-rate", 0, "fraction of automated decisions that held up")
	cmd.Flags().Float64Var(&metrics.HumanReviewRate, "human-review-rate", 0, "fraction of invoices routed to review")
	cmd.Flags().Float64Var(&metrics.MemoryAccuracy, "memory-accuracy", 0, "fraction of applied memories judged correct")
	_ = cmd.MarkFlagRequired("automation-rate")
	_ = cmd.MarkFlagRequired("success-rate")
	_ = cmd.MarkFlagRequired("human-review-rate")
	_ = cmd.MarkFlagRequired("memory-accuracy")

	return cmd
}
