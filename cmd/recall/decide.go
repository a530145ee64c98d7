package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgerline/recall/internal/cli"
	"github.com/ledgerline/recall/internal/model"
)

// invoiceInput is the JSON shape accepted by decide and batch.
type invoiceInput struct {
	Context model.InvoiceContext    `json:"context"`
	Issues  []model.ValidationIssue `json:"validation_issues,omitempty"`
	// Outcome optionally carries reinforcement feedback for batch runs.
	Outcome string `json:"outcome,omitempty"`
}

func decideCmd() *cobra.Command {
	var (
		inputPath  string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Decide how to process a single invoice",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read invoice file: %w", err)
			}

			var input invoiceInput
			if err := json.Unmarshal(data, &input); err != nil {
				return fmt.Errorf("failed to parse invoice file: %w", err)
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			outcome, err := buildPipeline(store).Process(cmd.Context(), input.Context, input.Issues)
			if err != nil {
				return err
			}

			if jsonOutput {
				encoded, err := json.MarshalIndent(outcome, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode outcome: %w", err)
				}
				fmt.Println(string(encoded))
				return nil
			}

			fmt.Println(cli.RenderOutcome(outcome))
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to the invoice JSON file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit the full outcome as JSON")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
