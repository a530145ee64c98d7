package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ledgerline/recall/internal/common"
	"github.com/ledgerline/recall/internal/model"
	"github.com/ledgerline/recall/internal/pipeline"
	"github.com/ledgerline/recall/internal/service"
)

func batchCmd() *cobra.Command {
	var (
		inputPath string
		reinforce bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Decide a JSONL stream of invoices",
		Long: `Processes one invoice per line from a JSONL file and prints a decision
summary. With --reinforce, lines carrying an "outcome" field feed back into
the confidence of the memories that were applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("failed to open batch file: %w", err)
			}
			defer func() {
				_ = file.Close()
			}()

			inputs, err := readBatch(file)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				fmt.Println("no invoices in batch file")
				return nil
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()
			p := buildPipeline(store)

			bar := progressbar.NewOptions(len(inputs),
				progressbar.OptionSetDescription("deciding invoices"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			counts := make(map[model.DecisionType]int)
			failures := 0

			// Transient store failures mid-batch retry with backoff instead
			// of losing the remaining invoices.
			retryOpts := service.RetryOptions{MaxAttempts: 3}

			for _, input := range inputs {
				var outcome *pipeline.Outcome
				err := common.WithRetry(cmd.Context(), func() error {
					var perr error
					outcome, perr = p.Process(cmd.Context(), input.Context, input.Issues)
					return perr
				}, retryOpts)
				if err != nil {
					failures++
					_ = bar.Add(1)
					continue
				}
				counts[outcome.Decision.Type]++

				if reinforce && input.Outcome != "" {
					ids := make([]string, len(outcome.Recall.Memories))
					for i, rm := range outcome.Recall.Memories {
						ids[i] = rm.Memory.ID
					}
					event := model.ReinforcementEvent{Outcome: model.ReinforcementOutcome(input.Outcome)}
					err := common.WithRetry(cmd.Context(), func() error {
						return p.Reinforce(cmd.Context(), ids, event)
					}, retryOpts)
					if err != nil {
						return common.NewUserError("reinforcement failed", err)
					}
				}

				_ = bar.Add(1)
			}

			fmt.Printf("\nProcessed %d invoices (%d failed):\n", len(inputs), failures)
			for _, dt := range []model.DecisionType{
				model.DecisionAutoApprove, model.DecisionHumanReview,
				model.DecisionEscalateToExpert, model.DecisionRejectInvoice,
				model.DecisionRequestInfo,
			} {
				if counts[dt] > 0 {
					fmt.Printf("  %-25s %d\n", dt, counts[dt])
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to the JSONL batch file")
	cmd.Flags().BoolVar(&reinforce, "reinforce", false, "apply outcome feedback to applied memories")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// readBatch parses one invoiceInput per non-empty line.
func readBatch(file *os.File) ([]invoiceInput, error) {
	var inputs []invoiceInput
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var input invoiceInput
		if err := json.Unmarshal(text, &input); err != nil {
			return nil, fmt.Errorf("invalid invoice on line %d: %w", line, err)
		}
		inputs = append(inputs, input)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return inputs, nil
}
