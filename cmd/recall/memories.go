package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ledgerline/recall/internal/cli"
	"github.com/ledgerline/recall/internal/confidence"
	"github.com/ledgerline/recall/internal/model"
)

func memoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "Inspect and manage learned memories",
	}

	cmd.AddCommand(memoriesListCmd())
	cmd.AddCommand(memoriesShowCmd())
	cmd.AddCommand(memoriesAddCmd())

	return cmd
}

func memoriesListCmd() *cobra.Command {
	var vendorID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored memories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			var memories []model.Memory
			if vendorID != "" {
				memories, err = store.FindMemoriesByVendor(cmd.Context(), vendorID)
			} else {
				memories, err = store.GetAllMemories(cmd.Context())
			}
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Memories (%d)", len(memories))))
			fmt.Println(cli.RenderMemoryList(memories))
			return nil
		},
	}

	cmd.Flags().StringVar(&vendorID, "vendor", "", "only memories for this vendor")
	return cmd
}

func memoriesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one memory with its reliability evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			memory, err := store.GetMemory(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			manager := confidence.NewManager(store, confidenceConfig())
			report := manager.EvaluateMemoryReliability(memory)

			encoded, err := json.MarshalIndent(struct {
				Memory      *model.Memory                `json:"memory"`
				Reliability confidence.ReliabilityReport `json:"reliability"`
			}{memory, report}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode memory: %w", err)
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
}

func memoriesAddCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a memory from a JSON file",
		Long: `Reads a memory definition from JSON, assigns an id and an initial
confidence from its type, context, and pattern size, and stores it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read memory file: %w", err)
			}

			var memory model.Memory
			if err := json.Unmarshal(data, &memory); err != nil {
				return fmt.Errorf("failed to parse memory file: %w", err)
			}

			if memory.ID == "" {
				memory.ID = uuid.NewString()
			}
			if memory.CreatedAt.IsZero() {
				memory.CreatedAt = time.Now().UTC()
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			manager := confidence.NewManager(store, confidenceConfig())
			initial, err := manager.CalculateInitialConfidence(&memory)
			if err != nil {
				return err
			}
			memory.Confidence = initial

			if err := store.SaveMemory(cmd.Context(), &memory); err != nil {
				return err
			}

			fmt.Printf("stored memory %s with initial confidence %.3f\n", memory.ID, initial)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to the memory JSON file")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
