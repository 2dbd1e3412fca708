package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/pkg/config"
	"github.com/wonny/argus/pkg/database"
	"github.com/wonny/argus/pkg/logger"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Build the source snapshot for a date",
	Long: `Consolidates raw source outputs (JSON array of source documents)
into the immutable snapshot for a date. Rebuilding with identical
inputs is a no-op: the stored snapshot keeps its checksum.

Example:
  go run ./cmd/argus snapshot --date 2026-08-01 --input sources.json`,
	RunE: runSnapshotBuild,
}

var (
	snapshotDate  string
	snapshotInput string
)

func init() {
	rootCmd.AddCommand(snapshotCmd)

	// Flags
	snapshotCmd.Flags().StringVar(&snapshotDate, "date", "", "snapshot date (YYYY-MM-DD, required)")
	snapshotCmd.Flags().StringVar(&snapshotInput, "input", "", "raw source outputs JSON file (required)")
	snapshotCmd.MarkFlagRequired("date")
	snapshotCmd.MarkFlagRequired("input")
}

func runSnapshotBuild(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus Snapshot Build ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Parse inputs
	date, err := time.Parse("2006-01-02", snapshotDate)
	if err != nil {
		return fmt.Errorf("invalid --date (expected YYYY-MM-DD): %w", err)
	}

	data, err := os.ReadFile(snapshotInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var raws []contracts.RawSourceOutput
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	// 4. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 5. Build
	pipe, err := newPipeline(cfg, db, log)
	if err != nil {
		return err
	}

	snap, err := pipe.snapshots.Build(cmd.Context(), date, raws)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}

	fmt.Printf("\nSnapshot %s built (checksum %s)\n", snapshotDate, snap.Checksum[:12])
	for _, h := range snap.Health {
		fmt.Printf("  %-20s %-10s %s\n", h.Source, h.Category, h.Health)
	}
	return nil
}
