package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/argus/internal/backtest"
	"github.com/wonny/argus/pkg/config"
	"github.com/wonny/argus/pkg/database"
	"github.com/wonny/argus/pkg/logger"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the pipeline at a historical date and score it",
	Long: `Ranks the top K entities using only data visible as of the
prediction date, then classifies each prediction against the curated
ground-truth breakout registry.

Example:
  go run ./cmd/argus backtest --prediction 2026-01-15 --validation 2026-06-15
  go run ./cmd/argus backtest --prediction 2026-01-15 --validation 2026-06-15 --top-k 5`,
	RunE: runBacktest,
}

var (
	backtestPrediction string
	backtestValidation string
	backtestTopK       int
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	// Flags
	backtestCmd.Flags().StringVar(&backtestPrediction, "prediction", "", "prediction date (YYYY-MM-DD, required)")
	backtestCmd.Flags().StringVar(&backtestValidation, "validation", "", "validation date (YYYY-MM-DD, required)")
	backtestCmd.Flags().IntVar(&backtestTopK, "top-k", 0, "prediction list size (default 10)")
	backtestCmd.MarkFlagRequired("prediction")
	backtestCmd.MarkFlagRequired("validation")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus Backtest ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Parse dates
	predictionDate, err := time.Parse("2006-01-02", backtestPrediction)
	if err != nil {
		return fmt.Errorf("invalid --prediction date (expected YYYY-MM-DD): %w", err)
	}
	validationDate, err := time.Parse("2006-01-02", backtestValidation)
	if err != nil {
		return fmt.Errorf("invalid --validation date (expected YYYY-MM-DD): %w", err)
	}

	// 4. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 5. Build the pipeline and engine
	pipe, err := newPipeline(cfg, db, log)
	if err != nil {
		return err
	}
	engine := backtest.NewEngine(pipe.registry, pipe.snapshots, pipe.validator, log)

	// 6. Load ground truth
	groundTruth, err := backtest.LoadGroundTruth(cfg.Files.GroundTruthPath)
	if err != nil {
		return fmt.Errorf("load ground truth: %w", err)
	}

	// 7. Replay and score
	run, err := engine.Run(cmd.Context(), predictionDate, validationDate, backtestTopK)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}
	card := backtest.GenerateScorecard(run, groundTruth)

	// 8. Print
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]interface{}{
		"run":       run,
		"scorecard": card,
	}); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	fmt.Printf("\nprecision@%d=%.2f recall=%.2f avg_lead=%.1fw miss_rate=%.2f\n",
		run.TopK, card.PrecisionAtK, card.Recall, card.AvgLeadTimeWeeks, card.MissRate)
	return nil
}
