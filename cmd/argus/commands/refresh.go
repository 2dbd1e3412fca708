package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/argus/pkg/config"
	"github.com/wonny/argus/pkg/logger"
	"github.com/wonny/argus/pkg/metrics"
	"github.com/wonny/argus/pkg/redis"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one financial signal aggregation",
	Long: `Fetches equity, token and macro data, computes per-bucket PMS/CSS
percentile signals and the macro regime composite, and prints the run
report as JSON.

Example:
  go run ./cmd/argus refresh
  go run ./cmd/argus refresh --as-of 2026-08-01 --window 7`,
	RunE: runRefresh,
}

var (
	refreshAsOf   string
	refreshWindow int
)

func init() {
	rootCmd.AddCommand(refreshCmd)

	// Flags
	refreshCmd.Flags().StringVar(&refreshAsOf, "as-of", "", "analysis date (YYYY-MM-DD, default today)")
	refreshCmd.Flags().IntVar(&refreshWindow, "window", 0, "analysis window in days (default 7)")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus Signal Refresh ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to redis (optional, degrades gracefully)
	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	// 4. Create the aggregator
	aggregator, err := newAggregator(cfg, rdb, metrics.New(), log)
	if err != nil {
		return err
	}

	// 5. Resolve the analysis date
	asOf := time.Now().UTC()
	if refreshAsOf != "" {
		asOf, err = time.Parse("2006-01-02", refreshAsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of date (expected YYYY-MM-DD): %w", err)
		}
	}

	// 6. Run
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	report, err := aggregator.Run(ctx, asOf, refreshWindow)
	if err != nil {
		return fmt.Errorf("signal refresh failed: %w", err)
	}

	// 7. Print the run report
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	fmt.Printf("\nOverall status: %s\n", report.OverallStatus)
	return nil
}
