package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/internal/registry"
	"github.com/wonny/argus/pkg/config"
	"github.com/wonny/argus/pkg/database"
	"github.com/wonny/argus/pkg/logger"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve [raw name]",
	Short: "Resolve a raw mention and validate it against a snapshot",
	Long: `Runs the tiered matcher for one raw mention, then validates the
resolved entity against the snapshot at the given date.

Example:
  go run ./cmd/argus resolve "deepseek-ai/DeepSeek-V3" --category technical
  go run ./cmd/argus resolve "DeepSeek" --category social --as-of 2026-08-01 --context "open weights llm"`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

var (
	resolveCategory string
	resolveAsOf     string
	resolveContext  []string
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	// Flags
	resolveCmd.Flags().StringVar(&resolveCategory, "category", "technical", "source category (technical|social|financial|predictive)")
	resolveCmd.Flags().StringVar(&resolveAsOf, "as-of", "", "snapshot date (YYYY-MM-DD, default today)")
	resolveCmd.Flags().StringSliceVar(&resolveContext, "context", nil, "context strings for disambiguation")
}

func runResolve(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus Entity Resolution ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 4. Build the pipeline
	pipe, err := newPipeline(cfg, db, log)
	if err != nil {
		return err
	}

	// 5. Resolve
	reg := pipe.registry.Current()
	res := registry.ResolveAgainst(reg, args[0], contracts.SourceCategory(resolveCategory), resolveContext)

	out := map[string]interface{}{
		"resolution": res,
	}

	// 6. Validate against the snapshot when something resolved
	if res.Resolved() {
		asOf := time.Now().UTC()
		if resolveAsOf != "" {
			asOf, err = time.Parse("2006-01-02", resolveAsOf)
			if err != nil {
				return fmt.Errorf("invalid --as-of date (expected YYYY-MM-DD): %w", err)
			}
		}

		snap, err := pipe.snapshots.GetSnapshot(cmd.Context(), asOf)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}

		result, verr := pipe.validator.Compute(res, reg, snap)
		if verr != nil {
			fmt.Printf("warning: %v\n", verr)
		}
		out["validation"] = result
	}

	// 7. Print
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
