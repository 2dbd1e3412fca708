package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/argus/internal/conviction"
	"github.com/wonny/argus/pkg/config"
	"github.com/wonny/argus/pkg/database"
	"github.com/wonny/argus/pkg/logger"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score conviction for one entity",
	Long: `Runs the three-stage conviction engine (growth, risk, arbiter) for
one entity over the snapshot at the given date and appends the
assessment.

Example:
  go run ./cmd/argus score --entity deepseek
  go run ./cmd/argus score --entity deepseek --as-of 2026-08-01`,
	RunE: runScore,
}

var (
	scoreEntity string
	scoreAsOf   string
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	// Flags
	scoreCmd.Flags().StringVar(&scoreEntity, "entity", "", "entity id (required)")
	scoreCmd.Flags().StringVar(&scoreAsOf, "as-of", "", "analysis date (YYYY-MM-DD, default today)")
	scoreCmd.MarkFlagRequired("entity")
}

func runScore(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus Conviction Score ===")

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

	// 4. Build the pipeline and engine
	pipe, err := newPipeline(cfg, db, log)
	if err != nil {
		return err
	}
	engine := conviction.NewEngine(pipe.registry, pipe.snapshots, conviction.NewPostgresRepository(db.Pool), log)

	// 5. Resolve the analysis date
	asOf := time.Now().UTC()
	if scoreAsOf != "" {
		asOf, err = time.Parse("2006-01-02", scoreAsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of date (expected YYYY-MM-DD): %w", err)
		}
	}

	// 6. Score
	assessment, err := engine.Score(cmd.Context(), scoreEntity, asOf)
	if err != nil {
		return fmt.Errorf("conviction scoring failed: %w", err)
	}

	// 7. Print
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(assessment); err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}

	fmt.Printf("\n%s: conviction %.2f (%s, conflict %s)\n",
		assessment.EntityID, assessment.ConvictionScore, assessment.Recommendation, assessment.ConflictIntensity)
	return nil
}
