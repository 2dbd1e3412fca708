package backtest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/internal/registry"
	"github.com/wonny/argus/internal/snapshot"
	"github.com/wonny/argus/internal/validation"
	"github.com/wonny/argus/pkg/logger"
)

const backtestRegistryYAML = `entities:
  - id: deepseek
    name: DeepSeek
    type: company
    linked_assets:
      github_org:
        - deepseek-ai
  - id: quietco
    name: QuietCo
    type: company
`

func newBacktestEngine(t *testing.T, predictionDate time.Time) *Engine {
	t.Helper()

	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(backtestRegistryYAML), 0o644))
	reg, err := registry.Load(path)
	require.NoError(t, err)

	specs := []snapshot.SourceSpec{
		{Name: "github", Category: contracts.CategoryTechnical, FreshnessSLA: 48 * time.Hour},
		{Name: "social", Category: contracts.CategorySocial, FreshnessSLA: 24 * time.Hour},
	}
	svc := snapshot.NewService(specs, snapshot.NewMemoryStore(), logger.NewNop())

	observed := predictionDate.Add(-2 * time.Hour)
	_, err = svc.Build(context.Background(), predictionDate, []contracts.RawSourceOutput{
		{
			Source:        "github",
			Category:      contracts.CategoryTechnical,
			SchemaVersion: "1.0.0",
			ProducedAt:    observed,
			Items: []contracts.PayloadItem{
				{
					Source:     "github",
					Identifier: "deepseek-ai/DeepSeek-V3",
					ObservedAt: observed,
					Fields:     map[string]any{"stars": 15000.0, "forks": 1200.0},
				},
			},
		},
		{
			Source:        "social",
			Category:      contracts.CategorySocial,
			SchemaVersion: "1.0.0",
			ProducedAt:    observed,
			Items: []contracts.PayloadItem{
				{
					Source:     "social",
					Identifier: "DeepSeek",
					ObservedAt: observed,
					Fields:     map[string]any{"text": "DeepSeek V3 tops the leaderboard", "mentions": 400.0},
				},
			},
		},
	})
	require.NoError(t, err)

	return NewEngine(registry.NewHandle(reg), svc, validation.New(logger.NewNop()), logger.NewNop())
}

func TestRun_RanksEntitiesWithEvidence(t *testing.T) {
	predictionDate := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	engine := newBacktestEngine(t, predictionDate)

	run, err := engine.Run(context.Background(), predictionDate, predictionDate.AddDate(0, 2, 0), 5)
	require.NoError(t, err)

	// only the entity with snapshot evidence is ranked
	require.Len(t, run.Predictions, 1)
	assert.Equal(t, "deepseek", run.Predictions[0].EntityID)
	assert.Equal(t, 1, run.Predictions[0].Rank)
	assert.Greater(t, run.Predictions[0].ValidationScore, 0.0)
	assert.NotEmpty(t, run.Predictions[0].Recommendation)

	// the evidence-free entity degraded the run instead of failing it
	assert.Equal(t, contracts.StatusDegraded, run.OverallStatus)
	require.NotEmpty(t, run.Warnings)
	assert.Contains(t, strings.Join(run.Warnings, "\n"), "quietco")
}

func TestRun_IsDeterministic(t *testing.T) {
	predictionDate := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	engine := newBacktestEngine(t, predictionDate)

	first, err := engine.Run(context.Background(), predictionDate, predictionDate.AddDate(0, 2, 0), 5)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := engine.Run(context.Background(), predictionDate, predictionDate.AddDate(0, 2, 0), 5)
		require.NoError(t, err)
		assert.Equal(t, first.Predictions, again.Predictions)
	}
}

func TestRun_RejectsInvertedDates(t *testing.T) {
	predictionDate := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	engine := newBacktestEngine(t, predictionDate)

	_, err := engine.Run(context.Background(), predictionDate, predictionDate.AddDate(0, 0, -1), 5)
	require.Error(t, err)
}

func TestRun_NoSnapshotBeforeFirstBuild(t *testing.T) {
	predictionDate := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	engine := newBacktestEngine(t, predictionDate)

	tooEarly := predictionDate.AddDate(0, -1, 0)
	_, err := engine.Run(context.Background(), tooEarly, predictionDate, 5)
	var noSnap *contracts.NoSnapshotError
	require.ErrorAs(t, err, &noSnap)
}
