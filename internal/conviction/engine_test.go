package conviction

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/internal/registry"
	"github.com/wonny/argus/internal/snapshot"
	"github.com/wonny/argus/pkg/logger"
)

const engineRegistryYAML = `entities:
  - id: deepseek
    name: DeepSeek
    type: company
    linked_assets:
      github_org:
        - deepseek-ai
  - id: mistral
    name: Mistral AI
    type: company
`

func loadEngineRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(engineRegistryYAML), 0o644))
	reg, err := registry.Load(path)
	require.NoError(t, err)
	return reg
}

func engineSnapshot(date time.Time) *contracts.SourceSnapshot {
	observed := date.Add(-2 * time.Hour)
	return &contracts.SourceSnapshot{
		Date: date,
		Categories: map[contracts.SourceCategory]*contracts.CategoryPayload{
			contracts.CategoryTechnical: {
				Category: contracts.CategoryTechnical,
				Items: []contracts.PayloadItem{
					{
						Source:     "github",
						Identifier: "deepseek-ai/DeepSeek-V3",
						ObservedAt: observed,
						Fields: map[string]any{
							"stars":                  15000.0,
							"forks":                  1200.0,
							"stars_per_week":         350.0,
							"days_since_last_commit": 2.0,
							"weekly_stars":           []any{80.0, 140.0, 260.0},
						},
					},
					{
						Source:     "github",
						Identifier: "mistralai/mistral-src",
						ObservedAt: observed,
						Fields:     map[string]any{"stars": 9000.0},
					},
				},
			},
			contracts.CategorySocial: {
				Category: contracts.CategorySocial,
				Items: []contracts.PayloadItem{
					{
						Source:     "social",
						Identifier: "DeepSeek",
						ObservedAt: observed,
						Fields: map[string]any{
							"text":     "DeepSeek tops the open leaderboard again",
							"mentions": 420.0,
						},
					},
				},
			},
			contracts.CategoryFinancial: {
				Category: contracts.CategoryFinancial,
				Items: []contracts.PayloadItem{
					{
						Source:     "funding",
						Identifier: "DeepSeek",
						ObservedAt: observed,
						Fields: map[string]any{
							"months_since_funding": 6.0,
							"pricing_model":        "self_serve",
						},
					},
				},
			},
		},
	}
}

func TestExtractInputs_AttributesOnlyOwnedItems(t *testing.T) {
	reg := loadEngineRegistry(t)
	snap := engineSnapshot(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))

	entity, ok := reg.Get("deepseek")
	require.True(t, ok)

	growth, risk := ExtractInputs(reg, entity, snap)

	// the mistral repo item never leaks into deepseek's inputs
	assert.Equal(t, 15000.0, growth.Stars)
	assert.Equal(t, 1200.0, growth.Forks)
	assert.Equal(t, 350.0, growth.StarVelocity)
	assert.Equal(t, 420.0, growth.Mentions)
	assert.Equal(t, []float64{80, 140, 260}, growth.WeeklyStars)

	assert.True(t, risk.HasPublicRepo)
	require.NotNil(t, risk.DaysSinceLastCommit)
	assert.Equal(t, 2, *risk.DaysSinceLastCommit)
	require.NotNil(t, risk.PricingModel)
	assert.Equal(t, PricingSelfServe, *risk.PricingModel)
	assert.True(t, risk.HasSelfServeAccess)
	require.NotNil(t, risk.MonthsSinceFunding)
	assert.Equal(t, 6, *risk.MonthsSinceFunding)
}

func TestExtractInputs_IncidentEvidence(t *testing.T) {
	reg := loadEngineRegistry(t)
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	snap := &contracts.SourceSnapshot{
		Date: date,
		Categories: map[contracts.SourceCategory]*contracts.CategoryPayload{
			contracts.CategorySocial: {
				Category: contracts.CategorySocial,
				Items: []contracts.PayloadItem{
					{
						Source:     "news",
						Identifier: "DeepSeek",
						ObservedAt: date.Add(-time.Hour),
						Fields: map[string]any{
							"incident_kind":     "security_breach",
							"incident_severity": 0.6,
							"incident_detail":   "API key exposure",
						},
					},
				},
			},
		},
	}

	entity, ok := reg.Get("deepseek")
	require.True(t, ok)

	_, risk := ExtractInputs(reg, entity, snap)

	require.Len(t, risk.Incidents, 1)
	assert.Equal(t, IncidentBreach, risk.Incidents[0].Kind)
	assert.Equal(t, 0.6, risk.Incidents[0].Severity)
	assert.Equal(t, "API key exposure", risk.Incidents[0].Detail)
}

func TestScore_AppendsToRepository(t *testing.T) {
	reg := loadEngineRegistry(t)
	asOf := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	specs := []snapshot.SourceSpec{
		{Name: "github", Category: contracts.CategoryTechnical, FreshnessSLA: 48 * time.Hour},
		{Name: "social", Category: contracts.CategorySocial, FreshnessSLA: 24 * time.Hour},
		{Name: "funding", Category: contracts.CategoryFinancial, FreshnessSLA: 168 * time.Hour},
	}
	svc := snapshot.NewService(specs, snapshot.NewMemoryStore(), logger.NewNop())

	built := engineSnapshot(asOf)
	var raws []contracts.RawSourceOutput
	for _, spec := range specs {
		payload := built.Category(spec.Category)
		if payload == nil {
			continue
		}
		raws = append(raws, contracts.RawSourceOutput{
			Source:        spec.Name,
			Category:      spec.Category,
			SchemaVersion: "1.0.0",
			ProducedAt:    asOf.Add(-2 * time.Hour),
			Items:         payload.Items,
		})
	}
	_, err := svc.Build(context.Background(), asOf, raws)
	require.NoError(t, err)

	repo := NewMemoryRepository()
	engine := NewEngine(registry.NewHandle(reg), svc, repo, logger.NewNop())

	assessment, err := engine.Score(context.Background(), "deepseek", asOf)
	require.NoError(t, err)

	assert.Equal(t, "deepseek", assessment.EntityID)
	assert.Equal(t, contracts.ClassCommercialSaaS, assessment.EntityClass)
	assert.Greater(t, assessment.ConvictionScore, 0.0)
	assert.NotEmpty(t, assessment.Recommendation)

	history, err := repo.History(context.Background(), "deepseek", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, assessment.ConvictionScore, history[0].ConvictionScore)

	// a rescore appends; history is never overwritten
	_, err = engine.Score(context.Background(), "deepseek", asOf)
	require.NoError(t, err)
	history, err = repo.History(context.Background(), "deepseek", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestScore_UnknownEntity(t *testing.T) {
	reg := loadEngineRegistry(t)
	svc := snapshot.NewService(nil, snapshot.NewMemoryStore(), logger.NewNop())
	engine := NewEngine(registry.NewHandle(reg), svc, NewMemoryRepository(), logger.NewNop())

	_, err := engine.Score(context.Background(), "nonexistent", time.Now())
	require.Error(t, err)
}
