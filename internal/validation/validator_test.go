package validation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/internal/registry"
	"github.com/wonny/argus/pkg/logger"
)

const testRegistryYAML = `entities:
  - id: deepseek
    name: DeepSeek
    type: company
    aliases:
      - DeepSeek AI
    linked_assets:
      github_org:
        - deepseek-ai
    website: https://deepseek.com
ambiguity_rules:
  - term: deepseek
    context_keywords: []
`

func loadTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRegistryYAML), 0o644))
	reg, err := registry.Load(path)
	require.NoError(t, err)
	return reg
}

func resolvedDeepSeek(reg *registry.Registry) contracts.EntityResolution {
	return contracts.EntityResolution{
		RawName:        "DeepSeek",
		SourceCategory: contracts.CategoryTechnical,
		PrimaryMatch: &contracts.MatchCandidate{
			EntityID:   "deepseek",
			Name:       "DeepSeek",
			Type:       contracts.EntityCompany,
			Tier:       1,
			Confidence: 1,
		},
		Confidence:      1,
		Path:            contracts.PathTier1,
		RegistryVersion: reg.Version,
	}
}

// snapshotWith builds a snapshot whose categories hold exactly the given
// items; categories absent from the map count as missing
func snapshotWith(items map[contracts.SourceCategory][]contracts.PayloadItem) *contracts.SourceSnapshot {
	snap := &contracts.SourceSnapshot{
		Date:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Categories: make(map[contracts.SourceCategory]*contracts.CategoryPayload),
	}
	for cat, catItems := range items {
		snap.Categories[cat] = &contracts.CategoryPayload{Category: cat, Items: catItems}
	}
	return snap
}

func observed(day int) time.Time {
	return time.Date(2026, 7, day, 12, 0, 0, 0, time.UTC)
}

func TestCompute_OrgMatchPlusSocialMentionValidates(t *testing.T) {
	reg := loadTestRegistry(t)
	v := New(logger.NewNop())

	snap := snapshotWith(map[contracts.SourceCategory][]contracts.PayloadItem{
		contracts.CategoryTechnical: {
			{Source: "github", Identifier: "deepseek-ai/DeepSeek-V3", ObservedAt: observed(28)},
		},
		contracts.CategorySocial: {
			{Source: "social", Identifier: "DeepSeek", ObservedAt: observed(30),
				Fields: map[string]any{"text": "DeepSeek-V3 benchmark thread"}},
		},
	})

	result, err := v.Compute(resolvedDeepSeek(reg), reg, snap)
	require.NoError(t, err)

	assert.Equal(t, contracts.ValidationValidated, result.Status)
	assert.True(t, result.Validated)
	assert.GreaterOrEqual(t, result.Coverage, 0.5)
	assert.Len(t, result.Matches, 2)
	// the org-prefixed repo identifier counts as tier-1 evidence
	assert.Equal(t, 2, result.TierDistribution[1])
}

func TestCompute_ScoreBounds(t *testing.T) {
	reg := loadTestRegistry(t)
	v := New(logger.NewNop())

	snapshots := []*contracts.SourceSnapshot{
		snapshotWith(nil),
		snapshotWith(map[contracts.SourceCategory][]contracts.PayloadItem{
			contracts.CategoryTechnical: {
				{Source: "github", Identifier: "deepseek-ai/DeepSeek-V3", ObservedAt: observed(28)},
			},
		}),
		snapshotWith(map[contracts.SourceCategory][]contracts.PayloadItem{
			contracts.CategoryTechnical: {
				{Source: "github", Identifier: "deepseek-ai/DeepSeek-V3", ObservedAt: observed(28)},
			},
			contracts.CategorySocial: {
				{Source: "social", Identifier: "DeepSeek", ObservedAt: observed(29)},
			},
			contracts.CategoryFinancial: {
				{Source: "funding", Identifier: "DeepSeek", ObservedAt: observed(30)},
			},
			contracts.CategoryPredictive: {
				{Source: "jobs", Identifier: "DeepSeek AI", ObservedAt: observed(30)},
			},
		}),
	}

	for _, snap := range snapshots {
		result, _ := v.Compute(resolvedDeepSeek(reg), reg, snap)
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 1.0)
		assert.GreaterOrEqual(t, result.Strength, 0.0)
		assert.LessOrEqual(t, result.Strength, 1.0)
	}
}

func TestCompute_ZeroCoverageMeansZeroScore(t *testing.T) {
	reg := loadTestRegistry(t)
	v := New(logger.NewNop())

	result, err := v.Compute(resolvedDeepSeek(reg), reg, snapshotWith(nil))

	// soft failure: the result is tagged and retained, never dropped
	require.Error(t, err)
	var insufficient *contracts.ValidationInsufficientDataError
	assert.ErrorAs(t, err, &insufficient)

	assert.Equal(t, contracts.ValidationInsufficientData, result.Status)
	assert.Zero(t, result.Coverage)
	assert.Zero(t, result.Score)
	assert.Equal(t, "deepseek", result.EntityID)
}

func TestCompute_AllCategoriesHighConfidence(t *testing.T) {
	reg := loadTestRegistry(t)
	v := New(logger.NewNop())

	snap := snapshotWith(map[contracts.SourceCategory][]contracts.PayloadItem{
		contracts.CategoryTechnical: {
			{Source: "github", Identifier: "deepseek-ai/DeepSeek-V3", ObservedAt: observed(28)},
		},
		contracts.CategorySocial: {
			{Source: "social", Identifier: "DeepSeek", ObservedAt: observed(29)},
		},
		contracts.CategoryFinancial: {
			{Source: "funding", Identifier: "DeepSeek", ObservedAt: observed(30)},
		},
		contracts.CategoryPredictive: {
			{Source: "jobs", Identifier: "DeepSeek AI", ObservedAt: observed(30)},
		},
	})

	result, err := v.Compute(resolvedDeepSeek(reg), reg, snap)
	require.NoError(t, err)

	assert.Equal(t, contracts.ValidationHighConfidence, result.Status)
	assert.Equal(t, 1.0, result.Coverage)
	assert.GreaterOrEqual(t, result.Score, 0.7)
}

func TestCompute_UnresolvedEntity(t *testing.T) {
	reg := loadTestRegistry(t)
	v := New(logger.NewNop())

	result, err := v.Compute(contracts.EntityResolution{Path: contracts.PathUnresolved}, reg, snapshotWith(nil))
	require.NoError(t, err)

	assert.Equal(t, contracts.ValidationUnvalidated, result.Status)
	assert.NotEmpty(t, result.FailReasons)
}

func TestGate(t *testing.T) {
	strong := func(cat contracts.SourceCategory, ident string) contracts.SourceMatch {
		return contracts.SourceMatch{Category: cat, Identifier: ident, Tier: 1, Weight: 1.0}
	}
	weak := func(cat contracts.SourceCategory, ident string, qualified bool) contracts.SourceMatch {
		return contracts.SourceMatch{Category: cat, Identifier: ident, Tier: 3, Weight: 0.3, ContextQualified: qualified}
	}

	tests := []struct {
		name    string
		matches []contracts.SourceMatch
		want    bool
	}{
		{
			name:    "two independent strong sources",
			matches: []contracts.SourceMatch{strong(contracts.CategoryTechnical, "a"), strong(contracts.CategorySocial, "b")},
			want:    true,
		},
		{
			name:    "one strong source is not enough",
			matches: []contracts.SourceMatch{strong(contracts.CategoryTechnical, "a")},
			want:    false,
		},
		{
			name: "tier-1 plus two qualified tier-3",
			matches: []contracts.SourceMatch{
				strong(contracts.CategoryTechnical, "a"),
				weak(contracts.CategorySocial, "b", true),
				weak(contracts.CategorySocial, "c", true),
			},
			want: true,
		},
		{
			name: "tier-3 only evidence never validates",
			matches: []contracts.SourceMatch{
				weak(contracts.CategorySocial, "a", true),
				weak(contracts.CategorySocial, "b", true),
				weak(contracts.CategoryPredictive, "c", true),
			},
			want: false,
		},
		{
			name: "unqualified tier-3 does not count",
			matches: []contracts.SourceMatch{
				strong(contracts.CategoryTechnical, "a"),
				weak(contracts.CategorySocial, "b", false),
				weak(contracts.CategorySocial, "c", true),
			},
			want: false,
		},
		{
			name:    "no matches",
			matches: nil,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate(tt.matches); got != tt.want {
				t.Errorf("gate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTemporalAlignment(t *testing.T) {
	at := func(day int) contracts.SourceMatch {
		return contracts.SourceMatch{ObservedAt: observed(day)}
	}

	tests := []struct {
		name    string
		matches []contracts.SourceMatch
		want    float64
	}{
		{"single hit scores zero", []contracts.SourceMatch{at(1)}, 0.0},
		{"tight cluster", []contracts.SourceMatch{at(1), at(5)}, 1.0},
		{"two week spread", []contracts.SourceMatch{at(1), at(11)}, 0.7},
		{"scattered", []contracts.SourceMatch{at(1), at(25)}, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := temporalAlignment(tt.matches); got != tt.want {
				t.Errorf("temporalAlignment() = %v, want %v", got, tt.want)
			}
		})
	}
}
