package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/pkg/logger"
)

var testSpecs = []SourceSpec{
	{Name: "github", Category: contracts.CategoryTechnical, FreshnessSLA: 48 * time.Hour},
	{Name: "social", Category: contracts.CategorySocial, FreshnessSLA: 24 * time.Hour},
	{Name: "funding", Category: contracts.CategoryFinancial, FreshnessSLA: 7 * 24 * time.Hour},
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService() *Service {
	return NewService(testSpecs, NewMemoryStore(), logger.NewNop())
}

func rawOutputs(buildDate time.Time) []contracts.RawSourceOutput {
	return []contracts.RawSourceOutput{
		{
			Source:        "github",
			Category:      contracts.CategoryTechnical,
			SchemaVersion: "1.0.0",
			ProducedAt:    buildDate,
			Items: []contracts.PayloadItem{
				{Source: "github", Identifier: "deepseek-ai/DeepSeek-V3", ObservedAt: buildDate.Add(-2 * time.Hour),
					Fields: map[string]any{"stars": float64(58000)}},
			},
		},
		{
			Source:        "social",
			Category:      contracts.CategorySocial,
			SchemaVersion: "1.0.0",
			ProducedAt:    buildDate,
			Items: []contracts.PayloadItem{
				{Source: "social", Identifier: "DeepSeek", ObservedAt: buildDate.Add(-6 * time.Hour),
					Fields: map[string]any{"text": "DeepSeek release discussion"}},
			},
		},
	}
}

func TestBuild_HealthClassification(t *testing.T) {
	svc := newTestService()
	buildDate := date(2026, 8, 1)

	raws := rawOutputs(buildDate)
	// funding emitted output but with zero items
	raws = append(raws, contracts.RawSourceOutput{
		Source:     "funding",
		Category:   contracts.CategoryFinancial,
		ProducedAt: buildDate,
	})
	// social output is older than its 24h SLA
	raws[1].ProducedAt = buildDate.Add(-72 * time.Hour)

	snap, err := svc.Build(context.Background(), buildDate, raws)
	require.NoError(t, err)

	health := make(map[string]contracts.DataHealth)
	for _, h := range snap.Health {
		health[h.Source] = h.Health
	}

	assert.Equal(t, contracts.HealthAvailable, health["github"])
	assert.Equal(t, contracts.HealthStale, health["social"])
	assert.Equal(t, contracts.HealthNoData, health["funding"])
}

func TestBuild_MissingSource(t *testing.T) {
	svc := newTestService()
	buildDate := date(2026, 8, 1)

	// only github reports; the build still succeeds
	snap, err := svc.Build(context.Background(), buildDate, rawOutputs(buildDate)[:1])
	require.NoError(t, err)

	var fundingHealth contracts.SourceHealth
	for _, h := range snap.Health {
		if h.Source == "funding" {
			fundingHealth = h
		}
	}
	assert.Equal(t, contracts.HealthMissing, fundingHealth.Health)
	assert.True(t, snap.HasUsableData(contracts.CategoryTechnical))
	assert.False(t, snap.HasUsableData(contracts.CategoryFinancial))
}

func TestBuild_RebuildIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(testSpecs, store, logger.NewNop())
	buildDate := date(2026, 8, 1)

	first, err := svc.Build(context.Background(), buildDate, rawOutputs(buildDate))
	require.NoError(t, err)

	// shuffle input order; the snapshot content is order-independent
	raws := rawOutputs(buildDate)
	raws[0], raws[1] = raws[1], raws[0]
	second, err := svc.Build(context.Background(), buildDate, raws)
	require.NoError(t, err)

	assert.Equal(t, first.Checksum, second.Checksum)

	stored, err := store.Latest(context.Background(), buildDate)
	require.NoError(t, err)
	// the stored row kept the original BuiltAt: the rebuild was a no-op
	assert.Equal(t, first.BuiltAt, stored.BuiltAt)
}

func TestGetSnapshot_ExcludesForwardDatedRecords(t *testing.T) {
	svc := newTestService()
	buildDate := date(2026, 8, 1)

	raws := rawOutputs(buildDate)
	// inject an out-of-order record timestamped after the snapshot date
	raws[0].Items = append(raws[0].Items, contracts.PayloadItem{
		Source:     "github",
		Identifier: "future/repo",
		ObservedAt: buildDate.Add(72 * time.Hour),
		Fields:     map[string]any{"stars": float64(1)},
	})

	_, err := svc.Build(context.Background(), buildDate, raws)
	require.NoError(t, err)

	snap, err := svc.GetSnapshot(context.Background(), buildDate)
	require.NoError(t, err)

	for _, payload := range snap.Categories {
		for _, item := range payload.Items {
			assert.NotEqual(t, "future/repo", item.Identifier, "forward-dated record leaked")
			assert.False(t, item.ObservedAt.After(buildDate.Add(24*time.Hour-time.Nanosecond)))
		}
	}
	// the legitimate same-day records survive
	assert.True(t, snap.HasUsableData(contracts.CategoryTechnical))
}

func TestGetSnapshot_FallsBackToEarlierDate(t *testing.T) {
	svc := newTestService()
	buildDate := date(2026, 8, 1)

	_, err := svc.Build(context.Background(), buildDate, rawOutputs(buildDate))
	require.NoError(t, err)

	snap, err := svc.GetSnapshot(context.Background(), date(2026, 8, 15))
	require.NoError(t, err)
	assert.Equal(t, buildDate, snap.Date)
}

func TestGetSnapshot_NoSnapshot(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetSnapshot(context.Background(), date(2026, 8, 1))
	require.Error(t, err)

	var noSnap *contracts.NoSnapshotError
	assert.ErrorAs(t, err, &noSnap)
}

func TestMemoryStore_LatestRespectsAsOf(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(testSpecs, store, logger.NewNop())

	early := date(2026, 7, 1)
	late := date(2026, 8, 1)
	_, err := svc.Build(context.Background(), early, rawOutputs(early))
	require.NoError(t, err)
	_, err = svc.Build(context.Background(), late, rawOutputs(late))
	require.NoError(t, err)

	snap, err := store.Latest(context.Background(), date(2026, 7, 15))
	require.NoError(t, err)
	assert.Equal(t, early, snap.Date)

	// a read before the earliest snapshot has nothing to serve
	_, err = store.Latest(context.Background(), date(2026, 6, 1))
	var noSnap *contracts.NoSnapshotError
	assert.ErrorAs(t, err, &noSnap)
}

func TestCutoff(t *testing.T) {
	bare := date(2026, 8, 1)
	assert.Equal(t, bare.Add(24*time.Hour-time.Nanosecond), cutoff(bare))

	clocked := time.Date(2026, 8, 1, 13, 30, 0, 0, time.UTC)
	assert.Equal(t, clocked, cutoff(clocked))
}
