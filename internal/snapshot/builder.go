package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/pkg/logger"
)

// SourceSpec declares one configured external source and its freshness SLA
type SourceSpec struct {
	Name         string                   `yaml:"name" json:"name"`
	Category     contracts.SourceCategory `yaml:"category" json:"category"`
	FreshnessSLA time.Duration            `yaml:"freshness_sla" json:"freshness_sla"`
}

// Service builds date-keyed snapshots and serves point-in-time reads.
// ⭐ SSOT: snapshot construction and as-of reads happen here only
type Service struct {
	specs []SourceSpec
	store Store
	log   *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-date build locks
}

// NewService creates a snapshot service over a store
func NewService(specs []SourceSpec, store Store, log *logger.Logger) *Service {
	return &Service{
		specs: specs,
		store: store,
		log:   log.WithComponent("snapshot"),
		locks: make(map[string]*sync.Mutex),
	}
}

// dateLock returns the exclusive build lock for a date
func (s *Service) dateLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

// Build merges raw source outputs into an immutable snapshot for a date.
// Missing, stale and empty sources are recorded in data health rather
// than failing the build. Rebuilding an unchanged date is idempotent.
func (s *Service) Build(ctx context.Context, date time.Time, raws []contracts.RawSourceOutput) (*contracts.SourceSnapshot, error) {
	key := DateKey(date)
	lock := s.dateLock(key)
	lock.Lock()
	defer lock.Unlock()

	byName := make(map[string]*contracts.RawSourceOutput, len(raws))
	for i := range raws {
		byName[raws[i].Source] = &raws[i]
	}

	snap := &contracts.SourceSnapshot{
		Date:       date,
		Categories: make(map[contracts.SourceCategory]*contracts.CategoryPayload),
	}

	for _, cat := range contracts.AllCategories {
		snap.Categories[cat] = &contracts.CategoryPayload{Category: cat}
	}

	for _, spec := range s.specs {
		raw, ok := byName[spec.Name]
		health := contracts.SourceHealth{Source: spec.Name, Category: spec.Category}

		switch {
		case !ok:
			health.Health = contracts.HealthMissing
			health.Note = "no output found"

		case len(raw.Items) == 0:
			health.Health = contracts.HealthNoData
			health.ProducedAt = raw.ProducedAt

		default:
			health.ProducedAt = raw.ProducedAt
			if spec.FreshnessSLA > 0 && raw.ProducedAt.Before(date.Add(-spec.FreshnessSLA)) {
				health.Health = contracts.HealthStale
				health.Note = fmt.Sprintf("output older than SLA %s", spec.FreshnessSLA)
			} else {
				health.Health = contracts.HealthAvailable
			}

			payload := snap.Categories[spec.Category]
			if payload.SchemaVersion == "" || raw.SchemaVersion > payload.SchemaVersion {
				payload.SchemaVersion = raw.SchemaVersion
			}
			payload.Items = append(payload.Items, raw.Items...)
		}

		snap.Health = append(snap.Health, health)
	}

	// Deterministic ordering so identical inputs yield identical bytes
	for _, payload := range snap.Categories {
		sort.Slice(payload.Items, func(i, j int) bool {
			a, b := payload.Items[i], payload.Items[j]
			if a.Source != b.Source {
				return a.Source < b.Source
			}
			if a.Identifier != b.Identifier {
				return a.Identifier < b.Identifier
			}
			return a.ObservedAt.Before(b.ObservedAt)
		})
	}
	sort.Slice(snap.Health, func(i, j int) bool { return snap.Health[i].Source < snap.Health[j].Source })

	checksum, err := checksumOf(snap)
	if err != nil {
		return nil, fmt.Errorf("snapshot checksum: %w", err)
	}
	snap.Checksum = checksum
	snap.BuiltAt = time.Now().UTC()

	if err := s.store.Put(ctx, snap); err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"date":     key,
		"checksum": checksum[:12],
		"sources":  len(s.specs),
	}).Info("snapshot built")

	return snap, nil
}

// GetSnapshot returns the latest snapshot at or before date with all
// forward-dated records filtered out. Returns *contracts.NoSnapshotError
// when nothing usable exists.
func (s *Service) GetSnapshot(ctx context.Context, date time.Time) (*contracts.SourceSnapshot, error) {
	snap, err := s.store.Latest(ctx, date)
	if err != nil {
		return nil, err
	}
	return filterForward(snap, date), nil
}

// checksumOf hashes the content-bearing parts of a snapshot. BuiltAt is
// excluded so rebuilds of identical content compare equal.
func checksumOf(snap *contracts.SourceSnapshot) (string, error) {
	type hashable struct {
		Date       string                                        `json:"date"`
		Categories map[contracts.SourceCategory]*contracts.CategoryPayload `json:"categories"`
		Health     []contracts.SourceHealth                      `json:"health"`
	}

	// map order does not matter: encoding/json sorts map keys
	jsonBytes, err := json.Marshal(hashable{
		Date:       DateKey(snap.Date),
		Categories: snap.Categories,
		Health:     snap.Health,
	})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
