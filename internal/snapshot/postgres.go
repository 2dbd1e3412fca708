package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/argus/internal/contracts"
)

// PostgresStore persists snapshots as JSONB rows keyed by date
// ⭐ SSOT: snapshot persistence happens here only
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a snapshot store over a connection pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Put inserts a snapshot; a rebuild with identical checksum leaves the
// stored row untouched
func (s *PostgresStore) Put(ctx context.Context, snap *contracts.SourceSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshots.source_snapshots (snapshot_date, checksum, built_at, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (snapshot_date) DO UPDATE
			SET checksum = EXCLUDED.checksum,
			    built_at = EXCLUDED.built_at,
			    payload  = EXCLUDED.payload
			WHERE snapshots.source_snapshots.checksum <> EXCLUDED.checksum
	`

	_, err = s.pool.Exec(ctx, query, DateKey(snap.Date), snap.Checksum, snap.BuiltAt, payload)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return nil
}

// Latest returns the most recent snapshot at or before asOf
func (s *PostgresStore) Latest(ctx context.Context, asOf time.Time) (*contracts.SourceSnapshot, error) {
	query := `
		SELECT payload
		FROM snapshots.source_snapshots
		WHERE snapshot_date <= $1
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	var payload []byte
	err := s.pool.QueryRow(ctx, query, DateKey(asOf)).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &contracts.NoSnapshotError{Date: asOf}
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	var snap contracts.SourceSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snap, nil
}
