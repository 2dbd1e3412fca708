package conviction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/argus/internal/contracts"
)

// PostgresRepository stores assessments as JSONB rows. The table carries
// no unique constraint on (entity_id, analysis_date): history is
// append-only and re-analyses become new rows.
// ⭐ SSOT: assessment persistence happens here only
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates an assessment repository over a pool
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Append inserts one assessment row
func (r *PostgresRepository) Append(ctx context.Context, assessment contracts.ConvictionAssessment) error {
	payload, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}

	query := `
		INSERT INTO conviction.assessments (entity_id, analysis_date, payload)
		VALUES ($1, $2, $3)
	`

	_, err = r.pool.Exec(ctx, query, assessment.EntityID, assessment.AnalysisDate, payload)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}

	return nil
}

// History returns an entity's assessments, newest first
func (r *PostgresRepository) History(ctx context.Context, entityID string, limit int) ([]contracts.ConvictionAssessment, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT payload
		FROM conviction.assessments
		WHERE entity_id = $1
		ORDER BY analysis_date DESC, created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var out []contracts.ConvictionAssessment
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		var assessment contracts.ConvictionAssessment
		if err := json.Unmarshal(payload, &assessment); err != nil {
			return nil, fmt.Errorf("unmarshal assessment: %w", err)
		}
		out = append(out, assessment)
	}

	return out, rows.Err()
}
