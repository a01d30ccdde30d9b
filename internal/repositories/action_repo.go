package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prudhvinik1/crmsync/internal/models"
)

type PostgresActionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresActionRepository(pool *pgxpool.Pool) *PostgresActionRepository {
	return &PostgresActionRepository{pool: pool}
}

// InsertActions bulk-inserts a batch of action records. Append-only: no
// upsert, no dedup.
func (r *PostgresActionRepository) InsertActions(ctx context.Context, actions []*models.Action) error {
	if len(actions) == 0 {
		return nil
	}

	query := `INSERT INTO actions (type, timestamp, properties, identity, include_in_analytics)
	          VALUES ($1, $2, $3, $4, $5)`

	batch := &pgx.Batch{}
	for _, action := range actions {
		properties, err := json.Marshal(action.Properties)
		if err != nil {
			return fmt.Errorf("failed to marshal action properties: %w", err)
		}
		var identity *string
		if action.Identity != "" {
			identity = &action.Identity
		}
		batch.Queue(query, action.Type, action.Timestamp, properties, identity, action.IncludeInAnalytics)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range actions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert action: %w", err)
		}
	}
	return nil
}

// GetByDateRange returns actions with a timestamp inside [start, end], newest
// first, optionally restricted to one action type.
func (r *PostgresActionRepository) GetByDateRange(ctx context.Context, start, end time.Time, actionType string) ([]*models.Action, error) {
	query := `SELECT id, type, timestamp, properties, identity, include_in_analytics, created_at, updated_at
	          FROM actions
	          WHERE timestamp >= $1 AND timestamp <= $2`
	args := []any{start, end}

	if actionType != "" {
		query += ` AND type = $3`
		args = append(args, actionType)
	}
	query += ` ORDER BY timestamp DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.Action
	for rows.Next() {
		var (
			action     models.Action
			properties []byte
			identity   *string
		)
		err := rows.Scan(
			&action.ID,
			&action.Type,
			&action.Timestamp,
			&properties,
			&identity,
			&action.IncludeInAnalytics,
			&action.CreatedAt,
			&action.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		if err := json.Unmarshal(properties, &action.Properties); err != nil {
			return nil, fmt.Errorf("failed to unmarshal action properties: %w", err)
		}
		if identity != nil {
			action.Identity = *identity
		}
		actions = append(actions, &action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actions: %w", err)
	}
	return actions, nil
}
