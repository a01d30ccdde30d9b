package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prudhvinik1/crmsync/internal/models"
	"github.com/redis/go-redis/v9"
)

const lastRunKey = "crmsync:last_run"

type RedisSyncRunRepository struct {
	client *redis.Client
}

func NewRedisSyncRunRepository(client *redis.Client) *RedisSyncRunRepository {
	return &RedisSyncRunRepository{client: client}
}

// SetLastRun overwrites the stored summary. Called at run start (status
// running) and again at run end, so a crashed run stays visible as running.
func (r *RedisSyncRunRepository) SetLastRun(ctx context.Context, run *models.SyncRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal sync run: %w", err)
	}

	if err := r.client.Set(ctx, lastRunKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set sync run: %w", err)
	}
	return nil
}

func (r *RedisSyncRunRepository) GetLastRun(ctx context.Context) (*models.SyncRun, error) {
	data, err := r.client.Get(ctx, lastRunKey).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync run: %w", err)
	}

	var run models.SyncRun
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync run: %w", err)
	}
	return &run, nil
}
