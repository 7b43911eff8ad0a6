package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const selectedPlanKeyPrefix = "pump-service-selected-plan||"

// PrefStore remembers the last selected plan of a user across sessions.
type PrefStore interface {
	SelectedPlan(ctx context.Context) (string, error)
	SetSelectedPlan(ctx context.Context, planID string) error
}

// RedisPrefStore keeps the selection in redis, next to the login
// sessions.
type RedisPrefStore struct {
	userID      string
	redisClient *redis.Client
}

var _ PrefStore = (*RedisPrefStore)(nil)

func NewRedisPrefStore(userID string, redisClient *redis.Client) *RedisPrefStore {
	return &RedisPrefStore{
		userID:      userID,
		redisClient: redisClient,
	}
}

func (ps *RedisPrefStore) key() string {
	return fmt.Sprintf("%s%s", selectedPlanKeyPrefix, ps.userID)
}

func (ps *RedisPrefStore) SelectedPlan(ctx context.Context) (string, error) {
	cmd := ps.redisClient.Get(ctx, ps.key())
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return cmd.Val(), nil
}

func (ps *RedisPrefStore) SetSelectedPlan(ctx context.Context, planID string) error {
	if planID == "" {
		return ps.redisClient.Del(ctx, ps.key()).Err()
	}
	return ps.redisClient.Set(ctx, ps.key(), planID, 0).Err()
}
