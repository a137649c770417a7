package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// Redis stores registrations with native key expiry so several kitchen
// processes can share them.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func registrationKey(tableID string) string {
	return fmt.Sprintf("registration:%s", tableID)
}

func (r *Redis) Register(ctx context.Context, tableID, route string) error {
	if err := r.client.Set(ctx, registrationKey(tableID), route, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store registration in Redis")
	}
	return nil
}

func (r *Redis) Lookup(ctx context.Context, tableID string) (string, bool, error) {
	route, err := r.client.Get(ctx, registrationKey(tableID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "failed to read registration from Redis")
	}
	return route, true, nil
}

func (r *Redis) Remove(ctx context.Context, tableID string) error {
	if err := r.client.Del(ctx, registrationKey(tableID)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete registration from Redis")
	}
	return nil
}
