package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
	"github.com/redis/go-redis/v9"
)

const listingKeyPrefix = "classified:"

// RedisStore shares snapshots between replicas. The key TTL only reclaims memory;
// freshness is decided by the caller from CachedAt.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(id uuid.UUID) string {
	return listingKeyPrefix + id.String()
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (entity.ListingSnapshot, bool, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entity.ListingSnapshot{}, false, nil
		}
		return entity.ListingSnapshot{}, false, fmt.Errorf("RedisStore - Get - s.client.Get: %w", err)
	}

	var snapshot entity.ListingSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		_ = s.client.Del(ctx, s.key(id)).Err()

		return entity.ListingSnapshot{}, false, fmt.Errorf("RedisStore - Get - json.Unmarshal: %w", err)
	}

	return snapshot, true, nil
}

func (s *RedisStore) Set(ctx context.Context, snapshot entity.ListingSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("RedisStore - Set - json.Marshal: %w", err)
	}

	err = s.client.Set(ctx, s.key(snapshot.Listing.ID), data, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("RedisStore - Set - s.client.Set: %w", err)
	}

	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.client.Del(ctx, s.key(id)).Err()
	if err != nil {
		return fmt.Errorf("RedisStore - Delete - s.client.Del: %w", err)
	}

	return nil
}
