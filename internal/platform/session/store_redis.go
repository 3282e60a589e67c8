package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "session:"
	userSessionPrefix = "user_sessions:"
)

// RedisStore is the production Store: session liveness survives process
// restarts and is shared across replicas.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis using a redis:// URL and verifies the
// connection before returning.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Put(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, userID, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if userID != "" {
		// The user index outlives individual sessions by the same TTL so
		// RevokeAllForUser can find them; stale members are skipped on revoke.
		if err := s.client.SAdd(ctx, userSessionPrefix+userID, sessionID).Err(); err != nil {
			return fmt.Errorf("index session: %w", err)
		}
		if err := s.client.Expire(ctx, userSessionPrefix+userID, ttl).Err(); err != nil {
			return fmt.Errorf("expire session index: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) IsAlive(ctx context.Context, sessionID string) (bool, error) {
	count, err := s.client.Exists(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return count > 0, nil
}

func (s *RedisStore) Refresh(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, sessionKeyPrefix+sessionID, ttl).Err(); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	return nil
}

func (s *RedisStore) Revoke(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *RedisStore) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	sids, err := s.client.SMembers(ctx, userSessionPrefix+userID).Result()
	if err != nil {
		return 0, fmt.Errorf("list user sessions: %w", err)
	}
	count := 0
	for _, sid := range sids {
		deleted, err := s.client.Del(ctx, sessionKeyPrefix+sid).Result()
		if err != nil {
			return count, fmt.Errorf("revoke session %s: %w", sid, err)
		}
		count += int(deleted)
	}
	if err := s.client.Del(ctx, userSessionPrefix+userID).Err(); err != nil {
		return count, fmt.Errorf("clear session index: %w", err)
	}
	return count, nil
}
