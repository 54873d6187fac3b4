package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	accessKeyPrefix  = "luna:session:access:"
	refreshKeyPrefix = "luna:session:refresh:"
	userKeyPrefix    = "luna:session:user:"
)

// RedisRegistry stores sessions in Redis with native TTL expiry, so multiple
// API instances share one session table and expired records clean themselves
// up without a sweeper.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry connects to Redis at addr and verifies the connection.
func NewRedisRegistry(addr, password string, db int) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisRegistry{client: client}, nil
}

// Close releases the Redis connection.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

func (r *RedisRegistry) Put(ctx context.Context, rec Record) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, accessKeyPrefix+rec.AccessToken, payload, ttl)
	pipe.Set(ctx, refreshKeyPrefix+rec.RefreshToken, rec.AccessToken, ttl)
	pipe.SAdd(ctx, userKeyPrefix+rec.UserID.String(), rec.AccessToken)
	pipe.Expire(ctx, userKeyPrefix+rec.UserID.String(), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisRegistry) GetByAccess(ctx context.Context, accessToken string) (Record, error) {
	payload, err := r.client.Get(ctx, accessKeyPrefix+accessToken).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrSessionNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return Record{}, fmt.Errorf("decode session record: %w", err)
	}
	return rec, nil
}

func (r *RedisRegistry) GetByRefresh(ctx context.Context, refreshToken string) (Record, error) {
	access, err := r.client.Get(ctx, refreshKeyPrefix+refreshToken).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrSessionNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	return r.GetByAccess(ctx, access)
}

func (r *RedisRegistry) Delete(ctx context.Context, accessToken string) error {
	rec, err := r.GetByAccess(ctx, accessToken)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, accessKeyPrefix+rec.AccessToken)
	pipe.Del(ctx, refreshKeyPrefix+rec.RefreshToken)
	pipe.SRem(ctx, userKeyPrefix+rec.UserID.String(), rec.AccessToken)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *RedisRegistry) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	tokens, err := r.client.SMembers(ctx, userKeyPrefix+userID.String()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("list user sessions: %w", err)
	}
	for _, token := range tokens {
		if err := r.Delete(ctx, token); err != nil {
			return err
		}
	}
	return r.client.Del(ctx, userKeyPrefix+userID.String()).Err()
}
