package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "flowd:session:"

// RedisStore keeps sessions in redis so they survive process restarts and
// can be shared by replicas.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, accountID uint, needsUpdate bool) (*Session, error) {
	sess := Session{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		NeedsUpdate: needsUpdate,
		CreatedAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sess.ID, payload, s.ttl).Err(); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) SetNeedsUpdate(ctx context.Context, id string, v bool) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.NeedsUpdate = v
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	// KEEPTTL preserves the remaining lifetime instead of restarting it.
	return s.client.Set(ctx, redisKeyPrefix+id, payload, redis.KeepTTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKeyPrefix+id).Err()
}

func (s *RedisStore) RevokeAll(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
