package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "tes:session:"
	maxTxRetries     = 5
)

// RedisStore keeps sessions as JSON values with a sliding TTL. Apply runs
// as an optimistic WATCH/MULTI transaction and retries on conflict.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func (s *RedisStore) key(id string) string {
	return sessionKeyPrefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	sess, ok, err := s.load(ctx, s.client, id)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return New(id), nil
	}
	return sess, nil
}

func (s *RedisStore) load(ctx context.Context, c redis.Cmdable, id string) (Session, bool, error) {
	data, err := c.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return sess, true, nil
}

func (s *RedisStore) Apply(ctx context.Context, id string, ev Event) (Change, error) {
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	key := s.key(id)

	var change Change
	txf := func(tx *redis.Tx) error {
		current, ok, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		change, err = apply(current, ok, id, ev)
		if err != nil || change.Dropped {
			return err
		}
		data, err := json.Marshal(change.Session)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return change, err
	}
	return change, fmt.Errorf("apply %s to session: too much contention", ev.Kind)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}
