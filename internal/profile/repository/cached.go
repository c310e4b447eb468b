package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tes-app/tes-backend/internal/profile/domain"
)

const (
	profileKeyPrefix  = "tes:profile:"
	DefaultProfileTTL = 15 * time.Minute
)

// CachedRepository puts a Redis cache-aside layer in front of another
// repository. Only keyed reads are cached; Put invalidates.
type CachedRepository struct {
	next   Repository
	client redis.UniversalClient
	ttl    time.Duration
	log    *zap.Logger
}

func NewCachedRepository(next Repository, client redis.UniversalClient, ttl time.Duration, log *zap.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedRepository{next: next, client: client, ttl: ttl, log: log}
}

func (r *CachedRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	return r.next.List(ctx)
}

func (r *CachedRepository) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	key := profileKeyPrefix + userID

	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var p domain.UserProfile
		if uerr := json.Unmarshal(data, &p); uerr == nil {
			return &p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.log.Warn("profile cache read failed", zap.String("uid", userID), zap.Error(err))
	}

	p, err := r.next.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
			r.log.Warn("profile cache write failed", zap.String("uid", userID), zap.Error(err))
		}
	}
	return p, nil
}

func (r *CachedRepository) Put(ctx context.Context, profile domain.UserProfile) error {
	if err := r.next.Put(ctx, profile); err != nil {
		return err
	}
	if err := r.client.Del(ctx, profileKeyPrefix+profile.ID).Err(); err != nil {
		r.log.Warn("profile cache invalidation failed", zap.String("uid", profile.ID), zap.Error(err))
	}
	return nil
}
