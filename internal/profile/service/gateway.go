package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tes-app/tes-backend/internal/logging"
	"github.com/tes-app/tes-backend/internal/metrics"
	"github.com/tes-app/tes-backend/internal/profile/domain"
	"github.com/tes-app/tes-backend/internal/profile/repository"
)

const gatewayName = "profile"

// Gateway is the profile store gateway.
type Gateway struct {
	repo    repository.Repository
	log     *zap.Logger
	metrics metrics.Recorder
}

func NewGateway(repo repository.Repository, log *zap.Logger, rec metrics.Recorder) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Gateway{repo: repo, log: log, metrics: rec}
}

// FetchAll returns every decodable profile.
func (g *Gateway) FetchAll(ctx context.Context) (profiles []domain.UserProfile, err error) {
	defer metrics.Since(g.metrics, gatewayName, "fetch_all", time.Now(), &err)

	profiles, err = g.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	return profiles, nil
}

// Create writes profile under userID, replacing any existing document.
func (g *Gateway) Create(ctx context.Context, profile domain.UserProfile, userID string) (err error) {
	defer metrics.Since(g.metrics, gatewayName, "create", time.Now(), &err)

	if userID == "" {
		return fmt.Errorf("%w: empty user id", domain.ErrWrite)
	}
	profile.ID = userID
	if err = g.repo.Put(ctx, profile); err != nil {
		logging.FromContext(ctx, g.log).Error("profile write failed", zap.String("uid", userID), zap.Error(err))
		return fmt.Errorf("%w: %w", domain.ErrWrite, err)
	}
	return nil
}

func (g *Gateway) Get(ctx context.Context, userID string) (p *domain.UserProfile, err error) {
	defer metrics.Since(g.metrics, gatewayName, "get", time.Now(), &err)

	p, err = g.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	return p, nil
}
