package repository

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tes-app/tes-backend/internal/profile/domain"
)

const DefaultCollection = "Users_Data"

type FirestoreRepository struct {
	client     *firestore.Client
	collection string
	log        *zap.Logger
}

func NewFirestoreRepository(client *firestore.Client, collection string, log *zap.Logger) *FirestoreRepository {
	if collection == "" {
		collection = DefaultCollection
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FirestoreRepository{client: client, collection: collection, log: log}
}

func (r *FirestoreRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	snaps, err := r.client.Collection(r.collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.collection, err)
	}

	out := make([]domain.UserProfile, 0, len(snaps))
	for _, snap := range snaps {
		p, err := decodeDocument(snap.Ref.ID, snap.Data())
		if err != nil {
			r.log.Debug("skipping malformed profile document", zap.String("id", snap.Ref.ID), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *FirestoreRepository) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	snap, err := r.client.Collection(r.collection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", r.collection, userID, err)
	}
	if !snap.Exists() {
		return nil, domain.ErrProfileNotFound
	}

	var p domain.UserProfile
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", r.collection, userID, err)
	}
	p.ID = userID
	return &p, nil
}

func (r *FirestoreRepository) Put(ctx context.Context, profile domain.UserProfile) error {
	if profile.ID == "" {
		return errors.New("profile without id")
	}
	if _, err := r.client.Collection(r.collection).Doc(profile.ID).Set(ctx, profile); err != nil {
		return fmt.Errorf("set %s/%s: %w", r.collection, profile.ID, err)
	}
	return nil
}
