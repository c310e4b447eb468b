package repository

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/tes-app/tes-backend/internal/profile/domain"
)

// MemoryRepository keeps raw documents in a map, so malformed entries can
// exist the same way they can in a schemaless store.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
	log  *zap.Logger
}

func NewMemoryRepository(log *zap.Logger) *MemoryRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryRepository{docs: make(map[string]map[string]any), log: log}
}

func (r *MemoryRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.UserProfile, 0, len(ids))
	for _, id := range ids {
		p, err := decodeDocument(id, r.docs[id])
		if err != nil {
			r.log.Debug("skipping malformed profile document", zap.String("id", id), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	doc, ok := r.docs[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	p, err := decodeDocument(userID, doc)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MemoryRepository) Put(ctx context.Context, profile domain.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.docs[profile.ID] = encodeDocument(profile)
	r.mu.Unlock()
	return nil
}

// PutRaw stores an arbitrary document under id.
func (r *MemoryRepository) PutRaw(id string, doc map[string]any) {
	r.mu.Lock()
	r.docs[id] = doc
	r.mu.Unlock()
}
