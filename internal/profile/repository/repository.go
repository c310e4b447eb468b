// Package repository stores user profile documents.
package repository

import (
	"context"
	"fmt"

	"github.com/tes-app/tes-backend/internal/profile/domain"
)

// Repository is a profile document store keyed by user id. Get returns
// domain.ErrProfileNotFound when no document exists. List skips documents
// that do not decode into a profile.
type Repository interface {
	List(ctx context.Context) ([]domain.UserProfile, error)
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Put(ctx context.Context, profile domain.UserProfile) error
}

var documentFields = []string{"userGender", "userBD", "userFirstLogin", "userCountry"}

// decodeDocument turns a raw document into a profile. Every known field that
// is present must be a string.
func decodeDocument(id string, doc map[string]any) (domain.UserProfile, error) {
	p := domain.UserProfile{ID: id}
	targets := []*string{&p.Gender, &p.Birthday, &p.FirstLogin, &p.Country}
	for i, field := range documentFields {
		v, ok := doc[field]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return domain.UserProfile{}, fmt.Errorf("document %s: field %s is %T, not string", id, field, v)
		}
		*targets[i] = s
	}
	return p, nil
}

func encodeDocument(p domain.UserProfile) map[string]any {
	return map[string]any{
		"userGender":     p.Gender,
		"userBD":         p.Birthday,
		"userFirstLogin": p.FirstLogin,
		"userCountry":    p.Country,
	}
}
