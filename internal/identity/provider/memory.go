package provider

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tes-app/tes-backend/internal/identity/domain"
)

type memoryAccount struct {
	user         domain.User
	passwordHash []byte
	revoked      int
}

// MemoryProvider keeps accounts in process. Used for local runs and tests.
type MemoryProvider struct {
	mu      sync.RWMutex
	byID    map[string]*memoryAccount
	byEmail map[string]string
	cost    int
}

func NewMemoryProvider() *MemoryProvider {
	return NewMemoryProviderWithCost(bcrypt.DefaultCost)
}

// NewMemoryProviderWithCost lets tests use bcrypt.MinCost.
func NewMemoryProviderWithCost(cost int) *MemoryProvider {
	return &MemoryProvider{
		byID:    make(map[string]*memoryAccount),
		byEmail: make(map[string]string),
		cost:    cost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *MemoryProvider) CreateUser(ctx context.Context, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Code: CodeUnknown, Err: err}
	}
	if !strings.Contains(email, "@") {
		return "", &Error{Code: CodeInvalidEmail, Err: errors.New("malformed email")}
	}
	if utf8.RuneCountInString(password) < domain.MinPasswordLength {
		return "", &Error{Code: CodeWeakPassword, Err: errors.New("password should be at least 6 characters")}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", &Error{Code: CodeUnknown, Err: err}
	}

	key := normalizeEmail(email)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[key]; ok {
		return "", &Error{Code: CodeEmailExists, Err: errors.New("email already in use")}
	}
	uid := uuid.NewString()
	p.byID[uid] = &memoryAccount{
		user:         domain.User{ID: uid, Email: email},
		passwordHash: hash,
	}
	p.byEmail[key] = uid
	return uid, nil
}

func (p *MemoryProvider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Code: CodeUnknown, Err: err}
	}
	p.mu.RLock()
	uid, ok := p.byEmail[normalizeEmail(email)]
	var acc *memoryAccount
	if ok {
		acc = p.byID[uid]
	}
	p.mu.RUnlock()
	if acc == nil {
		return nil, &Error{Code: CodeEmailNotFound, Err: errors.New("no account for email")}
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return nil, &Error{Code: CodeInvalidPassword, Err: err}
	}
	return &domain.Credentials{
		UserID:  acc.user.ID,
		Email:   acc.user.Email,
		IDToken: uuid.NewString(),
	}, nil
}

func (p *MemoryProvider) UpdateUser(ctx context.Context, uid string, update domain.UserUpdate) error {
	if err := ctx.Err(); err != nil {
		return &Error{Code: CodeUnknown, Err: err}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.byID[uid]
	if !ok {
		return &Error{Code: CodeUserNotFound, Err: errors.New("no user record")}
	}
	if update.DisplayName != nil {
		acc.user.DisplayName = *update.DisplayName
	}
	if update.PhotoURL != nil {
		acc.user.PhotoURL = *update.PhotoURL
	}
	return nil
}

func (p *MemoryProvider) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Code: CodeUnknown, Err: err}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	acc, ok := p.byID[uid]
	if !ok {
		return nil, &Error{Code: CodeUserNotFound, Err: errors.New("no user record")}
	}
	u := acc.user
	return &u, nil
}

func (p *MemoryProvider) RevokeSessions(ctx context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.byID[uid]
	if !ok {
		return &Error{Code: CodeUserNotFound, Err: errors.New("no user record")}
	}
	acc.revoked++
	return nil
}

// Revocations reports how many times uid's sessions were revoked.
func (p *MemoryProvider) Revocations(uid string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if acc, ok := p.byID[uid]; ok {
		return acc.revoked
	}
	return 0
}
