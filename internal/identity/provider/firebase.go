package provider

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"github.com/tes-app/tes-backend/internal/identity/domain"
)

// adminClient is the subset of *auth.Client the provider uses.
type adminClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

type passwordSigner interface {
	SignIn(ctx context.Context, email, password string) (*domain.Credentials, error)
}

// FirebaseProvider backs identity with Firebase Authentication. Account
// management goes through the Admin SDK, password sign-in through REST.
type FirebaseProvider struct {
	admin  adminClient
	signer passwordSigner
}

func NewFirebaseProvider(client *auth.Client, signIn *PasswordSignIn) *FirebaseProvider {
	return &FirebaseProvider{admin: client, signer: signIn}
}

func (p *FirebaseProvider) CreateUser(ctx context.Context, email, password string) (string, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	rec, err := p.admin.CreateUser(ctx, params)
	if err != nil {
		return "", mapAdminError(err)
	}
	return rec.UID, nil
}

func (p *FirebaseProvider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Credentials, error) {
	if p.signer == nil {
		return nil, &Error{Code: CodeUnknown, Err: errors.New("password sign-in not configured")}
	}
	return p.signer.SignIn(ctx, email, password)
}

func (p *FirebaseProvider) UpdateUser(ctx context.Context, uid string, update domain.UserUpdate) error {
	params := &auth.UserToUpdate{}
	if update.DisplayName != nil {
		params = params.DisplayName(*update.DisplayName)
	}
	if update.PhotoURL != nil {
		params = params.PhotoURL(*update.PhotoURL)
	}
	if _, err := p.admin.UpdateUser(ctx, uid, params); err != nil {
		return mapAdminError(err)
	}
	return nil
}

func (p *FirebaseProvider) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	rec, err := p.admin.GetUser(ctx, uid)
	if err != nil {
		return nil, mapAdminError(err)
	}
	u := &domain.User{}
	if rec.UserInfo != nil {
		u.ID = rec.UID
		u.Email = rec.Email
		u.DisplayName = rec.DisplayName
		u.PhotoURL = rec.PhotoURL
	}
	if u.ID == "" {
		u.ID = uid
	}
	return u, nil
}

func (p *FirebaseProvider) RevokeSessions(ctx context.Context, uid string) error {
	if err := p.admin.RevokeRefreshTokens(ctx, uid); err != nil {
		return mapAdminError(err)
	}
	return nil
}

func mapAdminError(err error) error {
	code := CodeUnknown
	switch {
	case auth.IsEmailAlreadyExists(err):
		code = CodeEmailExists
	case auth.IsInvalidEmail(err):
		code = CodeInvalidEmail
	case auth.IsUserNotFound(err):
		code = CodeUserNotFound
	case auth.IsEmailNotFound(err):
		code = CodeEmailNotFound
	case auth.IsUserDisabled(err):
		code = CodeUserDisabled
	}
	return &Error{Code: code, Err: fmt.Errorf("firebase auth: %w", err)}
}
