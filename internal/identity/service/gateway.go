package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tes-app/tes-backend/internal/identity/domain"
	"github.com/tes-app/tes-backend/internal/identity/provider"
	"github.com/tes-app/tes-backend/internal/logging"
	"github.com/tes-app/tes-backend/internal/metrics"
)

const gatewayName = "identity"

// Gateway is the identity gateway. It validates input locally and maps
// provider error codes onto the registration and sign-in error kinds.
type Gateway struct {
	provider provider.Provider
	validate *validator.Validate
	log      *zap.Logger
	metrics  metrics.Recorder
}

func NewGateway(p provider.Provider, log *zap.Logger, rec metrics.Recorder) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Gateway{
		provider: p,
		validate: validator.New(),
		log:      log,
		metrics:  rec,
	}
}

func (g *Gateway) SignUp(ctx context.Context, email, password string) (uid string, err error) {
	defer metrics.Since(g.metrics, gatewayName, "sign_up", time.Now(), &err)

	email = strings.TrimSpace(email)
	if verr := g.validate.Var(email, "required,email"); verr != nil {
		return "", &domain.RegistrationError{Kind: domain.RegistrationEmailFormat, Err: verr}
	}
	if utf8.RuneCountInString(password) < domain.MinPasswordLength {
		return "", &domain.RegistrationError{Kind: domain.RegistrationShortPassword}
	}

	uid, perr := g.provider.CreateUser(ctx, email, password)
	if perr != nil {
		return "", &domain.RegistrationError{Kind: registrationKind(provider.CodeOf(perr)), Err: perr}
	}
	return uid, nil
}

func (g *Gateway) SignIn(ctx context.Context, email, password string) (creds *domain.Credentials, err error) {
	defer metrics.Since(g.metrics, gatewayName, "sign_in", time.Now(), &err)

	creds, perr := g.provider.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if perr != nil {
		return nil, &domain.AuthError{Kind: authKind(provider.CodeOf(perr)), Err: perr}
	}
	return creds, nil
}

// SignOut ends the user's provider sessions. Revocation is best effort;
// local sign-out always succeeds.
func (g *Gateway) SignOut(ctx context.Context, uid string) {
	if uid == "" {
		return
	}
	var err error
	defer metrics.Since(g.metrics, gatewayName, "sign_out", time.Now(), &err)

	if err = g.provider.RevokeSessions(ctx, uid); err != nil {
		logging.FromContext(ctx, g.log).Warn("revoke refresh tokens failed",
			zap.String("uid", uid), zap.Error(err))
	}
}

// SetDisplayName updates the display name without reporting failure to the
// caller.
func (g *Gateway) SetDisplayName(ctx context.Context, uid, name string) {
	var err error
	defer metrics.Since(g.metrics, gatewayName, "set_display_name", time.Now(), &err)

	if err = g.provider.UpdateUser(ctx, uid, domain.UserUpdate{DisplayName: &name}); err != nil {
		logging.FromContext(ctx, g.log).Warn("display name update failed",
			zap.String("uid", uid), zap.Error(err))
	}
}

// SetPhotoURL returns only after the provider confirmed the change.
func (g *Gateway) SetPhotoURL(ctx context.Context, uid, url string) (err error) {
	defer metrics.Since(g.metrics, gatewayName, "set_photo_url", time.Now(), &err)

	if perr := g.provider.UpdateUser(ctx, uid, domain.UserUpdate{PhotoURL: &url}); perr != nil {
		return &domain.UpdateError{Field: "photo_url", Err: perr}
	}
	return nil
}

func (g *Gateway) CurrentUser(ctx context.Context, uid string) (u *domain.User, err error) {
	defer metrics.Since(g.metrics, gatewayName, "current_user", time.Now(), &err)

	u, err = g.provider.GetUser(ctx, uid)
	if err != nil {
		if provider.CodeOf(err) == provider.CodeUserNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func registrationKind(code provider.Code) domain.RegistrationErrorKind {
	switch code {
	case provider.CodeEmailExists:
		return domain.RegistrationEmailUsed
	case provider.CodeInvalidEmail:
		return domain.RegistrationEmailFormat
	case provider.CodeWeakPassword:
		return domain.RegistrationShortPassword
	default:
		return domain.RegistrationOther
	}
}

func authKind(code provider.Code) domain.AuthErrorKind {
	switch code {
	case provider.CodeInvalidPassword, provider.CodeInvalidCredentials:
		return domain.AuthInvalidPassword
	case provider.CodeEmailNotFound, provider.CodeUserNotFound, provider.CodeInvalidEmail:
		return domain.AuthAccountNotFound
	default:
		return domain.AuthOther
	}
}
