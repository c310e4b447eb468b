// Package provider holds the identity provider clients the identity gateway
// talks to. Providers report failures as *Error carrying a stable code; the
// gateway turns codes into the registration and sign-in error kinds.
package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/tes-app/tes-backend/internal/identity/domain"
)

type Provider interface {
	CreateUser(ctx context.Context, email, password string) (string, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Credentials, error)
	UpdateUser(ctx context.Context, uid string, update domain.UserUpdate) error
	GetUser(ctx context.Context, uid string) (*domain.User, error)
	RevokeSessions(ctx context.Context, uid string) error
}

// Code is a provider error code. Values follow the Identity Toolkit names.
type Code string

const (
	CodeUnknown            Code = "UNKNOWN"
	CodeEmailExists        Code = "EMAIL_EXISTS"
	CodeEmailNotFound      Code = "EMAIL_NOT_FOUND"
	CodeInvalidPassword    Code = "INVALID_PASSWORD"
	CodeInvalidCredentials Code = "INVALID_LOGIN_CREDENTIALS"
	CodeInvalidEmail       Code = "INVALID_EMAIL"
	CodeWeakPassword       Code = "WEAK_PASSWORD"
	CodeUserDisabled       Code = "USER_DISABLED"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeTooManyAttempts    Code = "TOO_MANY_ATTEMPTS_TRY_LATER"
)

type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeUnknown
}

// ParseCode extracts the code from an Identity Toolkit error message such as
// "WEAK_PASSWORD : Password should be at least 6 characters".
func ParseCode(message string) Code {
	code := strings.TrimSpace(message)
	if i := strings.IndexAny(code, " :"); i >= 0 {
		code = code[:i]
	}
	if code == "" {
		return CodeUnknown
	}
	return Code(code)
}
