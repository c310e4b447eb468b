package domain

import "errors"

type RegistrationErrorKind int

const (
	RegistrationOther RegistrationErrorKind = iota
	RegistrationEmailFormat
	RegistrationShortPassword
	RegistrationEmailUsed
)

func (k RegistrationErrorKind) String() string {
	switch k {
	case RegistrationEmailFormat:
		return "email_format"
	case RegistrationShortPassword:
		return "short_password"
	case RegistrationEmailUsed:
		return "email_used"
	default:
		return "other"
	}
}

// RegistrationError is returned by sign-up.
type RegistrationError struct {
	Kind RegistrationErrorKind
	Err  error
}

func (e *RegistrationError) Error() string {
	if e.Err != nil {
		return "registration failed (" + e.Kind.String() + "): " + e.Err.Error()
	}
	return "registration failed (" + e.Kind.String() + ")"
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Is matches any RegistrationError of the same kind.
func (e *RegistrationError) Is(target error) bool {
	t, ok := target.(*RegistrationError)
	return ok && t.Kind == e.Kind
}

type AuthErrorKind int

const (
	AuthOther AuthErrorKind = iota
	AuthInvalidPassword
	AuthAccountNotFound
)

func (k AuthErrorKind) String() string {
	switch k {
	case AuthInvalidPassword:
		return "invalid_password"
	case AuthAccountNotFound:
		return "account_not_found"
	default:
		return "other"
	}
}

// AuthError is returned by sign-in.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "sign in failed (" + e.Kind.String() + "): " + e.Err.Error()
	}
	return "sign in failed (" + e.Kind.String() + ")"
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// UpdateError is returned when the identity record could not be changed.
type UpdateError struct {
	Field string
	Err   error
}

func (e *UpdateError) Error() string {
	if e.Err != nil {
		return "update " + e.Field + " failed: " + e.Err.Error()
	}
	return "update " + e.Field + " failed"
}

func (e *UpdateError) Unwrap() error { return e.Err }

func (e *UpdateError) Is(target error) bool {
	_, ok := target.(*UpdateError)
	return ok
}

// Sentinels for errors.Is.
var (
	ErrEmailFormat       = &RegistrationError{Kind: RegistrationEmailFormat}
	ErrShortPassword     = &RegistrationError{Kind: RegistrationShortPassword}
	ErrEmailUsed         = &RegistrationError{Kind: RegistrationEmailUsed}
	ErrRegistrationOther = &RegistrationError{Kind: RegistrationOther}
	ErrInvalidPassword   = &AuthError{Kind: AuthInvalidPassword}
	ErrAccountNotFound   = &AuthError{Kind: AuthAccountNotFound}
	ErrAuthOther         = &AuthError{Kind: AuthOther}
	ErrUpdate            = &UpdateError{}
	ErrUserNotFound      = errors.New("user not found")
)
