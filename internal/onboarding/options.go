package onboarding

import (
	"fmt"
	"time"

	"github.com/tes-app/tes-backend/internal/avatar"
)

// MissingProfilePolicy decides what a successful sign-in without a profile
// document turns into.
type MissingProfilePolicy string

const (
	// PolicyLenient keeps the user signed in without a profile.
	PolicyLenient MissingProfilePolicy = "lenient"
	// PolicyOnboard treats the user as new and runs onboarding again.
	PolicyOnboard MissingProfilePolicy = "onboard"
)

func ParseMissingProfilePolicy(s string) (MissingProfilePolicy, error) {
	switch MissingProfilePolicy(s) {
	case "", PolicyLenient:
		return PolicyLenient, nil
	case PolicyOnboard:
		return PolicyOnboard, nil
	}
	return "", fmt.Errorf("unknown missing profile policy %q", s)
}

type Options struct {
	MissingProfile         MissingProfilePolicy
	SignOutAfterOnboarding bool
	Now                    func() time.Time
	Rand                   avatar.IntN
}

// DefaultOptions keeps the lenient sign-in and signs the user out once
// onboarding is complete.
func DefaultOptions() Options {
	return Options{
		MissingProfile:         PolicyLenient,
		SignOutAfterOnboarding: true,
		Now:                    time.Now,
	}
}
