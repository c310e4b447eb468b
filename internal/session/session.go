// Package session holds the per-client onboarding session and the rules for
// moving it between states. Reduce is pure; stores serialize writers.
package session

import (
	"errors"
	"fmt"
	"time"
)

type State string

const (
	StateSignedOut              State = "signed_out"
	StateAuthenticating         State = "authenticating"
	StateSignedInExistingUser   State = "signed_in_existing_user"
	StateSignedInNewUser        State = "signed_in_new_user"
	StateSignedInMissingProfile State = "signed_in_missing_profile"
	StateCustomizingAvatar      State = "customizing_avatar"
	StateSavingProfile          State = "saving_profile"
	StateFinalizingProfile      State = "finalizing_profile"
)

type Session struct {
	ID         string    `json:"id"`
	SignedIn   bool      `json:"signedIn"`
	IsNewUser  bool      `json:"isNewUser"`
	UserID     string    `json:"userId,omitempty"`
	State      State     `json:"state"`
	FirstLogin string    `json:"firstLogin,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// New returns the signed out session for id.
func New(id string) Session {
	return Session{ID: id, State: StateSignedOut}
}

type EventKind int

const (
	EventAuthStarted EventKind = iota + 1
	EventAuthFailed
	EventSignedUp
	EventSignedInExisting
	EventSignedInNew
	EventSignedInMissingProfile
	EventOnboardingBegan
	EventProfileSaved
	EventOnboardingCompleted
	EventSignedOut
	EventProfileSaveStarted
	EventProfileSaveFailed
)

var eventNames = map[EventKind]string{
	EventAuthStarted:            "auth_started",
	EventAuthFailed:             "auth_failed",
	EventSignedUp:               "signed_up",
	EventSignedInExisting:       "signed_in_existing",
	EventSignedInNew:            "signed_in_new",
	EventSignedInMissingProfile: "signed_in_missing_profile",
	EventOnboardingBegan:        "onboarding_began",
	EventProfileSaved:           "profile_saved",
	EventOnboardingCompleted:    "onboarding_completed",
	EventSignedOut:              "signed_out",
	EventProfileSaveStarted:     "profile_save_started",
	EventProfileSaveFailed:      "profile_save_failed",
}

func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is an input to Reduce. UserID is read by the sign-in and sign-up
// events, FirstLogin by EventOnboardingBegan and EventProfileSaved.
type Event struct {
	Kind       EventKind
	UserID     string
	FirstLogin string
	At         time.Time
}

var ErrInvalidTransition = errors.New("invalid session transition")

// Starts reports whether e may be applied to a session that does not exist
// yet (or has expired).
func (e Event) Starts() bool {
	switch e.Kind {
	case EventAuthStarted, EventSignedUp, EventSignedOut:
		return true
	}
	return false
}

// Reduce applies e to s and returns the next session.
func Reduce(s Session, e Event) (Session, error) {
	next := s
	if !e.At.IsZero() {
		next.UpdatedAt = e.At
	}

	switch e.Kind {
	case EventAuthStarted:
		next = signedOut(next)
		next.State = StateAuthenticating

	case EventAuthFailed:
		if s.State != StateAuthenticating {
			return s, invalid(s, e)
		}
		next = signedOut(next)

	case EventSignedUp:
		if e.UserID == "" {
			return s, fmt.Errorf("%w: %s without user id", ErrInvalidTransition, e.Kind)
		}
		next = signedOut(next)
		next.SignedIn = true
		next.IsNewUser = true
		next.UserID = e.UserID
		next.State = StateSignedInNewUser

	case EventSignedInExisting, EventSignedInNew, EventSignedInMissingProfile:
		if s.State != StateAuthenticating {
			return s, invalid(s, e)
		}
		if e.UserID == "" {
			return s, fmt.Errorf("%w: %s without user id", ErrInvalidTransition, e.Kind)
		}
		next.SignedIn = true
		next.UserID = e.UserID
		switch e.Kind {
		case EventSignedInExisting:
			next.State = StateSignedInExistingUser
		case EventSignedInNew:
			next.IsNewUser = true
			next.State = StateSignedInNewUser
		default:
			next.State = StateSignedInMissingProfile
		}

	case EventOnboardingBegan:
		if s.State != StateSignedInNewUser && s.State != StateCustomizingAvatar {
			return s, invalid(s, e)
		}
		if next.FirstLogin == "" {
			next.FirstLogin = e.FirstLogin
		}
		next.State = StateCustomizingAvatar

	case EventProfileSaveStarted:
		if s.State != StateSignedInNewUser && s.State != StateCustomizingAvatar {
			return s, invalid(s, e)
		}
		next.State = StateSavingProfile

	case EventProfileSaveFailed:
		if s.State != StateSavingProfile {
			return s, invalid(s, e)
		}
		// only BeginOnboarding sets FirstLogin before the save
		next.State = StateSignedInNewUser
		if next.FirstLogin != "" {
			next.State = StateCustomizingAvatar
		}

	case EventProfileSaved:
		if s.State != StateSavingProfile {
			return s, invalid(s, e)
		}
		if next.FirstLogin == "" {
			next.FirstLogin = e.FirstLogin
		}
		next.IsNewUser = false
		next.State = StateFinalizingProfile

	case EventOnboardingCompleted:
		if s.State != StateFinalizingProfile {
			return s, invalid(s, e)
		}
		next.State = StateSignedInExistingUser

	case EventSignedOut:
		next = signedOut(next)

	default:
		return s, fmt.Errorf("%w: unknown event %s", ErrInvalidTransition, e.Kind)
	}

	return next, nil
}

func signedOut(s Session) Session {
	return Session{ID: s.ID, State: StateSignedOut, UpdatedAt: s.UpdatedAt}
}

func invalid(s Session, e Event) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, e.Kind, s.State)
}
