// Package onboarding drives sign-up, sign-in and first-time profile setup
// over the identity, profile and media gateways. It knows nothing about
// HTTP; callers identify the client session by id.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tes-app/tes-backend/internal/avatar"
	identity "github.com/tes-app/tes-backend/internal/identity/domain"
	"github.com/tes-app/tes-backend/internal/logging"
	"github.com/tes-app/tes-backend/internal/metrics"
	profile "github.com/tes-app/tes-backend/internal/profile/domain"
	"github.com/tes-app/tes-backend/internal/session"
)

type IdentityGateway interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (*identity.Credentials, error)
	SignOut(ctx context.Context, uid string)
	SetDisplayName(ctx context.Context, uid, name string)
	SetPhotoURL(ctx context.Context, uid, url string) error
	CurrentUser(ctx context.Context, uid string) (*identity.User, error)
}

type ProfileGateway interface {
	FetchAll(ctx context.Context) ([]profile.UserProfile, error)
	Create(ctx context.Context, p profile.UserProfile, userID string) error
	Get(ctx context.Context, userID string) (*profile.UserProfile, error)
}

type MediaGateway interface {
	UploadImage(ctx context.Context, data []byte, contentType string) (string, error)
}

// Submission is what the onboarding screen sends.
type Submission struct {
	DisplayName string
	GenderIndex int
	Birthday    time.Time
	Country     string
	Avatar      avatar.Selection
}

// ProfileView is what the profile screen shows.
type ProfileView struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Birthday    string `json:"birthday,omitempty"`
	Country     string `json:"country,omitempty"`
	FirstLogin  string `json:"firstLogin,omitempty"`
	HasProfile  bool   `json:"hasProfile"`
}

const displayNameFallback = "Username not found"

type Workflow struct {
	identity IdentityGateway
	profiles ProfileGateway
	media    MediaGateway
	assets   avatar.AssetSource
	sessions session.Store
	opts     Options
	log      *zap.Logger
	metrics  metrics.Recorder
}

func New(id IdentityGateway, profiles ProfileGateway, media MediaGateway, assets avatar.AssetSource,
	sessions session.Store, opts Options, log *zap.Logger, rec metrics.Recorder) *Workflow {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MissingProfile == "" {
		opts.MissingProfile = PolicyLenient
	}
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Workflow{
		identity: id,
		profiles: profiles,
		media:    media,
		assets:   assets,
		sessions: sessions,
		opts:     opts,
		log:      log,
		metrics:  rec,
	}
}

func (w *Workflow) apply(ctx context.Context, sid string, e session.Event) (session.Session, bool, error) {
	change, err := w.sessions.Apply(ctx, sid, e)
	if err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			return change.Session, false, fmt.Errorf("%w: %w", ErrWrongState, err)
		}
		return change.Session, false, err
	}
	if change.Dropped {
		logging.FromContext(ctx, w.log).Debug("session gone, result dropped",
			zap.String("session", sid), zap.Stringer("event", e.Kind))
		return change.Session, false, nil
	}
	if change.From != change.Session.State {
		w.metrics.RecordTransition(string(change.From), string(change.Session.State))
	}
	return change.Session, true, nil
}

func (w *Workflow) Session(ctx context.Context, sid string) (session.Session, error) {
	return w.sessions.Get(ctx, sid)
}

func (w *Workflow) SignUp(ctx context.Context, sid, email, password string) (session.Session, error) {
	if strings.TrimSpace(email) == "" {
		return session.New(sid), &ValidationError{Field: "email", Message: "email empty"}
	}
	if password == "" {
		return session.New(sid), &ValidationError{Field: "password", Message: "password empty"}
	}

	uid, err := w.identity.SignUp(ctx, email, password)
	if err != nil {
		s, gerr := w.sessions.Get(ctx, sid)
		if gerr != nil {
			return session.New(sid), err
		}
		return s, err
	}

	s, _, err := w.apply(ctx, sid, session.Event{Kind: session.EventSignedUp, UserID: uid})
	return s, err
}

func (w *Workflow) SignIn(ctx context.Context, sid, email, password string) (session.Session, error) {
	if strings.TrimSpace(email) == "" {
		return session.New(sid), &ValidationError{Field: "email", Message: "email empty"}
	}
	if password == "" {
		return session.New(sid), &ValidationError{Field: "password", Message: "password empty"}
	}

	if _, _, err := w.apply(ctx, sid, session.Event{Kind: session.EventAuthStarted}); err != nil {
		return session.New(sid), err
	}

	creds, err := w.identity.SignIn(ctx, email, password)
	if err != nil {
		s, _, aerr := w.apply(ctx, sid, session.Event{Kind: session.EventAuthFailed})
		if aerr != nil {
			logging.FromContext(ctx, w.log).Warn("session update failed", zap.Error(aerr))
		}
		return s, err
	}

	event := session.Event{Kind: session.EventSignedInExisting, UserID: creds.UserID}
	if _, perr := w.profiles.Get(ctx, creds.UserID); perr != nil {
		if !errors.Is(perr, profile.ErrProfileNotFound) {
			logging.FromContext(ctx, w.log).Warn("profile lookup failed during sign in",
				zap.String("uid", creds.UserID), zap.Error(perr))
		}
		event.Kind = session.EventSignedInMissingProfile
		if w.opts.MissingProfile == PolicyOnboard {
			event.Kind = session.EventSignedInNew
		}
	}

	s, _, err := w.apply(ctx, sid, event)
	return s, err
}

// BeginOnboarding marks the moment the onboarding screen appeared; that time
// becomes the profile's first login.
func (w *Workflow) BeginOnboarding(ctx context.Context, sid string) (avatar.Options, session.Session, error) {
	s, _, err := w.apply(ctx, sid, session.Event{
		Kind:       session.EventOnboardingBegan,
		FirstLogin: profile.FormatFirstLogin(w.opts.Now()),
	})
	if err != nil {
		return avatar.Options{}, s, err
	}
	return avatar.Catalogue(), s, nil
}

func (w *Workflow) RandomizeAvatar() avatar.Selection {
	return avatar.Randomize(w.opts.Rand)
}

// Submit validates the onboarding form, writes the profile and then sets up
// the avatar photo. A failure after the profile write leaves the session in
// the finalizing state, from where RetryAvatarUpload can finish it.
func (w *Workflow) Submit(ctx context.Context, sid string, sub Submission) (session.Session, error) {
	s, err := w.sessions.Get(ctx, sid)
	if err != nil {
		return s, err
	}
	if !s.SignedIn {
		return s, ErrNotSignedIn
	}
	if s.State == session.StateSavingProfile {
		return s, ErrSubmitInProgress
	}
	if s.State != session.StateSignedInNewUser && s.State != session.StateCustomizingAvatar {
		return s, fmt.Errorf("%w: submit in state %s", ErrWrongState, s.State)
	}

	name := strings.TrimSpace(sub.DisplayName)
	if name == "" {
		return s, &ValidationError{Field: "displayName", Message: "username empty"}
	}
	gender, err := profile.Gender(sub.GenderIndex)
	if err != nil {
		return s, &ValidationError{Field: "gender", Message: err.Error()}
	}
	if err := sub.Avatar.Validate(); err != nil {
		return s, &ValidationError{Field: "avatar", Message: err.Error()}
	}

	// Claiming the session makes a concurrent submit fail before it writes.
	s, live, err := w.apply(ctx, sid, session.Event{Kind: session.EventProfileSaveStarted})
	if err != nil {
		if s.State == session.StateSavingProfile {
			return s, ErrSubmitInProgress
		}
		return s, err
	}
	if !live {
		return s, nil
	}

	log := logging.FromContext(ctx, w.log).With(zap.String("uid", s.UserID))
	w.identity.SetDisplayName(ctx, s.UserID, name)

	firstLogin := s.FirstLogin
	if firstLogin == "" {
		firstLogin = profile.FormatFirstLogin(w.opts.Now())
	}
	p := profile.UserProfile{
		Gender:     gender,
		Birthday:   profile.FormatBirthday(sub.Birthday),
		FirstLogin: firstLogin,
		Country:    strings.TrimSpace(sub.Country),
	}
	if err := w.profiles.Create(ctx, p, s.UserID); err != nil {
		log.Error("profile not created", zap.Error(err))
		rolled, _, aerr := w.apply(ctx, sid, session.Event{Kind: session.EventProfileSaveFailed})
		if aerr != nil {
			log.Warn("session rollback failed", zap.Error(aerr))
			return s, err
		}
		return rolled, err
	}

	s, live, err = w.apply(ctx, sid, session.Event{Kind: session.EventProfileSaved, FirstLogin: firstLogin})
	if err != nil || !live {
		return s, err
	}

	return w.finishAvatar(ctx, sid, s, sub.Avatar)
}

// RetryAvatarUpload repeats the photo step of a submission whose profile was
// already written.
func (w *Workflow) RetryAvatarUpload(ctx context.Context, sid string, sel avatar.Selection) (session.Session, error) {
	s, err := w.sessions.Get(ctx, sid)
	if err != nil {
		return s, err
	}
	if s.State != session.StateFinalizingProfile {
		return s, fmt.Errorf("%w: retry in state %s", ErrWrongState, s.State)
	}
	if err := sel.Validate(); err != nil {
		return s, &ValidationError{Field: "avatar", Message: err.Error()}
	}
	return w.finishAvatar(ctx, sid, s, sel)
}

func (w *Workflow) finishAvatar(ctx context.Context, sid string, s session.Session, sel avatar.Selection) (session.Session, error) {
	log := logging.FromContext(ctx, w.log).With(zap.String("uid", s.UserID))

	asset, err := w.assets.Load(sel.AssetKey())
	if err != nil {
		log.Error("avatar asset missing", zap.String("key", sel.AssetKey()), zap.Error(err))
		return s, err
	}
	url, err := w.media.UploadImage(ctx, asset.Data, asset.ContentType)
	if err != nil {
		log.Error("avatar upload failed", zap.Error(err))
		return s, err
	}
	if err := w.identity.SetPhotoURL(ctx, s.UserID, url); err != nil {
		log.Error("photo url update failed", zap.Error(err))
		return s, err
	}

	if !w.opts.SignOutAfterOnboarding {
		s, _, err = w.apply(ctx, sid, session.Event{Kind: session.EventOnboardingCompleted})
		return s, err
	}
	w.identity.SignOut(ctx, s.UserID)
	s, _, err = w.apply(ctx, sid, session.Event{Kind: session.EventSignedOut})
	return s, err
}

func (w *Workflow) SignOut(ctx context.Context, sid string) (session.Session, error) {
	s, err := w.sessions.Get(ctx, sid)
	if err != nil {
		return s, err
	}
	if s.UserID != "" {
		w.identity.SignOut(ctx, s.UserID)
	}
	s, _, err = w.apply(ctx, sid, session.Event{Kind: session.EventSignedOut})
	return s, err
}

// LoadProfile reads the identity record and the profile document in
// parallel. A missing profile is not an error.
func (w *Workflow) LoadProfile(ctx context.Context, sid string) (*ProfileView, error) {
	s, err := w.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !s.SignedIn {
		return nil, ErrNotSignedIn
	}

	var (
		user *identity.User
		doc  *profile.UserProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = w.identity.CurrentUser(gctx, s.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		doc, err = w.profiles.Get(gctx, s.UserID)
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &ProfileView{
		UserID:      s.UserID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
	}
	if view.DisplayName == "" {
		view.DisplayName = displayNameFallback
	}
	if doc != nil {
		view.HasProfile = true
		view.Gender = doc.Gender
		view.Birthday = doc.Birthday
		view.Country = doc.Country
		view.FirstLogin = doc.FirstLogin
	}
	return view, nil
}

// Profiles lists every stored profile.
func (w *Workflow) Profiles(ctx context.Context) ([]profile.UserProfile, error) {
	return w.profiles.FetchAll(ctx)
}
