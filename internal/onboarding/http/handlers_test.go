package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tes-app/tes-backend/internal/api/http/middleware"
	"github.com/tes-app/tes-backend/internal/avatar"
	identity "github.com/tes-app/tes-backend/internal/identity/domain"
	"github.com/tes-app/tes-backend/internal/identity/provider"
	identitysvc "github.com/tes-app/tes-backend/internal/identity/service"
	mediastore "github.com/tes-app/tes-backend/internal/media/store"
	mediasvc "github.com/tes-app/tes-backend/internal/media/service"
	"github.com/tes-app/tes-backend/internal/onboarding"
	profile "github.com/tes-app/tes-backend/internal/profile/domain"
	"github.com/tes-app/tes-backend/internal/profile/repository"
	profilesvc "github.com/tes-app/tes-backend/internal/profile/service"
	"github.com/tes-app/tes-backend/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	assets := fstest.MapFS{}
	for h := 0; h < 3; h++ {
		for c := 0; c < 3; c++ {
			for f := 0; f < 3; f++ {
				assets[avatar.DeriveKey(h, c, f)+".png"] = &fstest.MapFile{Data: img.Bytes()}
			}
		}
	}

	sessions := session.NewMemoryStore(time.Hour)
	t.Cleanup(sessions.Close)

	wf := onboarding.New(
		identitysvc.NewGateway(provider.NewMemoryProviderWithCost(bcrypt.MinCost), nil, nil),
		profilesvc.NewGateway(repository.NewMemoryRepository(nil), nil, nil),
		mediasvc.NewGateway(mediastore.NewMemoryStore("http://test"), mediasvc.Options{}, nil, nil),
		avatar.NewFSAssets(assets),
		sessions,
		onboarding.DefaultOptions(),
		nil,
		nil,
	)

	r := gin.New()
	r.Use(middleware.SessionIDMiddleware())
	h := New(wf, nil)
	v1 := r.Group("/api/v1")
	h.Register(v1)
	h.RegisterAdmin(v1, middleware.APIKeyMiddleware("admin-key"))
	return r
}

type client struct {
	t   *testing.T
	r   *gin.Engine
	sid string
}

func (c *client) do(method, path string, body any, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if c.sid != "" {
		req.Header.Set(middleware.SessionHeader, c.sid)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	c.sid = w.Header().Get(middleware.SessionHeader)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func sessionOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	s, ok := body["session"].(map[string]any)
	require.True(t, ok, "response has no session: %v", body)
	return s
}

func TestOnboardingFlow(t *testing.T) {
	c := &client{t: t, r: setupRouter(t)}

	w, body := c.do(http.MethodPost, "/api/v1/auth/signup", credentialsRequest{Email: "bob@x.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, sessionOf(t, body)["isNewUser"])
	require.NotEmpty(t, c.sid)

	w, body = c.do(http.MethodPost, "/api/v1/onboarding/begin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "customizing_avatar", sessionOf(t, body)["state"])
	assert.Contains(t, body, "options")

	w, body = c.do(http.MethodGet, "/api/v1/onboarding/avatar/random", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `^char[1-3]{3}$`, body["assetKey"])

	w, body = c.do(http.MethodPost, "/api/v1/onboarding/submit", submitRequest{
		DisplayName: "Bob",
		GenderIndex: 1,
		Birthday:    "2001-03-04",
		Country:     "NZ",
		Avatar:      avatarRequest{Hair: 0, Clothes: 1, Face: 2},
	})
	require.Equal(t, http.StatusOK, w.Code, body)
	assert.Equal(t, false, sessionOf(t, body)["signedIn"])

	w, _ = c.do(http.MethodGet, "/api/v1/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = c.do(http.MethodPost, "/api/v1/auth/signin", credentialsRequest{Email: "bob@x.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "signed_in_existing_user", sessionOf(t, body)["state"])

	w, body = c.do(http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := body["profile"].(map[string]any)
	assert.Equal(t, "Bob", view["displayName"])
	assert.Equal(t, "Female", view["gender"])
	assert.Equal(t, "2001 Mar 04", view["birthday"])

	w, body = c.do(http.MethodGet, "/api/v1/profiles", nil, "X-API-Key", "admin-key")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	w, body = c.do(http.MethodPost, "/api/v1/auth/signout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "signed_out", sessionOf(t, body)["state"])
}

func TestErrorMessages(t *testing.T) {
	c := &client{t: t, r: setupRouter(t)}

	w, body := c.do(http.MethodPost, "/api/v1/auth/signup", credentialsRequest{Email: "nope", Password: "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid Email", body["message"])

	w, body = c.do(http.MethodPost, "/api/v1/auth/signup", credentialsRequest{Email: "a@x.com", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Password at least 6 characters", body["message"])

	w, _ = c.do(http.MethodPost, "/api/v1/auth/signup", credentialsRequest{Email: "a@x.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body = c.do(http.MethodPost, "/api/v1/onboarding/submit", submitRequest{DisplayName: "", Birthday: "2001-03-04"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username can't be empty", body["message"])

	w, body = c.do(http.MethodPost, "/api/v1/onboarding/submit", submitRequest{DisplayName: "A", Birthday: "yesterday"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid birthday", body["message"])

	other := &client{t: t, r: c.r}
	w, body = other.do(http.MethodPost, "/api/v1/auth/signup", credentialsRequest{Email: "a@x.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email Used", body["message"])

	w, body = other.do(http.MethodPost, "/api/v1/auth/signin", credentialsRequest{Email: "a@x.com", Password: "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Wrong Password", body["message"])
	assert.Equal(t, false, sessionOf(t, body)["signedIn"])

	w, body = other.do(http.MethodPost, "/api/v1/auth/signin", credentialsRequest{Email: "ghost@x.com", Password: "secret1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not Found", body["message"])

	w, _ = other.do(http.MethodPost, "/api/v1/onboarding/avatar/retry", avatarRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = other.do(http.MethodGet, "/api/v1/profiles", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = other.do(http.MethodPost, "/api/v1/auth/signin", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{&identity.RegistrationError{Kind: identity.RegistrationOther}, http.StatusBadGateway, "Re Register"},
		{&identity.AuthError{Kind: identity.AuthAccountNotFound}, http.StatusNotFound, "User not Found"},
		{profile.ErrWrite, http.StatusBadGateway, "Could not save your profile, try again"},
		{avatar.ErrAssetNotFound, http.StatusServiceUnavailable, "This avatar is not available right now, try another one"},
		{onboarding.ErrSubmitInProgress, http.StatusConflict, "Your profile is already being saved"},
		{onboarding.ErrWrongState, http.StatusConflict, "This step is not available right now"},
		{errors.New("boom"), http.StatusInternalServerError, "Something went wrong"},
	}
	for _, tt := range tests {
		got := classify(tt.err)
		assert.Equal(t, tt.status, got.status)
		assert.Equal(t, tt.msg, got.message)
	}
}
