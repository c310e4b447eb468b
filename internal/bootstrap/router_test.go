package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tes-app/tes-backend/config"
	"github.com/tes-app/tes-backend/internal/api/http/middleware"
	"github.com/tes-app/tes-backend/internal/avatar"
	"github.com/tes-app/tes-backend/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Port:        "0",
			CORSOrigins: []string{"https://app.example"},
			AdminAPIKey: "admin-key",
			PublicURL:   "http://localhost:8080",
		},
		App: config.AppConfig{Environment: "test", ServiceName: "tes-backend", Version: "test"},
		Backends: config.BackendConfig{
			Identity: config.BackendMemory,
			Profile:  config.BackendMemory,
			Media:    config.BackendMemory,
			Session:  config.BackendMemory,
		},
		Redis: config.RedisConfig{SessionTTL: time.Hour},
		Onboarding: config.OnboardingConfig{
			MissingProfilePolicy:   "lenient",
			SignOutAfterOnboarding: true,
			MaxImageDimension:      256,
			JPEGQuality:            80,
		},
	}
}

func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	return routerFor(t, memoryConfig(t), limiter)
}

func routerFor(t *testing.T, cfg *config.Config, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	reg := prometheus.NewRegistry()
	rec := metrics.NewCollector(reg)

	b, err := OpenBackends(context.Background(), cfg, zap.NewNop(), rec)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	wf, err := NewWorkflow(&cfg.Onboarding, b, zap.NewNop(), rec)
	require.NoError(t, err)

	return BuildRouter(RouterDeps{
		ServiceName: cfg.App.ServiceName,
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		AdminAPIKey: cfg.Server.AdminAPIKey,
		Workflow:    wf,
		Checks:      b.Checks,
		MediaFiles:  b.MediaFiles,
		AuthLimiter: limiter,
		Gatherer:    reg,
		Metrics:     rec,
	})
}

func serve(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOpenBackends_Memory(t *testing.T) {
	cfg := memoryConfig(t)
	b, err := OpenBackends(context.Background(), cfg, zap.NewNop(), nil)
	require.NoError(t, err)

	assert.NotNil(t, b.Identity)
	assert.NotNil(t, b.Profiles)
	assert.NotNil(t, b.Media)
	assert.NotNil(t, b.MediaFiles)
	assert.NotNil(t, b.MemorySessions)
	assert.Empty(t, b.Checks)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err = b.MemorySessions.Sweep(context.Background())
	assert.Error(t, err)
}

func TestOpenBackends_AvatarAssetsDir(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Onboarding.AvatarAssetsDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Onboarding.AvatarAssetsDir, "char111.png"), []byte("x"), 0o644))

	_, err := OpenBackends(context.Background(), cfg, zap.NewNop(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, avatar.ErrAssetNotFound)
	assert.Contains(t, err.Error(), "char333")

	gen := avatar.NewGeneratedAssets(16)
	for h := range avatar.HairOptions {
		for c := range avatar.ClothesOptions {
			for f := range avatar.FaceOptions {
				a, err := gen.Load(avatar.DeriveKey(h, c, f))
				require.NoError(t, err)
				require.NoError(t, os.WriteFile(filepath.Join(cfg.Onboarding.AvatarAssetsDir, a.Key+".png"), a.Data, 0o644))
			}
		}
	}
	b, err := OpenBackends(context.Background(), cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.NotNil(t, b.Assets)
	require.NoError(t, b.Close())
}

func TestNewWorkflow_RejectsUnknownPolicy(t *testing.T) {
	cfg := memoryConfig(t)
	b, err := OpenBackends(context.Background(), cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	defer b.Close()

	cfg.Onboarding.MissingProfilePolicy = "strict"
	_, err = NewWorkflow(&cfg.Onboarding, b, zap.NewNop(), nil)
	assert.Error(t, err)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tes_http_responses_total")
}

func TestRouter_SignUpIssuesSession(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodPost, "/api/v1/auth/signup", `{"email":"bob@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	sid := w.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, sid)

	w = serve(r, http.MethodGet, "/api/v1/session", "", middleware.SessionHeader, sid)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"signed_in_new_user"`)
	assert.Equal(t, sid, w.Header().Get(middleware.SessionHeader))
}

func TestRouter_OnboardingWithDefaultConfig(t *testing.T) {
	for _, k := range []string{"IDENTITY_BACKEND", "PROFILE_BACKEND", "MEDIA_BACKEND", "SESSION_BACKEND", "AVATAR_ASSETS_DIR", "PROFILE_CACHE_ENABLED"} {
		t.Setenv(k, "")
	}
	t.Setenv("ADMIN_API_KEY", "admin-key")
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Empty(t, cfg.Onboarding.AvatarAssetsDir)
	r := routerFor(t, cfg, nil)

	w := serve(r, http.MethodPost, "/api/v1/auth/signup", `{"email":"bob@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	sid := w.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, sid)

	w = serve(r, http.MethodPost, "/api/v1/onboarding/submit",
		`{"displayName":"Bob","genderIndex":1,"birthday":"2001-03-04","country":"NZ","avatar":{"hair":1,"clothes":2,"face":0}}`,
		middleware.SessionHeader, sid)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"signedIn":false`)
	assert.Contains(t, w.Body.String(), `"state":"signed_out"`)

	w = serve(r, http.MethodGet, "/api/v1/admin/profiles", "", "X-API-Key", "admin-key")
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Count    int `json:"count"`
		Profiles []struct {
			Gender  string `json:"userGender"`
			Country string `json:"userCountry"`
		} `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Equal(t, 1, listing.Count)
	assert.Equal(t, "Female", listing.Profiles[0].Gender)
	assert.Equal(t, "NZ", listing.Profiles[0].Country)

	w = serve(r, http.MethodPost, "/api/v1/auth/signin", `{"email":"bob@x.com","password":"secret1"}`,
		middleware.SessionHeader, sid)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/profile", "", middleware.SessionHeader, sid)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Profile struct {
			DisplayName string `json:"displayName"`
			PhotoURL    string `json:"photoUrl"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Bob", view.Profile.DisplayName)
	require.True(t, strings.HasPrefix(view.Profile.PhotoURL, cfg.Server.PublicURL+"/media/"), view.Profile.PhotoURL)

	w = serve(r, http.MethodGet, strings.TrimPrefix(view.Profile.PhotoURL, cfg.Server.PublicURL), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
}

func TestRouter_AdminListingNeedsKey(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodGet, "/api/v1/admin/profiles", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/admin/profiles", "", "X-API-Key", "admin-key")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AuthRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{PerMinute: 1, Burst: 1}, nil)
	r := newTestRouter(t, limiter)

	w := serve(r, http.MethodPost, "/api/v1/auth/signin", `{"email":"a@x.com","password":"secret1"}`)
	assert.NotEqual(t, http.StatusTooManyRequests, w.Code)

	w = serve(r, http.MethodPost, "/api/v1/auth/signin", `{"email":"a@x.com","password":"secret1"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/session", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CORSAndMedia(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodOptions, "/api/v1/auth/signin", "",
		"Origin", "https://app.example",
		"Access-Control-Request-Method", http.MethodPost)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/media/missing.jpg", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSConfig_Wildcard(t *testing.T) {
	cfg := corsConfig([]string{"https://a.example", "*"})
	assert.True(t, cfg.AllowAllOrigins)
	assert.Empty(t, cfg.AllowOrigins)

	cfg = corsConfig([]string{"https://a.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.True(t, strings.HasPrefix(cfg.AllowOrigins[0], "https://"))
	assert.Contains(t, cfg.ExposeHeaders, middleware.SessionHeader)
}

func TestSetGinMode(t *testing.T) {
	defer gin.SetMode(gin.TestMode)

	SetGinMode("production")
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
	SetGinMode("development")
	assert.Equal(t, gin.DebugMode, gin.Mode())
	SetGinMode("test")
	assert.Equal(t, gin.TestMode, gin.Mode())
}
