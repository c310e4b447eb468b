package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Backends.Identity)
	assert.Equal(t, BackendMemory, cfg.Backends.Profile)
	assert.Equal(t, BackendMemory, cfg.Backends.Media)
	assert.Equal(t, BackendMemory, cfg.Backends.Session)
	assert.Equal(t, "Users_Data", cfg.Firebase.ProfilesCollection)
	assert.Equal(t, "lenient", cfg.Onboarding.MissingProfilePolicy)
	assert.True(t, cfg.Onboarding.SignOutAfterOnboarding)
	assert.Equal(t, 90, cfg.Onboarding.JPEGQuality)
	assert.Equal(t, 15*time.Minute, cfg.Redis.ProfileCacheTTL)
	assert.False(t, cfg.UsesRedis())
	assert.False(t, cfg.UsesFirebase())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_BACKEND", "REDIS")
	t.Setenv("ONBOARDING_MISSING_PROFILE", "onboard")
	t.Setenv("ONBOARDING_SIGN_OUT_AFTER", "false")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, BackendRedis, cfg.Backends.Session)
	assert.Equal(t, "onboard", cfg.Onboarding.MissingProfilePolicy)
	assert.False(t, cfg.Onboarding.SignOutAfterOnboarding)
	assert.Equal(t, 2*time.Hour, cfg.Redis.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.UsesRedis())
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("PROFILE_CACHE_ENABLED", "maybe")
	t.Setenv("PROFILE_CACHE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.Redis.ProfileCache)
	assert.Equal(t, 15*time.Minute, cfg.Redis.ProfileCacheTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown identity backend",
			env:     map[string]string{"IDENTITY_BACKEND": "ldap"},
			wantErr: "IDENTITY_BACKEND",
		},
		{
			name:    "firebase identity without credentials",
			env:     map[string]string{"IDENTITY_BACKEND": "firebase"},
			wantErr: "FIREBASE_CREDENTIALS_PATH",
		},
		{
			name: "firebase identity without web api key",
			env: map[string]string{
				"IDENTITY_BACKEND":          "firebase",
				"FIREBASE_CREDENTIALS_PATH": "/tmp/sa.json",
			},
			wantErr: "FIREBASE_WEB_API_KEY",
		},
		{
			name:    "s3 media without bucket",
			env:     map[string]string{"MEDIA_BACKEND": "s3"},
			wantErr: "S3_BUCKET",
		},
		{
			name:    "bad missing profile policy",
			env:     map[string]string{"ONBOARDING_MISSING_PROFILE": "ignore"},
			wantErr: "ONBOARDING_MISSING_PROFILE",
		},
		{
			name:    "jpeg quality out of range",
			env:     map[string]string{"MEDIA_JPEG_QUALITY": "101"},
			wantErr: "MEDIA_JPEG_QUALITY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
