package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	App        AppConfig
	Firebase   FirebaseConfig
	Backends   BackendConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	S3         S3Config
	Onboarding OnboardingConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	AdminAPIKey  string
	PublicURL    string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	ServiceName string
}

type FirebaseConfig struct {
	CredentialsPath    string
	ProjectID          string
	WebAPIKey          string
	StorageBucket      string
	ProfilesCollection string
}

// BackendConfig selects the implementation behind each gateway.
type BackendConfig struct {
	Identity string // firebase | memory
	Profile  string // firestore | postgres | memory
	Media    string // firebase | s3 | memory
	Session  string // redis | memory
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	RunMigrations bool
}

type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	ProfileCache    bool
	ProfileCacheTTL time.Duration
	SessionTTL      time.Duration
}

type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

type OnboardingConfig struct {
	MissingProfilePolicy   string // lenient | onboard
	SignOutAfterOnboarding bool
	AvatarAssetsDir        string // empty: generated avatars
	MaxImageDimension      int
	JPEGQuality            int
}

type RateLimitConfig struct {
	AuthPerMinute int
	AuthBurst     int
}

const (
	BackendMemory    = "memory"
	BackendFirebase  = "firebase"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendS3        = "s3"
	BackendRedis     = "redis"
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			CORSOrigins:  getEnvAsList("CORS_ORIGINS", []string{"*"}),
			AdminAPIKey:  getEnv("ADMIN_API_KEY", ""),
			PublicURL:    getEnv("PUBLIC_URL", "http://localhost:8080"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			ServiceName: getEnv("SERVICE_NAME", "tes-backend"),
		},
		Firebase: FirebaseConfig{
			CredentialsPath:    getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			ProjectID:          getEnv("FIREBASE_PROJECT_ID", ""),
			WebAPIKey:          getEnv("FIREBASE_WEB_API_KEY", ""),
			StorageBucket:      getEnv("FIREBASE_STORAGE_BUCKET", ""),
			ProfilesCollection: getEnv("FIREBASE_PROFILES_COLLECTION", "Users_Data"),
		},
		Backends: BackendConfig{
			Identity: strings.ToLower(getEnv("IDENTITY_BACKEND", BackendMemory)),
			Profile:  strings.ToLower(getEnv("PROFILE_BACKEND", BackendMemory)),
			Media:    strings.ToLower(getEnv("MEDIA_BACKEND", BackendMemory)),
			Session:  strings.ToLower(getEnv("SESSION_BACKEND", BackendMemory)),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvAsInt("DB_PORT", 5432),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", ""),
			Name:          getEnv("DB_NAME", "tes"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			RunMigrations: getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", "localhost:6379"),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvAsInt("REDIS_DB", 0),
			ProfileCache:    getEnvAsBool("PROFILE_CACHE_ENABLED", false),
			ProfileCacheTTL: getEnvAsDuration("PROFILE_CACHE_TTL", 15*time.Minute),
			SessionTTL:      getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		S3: S3Config{
			Bucket:        getEnv("S3_BUCKET", ""),
			Region:        getEnv("S3_REGION", "us-east-1"),
			Endpoint:      getEnv("S3_ENDPOINT", ""),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Onboarding: OnboardingConfig{
			MissingProfilePolicy:   strings.ToLower(getEnv("ONBOARDING_MISSING_PROFILE", "lenient")),
			SignOutAfterOnboarding: getEnvAsBool("ONBOARDING_SIGN_OUT_AFTER", true),
			AvatarAssetsDir:        getEnv("AVATAR_ASSETS_DIR", ""),
			MaxImageDimension:      getEnvAsInt("MEDIA_MAX_IMAGE_DIMENSION", 1024),
			JPEGQuality:            getEnvAsInt("MEDIA_JPEG_QUALITY", 90),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 30),
			AuthBurst:     getEnvAsInt("RATE_LIMIT_AUTH_BURST", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if !oneOf(c.Backends.Identity, BackendFirebase, BackendMemory) {
		return fmt.Errorf("IDENTITY_BACKEND must be firebase or memory, got %q", c.Backends.Identity)
	}
	if !oneOf(c.Backends.Profile, BackendFirestore, BackendPostgres, BackendMemory) {
		return fmt.Errorf("PROFILE_BACKEND must be firestore, postgres or memory, got %q", c.Backends.Profile)
	}
	if !oneOf(c.Backends.Media, BackendFirebase, BackendS3, BackendMemory) {
		return fmt.Errorf("MEDIA_BACKEND must be firebase, s3 or memory, got %q", c.Backends.Media)
	}
	if !oneOf(c.Backends.Session, BackendRedis, BackendMemory) {
		return fmt.Errorf("SESSION_BACKEND must be redis or memory, got %q", c.Backends.Session)
	}

	if c.UsesFirebase() && c.Firebase.CredentialsPath == "" && os.Getenv("FIREBASE_AUTH_EMULATOR_HOST") == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}
	if c.Backends.Identity == BackendFirebase && c.Firebase.WebAPIKey == "" {
		return fmt.Errorf("FIREBASE_WEB_API_KEY is required for password sign-in")
	}
	if c.Backends.Profile == BackendFirestore && c.Firebase.ProjectID == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required for firestore")
	}
	if c.Backends.Media == BackendFirebase && c.Firebase.StorageBucket == "" {
		return fmt.Errorf("FIREBASE_STORAGE_BUCKET is required")
	}
	if c.Backends.Profile == BackendPostgres && c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Backends.Media == BackendS3 && c.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}

	if !oneOf(c.Onboarding.MissingProfilePolicy, "lenient", "onboard") {
		return fmt.Errorf("ONBOARDING_MISSING_PROFILE must be lenient or onboard, got %q", c.Onboarding.MissingProfilePolicy)
	}
	if c.Onboarding.JPEGQuality < 1 || c.Onboarding.JPEGQuality > 100 {
		return fmt.Errorf("MEDIA_JPEG_QUALITY must be between 1 and 100")
	}
	if c.Onboarding.MaxImageDimension <= 0 {
		return fmt.Errorf("MEDIA_MAX_IMAGE_DIMENSION must be positive")
	}

	return nil
}

// UsesRedis reports whether any component needs a redis connection.
func (c *Config) UsesRedis() bool {
	return c.Backends.Session == BackendRedis || c.Redis.ProfileCache
}

// UsesFirebase reports whether the Firebase app has to be initialized.
func (c *Config) UsesFirebase() bool {
	return c.Backends.Identity == BackendFirebase ||
		c.Backends.Profile == BackendFirestore ||
		c.Backends.Media == BackendFirebase
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid bool for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
