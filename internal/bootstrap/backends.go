package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/tes-app/tes-backend/config"
	httpapi "github.com/tes-app/tes-backend/internal/api/http"
	"github.com/tes-app/tes-backend/internal/avatar"
	"github.com/tes-app/tes-backend/internal/identity/provider"
	identitysvc "github.com/tes-app/tes-backend/internal/identity/service"
	"github.com/tes-app/tes-backend/internal/media/store"
	mediasvc "github.com/tes-app/tes-backend/internal/media/service"
	"github.com/tes-app/tes-backend/internal/metrics"
	"github.com/tes-app/tes-backend/internal/onboarding"
	"github.com/tes-app/tes-backend/internal/profile/repository"
	profilesvc "github.com/tes-app/tes-backend/internal/profile/service"
	"github.com/tes-app/tes-backend/internal/session"
)

// Backends holds the gateways and stores selected by configuration along
// with the health checks and closers of the connections behind them.
type Backends struct {
	Identity *identitysvc.Gateway
	Profiles *profilesvc.Gateway
	Media    *mediasvc.Gateway
	Sessions session.Store
	Assets   avatar.AssetSource

	// MediaFiles is set when objects are kept in process and have to be
	// served by the API itself.
	MediaFiles *store.MemoryStore
	// MemorySessions is set when sessions need periodic sweeping.
	MemorySessions *session.MemoryStore

	Checks map[string]httpapi.Check

	closers []func() error
}

// Close releases every connection in reverse order of opening.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

func (b *Backends) onClose(fn func() error) {
	b.closers = append(b.closers, fn)
}

// OpenBackends connects everything cfg asks for. On error the connections
// opened so far are closed.
func OpenBackends(ctx context.Context, cfg *config.Config, log *zap.Logger, rec metrics.Recorder) (_ *Backends, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backends{Checks: make(map[string]httpapi.Check)}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	if b.Assets, err = openAvatarAssets(cfg.Onboarding.AvatarAssetsDir, log); err != nil {
		return nil, err
	}

	var app *firebase.App
	if cfg.UsesFirebase() {
		if app, err = InitializeFirebase(ctx, &cfg.Firebase); err != nil {
			return nil, err
		}
	}

	var rdb *redis.Client
	if cfg.UsesRedis() {
		if rdb, err = OpenRedis(ctx, &cfg.Redis); err != nil {
			return nil, err
		}
		b.onClose(rdb.Close)
		b.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info("redis connection established", zap.String("addr", cfg.Redis.Addr))
	}

	idp, err := openIdentity(ctx, cfg, app)
	if err != nil {
		return nil, err
	}
	b.Identity = identitysvc.NewGateway(idp, log.Named("identity"), rec)

	repo, err := b.openProfiles(ctx, cfg, app, log)
	if err != nil {
		return nil, err
	}
	if cfg.Redis.ProfileCache {
		repo = repository.NewCachedRepository(repo, rdb, cfg.Redis.ProfileCacheTTL, log.Named("profile_cache"))
	}
	b.Profiles = profilesvc.NewGateway(repo, log.Named("profile"), rec)

	objects, err := b.openMedia(ctx, cfg, app)
	if err != nil {
		return nil, err
	}
	b.Media = mediasvc.NewGateway(objects, mediasvc.Options{
		MaxDimension: cfg.Onboarding.MaxImageDimension,
		JPEGQuality:  cfg.Onboarding.JPEGQuality,
	}, log.Named("media"), rec)

	switch cfg.Backends.Session {
	case config.BackendRedis:
		b.Sessions = session.NewRedisStore(rdb, cfg.Redis.SessionTTL)
	default:
		mem := session.NewMemoryStore(cfg.Redis.SessionTTL)
		b.onClose(func() error { mem.Close(); return nil })
		b.Sessions = mem
		b.MemorySessions = mem
	}

	log.Info("backends ready",
		zap.String("identity", cfg.Backends.Identity),
		zap.String("profile", cfg.Backends.Profile),
		zap.String("media", cfg.Backends.Media),
		zap.String("session", cfg.Backends.Session),
		zap.Bool("profile_cache", cfg.Redis.ProfileCache),
	)
	return b, nil
}

// openAvatarAssets serves avatars from dir, which must hold every
// combination. Without a directory the avatars are generated.
func openAvatarAssets(dir string, log *zap.Logger) (avatar.AssetSource, error) {
	if dir == "" {
		log.Info("using generated avatar assets")
		return avatar.NewGeneratedAssets(avatar.DefaultGeneratedSize), nil
	}
	assets := avatar.NewFSAssets(os.DirFS(dir))
	if err := avatar.Verify(assets); err != nil {
		return nil, fmt.Errorf("avatar assets in %s: %w", dir, err)
	}
	log.Info("using avatar assets from directory", zap.String("dir", dir))
	return assets, nil
}

func openIdentity(ctx context.Context, cfg *config.Config, app *firebase.App) (provider.Provider, error) {
	if cfg.Backends.Identity != config.BackendFirebase {
		return provider.NewMemoryProvider(), nil
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}
	signIn := provider.NewPasswordSignIn(cfg.Firebase.WebAPIKey, &http.Client{Timeout: 10 * time.Second})
	return provider.NewFirebaseProvider(client, signIn), nil
}

func (b *Backends) openProfiles(ctx context.Context, cfg *config.Config, app *firebase.App, log *zap.Logger) (repository.Repository, error) {
	switch cfg.Backends.Profile {
	case config.BackendFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Firestore client: %w", err)
		}
		b.onClose(client.Close)
		collection := cfg.Firebase.ProfilesCollection
		b.Checks["firestore"] = func(ctx context.Context) error { return probeCollection(ctx, client, collection) }
		return repository.NewFirestoreRepository(client, collection, log.Named("firestore")), nil
	case config.BackendPostgres:
		db, err := OpenDB(ctx, &cfg.Database, log)
		if err != nil {
			return nil, err
		}
		b.onClose(db.Close)
		b.Checks["postgres"] = db.PingContext
		log.Info("database connection established", zap.String("host", cfg.Database.Host))
		return repository.NewPostgresRepository(db), nil
	default:
		return repository.NewMemoryRepository(log.Named("profiles")), nil
	}
}

func probeCollection(ctx context.Context, client *firestore.Client, collection string) error {
	iter := client.Collection(collection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (b *Backends) openMedia(ctx context.Context, cfg *config.Config, app *firebase.App) (store.Store, error) {
	switch cfg.Backends.Media {
	case config.BackendFirebase:
		client, err := app.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Storage client: %w", err)
		}
		bucket, err := client.DefaultBucket()
		if err != nil {
			return nil, fmt.Errorf("storage bucket: %w", err)
		}
		return store.NewFirebaseStore(bucket, cfg.Firebase.StorageBucket), nil
	case config.BackendS3:
		client, err := newS3Client(ctx, &cfg.S3)
		if err != nil {
			return nil, err
		}
		return store.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.PublicBaseURL), nil
	default:
		mem := store.NewMemoryStore(cfg.Server.PublicURL)
		b.MediaFiles = mem
		return mem, nil
	}
}

func newS3Client(ctx context.Context, cfg *config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewWorkflow assembles the onboarding workflow over b.
func NewWorkflow(cfg *config.OnboardingConfig, b *Backends, log *zap.Logger, rec metrics.Recorder) (*onboarding.Workflow, error) {
	if log == nil {
		log = zap.NewNop()
	}
	policy, err := onboarding.ParseMissingProfilePolicy(cfg.MissingProfilePolicy)
	if err != nil {
		return nil, err
	}
	opts := onboarding.DefaultOptions()
	opts.MissingProfile = policy
	opts.SignOutAfterOnboarding = cfg.SignOutAfterOnboarding

	return onboarding.New(b.Identity, b.Profiles, b.Media, b.Assets, b.Sessions, opts, log.Named("onboarding"), rec), nil
}
