package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httpapi "github.com/tes-app/tes-backend/internal/api/http"
	"github.com/tes-app/tes-backend/internal/api/http/middleware"
	"github.com/tes-app/tes-backend/internal/api/http/routes"
	"github.com/tes-app/tes-backend/internal/media/store"
	"github.com/tes-app/tes-backend/internal/metrics"
	"github.com/tes-app/tes-backend/internal/onboarding"
	onboardinghttp "github.com/tes-app/tes-backend/internal/onboarding/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	AdminAPIKey string

	Workflow    *onboarding.Workflow
	Checks      map[string]httpapi.Check
	MediaFiles  *store.MemoryStore
	AuthLimiter *middleware.RateLimiter

	Gatherer prometheus.Gatherer
	Metrics  metrics.Recorder
	Log      *zap.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	if dep.Log == nil {
		dep.Log = zap.NewNop()
	}
	if dep.Metrics == nil {
		dep.Metrics = metrics.Nop{}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Log))
	r.Use(middleware.MetricsMiddleware(dep.Metrics))
	r.Use(cors.New(corsConfig(dep.CORSOrigins)))
	r.Use(middleware.SessionIDMiddleware())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Checks)
	healthHandler.RegisterRoutes(r)

	if dep.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(dep.Gatherer)))
	}

	if dep.MediaFiles != nil {
		r.GET("/media/:key", serveMedia(dep.MediaFiles))
	}

	routes.RegisterV1(r, routes.V1Deps{
		Onboarding:  onboardinghttp.New(dep.Workflow, dep.Log.Named("http")),
		AuthLimiter: dep.AuthLimiter,
		AdminAPIKey: dep.AdminAPIKey,
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-API-Key", middleware.SessionHeader, "X-Request-Id"},
		ExposeHeaders: []string{middleware.SessionHeader, "X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

func serveMedia(files *store.MemoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, contentType, ok := files.Get(c.Param("key"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, contentType, data)
	}
}
