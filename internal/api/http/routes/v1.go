package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/tes-app/tes-backend/internal/api/http/middleware"
	onboardinghttp "github.com/tes-app/tes-backend/internal/onboarding/http"
)

type V1Deps struct {
	Onboarding  *onboardinghttp.Handler
	AuthLimiter *middleware.RateLimiter
	AdminAPIKey string
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")

	var authMiddleware []gin.HandlerFunc
	if dep.AuthLimiter != nil {
		authMiddleware = append(authMiddleware, dep.AuthLimiter.Middleware())
	}
	dep.Onboarding.Register(api, authMiddleware...)

	admin := api.Group("/admin")
	dep.Onboarding.RegisterAdmin(admin, middleware.APIKeyMiddleware(dep.AdminAPIKey))
}
