package http

import "github.com/gin-gonic/gin"

// Register mounts the auth, session, onboarding and profile routes. auth may
// carry extra middleware such as a rate limiter.
func (h *Handler) Register(rg *gin.RouterGroup, auth ...gin.HandlerFunc) {
	a := rg.Group("/auth", auth...)
	a.POST("/signup", h.SignUp)
	a.POST("/signin", h.SignIn)
	a.POST("/signout", h.SignOut)

	rg.GET("/session", h.Session)

	o := rg.Group("/onboarding")
	o.POST("/begin", h.BeginOnboarding)
	o.GET("/avatar/random", h.RandomAvatar)
	o.POST("/submit", h.Submit)
	o.POST("/avatar/retry", h.RetryAvatar)

	rg.GET("/profile", h.GetProfile)
}

// RegisterAdmin mounts the profile listing behind guard.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup, guard gin.HandlerFunc) {
	rg.GET("/profiles", guard, h.ListProfiles)
}
