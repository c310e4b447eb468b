package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tes-app/tes-backend/internal/api/http/middleware"
	"github.com/tes-app/tes-backend/internal/avatar"
	"github.com/tes-app/tes-backend/internal/onboarding"
	profile "github.com/tes-app/tes-backend/internal/profile/domain"
)

var birthdayLayouts = []string{"2006-01-02", profile.BirthdayLayout, time.RFC3339}

func parseBirthday(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (h *Handler) SignUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s, err := h.workflow.SignUp(c.Request.Context(), middleware.SessionID(c), req.Email, req.Password)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": s})
}

func (h *Handler) SignIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s, err := h.workflow.SignIn(c.Request.Context(), middleware.SessionID(c), req.Email, req.Password)
	if err != nil {
		h.fail(c, err, gin.H{"session": s})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

func (h *Handler) SignOut(c *gin.Context) {
	s, err := h.workflow.SignOut(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

func (h *Handler) Session(c *gin.Context) {
	s, err := h.workflow.Session(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

func (h *Handler) BeginOnboarding(c *gin.Context) {
	opts, s, err := h.workflow.BeginOnboarding(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		h.fail(c, err, gin.H{"session": s})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": s,
		"options": opts,
		"genders": profile.GenderOptions,
	})
}

func (h *Handler) RandomAvatar(c *gin.Context) {
	sel := h.workflow.RandomizeAvatar()
	hair, body, face := sel.Layers()
	c.JSON(http.StatusOK, gin.H{
		"avatar":   sel,
		"assetKey": sel.AssetKey(),
		"layers":   gin.H{"hair": hair, "body": body, "face": face},
	})
}

func (h *Handler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	birthday, ok := parseBirthday(req.Birthday)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "Invalid birthday"})
		return
	}

	s, err := h.workflow.Submit(c.Request.Context(), middleware.SessionID(c), onboarding.Submission{
		DisplayName: req.DisplayName,
		GenderIndex: req.GenderIndex,
		Birthday:    birthday,
		Country:     req.Country,
		Avatar:      avatar.Selection{Hair: req.Avatar.Hair, Clothes: req.Avatar.Clothes, Face: req.Avatar.Face},
	})
	if err != nil {
		h.fail(c, err, gin.H{"session": s})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

func (h *Handler) RetryAvatar(c *gin.Context) {
	var req avatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sel := avatar.Selection{Hair: req.Hair, Clothes: req.Clothes, Face: req.Face}
	s, err := h.workflow.RetryAvatarUpload(c.Request.Context(), middleware.SessionID(c), sel)
	if err != nil {
		h.fail(c, err, gin.H{"session": s})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// GetProfile returns the signed in user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	view, err := h.workflow.LoadProfile(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": view})
}

func (h *Handler) ListProfiles(c *gin.Context) {
	profiles, err := h.workflow.Profiles(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles, "count": len(profiles)})
}
