package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tes-app/tes-backend/internal/avatar"
	identity "github.com/tes-app/tes-backend/internal/identity/domain"
	"github.com/tes-app/tes-backend/internal/logging"
	media "github.com/tes-app/tes-backend/internal/media/domain"
	"github.com/tes-app/tes-backend/internal/onboarding"
	profile "github.com/tes-app/tes-backend/internal/profile/domain"
)

type apiError struct {
	status  int
	code    string
	message string
}

// classify maps workflow and gateway errors to a status, a stable code and
// the message shown to the user.
func classify(err error) apiError {
	var verr *onboarding.ValidationError
	switch {
	case errors.As(err, &verr):
		msg := "Invalid input"
		switch verr.Field {
		case "displayName":
			msg = "Username can't be empty"
		case "email":
			msg = "Invalid Email"
		case "password":
			msg = "Password at least 6 characters"
		}
		return apiError{http.StatusBadRequest, "validation_error", msg}

	case errors.Is(err, identity.ErrEmailFormat):
		return apiError{http.StatusBadRequest, "email_format", "Invalid Email"}
	case errors.Is(err, identity.ErrShortPassword):
		return apiError{http.StatusBadRequest, "short_password", "Password at least 6 characters"}
	case errors.Is(err, identity.ErrEmailUsed):
		return apiError{http.StatusConflict, "email_used", "Email Used"}
	case errors.Is(err, identity.ErrRegistrationOther):
		return apiError{http.StatusBadGateway, "registration_failed", "Re Register"}

	case errors.Is(err, identity.ErrInvalidPassword):
		return apiError{http.StatusUnauthorized, "invalid_password", "Wrong Password"}
	case errors.Is(err, identity.ErrAccountNotFound):
		return apiError{http.StatusNotFound, "account_not_found", "User not Found"}
	case errors.Is(err, identity.ErrAuthOther):
		return apiError{http.StatusBadGateway, "sign_in_failed", "Invalid Email"}

	case errors.Is(err, onboarding.ErrNotSignedIn):
		return apiError{http.StatusUnauthorized, "not_signed_in", "Please sign in"}
	case errors.Is(err, onboarding.ErrSubmitInProgress):
		return apiError{http.StatusConflict, "submit_in_progress", "Your profile is already being saved"}
	case errors.Is(err, onboarding.ErrWrongState):
		return apiError{http.StatusConflict, "wrong_state", "This step is not available right now"}

	case errors.Is(err, profile.ErrWrite):
		return apiError{http.StatusBadGateway, "profile_write_failed", "Could not save your profile, try again"}
	case errors.Is(err, profile.ErrFetch):
		return apiError{http.StatusBadGateway, "profile_fetch_failed", "Could not load profiles"}
	case errors.Is(err, media.ErrEncode), errors.Is(err, media.ErrUpload):
		return apiError{http.StatusBadGateway, "upload_failed", "Could not upload your avatar, try again"}
	case errors.Is(err, avatar.ErrAssetNotFound):
		return apiError{http.StatusServiceUnavailable, "avatar_unavailable", "This avatar is not available right now, try another one"}
	case errors.Is(err, identity.ErrUpdate):
		return apiError{http.StatusBadGateway, "update_failed", "Could not update your account, try again"}
	case errors.Is(err, identity.ErrUserNotFound):
		return apiError{http.StatusNotFound, "user_not_found", "User not Found"}

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apiError{http.StatusServiceUnavailable, "timeout", "Request timed out"}
	}
	return apiError{http.StatusInternalServerError, "internal_error", "Something went wrong"}
}

func (h *Handler) fail(c *gin.Context, err error, extra gin.H) {
	e := classify(err)
	if e.status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context(), h.log).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
	}
	body := gin.H{"error": e.code, "message": e.message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(e.status, body)
}
