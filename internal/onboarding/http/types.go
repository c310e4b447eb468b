package http

import (
	"go.uber.org/zap"

	"github.com/tes-app/tes-backend/internal/onboarding"
)

type Handler struct {
	workflow *onboarding.Workflow
	log      *zap.Logger
}

func New(workflow *onboarding.Workflow, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		workflow: workflow,
		log:      log,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type avatarRequest struct {
	Hair    int `json:"hair"`
	Clothes int `json:"clothes"`
	Face    int `json:"face"`
}

type submitRequest struct {
	DisplayName string        `json:"displayName"`
	GenderIndex int           `json:"genderIndex"`
	Birthday    string        `json:"birthday"`
	Country     string        `json:"country"`
	Avatar      avatarRequest `json:"avatar"`
}
