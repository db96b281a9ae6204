package handlers

import (
	"github.com/devex-hq/devex-api/internal/middleware"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type UserHandler struct {
	profiles ProfileServiceInterface
	log      *zap.Logger
}

func NewUserHandler(profiles ProfileServiceInterface, log *zap.Logger) *UserHandler {
	return &UserHandler{profiles: profiles, log: log}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	profile, err := h.profiles.GetSelf(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, profile)
}

func (h *UserHandler) GetProfile(c *drift.Context) {
	profile, err := h.profiles.GetPublicProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, profile)
}

func (h *UserHandler) GetLogs(c *drift.Context) {
	logs, err := h.profiles.GetUserLogs(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, logs)
}

func (h *UserHandler) GetCollabs(c *drift.Context) {
	collabs, err := h.profiles.GetUserCollabs(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, collabs)
}
