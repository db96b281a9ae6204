package handlers

import (
	"github.com/devex-hq/devex-api/internal/middleware"
	"github.com/devex-hq/devex-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type LogHandler struct {
	logs LogServiceInterface
	log  *zap.Logger
}

func NewLogHandler(logs LogServiceInterface, log *zap.Logger) *LogHandler {
	return &LogHandler{logs: logs, log: log}
}

func (h *LogHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateLogRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	entry, err := h.logs.Create(c.Request.Context(), userID, req.Content, req.Tags, req.ImageURL)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(201, entry)
}

func (h *LogHandler) Feed(c *drift.Context) {
	logs, err := h.logs.Feed(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, logs)
}

func (h *LogHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	logID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid log id")
		return
	}

	if err := h.logs.Delete(c.Request.Context(), logID, userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, dto.MessageResponse{Message: "log deleted"})
}

func (h *LogHandler) ToggleLike(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	logID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid log id")
		return
	}

	entry, err := h.logs.ToggleLike(c.Request.Context(), logID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, entry)
}
