package handlers

import (
	"github.com/devex-hq/devex-api/internal/collab"
	"github.com/devex-hq/devex-api/internal/middleware"
	"github.com/devex-hq/devex-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type CollabHandler struct {
	collabs CollabServiceInterface
	chat    ChatServiceInterface
	log     *zap.Logger
}

func NewCollabHandler(collabs CollabServiceInterface, chat ChatServiceInterface, log *zap.Logger) *CollabHandler {
	return &CollabHandler{collabs: collabs, chat: chat, log: log}
}

// caller returns the authenticated user and the :id project, writing the
// error response itself when either is missing.
func (h *CollabHandler) caller(c *drift.Context) (userID, projectID uuid.UUID, ok bool) {
	userID = middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, uuid.Nil, false
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, projectID, true
}

func (h *CollabHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateCollabRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	p, err := h.collabs.Create(c.Request.Context(), userID, req.Title, req.Description, req.RequiredSkills)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(201, p)
}

func (h *CollabHandler) ListOpen(c *drift.Context) {
	projects, err := h.collabs.ListOpen(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, projects)
}

func (h *CollabHandler) Get(c *drift.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	p, err := h.collabs.GetByID(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, p)
}

func (h *CollabHandler) RequestJoin(c *drift.Context) {
	userID, projectID, ok := h.caller(c)
	if !ok {
		return
	}

	p, err := h.collabs.RequestJoin(c.Request.Context(), projectID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, p)
}

func (h *CollabHandler) ManageRequest(c *drift.Context) {
	userID, projectID, ok := h.caller(c)
	if !ok {
		return
	}

	var req dto.ManageRequestRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	applicantID, err := uuid.Parse(req.ApplicantID)
	if err != nil {
		c.BadRequest("invalid applicantId")
		return
	}
	action, err := collab.ParseAction(req.Action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	p, err := h.collabs.ManageRequest(c.Request.Context(), projectID, userID, applicantID, action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, p)
}

func (h *CollabHandler) RemoveCollaborator(c *drift.Context) {
	userID, projectID, ok := h.caller(c)
	if !ok {
		return
	}

	var req dto.RemoveCollaboratorRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		c.BadRequest("invalid memberId")
		return
	}

	p, err := h.collabs.RemoveCollaborator(c.Request.Context(), projectID, userID, memberID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, p)
}

func (h *CollabHandler) UpdateStatus(c *drift.Context) {
	userID, projectID, ok := h.caller(c)
	if !ok {
		return
	}

	var req dto.UpdateCollabStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	p, err := h.collabs.UpdateStatus(c.Request.Context(), projectID, userID, req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, p)
}

func (h *CollabHandler) Delete(c *drift.Context) {
	userID, projectID, ok := h.caller(c)
	if !ok {
		return
	}

	if err := h.collabs.Delete(c.Request.Context(), projectID, userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, dto.MessageResponse{Message: "project deleted"})
}

func (h *CollabHandler) Messages(c *drift.Context) {
	userID, projectID, ok := h.caller(c)
	if !ok {
		return
	}

	messages, err := h.chat.History(c.Request.Context(), projectID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	_ = c.JSON(200, messages)
}
