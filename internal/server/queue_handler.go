package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	svcErr "github.com/team-sallang/matching-poc/internal/errors"
	"github.com/team-sallang/matching-poc/internal/service/queue"
)

type joinQueueRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Gender string `json:"gender" binding:"required"`
}

type userIDRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
}

type statusResponse struct {
	Status      string `json:"status"`
	MatchedWith string `json:"matchedWith,omitempty"`
	JoinedAt    string `json:"joinedAt,omitempty"`
}

// QueueHandler exposes the fast-path queue operations.
type QueueHandler struct {
	svc *queue.Service
}

func NewQueueHandler(svc *queue.Service) *QueueHandler {
	return &QueueHandler{svc: svc}
}

func (h *QueueHandler) Join(c *gin.Context) {
	var req joinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		svcErr.WriteInvalidInput(c, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		svcErr.WriteInvalidInput(c, "userId must be a valid uuid")
		return
	}

	status, err := h.svc.Join(c.Request.Context(), userID, req.Gender)
	if err != nil {
		svcErr.WriteHTTP(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}

func (h *QueueHandler) Leave(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		svcErr.WriteInvalidInput(c, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		svcErr.WriteInvalidInput(c, "userId must be a valid uuid")
		return
	}

	status, err := h.svc.Leave(c.Request.Context(), userID)
	if err != nil {
		svcErr.WriteHTTP(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}

func (h *QueueHandler) Status(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		svcErr.WriteInvalidInput(c, "userId must be a valid uuid")
		return
	}

	info, err := h.svc.Status(c.Request.Context(), userID)
	if err != nil {
		svcErr.WriteHTTP(c, err)
		return
	}

	resp := statusResponse{Status: string(info.Status), MatchedWith: info.MatchedWith}
	if !info.JoinedAt.IsZero() {
		resp.JoinedAt = info.JoinedAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *QueueHandler) Acknowledge(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		svcErr.WriteInvalidInput(c, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		svcErr.WriteInvalidInput(c, "userId must be a valid uuid")
		return
	}

	status, err := h.svc.Acknowledge(c.Request.Context(), userID)
	if err != nil {
		svcErr.WriteHTTP(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}
