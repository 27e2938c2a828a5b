package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/team-sallang/matching-poc/internal/db"
	svcErr "github.com/team-sallang/matching-poc/internal/errors"
	"github.com/team-sallang/matching-poc/internal/service/match"
)

type matchRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
}

type matchedData struct {
	RoomID    string `json:"room_id"`
	MatchedAt string `json:"matched_at"`
}

type waitingData struct {
	Message  string `json:"message"`
	QueuedAt string `json:"queued_at"`
}

// MatchHandler exposes the relational matching endpoints.
type MatchHandler struct {
	svc *match.Service
}

func NewMatchHandler(svc *match.Service) *MatchHandler {
	return &MatchHandler{svc: svc}
}

// Request answers 200 with room data on an intercept hit, 202 while the
// requester waits for the scheduler.
func (h *MatchHandler) Request(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		svcErr.WriteInvalidInput(c, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		svcErr.WriteInvalidInput(c, "userId must be a valid uuid")
		return
	}

	result, err := h.svc.RequestMatch(c.Request.Context(), userID)
	if err != nil {
		svcErr.WriteHTTP(c, err)
		return
	}

	if result.Status == db.StatusMatched {
		c.JSON(http.StatusOK, gin.H{
			"status": string(result.Status),
			"data": matchedData{
				RoomID:    result.RoomID.String(),
				MatchedAt: result.MatchedAt.Format(time.RFC3339),
			},
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": string(result.Status),
		"data": waitingData{
			Message:  "queued for matching; poll status for the result",
			QueuedAt: result.QueuedAt.Format(time.RFC3339),
		},
	})
}

func (h *MatchHandler) Cancel(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		svcErr.WriteInvalidInput(c, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		svcErr.WriteInvalidInput(c, "userId must be a valid uuid")
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), userID); err != nil {
		svcErr.WriteHTTP(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
