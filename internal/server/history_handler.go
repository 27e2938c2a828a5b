package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	svcErr "github.com/team-sallang/matching-poc/internal/errors"
	"github.com/team-sallang/matching-poc/internal/repository"
)

type historyEntry struct {
	ID        string `json:"id"`
	UserAID   string `json:"userAId"`
	UserBID   string `json:"userBId"`
	MatchedAt string `json:"matchedAt"`
}

// HistoryHandler serves the paged fast-path match history.
type HistoryHandler struct {
	repo *repository.MatchHistoryRepository
}

func NewHistoryHandler(repo *repository.MatchHistoryRepository) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

func (h *HistoryHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		svcErr.WriteInvalidInput(c, "page must be a non-negative integer")
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 {
		svcErr.WriteInvalidInput(c, "size must be a positive integer")
		return
	}

	entries, err := h.repo.List(c.Request.Context(), page, size)
	if err != nil {
		svcErr.WriteHTTP(c, err)
		return
	}

	resp := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, historyEntry{
			ID:        e.ID.String(),
			UserAID:   e.UserAID.String(),
			UserBID:   e.UserBID.String(),
			MatchedAt: e.MatchedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, resp)
}
