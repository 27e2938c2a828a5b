package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/team-sallang/matching-poc/internal/app"
	"github.com/team-sallang/matching-poc/internal/repository"
	"github.com/team-sallang/matching-poc/internal/service/match"
	"github.com/team-sallang/matching-poc/internal/service/queue"
)

// NewRouter wires the HTTP surface: fast-path queue endpoints, the
// relational match endpoints and the history listing.
func NewRouter(appCtx *app.AppContext, queueSvc *queue.Service, matchSvc *match.Service) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(appCtx.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	queueHandler := NewQueueHandler(queueSvc)
	q := router.Group("/queue")
	{
		q.POST("/join", queueHandler.Join)
		q.POST("/leave", queueHandler.Leave)
		q.GET("/status/:userId", queueHandler.Status)
		q.POST("/ack", queueHandler.Acknowledge)
	}

	matchHandler := NewMatchHandler(matchSvc)
	m := router.Group("/api/v1/match")
	{
		m.POST("", matchHandler.Request)
		m.DELETE("", matchHandler.Cancel)
	}

	historyHandler := NewHistoryHandler(repository.NewMatchHistoryRepository(appCtx.DB))
	router.GET("/history", historyHandler.List)

	return router
}
