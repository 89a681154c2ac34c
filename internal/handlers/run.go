package handlers

import (
	"errors"
	"net/http"

	"codepad/internal/catalog"
	"codepad/internal/logger"
	"codepad/internal/middlewares"
	"codepad/internal/models"
	"codepad/internal/services"
	"codepad/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RunHandler struct {
	runner *services.CodeRunnerService
}

func NewRunHandler(runner *services.CodeRunnerService) *RunHandler {
	return &RunHandler{runner: runner}
}

// RunCode executes the posted source against the problem's test cases
func (h *RunHandler) RunCode(c *gin.Context) {
	var req models.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := middlewares.CurrentSession(c)
	resp, err := h.runner.Run(c.Request.Context(), sess, c.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProblemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
		case errors.Is(err, session.ErrSessionClosed):
			c.JSON(http.StatusGone, gin.H{"error": "Session closed"})
		default:
			logger.Log.Warn("Code run abandoned",
				zap.String("session_id", sess.ID),
				zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Run abandoned"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetLastRun returns the session's most recent results for the problem
func (h *RunHandler) GetLastRun(c *gin.Context) {
	resp, err := h.runner.LastRun(middlewares.CurrentSession(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProblemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
		case errors.Is(err, services.ErrNoRun):
			c.JSON(http.StatusNotFound, gin.H{"error": "No run for this problem yet"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve run"})
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RunHandler) GetLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": h.runner.Languages()})
}

func (h *RunHandler) RegisterRoutes(router *gin.Engine, sessionMW gin.HandlerFunc) {
	router.GET("/languages", h.GetLanguages)

	runGroup := router.Group("/problems", sessionMW)
	{
		runGroup.POST("/:id/run", h.RunCode)
		runGroup.GET("/:id/run", h.GetLastRun)
	}
}
