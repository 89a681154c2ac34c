package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"codepad/internal/catalog"
	"codepad/internal/logger"
	"codepad/internal/middlewares"
	"codepad/internal/models"
	"codepad/internal/services"
	"codepad/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubmissionHandler struct {
	submissions *services.SubmissionService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissions *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
	}
}

// CreateSubmission handles the submission creation request
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	var req models.SubmissionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := req.ValidateRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := middlewares.CurrentSession(c)
	submission, err := h.submissions.Submit(c.Request.Context(), sess, c.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProblemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
		case errors.Is(err, session.ErrSessionClosed):
			c.JSON(http.StatusGone, gin.H{"error": "Session closed"})
		default:
			logger.Log.Error("Failed to create submission", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process submission"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":       "Submission queued for processing",
		"submission_id": submission.ID,
		"status":        submission.Status,
	})
}

func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	submission, err := h.submissions.Get(middlewares.CurrentSession(c), id)
	if err != nil {
		if errors.Is(err, session.ErrSubmissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve submission details"})
		return
	}

	c.JSON(http.StatusOK, submission)
}

func (h *SubmissionHandler) GetSessionSubmissions(c *gin.Context) {
	problemID := c.Query("problem_id")
	submissions, err := h.submissions.List(middlewares.CurrentSession(c), problemID)
	if err != nil {
		if errors.Is(err, catalog.ErrProblemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve submissions"})
		return
	}

	items := make([]models.SubmissionListItem, 0, len(submissions))
	for _, s := range submissions {
		items = append(items, models.SubmissionListItem{
			Submission:    s,
			FormattedTime: s.CreatedAt.Format("3:04:05 PM"),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": items,
		"count":       len(items),
	})
}

func (h *SubmissionHandler) RegisterRoutes(router *gin.Engine, sessionMW gin.HandlerFunc) {
	router.POST("/problems/:id/submissions", sessionMW, h.CreateSubmission)

	submissionGroup := router.Group("/submissions", sessionMW)
	{
		submissionGroup.GET("", h.GetSessionSubmissions)
		submissionGroup.GET("/:id", h.GetSubmission)
	}
}
