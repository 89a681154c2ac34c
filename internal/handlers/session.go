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

type SessionHandler struct {
	store        *session.Store
	tokenService *services.TokenService
	catalog      *catalog.Catalog
}

func NewSessionHandler(store *session.Store, tokenService *services.TokenService, cat *catalog.Catalog) *SessionHandler {
	return &SessionHandler{
		store:        store,
		tokenService: tokenService,
		catalog:      cat,
	}
}

// CreateSession opens a practice session on the first problem of the bank
func (h *SessionHandler) CreateSession(c *gin.Context) {
	sess := h.store.Create(h.catalog.First().ID)

	token, err := h.tokenService.GenerateToken(sess.ID)
	if err != nil {
		logger.Log.Error("Failed to generate session token", zap.Error(err))
		_ = h.store.Close(sess.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.SetCookie(middlewares.SessionCookie, token, int(h.tokenService.TTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusCreated, models.CreateSessionResponse{
		Session: sess.Info(),
		Token:   token,
	})
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, middlewares.CurrentSession(c).Info())
}

// Navigate switches the session's current problem
func (h *SessionHandler) Navigate(c *gin.Context) {
	var req models.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	problem, err := h.catalog.Get(req.ProblemID)
	if err != nil {
		if errors.Is(err, catalog.ErrProblemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve problem"})
		return
	}

	sess := middlewares.CurrentSession(c)
	sess.SetCurrentProblem(problem.ID)
	c.JSON(http.StatusOK, sess.Info())
}

// CloseSession drops the session and cancels its pending runs and gradings
func (h *SessionHandler) CloseSession(c *gin.Context) {
	sess := middlewares.CurrentSession(c)
	if err := h.store.Close(sess.ID); err != nil {
		logger.Log.Warn("Failed to close session", zap.String("session_id", sess.ID), zap.Error(err))
	}

	c.SetCookie(middlewares.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Session closed"})
}

func (h *SessionHandler) RegisterRoutes(router *gin.Engine, sessionMW gin.HandlerFunc) {
	router.POST("/sessions", h.CreateSession)

	sessionGroup := router.Group("/sessions/current", sessionMW)
	{
		sessionGroup.GET("", h.GetSession)
		sessionGroup.PUT("/problem", h.Navigate)
		sessionGroup.DELETE("", h.CloseSession)
	}
}
