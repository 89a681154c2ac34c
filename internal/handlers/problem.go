package handlers

import (
	"errors"
	"net/http"

	"codepad/internal/catalog"
	"codepad/internal/logger"
	"codepad/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProblemHandler struct {
	catalog *catalog.Catalog
}

// NewProblemHandler creates a new problem handler
func NewProblemHandler(cat *catalog.Catalog) *ProblemHandler {
	return &ProblemHandler{
		catalog: cat,
	}
}

// GetProblems returns a list of all problems with minimal information
func (h *ProblemHandler) GetProblems(c *gin.Context) {
	problems := h.catalog.List()
	items := make([]models.ProblemListItem, 0, len(problems))
	for _, p := range problems {
		items = append(items, p.ListItem())
	}

	c.JSON(http.StatusOK, gin.H{
		"problems": items,
	})
}

// GetProblemByID returns the full statement of a problem, by id or slug
func (h *ProblemHandler) GetProblemByID(c *gin.Context) {
	problem, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, problem)
}

// GetNeighbors returns the previous and next problems for navigation
func (h *ProblemHandler) GetNeighbors(c *gin.Context) {
	problem, ok := h.lookup(c)
	if !ok {
		return
	}

	prev, next, err := h.catalog.Neighbors(problem.ID)
	if err != nil {
		logger.Log.Error("Failed to get neighbors", zap.String("problem_id", problem.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve navigation"})
		return
	}

	response := gin.H{"previous": nil, "next": nil}
	if prev != nil {
		response["previous"] = prev.ListItem()
	}
	if next != nil {
		response["next"] = next.ListItem()
	}
	c.JSON(http.StatusOK, response)
}

func (h *ProblemHandler) GetStarterCode(c *gin.Context) {
	problem, ok := h.lookup(c)
	if !ok {
		return
	}

	language := c.Param("language")
	code, found := problem.StarterFor(language)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No starter code for language " + language})
		return
	}
	c.JSON(http.StatusOK, gin.H{"language": language, "code": code})
}

func (h *ProblemHandler) GetSolution(c *gin.Context) {
	problem, ok := h.lookup(c)
	if !ok {
		return
	}

	language := c.Param("language")
	code, err := h.catalog.Solution(problem.ID, language)
	if err != nil {
		if errors.Is(err, catalog.ErrSolutionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No reference solution for language " + language})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve solution"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"language": language, "code": code})
}

func (h *ProblemHandler) lookup(c *gin.Context) (*models.Problem, bool) {
	id := c.Param("id")
	problem, err := h.catalog.Get(id)
	if err != nil {
		if errors.Is(err, catalog.ErrProblemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
			return nil, false
		}
		logger.Log.Error("Failed to get problem", zap.String("problem_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve problem details"})
		return nil, false
	}
	return problem, true
}

// RegisterRoutes registers the problem handler routes
func (h *ProblemHandler) RegisterRoutes(router *gin.Engine) {
	problemGroup := router.Group("/problems")
	{
		problemGroup.GET("", h.GetProblems)
		problemGroup.GET("/:id", h.GetProblemByID)
		problemGroup.GET("/:id/neighbors", h.GetNeighbors)
		problemGroup.GET("/:id/starter/:language", h.GetStarterCode)
		problemGroup.GET("/:id/solutions/:language", h.GetSolution)
	}
}
