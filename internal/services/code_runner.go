package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"codepad/internal/catalog"
	"codepad/internal/harness"
	"codepad/internal/logger"
	"codepad/internal/models"
	"codepad/internal/session"

	"go.uber.org/zap"
)

var ErrNoRun = errors.New("no run for this problem yet")

type CodeRunnerService struct {
	registry *harness.Registry
	catalog  *catalog.Catalog
	cache    Cache
	runDelay time.Duration
	cacheTTL time.Duration
}

func NewCodeRunnerService(registry *harness.Registry, cat *catalog.Catalog, cache Cache,
	runDelay, cacheTTL time.Duration) *CodeRunnerService {
	return &CodeRunnerService{
		registry: registry,
		catalog:  cat,
		cache:    cache,
		runDelay: runDelay,
		cacheTTL: cacheTTL,
	}
}

// Run grades source against every test case of the problem after the fixed
// run delay. The work is a task on the session, so closing the session or
// cancelling ctx abandons it.
func (s *CodeRunnerService) Run(ctx context.Context, sess *session.Session, problemID string, req models.RunRequest) (*models.RunResponse, error) {
	problem, err := s.catalog.Get(problemID)
	if err != nil {
		return nil, err
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = problem.Language
	}

	var results []models.TestResult
	task := sess.Schedule(s.runDelay, func(taskCtx context.Context) {
		results = s.execute(taskCtx, problem, language, req.SourceCode)
	})

	if err := task.Wait(ctx); err != nil {
		task.Cancel()
		if errors.Is(err, session.ErrTaskCancelled) {
			return nil, session.ErrSessionClosed
		}
		return nil, fmt.Errorf("run abandoned: %w", err)
	}

	resp := models.NewRunResponse(problem.ID, language, results)
	sess.SetLastRun(resp)

	logger.Log.Info("Finished code run",
		zap.String("session_id", sess.ID),
		zap.String("problem_id", problem.ID),
		zap.String("language", language),
		zap.Int("passed", resp.Passed),
		zap.Int("total", resp.Total))

	return &resp, nil
}

func (s *CodeRunnerService) execute(ctx context.Context, problem *models.Problem, language, source string) []models.TestResult {
	key := RunCacheKey(problem.ID, language, source)

	var cached []models.TestResult
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		logger.Log.Debug("Cache hit, returning run results", zap.String("key", key))
		return cached
	} else if !errors.Is(err, ErrCacheMiss) {
		logger.Log.Warn("Run cache lookup failed", zap.Error(err))
	}

	results, interrupted := s.registry.RunTests(ctx, problem, language, source)
	if interrupted {
		logger.Log.Debug("Run interrupted, not caching results", zap.String("key", key))
		return results
	}

	if err := s.cache.Set(ctx, key, results, s.cacheTTL); err != nil {
		logger.Log.Warn("Failed to cache run results", zap.Error(err))
	}
	return results
}

// LastRun returns the session's latest run of the problem, by id or slug.
func (s *CodeRunnerService) LastRun(sess *session.Session, problemID string) (models.RunResponse, error) {
	problem, err := s.catalog.Get(problemID)
	if err != nil {
		return models.RunResponse{}, err
	}
	resp, ok := sess.LastRun(problem.ID)
	if !ok {
		return models.RunResponse{}, ErrNoRun
	}
	return resp, nil
}

// Languages lists every declared language and whether it can run.
func (s *CodeRunnerService) Languages() []models.Language {
	ids := s.registry.Languages()
	out := make([]models.Language, 0, len(ids))
	for _, id := range ids {
		cfg, _ := s.registry.Lookup(id)
		out = append(out, models.Language{ID: id, Name: cfg.Name, Executable: cfg.Executable})
	}
	return out
}
