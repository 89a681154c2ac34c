package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codepad/internal/catalog"
	"codepad/internal/logger"
	"codepad/internal/models"
	"codepad/internal/session"

	"go.uber.org/zap"
)

// JobPublisher hands grade jobs to the worker pool.
type JobPublisher interface {
	Publish(ctx context.Context, job models.GradeJob) error
}

type SubmissionService struct {
	catalog    *catalog.Catalog
	sessions   *session.Store
	grader     Grader
	publisher  JobPublisher
	gradeDelay time.Duration
}

func NewSubmissionService(cat *catalog.Catalog, sessions *session.Store, grader Grader,
	publisher JobPublisher, gradeDelay time.Duration) *SubmissionService {
	return &SubmissionService{
		catalog:    cat,
		sessions:   sessions,
		grader:     grader,
		publisher:  publisher,
		gradeDelay: gradeDelay,
	}
}

// Submit records a pending submission and queues it for grading. If the
// queue rejects the job, grading is scheduled directly on the session so
// the submission cannot stay pending.
func (s *SubmissionService) Submit(ctx context.Context, sess *session.Session, problemID string, req models.SubmissionRequest) (models.Submission, error) {
	problem, err := s.catalog.Get(problemID)
	if err != nil {
		return models.Submission{}, err
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = problem.Language
	}

	sub, err := sess.AddSubmission(problem.ID, language)
	if err != nil {
		return models.Submission{}, err
	}

	job := models.GradeJob{
		SessionID:    sess.ID,
		SubmissionID: sub.ID,
		ProblemID:    problem.ID,
		Language:     language,
		SourceCode:   req.SourceCode,
	}

	if err := s.publisher.Publish(ctx, job); err != nil {
		logger.Log.Error("Failed to queue submission, grading locally",
			zap.String("session_id", sess.ID),
			zap.Int("submission_id", sub.ID),
			zap.Error(err))
		s.scheduleOn(sess, job)
	}

	logger.Log.Info("Submission created",
		zap.String("session_id", sess.ID),
		zap.Int("submission_id", sub.ID),
		zap.String("problem_id", problem.ID))

	return sub, nil
}

// ScheduleGrading is the worker entry point: it arms the grading task on
// the job's session. A closed session drops the job.
func (s *SubmissionService) ScheduleGrading(job models.GradeJob) error {
	sess, err := s.sessions.Get(job.SessionID)
	if err != nil {
		return fmt.Errorf("cannot grade submission %d: %w", job.SubmissionID, err)
	}
	s.scheduleOn(sess, job)
	return nil
}

func (s *SubmissionService) scheduleOn(sess *session.Session, job models.GradeJob) {
	sess.Schedule(s.gradeDelay, func(ctx context.Context) {
		s.grade(ctx, sess, job)
	})
}

func (s *SubmissionService) grade(ctx context.Context, sess *session.Session, job models.GradeJob) {
	sub, err := sess.Submission(job.SubmissionID)
	if err != nil {
		logger.Log.Error("Failed to get submission",
			zap.String("session_id", sess.ID),
			zap.Int("submission_id", job.SubmissionID),
			zap.Error(err))
		return
	}

	status, err := s.grader.Grade(ctx, sub, job.SourceCode)
	if err != nil {
		logger.Log.Warn("Grader failed, marking submission wrong",
			zap.String("session_id", sess.ID),
			zap.Int("submission_id", sub.ID),
			zap.Error(err))
		status = models.StatusWrong
	}

	resolved, err := sess.Resolve(sub.ID, status)
	if err != nil {
		logger.Log.Error("Failed to update submission status",
			zap.String("session_id", sess.ID),
			zap.Int("submission_id", sub.ID),
			zap.Error(err))
		return
	}

	logger.Log.Info("Submission graded",
		zap.String("session_id", sess.ID),
		zap.Int("submission_id", resolved.ID),
		zap.String("status", string(resolved.Status)))
}

// List returns the session's submissions, newest first, optionally narrowed
// to one problem given by id or slug.
func (s *SubmissionService) List(sess *session.Session, problemID string) ([]models.Submission, error) {
	if problemID == "" {
		return sess.Submissions(""), nil
	}
	problem, err := s.catalog.Get(problemID)
	if err != nil {
		return nil, err
	}
	return sess.Submissions(problem.ID), nil
}

func (s *SubmissionService) Get(sess *session.Session, id int) (models.Submission, error) {
	return sess.Submission(id)
}
