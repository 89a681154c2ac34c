package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"codepad/internal/models"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionClosed      = errors.New("session closed")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadyResolved    = errors.New("submission already resolved")
)

// Session holds everything a single practice tab owns: the problem being
// viewed, the last run results per problem and the submission history.
// All fields behind mu; the scheduler owns the session's delayed work.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu               sync.Mutex
	currentProblemID string
	submissions      []*models.Submission // newest first
	lastRun          map[string]models.RunResponse
	nextSubmissionID int
	lastSeen         time.Time
	closed           bool

	scheduler *Scheduler
}

func New(id, problemID string) *Session {
	now := time.Now()
	return &Session{
		ID:               id,
		CreatedAt:        now,
		currentProblemID: problemID,
		lastRun:          make(map[string]models.RunResponse),
		lastSeen:         now,
		scheduler:        NewScheduler(),
	}
}

func (s *Session) Info() models.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SessionInfo{
		ID:               s.ID,
		CurrentProblemID: s.currentProblemID,
		CreatedAt:        s.CreatedAt,
		SubmissionCount:  len(s.submissions),
	}
}

func (s *Session) SetCurrentProblem(problemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentProblemID = problemID
}

// AddSubmission records a pending submission with the next session-local id.
func (s *Session) AddSubmission(problemID, language string) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.Submission{}, ErrSessionClosed
	}

	s.nextSubmissionID++
	sub := &models.Submission{
		ID:        s.nextSubmissionID,
		ProblemID: problemID,
		Language:  language,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}
	s.submissions = append([]*models.Submission{sub}, s.submissions...)
	return *sub, nil
}

// Resolve moves a pending submission to its terminal verdict. Lookup is by
// id, so resolutions for different submissions may arrive in any order.
func (s *Session) Resolve(id int, status models.SubmissionStatus) (models.Submission, error) {
	if !status.Terminal() {
		return models.Submission{}, fmt.Errorf("cannot resolve submission %d to %q", id, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub := s.find(id)
	if sub == nil {
		return models.Submission{}, fmt.Errorf("%w: %d", ErrSubmissionNotFound, id)
	}
	if sub.Status.Terminal() {
		return *sub, fmt.Errorf("%w: %d", ErrAlreadyResolved, id)
	}
	now := time.Now()
	sub.Status = status
	sub.ResolvedAt = &now
	return *sub, nil
}

func (s *Session) Submission(id int) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.find(id)
	if sub == nil {
		return models.Submission{}, fmt.Errorf("%w: %d", ErrSubmissionNotFound, id)
	}
	return *sub, nil
}

// Submissions lists newest first, filtered by problem when problemID is set.
func (s *Session) Submissions(problemID string) []models.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		if problemID != "" && sub.ProblemID != problemID {
			continue
		}
		out = append(out, *sub)
	}
	return out
}

func (s *Session) find(id int) *models.Submission {
	for _, sub := range s.submissions {
		if sub.ID == id {
			return sub
		}
	}
	return nil
}

// SetLastRun keeps resp as the latest run of its problem.
func (s *Session) SetLastRun(resp models.RunResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun[resp.ProblemID] = resp
}

func (s *Session) LastRun(problemID string) (models.RunResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.lastRun[problemID]
	return resp, ok
}

// Schedule runs fn after delay unless the session is closed first.
func (s *Session) Schedule(delay time.Duration, fn func(ctx context.Context)) *Task {
	return s.scheduler.Schedule(delay, fn)
}

func (s *Session) PendingTasks() int {
	return s.scheduler.Pending()
}

func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close abandons every pending timer. Submissions still pending stay
// pending; the session is unreachable afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.scheduler.Stop()
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
