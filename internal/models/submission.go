package models

import (
	"errors"
	"strings"
	"time"
)

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusAccepted SubmissionStatus = "accepted"
	StatusWrong    SubmissionStatus = "wrong"
)

func (s SubmissionStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusWrong
}

type Submission struct {
	ID         int              `json:"id"`
	ProblemID  string           `json:"problem_id"`
	Language   string           `json:"language"`
	Status     SubmissionStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
}

type SubmissionRequest struct {
	Language   string `json:"language"`
	SourceCode string `json:"source_code" binding:"required"`
}

type SubmissionListItem struct {
	Submission
	// Derived field filled in by the handler
	FormattedTime string `json:"submitted_time"`
}

func (r *SubmissionRequest) ValidateRequest() error {
	if strings.TrimSpace(r.SourceCode) == "" {
		return errors.New("source code cannot be empty")
	}
	return nil
}
