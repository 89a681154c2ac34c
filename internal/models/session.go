package models

import "time"

type SessionInfo struct {
	ID               string    `json:"id"`
	CurrentProblemID string    `json:"current_problem_id"`
	CreatedAt        time.Time `json:"created_at"`
	SubmissionCount  int       `json:"submission_count"`
}

type CreateSessionResponse struct {
	Session SessionInfo `json:"session"`
	Token   string      `json:"token"`
}

type NavigateRequest struct {
	ProblemID string `json:"problem_id" binding:"required"`
}

type Language struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Executable bool   `json:"executable"`
}
