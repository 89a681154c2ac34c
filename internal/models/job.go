package models

// GradeJob asks a grading worker to resolve one pending submission.
type GradeJob struct {
	SessionID    string `json:"session_id"`
	SubmissionID int    `json:"submission_id"`
	ProblemID    string `json:"problem_id"`
	Language     string `json:"language"`
	SourceCode   string `json:"source_code"`
}
