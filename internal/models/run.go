package models

import (
	"errors"
	"strings"
)

// TestResult is the outcome of one test case. Actual carries either the
// serialized output or the error text; Error is set only in the latter case.
type TestResult struct {
	Passed   bool   `json:"passed"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Error    bool   `json:"error,omitempty"`
}

type RunRequest struct {
	Language   string `json:"language"`
	SourceCode string `json:"source_code" binding:"required"`
}

type RunResponse struct {
	ProblemID string       `json:"problem_id"`
	Language  string       `json:"language"`
	Results   []TestResult `json:"results"`
	Passed    int          `json:"passed"`
	Total     int          `json:"total"`
}

func (r *RunRequest) ValidateRequest() error {
	if strings.TrimSpace(r.SourceCode) == "" {
		return errors.New("source code cannot be empty")
	}
	return nil
}

func NewRunResponse(problemID, language string, results []TestResult) RunResponse {
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return RunResponse{
		ProblemID: problemID,
		Language:  language,
		Results:   results,
		Passed:    passed,
		Total:     len(results),
	}
}
