package services

import (
	"context"
	"math/rand/v2"

	"codepad/internal/models"
)

// Grader decides a submission's verdict. Real grading is an external
// collaborator; the only implementation here is a placeholder.
type Grader interface {
	Grade(ctx context.Context, sub models.Submission, source string) (models.SubmissionStatus, error)
}

// RandomGrader accepts with probability AcceptRate and ignores the source.
type RandomGrader struct {
	AcceptRate float64
	Float64    func() float64
}

func NewRandomGrader(acceptRate float64) *RandomGrader {
	return &RandomGrader{AcceptRate: acceptRate, Float64: rand.Float64}
}

func (g *RandomGrader) Grade(ctx context.Context, _ models.Submission, _ string) (models.SubmissionStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.Float64() < g.AcceptRate {
		return models.StatusAccepted, nil
	}
	return models.StatusWrong, nil
}
