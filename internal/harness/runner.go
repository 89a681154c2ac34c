package harness

import (
	"context"

	"codepad/internal/logger"
	"codepad/internal/models"

	"go.uber.org/zap"
)

// RunTests executes source against every test case of problem, in order.
// Each case runs independently and every failure is folded into its
// TestResult, so the returned slice always has one entry per test case.
// interrupted is true when any case was stopped by the timeout or by ctx.
func (r *Registry) RunTests(ctx context.Context, problem *models.Problem, language, source string) (results []models.TestResult, interrupted bool) {
	results = make([]models.TestResult, 0, len(problem.TestCases))

	for i, input := range problem.TestCases {
		expected := problem.ExpectedOutputs[i]
		res := r.Execute(ctx, source, input, language)

		tr := models.TestResult{
			Input:    input,
			Expected: expected,
		}
		if !res.OK() {
			tr.Actual = res.Err.Error()
			tr.Error = true
			if IsInterrupted(res.Err) {
				interrupted = true
			}
		} else {
			tr.Actual = res.Output
			tr.Passed = Matches(expected, res.Output)
		}

		logger.Log.Debug("Executed test case",
			zap.String("problem_id", problem.ID),
			zap.String("language", language),
			zap.Int("test_case", i+1),
			zap.Bool("passed", tr.Passed))

		results = append(results, tr)
	}

	return results, interrupted
}
