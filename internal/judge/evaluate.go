package judge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tukey-oj/evaluator/api"
	"github.com/tukey-oj/evaluator/internal/runner"
	"github.com/tukey-oj/evaluator/internal/stats"
	"github.com/tukey-oj/evaluator/internal/value"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

// Evaluate runs the full state machine for one submission:
// Pending -> Running -> terminal verdict. Terminal verdicts (including
// Wrong Answer and Compilation Error) return a nil error; a non-nil
// error means the evaluation itself could not complete and the task
// should be retried.
func (e *Evaluator) Evaluate(ctx context.Context, submissionID int64) (statuses.Status, error) {
	subm, err := e.store.GetSubmission(ctx, submissionID)
	if err != nil {
		// not-found included: the row may not be visible to the worker yet
		return "", fmt.Errorf("failed to load submission %d: %w", submissionID, err)
	}

	gath := e.gatherers(subm.ID)
	log := e.log.With("submission_id", subm.ID, "user_id", subm.UserID, "problem_id", subm.ProblemID)

	if err := e.store.UpdateSubmissionStatus(ctx, subm.ID, statuses.Running); err != nil {
		return "", fmt.Errorf("failed to mark submission running: %w", err)
	}
	subm.Status = statuses.Running
	gath.StartEvaluation()
	log.Info("evaluation started", "language", subm.Language)

	if strings.TrimSpace(subm.Code) == "" {
		log.Info("empty code, rejecting without running tests")
		return e.finish(ctx, log, gath, subm, statuses.CompilationError, "empty code", nil)
	}

	var problem *Problem
	var cases []TestCase
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		problem, err = e.store.GetProblem(grpCtx, subm.ProblemID)
		if err != nil {
			return fmt.Errorf("failed to load problem %d: %w", subm.ProblemID, err)
		}
		return nil
	})
	grp.Go(func() error {
		var err error
		cases, err = e.store.ListTestCases(grpCtx, subm.ProblemID)
		if err != nil {
			return fmt.Errorf("failed to load test cases: %w", err)
		}
		return nil
	})
	if err := grp.Wait(); err != nil {
		return e.fail(ctx, log, gath, subm, err)
	}
	_ = problem // prefetched alongside the test cases; only the load error is consumed here

	if len(cases) == 0 {
		log.Warn("problem has no test cases")
		return e.finish(ctx, log, gath, subm, statuses.Error, "no test cases", nil)
	}

	run, ok := e.runners.Lookup(subm.Language)
	if !ok {
		log.Warn("unsupported language", "language", subm.Language)
		return e.finish(ctx, log, gath, subm, statuses.Error,
			fmt.Sprintf("unsupported language: %s", subm.Language), nil)
	}

	results := make([]TestCaseResult, 0, len(cases))
	totalTime := 0.0
	peakMemory := 0.0
	for i, tc := range cases {
		res := e.runTestCase(ctx, run, subm.Code, tc)
		results = append(results, res)

		if res.ExecutionTime != nil {
			totalTime += *res.ExecutionTime
		}
		if res.PeakMemory != nil && *res.PeakMemory > peakMemory {
			peakMemory = *res.PeakMemory
		}

		gath.ReportTestCase(api.TestCaseResultEvent{
			TestCaseNumber: i + 1,
			TotalTestCases: len(cases),
			Status:         string(res.Status),
			Input:          tc.Input,
			Output:         res.Output,
			Expected:       res.Expected,
			ExecutionTime:  res.ExecutionTime,
			PeakMemory:     res.PeakMemory,
			ErrorMessage:   res.ErrorMessage,
		})
		log.Info("test case finished", "test_case", i+1, "total", len(cases), "status", res.Status)
	}

	overall := statuses.WrongAnswer
	if allPassed(results) {
		overall = statuses.Accepted
	}
	subm.TotalTime = totalTime
	subm.PeakMemory = peakMemory

	return e.finish(ctx, log, gath, subm, overall, "", results)
}

// runTestCase evaluates one case. Per-case failures never abort the
// loop: even runner infrastructure errors become a per-case Error
// result and evaluation continues with the next case.
func (e *Evaluator) runTestCase(ctx context.Context, run runner.Runner, code string, tc TestCase) TestCaseResult {
	input := value.Parse(tc.Input)
	expected := value.Parse(tc.ExpectedOutput)

	result := TestCaseResult{
		TestCaseID: tc.ID,
		Expected:   expected.Canonical(),
	}

	res, err := run.Run(ctx, code, input)
	if err != nil {
		result.Status = statuses.Error
		result.Output = err.Error()
		result.ErrorMessage = err.Error()
		return result
	}

	result.ExecutionTime = res.ExecutionTime
	result.PeakMemory = res.PeakMemory

	switch res.Kind {
	case runner.KindOK:
		result.Output = res.Value.Canonical()
		if e.comparator.Passes(res.Value, expected) {
			result.Status = statuses.Passed
		} else {
			result.Status = statuses.Failed
		}
	case runner.KindTimeLimitExceeded:
		result.Status = statuses.TimeLimitExceeded
		result.ErrorMessage = res.ErrorMessage
	case runner.KindMemoryLimitExceeded:
		result.Status = statuses.MemoryLimitExceeded
		result.ErrorMessage = res.ErrorMessage
	case runner.KindNoEntryPoint:
		result.Status = statuses.CompilationError
		result.ErrorMessage = res.ErrorMessage
	case runner.KindParameterMismatch, runner.KindRuntimeError:
		result.Status = statuses.RuntimeError
		result.ErrorMessage = res.ErrorMessage
	}
	if result.Output == "" && result.ErrorMessage != "" {
		result.Output = result.ErrorMessage
	}
	return result
}

// finish persists the terminal state, refreshes user stats and emits
// the final progress event.
func (e *Evaluator) finish(ctx context.Context, log *slog.Logger, gath ProgressGatherer,
	subm *Submission, status statuses.Status, output string, results []TestCaseResult,
) (statuses.Status, error) {
	subm.Status = status
	subm.Output = output
	if err := e.store.SaveResults(ctx, subm, results); err != nil {
		return e.fail(ctx, log, gath, subm, fmt.Errorf("failed to persist results: %w", err))
	}

	if err := e.updateUserStats(ctx, subm); err != nil {
		return e.fail(ctx, log, gath, subm, err)
	}

	message := "Evaluation completed"
	if output != "" {
		message = output
	}
	gath.FinishEvaluation(status, message)
	log.Info("evaluation finished", "status", status, "total_time", subm.TotalTime, "peak_memory", subm.PeakMemory)
	return status, nil
}

// fail records an evaluation-level failure: the submission is moved to
// Error with the failure text, stats still refresh, the stream gets its
// final event, and the error propagates so the retry policy sees it.
func (e *Evaluator) fail(ctx context.Context, log *slog.Logger, gath ProgressGatherer,
	subm *Submission, cause error,
) (statuses.Status, error) {
	log.Error("evaluation failed", "error", cause)
	subm.Status = statuses.Error
	subm.Output = cause.Error()
	if err := e.store.SaveResults(ctx, subm, nil); err != nil {
		log.Error("failed to persist failure state", "error", err)
	}
	if err := e.updateUserStats(ctx, subm); err != nil {
		log.Error("failed to update user stats after failure", "error", err)
	}
	gath.FinishEvaluation(statuses.Error, cause.Error())
	return statuses.Error, cause
}

// updateUserStats recomputes aggregates from the full solution history
// and, for accepted submissions, awards experience and advances the
// streak.
func (e *Evaluator) updateUserStats(ctx context.Context, subm *Submission) error {
	user, err := e.store.GetUser(ctx, subm.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", subm.UserID, err)
	}
	history, err := e.store.ListUserSubmissions(ctx, subm.UserID)
	if err != nil {
		return fmt.Errorf("failed to load submission history: %w", err)
	}

	solves := make([]stats.Solve, len(history))
	for i, s := range history {
		solves[i] = stats.Solve{ProblemID: s.ProblemID, Accepted: s.Status == statuses.Accepted}
	}
	user.CompletedCount, user.SuccessRate = stats.Summary(solves)

	if subm.Status == statuses.Accepted {
		problem, err := e.store.GetProblem(ctx, subm.ProblemID)
		if err != nil {
			return fmt.Errorf("failed to load problem for experience award: %w", err)
		}
		now := e.now()
		award := stats.ExperienceAward(problem.Difficulty, subm.TotalTime, subm.PeakMemory)
		user.Experience += award
		user.Level = stats.LevelFor(user.Experience)
		user.Streak = stats.NextStreak(user.Streak, user.LastAcceptedAt, now)
		user.LastAcceptedAt = &now
		e.log.Info("experience awarded",
			"user_id", user.ID, "points", award, "difficulty", problem.Difficulty,
			"level", user.Level, "streak", user.Streak)
	}

	if err := e.store.UpdateUserStats(ctx, user); err != nil {
		return fmt.Errorf("failed to update user stats: %w", err)
	}
	return nil
}

func allPassed(results []TestCaseResult) bool {
	for _, r := range results {
		if r.Status != statuses.Passed {
			return false
		}
	}
	return true
}
