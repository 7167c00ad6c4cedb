package judge_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tukey-oj/evaluator/api"
	"github.com/tukey-oj/evaluator/internal/judge"
	"github.com/tukey-oj/evaluator/internal/runner"
	"github.com/tukey-oj/evaluator/internal/value"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

// memStore is an in-memory judge.Store.
type memStore struct {
	submissions map[int64]*judge.Submission
	problems    map[int64]*judge.Problem
	testCases   map[int64][]judge.TestCase
	users       map[int64]*judge.User

	savedResults []judge.TestCaseResult
	saveErr      error
}

func newMemStore() *memStore {
	return &memStore{
		submissions: map[int64]*judge.Submission{},
		problems:    map[int64]*judge.Problem{},
		testCases:   map[int64][]judge.TestCase{},
		users:       map[int64]*judge.User{},
	}
}

func (s *memStore) GetSubmission(_ context.Context, id int64) (*judge.Submission, error) {
	subm, ok := s.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %d: %w", id, judge.ErrNotFound)
	}
	cp := *subm
	return &cp, nil
}

func (s *memStore) GetProblem(_ context.Context, id int64) (*judge.Problem, error) {
	p, ok := s.problems[id]
	if !ok {
		return nil, fmt.Errorf("problem %d: %w", id, judge.ErrNotFound)
	}
	return p, nil
}

func (s *memStore) ListTestCases(_ context.Context, problemID int64) ([]judge.TestCase, error) {
	return s.testCases[problemID], nil
}

func (s *memStore) UpdateSubmissionStatus(_ context.Context, id int64, status statuses.Status) error {
	if subm, ok := s.submissions[id]; ok {
		subm.Status = status
	}
	return nil
}

func (s *memStore) SaveResults(_ context.Context, subm *judge.Submission, results []judge.TestCaseResult) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *subm
	s.submissions[subm.ID] = &cp
	s.savedResults = results
	return nil
}

func (s *memStore) GetUser(_ context.Context, id int64) (*judge.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, judge.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) ListUserSubmissions(_ context.Context, userID int64) ([]judge.Submission, error) {
	var history []judge.Submission
	for _, subm := range s.submissions {
		if subm.UserID == userID {
			history = append(history, *subm)
		}
	}
	return history, nil
}

func (s *memStore) UpdateUserStats(_ context.Context, user *judge.User) error {
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// scriptRunner replays pre-baked results in order.
type scriptRunner struct {
	results []*runner.Result
	calls   int
}

func (r *scriptRunner) Language() string { return "python" }

func (r *scriptRunner) Run(_ context.Context, _ string, _ value.Value) (*runner.Result, error) {
	if r.calls >= len(r.results) {
		return nil, errors.New("unexpected extra invocation")
	}
	res := r.results[r.calls]
	r.calls++
	return res, nil
}

// collector records every event in order.
type collector struct {
	events []api.Event
}

func (c *collector) StartEvaluation() {
	c.events = append(c.events, api.Event{Status: string(statuses.Running), Message: "Evaluation started"})
}

func (c *collector) ReportTestCase(res api.TestCaseResultEvent) {
	c.events = append(c.events, api.Event{Status: string(statuses.Running), TestCaseResult: &res})
}

func (c *collector) FinishEvaluation(status statuses.Status, message string) {
	c.events = append(c.events, api.Event{Status: string(status), Message: message})
}

func okResult(v value.Value, execTime, peakMem float64) *runner.Result {
	return &runner.Result{
		Kind:          runner.KindOK,
		Value:         value.Wrap(v),
		ExecutionTime: &execTime,
		PeakMemory:    &peakMem,
	}
}

func fixture(code string, cases []judge.TestCase, results ...*runner.Result) (*memStore, *collector, *judge.Evaluator) {
	store := newMemStore()
	store.submissions[1] = &judge.Submission{
		ID: 1, UserID: 7, ProblemID: 3, Language: "python",
		Code: code, Status: statuses.Pending,
	}
	store.problems[3] = &judge.Problem{ID: 3, Title: "Sum", Difficulty: "Easy"}
	store.testCases[3] = cases
	store.users[7] = &judge.User{ID: 7, Username: "ada"}

	sink := &collector{}
	reg := runner.NewRegistry(&scriptRunner{results: results})
	ev := judge.NewEvaluator(slog.New(slog.DiscardHandler), store, reg,
		func(int64) judge.ProgressGatherer { return sink })
	return store, sink, ev
}

func twoCases() []judge.TestCase {
	return []judge.TestCase{
		{ID: 11, ProblemID: 3, Input: "2,3", ExpectedOutput: "5", Public: true},
		{ID: 12, ProblemID: 3, Input: "10,20", ExpectedOutput: "30"},
	}
}

func TestEvaluateAccepted(t *testing.T) {
	store, sink, ev := fixture("def solve(a,b): return a+b", twoCases(),
		okResult(value.Number(5), 0.2, 4),
		okResult(value.Number(30), 0.3, 6),
	)

	status, err := ev.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, statuses.Accepted, status)

	subm := store.submissions[1]
	assert.Equal(t, statuses.Accepted, subm.Status)
	assert.InDelta(t, 0.5, subm.TotalTime, 1e-9, "time is the sum across cases")
	assert.InDelta(t, 6.0, subm.PeakMemory, 1e-9, "memory is the max across cases")

	require.Len(t, store.savedResults, 2)
	assert.Equal(t, statuses.Passed, store.savedResults[0].Status)
	assert.Equal(t, statuses.Passed, store.savedResults[1].Status)

	// start, one event per case in order, then exactly one final event
	require.Len(t, sink.events, 4)
	assert.Equal(t, "Evaluation started", sink.events[0].Message)
	assert.Equal(t, 1, sink.events[1].TestCaseResult.TestCaseNumber)
	assert.Equal(t, 2, sink.events[2].TestCaseResult.TestCaseNumber)
	assert.Equal(t, string(statuses.Accepted), sink.events[3].Status)

	user := store.users[7]
	assert.Equal(t, 1, user.CompletedCount)
	assert.InDelta(t, 100.0, user.SuccessRate, 1e-9)
	assert.Equal(t, 20, user.Experience, "easy base plus both bonuses")
	assert.Equal(t, 1, user.Streak)
}

func TestEvaluateWrongAnswer(t *testing.T) {
	store, sink, ev := fixture("def solve(a,b): return a+b", twoCases(),
		okResult(value.Number(5), 0.2, 4),
		okResult(value.Number(31), 0.3, 6),
	)

	status, err := ev.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, statuses.WrongAnswer, status)

	require.Len(t, store.savedResults, 2)
	assert.Equal(t, statuses.Passed, store.savedResults[0].Status)
	assert.Equal(t, statuses.Failed, store.savedResults[1].Status)

	user := store.users[7]
	assert.Equal(t, 0, user.Experience, "no experience for rejected submissions")
	assert.InDelta(t, 0.0, user.SuccessRate, 1e-9)
	assert.Equal(t, string(statuses.WrongAnswer), sink.events[len(sink.events)-1].Status)
}

func TestEvaluateEmptyCode(t *testing.T) {
	store, sink, ev := fixture("   \n\t", twoCases())

	status, err := ev.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, statuses.CompilationError, status)
	assert.Empty(t, store.savedResults, "no test case results for empty code")
	assert.Equal(t, string(statuses.CompilationError), sink.events[len(sink.events)-1].Status)

	// stats still refresh
	assert.InDelta(t, 0.0, store.users[7].SuccessRate, 1e-9)
}

func TestEvaluateNoTestCases(t *testing.T) {
	store, _, ev := fixture("def f(x): return x", nil)

	status, err := ev.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, statuses.Error, status)
	assert.Equal(t, "no test cases", store.submissions[1].Output)
	assert.Empty(t, store.savedResults)
}

func TestEvaluateUnsupportedLanguage(t *testing.T) {
	store, _, ev := fixture("def f(x): return x", twoCases())
	store.submissions[1].Language = "cobol"

	status, err := ev.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, statuses.Error, status)
	assert.Contains(t, store.submissions[1].Output, "unsupported language")
}

func TestEvaluateSubmissionNotFoundIsRetryable(t *testing.T) {
	_, _, ev := fixture("def f(x): return x", twoCases())

	_, err := ev.Evaluate(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, judge.ErrNotFound))
}

func TestEvaluateRuntimeErrorContinuesLoop(t *testing.T) {
	store, _, ev := fixture("def solve(a,b): raise ValueError('boom')", twoCases(),
		&runner.Result{Kind: runner.KindRuntimeError, ErrorMessage: "ValueError: boom"},
		okResult(value.Number(30), 0.3, 6),
	)

	status, err := ev.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, statuses.WrongAnswer, status)

	require.Len(t, store.savedResults, 2, "loop continues past the failing case")
	assert.Equal(t, statuses.RuntimeError, store.savedResults[0].Status)
	assert.Contains(t, store.savedResults[0].ErrorMessage, "boom")
	assert.Equal(t, statuses.Passed, store.savedResults[1].Status)
}

func TestEvaluateTimeLimitExceeded(t *testing.T) {
	store, _, ev := fixture("def slow(x): ...", twoCases(),
		&runner.Result{Kind: runner.KindTimeLimitExceeded, ErrorMessage: "execution exceeded 2.0s wall-clock limit"},
		okResult(value.Number(30), 0.3, 6),
	)

	status, err := ev.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, statuses.WrongAnswer, status)
	assert.Equal(t, statuses.TimeLimitExceeded, store.savedResults[0].Status)
	assert.Nil(t, store.savedResults[0].ExecutionTime, "no execution time for timed-out cases")
	assert.InDelta(t, 0.3, store.submissions[1].TotalTime, 1e-9)
}

func TestEvaluateMemoryLimitExceeded(t *testing.T) {
	store, _, ev := fixture("def hog(a,b): return 'x' * (1 << 34)", twoCases(),
		&runner.Result{Kind: runner.KindMemoryLimitExceeded, ErrorMessage: "memory limit exceeded"},
		okResult(value.Number(30), 0.3, 6),
	)

	status, err := ev.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, statuses.WrongAnswer, status)

	require.Len(t, store.savedResults, 2)
	assert.Equal(t, statuses.MemoryLimitExceeded, store.savedResults[0].Status)
	assert.Equal(t, "memory limit exceeded", store.savedResults[0].ErrorMessage)
	assert.Equal(t, statuses.Passed, store.savedResults[1].Status)
}

func TestEvaluateNoEntryPointMapsToCompilationError(t *testing.T) {
	store, _, ev := fixture("x = 1", twoCases(),
		&runner.Result{Kind: runner.KindNoEntryPoint, ErrorMessage: "no callable found in submission"},
		&runner.Result{Kind: runner.KindNoEntryPoint, ErrorMessage: "no callable found in submission"},
	)

	_, err := ev.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, statuses.CompilationError, store.savedResults[0].Status)
}

func TestEvaluatePersistFailurePropagates(t *testing.T) {
	store, sink, ev := fixture("def solve(a,b): return a+b", twoCases(),
		okResult(value.Number(5), 0.2, 4),
		okResult(value.Number(30), 0.3, 6),
	)
	store.saveErr = errors.New("connection reset")

	status, err := ev.Evaluate(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, statuses.Error, status)
	assert.Equal(t, string(statuses.Error), sink.events[len(sink.events)-1].Status,
		"clients still get a terminal event")
}

func TestEvaluateStreakAdvances(t *testing.T) {
	store, _, ev := fixture("def solve(a,b): return a+b", twoCases(),
		okResult(value.Number(5), 0.2, 4),
		okResult(value.Number(30), 0.3, 6),
	)
	yesterday := time.Now().Add(-24 * time.Hour)
	store.users[7].Streak = 3
	store.users[7].LastAcceptedAt = &yesterday

	_, err := ev.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, store.users[7].Streak)
	require.NotNil(t, store.users[7].LastAcceptedAt)
}
