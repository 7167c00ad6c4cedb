package judge

import (
	"time"

	"github.com/tukey-oj/evaluator/pkg/statuses"
)

// Submission is one user's code entry against one problem. Created in
// Pending state by the intake layer; only the evaluator mutates it.
type Submission struct {
	ID        int64
	UserID    int64
	ProblemID int64
	Language  string
	Code      string
	Status    statuses.Status

	// TotalTime is the sum of per-case execution times in seconds,
	// PeakMemory the maximum per-case peak in MB.
	TotalTime  float64
	PeakMemory float64

	// Output carries the failure detail when the evaluation itself
	// failed; per-case results live in their own rows and blob.
	Output string

	CreatedAt time.Time
}

type Problem struct {
	ID         int64
	Title      string
	Difficulty string
}

// TestCase is an (input, expected output) pair. Both fields hold the
// re-parseable textual encoding understood by value.Parse. Public cases
// may be shown to the user; private ones grade only.
type TestCase struct {
	ID             int64
	ProblemID      int64
	Input          string
	ExpectedOutput string
	Public         bool
}

// TestCaseResult is one outcome per (submission, test case) pair.
// Written exactly once per evaluation run, never mutated.
type TestCaseResult struct {
	TestCaseID    int64           `json:"testcase_id"`
	Status        statuses.Status `json:"status"`
	Output        string          `json:"output"`
	Expected      string          `json:"expected"`
	ExecutionTime *float64        `json:"execution_time"`
	PeakMemory    *float64        `json:"peak_memory"`
	ErrorMessage  string          `json:"error_message,omitempty"`
}

// User carries the aggregate stat fields the evaluator owns as a side
// effect. They are always recomputed from the full solution history.
type User struct {
	ID             int64
	Username       string
	CompletedCount int
	SuccessRate    float64
	Streak         int
	Experience     int
	Level          string
	LastAcceptedAt *time.Time
}
