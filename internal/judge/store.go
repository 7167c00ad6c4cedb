package judge

import (
	"context"
	"errors"

	"github.com/tukey-oj/evaluator/pkg/statuses"
)

// ErrNotFound marks rows the worker cannot see yet, e.g. a submission
// created on the API side that has not replicated. The retry layer
// treats evaluations failing with it as retryable rather than broken.
var ErrNotFound = errors.New("not found")

// Store is the persistence the evaluator needs. The sqlx implementation
// lives in internal/database; tests use an in-memory one.
type Store interface {
	GetSubmission(ctx context.Context, id int64) (*Submission, error)
	GetProblem(ctx context.Context, id int64) (*Problem, error)
	ListTestCases(ctx context.Context, problemID int64) ([]TestCase, error)

	UpdateSubmissionStatus(ctx context.Context, id int64, status statuses.Status) error
	// SaveResults persists the final submission state together with its
	// per-case result rows in one transaction.
	SaveResults(ctx context.Context, subm *Submission, results []TestCaseResult) error

	GetUser(ctx context.Context, id int64) (*User, error)
	ListUserSubmissions(ctx context.Context, userID int64) ([]Submission, error)
	UpdateUserStats(ctx context.Context, user *User) error
}
