package database

import (
	"time"

	"github.com/tukey-oj/evaluator/internal/judge"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

type submissionRow struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	ProblemID     int64     `db:"problem_id"`
	Language      string    `db:"language"`
	Code          string    `db:"code"`
	Status        string    `db:"status"`
	ExecutionTime *float64  `db:"execution_time"`
	MemoryUsed    *float64  `db:"memory_used"`
	Output        *string   `db:"output"`
	ResultsBlob   []byte    `db:"results_blob"`
	CreatedAt     time.Time `db:"created_at"`
}

type problemRow struct {
	ID         int64  `db:"id"`
	Title      string `db:"title"`
	Difficulty string `db:"difficulty"`
}

type testCaseRow struct {
	ID             int64  `db:"id"`
	ProblemID      int64  `db:"problem_id"`
	InputData      string `db:"input_data"`
	ExpectedOutput string `db:"expected_output"`
	IsPublic       bool   `db:"is_public"`
}

type userRow struct {
	ID             int64      `db:"id"`
	Username       string     `db:"username"`
	CompletedCount int        `db:"completed_count"`
	SuccessRate    float64    `db:"success_rate"`
	Streak         int        `db:"streak"`
	Experience     int        `db:"experience"`
	Level          string     `db:"level"`
	LastAcceptedAt *time.Time `db:"last_accepted_at"`
}

func (r submissionRow) toDomain() *judge.Submission {
	subm := &judge.Submission{
		ID:        r.ID,
		UserID:    r.UserID,
		ProblemID: r.ProblemID,
		Language:  r.Language,
		Code:      r.Code,
		Status:    statuses.Status(r.Status),
		CreatedAt: r.CreatedAt,
	}
	if r.ExecutionTime != nil {
		subm.TotalTime = *r.ExecutionTime
	}
	if r.MemoryUsed != nil {
		subm.PeakMemory = *r.MemoryUsed
	}
	if r.Output != nil {
		subm.Output = *r.Output
	}
	return subm
}

func (r problemRow) toDomain() *judge.Problem {
	return &judge.Problem{ID: r.ID, Title: r.Title, Difficulty: r.Difficulty}
}

func (r testCaseRow) toDomain() judge.TestCase {
	return judge.TestCase{
		ID:             r.ID,
		ProblemID:      r.ProblemID,
		Input:          r.InputData,
		ExpectedOutput: r.ExpectedOutput,
		Public:         r.IsPublic,
	}
}

func (r userRow) toDomain() *judge.User {
	return &judge.User{
		ID:             r.ID,
		Username:       r.Username,
		CompletedCount: r.CompletedCount,
		SuccessRate:    r.SuccessRate,
		Streak:         r.Streak,
		Experience:     r.Experience,
		Level:          r.Level,
		LastAcceptedAt: r.LastAcceptedAt,
	}
}
