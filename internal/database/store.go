package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tukey-oj/evaluator/internal/judge"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

// Store implements judge.Store on a PostgreSQL database.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetSubmission(ctx context.Context, id int64) (*judge.Submission, error) {
	var row submissionRow
	err := s.db.GetContext(ctx, &row,
		"SELECT id, user_id, problem_id, language, code, status, execution_time, memory_used, output, results_blob, created_at FROM submissions WHERE id = $1",
		id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission %d: %w", id, judge.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *Store) GetProblem(ctx context.Context, id int64) (*judge.Problem, error) {
	var row problemRow
	err := s.db.GetContext(ctx, &row,
		"SELECT id, title, difficulty FROM problems WHERE id = $1",
		id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("problem %d: %w", id, judge.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListTestCases(ctx context.Context, problemID int64) ([]judge.TestCase, error) {
	var rows []testCaseRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT id, problem_id, input_data, expected_output, is_public FROM testcases WHERE problem_id = $1 ORDER BY id",
		problemID)
	if err != nil {
		return nil, err
	}
	cases := make([]judge.TestCase, len(rows))
	for i, row := range rows {
		cases[i] = row.toDomain()
	}
	return cases, nil
}

func (s *Store) UpdateSubmissionStatus(ctx context.Context, id int64, status statuses.Status) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE submissions SET status = $1 WHERE id = $2",
		string(status), id)
	return err
}

// SaveResults writes the terminal submission state and its per-case
// results in one transaction. Results are stored twice: as rows for
// querying and as a compressed blob for cheap full retrieval. Reruns
// replace any rows from earlier attempts.
func (s *Store) SaveResults(ctx context.Context, subm *judge.Submission, results []judge.TestCaseResult) error {
	blob, err := EncodeResults(results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"UPDATE submissions SET status = $1, execution_time = $2, memory_used = $3, output = $4, results_blob = $5 WHERE id = $6",
		string(subm.Status), subm.TotalTime, subm.PeakMemory, subm.Output, blob, subm.ID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM testcase_results WHERE submission_id = $1",
		subm.ID)
	if err != nil {
		return err
	}
	for _, res := range results {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO testcase_results (submission_id, testcase_id, status, output, expected, execution_time, peak_memory, error_message) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
			subm.ID, res.TestCaseID, string(res.Status), res.Output, res.Expected,
			res.ExecutionTime, res.PeakMemory, res.ErrorMessage)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListResults reads back the per-case results from the blob.
func (s *Store) ListResults(ctx context.Context, submissionID int64) ([]judge.TestCaseResult, error) {
	var blob []byte
	err := s.db.GetContext(ctx, &blob,
		"SELECT results_blob FROM submissions WHERE id = $1",
		submissionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission %d: %w", submissionID, judge.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return DecodeResults(blob)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*judge.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		"SELECT id, username, completed_count, success_rate, streak, experience, level, last_accepted_at FROM users WHERE id = $1",
		id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, judge.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListUserSubmissions(ctx context.Context, userID int64) ([]judge.Submission, error) {
	var rows []submissionRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT id, user_id, problem_id, language, code, status, execution_time, memory_used, output, results_blob, created_at FROM submissions WHERE user_id = $1 ORDER BY created_at",
		userID)
	if err != nil {
		return nil, err
	}
	subms := make([]judge.Submission, len(rows))
	for i, row := range rows {
		subms[i] = *row.toDomain()
	}
	return subms, nil
}

func (s *Store) UpdateUserStats(ctx context.Context, user *judge.User) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET completed_count = $1, success_rate = $2, streak = $3, experience = $4, level = $5, last_accepted_at = $6 WHERE id = $7",
		user.CompletedCount, user.SuccessRate, user.Streak, user.Experience,
		user.Level, user.LastAcceptedAt, user.ID)
	return err
}

// InsertSubmission creates a Pending row and returns its id. Used by
// the intake command, never by the evaluator.
func (s *Store) InsertSubmission(ctx context.Context, userID, problemID int64, language, code string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id,
		"INSERT INTO submissions (user_id, problem_id, language, code, status, created_at) VALUES ($1, $2, $3, $4, $5, now()) RETURNING id",
		userID, problemID, language, code, string(statuses.Pending))
	return id, err
}
