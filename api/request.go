package api

// EvalRequest is the queue message that dispatches one submission
// evaluation to a worker. EvalUuid identifies the evaluation run for
// logging and dedupe; the submission row is the source of truth for
// everything else.
type EvalRequest struct {
	EvalUuid     string `json:"eval_uuid"`
	SubmissionID int64  `json:"submission_id"`
}
