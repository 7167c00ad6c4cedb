package statuses

// Status is the verdict of a submission or of a single test case.
type Status string

// Submission-level statuses.
const (
	Pending             Status = "Pending"
	Running             Status = "Running"
	Accepted            Status = "Accepted"
	WrongAnswer         Status = "Wrong Answer"
	CompilationError    Status = "Compilation Error"
	RuntimeError        Status = "Runtime Error"
	TimeLimitExceeded   Status = "Time Limit Exceeded"
	MemoryLimitExceeded Status = "Memory Limit Exceeded"
	EvaluationFailed    Status = "Evaluation Failed"
	Error               Status = "Error"
)

// Test-case-level statuses. TimeLimitExceeded, RuntimeError,
// MemoryLimitExceeded and CompilationError double as per-case verdicts.
const (
	Passed Status = "Passed"
	Failed Status = "Failed"
)

// Terminal reports whether a submission status is an end state.
func Terminal(s Status) bool {
	return s != Pending && s != Running
}
