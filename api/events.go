// Package api holds the wire types shared between the evaluation worker
// and its clients: the queue request that dispatches an evaluation and
// the progress events streamed while it runs.
package api

import (
	"fmt"
	"strings"
)

// Size constraints for streamed input/output snippets.
const (
	MaxFieldHeight = 40
	MaxFieldWidth  = 80
)

// Event is one progress message on a submission's channel. Subscribers
// treat the final Completed/Error event as end-of-stream.
type Event struct {
	SubmissionID int64  `json:"submission_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`

	// TestCaseResult is set on per-test-case events only.
	TestCaseResult *TestCaseResultEvent `json:"test_case_result,omitempty"`
}

// TestCaseResultEvent is the structured per-test-case payload.
type TestCaseResultEvent struct {
	TestCaseNumber int      `json:"test_case_number"`
	TotalTestCases int      `json:"total_test_cases"`
	Status         string   `json:"status"`
	Input          string   `json:"input"`
	Output         string   `json:"output"`
	Expected       string   `json:"expected"`
	ExecutionTime  *float64 `json:"execution_time"`
	PeakMemory     *float64 `json:"peak_memory"`
	ErrorMessage   string   `json:"error_message,omitempty"`
}

func NewStartedEvent(submissionID int64, status string) Event {
	return Event{
		SubmissionID: submissionID,
		Status:       status,
		Message:      "Evaluation started",
	}
}

func NewTestCaseEvent(submissionID int64, status string, tc TestCaseResultEvent) Event {
	tc.Input = TrimToRect(tc.Input, MaxFieldHeight, MaxFieldWidth)
	tc.Output = TrimToRect(tc.Output, MaxFieldHeight, MaxFieldWidth)
	tc.Expected = TrimToRect(tc.Expected, MaxFieldHeight, MaxFieldWidth)
	return Event{
		SubmissionID:   submissionID,
		Status:         status,
		Message:        testCaseMessage(tc),
		TestCaseResult: &tc,
	}
}

func NewFinishedEvent(submissionID int64, status string, message string) Event {
	return Event{
		SubmissionID: submissionID,
		Status:       status,
		Message:      message,
	}
}

func testCaseMessage(tc TestCaseResultEvent) string {
	return fmt.Sprintf("Test case %d/%d: %s", tc.TestCaseNumber, tc.TotalTestCases, tc.Status)
}

// TrimToRect cuts a string to at most maxHeight lines of maxWidth
// characters, marking elisions.
func TrimToRect(s string, maxHeight int, maxWidth int) string {
	if s == "" {
		return s
	}
	res := ""
	lines := strings.Split(s, "\n")
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
		lines = append(lines, "[...]")
	}
	for i, line := range lines {
		if i > 0 {
			res += "\n"
		}
		if len(line) > maxWidth {
			res += line[:maxWidth] + "[...]"
		} else {
			res += line
		}
	}
	return res
}
