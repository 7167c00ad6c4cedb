// Package termgath prints progress to the terminal. Used by the check
// command when replaying scenarios locally.
package termgath

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/tukey-oj/evaluator/api"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	infoColor = color.New(color.FgCyan)
)

type TerminalGatherer struct {
	SubmissionID int64
	StartedAt    time.Time
}

func New(submissionID int64) *TerminalGatherer {
	return &TerminalGatherer{SubmissionID: submissionID, StartedAt: time.Now()}
}

func (t *TerminalGatherer) StartEvaluation() {
	infoColor.Printf("== Evaluating submission %d ==\n", t.SubmissionID)
}

func (t *TerminalGatherer) ReportTestCase(res api.TestCaseResultEvent) {
	c := failColor
	if res.Status == string(statuses.Passed) {
		c = passColor
	}
	c.Printf("  test %d/%d: %s", res.TestCaseNumber, res.TotalTestCases, res.Status)
	if res.ExecutionTime != nil {
		fmt.Printf("  (%.3fs", *res.ExecutionTime)
		if res.PeakMemory != nil {
			fmt.Printf(", %.2fMB", *res.PeakMemory)
		}
		fmt.Print(")")
	}
	fmt.Println()
	if res.Status != string(statuses.Passed) {
		if res.ErrorMessage != "" {
			fmt.Printf("    %s\n", res.ErrorMessage)
		} else {
			fmt.Printf("    got %s, want %s\n", res.Output, res.Expected)
		}
	}
}

func (t *TerminalGatherer) FinishEvaluation(status statuses.Status, message string) {
	c := failColor
	if status == statuses.Accepted {
		c = passColor
	}
	c.Printf("== %s", status)
	if message != "" {
		fmt.Printf(": %s", message)
	}
	fmt.Printf(" (%.2fs) ==\n", time.Since(t.StartedAt).Seconds())
}
