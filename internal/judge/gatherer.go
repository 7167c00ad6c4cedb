package judge

import (
	"github.com/tukey-oj/evaluator/api"
	"github.com/tukey-oj/evaluator/pkg/statuses"
)

// ProgressGatherer receives evaluation progress for one submission.
// Delivery is fire-and-forget: implementations log publish failures and
// never block or abort the evaluation.
type ProgressGatherer interface {
	StartEvaluation()
	ReportTestCase(res api.TestCaseResultEvent)
	FinishEvaluation(status statuses.Status, message string)
}

// GathererFactory builds the progress sink for a submission's channel.
type GathererFactory func(submissionID int64) ProgressGatherer

// MultiGatherer fans events out to several sinks in order.
type MultiGatherer []ProgressGatherer

func (m MultiGatherer) StartEvaluation() {
	for _, g := range m {
		g.StartEvaluation()
	}
}

func (m MultiGatherer) ReportTestCase(res api.TestCaseResultEvent) {
	for _, g := range m {
		g.ReportTestCase(res)
	}
}

func (m MultiGatherer) FinishEvaluation(status statuses.Status, message string) {
	for _, g := range m {
		g.FinishEvaluation(status, message)
	}
}
